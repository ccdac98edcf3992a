package ml

import (
	"encoding/binary"
	"fmt"
	"math"

	lru "github.com/hashicorp/golang-lru/v2"
)

type Result struct {
	Prediction int      `json:"prediction"`
	Confidence *float64 `json:"confidence"`
}

// Status is the load state reported by the health surface.
type Status struct {
	ModelLoaded        bool
	ScalerLoaded       bool
	EncoderLoaded      bool
	SupportsConfidence bool
	Schema             Schema
	Reports            []LoadReport
}

// Pipeline runs the record -> vector -> scale -> predict chain against a
// bundle. Identical raw vectors produce identical results, so results may be
// served from an LRU cache.
type Pipeline struct {
	bundle *Bundle
	cache  *lru.Cache[string, Result]
	onHit  func()
}

type PipelineOption func(*Pipeline) error

// WithCache keeps up to size results keyed by the raw feature vector. A
// non-positive size leaves caching off.
func WithCache(size int) PipelineOption {
	return func(p *Pipeline) error {
		if size <= 0 {
			return nil
		}
		cache, err := lru.New[string, Result](size)
		if err != nil {
			return fmt.Errorf("create prediction cache: %w", err)
		}
		p.cache = cache
		return nil
	}
}

func WithCacheHitHook(fn func()) PipelineOption {
	return func(p *Pipeline) error {
		p.onHit = fn
		return nil
	}
}

// NewPipeline wraps bundle. A nil bundle gives a pipeline with nothing loaded.
func NewPipeline(bundle *Bundle, opts ...PipelineOption) (*Pipeline, error) {
	if bundle == nil {
		bundle = NewBundle(KOISchema(), nil, nil, nil)
	}
	p := &Pipeline{bundle: bundle}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Pipeline) Bundle() *Bundle {
	return p.bundle
}

func (p *Pipeline) Status() Status {
	return Status{
		ModelLoaded:        p.bundle.ModelLoaded(),
		ScalerLoaded:       p.bundle.ScalerLoaded(),
		EncoderLoaded:      p.bundle.EncoderLoaded(),
		SupportsConfidence: p.bundle.SupportsConfidence(),
		Schema:             p.bundle.Schema,
		Reports:            p.bundle.Reports,
	}
}

// Predict assembles, scales and classifies one record. It returns
// ErrModelNotLoaded without a model and ErrInvalidInput for bad records.
func (p *Pipeline) Predict(record Record) (Result, error) {
	if !p.bundle.ModelLoaded() {
		return Result{}, ErrModelNotLoaded
	}
	vector, err := p.bundle.Schema.Assemble(record)
	if err != nil {
		return Result{}, err
	}
	return p.PredictVector(vector)
}

func (p *Pipeline) PredictVector(vector Vector) (Result, error) {
	if !p.bundle.ModelLoaded() {
		return Result{}, ErrModelNotLoaded
	}
	var key string
	if p.cache != nil {
		key = vectorKey(vector)
		if cached, ok := p.cache.Get(key); ok {
			if p.onHit != nil {
				p.onHit()
			}
			return cached.clone(), nil
		}
	}

	result, err := p.predict(vector)
	if err != nil {
		return Result{}, err
	}
	if p.cache != nil {
		p.cache.Add(key, result.clone())
	}
	return result, nil
}

func (p *Pipeline) predict(vector Vector) (Result, error) {
	input := vector
	if p.bundle.Scaler != nil {
		scaled, err := p.bundle.Scaler.Transform(vector)
		if err != nil {
			return Result{}, fmt.Errorf("scale features: %w", err)
		}
		input = scaled
	}

	label, err := p.bundle.Model.Predict(input)
	if err != nil {
		return Result{}, fmt.Errorf("predict: %w", err)
	}
	result := Result{Prediction: label}
	if p.bundle.Proba != nil {
		proba, err := p.bundle.Proba.PredictProba(input)
		if err != nil {
			return Result{}, fmt.Errorf("predict probabilities: %w", err)
		}
		confidence := maxProbability(proba)
		result.Confidence = &confidence
	}
	return result, nil
}

func (r Result) clone() Result {
	if r.Confidence == nil {
		return r
	}
	c := *r.Confidence
	r.Confidence = &c
	return r
}

func vectorKey(vector Vector) string {
	buf := make([]byte, 8*len(vector))
	for i, v := range vector {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return string(buf)
}
