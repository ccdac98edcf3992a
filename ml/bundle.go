package ml

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"

	"go.uber.org/zap"
)

type Slot string

const (
	SlotModel   Slot = "model"
	SlotScaler  Slot = "scaler"
	SlotEncoder Slot = "encoder"
)

// Source hands out raw artifact blobs by file name. A missing artifact is
// reported with an error wrapping fs.ErrNotExist.
type Source interface {
	Name() string
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// LoadRecorder receives one report per load attempt.
type LoadRecorder interface {
	RecordLoad(ctx context.Context, report LoadReport) error
}

type Files struct {
	Model   string
	Scaler  string
	Encoder string
}

func DefaultFiles() Files {
	return Files{Model: "model.pkl", Scaler: "scaler.pkl", Encoder: "encoder.pkl"}
}

type LoadOptions struct {
	Schema   Schema
	Files    Files
	Logger   *zap.Logger
	Recorder LoadRecorder
}

type LoadReport struct {
	Slot               Slot      `json:"slot"`
	File               string    `json:"file"`
	Source             string    `json:"source"`
	Kind               string    `json:"kind,omitempty"`
	SHA256             string    `json:"sha256,omitempty"`
	Found              bool      `json:"found"`
	Loaded             bool      `json:"loaded"`
	SupportsConfidence bool      `json:"supports_confidence,omitempty"`
	Error              string    `json:"error,omitempty"`
	AttemptedAt        time.Time `json:"attempted_at"`
}

// Bundle is the set of artifacts loaded at startup. It is never mutated
// after LoadBundle returns, so concurrent readers need no locking.
type Bundle struct {
	Schema  Schema
	Model   Classifier
	Proba   ProbabilityEstimator
	Scaler  Scaler
	Encoder *LabelEncoder
	Reports []LoadReport
}

// NewBundle assembles a bundle from already built artifacts. The probability
// capability is resolved here, once.
func NewBundle(schema Schema, model Classifier, scaler Scaler, encoder *LabelEncoder) *Bundle {
	b := &Bundle{Schema: schema, Model: model, Scaler: scaler, Encoder: encoder}
	if proba, ok := model.(ProbabilityEstimator); ok {
		b.Proba = proba
	}
	return b
}

func (b *Bundle) ModelLoaded() bool {
	return b != nil && b.Model != nil
}

func (b *Bundle) ScalerLoaded() bool {
	return b != nil && b.Scaler != nil
}

func (b *Bundle) EncoderLoaded() bool {
	return b != nil && b.Encoder != nil
}

func (b *Bundle) SupportsConfidence() bool {
	return b != nil && b.Proba != nil
}

// LoadBundle reads the three artifacts from src. Every slot is attempted
// independently and failures leave only that slot empty.
func LoadBundle(ctx context.Context, src Source, opts LoadOptions) *Bundle {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Schema.Len() == 0 {
		opts.Schema = KOISchema()
	}
	if opts.Files == (Files{}) {
		opts.Files = DefaultFiles()
	}
	logger = logger.With(zap.String("source", src.Name()), zap.String("schema", opts.Schema.Version))

	var (
		model   Classifier
		scaler  Scaler
		encoder *LabelEncoder
		reports []LoadReport
	)

	report := loadSlot(ctx, src, SlotModel, opts.Files.Model, opts.Schema, func(env *Envelope) (string, error) {
		m, err := LoadModel(env)
		if err != nil {
			return "", err
		}
		model = m
		return m.Kind(), nil
	})
	if model != nil {
		_, report.SupportsConfidence = model.(ProbabilityEstimator)
	}
	reports = append(reports, report)

	reports = append(reports, loadSlot(ctx, src, SlotScaler, opts.Files.Scaler, opts.Schema, func(env *Envelope) (string, error) {
		s, err := LoadScaler(env)
		if err != nil {
			return "", err
		}
		scaler = s
		return s.Kind(), nil
	}))

	reports = append(reports, loadSlot(ctx, src, SlotEncoder, opts.Files.Encoder, opts.Schema, func(env *Envelope) (string, error) {
		e, err := LoadEncoder(env)
		if err != nil {
			return "", err
		}
		encoder = e
		return e.Kind(), nil
	}))

	for _, r := range reports {
		fields := []zap.Field{
			zap.String("slot", string(r.Slot)),
			zap.String("file", r.File),
		}
		switch {
		case r.Loaded:
			fields = append(fields, zap.String("kind", r.Kind), zap.String("sha256", r.SHA256))
			if r.Slot == SlotModel {
				fields = append(fields, zap.Bool("supports_confidence", r.SupportsConfidence))
			}
			logger.Info("artifact loaded", fields...)
		case !r.Found:
			logger.Info("artifact not found, slot left empty", fields...)
		default:
			logger.Error("artifact load failed, slot left empty", append(fields, zap.String("error", r.Error))...)
		}
		if opts.Recorder != nil {
			if err := opts.Recorder.RecordLoad(ctx, r); err != nil {
				logger.Warn("record artifact load failed", zap.String("slot", string(r.Slot)), zap.Error(err))
			}
		}
	}
	if encoder != nil {
		logger.Warn("label encoder loaded but not applied to prediction output")
	}

	b := NewBundle(opts.Schema, model, scaler, encoder)
	b.Reports = reports
	return b
}

func loadSlot(ctx context.Context, src Source, slot Slot, file string, schema Schema, build func(*Envelope) (string, error)) LoadReport {
	report := LoadReport{Slot: slot, File: file, Source: src.Name(), AttemptedAt: time.Now().UTC()}
	payload, err := readArtifact(ctx, src, file)
	if errors.Is(err, fs.ErrNotExist) {
		return report
	}
	report.Found = true
	if err != nil {
		report.Error = err.Error()
		return report
	}
	sum := sha256.Sum256(payload)
	report.SHA256 = hex.EncodeToString(sum[:])

	env, err := DecodeEnvelope(payload)
	if err != nil {
		report.Error = err.Error()
		return report
	}
	report.Kind = env.Kind
	if err := schema.Check(env.FeatureNames, env.NFeatures); err != nil {
		report.Error = err.Error()
		return report
	}
	if _, err := build(env); err != nil {
		report.Error = err.Error()
		return report
	}
	report.Loaded = true
	return report
}

func readArtifact(ctx context.Context, src Source, file string) ([]byte, error) {
	rc, err := src.Open(ctx, file)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	payload, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", file, err)
	}
	return payload, nil
}
