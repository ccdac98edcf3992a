package ml

import (
	"encoding/json"
	"fmt"
)

// Scaler rescales a feature row before it reaches the model.
type Scaler interface {
	Kind() string
	Transform(x Vector) (Vector, error)
}

type StandardScaler struct {
	mean  []float64
	scale []float64
	width int
}

type standardParams struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

func NewStandardScaler(mean, scale []float64) (*StandardScaler, error) {
	width := len(mean)
	if width == 0 {
		width = len(scale)
	}
	if width == 0 {
		return nil, fmt.Errorf("%w: standard scaler has neither mean nor scale", ErrInvalidModel)
	}
	if mean != nil && len(mean) != width || scale != nil && len(scale) != width {
		return nil, fmt.Errorf("%w: standard scaler mean has %d values, scale %d", ErrInvalidModel, len(mean), len(scale))
	}
	return &StandardScaler{mean: mean, scale: scale, width: width}, nil
}

func decodeStandardScaler(params json.RawMessage) (Scaler, error) {
	var p standardParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("%w: standard scaler params: %v", ErrInvalidModel, err)
	}
	return NewStandardScaler(p.Mean, p.Scale)
}

func (s *StandardScaler) Kind() string {
	return "standard"
}

func (s *StandardScaler) Transform(x Vector) (Vector, error) {
	if len(x) != s.width {
		return nil, fmt.Errorf("%w: X has %d features, but StandardScaler is expecting %d features as input", ErrShapeMismatch, len(x), s.width)
	}
	out := make(Vector, len(x))
	for i, v := range x {
		if s.mean != nil {
			v -= s.mean[i]
		}
		if s.scale != nil && s.scale[i] != 0 {
			v /= s.scale[i]
		}
		out[i] = v
	}
	return out, nil
}

type MinMaxScaler struct {
	mins   []float64
	maxs   []float64
	lo, hi float64
}

type minMaxParams struct {
	DataMin      []float64   `json:"data_min"`
	DataMax      []float64   `json:"data_max"`
	FeatureRange *[2]float64 `json:"feature_range,omitempty"`
}

func NewMinMaxScaler(mins, maxs []float64, lo, hi float64) (*MinMaxScaler, error) {
	if len(mins) == 0 || len(mins) != len(maxs) {
		return nil, fmt.Errorf("%w: min-max scaler has %d minimums and %d maximums", ErrInvalidModel, len(mins), len(maxs))
	}
	if lo >= hi {
		return nil, fmt.Errorf("%w: min-max feature range [%g, %g] is empty", ErrInvalidModel, lo, hi)
	}
	return &MinMaxScaler{mins: mins, maxs: maxs, lo: lo, hi: hi}, nil
}

func decodeMinMaxScaler(params json.RawMessage) (Scaler, error) {
	var p minMaxParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("%w: minmax scaler params: %v", ErrInvalidModel, err)
	}
	lo, hi := 0.0, 1.0
	if p.FeatureRange != nil {
		lo, hi = p.FeatureRange[0], p.FeatureRange[1]
	}
	return NewMinMaxScaler(p.DataMin, p.DataMax, lo, hi)
}

func (s *MinMaxScaler) Kind() string {
	return "minmax"
}

func (s *MinMaxScaler) Transform(x Vector) (Vector, error) {
	if len(x) != len(s.mins) {
		return nil, fmt.Errorf("%w: X has %d features, but MinMaxScaler is expecting %d features as input", ErrShapeMismatch, len(x), len(s.mins))
	}
	normalized, err := NormalizeVector(x, s.mins, s.maxs)
	if err != nil {
		return nil, err
	}
	span := s.hi - s.lo
	for i, v := range normalized {
		normalized[i] = s.lo + v*span
	}
	return normalized, nil
}

// NormalizeFeature maps value onto [0, 1] for the column's [min, max]. A
// constant column keeps its offset from min, as sklearn's MinMaxScaler does.
func NormalizeFeature(value, min, max float64) float64 {
	if max == min {
		return value - min
	}
	return (value - min) / (max - min)
}

// NormalizeVector applies NormalizeFeature column by column.
func NormalizeVector(values []float64, mins []float64, maxs []float64) ([]float64, error) {
	if len(values) != len(mins) || len(values) != len(maxs) {
		return nil, fmt.Errorf("%w: values/mins/maxs length mismatch", ErrShapeMismatch)
	}
	result := make([]float64, len(values))
	for i := range values {
		result[i] = NormalizeFeature(values[i], mins[i], maxs[i])
	}
	return result, nil
}
