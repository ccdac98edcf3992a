package ml

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Record is one request's loosely typed feature values keyed by name.
type Record map[string]any

// Vector is a record laid out in schema order.
type Vector []float64

// DecodeRecord reads one JSON object, keeping numbers exact. Anything else,
// including trailing data, is ErrInvalidInput.
func DecodeRecord(r io.Reader) (Record, error) {
	payload, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrInvalidInput, err)
	}
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, fmt.Errorf("%w: request body is empty", ErrInvalidInput)
	}

	decoder := json.NewDecoder(bytes.NewReader(payload))
	decoder.UseNumber()
	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, fmt.Errorf("%w: malformed JSON: %v", ErrInvalidInput, err)
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: malformed JSON: unexpected data after top-level value", ErrInvalidInput)
	}
	object, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: request body must be a JSON object", ErrInvalidInput)
	}
	return Record(object), nil
}

// Assemble reduces a record to the schema's column order. Absent keys become
// 0 and unknown keys are ignored. NaN and infinite values are rejected.
func (s Schema) Assemble(record Record) (Vector, error) {
	vector := make(Vector, len(s.Names))
	for i, name := range s.Names {
		raw, ok := record[name]
		if !ok {
			continue
		}
		value, err := coerceFloat(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: feature %q: %v", ErrInvalidInput, name, err)
		}
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return nil, fmt.Errorf("%w: feature %q: must be finite, got %v", ErrInvalidInput, name, value)
		}
		vector[i] = value
	}
	return vector, nil
}

func coerceFloat(raw any) (float64, error) {
	switch v := raw.(type) {
	case nil:
		return 0, errors.New("must be a number, got null")
	case json.Number:
		return parseFloat(string(v))
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case string:
		return parseFloat(v)
	case []any:
		return 0, errors.New("must be a number, got array")
	case map[string]any:
		return 0, errors.New("must be a number, got object")
	default:
		return 0, fmt.Errorf("must be a number, got %T", raw)
	}
}

func parseFloat(text string) (float64, error) {
	trimmed := strings.TrimSpace(text)
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, fmt.Errorf("value out of range: %q", text)
		}
		return 0, fmt.Errorf("could not convert string to float: %q", text)
	}
	return value, nil
}
