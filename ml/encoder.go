package ml

import (
	"encoding/json"
	"fmt"
)

// LabelEncoder maps class indices back to disposition names. The prediction
// endpoint reports raw class integers and does not consult it.
type LabelEncoder struct {
	classes []string
}

type labelParams struct {
	Classes []string `json:"classes"`
}

func decodeLabelEncoder(params json.RawMessage) (*LabelEncoder, error) {
	var p labelParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("%w: label encoder params: %v", ErrInvalidModel, err)
	}
	if len(p.Classes) == 0 {
		return nil, fmt.Errorf("%w: label encoder has no classes", ErrInvalidModel)
	}
	return &LabelEncoder{classes: p.Classes}, nil
}

func (e *LabelEncoder) Kind() string {
	return "label"
}

func (e *LabelEncoder) Classes() []string {
	out := make([]string, len(e.classes))
	copy(out, e.classes)
	return out
}

func (e *LabelEncoder) Decode(label int) (string, error) {
	if label < 0 || label >= len(e.classes) {
		return "", fmt.Errorf("label %d is outside the %d encoded classes", label, len(e.classes))
	}
	return e.classes[label], nil
}
