package ml

import (
	"encoding/json"
	"fmt"
)

const maxFormatVersion = 1

// Envelope is the serialized form every artifact file shares. Params are
// decoded according to Kind.
type Envelope struct {
	Kind          string          `json:"kind"`
	FormatVersion int             `json:"format_version"`
	FeatureNames  []string        `json:"feature_names,omitempty"`
	NFeatures     int             `json:"n_features,omitempty"`
	Params        json.RawMessage `json:"params"`
}

func DecodeEnvelope(payload []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("%w: decode artifact: %v", ErrInvalidModel, err)
	}
	if env.Kind == "" {
		return nil, fmt.Errorf("%w: artifact has no kind", ErrInvalidModel)
	}
	if env.FormatVersion > maxFormatVersion {
		return nil, fmt.Errorf("%w: artifact format_version %d is newer than supported %d", ErrInvalidModel, env.FormatVersion, maxFormatVersion)
	}
	if len(env.Params) == 0 {
		return nil, fmt.Errorf("%w: artifact %s has no params", ErrInvalidModel, env.Kind)
	}
	return &env, nil
}

// width is the feature count the artifact declares, 0 when unknown.
func (e *Envelope) width() int {
	if e.NFeatures > 0 {
		return e.NFeatures
	}
	return len(e.FeatureNames)
}
