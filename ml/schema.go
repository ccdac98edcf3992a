package ml

import "fmt"

// SchemaVersion identifies the column order the KOI artifacts are trained on.
const SchemaVersion = "koi-v1"

// Schema is the ordered list of feature names a model consumes.
type Schema struct {
	Version string   `json:"version"`
	Names   []string `json:"names"`
}

// KOISchema returns the 20 KOI columns in training order.
func KOISchema() Schema {
	return Schema{
		Version: SchemaVersion,
		Names: []string{
			"koi_score",
			"koi_time0",
			"koi_depth",
			"koi_slogg",
			"koi_tce_plnt_num",
			"koi_steff",
			"koi_model_snr",
			"koi_teq",
			"ra",
			"dec",
			"koi_srho",
			"koi_duration",
			"koi_sma",
			"koi_impact",
			"koi_time0bk",
			"koi_srad",
			"koi_dor",
			"koi_kepmag",
			"koi_insol",
			"koi_prad",
		},
	}
}

// Len is the number of features.
func (s Schema) Len() int {
	return len(s.Names)
}

// Check compares artifact metadata against the schema. Empty names and a zero
// count mean the artifact carries no metadata and pass unchecked.
func (s Schema) Check(names []string, count int) error {
	if count != 0 && count != s.Len() {
		return fmt.Errorf("%w: artifact expects %d features, schema %s has %d", ErrSchemaMismatch, count, s.Version, s.Len())
	}
	if len(names) == 0 {
		return nil
	}
	if len(names) != s.Len() {
		return fmt.Errorf("%w: artifact lists %d feature names, schema %s has %d", ErrSchemaMismatch, len(names), s.Version, s.Len())
	}
	for i, name := range names {
		if name != s.Names[i] {
			return fmt.Errorf("%w: column %d is %q in artifact, %q in schema %s", ErrSchemaMismatch, i, name, s.Names[i], s.Version)
		}
	}
	return nil
}
