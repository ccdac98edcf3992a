package ml

import "fmt"

// LoadModel decodes a classifier envelope by its kind.
func LoadModel(env *Envelope) (Classifier, error) {
	switch env.Kind {
	case "decision_tree":
		return decodeDecisionTree(env.Params, env.width())
	case "random_forest":
		return decodeRandomForest(env.Params, env.width())
	case "logistic_regression":
		return decodeLogisticRegression(env.Params, env.width())
	case "linear_svc":
		return decodeLinearSVC(env.Params, env.width())
	default:
		return nil, fmt.Errorf("%w: unsupported model type %q", ErrUnknownKind, env.Kind)
	}
}

// LoadScaler decodes a standard or minmax scaler envelope.
func LoadScaler(env *Envelope) (Scaler, error) {
	switch env.Kind {
	case "standard":
		return decodeStandardScaler(env.Params)
	case "minmax":
		return decodeMinMaxScaler(env.Params)
	default:
		return nil, fmt.Errorf("%w: unsupported scaler type %q", ErrUnknownKind, env.Kind)
	}
}

// LoadEncoder decodes a label encoder envelope.
func LoadEncoder(env *Envelope) (*LabelEncoder, error) {
	switch env.Kind {
	case "label":
		return decodeLabelEncoder(env.Params)
	default:
		return nil, fmt.Errorf("%w: unsupported encoder type %q", ErrUnknownKind, env.Kind)
	}
}
