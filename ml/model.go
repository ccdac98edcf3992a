package ml

// Classifier maps one feature row to a class label.
type Classifier interface {
	Kind() string
	Predict(x Vector) (int, error)
}

// ProbabilityEstimator is a Classifier that can also report per-class
// probabilities. Whether a loaded model satisfies it is decided once at load.
type ProbabilityEstimator interface {
	Classifier
	PredictProba(x Vector) ([]float64, error)
}

// labelOnly hides PredictProba from models whose artifact carries no class
// distributions.
type labelOnly struct {
	Classifier
}

func maxProbability(proba []float64) float64 {
	best := 0.0
	for _, p := range proba {
		if p > best {
			best = p
		}
	}
	return best
}

func argmax(values []float64) int {
	best := 0
	for i := 1; i < len(values); i++ {
		if values[i] > values[best] {
			best = i
		}
	}
	return best
}
