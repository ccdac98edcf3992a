package ml

import (
	"encoding/json"
	"fmt"
	"math"
)

type linearParams struct {
	Classes   []int       `json:"classes"`
	Coef      [][]float64 `json:"coef"`
	Intercept []float64   `json:"intercept"`
}

// linearModel holds the weights shared by the linear kinds. A single weight
// row with two classes is the binary form.
type linearModel struct {
	classes   []int
	coef      [][]float64
	intercept []float64
}

func decodeLinear(kind string, params json.RawMessage, nFeatures int) (linearModel, error) {
	var p linearParams
	if err := json.Unmarshal(params, &p); err != nil {
		return linearModel{}, fmt.Errorf("%w: %s params: %v", ErrInvalidModel, kind, err)
	}
	if len(p.Classes) < 2 {
		return linearModel{}, fmt.Errorf("%w: %s needs at least 2 classes", ErrInvalidModel, kind)
	}
	rows := len(p.Coef)
	binary := rows == 1 && len(p.Classes) == 2
	if !binary && rows != len(p.Classes) {
		return linearModel{}, fmt.Errorf("%w: %s has %d weight rows for %d classes", ErrInvalidModel, kind, rows, len(p.Classes))
	}
	if len(p.Intercept) == 0 {
		p.Intercept = make([]float64, rows)
	}
	if len(p.Intercept) != rows {
		return linearModel{}, fmt.Errorf("%w: %s has %d intercepts for %d weight rows", ErrInvalidModel, kind, len(p.Intercept), rows)
	}
	width := len(p.Coef[0])
	for i, row := range p.Coef {
		if len(row) != width {
			return linearModel{}, fmt.Errorf("%w: %s weight row %d has %d values, want %d", ErrInvalidModel, kind, i, len(row), width)
		}
	}
	if nFeatures > 0 && width != nFeatures {
		return linearModel{}, fmt.Errorf("%w: %s weights have %d features, artifact declares %d", ErrInvalidModel, kind, width, nFeatures)
	}
	return linearModel{classes: p.Classes, coef: p.Coef, intercept: p.Intercept}, nil
}

func (m linearModel) binary() bool {
	return len(m.coef) == 1
}

func (m linearModel) decision(x Vector) ([]float64, error) {
	if len(x) != len(m.coef[0]) {
		return nil, fmt.Errorf("%w: X has %d features, but the model is expecting %d features as input", ErrShapeMismatch, len(x), len(m.coef[0]))
	}
	scores := make([]float64, len(m.coef))
	for i, row := range m.coef {
		score := m.intercept[i]
		for j, w := range row {
			score += w * x[j]
		}
		scores[i] = score
	}
	return scores, nil
}

type LogisticRegression struct {
	linearModel
}

func decodeLogisticRegression(params json.RawMessage, nFeatures int) (Classifier, error) {
	m, err := decodeLinear("logistic_regression", params, nFeatures)
	if err != nil {
		return nil, err
	}
	return &LogisticRegression{linearModel: m}, nil
}

func (lr *LogisticRegression) Kind() string {
	return "logistic_regression"
}

func (lr *LogisticRegression) Predict(x Vector) (int, error) {
	proba, err := lr.PredictProba(x)
	if err != nil {
		return 0, err
	}
	return lr.classes[argmax(proba)], nil
}

func (lr *LogisticRegression) PredictProba(x Vector) ([]float64, error) {
	scores, err := lr.decision(x)
	if err != nil {
		return nil, err
	}
	if lr.binary() {
		p := sigmoid(scores[0])
		return []float64{1 - p, p}, nil
	}
	return softmax(scores), nil
}

// LinearSVC exposes no probability estimates.
type LinearSVC struct {
	linearModel
}

func decodeLinearSVC(params json.RawMessage, nFeatures int) (Classifier, error) {
	m, err := decodeLinear("linear_svc", params, nFeatures)
	if err != nil {
		return nil, err
	}
	return &LinearSVC{linearModel: m}, nil
}

func (svc *LinearSVC) Kind() string {
	return "linear_svc"
}

func (svc *LinearSVC) Predict(x Vector) (int, error) {
	scores, err := svc.decision(x)
	if err != nil {
		return 0, err
	}
	if svc.binary() {
		if scores[0] > 0 {
			return svc.classes[1], nil
		}
		return svc.classes[0], nil
	}
	return svc.classes[argmax(scores)], nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

func softmax(scores []float64) []float64 {
	peak := scores[argmax(scores)]
	out := make([]float64, len(scores))
	total := 0.0
	for i, s := range scores {
		out[i] = math.Exp(s - peak)
		total += out[i]
	}
	for i := range out {
		out[i] /= total
	}
	return out
}
