package ml

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unitRow(width, idx int, weight float64) []float64 {
	row := make([]float64, width)
	row[idx] = weight
	return row
}

func TestLogisticRegressionBinary(t *testing.T) {
	params, err := json.Marshal(linearParams{
		Classes:   []int{0, 1},
		Coef:      [][]float64{unitRow(20, 0, 1)},
		Intercept: []float64{0},
	})
	require.NoError(t, err)
	model, err := decodeLogisticRegression(params, 20)
	require.NoError(t, err)
	lr, ok := model.(ProbabilityEstimator)
	require.True(t, ok)

	x := make(Vector, 20)
	x[0] = 1
	proba, err := lr.PredictProba(x)
	require.NoError(t, err)
	p := 1 / (1 + math.Exp(-1))
	assert.InDeltaSlice(t, []float64{1 - p, p}, proba, 1e-12)

	label, err := lr.Predict(x)
	require.NoError(t, err)
	assert.Equal(t, 1, label)

	x[0] = -3
	label, err = lr.Predict(x)
	require.NoError(t, err)
	assert.Equal(t, 0, label)
}

func TestLogisticRegressionMultinomial(t *testing.T) {
	params, err := json.Marshal(linearParams{
		Classes: []int{0, 1, 2},
		Coef: [][]float64{
			unitRow(20, 0, 1),
			unitRow(20, 1, 1),
			unitRow(20, 2, 1),
		},
	})
	require.NoError(t, err)
	model, err := decodeLogisticRegression(params, 0)
	require.NoError(t, err)
	lr := model.(ProbabilityEstimator)

	x := make(Vector, 20)
	x[2] = 4
	proba, err := lr.PredictProba(x)
	require.NoError(t, err)
	require.Len(t, proba, 3)
	sum := 0.0
	for _, p := range proba {
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-12)

	label, err := lr.Predict(x)
	require.NoError(t, err)
	assert.Equal(t, 2, label)
}

func TestLinearModelShapeChecks(t *testing.T) {
	params, err := json.Marshal(linearParams{Classes: []int{0, 1, 2}, Coef: [][]float64{unitRow(20, 0, 1)}})
	require.NoError(t, err)
	_, err = decodeLogisticRegression(params, 20)
	assert.ErrorIs(t, err, ErrInvalidModel)

	params, err = json.Marshal(linearParams{Classes: []int{0, 1}, Coef: [][]float64{unitRow(19, 0, 1)}})
	require.NoError(t, err)
	_, err = decodeLogisticRegression(params, 20)
	assert.ErrorIs(t, err, ErrInvalidModel)

	model, err := decodeLogisticRegression(params, 0)
	require.NoError(t, err)
	_, err = model.Predict(make(Vector, 20))
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestLinearSVCHasNoProbabilities(t *testing.T) {
	params, err := json.Marshal(linearParams{
		Classes:   []int{0, 1},
		Coef:      [][]float64{unitRow(20, 6, 0.1)},
		Intercept: []float64{-1},
	})
	require.NoError(t, err)
	model, err := decodeLinearSVC(params, 20)
	require.NoError(t, err)
	_, ok := model.(ProbabilityEstimator)
	assert.False(t, ok)

	x := make(Vector, 20)
	x[6] = 25 // koi_model_snr
	label, err := model.Predict(x)
	require.NoError(t, err)
	assert.Equal(t, 1, label)

	x[6] = 5
	label, err = model.Predict(x)
	require.NoError(t, err)
	assert.Equal(t, 0, label)
}

func TestSoftmaxIsStable(t *testing.T) {
	proba := softmax([]float64{1000, 1001})
	assert.False(t, math.IsNaN(proba[0]))
	assert.InDelta(t, 1.0, proba[0]+proba[1], 1e-12)
}
