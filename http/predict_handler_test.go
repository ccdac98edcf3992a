package http

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"exoscope/ml"
)

// vectorSpy is a classifier that remembers the last vector it saw.
type vectorSpy struct {
	label int
	got   ml.Vector
}

func (s *vectorSpy) Kind() string {
	return "spy"
}

func (s *vectorSpy) Predict(x ml.Vector) (int, error) {
	s.got = append(ml.Vector(nil), x...)
	return s.label, nil
}

func zapNop() *zap.Logger {
	return zap.NewNop()
}

func TestHandlePredictModelNotLoaded(t *testing.T) {
	inf := &fakeInference{}
	mux := newTestMux(inf)
	for _, body := range []string{"", "not json", `{"koi_score": 1}`, `[1,2,3]`, `{"koi_score": "abc"}`} {
		rec := serve(t, mux, http.MethodPost, "/api/predict", body)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, body)
		assert.Equal(t, ModelNotLoadedMessage, decodeBody(t, rec)["error"], body)
	}
	assert.Empty(t, inf.records)
}

func TestHandlePredictSuccess(t *testing.T) {
	confidence := 0.75
	inf := &fakeInference{
		status: ml.Status{ModelLoaded: true},
		result: ml.Result{Prediction: 2, Confidence: &confidence},
	}
	rec := serve(t, newTestMux(inf), http.MethodPost, "/api/predict", `{"koi_score": 0.9, "ignored": "x"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"prediction": 2, "confidence": 0.75}`, rec.Body.String())
	require.Len(t, inf.records, 1)
	assert.Contains(t, inf.records[0], "koi_score")
}

func TestHandlePredictNullConfidence(t *testing.T) {
	inf := &fakeInference{status: ml.Status{ModelLoaded: true}, result: ml.Result{Prediction: 0}}
	rec := serve(t, newTestMux(inf), http.MethodPost, "/api/predict", `{}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"prediction": 0, "confidence": null}`, rec.Body.String())
}

func TestHandlePredictClientErrors(t *testing.T) {
	spy := &vectorSpy{}
	pipeline, err := ml.NewPipeline(ml.NewBundle(ml.KOISchema(), spy, nil, nil))
	require.NoError(t, err)
	mux := newTestMux(pipeline)

	bodies := []string{
		"",
		"{",
		"[1, 2]",
		`"koi_score"`,
		`{"koi_score": 1} {"koi_score": 2}`,
		`{"koi_score": "abc"}`,
		`{"koi_depth": null}`,
		`{"koi_steff": [5778]}`,
		`{"ra": {"deg": 291.9}}`,
	}
	for _, body := range bodies {
		rec := serve(t, mux, http.MethodPost, "/api/predict", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.NotEmpty(t, decodeBody(t, rec)["error"], body)
	}
	assert.Nil(t, spy.got)
}

func TestHandlePredictModelError(t *testing.T) {
	inf := &fakeInference{status: ml.Status{ModelLoaded: true}, err: fmt.Errorf("predict: %w", errBoom)}
	rec := serve(t, newTestMux(inf), http.MethodPost, "/api/predict", `{"koi_score": 1}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "predict: boom", decodeBody(t, rec)["error"])
}

func TestHandlePredictShapeMismatchIsServerError(t *testing.T) {
	narrow, err := ml.NewStandardScaler([]float64{0, 0}, []float64{1, 1})
	require.NoError(t, err)
	pipeline, err := ml.NewPipeline(ml.NewBundle(ml.KOISchema(), &vectorSpy{}, narrow, nil))
	require.NoError(t, err)

	rec := serve(t, newTestMux(pipeline), http.MethodPost, "/api/predict", `{"koi_score": 1}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandlePredictExampleRecord(t *testing.T) {
	spy := &vectorSpy{label: 1}
	pipeline, err := ml.NewPipeline(ml.NewBundle(ml.KOISchema(), spy, nil, nil))
	require.NoError(t, err)

	rec := serve(t, newTestMux(pipeline), http.MethodPost, "/api/predict",
		`{"koi_score": 1.0, "koi_depth": 500.2, "koi_steff": 5778}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"prediction": 1, "confidence": null}`, rec.Body.String())

	want := ml.Vector{1.0, 0, 500.2, 0, 0, 5778, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	assert.Equal(t, want, spy.got)
}

func TestHandlePredictStringNumbers(t *testing.T) {
	spy := &vectorSpy{}
	pipeline, err := ml.NewPipeline(ml.NewBundle(ml.KOISchema(), spy, nil, nil))
	require.NoError(t, err)

	rec := serve(t, newTestMux(pipeline), http.MethodPost, "/api/predict",
		`{"koi_score": " 0.5 ", "koi_prad": "1e3", "koi_tce_plnt_num": true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, spy.got, 20)
	assert.Equal(t, 0.5, spy.got[0])
	assert.Equal(t, 1.0, spy.got[4])
	assert.Equal(t, 1000.0, spy.got[19])
}

func TestHandlePredictIdempotent(t *testing.T) {
	pipeline, err := ml.NewPipeline(ml.NewBundle(ml.KOISchema(), &vectorSpy{label: 1}, nil, nil), ml.WithCache(8))
	require.NoError(t, err)
	mux := newTestMux(pipeline)

	body := `{"koi_score": 0.3, "koi_period": 12}`
	first := serve(t, mux, http.MethodPost, "/api/predict", body)
	second := serve(t, mux, http.MethodPost, "/api/predict", body)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.True(t, strings.HasPrefix(first.Body.String(), `{"prediction":1`))
}
