package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"exoscope/ml"
	"exoscope/monitoring"
)

// ModelNotLoadedMessage is the fixed 503 body text. Clients match on it.
const ModelNotLoadedMessage = "Model not loaded. Please upload model.pkl to backend/model/"

// Inference is what the handlers need from the prediction pipeline.
type Inference interface {
	Status() ml.Status
	Predict(record ml.Record) (ml.Result, error)
}

// Handler serves the prediction API on top of an Inference.
type Handler struct {
	inference Inference
	metrics   *monitoring.MetricsCollector
	logger    *zap.Logger
}

// NewHandler builds a Handler. metrics may be nil; a nil logger is replaced
// with a no-op one.
func NewHandler(inference Inference, metrics *monitoring.MetricsCollector, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{inference: inference, metrics: metrics, logger: logger}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/predict", h.handlePredict)
	mux.HandleFunc("GET /api/health", h.handleHealth)
	mux.HandleFunc("GET /api/artifacts", h.handleArtifacts)
}

type healthResponse struct {
	Status        string `json:"status"`
	ModelLoaded   bool   `json:"model_loaded"`
	ScalerLoaded  bool   `json:"scaler_loaded"`
	EncoderLoaded bool   `json:"encoder_loaded"`
}

type artifactsResponse struct {
	Schema             ml.Schema       `json:"schema"`
	SupportsConfidence bool            `json:"supports_confidence"`
	Artifacts          []ml.LoadReport `json:"artifacts"`
}

func (h *Handler) handlePredict(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	// Checked before the body is touched so the answer is the same for any payload.
	if !h.inference.Status().ModelLoaded {
		h.metrics.ObservePrediction(monitoring.OutcomeNoModel, 0)
		writeError(w, http.StatusServiceUnavailable, ModelNotLoadedMessage)
		return
	}

	record, err := ml.DecodeRecord(r.Body)
	if err != nil {
		h.failPrediction(w, r, err)
		return
	}

	result, err := h.inference.Predict(record)
	if err != nil {
		h.failPrediction(w, r, err)
		return
	}

	h.metrics.ObservePrediction(monitoring.OutcomeOK, time.Since(start))
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) failPrediction(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ml.ErrModelNotLoaded):
		h.metrics.ObservePrediction(monitoring.OutcomeNoModel, 0)
		writeError(w, http.StatusServiceUnavailable, ModelNotLoadedMessage)
	case errors.Is(err, ml.ErrInvalidInput):
		h.metrics.ObservePrediction(monitoring.OutcomeInvalidInput, 0)
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.metrics.ObservePrediction(monitoring.OutcomeError, 0)
		h.logger.Error("prediction failed",
			zap.String("request_id", GetRequestID(r.Context())),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := h.inference.Status()
	writeJSON(w, http.StatusOK, healthResponse{
		Status:        "healthy",
		ModelLoaded:   status.ModelLoaded,
		ScalerLoaded:  status.ScalerLoaded,
		EncoderLoaded: status.EncoderLoaded,
	})
}

func (h *Handler) handleArtifacts(w http.ResponseWriter, r *http.Request) {
	status := h.inference.Status()
	reports := status.Reports
	if reports == nil {
		reports = []ml.LoadReport{}
	}
	writeJSON(w, http.StatusOK, artifactsResponse{
		Schema:             status.Schema,
		SupportsConfidence: status.SupportsConfidence,
		Artifacts:          reports,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
