package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prediction outcomes used as the "outcome" label.
const (
	OutcomeOK           = "ok"
	OutcomeInvalidInput = "invalid_input"
	OutcomeNoModel      = "model_not_loaded"
	OutcomeError        = "error"
)

// MetricsCollector owns a private Prometheus registry. A nil collector is
// valid and records nothing.
type MetricsCollector struct {
	registry       *prometheus.Registry
	predictions    *prometheus.CounterVec
	predictLatency prometheus.Histogram
	cacheHits      prometheus.Counter
	artifactLoaded *prometheus.GaugeVec
	httpRequests   *prometheus.CounterVec
}

// NewMetricsCollector registers the service metrics plus the Go runtime
// and process collectors.
func NewMetricsCollector() *MetricsCollector {
	mc := &MetricsCollector{
		registry: prometheus.NewRegistry(),
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exoscope_predictions_total",
			Help: "Prediction requests by outcome.",
		}, []string{"outcome"}),
		predictLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "exoscope_prediction_duration_seconds",
			Help:    "Time spent assembling, scaling and classifying one record.",
			Buckets: prometheus.ExponentialBuckets(0.00005, 4, 8),
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "exoscope_prediction_cache_hits_total",
			Help: "Predictions served from the result cache.",
		}),
		artifactLoaded: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "exoscope_artifact_loaded",
			Help: "1 when the artifact slot holds a loaded object.",
		}, []string{"slot"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exoscope_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "path", "status"}),
	}
	mc.registry.MustRegister(
		mc.predictions,
		mc.predictLatency,
		mc.cacheHits,
		mc.artifactLoaded,
		mc.httpRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return mc
}

func (mc *MetricsCollector) ObservePrediction(outcome string, elapsed time.Duration) {
	if mc == nil {
		return
	}
	mc.predictions.WithLabelValues(outcome).Inc()
	if outcome == OutcomeOK {
		mc.predictLatency.Observe(elapsed.Seconds())
	}
}

func (mc *MetricsCollector) CacheHit() {
	if mc == nil {
		return
	}
	mc.cacheHits.Inc()
}

func (mc *MetricsCollector) SetArtifactLoaded(slot string, loaded bool) {
	if mc == nil {
		return
	}
	v := 0.0
	if loaded {
		v = 1
	}
	mc.artifactLoaded.WithLabelValues(slot).Set(v)
}

func (mc *MetricsCollector) ObserveRequest(method, path string, status int) {
	if mc == nil {
		return
	}
	if path == "" {
		path = "unmatched"
	}
	mc.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
}

func (mc *MetricsCollector) Registry() *prometheus.Registry {
	if mc == nil {
		return nil
	}
	return mc.registry
}

// Handler serves the collector's registry in the Prometheus text format.
func (mc *MetricsCollector) Handler() http.Handler {
	if mc == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(mc.registry, promhttp.HandlerOpts{})
}
