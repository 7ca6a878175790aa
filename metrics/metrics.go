package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains all Prometheus metrics for pdkit
type Metrics struct {
	APIAttempts  *prometheus.CounterVec
	APIFallbacks *prometheus.CounterVec
	APIExhausted *prometheus.CounterVec

	MockRequests *prometheus.CounterVec
	MockNotFound prometheus.Counter

	LoggerStats *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics initialized
func NewMetrics() *Metrics {
	return &Metrics{
		APIAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pdkit_api_attempts_total",
			Help: "Number of API fallback candidates attempted by operation.",
		}, []string{"operation"}),
		APIFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pdkit_api_fallbacks_total",
			Help: "Number of failed API fallback candidates by operation.",
		}, []string{"operation"}),
		APIExhausted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pdkit_api_exhausted_total",
			Help: "Number of API operations whose whole fallback chain failed.",
		}, []string{"operation"}),

		MockRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pdkit_mock_requests_total",
			Help: "Number of requests served by the mock API server by route.",
		}, []string{"route", "status"}),
		MockNotFound: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pdkit_mock_not_found_total",
			Help: "Number of mock API requests that matched no route.",
		}),

		LoggerStats: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pdkit_logger_stats_total",
			Help: "Number of logger stats by level.",
		}, []string{"level"}),
	}
}

// MustRegister registers all metrics with the given registry
func (m *Metrics) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		m.APIAttempts,
		m.APIFallbacks,
		m.APIExhausted,

		m.MockRequests,
		m.MockNotFound,

		m.LoggerStats,
	)
}

// ObserveSuccess records a successful operation after prior failed attempts.
func (m *Metrics) ObserveSuccess(operation string, priorFailures int) {
	if m == nil {
		return
	}
	m.APIAttempts.WithLabelValues(operation).Add(float64(priorFailures + 1))
}

// ObserveFallback records one failed fallback candidate.
func (m *Metrics) ObserveFallback(operation string) {
	if m == nil {
		return
	}
	m.APIFallbacks.WithLabelValues(operation).Inc()
}

// ObserveExhausted records an operation whose whole chain failed.
func (m *Metrics) ObserveExhausted(operation string) {
	if m == nil {
		return
	}
	m.APIExhausted.WithLabelValues(operation).Inc()
}

// Default returns the process-wide metrics set, backed by DefaultStore.
func Default() *Metrics {
	return DefaultStore().Metrics()
}
