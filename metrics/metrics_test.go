package metrics_test

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/pdkit/pdkit/metrics"
)

func TestObservations(t *testing.T) {
	m := metrics.NewMetrics()
	m.ObserveFallback("getWorkflow")
	m.ObserveFallback("getWorkflow")
	m.ObserveSuccess("getWorkflow", 2)
	m.ObserveExhausted("getProjects")

	if got := testutil.ToFloat64(m.APIFallbacks.WithLabelValues("getWorkflow")); got != 2 {
		t.Errorf("fallbacks = %v", got)
	}
	// 2 failed attempts + 1 success.
	if got := testutil.ToFloat64(m.APIAttempts.WithLabelValues("getWorkflow")); got != 3 {
		t.Errorf("attempts = %v", got)
	}
	if got := testutil.ToFloat64(m.APIExhausted.WithLabelValues("getProjects")); got != 1 {
		t.Errorf("exhausted = %v", got)
	}
}

func TestStoreDump(t *testing.T) {
	s := metrics.NewStore()
	s.Metrics().MockNotFound.Inc()
	s.Metrics().MockNotFound.Inc()

	if got := metrics.CounterValue(s.Metrics().MockNotFound); got != 2 {
		t.Errorf("CounterValue = %v", got)
	}
	dump, err := s.Dump()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(dump, "pdkit_mock_not_found_total 2") {
		t.Errorf("dump misses counter:\n%s", dump)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *metrics.Metrics
	m.ObserveSuccess("op", 0)
	m.ObserveFallback("op")
	m.ObserveExhausted("op")
}

func TestMustRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.NewMetrics().MustRegister(reg)
	// Registering the same set twice must panic on duplicate collectors.
	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	metrics.NewMetrics().MustRegister(reg)
}
