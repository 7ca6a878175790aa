package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// Store couples a metrics set with its own registry. Components that must
// not pollute the process-wide registry (the mock API server spins up one
// per test run) get their own store; everything else shares DefaultStore.
type Store struct {
	metrics  *Metrics
	registry *prometheus.Registry
}

// NewStore creates a new metrics store with initialized metrics and registry
func NewStore() *Store {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics()
	metrics.MustRegister(registry)

	return &Store{
		metrics:  metrics,
		registry: registry,
	}
}

// Metrics returns the metrics instance for this store
func (s *Store) Metrics() *Metrics {
	return s.metrics
}

// Registry returns the prometheus registry for this store
func (s *Store) Registry() *prometheus.Registry {
	return s.registry
}

// Dump renders the store's current metrics in the Prometheus text format.
func (s *Store) Dump() (string, error) {
	families, err := s.registry.Gather()
	if err != nil {
		return "", fmt.Errorf("failed to gather metrics: %w", err)
	}
	var b strings.Builder
	enc := expfmt.NewEncoder(&b, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return "", fmt.Errorf("failed to encode metric family %s: %w", mf.GetName(), err)
		}
	}
	return b.String(), nil
}

// CounterValue reads the current value of a counter.
func CounterValue(c prometheus.Counter) float64 {
	metric := &dto.Metric{}
	if err := c.Write(metric); err != nil {
		return 0
	}
	return metric.GetCounter().GetValue()
}

// RunServer starts a metrics HTTP server for this store
func (s *Store) RunServer(ctx context.Context, port int) (func(), error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Handler: mux,
		Addr:    fmt.Sprintf(":%d", port),
	}

	// Start server in goroutine
	ch := make(chan error, 1)
	go func() {
		slog.Info("starting metrics server", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start metrics server", "error", err)
			ch <- err
		}
	}()

	// Wait for server to start or fail
	wait := time.NewTimer(100 * time.Millisecond)
	select {
	case err := <-ch:
		return nil, err
	case <-wait.C:
		slog.Info("metrics server started", "port", port)
	}

	// Return shutdown function
	shutdown := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to shutdown metrics server", "error", err)
		} else {
			slog.Info("metrics server stopped")
		}
	}

	return shutdown, nil
}

var (
	defaultStore     *Store
	defaultStoreOnce sync.Once
)

// DefaultStore returns the process-wide metrics store.
func DefaultStore() *Store {
	defaultStoreOnce.Do(func() {
		defaultStore = NewStore()
	})
	return defaultStore
}
