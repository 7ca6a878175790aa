package pdkit

import (
	"context"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pdkit/pdkit/metrics"
)

func setupLogger(debug bool) {
	var level slog.Level
	if debug {
		level = slog.LevelDebug
	} else {
		level = slog.LevelInfo
	}
	base := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	handler := NewMetricSlogHandler(base, metrics.Default().LoggerStats)
	slog.SetDefault(slog.New(handler))
}

type MetricSlogHandler struct {
	slog.Handler
	logCounter *prometheus.CounterVec
}

func NewMetricSlogHandler(base slog.Handler, logCounter *prometheus.CounterVec) slog.Handler {
	logCounter.WithLabelValues("INFO").Add(0)
	logCounter.WithLabelValues("WARN").Add(0)
	logCounter.WithLabelValues("ERROR").Add(0)
	return &MetricSlogHandler{
		Handler:    base,
		logCounter: logCounter,
	}
}

func (h *MetricSlogHandler) Handle(ctx context.Context, r slog.Record) error {
	h.logCounter.WithLabelValues(r.Level.String()).Inc()
	return h.Handler.Handle(ctx, r)
}
