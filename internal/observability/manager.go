package observability

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
)

// Config aggregates tracing and metrics configuration into a single
// constructor argument.
type Config struct {
	ServiceName    string
	TracingEnabled bool
	SamplingRate   float64
	MetricsEnabled bool
}

// Manager owns the process-wide tracer provider shutdown hook and the
// Metrics collector, and is passed by reference into the orchestrator
// and HTTP surface so both can record spans/metrics without caring
// whether observability is actually enabled.
type Manager struct {
	metrics  *Metrics
	shutdown func(context.Context) error
}

// NewManager initializes tracing and metrics per cfg. Either half may
// be disabled independently; a disabled Manager is still safe to pass
// around and call methods on.
func NewManager(ctx context.Context, cfg Config) (*Manager, error) {
	shutdown, err := InitGlobalTracer(ctx, TracerConfig{
		Enabled:      cfg.TracingEnabled,
		ServiceName:  cfg.ServiceName,
		SamplingRate: cfg.SamplingRate,
	})
	if err != nil {
		return nil, fmt.Errorf("observability: failed to init tracer: %w", err)
	}

	metrics, err := NewMetrics(MetricsConfig{
		Enabled:   cfg.MetricsEnabled,
		Namespace: "dataloom",
	})
	if err != nil {
		return nil, fmt.Errorf("observability: failed to init metrics: %w", err)
	}

	if cfg.TracingEnabled {
		slog.Info("observability: tracing initialized", "sampling_rate", cfg.SamplingRate)
	}
	if cfg.MetricsEnabled {
		slog.Info("observability: metrics initialized")
	}

	return &Manager{metrics: metrics, shutdown: shutdown}, nil
}

// Metrics returns the metrics collector. Safe to call on a nil
// *Manager; returns nil, and every Metrics method tolerates a nil
// receiver.
func (m *Manager) Metrics() *Metrics {
	if m == nil {
		return nil
	}
	return m.metrics
}

// MetricsHandler returns the Prometheus scrape handler.
func (m *Manager) MetricsHandler() http.Handler {
	if m == nil {
		return (*Metrics)(nil).Handler()
	}
	return m.metrics.Handler()
}

// Shutdown flushes the trace exporter. Safe to call on a nil *Manager.
func (m *Manager) Shutdown(ctx context.Context) error {
	if m == nil || m.shutdown == nil {
		return nil
	}
	return m.shutdown(ctx)
}
