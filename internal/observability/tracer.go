// Package observability wires OpenTelemetry tracing and Prometheus
// metrics through the orchestrator and tool-dispatch paths. Both halves
// are optional: when disabled in configuration, Tracer hands back a
// no-op provider and Metrics hands back a nil receiver whose methods
// are safe no-ops, so callers never need to guard every call site with
// an enabled check.
package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// TracerConfig configures trace export.
type TracerConfig struct {
	Enabled      bool
	ServiceName  string
	SamplingRate float64
}

// InitGlobalTracer installs a global TracerProvider and returns its
// shutdown func. The exporter is stdout-based: good enough to prove the
// span tree out locally or to a collector's log sink without requiring
// a running OTLP collector.
func InitGlobalTracer(ctx context.Context, cfg TracerConfig) (func(context.Context) error, error) {
	if !cfg.Enabled {
		otel.SetTracerProvider(noop.NewTracerProvider())
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := stdouttrace.New(stdouttrace.WithoutTimestamps())
	if err != nil {
		return nil, fmt.Errorf("observability: failed to create trace exporter: %w", err)
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(cfg.ServiceName)))
	if err != nil {
		return nil, fmt.Errorf("observability: failed to build resource: %w", err)
	}

	sampler := sdktrace.TraceIDRatioBased(cfg.SamplingRate)
	if cfg.SamplingRate <= 0 {
		sampler = sdktrace.NeverSample()
	} else if cfg.SamplingRate >= 1 {
		sampler = sdktrace.AlwaysSample()
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sampler),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

// GetTracer returns the named tracer from the current global provider.
func GetTracer(name string) trace.Tracer {
	return otel.Tracer(name)
}
