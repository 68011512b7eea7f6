// Package telemetry installs the process-wide OTel trace/metric
// providers. Every other package obtains its tracer/meter through the
// global otel.Tracer/otel.Meter accessors and gets a safe no-op until
// Init runs — the same delegating-provider pattern the teacher's
// internal/storage/dolt/store.go relies on for its own instruments.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Config names the SERVICE_NAME / SERVICE_VERSION / BINGO_ENVIRONMENT
// environment surface spec.md §6 lists for telemetry.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string

	// Writer receives the stdout exporters' output; defaults to
	// os.Stderr so it never interleaves with a command's JSON stdout
	// output.
	Writer io.Writer
}

// Shutdown flushes and stops the installed providers. Always call it
// (typically via defer) once Init succeeds.
type Shutdown func(context.Context) error

// Init installs global trace and metric providers backed by the OTel
// stdout exporters. It is safe to call at most once per process; every
// instrument works as a no-op before Init runs, so calling it is
// optional. No bingo command calls it, so the CLI runs with the no-op
// providers.
func Init(ctx context.Context, cfg Config) (Shutdown, error) {
	writer := cfg.Writer
	if writer == nil {
		writer = os.Stderr
	}

	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.version", cfg.ServiceVersion),
		attribute.String("deployment.environment", cfg.Environment),
	))
	if err != nil {
		return nil, fmt.Errorf("telemetry: merge resource: %w", err)
	}

	traceExporter, err := stdouttrace.New(stdouttrace.WithWriter(writer), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("telemetry: stdout trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	metricExporter, err := stdoutmetric.New(stdoutmetric.WithWriter(writer))
	if err != nil {
		return nil, fmt.Errorf("telemetry: stdout metric exporter: %w", err)
	}
	mp := metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(metricExporter)),
		metric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	return func(shutdownCtx context.Context) error {
		if err := tp.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("telemetry: shutdown tracer provider: %w", err)
		}
		if err := mp.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("telemetry: shutdown meter provider: %w", err)
		}
		return nil
	}, nil
}
