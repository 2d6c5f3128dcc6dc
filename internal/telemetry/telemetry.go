// Package telemetry installs the process-wide OpenTelemetry tracer provider.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/randalmurphal/cognigen/internal/config"
)

// ShutdownFunc flushes and stops the installed provider.
type ShutdownFunc func(context.Context) error

// Option configures Setup.
type Option func(*options)

type options struct {
	stdout  io.Writer
	version string
}

// WithStdoutWriter redirects the stdout exporter.
func WithStdoutWriter(w io.Writer) Option {
	return func(o *options) { o.stdout = w }
}

// WithVersion records the service version on every span.
func WithVersion(v string) Option {
	return func(o *options) { o.version = v }
}

// Setup installs a tracer provider for cfg.Exporter and the W3C trace
// context propagator. With the none exporter it installs nothing and the
// returned shutdown is a no-op.
func Setup(ctx context.Context, cfg config.Telemetry, logger *slog.Logger, opts ...Option) (ShutdownFunc, error) {
	o := options{stdout: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = slog.Default()
	}

	exporter, err := newExporter(ctx, cfg, o)
	if err != nil {
		return nil, err
	}
	if exporter == nil {
		return func(context.Context) error { return nil }, nil
	}

	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "cognigen"
	}
	attrs := []attribute.KeyValue{attribute.String("service.name", name)}
	if o.version != "" {
		attrs = append(attrs, attribute.String("service.version", o.version))
	}
	res, err := resource.New(ctx, resource.WithAttributes(attrs...))
	if err != nil {
		logger.Warn("otel resource init failed (continuing)", "error", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	logger.Info("otel tracing initialized", "service", name, "exporter", cfg.Exporter)

	return tp.Shutdown, nil
}

func newExporter(ctx context.Context, cfg config.Telemetry, o options) (sdktrace.SpanExporter, error) {
	switch cfg.Exporter {
	case config.ExporterNone, "":
		return nil, nil
	case config.ExporterStdout:
		exp, err := stdouttrace.New(stdouttrace.WithWriter(o.stdout))
		if err != nil {
			return nil, fmt.Errorf("stdout trace exporter: %w", err)
		}
		return exp, nil
	case config.ExporterOTLP:
		var opts []otlptracehttp.Option
		if ep := strings.TrimSpace(cfg.OTLPEndpoint); ep != "" {
			opts = append(opts, otlptracehttp.WithEndpointURL(ep))
		}
		exp, err := otlptracehttp.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("otlp trace exporter: %w", err)
		}
		return exp, nil
	default:
		return nil, fmt.Errorf("unknown trace exporter %q", cfg.Exporter)
	}
}
