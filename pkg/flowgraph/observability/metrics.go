package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records engine and generation metrics.
// Use NewMetricsRecorder for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordNodeExecution records a node execution with its duration and error status.
	RecordNodeExecution(ctx context.Context, nodeID string, duration time.Duration, err error)

	// RecordGraphRun records a graph run completion.
	RecordGraphRun(ctx context.Context, graph string, success bool, duration time.Duration)

	// RecordGeneration records the outcome of one generation step.
	RecordGeneration(ctx context.Context, step, outcome string, attempts int)

	// RecordSourceFailure records a skipped resource source.
	RecordSourceFailure(ctx context.Context, source string)
}

type otelMetrics struct {
	nodeExecutions     metric.Int64Counter
	nodeLatency        metric.Float64Histogram
	nodeErrors         metric.Int64Counter
	graphRuns          metric.Int64Counter
	graphLatency       metric.Float64Histogram
	generationOutcomes metric.Int64Counter
	generationAttempts metric.Int64Histogram
	sourceFailures     metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics(otel.Meter("flowgraph"))
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics(meter metric.Meter) (*otelMetrics, error) {
	m := &otelMetrics{}
	var err error

	if m.nodeExecutions, err = meter.Int64Counter("flowgraph.node.executions",
		metric.WithDescription("Number of node executions")); err != nil {
		return nil, err
	}
	if m.nodeLatency, err = meter.Float64Histogram("flowgraph.node.latency_ms",
		metric.WithDescription("Node execution latency in milliseconds"),
		metric.WithUnit("ms")); err != nil {
		return nil, err
	}
	if m.nodeErrors, err = meter.Int64Counter("flowgraph.node.errors",
		metric.WithDescription("Number of node execution errors")); err != nil {
		return nil, err
	}
	if m.graphRuns, err = meter.Int64Counter("flowgraph.graph.runs",
		metric.WithDescription("Number of graph runs")); err != nil {
		return nil, err
	}
	if m.graphLatency, err = meter.Float64Histogram("flowgraph.graph.latency_ms",
		metric.WithDescription("Graph run latency in milliseconds"),
		metric.WithUnit("ms")); err != nil {
		return nil, err
	}
	if m.generationOutcomes, err = meter.Int64Counter("flowgraph.generation.outcomes",
		metric.WithDescription("Generation steps by outcome")); err != nil {
		return nil, err
	}
	if m.generationAttempts, err = meter.Int64Histogram("flowgraph.generation.attempts",
		metric.WithDescription("Attempts used per generation step")); err != nil {
		return nil, err
	}
	if m.sourceFailures, err = meter.Int64Counter("flowgraph.source.failures",
		metric.WithDescription("Resource sources skipped after failing")); err != nil {
		return nil, err
	}

	return m, nil
}

// NewMetricsRecorder returns a MetricsRecorder backed by the global OTel
// meter provider. If initialization fails it returns a no-op recorder.
//
// Configure the provider before the first call:
//
//	otel.SetMeterProvider(provider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// NewMetricsRecorderWithMeter returns a MetricsRecorder bound to meter.
func NewMetricsRecorderWithMeter(meter metric.Meter) (MetricsRecorder, error) {
	return newOtelMetrics(meter)
}

func (m *otelMetrics) RecordNodeExecution(ctx context.Context, nodeID string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("node_id", nodeID))

	m.nodeExecutions.Add(ctx, 1, attrs)
	m.nodeLatency.Record(ctx, float64(duration.Milliseconds()), attrs)
	if err != nil {
		m.nodeErrors.Add(ctx, 1, attrs)
	}
}

func (m *otelMetrics) RecordGraphRun(ctx context.Context, graph string, success bool, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("graph", graph),
		attribute.Bool("success", success),
	)
	m.graphRuns.Add(ctx, 1, attrs)
	m.graphLatency.Record(ctx, float64(duration.Milliseconds()), attrs)
}

func (m *otelMetrics) RecordGeneration(ctx context.Context, step, outcome string, attempts int) {
	m.generationOutcomes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("step", step),
		attribute.String("outcome", outcome),
	))
	m.generationAttempts.Record(ctx, int64(attempts), metric.WithAttributes(attribute.String("step", step)))
}

func (m *otelMetrics) RecordSourceFailure(ctx context.Context, source string) {
	m.sourceFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
}
