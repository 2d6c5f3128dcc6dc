package flowgraph

import (
	"log/slog"

	"github.com/randalmurphal/cognigen/pkg/flowgraph/observability"
)

// runConfig holds configuration for graph execution.
type runConfig struct {
	// maxIterations of zero means unbounded; loop termination belongs to
	// the graph's routers.
	maxIterations int

	logger         *slog.Logger
	metrics        observability.MetricsRecorder
	spans          observability.SpanManager
	tracingEnabled bool
	runID          string
}

func defaultRunConfig() runConfig {
	return runConfig{
		metrics: observability.NoopMetrics{},
		spans:   observability.NoopSpanManager{},
	}
}

// RunOption configures execution behavior.
type RunOption func(*runConfig)

// WithMaxIterations caps the number of node executions in one run.
// By default a run is unbounded. Exceeding the cap returns a
// *MaxIterationsError.
func WithMaxIterations(n int) RunOption {
	return func(c *runConfig) {
		if n > 0 {
			c.maxIterations = n
		}
	}
}

// WithObservabilityLogger sets the logger used for run and node lifecycle
// logs. Defaults to the Context's logger.
func WithObservabilityLogger(logger *slog.Logger) RunOption {
	return func(c *runConfig) {
		c.logger = logger
	}
}

// WithMetrics enables OpenTelemetry metrics via the global meter provider.
func WithMetrics(enabled bool) RunOption {
	return func(c *runConfig) {
		if enabled {
			c.metrics = observability.NewMetricsRecorder()
		} else {
			c.metrics = observability.NoopMetrics{}
		}
	}
}

// WithMetricsRecorder sets an explicit metrics recorder.
func WithMetricsRecorder(m observability.MetricsRecorder) RunOption {
	return func(c *runConfig) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithTracing enables OpenTelemetry spans for the run and every node.
func WithTracing(enabled bool) RunOption {
	return func(c *runConfig) {
		c.tracingEnabled = enabled
		if enabled {
			c.spans = observability.NewSpanManager()
		} else {
			c.spans = observability.NoopSpanManager{}
		}
	}
}

// WithRunID overrides the run identifier reported in logs and spans.
func WithRunID(id string) RunOption {
	return func(c *runConfig) {
		c.runID = id
	}
}
