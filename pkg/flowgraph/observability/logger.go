// Package observability provides structured logging, metrics, and tracing
// for graph runs and the external calls their nodes make.
//
// Logging uses log/slog. Metrics and tracing use OpenTelemetry through the
// global providers. Every recorder has a no-op implementation for when a
// feature is disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds run and node fields to a logger.
func EnrichLogger(logger *slog.Logger, runID, nodeID string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("run_id", runID),
		slog.String("node_id", nodeID),
	)
}

// LogRunStart logs the start of a graph run.
func LogRunStart(logger *slog.Logger, graph, runID string) {
	if logger == nil {
		return
	}
	logger.Info("graph run starting",
		slog.String("graph", graph),
		slog.String("run_id", runID),
	)
}

// LogRunComplete logs successful graph run completion.
func LogRunComplete(logger *slog.Logger, graph, runID string, durationMs float64, nodeCount int) {
	if logger == nil {
		return
	}
	logger.Info("graph run completed",
		slog.String("graph", graph),
		slog.String("run_id", runID),
		slog.Float64("duration_ms", durationMs),
		slog.Int("nodes_executed", nodeCount),
	)
}

// LogRunError logs graph run failure.
func LogRunError(logger *slog.Logger, graph, runID string, err error, durationMs float64, lastNode string) {
	if logger == nil {
		return
	}
	logger.Error("graph run failed",
		slog.String("graph", graph),
		slog.String("run_id", runID),
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
		slog.String("last_node", lastNode),
	)
}

// LogNodeStart logs node execution start.
func LogNodeStart(logger *slog.Logger, nodeID string) {
	if logger == nil {
		return
	}
	logger.Debug("node starting", slog.String("node_id", nodeID))
}

// LogNodeComplete logs successful node completion.
func LogNodeComplete(logger *slog.Logger, nodeID string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("node completed",
		slog.String("node_id", nodeID),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogNodeError logs node execution error.
func LogNodeError(logger *slog.Logger, nodeID string, err error) {
	if logger == nil {
		return
	}
	logger.Error("node failed",
		slog.String("node_id", nodeID),
		slog.String("error", err.Error()),
	)
}

// LogGenerationAttempt logs a failed generation attempt.
func LogGenerationAttempt(logger *slog.Logger, step string, attempt, maxAttempts int, err error) {
	if logger == nil {
		return
	}
	logger.Warn("generation attempt failed",
		slog.String("step", step),
		slog.Int("attempt", attempt),
		slog.Int("max_attempts", maxAttempts),
		slog.String("error", err.Error()),
	)
}

// LogGenerationDegraded logs that a step fell back after exhausting attempts.
func LogGenerationDegraded(logger *slog.Logger, step string, attempts int, err error) {
	if logger == nil {
		return
	}
	attrs := []any{
		slog.String("step", step),
		slog.Int("attempts", attempts),
	}
	if err != nil {
		attrs = append(attrs, slog.String("last_error", err.Error()))
	}
	logger.Warn("generation degraded to fallback", attrs...)
}

// LogSourceFailure logs a resource source that was skipped.
func LogSourceFailure(logger *slog.Logger, source, query string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("resource source skipped",
		slog.String("source", source),
		slog.String("query", query),
		slog.String("error", err.Error()),
	)
}

// TimedOperation returns a function reporting elapsed milliseconds.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Milliseconds())
	}
}
