// Package generate runs one bounded generation step: call the backend,
// extract JSON from the reply, validate it, and fall back to a
// deterministic value once the attempt budget is spent.
//
// Backend errors, timeouts, extraction failures and validation failures
// all draw on the same budget. Exhausting it is a normal outcome, so Run
// never returns an error.
package generate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/randalmurphal/cognigen/internal/extract"
	fgerrors "github.com/randalmurphal/cognigen/pkg/flowgraph/errors"
	"github.com/randalmurphal/cognigen/pkg/flowgraph/llm"
	"github.com/randalmurphal/cognigen/pkg/flowgraph/observability"
)

// DefaultMaxAttempts is used when Spec.MaxAttempts is not positive.
const DefaultMaxAttempts = 3

// Outcome is how a step finished.
type Outcome string

const (
	// OutcomeValid means an attempt produced a validated value.
	OutcomeValid Outcome = "valid"

	// OutcomeDegraded means every attempt failed and Fallback supplied
	// the value.
	OutcomeDegraded Outcome = "degraded"
)

// Spec describes one generation step.
type Spec[T any] struct {
	// Name labels logs, metrics and spans.
	Name string

	// MaxAttempts bounds backend calls. Non-positive means DefaultMaxAttempts.
	MaxAttempts int

	// Backoff is the pause before the second attempt, doubling after
	// each further failure. Zero retries immediately.
	Backoff time.Duration

	// Validate converts an extracted JSON value into T or rejects it.
	// When nil the value must already be a T.
	Validate func(v any) (T, error)

	// Fallback builds the value used after the budget is exhausted. It
	// must be deterministic and must not fail. Nil yields the zero T.
	Fallback func() T

	// Metrics records the outcome. Nil disables metrics.
	Metrics observability.MetricsRecorder

	// Logger receives attempt and degradation logs. Nil uses the logger
	// carried by ctx, if any, or slog.Default.
	Logger *slog.Logger
}

// Result is the value a step produced and how it got there.
type Result[T any] struct {
	Value    T
	Outcome  Outcome
	Attempts int

	// Err is the last attempt's error when Outcome is OutcomeDegraded.
	Err error

	// Usage sums token usage over all attempts.
	Usage llm.TokenUsage
}

// Degraded reports whether the value came from Fallback.
func (r Result[T]) Degraded() bool {
	return r.Outcome == OutcomeDegraded
}

// Run executes spec against client with req. The same request is sent on
// every attempt.
func Run[T any](ctx context.Context, client llm.Client, req llm.CompletionRequest, spec Spec[T]) Result[T] {
	name := spec.Name
	if name == "" {
		name = "generate"
	}
	maxAttempts := spec.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	logger := spec.loggerFor(ctx)
	metrics := spec.Metrics
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}

	var usage llm.TokenUsage
	cfg := fgerrors.RetryConfig{
		MaxAttempts:    maxAttempts,
		InitialBackoff: spec.Backoff,
		MaxBackoff:     spec.Backoff * 8,
		BackoffFactor:  2,
		RetryableFunc:  fgerrors.RetryAll,
		OnAttempt: func(attempt int, err error) {
			observability.LogGenerationAttempt(logger, name, attempt, maxAttempts, err)
		},
	}

	res := fgerrors.WithRetryContext(ctx, cfg, func(ctx context.Context) (T, error) {
		return attempt(ctx, client, req, name, spec.Validate, &usage)
	})

	if res.Err == nil {
		metrics.RecordGeneration(ctx, name, string(OutcomeValid), res.Attempts)
		return Result[T]{Value: res.Value, Outcome: OutcomeValid, Attempts: res.Attempts, Usage: usage}
	}

	lastErr := res.Err
	var catErr *fgerrors.CategorizedError
	if errors.As(lastErr, &catErr) {
		lastErr = catErr.Err
	}

	var value T
	if spec.Fallback != nil {
		value = spec.Fallback()
	}
	observability.LogGenerationDegraded(logger, name, res.Attempts, lastErr)
	metrics.RecordGeneration(ctx, name, string(OutcomeDegraded), res.Attempts)

	return Result[T]{
		Value:    value,
		Outcome:  OutcomeDegraded,
		Attempts: res.Attempts,
		Err:      lastErr,
		Usage:    usage,
	}
}

func attempt[T any](
	ctx context.Context,
	client llm.Client,
	req llm.CompletionRequest,
	name string,
	validate func(any) (T, error),
	usage *llm.TokenUsage,
) (value T, err error) {
	ctx, span := observability.StartCallSpan(ctx, "generate", name)
	defer func() { observability.EndSpan(span, err) }()
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()

	resp, err := client.Complete(ctx, req)
	if err != nil {
		return value, fmt.Errorf("complete: %w", err)
	}
	if resp == nil {
		return value, errors.New("complete: empty response")
	}
	usage.Add(resp.Usage)

	v, err := extract.JSON(resp.Content)
	if err != nil {
		return value, err
	}

	if validate == nil {
		t, ok := v.(T)
		if !ok {
			return value, &fgerrors.ValidationError{Message: fmt.Sprintf("unexpected payload type %T", v)}
		}
		return t, nil
	}
	return validate(v)
}

func (s Spec[T]) loggerFor(ctx context.Context) *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	if lc, ok := ctx.(interface{ Logger() *slog.Logger }); ok {
		if l := lc.Logger(); l != nil {
			return l
		}
	}
	return slog.Default()
}
