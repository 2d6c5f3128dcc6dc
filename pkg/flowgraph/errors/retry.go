package errors

import (
	"context"
	"math/rand/v2"
	"time"
)

// RetryConfig configures retry behavior.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including initial).
	// Values below 1 are treated as 1.
	MaxAttempts int

	// InitialBackoff is the starting backoff duration. Zero disables sleeping.
	InitialBackoff time.Duration

	// MaxBackoff caps the backoff duration.
	MaxBackoff time.Duration

	// BackoffFactor is the multiplier applied to backoff after each attempt.
	BackoffFactor float64

	// Jitter is the random jitter factor (0.0-1.0).
	Jitter float64

	// RetryableFunc optionally overrides the default retryability check.
	RetryableFunc func(error) bool

	// OnAttempt is called after every failed attempt with its 1-based number.
	OnAttempt func(attempt int, err error)
}

// DefaultRetry is the standard retry configuration for external calls.
var DefaultRetry = RetryConfig{
	MaxAttempts:    3,
	InitialBackoff: 250 * time.Millisecond,
	MaxBackoff:     5 * time.Second,
	BackoffFactor:  2.0,
	Jitter:         0.1,
}

// NoRetry disables retries.
var NoRetry = RetryConfig{
	MaxAttempts: 1,
}

// RetryAll treats every error as retryable. Generation attempts use it so
// transport and validation failures draw on the same budget.
func RetryAll(error) bool { return true }

// RetryResult contains the result of a retry operation.
type RetryResult[T any] struct {
	Value    T
	Err      error
	Attempts int
	Duration time.Duration
}

// WithRetry executes a function with retries based on the configuration.
func WithRetry[T any](cfg RetryConfig, fn func() (T, error)) RetryResult[T] {
	return WithRetryContext(context.Background(), cfg, func(_ context.Context) (T, error) {
		return fn()
	})
}

// WithRetryContext executes fn until it succeeds, returns a non-retryable
// error, the attempt budget runs out, or ctx is done.
func WithRetryContext[T any](
	ctx context.Context,
	cfg RetryConfig,
	fn func(context.Context) (T, error),
) RetryResult[T] {
	start := time.Now()
	maxAttempts := max(cfg.MaxAttempts, 1)
	backoff := cfg.InitialBackoff
	var lastErr error

	isRetryable := cfg.RetryableFunc
	if isRetryable == nil {
		isRetryable = IsRetryable
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return RetryResult[T]{
				Err:      &CategorizedError{Err: err, Category: CategoryPermanent, Retries: attempt - 1, Context: "context cancelled"},
				Attempts: attempt - 1,
				Duration: time.Since(start),
			}
		}

		result, err := fn(ctx)
		if err == nil {
			return RetryResult[T]{Value: result, Attempts: attempt, Duration: time.Since(start)}
		}

		lastErr = err
		if cfg.OnAttempt != nil {
			cfg.OnAttempt(attempt, err)
		}

		if !isRetryable(err) {
			return RetryResult[T]{
				Err:      &CategorizedError{Err: err, Category: Categorize(err), Retries: attempt},
				Attempts: attempt,
				Duration: time.Since(start),
			}
		}

		if attempt == maxAttempts || backoff <= 0 {
			continue
		}

		timer := time.NewTimer(calculateBackoff(backoff, cfg.Jitter))
		select {
		case <-ctx.Done():
			timer.Stop()
			return RetryResult[T]{
				Err:      &CategorizedError{Err: ctx.Err(), Category: CategoryPermanent, Retries: attempt, Context: "context cancelled during backoff"},
				Attempts: attempt,
				Duration: time.Since(start),
			}
		case <-timer.C:
		}

		backoff = time.Duration(float64(backoff) * max(cfg.BackoffFactor, 1))
		if cfg.MaxBackoff > 0 && backoff > cfg.MaxBackoff {
			backoff = cfg.MaxBackoff
		}
	}

	return RetryResult[T]{
		Err: &CategorizedError{
			Err:      lastErr,
			Category: Categorize(lastErr),
			Retries:  maxAttempts,
			Context:  "max retries exceeded",
		},
		Attempts: maxAttempts,
		Duration: time.Since(start),
	}
}

// calculateBackoff returns base +/- (base * jitter * random).
func calculateBackoff(base time.Duration, jitter float64) time.Duration {
	if jitter <= 0 {
		return base
	}
	jitterAmount := float64(base) * jitter * (rand.Float64()*2 - 1)
	return time.Duration(float64(base) + jitterAmount)
}

// RetryOption configures retry behavior.
type RetryOption func(*RetryConfig)

// WithMaxAttempts sets the maximum number of attempts.
func WithMaxAttempts(n int) RetryOption {
	return func(cfg *RetryConfig) { cfg.MaxAttempts = n }
}

// WithInitialBackoff sets the initial backoff duration.
func WithInitialBackoff(d time.Duration) RetryOption {
	return func(cfg *RetryConfig) { cfg.InitialBackoff = d }
}

// WithMaxBackoff sets the maximum backoff duration.
func WithMaxBackoff(d time.Duration) RetryOption {
	return func(cfg *RetryConfig) { cfg.MaxBackoff = d }
}

// WithBackoffFactor sets the backoff multiplier.
func WithBackoffFactor(f float64) RetryOption {
	return func(cfg *RetryConfig) { cfg.BackoffFactor = f }
}

// WithJitter sets the jitter factor.
func WithJitter(j float64) RetryOption {
	return func(cfg *RetryConfig) { cfg.Jitter = j }
}

// WithRetryableFunc sets a custom retryability check.
func WithRetryableFunc(fn func(error) bool) RetryOption {
	return func(cfg *RetryConfig) { cfg.RetryableFunc = fn }
}

// WithOnAttempt sets the per-failure callback.
func WithOnAttempt(fn func(attempt int, err error)) RetryOption {
	return func(cfg *RetryConfig) { cfg.OnAttempt = fn }
}

// NewRetryConfig creates a retry configuration with the given options.
func NewRetryConfig(opts ...RetryOption) RetryConfig {
	cfg := DefaultRetry
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
