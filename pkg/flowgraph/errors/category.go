// Package errors provides the error taxonomy and retry primitives shared by
// the generation pipelines.
//
// Every boundary that talks to something unreliable returns one of the typed
// errors in this package, so the caller decides explicitly whether to retry,
// degrade, or propagate:
//   - Transient: an upstream hiccup (timeouts, 429/5xx); retrying may help.
//   - Degradable: the output was unusable; retry, then fall back to a stub.
//   - Permanent: nothing downstream can recover; surface to the caller.
package errors

import (
	"context"
	"errors"
	"fmt"
)

// Category represents how an error should be handled.
type Category int

const (
	// CategoryTransient indicates retry will likely help.
	CategoryTransient Category = iota

	// CategoryPermanent indicates retry won't help and the request fails.
	CategoryPermanent

	// CategoryDegradable indicates the result can be replaced by a
	// deterministic fallback once retries are exhausted.
	CategoryDegradable
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryTransient:
		return "transient"
	case CategoryPermanent:
		return "permanent"
	case CategoryDegradable:
		return "degradable"
	default:
		return "unknown"
	}
}

// CategorizedError wraps an error with its category and context.
type CategorizedError struct {
	Err      error
	Category Category

	// Retries is the number of attempts that have been made.
	Retries int

	// Context describes what operation was being attempted.
	Context string
}

// Error implements the error interface.
func (e *CategorizedError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s: %s (category: %s, attempts: %d)",
			e.Context, e.Err, e.Category, e.Retries)
	}
	return fmt.Sprintf("%s (category: %s, attempts: %d)",
		e.Err, e.Category, e.Retries)
}

// Unwrap returns the underlying error.
func (e *CategorizedError) Unwrap() error {
	return e.Err
}

// NewCategorized creates a new categorized error.
func NewCategorized(err error, category Category, context string) *CategorizedError {
	return &CategorizedError{Err: err, Category: category, Context: context}
}

// Transient creates a transient error.
func Transient(err error, context string) *CategorizedError {
	return NewCategorized(err, CategoryTransient, context)
}

// Permanent creates a permanent error.
func Permanent(err error, context string) *CategorizedError {
	return NewCategorized(err, CategoryPermanent, context)
}

// Degradable creates a degradable error.
func Degradable(err error, context string) *CategorizedError {
	return NewCategorized(err, CategoryDegradable, context)
}

// Categorize determines how an error should be handled.
func Categorize(err error) Category {
	if err == nil {
		return CategoryPermanent
	}

	var catErr *CategorizedError
	if errors.As(err, &catErr) {
		return catErr.Category
	}

	var contractErr *ContractError
	if errors.As(err, &contractErr) {
		return CategoryPermanent
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		switch {
		case httpErr.StatusCode == 429, httpErr.StatusCode >= 500:
			return CategoryTransient
		default:
			return CategoryPermanent
		}
	}

	var extractErr *ExtractionError
	if errors.As(err, &extractErr) {
		return CategoryDegradable
	}

	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return CategoryDegradable
	}

	var timeoutErr *TimeoutError
	if errors.As(err, &timeoutErr) {
		return CategoryTransient
	}

	var srcErr *SourceError
	if errors.As(err, &srcErr) {
		return CategoryDegradable
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return CategoryTransient
	}

	return CategoryPermanent
}

// IsRetryable reports whether the error should be retried.
func IsRetryable(err error) bool {
	return Categorize(err) == CategoryTransient
}

// IsDegradable reports whether a fallback may stand in for the failed result.
func IsDegradable(err error) bool {
	return Categorize(err) == CategoryDegradable
}
