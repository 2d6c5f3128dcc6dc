package errors

import (
	"fmt"
	"time"
)

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e.Endpoint != "" {
		return fmt.Sprintf("HTTP %d at %s: %s", e.StatusCode, e.Endpoint, e.Message)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// ExtractionError indicates no structured value could be recovered from
// generator output. Raw holds the untouched text for diagnostics.
type ExtractionError struct {
	Raw    string
	Reason string
}

// Error implements the error interface.
func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed: %s (raw: %q)", e.Reason, abbreviate(e.Raw, 200))
}

// ValidationError indicates a parsed payload failed a domain validator.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// TimeoutError indicates an external call exceeded its deadline.
type TimeoutError struct {
	Operation string
	Duration  time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout after %s: %s", e.Duration, e.Operation)
}

// SourceError indicates a resource lookup collaborator failed.
type SourceError struct {
	Source string
	Err    error
}

// Error implements the error interface.
func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s failed: %v", e.Source, e.Err)
}

// Unwrap returns the underlying error.
func (e *SourceError) Unwrap() error {
	return e.Err
}

// ContractError indicates a pipeline finished without its required output.
type ContractError struct {
	Pipeline string
	Message  string
}

// Error implements the error interface.
func (e *ContractError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pipeline, e.Message)
}

func abbreviate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
