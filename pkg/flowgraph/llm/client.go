// Package llm defines the generation backend boundary and its
// implementations: a local Ollama server, Google Gemini, and an in-memory
// mock for tests.
//
// Backends are opaque and unreliable. Callers must not assume the returned
// text is well-formed; see the extract package for recovery.
package llm

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	fgerrors "github.com/randalmurphal/cognigen/pkg/flowgraph/errors"
)

// Client is a text generation backend.
type Client interface {
	// Complete performs one blocking generation call.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

// Complete implements Client.
func (f ClientFunc) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	return f(ctx, req)
}

// WithCallTimeout bounds every Complete call on client by d. A call that
// outlives d returns *errors.TimeoutError even if the backend ignores
// cancellation, and a backend panic comes back as an error. A non-positive
// d returns client unchanged.
func WithCallTimeout(client Client, d time.Duration) Client {
	if d <= 0 {
		return client
	}
	return &timeoutClient{next: client, timeout: d}
}

type timeoutClient struct {
	next    Client
	timeout time.Duration
}

type completion struct {
	resp *CompletionResponse
	err  error
}

func (c *timeoutClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	done := make(chan completion, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- completion{err: fmt.Errorf("backend panic: %v\n%s", p, debug.Stack())}
			}
		}()
		resp, err := c.next.Complete(callCtx, req)
		done <- completion{resp: resp, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil && errors.Is(res.err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, c.timeoutError(req)
		}
		return res.resp, res.err
	case <-callCtx.Done():
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, c.timeoutError(req)
	}
}

func (c *timeoutClient) timeoutError(req CompletionRequest) error {
	op := "generate"
	if req.Model != "" {
		op = "generate " + req.Model
	}
	return &fgerrors.TimeoutError{Operation: op, Duration: c.timeout}
}
