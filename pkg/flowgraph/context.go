package flowgraph

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Context provides execution context to nodes.
// It extends context.Context with the run's logger and identifiers.
//
// Context is immutable after creation. The executor derives a context per
// node with NodeID set and the logger enriched.
type Context interface {
	context.Context

	// Logger returns the configured logger, enriched with run and node context.
	// Never returns nil.
	Logger() *slog.Logger

	// RunID returns the unique identifier for this execution run.
	RunID() string

	// NodeID returns the current node being executed.
	// Empty string outside node execution.
	NodeID() string
}

type executionContext struct {
	context.Context

	logger *slog.Logger
	runID  string
	nodeID string
}

func (c *executionContext) Logger() *slog.Logger { return c.logger }

func (c *executionContext) RunID() string { return c.runID }

func (c *executionContext) NodeID() string { return c.nodeID }

// ContextOption configures a Context.
type ContextOption func(*executionContext)

// WithLogger sets the logger for the context.
func WithLogger(logger *slog.Logger) ContextOption {
	return func(c *executionContext) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithContextRunID sets the run identifier. A UUID is generated otherwise.
func WithContextRunID(id string) ContextOption {
	return func(c *executionContext) {
		if id != "" {
			c.runID = id
		}
	}
}

// NewContext creates an execution context from a standard context.
//
// Example:
//
//	ctx := flowgraph.NewContext(r.Context(),
//	    flowgraph.WithLogger(logger),
//	    flowgraph.WithContextRunID(requestID))
func NewContext(ctx context.Context, opts ...ContextOption) Context {
	ec := &executionContext{
		Context: ctx,
		logger:  slog.Default(),
		runID:   uuid.NewString(),
	}

	for _, opt := range opts {
		opt(ec)
	}

	return ec
}

// withNodeID returns a derived context for executing nodeID.
func (c *executionContext) withNodeID(nodeID string) *executionContext {
	return &executionContext{
		Context: c.Context,
		logger:  c.logger.With("run_id", c.runID, "node_id", nodeID),
		runID:   c.runID,
		nodeID:  nodeID,
	}
}

// withStdContext returns a copy carrying ctx, which holds the active span.
func (c *executionContext) withStdContext(ctx context.Context) *executionContext {
	cp := *c
	cp.Context = ctx
	return &cp
}
