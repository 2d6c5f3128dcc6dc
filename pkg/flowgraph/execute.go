package flowgraph

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/randalmurphal/cognigen/pkg/flowgraph/observability"
	"go.opentelemetry.io/otel/trace"
)

// Run executes the graph starting from initial and returns the terminal
// state once a node routes to END.
//
// Nodes run one at a time. Each node's partial update is merged into the
// running state with S.Merge before the next node is chosen. On error the
// state as of the failing node's start is returned with the error.
//
// Example:
//
//	ctx := flowgraph.NewContext(context.Background())
//	final, err := compiled.Run(ctx, QuizState{Cells: state.Set(cells)})
func (cg *CompiledGraph[S]) Run(ctx Context, initial S, opts ...RunOption) (result S, runErr error) {
	if ctx == nil {
		return initial, ErrNilContext
	}

	cfg := defaultRunConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = ctx.Logger()
	}

	runID := cfg.runID
	if runID == "" {
		runID = ctx.RunID()
	}

	start := time.Now()
	observability.LogRunStart(cfg.logger, cg.Name(), runID)

	var tracingCtx context.Context = ctx
	if cfg.tracingEnabled {
		var runSpan trace.Span
		tracingCtx, runSpan = cfg.spans.StartRunSpan(ctx, cg.Name(), runID)
		defer func() {
			cfg.spans.EndSpanWithError(runSpan, runErr)
		}()
	}

	var nodeCount int
	result, nodeCount, runErr = cg.runFrom(tracingCtx, ctx, initial, &cfg)

	duration := time.Since(start)
	cfg.metrics.RecordGraphRun(ctx, cg.Name(), runErr == nil, duration)

	if runErr != nil {
		observability.LogRunError(cfg.logger, cg.Name(), runID, runErr, float64(duration.Milliseconds()), lastNodeOf(runErr))
	} else {
		observability.LogRunComplete(cfg.logger, cg.Name(), runID, float64(duration.Milliseconds()), nodeCount)
	}

	return result, runErr
}

func (cg *CompiledGraph[S]) runFrom(tracingCtx context.Context, fgCtx Context, state S, cfg *runConfig) (S, int, error) {
	current := cg.entryPoint
	iterations := 0

	for current != END {
		iterations++
		if cfg.maxIterations > 0 && iterations > cfg.maxIterations {
			return state, iterations - 1, &MaxIterationsError{
				Max:        cfg.maxIterations,
				LastNodeID: current,
				State:      state,
			}
		}

		if err := fgCtx.Err(); err != nil {
			return state, iterations - 1, &CancellationError{
				NodeID: current,
				State:  state,
				Cause:  err,
			}
		}

		observability.LogNodeStart(cfg.logger, current)

		nodeTracingCtx := tracingCtx
		var nodeSpan trace.Span
		if cfg.tracingEnabled {
			nodeTracingCtx, nodeSpan = cfg.spans.StartNodeSpan(tracingCtx, current)
		}

		nodeStart := time.Now()
		update, nodeErr := cg.executeNode(fgCtx, nodeTracingCtx, current, state)
		nodeDuration := time.Since(nodeStart)

		cfg.metrics.RecordNodeExecution(nodeTracingCtx, current, nodeDuration, nodeErr)
		if cfg.tracingEnabled {
			cfg.spans.EndSpanWithError(nodeSpan, nodeErr)
		}

		if nodeErr != nil {
			if cause := fgCtx.Err(); cause != nil && errors.Is(nodeErr, cause) {
				nodeErr = &CancellationError{NodeID: current, State: state, Cause: cause, WasExecuting: true}
			}
			observability.LogNodeError(cfg.logger, current, nodeErr)
			return state, iterations - 1, nodeErr
		}
		observability.LogNodeComplete(cfg.logger, current, float64(nodeDuration.Milliseconds()))

		state = state.Merge(update)

		next, err := cg.nextNode(fgCtx, state, current)
		if err != nil {
			return state, iterations, err
		}
		current = next
	}

	return state, iterations, nil
}

// executeNode runs one node with panic recovery and returns its partial update.
func (cg *CompiledGraph[S]) executeNode(ctx Context, tracingCtx context.Context, nodeID string, state S) (update S, err error) {
	fn, exists := cg.nodes[nodeID]
	if !exists {
		return update, &NodeError{
			NodeID: nodeID,
			Op:     "lookup",
			Err:    fmt.Errorf("node not found: %s", nodeID),
		}
	}

	nodeCtx := ctx
	if ec, ok := ctx.(*executionContext); ok {
		nodeCtx = ec.withNodeID(nodeID).withStdContext(tracingCtx)
	}

	defer func() {
		if r := recover(); r != nil {
			var zero S
			update = zero
			err = &PanicError{
				NodeID: nodeID,
				Value:  r,
				Stack:  string(debug.Stack()),
			}
		}
	}()

	update, err = fn(nodeCtx, state)
	if err != nil {
		return update, &NodeError{NodeID: nodeID, Op: "execute", Err: err}
	}
	return update, nil
}

// nextNode picks the successor of current: the router's answer if the node
// has a conditional edge, otherwise its first simple edge.
func (cg *CompiledGraph[S]) nextNode(ctx Context, state S, current string) (string, error) {
	if router, exists := cg.conditionalEdges[current]; exists {
		routerCtx := ctx
		if ec, ok := ctx.(*executionContext); ok {
			routerCtx = ec.withNodeID(current)
		}

		next := router(routerCtx, state)
		if next == "" {
			return "", &RouterError{FromNode: current, Returned: next, Err: ErrInvalidRouterResult}
		}
		if next != END && !cg.HasNode(next) {
			return "", &RouterError{FromNode: current, Returned: next, Err: ErrRouterTargetNotFound}
		}
		return next, nil
	}

	edges := cg.edges[current]
	if len(edges) == 0 {
		return "", &NodeError{
			NodeID: current,
			Op:     "routing",
			Err:    fmt.Errorf("no outgoing edge from node %s", current),
		}
	}
	return edges[0], nil
}

func lastNodeOf(err error) string {
	var nodeErr *NodeError
	var panicErr *PanicError
	var maxErr *MaxIterationsError
	var cancelErr *CancellationError
	var routerErr *RouterError
	switch {
	case errors.As(err, &nodeErr):
		return nodeErr.NodeID
	case errors.As(err, &panicErr):
		return panicErr.NodeID
	case errors.As(err, &maxErr):
		return maxErr.LastNodeID
	case errors.As(err, &cancelErr):
		return cancelErr.NodeID
	case errors.As(err, &routerErr):
		return routerErr.FromNode
	default:
		return ""
	}
}
