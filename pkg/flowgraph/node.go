package flowgraph

// END is the terminal node identifier.
// Use this as an edge target to indicate the graph should terminate.
const END = "__end__"

// State is the constraint every workflow state satisfies. Merge folds a
// partial update into the receiver and returns the result; it must not
// mutate either operand.
type State[S any] interface {
	Merge(update S) S
}

// NodeFunc is the signature for all node functions.
// Nodes receive the execution context and the current state, and return a
// partial update holding only the fields they produced. The executor merges
// the update into the running state.
//
// Example:
//
//	func pick(ctx flowgraph.Context, s ContentState) (ContentState, error) {
//	    return ContentState{Current: state.Set(s.Pending.Get()[0])}, nil
//	}
type NodeFunc[S any] func(ctx Context, state S) (S, error)

// RouterFunc determines the next node based on state.
// It is used for conditional edges where the next node depends on runtime state.
//
// The router should return a valid node ID or flowgraph.END.
// Returning an empty string or an unknown node ID will cause a runtime error.
type RouterFunc[S any] func(ctx Context, state S) string
