/*
Package flowgraph is the workflow engine that drives every generation
pipeline: a small directed-graph executor whose nodes are state transforms
connected by static or conditional edges.

# State

A state type is a struct of state.Overwrite and state.Accumulate fields with
a Merge method that merges field by field:

	type QuizState struct {
	    Cells state.Overwrite[[]domain.Cell]
	    Text  state.Overwrite[string]
	    Quiz  state.Overwrite[[]domain.QuizQuestion]
	}

	func (s QuizState) Merge(u QuizState) QuizState {
	    return QuizState{
	        Cells: s.Cells.Merge(u.Cells),
	        Text:  s.Text.Merge(u.Text),
	        Quiz:  s.Quiz.Merge(u.Quiz),
	    }
	}

Nodes return a partial update holding only the fields they produced.

# Building and running

	compiled, err := flowgraph.NewGraph[QuizState]().
	    Named("quiz").
	    AddNode("extract_text", extractText).
	    AddNode("generate_quiz", generateQuiz).
	    AddEdge("extract_text", "generate_quiz").
	    AddEdge("generate_quiz", flowgraph.END).
	    SetEntry("extract_text").
	    Compile()

	final, err := compiled.Run(flowgraph.NewContext(ctx), initial)

Nodes run strictly one at a time. Compile once and reuse the result: a
CompiledGraph keeps no per-run state.

# Loops

A loop is a conditional edge back to an earlier node. The engine does not
bound iterations; the router must test a predicate that a node moves toward
termination on every pass, such as a shrinking queue or an increasing
cursor. WithMaxIterations adds an explicit guard where wanted.

# Errors

Node failures come back as *NodeError, panics as *PanicError with a stack,
bad router results as *RouterError and cancellation as *CancellationError.
On error Run returns the state as of the failing node's start.

# Observability

	final, err := compiled.Run(ctx, initial,
	    flowgraph.WithObservabilityLogger(logger),
	    flowgraph.WithMetrics(true),
	    flowgraph.WithTracing(true))

Spans: flowgraph.run > flowgraph.node.{id}. Metrics:
flowgraph.node.executions, flowgraph.node.latency_ms, flowgraph.graph.runs.
*/
package flowgraph
