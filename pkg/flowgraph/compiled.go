package flowgraph

// CompiledGraph is an immutable, executable graph created by Compile.
//
// A CompiledGraph holds no per-run state: every Run starts from the state
// the caller passes in, so one instance can serve any number of sequential
// or concurrent runs without values from one run appearing in another.
type CompiledGraph[S State[S]] struct {
	name             string
	nodes            map[string]NodeFunc[S]
	edges            map[string][]string
	conditionalEdges map[string]RouterFunc[S]
	entryPoint       string

	predecessors map[string][]string
}

// Name returns the graph name, or "flowgraph" if none was set.
func (cg *CompiledGraph[S]) Name() string {
	if cg.name == "" {
		return "flowgraph"
	}
	return cg.name
}

// EntryPoint returns the entry node ID.
func (cg *CompiledGraph[S]) EntryPoint() string {
	return cg.entryPoint
}

// NodeIDs returns all node identifiers in the graph in no particular order.
func (cg *CompiledGraph[S]) NodeIDs() []string {
	ids := make([]string, 0, len(cg.nodes))
	for id := range cg.nodes {
		ids = append(ids, id)
	}
	return ids
}

// HasNode checks if a node exists in the graph.
func (cg *CompiledGraph[S]) HasNode(id string) bool {
	_, exists := cg.nodes[id]
	return exists
}

// Successors returns the targets of the node's simple edges.
// Conditional targets are decided at runtime and are not included.
func (cg *CompiledGraph[S]) Successors(id string) []string {
	if id == END {
		return nil
	}
	return cg.edges[id]
}

// Predecessors returns the node IDs that have simple edges to the given node.
func (cg *CompiledGraph[S]) Predecessors(id string) []string {
	return cg.predecessors[id]
}

// IsConditional returns true if the node has a conditional edge.
func (cg *CompiledGraph[S]) IsConditional(id string) bool {
	_, exists := cg.conditionalEdges[id]
	return exists
}
