package flowgraph

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
)

// Compile validates the graph and creates an executable CompiledGraph.
// All validation failures are joined into one error, prefixed with the
// graph name when Named was called.
//
// The entry point must be set and exist, every edge source and target must
// exist (targets may be END), and END must be reachable from the entry.
// Nodes unreachable from the entry are logged as warnings only.
func (g *Graph[S]) Compile() (*CompiledGraph[S], error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if errs := g.validate(); len(errs) > 0 {
		err := errors.Join(errs...)
		if g.name != "" {
			err = fmt.Errorf("compile %s: %w", g.name, err)
		}
		return nil, err
	}

	for _, id := range g.unreachable() {
		slog.Warn("node is unreachable from entry", "graph", g.name, "node_id", id)
	}
	return g.buildCompiledGraph(), nil
}

func (g *Graph[S]) validate() []error {
	var errs []error
	entryOK := false
	switch _, exists := g.nodes[g.entryPoint]; {
	case g.entryPoint == "":
		errs = append(errs, ErrNoEntryPoint)
	case !exists:
		errs = append(errs, fmt.Errorf("%w: %s", ErrEntryNotFound, g.entryPoint))
	default:
		entryOK = true
	}

	for _, from := range sortedKeys(g.edges) {
		if !g.known(from) {
			errs = append(errs, fmt.Errorf("%w: edge source '%s' does not exist", ErrNodeNotFound, from))
		}
		for _, to := range g.edges[from] {
			if to != END && !g.hasNode(to) {
				errs = append(errs, fmt.Errorf("%w: edge target '%s' does not exist", ErrNodeNotFound, to))
			}
		}
	}
	for _, from := range sortedKeys(g.conditionalEdges) {
		if !g.hasNode(from) {
			errs = append(errs, fmt.Errorf("%w: conditional edge source '%s' does not exist", ErrNodeNotFound, from))
		}
	}

	if entryOK && !g.reachesEnd()[g.entryPoint] {
		errs = append(errs, ErrNoPathToEnd)
	}
	return errs
}

func (g *Graph[S]) hasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// known reports whether id may appear as an edge source: END, a node, or a
// router source (reported separately when missing).
func (g *Graph[S]) known(id string) bool {
	if id == END || g.hasNode(id) {
		return true
	}
	_, routed := g.conditionalEdges[id]
	return routed
}

// reachesEnd returns the set of ids that can reach END. It walks static
// edges backwards from END and from every router source, since a router may
// return END.
func (g *Graph[S]) reachesEnd() map[string]bool {
	incoming := make(map[string][]string)
	for from, targets := range g.edges {
		for _, to := range targets {
			incoming[to] = append(incoming[to], from)
		}
	}

	seen := map[string]bool{END: true}
	queue := []string{END}
	for from := range g.conditionalEdges {
		if !seen[from] {
			seen[from] = true
			queue = append(queue, from)
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, from := range incoming[id] {
			if !seen[from] {
				seen[from] = true
				queue = append(queue, from)
			}
		}
	}
	return seen
}

// unreachable lists, in id order, the nodes the entry cannot reach. Router
// targets are only known at run time, so reaching any router source makes
// every node reachable.
func (g *Graph[S]) unreachable() []string {
	if g.entryPoint == "" {
		return nil
	}

	seen := map[string]bool{g.entryPoint: true}
	queue := []string{g.entryPoint}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if _, routed := g.conditionalEdges[id]; routed {
			return nil
		}
		for _, to := range g.edges[id] {
			if to != END && !seen[to] {
				seen[to] = true
				queue = append(queue, to)
			}
		}
	}

	var out []string
	for _, id := range sortedKeys(g.nodes) {
		if !seen[id] {
			out = append(out, id)
		}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// buildCompiledGraph copies the builder state into an immutable CompiledGraph.
func (g *Graph[S]) buildCompiledGraph() *CompiledGraph[S] {
	nodes := make(map[string]NodeFunc[S], len(g.nodes))
	for id, fn := range g.nodes {
		nodes[id] = fn
	}

	edges := make(map[string][]string, len(g.edges))
	predecessors := make(map[string][]string)
	for from, targets := range g.edges {
		edges[from] = append([]string(nil), targets...)
		for _, to := range targets {
			if to != END {
				predecessors[to] = append(predecessors[to], from)
			}
		}
	}

	conditionalEdges := make(map[string]RouterFunc[S], len(g.conditionalEdges))
	for from, router := range g.conditionalEdges {
		conditionalEdges[from] = router
	}

	return &CompiledGraph[S]{
		name:             g.name,
		nodes:            nodes,
		edges:            edges,
		conditionalEdges: conditionalEdges,
		entryPoint:       g.entryPoint,
		predecessors:     predecessors,
	}
}
