package flowgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name  string
		graph *Graph[Counter]
		want  error
	}{
		{
			name:  "no entry",
			graph: NewGraph[Counter]().AddNode("a", increment).AddEdge("a", END),
			want:  ErrNoEntryPoint,
		},
		{
			name:  "entry missing",
			graph: NewGraph[Counter]().AddNode("a", increment).AddEdge("a", END).SetEntry("b"),
			want:  ErrEntryNotFound,
		},
		{
			name:  "edge target missing",
			graph: NewGraph[Counter]().AddNode("a", increment).AddEdge("a", "ghost").SetEntry("a"),
			want:  ErrNodeNotFound,
		},
		{
			name:  "edge source missing",
			graph: NewGraph[Counter]().AddNode("a", increment).AddEdge("a", END).AddEdge("ghost", END).SetEntry("a"),
			want:  ErrNodeNotFound,
		},
		{
			name: "conditional source missing",
			graph: NewGraph[Counter]().AddNode("a", increment).AddEdge("a", END).SetEntry("a").
				AddConditionalEdge("ghost", func(Context, Counter) string { return END }),
			want: ErrNodeNotFound,
		},
		{
			name: "no path to end",
			graph: NewGraph[Counter]().
				AddNode("a", increment).
				AddNode("b", increment).
				AddEdge("a", "b").
				AddEdge("b", "a").
				SetEntry("a"),
			want: ErrNoPathToEnd,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.graph.Compile()
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCompile_LoopWithRouterIsValid(t *testing.T) {
	compiled, err := NewGraph[Counter]().
		AddNode("work", increment).
		AddConditionalEdge("work", func(Context, Counter) string { return END }).
		SetEntry("work").
		Compile()

	require.NoError(t, err)
	assert.True(t, compiled.IsConditional("work"))
}

func TestCompile_NamedGraphReportsEveryFailure(t *testing.T) {
	_, err := NewGraph[Counter]().
		Named("quiz").
		AddNode("a", increment).
		AddEdge("a", "ghost").
		AddEdge("phantom", END).
		SetEntry("a").
		Compile()

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNodeNotFound)
	assert.ErrorIs(t, err, ErrNoPathToEnd)
	assert.Contains(t, err.Error(), "compile quiz: ")
	assert.Contains(t, err.Error(), "edge target 'ghost'")
	assert.Contains(t, err.Error(), "edge source 'phantom'")
}

func TestCompile_PathToEndThroughRouter(t *testing.T) {
	route := func(Context, Counter) string { return END }

	_, err := NewGraph[Counter]().
		AddNode("a", increment).
		AddNode("b", increment).
		AddNode("orphan", increment).
		AddEdge("a", "b").
		AddConditionalEdge("b", route).
		SetEntry("a").
		Compile()
	require.NoError(t, err, "router downstream of entry may return END; orphan only warns")

	_, err = NewGraph[Counter]().
		AddNode("a", increment).
		AddNode("loop", increment).
		AddNode("exit", increment).
		AddEdge("a", "loop").
		AddEdge("loop", "loop").
		AddConditionalEdge("exit", route).
		SetEntry("a").
		Compile()
	assert.ErrorIs(t, err, ErrNoPathToEnd)
}

func TestCompile_Introspection(t *testing.T) {
	compiled, err := NewGraph[Counter]().
		AddNode("a", increment).
		AddNode("b", increment).
		AddEdge("a", "b").
		AddEdge("b", END).
		SetEntry("a").
		Compile()
	require.NoError(t, err)

	assert.Equal(t, "a", compiled.EntryPoint())
	assert.ElementsMatch(t, []string{"a", "b"}, compiled.NodeIDs())
	assert.True(t, compiled.HasNode("a"))
	assert.False(t, compiled.HasNode(END))
	assert.Equal(t, []string{"b"}, compiled.Successors("a"))
	assert.Nil(t, compiled.Successors(END))
	assert.Equal(t, []string{"a"}, compiled.Predecessors("b"))
	assert.False(t, compiled.IsConditional("a"))
}

func TestCompile_IsolatedFromBuilder(t *testing.T) {
	g := NewGraph[Counter]().
		AddNode("a", increment).
		AddEdge("a", END).
		SetEntry("a")
	compiled, err := g.Compile()
	require.NoError(t, err)

	g.AddNode("late", increment)
	assert.False(t, compiled.HasNode("late"))
}
