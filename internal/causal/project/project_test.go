package project

import (
	"testing"

	"gocausal/domain/causal"
	"gocausal/internal/causal/graph"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func direct(g *graph.Graph, a, b int) {
	g.Orient(b, a, causal.EndpointTail)
	g.Orient(a, b, causal.EndpointArrow)
}

func TestEdges(t *testing.T) {
	const a, b, c, d = 0, 1, 2, 3
	names := []string{"A", "B", "C", "D"}
	vars, err := causal.NewVariables(names)
	require.NoError(t, err)

	g := graph.New(names)
	require.NoError(t, g.AddEdge(a, b))
	require.NoError(t, g.AddEdge(c, a))
	require.NoError(t, g.AddEdge(c, d))
	direct(g, a, b) // visible: C -> A and C, B not adjacent
	direct(g, c, a) // not visible: nothing points into C
	g.Orient(c, d, causal.EndpointArrow)
	g.SetPAG()

	edges := Edges(g, vars)
	require.Len(t, edges, 3)

	ab := edges[0]
	assert.Equal(t, "A", ab.From.Name)
	assert.Equal(t, causal.LabelDirected, ab.Label)
	assert.True(t, ab.NoLatent)
	assert.True(t, ab.DefinitelyDirect)

	// Stored as A–C with the arrow at A; reported tail first.
	ca := edges[1]
	assert.Equal(t, "C", ca.From.Name)
	assert.Equal(t, "A", ca.To.Name)
	assert.Equal(t, causal.EndpointTail, ca.MarkFrom)
	assert.False(t, ca.NoLatent)
	assert.True(t, ca.DefinitelyDirect)

	cd := edges[2]
	assert.Equal(t, causal.LabelPartiallyDirected, cd.Label)
	assert.False(t, cd.NoLatent)
	assert.False(t, cd.DefinitelyDirect)
	assert.Equal(t, "C o-> D pd pl", cd.String())
}

func TestEdgesPossiblyDirect(t *testing.T) {
	const a, b, c = 0, 1, 2
	names := []string{"A", "B", "C"}
	vars, err := causal.NewVariables(names)
	require.NoError(t, err)

	g := graph.NewComplete(names)
	direct(g, a, b)
	direct(g, a, c)
	direct(g, c, b)

	edges := Edges(g, vars)
	require.Len(t, edges, 3)
	assert.Equal(t, "A --> B pd pl", edges[0].String())
	assert.Equal(t, "A --> C dd pl", edges[1].String())
	assert.Equal(t, "C --> B dd pl", edges[2].String())
}

func TestPAG(t *testing.T) {
	names := []string{"X", "Y", "Z"}
	vars, err := causal.NewVariables(names)
	require.NoError(t, err)

	g := graph.NewComplete(names)
	require.NoError(t, g.RemoveEdge(0, 1))
	sepsets := graph.NewSepsetTable()
	require.NoError(t, sepsets.Record(0, 1, []int{2}, 0.42, causal.PhaseAdjacency))
	g.SetPAG()

	pag := PAG(g, sepsets, vars, causal.OracleStats{Queries: 7})
	assert.True(t, pag.Oriented)
	assert.Len(t, pag.Edges, 2)
	require.Len(t, pag.Separations, 1)
	assert.Equal(t, causal.Separation{X: "X", Y: "Y", Given: []string{"Z"}, PValue: 0.42, Phase: causal.PhaseAdjacency}, pag.Separations[0])
	assert.Equal(t, 7, pag.Oracle.Queries)
	assert.Equal(t, "1. X o-o Z pd pl\n2. Y o-o Z pd pl\n", pag.Text())
}
