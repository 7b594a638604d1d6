package skeleton

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"gocausal/domain/causal"
	"gocausal/internal"
	"gocausal/internal/causal/citest"
	"gocausal/internal/causal/graph"
	"gocausal/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quiet = internal.NewLogger(internal.LogLevelError)

// scriptedOracle answers independent (p=0.9) for the listed statements and dependent
// (p=0) for everything else.
type scriptedOracle map[string]bool

func statement(x, y int, z ...int) string {
	if x > y {
		x, y = y, x
	}
	z = append([]int(nil), z...)
	sort.Ints(z)
	return fmt.Sprintf("%d,%d|%v", x, y, z)
}

func (o scriptedOracle) PValue(x, y int, z []int) float64 {
	if o[statement(x, y, z...)] {
		return 0.9
	}
	return 0
}

func params(depth causal.Limit) causal.Params {
	p := causal.DefaultParams()
	p.Depth = depth
	return p
}

func assertSepsetInvariant(t *testing.T, g *graph.Graph, sepsets *graph.SepsetTable) {
	t.Helper()
	for a := 0; a < g.NumNodes(); a++ {
		for b := a + 1; b < g.NumNodes(); b++ {
			_, has := sepsets.Get(a, b)
			assert.NotEqual(t, g.IsAdjacent(a, b), has, "pair %s-%s", g.Name(a), g.Name(b))
		}
	}
}

func TestSearchChainData(t *testing.T) {
	const x, y, z = 0, 1, 2
	cfg, err := testkit.Preset(testkit.PresetChain)
	require.NoError(t, err)
	m, err := testkit.NewSEMGenerator(cfg).Generate()
	require.NoError(t, err)

	p := causal.DefaultParams()
	p.Alpha = 0.001
	g, sepsets, err := New(citest.NewFisherZ(m, quiet), p, nil, quiet).Search(context.Background(), m.Names)
	require.NoError(t, err)

	assert.True(t, g.IsAdjacent(x, z))
	assert.True(t, g.IsAdjacent(z, y))
	assert.False(t, g.IsAdjacent(x, y))

	set, ok := sepsets.Get(x, y)
	require.True(t, ok)
	assert.Equal(t, []int{z}, set.Given)
	assert.Equal(t, causal.PhaseAdjacency, set.Phase)
	assertSepsetInvariant(t, g, sepsets)
}

func TestSearchDepthLimit(t *testing.T) {
	oracle := scriptedOracle{statement(0, 1, 2): true}
	names := []string{"A", "B", "C"}

	g, sepsets, err := New(oracle, params(0), nil, quiet).Search(context.Background(), names)
	require.NoError(t, err)
	assert.Equal(t, 3, g.NumEdges())
	assert.Equal(t, 0, sepsets.Len())

	g, sepsets, err = New(oracle, params(causal.Unlimited), nil, quiet).Search(context.Background(), names)
	require.NoError(t, err)
	assert.False(t, g.IsAdjacent(0, 1))
	assertSepsetInvariant(t, g, sepsets)
}

func TestSearchAlphaZeroKeepsCompleteGraph(t *testing.T) {
	cfg, err := testkit.Preset(testkit.PresetFork)
	require.NoError(t, err)
	m, err := testkit.NewSEMGenerator(cfg).Generate()
	require.NoError(t, err)

	p := causal.DefaultParams()
	p.Alpha = 0
	g, sepsets, err := New(citest.NewFisherZ(m, quiet), p, nil, quiet).Search(context.Background(), m.Names)
	require.NoError(t, err)

	assert.Equal(t, 3, g.NumEdges())
	assert.Equal(t, 0, sepsets.Len())
}

func TestSearchKnowledge(t *testing.T) {
	names := []string{"A", "B", "C"}
	bk := &causal.BackgroundKnowledge{
		Forbidden: []causal.EdgeSpec{{From: "A", To: "C"}, {From: "C", To: "A"}},
		Required:  []causal.EdgeSpec{{From: "A", To: "B"}},
	}
	constraints, err := bk.Compile(names)
	require.NoError(t, err)

	// The oracle claims A and B are marginally independent; the required edge must stay.
	oracle := scriptedOracle{statement(0, 1): true}
	g, sepsets, err := New(oracle, params(causal.Unlimited), constraints, quiet).Search(context.Background(), names)
	require.NoError(t, err)

	assert.True(t, g.IsAdjacent(0, 1))
	assert.False(t, g.IsAdjacent(0, 2))
	set, ok := sepsets.Get(0, 2)
	require.True(t, ok)
	assert.Empty(t, set.Given)
	assert.Equal(t, causal.PhaseKnowledge, set.Phase)
	assertSepsetInvariant(t, g, sepsets)
}

func TestSearchWorkersAreDeterministic(t *testing.T) {
	cfg, err := testkit.Preset(testkit.PresetLatent)
	require.NoError(t, err)
	m, err := testkit.NewSEMGenerator(cfg).Generate()
	require.NoError(t, err)

	run := func(workers int) (*graph.Graph, *graph.SepsetTable) {
		p := causal.DefaultParams()
		p.Workers = workers
		g, sepsets, err := New(citest.NewFisherZ(m, quiet), p, nil, quiet).Search(context.Background(), m.Names)
		require.NoError(t, err)
		return g, sepsets
	}

	g1, s1 := run(1)
	g4, s4 := run(4)
	assert.Equal(t, g1.String(), g4.String())
	assert.Equal(t, s1.Pairs(), s4.Pairs())
	for _, pair := range s1.Pairs() {
		a, _ := s1.Get(pair[0], pair[1])
		b, _ := s4.Get(pair[0], pair[1])
		assert.Equal(t, a.Given, b.Given)
	}
	assertSepsetInvariant(t, g4, s4)
}

func TestSearchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := New(scriptedOracle{}, params(causal.Unlimited), nil, quiet).Search(ctx, []string{"A", "B"})
	assert.ErrorIs(t, err, context.Canceled)
}
