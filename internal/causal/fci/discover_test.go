package fci

import (
	"context"
	"math"
	"testing"

	"gocausal/domain/causal"
	"gocausal/domain/core"
	"gocausal/domain/dataset"
	"gocausal/internal"
	"gocausal/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

var quiet = internal.NewLogger(internal.LogLevelError)

func presetMatrix(t *testing.T, name string) *dataset.Matrix {
	t.Helper()
	cfg, err := testkit.Preset(name)
	require.NoError(t, err)
	m, err := testkit.NewSEMGenerator(cfg).Generate()
	require.NoError(t, err)
	return m
}

func TestDiscoverDeterministic(t *testing.T) {
	m := presetMatrix(t, testkit.PresetLatent)

	p := causal.DefaultParams()
	first, err := Discover(context.Background(), m, p, quiet)
	require.NoError(t, err)

	p.Workers = 4
	second, err := Discover(context.Background(), m, p, quiet)
	require.NoError(t, err)

	assert.Equal(t, first.PAG.Text(), second.PAG.Text())
	assert.Equal(t, first.PAG.Fingerprint(), second.PAG.Fingerprint())
	assert.True(t, first.PAG.Oriented)
}

func TestDiscoverColliderScenario(t *testing.T) {
	m := presetMatrix(t, testkit.PresetAverage)

	p := causal.DefaultParams()
	p.Alpha = 0.01
	res, err := Discover(context.Background(), m, p, quiet)
	require.NoError(t, err)

	into := res.PAG.EdgesTouching("Z", true)
	assert.Len(t, into, 2, res.PAG.Text())
	require.Len(t, res.PAG.Separations, 1)
	assert.Empty(t, res.PAG.Separations[0].Given)
}

func TestDiscoverChainScenario(t *testing.T) {
	m := presetMatrix(t, testkit.PresetChain)

	p := causal.DefaultParams()
	p.Alpha = 0.01
	res, err := Discover(context.Background(), m, p, quiet)
	require.NoError(t, err)

	assert.Equal(t, "1. X o-o Z pd pl\n2. Y o-o Z pd pl\n", res.PAG.Text())
	require.Len(t, res.PAG.Separations, 1)
	assert.Equal(t, []string{"Z"}, res.PAG.Separations[0].Given)
	assert.Equal(t, 2, res.SkeletonEdges)
}

func TestDiscoverAlphaZero(t *testing.T) {
	m := presetMatrix(t, testkit.PresetChain)

	p := causal.DefaultParams()
	p.Alpha = 0
	res, err := Discover(context.Background(), m, p, quiet)
	require.NoError(t, err)

	assert.Len(t, res.PAG.Edges, 3)
	assert.Empty(t, res.PAG.Separations)
}

func TestDiscoverRejectsBadInput(t *testing.T) {
	m := presetMatrix(t, testkit.PresetChain)

	p := causal.DefaultParams()
	p.Alpha = 1
	_, err := Discover(context.Background(), m, p, quiet)
	assert.ErrorIs(t, err, core.ErrInvalidParameter)

	p = causal.DefaultParams()
	p.Knowledge = &causal.BackgroundKnowledge{Required: []causal.EdgeSpec{{From: "X", To: "Q"}}}
	_, err = Discover(context.Background(), m, p, quiet)
	assert.ErrorIs(t, err, core.ErrInvalidKnowledge)

	holed := &dataset.Matrix{Names: []string{"A", "B"}, Data: mat.NewDense(3, 2, []float64{1, 2, math.NaN(), 4, 5, 6})}
	_, err = Discover(context.Background(), holed, causal.DefaultParams(), quiet)
	assert.ErrorIs(t, err, core.ErrMissingValue)
}

func TestDiscoverFewObservations(t *testing.T) {
	rows := [][]float64{
		{1, 2, 3, 4, 5},
		{2, 1, 4, 3, 6},
		{3, 5, 1, 2, 4},
	}
	m, err := dataset.NewMatrix(nil, rows)
	require.NoError(t, err)

	var res *Result
	assert.NotPanics(t, func() {
		res, err = Discover(context.Background(), m, causal.DefaultParams(), quiet)
	})
	require.NoError(t, err)
	assert.Len(t, res.PAG.Edges, 10, "every test is degenerate, so no edge is removed")
	assert.Equal(t, res.PAG.Oracle.Evaluations, res.PAG.Oracle.Degenerate)
}

func TestDiscoverCancelled(t *testing.T) {
	m := presetMatrix(t, testkit.PresetChain)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Discover(ctx, m, causal.DefaultParams(), quiet)
	assert.ErrorIs(t, err, context.Canceled)
}
