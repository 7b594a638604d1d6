package citest

import (
	"sync"
	"testing"

	"gocausal/domain/dataset"
	"gocausal/internal"
	"gocausal/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

var quiet = internal.NewLogger(internal.LogLevelError)

func chainOracle(t *testing.T) *FisherZ {
	t.Helper()
	cfg, err := testkit.Preset(testkit.PresetChain)
	require.NoError(t, err)
	m, err := testkit.NewSEMGenerator(cfg).Generate()
	require.NoError(t, err)
	return NewFisherZ(m, quiet)
}

func TestFisherZChain(t *testing.T) {
	const x, y, z = 0, 1, 2
	o := chainOracle(t)

	assert.Less(t, o.PValue(x, z, nil), 1e-6, "X and Z are directly linked")
	assert.Less(t, o.PValue(x, y, nil), 1e-6, "X and Y are marginally dependent")
	assert.Greater(t, o.PValue(x, y, []int{z}), 0.001, "Z separates X and Y")
}

func TestFisherZCache(t *testing.T) {
	o := chainOracle(t)

	first := o.PValue(0, 1, []int{2})
	second := o.PValue(1, 0, []int{2})
	assert.Equal(t, first, second)

	o.PValue(0, 2, nil)
	stats := o.Stats()
	assert.Equal(t, 3, stats.Queries)
	assert.Equal(t, 2, stats.Evaluations)
	assert.Equal(t, 1, stats.CacheHits)
	assert.Equal(t, 0, stats.Degenerate)
	assert.Equal(t, 1000, stats.Observations)
}

func TestFisherZOrderIndependent(t *testing.T) {
	cfg, err := testkit.Preset(testkit.PresetLatent)
	require.NoError(t, err)
	m, err := testkit.NewSEMGenerator(cfg).Generate()
	require.NoError(t, err)

	a := NewFisherZ(m, quiet).PValue(0, 3, []int{1, 2})
	b := NewFisherZ(m, quiet).PValue(3, 0, []int{2, 1})
	assert.InDelta(t, a, b, 1e-9)
}

func TestFisherZSingularSubMatrix(t *testing.T) {
	// X2 duplicates X1.
	corr := mat.NewSymDense(3, []float64{
		1, 1, 0,
		1, 1, 0,
		0, 0, 1,
	})
	o := NewFisherZFromCorrelation(corr, 100, quiet)

	assert.NotPanics(t, func() {
		assert.Equal(t, 0.0, o.PValue(0, 2, []int{1}))
		assert.Equal(t, 0.0, o.PValue(0, 1, nil))
	})
	assert.Equal(t, 2, o.Stats().Degenerate)
}

func TestFisherZDegreesOfFreedom(t *testing.T) {
	identity := mat.NewSymDense(4, []float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	})
	o := NewFisherZFromCorrelation(identity, 5, quiet)

	assert.InDelta(t, 1.0, o.PValue(0, 1, nil), 1e-12)
	assert.Equal(t, 0.0, o.PValue(0, 1, []int{2, 3}), "5 - 2 - 3 leaves no degrees of freedom")
	assert.Equal(t, 1, o.Stats().Degenerate)
}

func TestFisherZConstantColumn(t *testing.T) {
	rows := [][]float64{{1, 5, 2}, {2, 5, 1}, {3, 5, 4}, {4, 5, 3}, {5, 5, 6}, {6, 5, 5}}
	m, err := dataset.NewMatrix([]string{"A", "K", "B"}, rows)
	require.NoError(t, err)
	o := NewFisherZ(m, quiet)

	assert.Equal(t, 0.0, o.PValue(0, 1, nil))
	assert.Equal(t, 0.0, o.PValue(0, 2, []int{1}))
	assert.Greater(t, o.PValue(0, 2, nil), 0.0)
}

func TestFisherZConcurrentQueries(t *testing.T) {
	o := chainOracle(t)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				o.PValue(0, 1, []int{2})
				o.PValue(2, 1, nil)
			}
		}()
	}
	wg.Wait()

	stats := o.Stats()
	assert.Equal(t, 800, stats.Queries)
	assert.Equal(t, 2, stats.Evaluations)
	assert.LessOrEqual(t, stats.CacheHits, 798)
	assert.GreaterOrEqual(t, stats.CacheHits, 800-16)
}

func TestNewFisherZCorrelatesColumns(t *testing.T) {
	m, err := dataset.NewMatrix([]string{"X", "Y", "W"}, [][]float64{
		{1, 2, 4},
		{2, 4, 3},
		{3, 6, 2},
		{4, 8, 1},
	})
	require.NoError(t, err)

	o := NewFisherZ(m, quiet)
	require.NotNil(t, o.corr)
	assert.Equal(t, 3, o.corr.SymmetricDim())
	assert.InDelta(t, 1, o.corr.At(0, 0), 1e-12)
	assert.InDelta(t, 1, o.corr.At(0, 1), 1e-12)
	assert.InDelta(t, -1, o.corr.At(0, 2), 1e-12)
	assert.Equal(t, []string{"X", "Y", "W"}, o.names)
}
