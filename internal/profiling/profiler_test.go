package profiling

import (
	"math"
	"testing"

	"gocausal/domain/dataset"
	"gocausal/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileGaussianMatrix(t *testing.T) {
	cfg, err := testkit.Preset(testkit.PresetChain)
	require.NoError(t, err)
	m, err := testkit.NewSEMGenerator(cfg).Generate()
	require.NoError(t, err)

	p, err := NewDataProfiler().ProfileMatrix(m)
	require.NoError(t, err)

	assert.Equal(t, 1000, p.Observations)
	assert.Equal(t, 3, p.Variables)
	require.Len(t, p.Columns, 3)
	assert.InDelta(t, 0, p.Columns[0].Mean, 0.15)
	assert.InDelta(t, 1, p.Columns[0].StdDev, 0.15)
	assert.False(t, p.Columns[0].Constant)
}

func TestProfileWarnings(t *testing.T) {
	rows := [][]float64{{1, 7, 1}, {2, 7, 4}, {3, 7, 9}}
	m, err := dataset.NewMatrix([]string{"A", "K", "B"}, rows)
	require.NoError(t, err)

	p, err := NewDataProfiler().ProfileMatrix(m)
	require.NoError(t, err)

	require.Len(t, p.Warnings, 2)
	assert.Contains(t, p.Warnings[0], "3 observations for 3 variables")
	assert.Contains(t, p.Warnings[1], `"K" is constant`)
	assert.True(t, p.Columns[1].Constant)
}

func TestAnalyzeColumnSkewed(t *testing.T) {
	data := make([]float64, 500)
	for i := range data {
		data[i] = math.Exp(float64(i) / 50)
	}

	s, err := NewDistributionAnalyzer().AnalyzeColumn("exp", data)
	require.NoError(t, err)
	assert.Greater(t, s.Skewness, 1.0)
	assert.Less(t, s.NormalP, NonNormalThreshold)
	assert.Greater(t, s.Outliers, 0)
}

func TestProfileTinySample(t *testing.T) {
	m, err := dataset.NewMatrix([]string{"A", "B", "C"}, [][]float64{{1, 5, 2}, {3, 5, 8}})
	require.NoError(t, err)

	p, err := NewDataProfiler().ProfileMatrix(m)
	require.NoError(t, err)

	require.Len(t, p.Columns, 3)
	assert.Contains(t, p.Warnings[0], "2 observations for 3 variables")
	assert.Contains(t, p.Warnings, `column "B" is constant: every test involving it returns p=0`)
	assert.Equal(t, 1.0, p.Columns[0].Q25)
	assert.Equal(t, 3.0, p.Columns[0].Q75)
}
