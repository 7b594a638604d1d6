package testkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func TestPresetsGenerate(t *testing.T) {
	for _, name := range PresetNames() {
		t.Run(name, func(t *testing.T) {
			cfg, err := Preset(name)
			require.NoError(t, err)

			m, err := NewSEMGenerator(cfg).Generate()
			require.NoError(t, err)

			rows, cols := m.Dims()
			assert.Equal(t, cfg.Observations, rows)
			assert.Equal(t, len(cfg.Variables)-len(cfg.Hidden), cols)
			assert.NotContains(t, m.Names, "L")
		})
	}

	_, err := Preset("spiral")
	assert.Error(t, err)
}

func TestGenerateIsDeterministic(t *testing.T) {
	cfg, err := Preset(PresetChain)
	require.NoError(t, err)

	a, err := NewSEMGenerator(cfg).Generate()
	require.NoError(t, err)
	b, err := NewSEMGenerator(cfg).Generate()
	require.NoError(t, err)

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	cfg.Seed = 7
	c, err := NewSEMGenerator(cfg).Generate()
	require.NoError(t, err)
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}

func TestChainCorrelations(t *testing.T) {
	cfg, err := Preset(PresetChain)
	require.NoError(t, err)
	m, err := NewSEMGenerator(cfg).Generate()
	require.NoError(t, err)

	// X -> Z -> Y with weight 0.8: corr(X, Z) is about 0.62.
	xz := stat.Correlation(m.Column(0), m.Column(2), nil)
	assert.InDelta(t, 0.62, xz, 0.08)
}

func TestGenerateRejectsBadModels(t *testing.T) {
	tests := map[string]SEMConfig{
		"cycle": {
			Variables:    []string{"A", "B"},
			Links:        []Link{{"A", "B", 1}, {"B", "A", 1}},
			Observations: 10,
		},
		"unknown variable": {
			Variables:    []string{"A"},
			Links:        []Link{{"A", "Q", 1}},
			Observations: 10,
		},
		"too few rows": {
			Variables:    []string{"A"},
			Observations: 1,
		},
		"unknown hidden": {
			Variables:    []string{"A", "B"},
			Hidden:       []string{"C"},
			Observations: 10,
		},
	}
	for name, cfg := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewSEMGenerator(cfg).Generate()
			assert.Error(t, err)
		})
	}
}
