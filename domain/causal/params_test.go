package causal

import (
	"encoding/json"
	"errors"
	"testing"

	"gocausal/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLimit(t *testing.T) {
	tests := []struct {
		input    string
		expected Limit
		hasError bool
	}{
		{"", Unlimited, false},
		{"unlimited", Unlimited, false},
		{"UNLIMITED", Unlimited, false},
		{"-1", Unlimited, false},
		{"0", 0, false},
		{" 3 ", 3, false},
		{"2.5", 0, true},
		{"-2", 0, true},
		{"deep", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseLimit(tt.input)
		if tt.hasError {
			assert.Error(t, err, "input %q", tt.input)
			continue
		}
		require.NoError(t, err, "input %q", tt.input)
		assert.Equal(t, tt.expected, got, "input %q", tt.input)
	}
}

func TestLimitAllows(t *testing.T) {
	assert.True(t, Unlimited.Allows(1000))
	assert.True(t, Limit(2).Allows(2))
	assert.False(t, Limit(2).Allows(3))
	assert.Equal(t, "unlimited", Unlimited.String())
	assert.Equal(t, "4", Limit(4).String())
}

func TestLimitJSON(t *testing.T) {
	var p struct {
		Depth Limit `json:"depth"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"depth": 2}`), &p))
	assert.Equal(t, Limit(2), p.Depth)

	require.NoError(t, json.Unmarshal([]byte(`{"depth": "unlimited"}`), &p))
	assert.Equal(t, Unlimited, p.Depth)

	require.NoError(t, json.Unmarshal([]byte(`{"depth": -1}`), &p))
	assert.Equal(t, Unlimited, p.Depth)

	assert.Error(t, json.Unmarshal([]byte(`{"depth": 1.5}`), &p))
	assert.Error(t, json.Unmarshal([]byte(`{"depth": "two"}`), &p))
	assert.Error(t, json.Unmarshal([]byte(`{"depth": true}`), &p))
	assert.Error(t, json.Unmarshal([]byte(`{"depth": -3}`), &p))

	out, err := json.Marshal(struct {
		A Limit `json:"a"`
		B Limit `json:"b"`
	}{Unlimited, 3})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"unlimited","b":3}`, string(out))
}

func TestParamsValidate(t *testing.T) {
	names := []string{"A", "B", "C"}

	tests := []struct {
		name   string
		mutate func(p *Params)
		field  string
	}{
		{"defaults", func(p *Params) {}, ""},
		{"alpha zero accepted", func(p *Params) { p.Alpha = 0 }, ""},
		{"alpha one rejected", func(p *Params) { p.Alpha = 1 }, "alpha"},
		{"alpha negative rejected", func(p *Params) { p.Alpha = -0.1 }, "alpha"},
		{"depth below -1", func(p *Params) { p.Depth = -2 }, "depth"},
		{"path length below -1", func(p *Params) { p.MaxPathLength = -5 }, "max_path_length"},
		{"negative workers", func(p *Params) { p.Workers = -1 }, "workers"},
		{"unknown knowledge variable", func(p *Params) {
			p.Knowledge = &BackgroundKnowledge{Required: []EdgeSpec{{From: "A", To: "Z"}}}
		}, "knowledge"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			err := p.Validate(names)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, core.IsValidationError(err))
			if tt.field == "knowledge" {
				assert.True(t, errors.Is(err, core.ErrInvalidKnowledge))
			} else {
				assert.True(t, errors.Is(err, core.ErrInvalidParameter))
				assert.Contains(t, err.Error(), tt.field)
			}
		})
	}
}

func TestParamsIndependent(t *testing.T) {
	p := DefaultParams()
	assert.True(t, p.Independent(0.05))
	assert.True(t, p.Independent(0.5))
	assert.False(t, p.Independent(0.049))

	p.Alpha = 0
	assert.False(t, p.Independent(1))
	assert.False(t, p.Independent(0))
}
