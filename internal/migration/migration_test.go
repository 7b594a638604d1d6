package migration

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatementsOrder(t *testing.T) {
	steps := Statements()
	assert.GreaterOrEqual(t, len(steps), 2)
	assert.Contains(t, steps[0].SQL, "discovery_runs (")
	assert.Contains(t, steps[1].SQL, "REFERENCES discovery_runs(id)")
	assert.False(t, steps[0].Optional)
	assert.False(t, steps[1].Optional)

	for _, s := range steps[2:] {
		assert.True(t, s.Optional, s.Name)
		assert.True(t, strings.HasPrefix(s.SQL, "CREATE INDEX IF NOT EXISTS"), s.Name)
	}
}

func TestRunnerVersion(t *testing.T) {
	assert.Equal(t, "1.0.0", NewRunner(nil).Version())
}
