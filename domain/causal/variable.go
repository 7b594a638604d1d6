package causal

import (
	"fmt"
	"strings"
)

// Variable is one column of the data matrix.
type Variable struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}

// DefaultNames generates X1..Xm
func DefaultNames(m int) []string {
	names := make([]string, m)
	for i := range names {
		names[i] = fmt.Sprintf("X%d", i+1)
	}
	return names
}

// NewVariables assigns indices to names. Names must be non-empty and unique.
func NewVariables(names []string) ([]Variable, error) {
	seen := make(map[string]int, len(names))
	vars := make([]Variable, len(names))
	for i, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("variable %d has an empty name", i+1)
		}
		if prev, dup := seen[name]; dup {
			return nil, fmt.Errorf("variable name %q used by columns %d and %d", name, prev+1, i+1)
		}
		seen[name] = i
		vars[i] = Variable{Index: i, Name: name}
	}
	return vars, nil
}
