package causal

import (
	"fmt"

	"gocausal/domain/core"
)

// EdgeSpec names a directed relation between two variables.
type EdgeSpec struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// BackgroundKnowledge expresses what is known before looking at data.
//
// Forbidden{From: a, To: b} states a is not a cause of b. Required{From: a, To: b}
// states a causes b. Tiers orders variables in time: nothing in a later tier causes
// anything in an earlier one. Variables not listed in any tier are unconstrained.
type BackgroundKnowledge struct {
	Forbidden []EdgeSpec `json:"forbidden,omitempty"`
	Required  []EdgeSpec `json:"required,omitempty"`
	Tiers     [][]string `json:"tiers,omitempty"`
}

// IsEmpty reports whether the knowledge constrains nothing
func (bk *BackgroundKnowledge) IsEmpty() bool {
	return bk == nil || (len(bk.Forbidden) == 0 && len(bk.Required) == 0 && len(bk.Tiers) == 0)
}

// Constraints is background knowledge resolved against variable indices.
// A nil *Constraints permits everything.
type Constraints struct {
	forbidden map[[2]int]bool
	required  map[[2]int]bool
	tier      map[int]int
}

// Compile resolves names to indices and rejects knowledge that names unknown
// variables or contradicts itself.
func (bk *BackgroundKnowledge) Compile(names []string) (*Constraints, error) {
	if bk.IsEmpty() {
		return nil, nil
	}

	index := make(map[string]int, len(names))
	for i, n := range names {
		index[n] = i
	}
	resolve := func(kind string, spec EdgeSpec) ([2]int, error) {
		from, ok := index[spec.From]
		if !ok {
			return [2]int{}, core.NewKnowledgeError(fmt.Sprintf("%s edge %s -> %s: %v %q", kind, spec.From, spec.To, core.ErrVariableNotFound, spec.From))
		}
		to, ok := index[spec.To]
		if !ok {
			return [2]int{}, core.NewKnowledgeError(fmt.Sprintf("%s edge %s -> %s: %v %q", kind, spec.From, spec.To, core.ErrVariableNotFound, spec.To))
		}
		if from == to {
			return [2]int{}, core.NewKnowledgeError(fmt.Sprintf("%s edge %s -> %s is a self loop", kind, spec.From, spec.To))
		}
		return [2]int{from, to}, nil
	}

	c := &Constraints{
		forbidden: make(map[[2]int]bool),
		required:  make(map[[2]int]bool),
		tier:      make(map[int]int),
	}

	for t, members := range bk.Tiers {
		for _, name := range members {
			i, ok := index[name]
			if !ok {
				return nil, core.NewKnowledgeError(fmt.Sprintf("tier %d: %v %q", t, core.ErrVariableNotFound, name))
			}
			if prev, dup := c.tier[i]; dup {
				return nil, core.NewKnowledgeError(fmt.Sprintf("variable %q listed in tiers %d and %d", name, prev, t))
			}
			c.tier[i] = t
		}
	}
	for _, spec := range bk.Forbidden {
		key, err := resolve("forbidden", spec)
		if err != nil {
			return nil, err
		}
		c.forbidden[key] = true
	}
	for _, spec := range bk.Required {
		key, err := resolve("required", spec)
		if err != nil {
			return nil, err
		}
		if c.IsForbidden(key[0], key[1]) {
			return nil, core.NewKnowledgeError(fmt.Sprintf("edge %s -> %s is both required and forbidden", spec.From, spec.To))
		}
		if c.required[[2]int{key[1], key[0]}] {
			return nil, core.NewKnowledgeError(fmt.Sprintf("edges %s -> %s and %s -> %s are both required", spec.From, spec.To, spec.To, spec.From))
		}
		c.required[key] = true
	}
	return c, nil
}

// IsForbidden reports whether from may not cause to, explicitly or through tiers
func (c *Constraints) IsForbidden(from, to int) bool {
	if c == nil {
		return false
	}
	if c.forbidden[[2]int{from, to}] {
		return true
	}
	tf, okFrom := c.tier[from]
	tt, okTo := c.tier[to]
	return okFrom && okTo && tf > tt
}

// IsRequired reports whether from must cause to
func (c *Constraints) IsRequired(from, to int) bool {
	if c == nil {
		return false
	}
	return c.required[[2]int{from, to}]
}

// IsRequiredAdjacency reports whether a and b must stay adjacent
func (c *Constraints) IsRequiredAdjacency(a, b int) bool {
	return c.IsRequired(a, b) || c.IsRequired(b, a)
}

// IsForbiddenAdjacency reports whether neither direction between a and b is allowed
func (c *Constraints) IsForbiddenAdjacency(a, b int) bool {
	return c.IsForbidden(a, b) && c.IsForbidden(b, a)
}
