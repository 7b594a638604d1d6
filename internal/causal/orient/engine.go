// Package orient turns a skeleton into a PAG.
//
// Orientation runs in three steps: unshielded colliders (R0) on a fresh set of circle
// marks, possible-D-SEP pruning followed by a second R0, and a fixpoint over Zhang's
// rules R1 to R10. Marks only ever tighten; the oracle is consulted again by the
// pruning step and by R4.
package orient

import (
	"context"
	"fmt"

	"gocausal/domain/causal"
	"gocausal/internal"
	"gocausal/internal/causal/citest"
	"gocausal/internal/causal/graph"
)

// PassHook observes the graph after every fixpoint pass.
type PassHook func(pass int, g *graph.Graph)

// Engine orients a skeleton in place.
type Engine struct {
	oracle    citest.Oracle
	params    causal.Params
	knowledge *causal.Constraints
	logger    *internal.Logger
	hook      PassHook
}

// New creates an engine. knowledge may be nil.
func New(oracle citest.Oracle, params causal.Params, knowledge *causal.Constraints, logger *internal.Logger) *Engine {
	return &Engine{
		oracle:    oracle,
		params:    params,
		knowledge: knowledge,
		logger:    internal.OrDefault(logger).With("orient"),
	}
}

// WithPassHook sets a hook called after every fixpoint pass.
func (e *Engine) WithPassHook(hook PassHook) *Engine {
	e.hook = hook
	return e
}

// Summary counts what an orientation run did.
type Summary struct {
	PossibleDSepRemovals int
	Passes               int
	Conflicts            int
}

// Run orients g. Edges removed by possible-D-SEP pruning get their sepset recorded.
// On return g is flagged as a PAG.
func (e *Engine) Run(ctx context.Context, g *graph.Graph, sepsets *graph.SepsetTable) (Summary, error) {
	var sum Summary

	e.Initialize(g, sepsets)

	removed, err := e.PrunePossibleDSep(ctx, g, sepsets)
	if err != nil {
		return sum, err
	}
	sum.PossibleDSepRemovals = removed
	e.Initialize(g, sepsets)

	passes, err := e.Fixpoint(ctx, g, sepsets)
	if err != nil {
		return sum, err
	}
	sum.Passes = passes
	sum.Conflicts = g.Conflicts()

	e.logger.Info("oriented %d edges in %d passes (%d removed by possible-D-SEP, %d refused orientations)",
		g.NumEdges(), passes, removed, sum.Conflicts)
	return sum, nil
}

// Initialize resets every mark to circle, applies background knowledge and orients
// unshielded colliders.
func (e *Engine) Initialize(g *graph.Graph, sepsets *graph.SepsetTable) {
	g.ResetMarks()
	r := e.newRun(g, sepsets)
	r.applyKnowledge()
	r.rule0()
}

// Fixpoint applies the rule list until a full pass changes nothing, then flags g as a
// PAG. It returns the number of passes, counting the final quiet one.
func (e *Engine) Fixpoint(ctx context.Context, g *graph.Graph, sepsets *graph.SepsetTable) (int, error) {
	r := e.newRun(g, sepsets)
	for pass := 1; ; pass++ {
		if err := ctx.Err(); err != nil {
			return pass - 1, fmt.Errorf("orientation pass %d: %w", pass, err)
		}

		early := r.ruleR1R2Cycle()
		early = r.ruleR3() || early

		changed := early
		if pass == 1 || early {
			changed = r.ruleR4() || changed
		}
		changed = r.ruleR5() || changed
		changed = r.ruleR6() || changed
		changed = r.ruleR7() || changed
		changed = r.ruleR8() || changed
		changed = r.ruleR9() || changed
		changed = r.ruleR10() || changed

		if e.hook != nil {
			e.hook(pass, g)
		}
		if !changed {
			g.SetPAG()
			return pass, nil
		}
	}
}

func (e *Engine) newRun(g *graph.Graph, sepsets *graph.SepsetTable) *run {
	return &run{e: e, g: g, sepsets: sepsets}
}

// run carries the graph through one orientation step.
type run struct {
	e       *Engine
	g       *graph.Graph
	sepsets *graph.SepsetTable
}

// allowed reports whether mark m may be placed at b on the edge a–b.
func (r *run) allowed(a, b int, m causal.Endpoint) bool {
	cur := r.g.Mark(a, b)
	if cur != causal.EndpointCircle && cur != m {
		return false
	}
	switch m {
	case causal.EndpointArrow:
		return !r.e.knowledge.IsRequired(b, a)
	case causal.EndpointTail:
		return !r.e.knowledge.IsForbidden(b, a)
	}
	return false
}

// set places mark m at b on the edge a–b and logs the change.
func (r *run) set(rule string, a, b int, m causal.Endpoint) bool {
	if !r.allowed(a, b, m) {
		return false
	}
	if !r.g.Orient(a, b, m) {
		return false
	}
	r.e.logger.Detail(r.e.params.Verbose, "%s: %s", rule, r.describe(a, b))
	return true
}

func (r *run) describe(a, b int) string {
	left := map[causal.Endpoint]string{causal.EndpointArrow: "<", causal.EndpointCircle: "o", causal.EndpointTail: "-"}
	right := map[causal.Endpoint]string{causal.EndpointArrow: ">", causal.EndpointCircle: "o", causal.EndpointTail: "-"}
	return fmt.Sprintf("%s %s-%s %s", r.g.Name(a), left[r.g.Mark(b, a)], right[r.g.Mark(a, b)], r.g.Name(b))
}

// applyKnowledge marks forbidden and required directions on existing edges.
func (r *run) applyKnowledge() {
	k := r.e.knowledge
	if k == nil {
		return
	}
	for _, edge := range r.g.Edges() {
		for _, dir := range [][2]int{{edge.A, edge.B}, {edge.B, edge.A}} {
			from, to := dir[0], dir[1]
			if k.IsRequired(from, to) {
				r.set("knowledge", to, from, causal.EndpointTail)
				r.set("knowledge", from, to, causal.EndpointArrow)
			} else if k.IsForbidden(from, to) {
				r.set("knowledge", to, from, causal.EndpointArrow)
			}
		}
	}
}

// rule0 orients every unshielded triple x *-o z o-* y with z outside sepset(x, y) as
// x *-> z <-* y.
func (r *run) rule0() bool {
	g := r.g
	changed := false
	for z := 0; z < g.NumNodes(); z++ {
		adj := g.Adjacent(z)
		for i, x := range adj {
			for _, y := range adj[i+1:] {
				if g.IsAdjacent(x, y) || r.sepsets.Separates(x, y, z) {
					continue
				}
				if !r.allowed(x, z, causal.EndpointArrow) || !r.allowed(y, z, causal.EndpointArrow) {
					continue
				}
				a := r.set("R0", x, z, causal.EndpointArrow)
				b := r.set("R0", y, z, causal.EndpointArrow)
				changed = a || b || changed
			}
		}
	}
	return changed
}
