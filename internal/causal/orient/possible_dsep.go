package orient

import (
	"context"
	"fmt"
	"strings"

	"gocausal/domain/causal"
	"gocausal/internal/causal/graph"
)

// PrunePossibleDSep removes edges whose endpoints are separated by a subset of
// Possible-D-SEP that the adjacency search could not have tried. g must carry R0 marks.
// It returns the number of edges removed.
func (e *Engine) PrunePossibleDSep(ctx context.Context, g *graph.Graph, sepsets *graph.SepsetTable) (int, error) {
	removed := 0
	for _, edge := range g.Edges() {
		if err := ctx.Err(); err != nil {
			return removed, fmt.Errorf("possible-D-SEP pruning: %w", err)
		}
		if e.knowledge.IsRequiredAdjacency(edge.A, edge.B) {
			continue
		}

		for _, dir := range [][2]int{{edge.A, edge.B}, {edge.B, edge.A}} {
			given, p, ok := e.separateWithin(g, dir[0], dir[1])
			if !ok {
				continue
			}
			if err := g.RemoveEdge(edge.A, edge.B); err != nil {
				return removed, err
			}
			if err := sepsets.Record(edge.A, edge.B, given, p, causal.PhasePossibleDSep); err != nil {
				return removed, err
			}
			removed++
			e.logger.Detail(e.params.Verbose, "possible-D-SEP removed %s - %s | {%s} p=%.4g",
				g.Name(edge.A), g.Name(edge.B), names(g, given), p)
			break
		}
	}
	e.logger.Info("possible-D-SEP pruning removed %d edges", removed)
	return removed, nil
}

// separateWithin looks for a subset of Possible-D-SEP(a, b) that makes a and b
// independent, by increasing size. Subsets inside adj(a) or adj(b) are skipped.
func (e *Engine) separateWithin(g *graph.Graph, a, b int) ([]int, float64, bool) {
	pds := g.PossibleDSep(a, b, e.params.MaxPathLength)
	if len(pds) == 0 {
		return nil, 0, false
	}
	adjA := graph.Without(g.Adjacent(a), b)
	adjB := graph.Without(g.Adjacent(b), a)

	var given []int
	var pValue float64
	found := false
	for size := 1; size <= len(pds) && e.params.Depth.Allows(size); size++ {
		graph.ForEachSubset(pds, size, func(z []int) bool {
			if subsetOf(z, adjA) || subsetOf(z, adjB) {
				return true
			}
			p := e.oracle.PValue(a, b, z)
			if e.params.Independent(p) {
				given = append([]int{}, z...)
				pValue = p
				found = true
				return false
			}
			return true
		})
		if found {
			break
		}
	}
	return given, pValue, found
}

func subsetOf(z, set []int) bool {
	for _, v := range z {
		in := false
		for _, s := range set {
			if s == v {
				in = true
				break
			}
		}
		if !in {
			return false
		}
	}
	return true
}

func names(g *graph.Graph, nodes []int) string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = g.Name(n)
	}
	return strings.Join(out, ", ")
}
