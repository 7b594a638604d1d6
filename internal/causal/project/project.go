// Package project turns a finished graph into the edge list callers consume.
package project

import (
	"gocausal/domain/causal"
	"gocausal/internal/causal/graph"
)

// Edges classifies every edge of g. vars must be indexed like the graph's nodes.
//
// Directed edges are reported tail first and partially directed ones circle first;
// everything else keeps index order. Only a directed edge can be no-latent (the edge is
// visible) or definitely direct (no other semi-directed path joins its tail to its head).
func Edges(g *graph.Graph, vars []causal.Variable) []causal.ProjectedEdge {
	edges := g.Edges()
	out := make([]causal.ProjectedEdge, 0, len(edges))
	for _, e := range edges {
		from, to := e.A, e.B
		markFrom, markTo := e.MarkA, e.MarkB
		if markFrom == causal.EndpointArrow && (markTo == causal.EndpointTail || markTo == causal.EndpointCircle) {
			from, to = to, from
			markFrom, markTo = markTo, markFrom
		}

		pe := causal.ProjectedEdge{
			From:     vars[from],
			To:       vars[to],
			MarkFrom: markFrom,
			MarkTo:   markTo,
			Label:    causal.LabelFor(markFrom, markTo),
		}
		if pe.Label == causal.LabelDirected {
			pe.NoLatent = g.IsVisible(from, to)
			pe.DefinitelyDirect = !g.HasOtherSemiDirectedPath(from, to)
		}
		out = append(out, pe)
	}
	return out
}

// Separations lists the recorded sepsets by name, in pair order.
func Separations(sepsets *graph.SepsetTable, vars []causal.Variable) []causal.Separation {
	pairs := sepsets.Pairs()
	out := make([]causal.Separation, 0, len(pairs))
	for _, p := range pairs {
		s, _ := sepsets.Get(p[0], p[1])
		given := make([]string, len(s.Given))
		for i, z := range s.Given {
			given[i] = vars[z].Name
		}
		out = append(out, causal.Separation{
			X:      vars[p[0]].Name,
			Y:      vars[p[1]].Name,
			Given:  given,
			PValue: s.PValue,
			Phase:  s.Phase,
		})
	}
	return out
}

// PAG assembles the projected result of a finished graph.
func PAG(g *graph.Graph, sepsets *graph.SepsetTable, vars []causal.Variable, stats causal.OracleStats) *causal.PAG {
	return &causal.PAG{
		Nodes:       append([]causal.Variable(nil), vars...),
		Edges:       Edges(g, vars),
		Separations: Separations(sepsets, vars),
		Oracle:      stats,
		Oriented:    g.IsPAG(),
	}
}
