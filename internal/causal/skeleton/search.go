// Package skeleton prunes a complete graph down to the adjacencies no conditioning set
// could explain away.
package skeleton

import (
	"context"
	"fmt"
	"strings"

	"gocausal/domain/causal"
	"gocausal/internal"
	"gocausal/internal/causal/citest"
	"gocausal/internal/causal/graph"

	"golang.org/x/sync/errgroup"
)

// Searcher runs the order-independent adjacency search.
//
// At depth d every remaining edge x–y is tested against subsets of size d of the
// neighbours of x (then of y) as they stood when the depth started. Pairs within one
// depth are evaluated independently, on up to Workers goroutines, and removals are
// applied after the depth in ascending pair order, so the result does not depend on
// scheduling.
type Searcher struct {
	oracle    citest.Oracle
	params    causal.Params
	knowledge *causal.Constraints
	logger    *internal.Logger
}

// New creates a searcher. knowledge may be nil.
func New(oracle citest.Oracle, params causal.Params, knowledge *causal.Constraints, logger *internal.Logger) *Searcher {
	return &Searcher{
		oracle:    oracle,
		params:    params,
		knowledge: knowledge,
		logger:    internal.OrDefault(logger).With("skeleton"),
	}
}

// removal is the outcome of testing one pair at one depth.
type removal struct {
	x, y   int
	given  []int
	pValue float64
	found  bool
}

// Search returns the skeleton over names and the separating set of every removed edge.
func (s *Searcher) Search(ctx context.Context, names []string) (*graph.Graph, *graph.SepsetTable, error) {
	g := graph.NewComplete(names)
	sepsets := graph.NewSepsetTable()

	if err := s.applyKnowledge(g, sepsets); err != nil {
		return nil, nil, err
	}

	for d := 0; s.params.Depth.Allows(d) && d <= g.MaxDegree()-1; d++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		removals, err := s.searchDepth(ctx, g, d)
		if err != nil {
			return nil, nil, err
		}

		removed := 0
		for _, r := range removals {
			if !r.found {
				continue
			}
			if err := g.RemoveEdge(r.x, r.y); err != nil {
				return nil, nil, err
			}
			if err := sepsets.Record(r.x, r.y, r.given, r.pValue, causal.PhaseAdjacency); err != nil {
				return nil, nil, err
			}
			removed++
			s.logger.Detail(s.params.Verbose, "removed %s - %s | {%s} p=%.4g",
				g.Name(r.x), g.Name(r.y), joinNames(g, r.given), r.pValue)
		}
		s.logger.Info("depth %d: removed %d edges, %d remain", d, removed, g.NumEdges())
	}
	return g, sepsets, nil
}

// applyKnowledge drops pairs forbidden in both directions before any test runs.
func (s *Searcher) applyKnowledge(g *graph.Graph, sepsets *graph.SepsetTable) error {
	if s.knowledge == nil {
		return nil
	}
	for _, e := range g.Edges() {
		if !s.knowledge.IsForbiddenAdjacency(e.A, e.B) || s.knowledge.IsRequiredAdjacency(e.A, e.B) {
			continue
		}
		if err := g.RemoveEdge(e.A, e.B); err != nil {
			return err
		}
		if err := sepsets.Record(e.A, e.B, nil, 1, causal.PhaseKnowledge); err != nil {
			return err
		}
		s.logger.Detail(s.params.Verbose, "removed %s - %s: forbidden both ways", g.Name(e.A), g.Name(e.B))
	}
	return nil
}

// searchDepth tests every edge at depth d against adjacency frozen at the start of the depth.
func (s *Searcher) searchDepth(ctx context.Context, g *graph.Graph, d int) ([]removal, error) {
	adj := make([][]int, g.NumNodes())
	for i := range adj {
		adj[i] = g.Adjacent(i)
	}
	edges := g.Edges()
	results := make([]removal, len(edges))

	workers := s.params.Workers
	if workers < 1 {
		workers = 1
	}
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)

	for i, e := range edges {
		i, x, y := i, e.A, e.B
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = s.testPair(adj, x, y, d)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("adjacency search at depth %d: %w", d, err)
	}
	return results, nil
}

func (s *Searcher) testPair(adj [][]int, x, y, d int) removal {
	r := removal{x: x, y: y}
	if s.knowledge.IsRequiredAdjacency(x, y) {
		return r
	}
	for _, side := range [][]int{graph.Without(adj[x], y), graph.Without(adj[y], x)} {
		graph.ForEachSubset(side, d, func(z []int) bool {
			p := s.oracle.PValue(x, y, z)
			if s.params.Independent(p) {
				r.given = append([]int{}, z...)
				r.pValue = p
				r.found = true
				return false
			}
			return true
		})
		if r.found {
			break
		}
	}
	return r
}

func joinNames(g *graph.Graph, nodes []int) string {
	names := make([]string, len(nodes))
	for i, n := range nodes {
		names[i] = g.Name(n)
	}
	return strings.Join(names, ", ")
}
