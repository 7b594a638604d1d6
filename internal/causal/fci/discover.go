// Package fci runs the full discovery pipeline: independence oracle, adjacency search,
// orientation and projection.
package fci

import (
	"context"
	"time"

	"gocausal/domain/causal"
	"gocausal/domain/dataset"
	"gocausal/internal"
	"gocausal/internal/causal/citest"
	"gocausal/internal/causal/graph"
	"gocausal/internal/causal/orient"
	"gocausal/internal/causal/project"
	"gocausal/internal/causal/skeleton"
)

// Timings records how long each phase took.
type Timings struct {
	Skeleton    time.Duration `json:"skeleton"`
	Orientation time.Duration `json:"orientation"`
	Total       time.Duration `json:"total"`
}

// Result is everything a discovery run produces.
type Result struct {
	PAG           *causal.PAG
	Graph         *graph.Graph
	SkeletonEdges int
	Orientation   orient.Summary
	Timings       Timings
}

// Discover infers a PAG from m. Parameters and background knowledge are validated
// before any test runs; after that only cancellation can make the run fail.
func Discover(ctx context.Context, m *dataset.Matrix, params causal.Params, logger *internal.Logger) (*Result, error) {
	logger = internal.OrDefault(logger)
	start := time.Now()

	if err := m.Validate(); err != nil {
		return nil, err
	}
	if err := params.Validate(m.Names); err != nil {
		return nil, err
	}
	knowledge, err := params.Knowledge.Compile(m.Names)
	if err != nil {
		return nil, err
	}

	rows, cols := m.Dims()
	logger.Info("discovering structure over %d variables, %d observations (alpha=%g depth=%s max_path_length=%s)",
		cols, rows, params.Alpha, params.Depth, params.MaxPathLength)

	oracle := citest.NewFisherZ(m, logger)

	g, sepsets, err := skeleton.New(oracle, params, knowledge, logger).Search(ctx, m.Names)
	if err != nil {
		return nil, err
	}
	skeletonDone := time.Now()
	skeletonEdges := g.NumEdges()

	summary, err := orient.New(oracle, params, knowledge, logger).Run(ctx, g, sepsets)
	if err != nil {
		return nil, err
	}
	end := time.Now()

	pag := project.PAG(g, sepsets, m.Variables(), oracle.Stats())
	logger.Info("discovery finished: %d edges, %d independence tests (%d cached, %d degenerate) in %s",
		len(pag.Edges), pag.Oracle.Queries, pag.Oracle.CacheHits, pag.Oracle.Degenerate, end.Sub(start).Round(time.Millisecond))

	return &Result{
		PAG:           pag,
		Graph:         g,
		SkeletonEdges: skeletonEdges,
		Orientation:   summary,
		Timings: Timings{
			Skeleton:    skeletonDone.Sub(start),
			Orientation: end.Sub(skeletonDone),
			Total:       end.Sub(start),
		},
	}, nil
}
