package ports

import (
	"context"

	"gocausal/domain/causal"
	"gocausal/domain/core"
	"gocausal/domain/run"
)

// RunRepository stores finished discovery runs
type RunRepository interface {
	Save(ctx context.Context, record *run.Record) error
	Get(ctx context.Context, id core.RunID) (*run.Record, error)
	List(ctx context.Context, filters RunFilters) ([]run.Summary, error)
	Edges(ctx context.Context, id core.RunID, filter EdgeFilter) ([]causal.ProjectedEdge, error)
}

// RunFilters for listing runs, newest first
type RunFilters struct {
	Dataset string
	Limit   int
	Offset  int
}

// EdgeFilter narrows a run's edge list to one variable of interest. An empty Variable
// keeps every edge; IntoOnly keeps only edges with an arrowhead at Variable.
type EdgeFilter struct {
	Variable string
	IntoOnly bool
}

// Apply filters edges in order
func (f EdgeFilter) Apply(edges []causal.ProjectedEdge) []causal.ProjectedEdge {
	if f.Variable == "" {
		return edges
	}
	pag := causal.PAG{Edges: edges}
	return pag.EdgesTouching(f.Variable, f.IntoOnly)
}

// RunEvents receives progress events. Publish must not block.
type RunEvents interface {
	Publish(event run.Event)
}
