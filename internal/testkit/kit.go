package testkit

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"gocausal/domain/causal"
	"gocausal/domain/core"
	"gocausal/domain/run"
	"gocausal/ports"
)

// InMemoryRunRepository implements ports.RunRepository with in-memory storage. It backs
// the server when no DATABASE_URL is set, and the service and API tests.
type InMemoryRunRepository struct {
	runs map[core.RunID]*run.Record
	mu   sync.RWMutex
}

// NewInMemoryRunRepository creates an empty repository
func NewInMemoryRunRepository() *InMemoryRunRepository {
	return &InMemoryRunRepository{runs: make(map[core.RunID]*run.Record)}
}

var _ ports.RunRepository = (*InMemoryRunRepository)(nil)

func (s *InMemoryRunRepository) Save(ctx context.Context, record *run.Record) error {
	if err := record.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[record.ID]; exists {
		return fmt.Errorf("run %s already stored", record.ID)
	}
	stored := *record
	s.runs[record.ID] = &stored
	return nil
}

func (s *InMemoryRunRepository) Get(ctx context.Context, id core.RunID) (*run.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrRunNotFound, id)
	}
	out := *record
	return &out, nil
}

func (s *InMemoryRunRepository) List(ctx context.Context, filters ports.RunFilters) ([]run.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []run.Summary
	for _, record := range s.runs {
		if filters.Dataset != "" && record.Dataset != filters.Dataset {
			continue
		}
		results = append(results, record.Summarize())
	}

	sort.Slice(results, func(i, j int) bool {
		ti, tj := results[i].CreatedAt.Time(), results[j].CreatedAt.Time()
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return results[i].ID > results[j].ID
	})

	if filters.Offset > 0 {
		if filters.Offset >= len(results) {
			return nil, nil
		}
		results = results[filters.Offset:]
	}
	if filters.Limit > 0 && len(results) > filters.Limit {
		results = results[:filters.Limit]
	}
	return results, nil
}

func (s *InMemoryRunRepository) Edges(ctx context.Context, id core.RunID, filter ports.EdgeFilter) ([]causal.ProjectedEdge, error) {
	record, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return filter.Apply(record.PAG.Edges), nil
}
