package testkit

import (
	"context"
	"testing"
	"time"

	"gocausal/domain/causal"
	"gocausal/domain/core"
	"gocausal/domain/run"
	"gocausal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecord(t *testing.T, dataset string, created time.Time) *run.Record {
	t.Helper()
	x := causal.Variable{Index: 0, Name: "X"}
	z := causal.Variable{Index: 1, Name: "Z"}
	pag := &causal.PAG{
		Nodes: []causal.Variable{x, z},
		Edges: []causal.ProjectedEdge{{From: x, To: z, MarkFrom: causal.EndpointCircle, MarkTo: causal.EndpointArrow}},
	}
	fp, err := run.NewRunFingerprint(core.NewHash([]byte(dataset)), causal.DefaultParams(), pag)
	require.NoError(t, err)
	return &run.Record{
		ID:          core.NewRunID(),
		Dataset:     dataset,
		Variables:   2,
		Params:      causal.DefaultParams(),
		PAG:         pag,
		Fingerprint: fp,
		CreatedAt:   core.NewTimestamp(created),
	}
}

func TestInMemoryRunRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRunRepository()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	older := newRecord(t, "a.csv", base)
	newer := newRecord(t, "b.csv", base.Add(time.Minute))
	require.NoError(t, repo.Save(ctx, older))
	require.NoError(t, repo.Save(ctx, newer))
	assert.Error(t, repo.Save(ctx, older), "duplicate id")

	got, err := repo.Get(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, "a.csv", got.Dataset)

	_, err = repo.Get(ctx, core.NewRunID())
	assert.True(t, core.IsNotFoundError(err))

	list, err := repo.List(ctx, ports.RunFilters{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)

	list, err = repo.List(ctx, ports.RunFilters{Dataset: "a.csv"})
	require.NoError(t, err)
	require.Len(t, list, 1)

	list, err = repo.List(ctx, ports.RunFilters{Offset: 1, Limit: 5})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, older.ID, list[0].ID)

	edges, err := repo.Edges(ctx, older.ID, ports.EdgeFilter{Variable: "Z", IntoOnly: true})
	require.NoError(t, err)
	assert.Len(t, edges, 1)
	edges, err = repo.Edges(ctx, older.ID, ports.EdgeFilter{Variable: "X", IntoOnly: true})
	require.NoError(t, err)
	assert.Empty(t, edges)
}

func TestInMemoryRunRepositoryRejectsInvalid(t *testing.T) {
	repo := NewInMemoryRunRepository()
	err := repo.Save(context.Background(), &run.Record{})
	assert.ErrorIs(t, err, core.ErrInvalidParameter)
}
