package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"gocausal/domain/causal"
	"gocausal/domain/core"
	"gocausal/domain/run"
	"gocausal/internal/migration"
	"gocausal/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord(t *testing.T) *run.Record {
	t.Helper()
	x := causal.Variable{Index: 0, Name: "X"}
	y := causal.Variable{Index: 1, Name: "Y"}
	z := causal.Variable{Index: 2, Name: "Z"}
	pag := &causal.PAG{
		Nodes: []causal.Variable{x, y, z},
		Edges: []causal.ProjectedEdge{
			{From: x, To: z, MarkFrom: causal.EndpointCircle, MarkTo: causal.EndpointArrow, Label: causal.LabelPartiallyDirected},
			{From: y, To: z, MarkFrom: causal.EndpointCircle, MarkTo: causal.EndpointArrow, Label: causal.LabelPartiallyDirected},
		},
		Separations: []causal.Separation{{X: "X", Y: "Y", Given: []string{}, PValue: 0.4, Phase: causal.PhaseAdjacency}},
		Oriented:    true,
	}
	params := causal.DefaultParams()
	params.Depth = 2
	fp, err := run.NewRunFingerprint(core.NewHash([]byte("xyz")), params, pag)
	require.NoError(t, err)
	return &run.Record{
		ID:           core.NewRunID(),
		Dataset:      "collider.csv",
		Observations: 500,
		Variables:    3,
		Params:       params,
		PAG:          pag,
		Warnings:     []string{"column \"Z\" looks non-Gaussian"},
		Timings:      run.Timings{SkeletonMS: 3, OrientationMS: 1, TotalMS: 4},
		Fingerprint:  fp,
		CreatedAt:    core.NewTimestamp(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
	}
}

func TestRunRowConversion(t *testing.T) {
	record := sampleRecord(t)

	row, err := toRunRow(record)
	require.NoError(t, err)
	assert.Equal(t, 0.05, row.Alpha)
	assert.Equal(t, record.Fingerprint.Fingerprint.String(), row.Fingerprint)

	back, err := fromRunRow(row)
	require.NoError(t, err)
	assert.Equal(t, record.Params, back.Params)
	assert.Equal(t, record.PAG.Text(), back.PAG.Text())
	assert.Equal(t, record.Warnings, back.Warnings)
	assert.Equal(t, record.Timings, back.Timings)
	assert.True(t, record.CreatedAt.Time().Equal(back.CreatedAt.Time()))

	edges, err := fromEdgeRows(toEdgeRows(record))
	require.NoError(t, err)
	assert.Equal(t, record.PAG.Edges, edges)
}

func TestFromEdgeRowsRejectsUnknownMark(t *testing.T) {
	_, err := fromEdgeRows([]edgeRow{{MarkFrom: "square", MarkTo: "arrow"}})
	assert.Error(t, err)
}

// TestRunRepositoryPostgres runs against a live database when TEST_DATABASE_URL is set.
func TestRunRepositoryPostgres(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	db, err := sqlx.Connect("postgres", url)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, migration.NewRunner(nil).Run(ctx, db))

	repo := NewRunRepository(db)
	record := sampleRecord(t)
	require.NoError(t, repo.Save(ctx, record))
	t.Cleanup(func() {
		db.ExecContext(ctx, "DELETE FROM discovery_runs WHERE id = $1", record.ID.String())
	})

	got, err := repo.Get(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.PAG.Text(), got.PAG.Text())

	edges, err := repo.Edges(ctx, record.ID, ports.EdgeFilter{Variable: "X"})
	require.NoError(t, err)
	assert.Len(t, edges, 1)

	list, err := repo.List(ctx, ports.RunFilters{Dataset: "collider.csv"})
	require.NoError(t, err)
	require.NotEmpty(t, list)

	_, err = repo.Get(ctx, core.NewRunID())
	assert.True(t, core.IsNotFoundError(err))
}
