package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"gocausal/domain/causal"
	"gocausal/domain/core"
	"gocausal/domain/run"
	"gocausal/internal/errors"
	"gocausal/ports"

	"github.com/jmoiron/sqlx"
)

// runRepository implements the RunRepository interface
type runRepository struct {
	db *sqlx.DB
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *sqlx.DB) ports.RunRepository {
	return &runRepository{db: db}
}

// runRow mirrors a discovery_runs row
type runRow struct {
	ID           string    `db:"id"`
	Dataset      string    `db:"dataset"`
	Observations int       `db:"observations"`
	Variables    int       `db:"variables"`
	Alpha        float64   `db:"alpha"`
	Params       []byte    `db:"params"`
	PAG          []byte    `db:"pag"`
	Warnings     []byte    `db:"warnings"`
	Timings      []byte    `db:"timings"`
	DatasetHash  string    `db:"dataset_hash"`
	ParamsHash   string    `db:"params_hash"`
	EdgesHash    string    `db:"edges_hash"`
	Fingerprint  string    `db:"fingerprint"`
	CreatedAt    time.Time `db:"created_at"`
}

// edgeRow mirrors a discovery_edges row
type edgeRow struct {
	RunID            string `db:"run_id"`
	Position         int    `db:"position"`
	FromIndex        int    `db:"from_index"`
	FromVar          string `db:"from_var"`
	ToIndex          int    `db:"to_index"`
	ToVar            string `db:"to_var"`
	MarkFrom         string `db:"mark_from"`
	MarkTo           string `db:"mark_to"`
	Label            string `db:"label"`
	NoLatent         bool   `db:"no_latent"`
	DefinitelyDirect bool   `db:"definitely_direct"`
}

// Save inserts the run and its edge list in one transaction
func (r *runRepository) Save(ctx context.Context, record *run.Record) error {
	if err := record.Validate(); err != nil {
		return err
	}
	row, err := toRunRow(record)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.DatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `INSERT INTO discovery_runs (
		id, dataset, observations, variables, alpha, params, pag, warnings, timings,
		dataset_hash, params_hash, edges_hash, fingerprint, created_at
	) VALUES (
		:id, :dataset, :observations, :variables, :alpha, :params, :pag, :warnings, :timings,
		:dataset_hash, :params_hash, :edges_hash, :fingerprint, :created_at
	)`, row)
	if err != nil {
		return errors.DatabaseError("failed to insert run", err)
	}

	for _, edge := range toEdgeRows(record) {
		_, err = tx.NamedExecContext(ctx, `INSERT INTO discovery_edges (
			run_id, position, from_index, from_var, to_index, to_var,
			mark_from, mark_to, label, no_latent, definitely_direct
		) VALUES (
			:run_id, :position, :from_index, :from_var, :to_index, :to_var,
			:mark_from, :mark_to, :label, :no_latent, :definitely_direct
		)`, edge)
		if err != nil {
			return errors.DatabaseError("failed to insert edge", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.DatabaseError("failed to commit run", err)
	}
	return nil
}

// Get retrieves a run by its ID
func (r *runRepository) Get(ctx context.Context, id core.RunID) (*run.Record, error) {
	var row runRow
	err := r.db.GetContext(ctx, &row, `SELECT
		id, dataset, observations, variables, alpha, params, pag,
		COALESCE(warnings, '[]') AS warnings, COALESCE(timings, '{}') AS timings,
		dataset_hash, params_hash, edges_hash, fingerprint, created_at
	FROM discovery_runs WHERE id = $1`, id.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: %s", core.ErrRunNotFound, id)
		}
		return nil, errors.DatabaseError("failed to get run", err)
	}
	return fromRunRow(row)
}

// List returns run summaries, newest first
func (r *runRepository) List(ctx context.Context, filters ports.RunFilters) ([]run.Summary, error) {
	limit := filters.Limit
	if limit <= 0 {
		limit = 100
	}

	type summaryRow struct {
		ID          string    `db:"id"`
		Dataset     string    `db:"dataset"`
		Variables   int       `db:"variables"`
		Alpha       float64   `db:"alpha"`
		Fingerprint string    `db:"fingerprint"`
		CreatedAt   time.Time `db:"created_at"`
		Edges       int       `db:"edges"`
	}
	var rows []summaryRow
	err := r.db.SelectContext(ctx, &rows, `SELECT
		r.id, r.dataset, r.variables, r.alpha, r.fingerprint, r.created_at,
		(SELECT COUNT(*) FROM discovery_edges e WHERE e.run_id = r.id) AS edges
	FROM discovery_runs r
	WHERE ($1 = '' OR r.dataset = $1)
	ORDER BY r.created_at DESC, r.id DESC
	LIMIT $2 OFFSET $3`, filters.Dataset, limit, filters.Offset)
	if err != nil {
		return nil, errors.DatabaseError("failed to list runs", err)
	}

	summaries := make([]run.Summary, len(rows))
	for i, row := range rows {
		summaries[i] = run.Summary{
			ID:          core.RunID(row.ID),
			Dataset:     row.Dataset,
			Variables:   row.Variables,
			Edges:       row.Edges,
			Alpha:       row.Alpha,
			Fingerprint: core.Hash(row.Fingerprint),
			CreatedAt:   core.NewTimestamp(row.CreatedAt),
		}
	}
	return summaries, nil
}

// Edges returns a run's edge list in projection order
func (r *runRepository) Edges(ctx context.Context, id core.RunID, filter ports.EdgeFilter) ([]causal.ProjectedEdge, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM discovery_runs WHERE id = $1)`, id.String()); err != nil {
		return nil, errors.DatabaseError("failed to check run", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", core.ErrRunNotFound, id)
	}

	var rows []edgeRow
	err := r.db.SelectContext(ctx, &rows, `SELECT
		run_id, position, from_index, from_var, to_index, to_var,
		mark_from, mark_to, label, no_latent, definitely_direct
	FROM discovery_edges
	WHERE run_id = $1 AND ($2 = '' OR from_var = $2 OR to_var = $2)
	ORDER BY position`, id.String(), filter.Variable)
	if err != nil {
		return nil, errors.DatabaseError("failed to query edges", err)
	}

	edges, err := fromEdgeRows(rows)
	if err != nil {
		return nil, err
	}
	return filter.Apply(edges), nil
}

func toRunRow(record *run.Record) (runRow, error) {
	params, err := json.Marshal(record.Params)
	if err != nil {
		return runRow{}, fmt.Errorf("failed to marshal params: %w", err)
	}
	pag, err := json.Marshal(record.PAG)
	if err != nil {
		return runRow{}, fmt.Errorf("failed to marshal result: %w", err)
	}
	warnings := record.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	warningsJSON, err := json.Marshal(warnings)
	if err != nil {
		return runRow{}, fmt.Errorf("failed to marshal warnings: %w", err)
	}
	timings, err := json.Marshal(record.Timings)
	if err != nil {
		return runRow{}, fmt.Errorf("failed to marshal timings: %w", err)
	}

	created := record.CreatedAt.Time()
	if record.CreatedAt.IsZero() {
		created = time.Now().UTC()
	}
	return runRow{
		ID:           record.ID.String(),
		Dataset:      record.Dataset,
		Observations: record.Observations,
		Variables:    record.Variables,
		Alpha:        record.Params.Alpha,
		Params:       params,
		PAG:          pag,
		Warnings:     warningsJSON,
		Timings:      timings,
		DatasetHash:  record.Fingerprint.DatasetHash.String(),
		ParamsHash:   record.Fingerprint.ParamsHash.String(),
		EdgesHash:    record.Fingerprint.EdgesHash.String(),
		Fingerprint:  record.Fingerprint.Fingerprint.String(),
		CreatedAt:    created,
	}, nil
}

func fromRunRow(row runRow) (*run.Record, error) {
	record := &run.Record{
		ID:           core.RunID(row.ID),
		Dataset:      row.Dataset,
		Observations: row.Observations,
		Variables:    row.Variables,
		Fingerprint: run.RunFingerprint{
			DatasetHash: core.Hash(row.DatasetHash),
			ParamsHash:  core.Hash(row.ParamsHash),
			EdgesHash:   core.Hash(row.EdgesHash),
			Fingerprint: core.Hash(row.Fingerprint),
		},
		CreatedAt: core.NewTimestamp(row.CreatedAt),
	}
	if err := json.Unmarshal(row.Params, &record.Params); err != nil {
		return nil, fmt.Errorf("failed to unmarshal params: %w", err)
	}
	if err := json.Unmarshal(row.PAG, &record.PAG); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	if len(row.Warnings) > 0 {
		if err := json.Unmarshal(row.Warnings, &record.Warnings); err != nil {
			return nil, fmt.Errorf("failed to unmarshal warnings: %w", err)
		}
	}
	if len(row.Timings) > 0 {
		if err := json.Unmarshal(row.Timings, &record.Timings); err != nil {
			return nil, fmt.Errorf("failed to unmarshal timings: %w", err)
		}
	}
	return record, nil
}

func toEdgeRows(record *run.Record) []edgeRow {
	rows := make([]edgeRow, len(record.PAG.Edges))
	for i, e := range record.PAG.Edges {
		rows[i] = edgeRow{
			RunID:            record.ID.String(),
			Position:         i + 1,
			FromIndex:        e.From.Index,
			FromVar:          e.From.Name,
			ToIndex:          e.To.Index,
			ToVar:            e.To.Name,
			MarkFrom:         e.MarkFrom.String(),
			MarkTo:           e.MarkTo.String(),
			Label:            string(e.Label),
			NoLatent:         e.NoLatent,
			DefinitelyDirect: e.DefinitelyDirect,
		}
	}
	return rows
}

func fromEdgeRows(rows []edgeRow) ([]causal.ProjectedEdge, error) {
	edges := make([]causal.ProjectedEdge, len(rows))
	for i, row := range rows {
		var from, to causal.Endpoint
		if err := from.UnmarshalText([]byte(row.MarkFrom)); err != nil {
			return nil, err
		}
		if err := to.UnmarshalText([]byte(row.MarkTo)); err != nil {
			return nil, err
		}
		edges[i] = causal.ProjectedEdge{
			From:             causal.Variable{Index: row.FromIndex, Name: row.FromVar},
			To:               causal.Variable{Index: row.ToIndex, Name: row.ToVar},
			MarkFrom:         from,
			MarkTo:           to,
			Label:            causal.EdgeLabel(row.Label),
			NoLatent:         row.NoLatent,
			DefinitelyDirect: row.DefinitelyDirect,
		}
	}
	return edges, nil
}
