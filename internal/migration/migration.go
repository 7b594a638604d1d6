package migration

import (
	"context"

	"gocausal/internal"
	"gocausal/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
	logger  *internal.Logger
}

// NewRunner creates a new migration runner
func NewRunner(logger *internal.Logger) *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
		logger:  internal.OrDefault(logger).With("migration"),
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	for _, step := range Statements() {
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			if step.Optional {
				r.logger.Warn("failed to %s: %v", step.Name, err)
				continue
			}
			return errors.DatabaseError("failed to "+step.Name, err)
		}
		r.logger.Debug("%s: done", step.Name)
	}
	r.logger.Info("schema at version %s", r.version)
	return nil
}

// Step is one schema statement
type Step struct {
	Name     string
	SQL      string
	Optional bool // index creation; failure is logged, not returned
}

// Statements returns the schema steps in execution order
func Statements() []Step {
	return []Step{
		{Name: "create discovery_runs table", SQL: `
		CREATE TABLE IF NOT EXISTS discovery_runs (
			id VARCHAR(64) PRIMARY KEY,
			dataset TEXT NOT NULL,
			observations INTEGER NOT NULL,
			variables INTEGER NOT NULL,
			alpha DOUBLE PRECISION NOT NULL,
			params JSONB NOT NULL,
			pag JSONB NOT NULL,
			warnings JSONB DEFAULT '[]',
			timings JSONB DEFAULT '{}',
			dataset_hash VARCHAR(64) NOT NULL,
			params_hash VARCHAR(64) NOT NULL,
			edges_hash VARCHAR(64) NOT NULL,
			fingerprint VARCHAR(64) NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)`},
		{Name: "create discovery_edges table", SQL: `
		CREATE TABLE IF NOT EXISTS discovery_edges (
			run_id VARCHAR(64) NOT NULL REFERENCES discovery_runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			from_index INTEGER NOT NULL,
			from_var TEXT NOT NULL,
			to_index INTEGER NOT NULL,
			to_var TEXT NOT NULL,
			mark_from VARCHAR(10) NOT NULL,
			mark_to VARCHAR(10) NOT NULL,
			label VARCHAR(32) NOT NULL,
			no_latent BOOLEAN NOT NULL,
			definitely_direct BOOLEAN NOT NULL,
			PRIMARY KEY (run_id, position)
		)`},
		{Name: "create run index on created_at", Optional: true,
			SQL: "CREATE INDEX IF NOT EXISTS idx_discovery_runs_created_at ON discovery_runs(created_at DESC)"},
		{Name: "create run index on fingerprint", Optional: true,
			SQL: "CREATE INDEX IF NOT EXISTS idx_discovery_runs_fingerprint ON discovery_runs(fingerprint)"},
		{Name: "create edge index on from_var", Optional: true,
			SQL: "CREATE INDEX IF NOT EXISTS idx_discovery_edges_from ON discovery_edges(run_id, from_var)"},
		{Name: "create edge index on to_var", Optional: true,
			SQL: "CREATE INDEX IF NOT EXISTS idx_discovery_edges_to ON discovery_edges(run_id, to_var)"},
	}
}
