package migration

import (
	"context"

	"govigil/internal/errors"

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
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createRunsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create runs table")
	}

	if err := r.createRunResultsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create run_results table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	return nil
}

func (r *MigrationRunner) createRunsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id UUID PRIMARY KEY,
			task VARCHAR(20) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			dataset_name VARCHAR(255) NOT NULL,
			scorer_name VARCHAR(255) NOT NULL,
			seed BIGINT NOT NULL DEFAULT 0,
			fingerprint VARCHAR(64) NOT NULL,
			image_threshold DOUBLE PRECISION NOT NULL DEFAULT 0.5,
			pixel_threshold DOUBLE PRECISION NOT NULL DEFAULT 0.5,
			started_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			finished_at TIMESTAMP WITH TIME ZONE,
			error_message TEXT,
			manifest JSONB,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createRunResultsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS run_results (
			run_id UUID NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			name VARCHAR(255) NOT NULL,
			true_label SMALLINT NOT NULL,
			pred_label SMALLINT NOT NULL,
			wrong_prediction SMALLINT NOT NULL,
			PRIMARY KEY (run_id, position)
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at DESC);
		CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
		CREATE INDEX IF NOT EXISTS idx_runs_fingerprint ON runs(fingerprint);
		CREATE INDEX IF NOT EXISTS idx_run_results_run_id ON run_results(run_id);
		CREATE INDEX IF NOT EXISTS idx_run_results_wrong ON run_results(run_id, wrong_prediction)
	`)
	return err
}
