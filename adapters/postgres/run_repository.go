package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"govigil/domain/batch"
	"govigil/domain/core"
	"govigil/domain/run"
	"govigil/ports"

	"github.com/jmoiron/sqlx"
)

// RunRepositoryImpl implements RunRepository for PostgreSQL
type RunRepositoryImpl struct {
	db *sqlx.DB
}

// NewRunRepository creates a new PostgreSQL run repository
func NewRunRepository(db *sqlx.DB) ports.RunRepository {
	return &RunRepositoryImpl{db: db}
}

// CreateRun records a new run with its manifest
func (r *RunRepositoryImpl) CreateRun(ctx context.Context, rn *run.Run, manifest *run.RunManifest) error {
	manifestJSON, err := json.Marshal(manifest)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO runs (id, task, status, dataset_name, scorer_name, seed, fingerprint,
			image_threshold, pixel_threshold, started_at, manifest, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
	`, rn.ID.String(), rn.Task, rn.Status, rn.Fingerprint.DatasetName, rn.Fingerprint.ScorerName,
		rn.Fingerprint.Seed, string(rn.Fingerprint.Fingerprint), rn.ImageThreshold, rn.PixelThreshold,
		rn.StartedAt.Time(), manifestJSON)

	return err
}

// UpdateStatus transitions a run's status; terminal states also stamp finished_at
func (r *RunRepositoryImpl) UpdateStatus(ctx context.Context, id core.RunID, status run.RunStatus, errMsg string) error {
	var finishedAt interface{}
	if status == run.StatusCompleted || status == run.StatusFailed {
		finishedAt = core.Now().Time()
	} else {
		finishedAt = nil
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE runs
		SET status = $2, error_message = NULLIF($3, ''), finished_at = $4, updated_at = NOW()
		WHERE id = $1
	`, id.String(), status, errMsg, finishedAt)
	if err != nil {
		return err
	}

	return requireRow(res)
}

// SetThresholds stores the thresholds frozen at validation-epoch end
func (r *RunRepositoryImpl) SetThresholds(ctx context.Context, id core.RunID, image, pixel float64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE runs
		SET image_threshold = $2, pixel_threshold = $3, updated_at = NOW()
		WHERE id = $1
	`, id.String(), image, pixel)
	if err != nil {
		return err
	}

	return requireRow(res)
}

// SaveResults replaces the per-sample results for a run
func (r *RunRepositoryImpl) SaveResults(ctx context.Context, id core.RunID, summary *run.ResultsSummary) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM run_results WHERE run_id = $1`, id.String()); err != nil {
		return err
	}

	for i, row := range summary.Rows {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO run_results (run_id, position, name, true_label, pred_label, wrong_prediction)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, id.String(), i, row.Name, row.TrueLabel, row.PredLabel, row.WrongPrediction)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetRun retrieves a run by ID
func (r *RunRepositoryImpl) GetRun(ctx context.Context, id core.RunID) (*run.Run, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, task, status, dataset_name, scorer_name, seed, fingerprint,
			image_threshold, pixel_threshold, started_at, finished_at, error_message
		FROM runs
		WHERE id = $1
	`, id.String())

	rn, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, core.ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}

	return rn, nil
}

// ListRuns returns runs ordered most recent first
func (r *RunRepositoryImpl) ListRuns(ctx context.Context, limit, offset int) ([]*run.Run, error) {
	query := `
		SELECT id, task, status, dataset_name, scorer_name, seed, fingerprint,
			image_threshold, pixel_threshold, started_at, finished_at, error_message
		FROM runs
		ORDER BY started_at DESC
	`

	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT $1 OFFSET $2"
		args = append(args, limit, offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*run.Run
	for rows.Next() {
		rn, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, rn)
	}

	return runs, rows.Err()
}

// GetResults retrieves the stored results for a run, in insertion order
func (r *RunRepositoryImpl) GetResults(ctx context.Context, id core.RunID) (*run.ResultsSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT name, true_label, pred_label
		FROM run_results
		WHERE run_id = $1
		ORDER BY position
	`, id.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summary := &run.ResultsSummary{}
	for rows.Next() {
		var name string
		var trueLabel, predLabel int
		if err := rows.Scan(&name, &trueLabel, &predLabel); err != nil {
			return nil, err
		}
		summary.Append(name, trueLabel, predLabel)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if summary.Len() == 0 {
		return nil, core.ErrResultsNotFound
	}

	return summary, nil
}

// scanner covers both sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(s scanner) (*run.Run, error) {
	var (
		id, task, status, datasetName, scorerName, fingerprint string
		seed                                                   int64
		imageThreshold, pixelThreshold                         float64
		startedAt                                              sql.NullTime
		finishedAt                                             sql.NullTime
		errMsg                                                 sql.NullString
	)

	err := s.Scan(&id, &task, &status, &datasetName, &scorerName, &seed, &fingerprint,
		&imageThreshold, &pixelThreshold, &startedAt, &finishedAt, &errMsg)
	if err != nil {
		return nil, err
	}

	rn := &run.Run{
		ID:     core.RunID(id),
		Task:   batch.Task(task),
		Status: run.RunStatus(status),
		Fingerprint: run.RunFingerprint{
			DatasetName: datasetName,
			ScorerName:  scorerName,
			Seed:        seed,
			Fingerprint: core.Hash(fingerprint),
		},
		ImageThreshold: imageThreshold,
		PixelThreshold: pixelThreshold,
	}
	if startedAt.Valid {
		rn.StartedAt = core.NewStartedAt(startedAt.Time)
	}
	if finishedAt.Valid {
		rn.FinishedAt = core.NewFinishedAt(finishedAt.Time)
	}
	if errMsg.Valid {
		rn.Error = errMsg.String
	}

	return rn, nil
}

// requireRow maps zero-row updates to the domain's not-found error
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return core.ErrRunNotFound
	}
	return nil
}
