package ports

import (
	"context"

	"govigil/domain/core"
	"govigil/domain/run"
)

// RunRepository defines the interface for run and results persistence
type RunRepository interface {
	// CreateRun records a new run and its manifest
	CreateRun(ctx context.Context, r *run.Run, manifest *run.RunManifest) error

	// UpdateStatus transitions a run's status; errMsg is stored for failed runs
	UpdateStatus(ctx context.Context, id core.RunID, status run.RunStatus, errMsg string) error

	// SetThresholds stores the thresholds frozen at validation-epoch end
	SetThresholds(ctx context.Context, id core.RunID, image, pixel float64) error

	// SaveResults stores the per-sample test results for a run
	SaveResults(ctx context.Context, id core.RunID, summary *run.ResultsSummary) error

	// GetRun retrieves a run by ID
	GetRun(ctx context.Context, id core.RunID) (*run.Run, error)

	// ListRuns returns runs ordered most recent first
	ListRuns(ctx context.Context, limit, offset int) ([]*run.Run, error)

	// GetResults retrieves the stored results for a run
	GetResults(ctx context.Context, id core.RunID) (*run.ResultsSummary, error)
}
