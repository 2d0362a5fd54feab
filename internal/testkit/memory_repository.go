package testkit

import (
	"context"
	"sync"

	"govigil/domain/core"
	"govigil/domain/run"
)

// MemoryRunRepository keeps runs, manifests and results in process memory.
// It backs tests and database-less evaluations.
type MemoryRunRepository struct {
	mu        sync.RWMutex
	runs      map[core.RunID]*run.Run
	manifests map[core.RunID]*run.RunManifest
	results   map[core.RunID]*run.ResultsSummary
	order     []core.RunID
	statusLog []run.RunStatus
}

// NewMemoryRunRepository creates an empty in-memory repository
func NewMemoryRunRepository() *MemoryRunRepository {
	return &MemoryRunRepository{
		runs:      make(map[core.RunID]*run.Run),
		manifests: make(map[core.RunID]*run.RunManifest),
		results:   make(map[core.RunID]*run.ResultsSummary),
	}
}

// CreateRun records a new run and its manifest
func (m *MemoryRunRepository) CreateRun(ctx context.Context, r *run.Run, manifest *run.RunManifest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.runs[r.ID]; exists {
		return core.NewValidationError("run", "id already exists: "+r.ID.String())
	}
	stored := *r
	m.runs[r.ID] = &stored
	if manifest != nil {
		copied := *manifest
		m.manifests[r.ID] = &copied
	}
	m.order = append(m.order, r.ID)
	return nil
}

// UpdateStatus transitions a run's status; errMsg is stored for failed runs
func (m *MemoryRunRepository) UpdateStatus(ctx context.Context, id core.RunID, status run.RunStatus, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.runs[id]
	if !ok {
		return core.NewNotFoundError("run", id.String())
	}
	r.Status = status
	r.Error = errMsg
	m.statusLog = append(m.statusLog, status)
	return nil
}

// SetThresholds stores the thresholds frozen at validation-epoch end
func (m *MemoryRunRepository) SetThresholds(ctx context.Context, id core.RunID, image, pixel float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.runs[id]
	if !ok {
		return core.NewNotFoundError("run", id.String())
	}
	r.ImageThreshold = image
	r.PixelThreshold = pixel
	return nil
}

// SaveResults stores the per-sample test results for a run
func (m *MemoryRunRepository) SaveResults(ctx context.Context, id core.RunID, summary *run.ResultsSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.runs[id]; !ok {
		return core.NewNotFoundError("run", id.String())
	}
	rows := append([]run.SampleResult(nil), summary.Rows...)
	m.results[id] = &run.ResultsSummary{Rows: rows}
	return nil
}

// GetRun retrieves a run by ID
func (m *MemoryRunRepository) GetRun(ctx context.Context, id core.RunID) (*run.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.runs[id]
	if !ok {
		return nil, core.ErrRunNotFound
	}
	copied := *r
	return &copied, nil
}

// ListRuns returns runs ordered most recent first
func (m *MemoryRunRepository) ListRuns(ctx context.Context, limit, offset int) ([]*run.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 {
		limit = len(m.order)
	}

	var runs []*run.Run
	for i := len(m.order) - 1 - offset; i >= 0 && len(runs) < limit; i-- {
		copied := *m.runs[m.order[i]]
		runs = append(runs, &copied)
	}
	return runs, nil
}

// GetResults retrieves the stored results for a run
func (m *MemoryRunRepository) GetResults(ctx context.Context, id core.RunID) (*run.ResultsSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	summary, ok := m.results[id]
	if !ok {
		return nil, core.ErrResultsNotFound
	}
	rows := append([]run.SampleResult(nil), summary.Rows...)
	return &run.ResultsSummary{Rows: rows}, nil
}

// Manifest returns the stored manifest for a run
func (m *MemoryRunRepository) Manifest(id core.RunID) *run.RunManifest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.manifests[id]
}

// StatusLog returns every status transition in order
func (m *MemoryRunRepository) StatusLog() []run.RunStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]run.RunStatus(nil), m.statusLog...)
}
