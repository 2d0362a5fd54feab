package run

import (
	"govigil/domain/batch"
	"govigil/domain/core"
)

// RunManifest is the complete specification for an evaluation run.
// This is the truth source for replay - it must exist before any results
// are written, and an identical manifest must reproduce identical results.
type RunManifest struct {
	RunID             core.RunID     `json:"run_id"`
	Task              batch.Task     `json:"task"`
	AdaptiveThreshold bool           `json:"adaptive_threshold"`
	DefaultImage      float64        `json:"default_image_threshold"`
	DefaultPixel      float64        `json:"default_pixel_threshold"`
	DatasetName       string         `json:"dataset_name"`
	ScorerName        string         `json:"scorer_name"`
	Seed              int64          `json:"seed"`
	Fingerprint       RunFingerprint `json:"fingerprint"` // Determinism fingerprint
	CreatedAt         core.Timestamp `json:"created_at"`
}

// NewRunManifest creates a run manifest from evaluation parameters
func NewRunManifest(
	runID core.RunID,
	task batch.Task,
	adaptive bool,
	defaultImage, defaultPixel float64,
	datasetName, scorerName string,
	seed int64,
) *RunManifest {
	return &RunManifest{
		RunID:             runID,
		Task:              task,
		AdaptiveThreshold: adaptive,
		DefaultImage:      defaultImage,
		DefaultPixel:      defaultPixel,
		DatasetName:       datasetName,
		ScorerName:        scorerName,
		Seed:              seed,
		Fingerprint:       NewRunFingerprint(datasetName, scorerName, seed),
		CreatedAt:         core.Now(),
	}
}

// Validate checks if the manifest is complete
func (r *RunManifest) Validate() error {
	if core.ID(r.RunID).IsEmpty() {
		return core.NewValidationError("run_manifest", "run_id cannot be empty")
	}
	if !r.Task.IsValid() {
		return core.NewValidationError("run_manifest", "task must be classification or segmentation")
	}
	if r.DatasetName == "" {
		return core.NewValidationError("run_manifest", "dataset_name cannot be empty")
	}
	if r.ScorerName == "" {
		return core.NewValidationError("run_manifest", "scorer_name cannot be empty")
	}
	if r.Fingerprint.Fingerprint.IsEmpty() {
		return core.NewValidationError("run_manifest", "fingerprint cannot be empty")
	}
	return nil
}
