package run

import (
	"crypto/sha256"
	"fmt"

	"govigil/domain/batch"
	"govigil/domain/core"
)

// ============================================================================
// RUN LIFECYCLE
// ============================================================================

// RunStatus tracks an evaluation run through its phases
type RunStatus string

const (
	StatusPending    RunStatus = "pending"
	StatusValidating RunStatus = "validating"
	StatusTesting    RunStatus = "testing"
	StatusCompleted  RunStatus = "completed"
	StatusFailed     RunStatus = "failed"
)

// IsTerminal reports whether the status admits no further transitions
func (s RunStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Run records one evaluation of a scorer over a dataset
type Run struct {
	ID             core.RunID      `json:"id"`
	Task           batch.Task      `json:"task"`
	Status         RunStatus       `json:"status"`
	Fingerprint    RunFingerprint  `json:"fingerprint"`
	ImageThreshold float64         `json:"image_threshold"` // frozen after validation
	PixelThreshold float64         `json:"pixel_threshold"` // frozen after validation
	StartedAt      core.StartedAt  `json:"started_at"`
	FinishedAt     core.FinishedAt `json:"finished_at"`
	Error          string          `json:"error,omitempty"` // set when Status == failed
}

// NewRun creates a pending run for a task and fingerprint
func NewRun(task batch.Task, fp RunFingerprint) *Run {
	return &Run{
		ID:          core.NewRunID(),
		Task:        task,
		Status:      StatusPending,
		Fingerprint: fp,
	}
}

// RunFingerprint pins the inputs that make a run reproducible
type RunFingerprint struct {
	DatasetName string    `json:"dataset_name"`
	ScorerName  string    `json:"scorer_name"`
	Seed        int64     `json:"seed"`
	Fingerprint core.Hash `json:"fingerprint"` // Hash of all above
}

// NewRunFingerprint creates a fingerprint from determinism parameters
func NewRunFingerprint(datasetName, scorerName string, seed int64) RunFingerprint {
	return RunFingerprint{
		DatasetName: datasetName,
		ScorerName:  scorerName,
		Seed:        seed,
		Fingerprint: computeRunFingerprint(datasetName, scorerName, seed),
	}
}

// computeRunFingerprint generates a deterministic hash from all determinism parameters
func computeRunFingerprint(datasetName, scorerName string, seed int64) core.Hash {
	data := fmt.Sprintf("dataset:%s|scorer:%s|seed:%d", datasetName, scorerName, seed)
	hash := sha256.Sum256([]byte(data))
	return core.Hash(fmt.Sprintf("%x", hash))
}

// ============================================================================
// TEST RESULTS
// ============================================================================

// SampleResult is one exported row: the prediction for a single test sample
type SampleResult struct {
	Name            string `json:"name"`             // source filename
	TrueLabel       int    `json:"true_label"`       // ground-truth class
	PredLabel       int    `json:"pred_label"`       // thresholded prediction
	WrongPrediction int    `json:"wrong_prediction"` // 1 iff true_label XOR pred_label
}

// NewSampleResult derives the wrong-prediction flag from the two labels
func NewSampleResult(name string, trueLabel, predLabel int) SampleResult {
	wrong := 0
	if (trueLabel != 0) != (predLabel != 0) {
		wrong = 1
	}
	return SampleResult{
		Name:            name,
		TrueLabel:       trueLabel,
		PredLabel:       predLabel,
		WrongPrediction: wrong,
	}
}

// ResultsSummary is the ordered end-of-test aggregate the exporter consumes.
// Assembled during test-epoch processing, owned by the adapter until read.
type ResultsSummary struct {
	Rows []SampleResult `json:"rows"`
}

// Append adds one sample's result, deriving the wrong-prediction flag
func (r *ResultsSummary) Append(name string, trueLabel, predLabel int) {
	r.Rows = append(r.Rows, NewSampleResult(name, trueLabel, predLabel))
}

// Len returns the row count
func (r *ResultsSummary) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

// WrongCount returns how many rows were mispredicted
func (r *ResultsSummary) WrongCount() int {
	n := 0
	for _, row := range r.Rows {
		n += row.WrongPrediction
	}
	return n
}
