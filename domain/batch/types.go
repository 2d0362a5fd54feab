package batch

import (
	"fmt"

	"govigil/domain/core"
	"govigil/domain/tensor"
)

// ============================================================================
// TASK MODES
// ============================================================================

// Task selects image-level or pixel-level evaluation behavior
type Task string

const (
	TaskClassification Task = "classification" // whole-sample scoring only
	TaskSegmentation   Task = "segmentation"   // per-pixel scoring and metrics
)

// ParseTask parses a string into a Task
func ParseTask(s string) (Task, error) {
	t := Task(s)
	if !t.IsValid() {
		return "", fmt.Errorf("invalid task %q (want %q or %q)", s, TaskClassification, TaskSegmentation)
	}
	return t, nil
}

// IsValid checks task membership
func (t Task) IsValid() bool {
	return t == TaskClassification || t == TaskSegmentation
}

// String returns the string representation
func (t Task) String() string {
	return string(t)
}

// ============================================================================
// BATCH INPUT
// ============================================================================

// Batch is the raw per-step input a scorer consumes: sample images plus
// whatever ground truth the dataset carries.
type Batch struct {
	ID     core.BatchID   `json:"id"`
	Names  []string       `json:"names"`  // per-sample source filenames
	Images *tensor.Tensor `json:"-"`      // (n, ...) input tensor
	Labels []int          `json:"labels"` // ground-truth class per sample
	Masks  *tensor.Tensor `json:"-"`      // ground-truth pixel masks, optional
}

// Samples returns the number of samples in the batch
func (b *Batch) Samples() int {
	if b.Images != nil {
		return b.Images.Samples()
	}
	return len(b.Names)
}

// ============================================================================
// BATCH OUTPUT
// ============================================================================

// BatchOutput carries one step's per-sample outputs. Every field is
// optional: a nil slice or nil tensor means the field is absent. Consumers
// that require an absent field fail with a missing-field error at the point
// of use.
type BatchOutput struct {
	Names       []string       `json:"names"`       // per-sample source filenames
	PredScores  []float64      `json:"pred_scores"` // anomaly score per sample
	AnomalyMaps *tensor.Tensor `json:"-"`           // (n, ...) per-pixel scores
	Labels      []int          `json:"labels"`      // ground-truth class per sample
	Masks       *tensor.Tensor `json:"-"`           // (n, ...) ground-truth pixel masks
	PredLabels  []int          `json:"pred_labels"` // thresholded binary decision
}

// Presence checks
func (o *BatchOutput) HasNames() bool       { return o != nil && len(o.Names) > 0 }
func (o *BatchOutput) HasPredScores() bool  { return o != nil && o.PredScores != nil }
func (o *BatchOutput) HasAnomalyMaps() bool { return o != nil && o.AnomalyMaps != nil }
func (o *BatchOutput) HasLabels() bool      { return o != nil && o.Labels != nil }
func (o *BatchOutput) HasMasks() bool       { return o != nil && o.Masks != nil }
func (o *BatchOutput) HasPredLabels() bool  { return o != nil && o.PredLabels != nil }

// HasPixelData reports whether this output can feed pixel-level aggregation
// (both ground-truth masks and predicted anomaly maps present)
func (o *BatchOutput) HasPixelData() bool {
	return o.HasMasks() && o.HasAnomalyMaps()
}

// Samples returns the per-sample count from the first present field
func (o *BatchOutput) Samples() int {
	switch {
	case o == nil:
		return 0
	case o.PredScores != nil:
		return len(o.PredScores)
	case o.AnomalyMaps != nil:
		return o.AnomalyMaps.Samples()
	case o.Labels != nil:
		return len(o.Labels)
	case len(o.Names) > 0:
		return len(o.Names)
	}
	return 0
}

// Validate checks cross-field sample-count agreement for every present
// field, and spatial agreement between masks and anomaly maps
func (o *BatchOutput) Validate() error {
	n := o.Samples()
	if n == 0 {
		return nil
	}
	if o.HasNames() && len(o.Names) != n {
		return core.NewLengthMismatchError("names", n, len(o.Names))
	}
	if o.HasPredScores() && len(o.PredScores) != n {
		return core.NewLengthMismatchError("pred_scores", n, len(o.PredScores))
	}
	if o.HasLabels() && len(o.Labels) != n {
		return core.NewLengthMismatchError("label", n, len(o.Labels))
	}
	if o.HasPredLabels() && len(o.PredLabels) != n {
		return core.NewLengthMismatchError("pred_labels", n, len(o.PredLabels))
	}
	if o.HasAnomalyMaps() && o.AnomalyMaps.Samples() != n {
		return core.NewLengthMismatchError("anomaly_maps", n, o.AnomalyMaps.Samples())
	}
	if o.HasMasks() && o.Masks.Samples() != n {
		return core.NewLengthMismatchError("mask", n, o.Masks.Samples())
	}
	if o.HasPixelData() && o.Masks.SampleSize() != o.AnomalyMaps.SampleSize() {
		return core.NewShapeError(o.AnomalyMaps.Shape(), o.Masks.Shape())
	}
	return nil
}

// Clone returns a deep copy
func (o *BatchOutput) Clone() *BatchOutput {
	if o == nil {
		return nil
	}
	c := &BatchOutput{
		AnomalyMaps: o.AnomalyMaps.Clone(),
		Masks:       o.Masks.Clone(),
	}
	if o.Names != nil {
		c.Names = append([]string(nil), o.Names...)
	}
	if o.PredScores != nil {
		c.PredScores = append([]float64(nil), o.PredScores...)
	}
	if o.Labels != nil {
		c.Labels = append([]int(nil), o.Labels...)
	}
	if o.PredLabels != nil {
		c.PredLabels = append([]int(nil), o.PredLabels...)
	}
	return c
}
