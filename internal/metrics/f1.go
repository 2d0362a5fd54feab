package metrics

import (
	"govigil/domain/core"
)

// F1Score accumulates (score, label) pairs and computes binary F1 at a
// settable decision cutoff. Scores are binarized at compute time, so the
// cutoff may be adjusted after updates have been folded in (the adaptive
// threshold does exactly that at validation-epoch end).
type F1Score struct {
	threshold float64
	preds     []float64
	targets   []int
}

// NewF1Score creates an F1 accumulator with the given decision cutoff
func NewF1Score(threshold float64) *F1Score {
	return &F1Score{threshold: threshold}
}

// Name identifies the metric inside a collection
func (f *F1Score) Name() string {
	return "F1"
}

// Threshold returns the current decision cutoff
func (f *F1Score) Threshold() float64 {
	return f.threshold
}

// SetThreshold replaces the decision cutoff without touching accumulated state
func (f *F1Score) SetThreshold(v float64) {
	f.threshold = v
}

// Update folds one batch of scores and ground-truth labels into the accumulator
func (f *F1Score) Update(preds []float64, targets []int) {
	f.preds = append(f.preds, preds...)
	f.targets = append(f.targets, targets...)
}

// Compute binarizes accumulated scores at the cutoff and returns the F1
// score. A degenerate epoch with no predicted and no actual positives
// scores zero rather than dividing by zero.
func (f *F1Score) Compute() (float64, error) {
	if len(f.preds) == 0 {
		return 0, core.ErrNoObservations
	}

	var tp, fp, fn int
	for i, p := range f.preds {
		predicted := p >= f.threshold
		actual := f.targets[i] != 0
		switch {
		case predicted && actual:
			tp++
		case predicted && !actual:
			fp++
		case !predicted && actual:
			fn++
		}
	}

	if tp+fp == 0 || tp+fn == 0 {
		return 0, nil
	}
	precision := float64(tp) / float64(tp+fp)
	recall := float64(tp) / float64(tp+fn)
	if precision+recall == 0 {
		return 0, nil
	}
	return 2 * precision * recall / (precision + recall), nil
}

// Reset clears accumulated state for the next epoch, keeping the cutoff
func (f *F1Score) Reset() {
	f.preds = nil
	f.targets = nil
}
