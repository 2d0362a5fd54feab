package metrics

import (
	"fmt"

	"govigil/domain/core"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// AUROC accumulates (score, label) pairs across batches and computes the
// area under the ROC curve. Positive class is any non-zero label.
type AUROC struct {
	preds   []float64
	targets []int
}

// NewAUROC creates an empty AUROC accumulator
func NewAUROC() *AUROC {
	return &AUROC{}
}

// Name identifies the metric inside a collection
func (a *AUROC) Name() string {
	return "AUROC"
}

// Update folds one batch of scores and ground-truth labels into the accumulator
func (a *AUROC) Update(preds []float64, targets []int) {
	a.preds = append(a.preds, preds...)
	a.targets = append(a.targets, targets...)
}

// Compute returns the area under the ROC curve over everything accumulated.
// Requires at least one positive and one negative target.
func (a *AUROC) Compute() (float64, error) {
	if len(a.preds) == 0 {
		return 0, core.ErrNoObservations
	}

	y := make([]float64, len(a.preds))
	copy(y, a.preds)
	classes := make([]bool, len(a.targets))
	pos := 0
	for i, t := range a.targets {
		classes[i] = t != 0
		if classes[i] {
			pos++
		}
	}
	if pos == 0 || pos == len(classes) {
		return 0, fmt.Errorf("auroc needs both classes, got %d positives in %d targets", pos, len(classes))
	}

	stat.SortWeightedLabeled(y, classes, nil)
	tpr, fpr, _ := stat.ROC(nil, y, classes, nil)

	return integrate.Trapezoidal(fpr, tpr), nil
}

// Reset clears accumulated state for the next epoch
func (a *AUROC) Reset() {
	a.preds = nil
	a.targets = nil
}
