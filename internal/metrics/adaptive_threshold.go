package metrics

import (
	"sort"

	"govigil/domain/core"

	"github.com/montanaflynn/stats"
)

// AdaptiveThreshold accumulates (score, label) pairs across a validation
// epoch and computes the decision boundary that maximizes F1 over the
// observed scores. Value holds the configured default until the first
// Compute, then the last computed boundary; Compute never resets it back.
type AdaptiveThreshold struct {
	value   float64
	preds   []float64
	targets []int
}

// NewAdaptiveThreshold creates a threshold holding the given default value
func NewAdaptiveThreshold(defaultValue float64) *AdaptiveThreshold {
	return &AdaptiveThreshold{value: defaultValue}
}

// Name identifies the metric inside a collection
func (t *AdaptiveThreshold) Name() string {
	return "AdaptiveThreshold"
}

// Value returns the current decision boundary without recomputing
func (t *AdaptiveThreshold) Value() float64 {
	return t.value
}

// SetValue overrides the boundary. Used to force the pixel threshold equal
// to the image threshold when an epoch carries no pixel ground truth.
func (t *AdaptiveThreshold) SetValue(v float64) {
	t.value = v
}

// Update folds one batch of scores and ground-truth labels into the accumulator
func (t *AdaptiveThreshold) Update(preds []float64, targets []int) {
	t.preds = append(t.preds, preds...)
	t.targets = append(t.targets, targets...)
}

// Compute sweeps every distinct observed score as a candidate cutoff
// (predict positive when score >= cutoff) and stores the one maximizing F1.
// Ties keep the lowest cutoff. An epoch with no positive labels has no
// meaningful F1 surface; the boundary becomes the maximum observed score so
// nothing is flagged anomalous.
func (t *AdaptiveThreshold) Compute() (float64, error) {
	n := len(t.preds)
	if n == 0 {
		return 0, core.ErrNoObservations
	}

	type pair struct {
		score float64
		pos   bool
	}
	pairs := make([]pair, n)
	totalPos := 0
	for i, p := range t.preds {
		pairs[i] = pair{score: p, pos: t.targets[i] != 0}
		if pairs[i].pos {
			totalPos++
		}
	}

	if totalPos == 0 {
		max, err := stats.Max(stats.Float64Data(t.preds))
		if err != nil {
			return 0, err
		}
		t.value = max
		return t.value, nil
	}

	sort.Slice(pairs, func(i, j int) bool { return pairs[i].score < pairs[j].score })

	// suffixPos[i] = positives with score >= pairs[i].score
	suffixPos := make([]int, n+1)
	for i := n - 1; i >= 0; i-- {
		suffixPos[i] = suffixPos[i+1]
		if pairs[i].pos {
			suffixPos[i]++
		}
	}

	bestF1 := -1.0
	best := pairs[0].score
	for i := 0; i < n; i++ {
		if i > 0 && pairs[i].score == pairs[i-1].score {
			continue // one candidate per distinct score
		}
		tp := suffixPos[i]
		fp := (n - i) - tp
		precision := float64(tp) / float64(tp+fp)
		recall := float64(tp) / float64(totalPos)
		f1 := 0.0
		if precision+recall > 0 {
			f1 = 2 * precision * recall / (precision + recall)
		}
		if f1 > bestF1 {
			bestF1 = f1
			best = pairs[i].score
		}
	}

	t.value = best
	return t.value, nil
}

// Reset clears accumulated state for the next epoch, keeping the boundary
func (t *AdaptiveThreshold) Reset() {
	t.preds = nil
	t.targets = nil
}
