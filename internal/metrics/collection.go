package metrics

import (
	"govigil/ports"
)

// Collection groups metrics under a shared key prefix ("image_", "pixel_")
// so one epoch-end pass can update, compute, and log them together.
type Collection struct {
	prefix  string
	metrics []ports.Metric
}

// NewCollection creates a collection with the given key prefix
func NewCollection(prefix string, ms ...ports.Metric) *Collection {
	return &Collection{prefix: prefix, metrics: ms}
}

// NewDefaultCollection builds the standard per-level metric set: AUROC plus
// F1 at the given starting cutoff
func NewDefaultCollection(prefix string, f1Threshold float64) *Collection {
	return NewCollection(prefix, NewAUROC(), NewF1Score(f1Threshold))
}

// Prefix returns the collection's key prefix
func (c *Collection) Prefix() string {
	return c.prefix
}

// Update folds one batch of predictions and targets into every metric
func (c *Collection) Update(preds []float64, targets []int) {
	for _, m := range c.metrics {
		m.Update(preds, targets)
	}
}

// Compute produces the prefixed name-to-value map across all metrics
func (c *Collection) Compute() (map[string]float64, error) {
	out := make(map[string]float64, len(c.metrics))
	for _, m := range c.metrics {
		v, err := m.Compute()
		if err != nil {
			return nil, err
		}
		out[c.prefix+m.Name()] = v
	}
	return out, nil
}

// Reset clears every metric's accumulated state
func (c *Collection) Reset() {
	for _, m := range c.metrics {
		m.Reset()
	}
}

// SetF1Threshold synchronizes the F1 metric's decision cutoff, if the
// collection carries one. The adaptive threshold calls this after
// recomputing so F1 is scored at the chosen boundary instead of a stale
// default.
func (c *Collection) SetF1Threshold(v float64) {
	for _, m := range c.metrics {
		if f1, ok := m.(*F1Score); ok {
			f1.SetThreshold(v)
		}
	}
}
