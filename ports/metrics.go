package ports

// Metric is the aggregator contract: stateful accumulation across batches,
// a scalar on compute, reset between epochs.
type Metric interface {
	// Name identifies the metric inside a collection (e.g. "AUROC", "F1")
	Name() string

	// Update folds one batch of predictions and targets into the accumulator.
	// Predictions and targets are parallel slices.
	Update(preds []float64, targets []int)

	// Compute produces the metric's scalar from everything accumulated
	Compute() (float64, error)

	// Reset clears accumulated state for the next epoch
	Reset()
}

// Threshold is a metric whose computed scalar is a decision boundary. Value
// returns the current boundary without recomputing: the configured default
// before the first Compute, the last computed boundary after.
type Threshold interface {
	Metric

	// Value returns the current decision boundary
	Value() float64

	// SetValue overrides the boundary (used to force pixel = image when an
	// epoch lacks pixel ground truth)
	SetValue(v float64)
}

// MetricSink receives computed metric values for routing to a logging or
// tracking backend. The adapter calls it once per epoch-end with the full
// metric map.
type MetricSink interface {
	LogDict(metrics map[string]float64)
}
