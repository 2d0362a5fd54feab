package normalize

import (
	"math"

	"govigil/domain/batch"
	"govigil/internal/metrics"
)

// MinMaxNormalizer rescales scores into [0, 1] using the raw score range
// observed during validation. The decision boundary lands at 0.5, so a
// normalized score reads directly as "how far past the boundary".
type MinMaxNormalizer struct {
	stats *metrics.MinMax
	image *metrics.AdaptiveThreshold
	pixel *metrics.AdaptiveThreshold
}

// NewMinMaxNormalizer wires the normalizer against a range accumulator and
// the two decision boundaries
func NewMinMaxNormalizer(stats *metrics.MinMax, image, pixel *metrics.AdaptiveThreshold) *MinMaxNormalizer {
	return &MinMaxNormalizer{stats: stats, image: image, pixel: pixel}
}

func (n *MinMaxNormalizer) Name() string { return string(MethodMinMax) }

// Observe widens the tracked range with one output's raw values. Anomaly
// maps carry the extremes when present, plain scores otherwise.
func (n *MinMaxNormalizer) Observe(out *batch.BatchOutput) error {
	if out.HasAnomalyMaps() {
		n.stats.UpdateTensor(out.AnomalyMaps)
		return nil
	}
	if out.HasPredScores() {
		n.stats.Update(out.PredScores)
	}
	return nil
}

// Fit is a no-op; the range is complete once observation ends
func (n *MinMaxNormalizer) Fit() error { return nil }

// PrepareValidation leaves validation outputs raw so the adaptive
// thresholds are computed in the original score space
func (n *MinMaxNormalizer) PrepareValidation(out *batch.BatchOutput) error { return nil }

// Apply rescales scores and maps in place against the observed range
func (n *MinMaxNormalizer) Apply(out *batch.BatchOutput) error {
	min, err := n.stats.Min()
	if err != nil {
		return err
	}
	max, err := n.stats.Max()
	if err != nil {
		return err
	}

	if out.HasPredScores() {
		boundary := n.image.Value()
		for i, v := range out.PredScores {
			out.PredScores[i] = rescale(v, boundary, min, max)
		}
	}
	if out.HasAnomalyMaps() {
		boundary := n.pixel.Value()
		out.AnomalyMaps.Apply(func(v float64) float64 {
			return rescale(v, boundary, min, max)
		})
	}
	return nil
}

// rescale centers a value on the boundary, scales by the observed range
// and clamps to [0, 1], so a raw value at the boundary maps to 0.5
func rescale(v, boundary, min, max float64) float64 {
	normalized := (v-boundary)/(max-min) + 0.5
	return math.Min(math.Max(normalized, 0), 1)
}
