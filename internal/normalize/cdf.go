package normalize

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"govigil/domain/batch"
	"govigil/domain/core"
	"govigil/internal/metrics"
)

// CDFNormalizer maps scores onto probabilities through the standard normal
// CDF. Raw scores are standardized against the log-space distribution
// fitted from the validation pass, thresholds are then computed in
// standardized space, and the final probability of a score equal to the
// boundary is Phi(0) = 0.5.
type CDFNormalizer struct {
	dist  *metrics.ScoreDistribution
	image *metrics.AdaptiveThreshold
	pixel *metrics.AdaptiveThreshold
}

// NewCDFNormalizer wires the normalizer against a distribution accumulator
// and the two decision boundaries
func NewCDFNormalizer(dist *metrics.ScoreDistribution, image, pixel *metrics.AdaptiveThreshold) *CDFNormalizer {
	return &CDFNormalizer{dist: dist, image: image, pixel: pixel}
}

func (n *CDFNormalizer) Name() string { return string(MethodCDF) }

// Observe folds one output's raw scores into the distribution accumulator
func (n *CDFNormalizer) Observe(out *batch.BatchOutput) error {
	if out.HasPredScores() {
		n.dist.UpdateScores(out.PredScores)
	}
	if out.HasAnomalyMaps() {
		return n.dist.UpdateMaps(out.AnomalyMaps)
	}
	return nil
}

// Fit freezes the accumulated observations into distribution parameters
func (n *CDFNormalizer) Fit() error {
	return n.dist.Compute()
}

// PrepareValidation standardizes a validation output in place so that the
// epoch-end threshold computation happens in standardized space
func (n *CDFNormalizer) PrepareValidation(out *batch.BatchOutput) error {
	return n.standardize(out)
}

// Apply standardizes one output and squashes it through the normal CDF
// centered on the matching decision boundary
func (n *CDFNormalizer) Apply(out *batch.BatchOutput) error {
	if err := n.standardize(out); err != nil {
		return err
	}
	if out.HasPredScores() {
		boundary := n.image.Value()
		for i, v := range out.PredScores {
			out.PredScores[i] = distuv.UnitNormal.CDF(v - boundary)
		}
	}
	if out.HasAnomalyMaps() {
		boundary := n.pixel.Value()
		out.AnomalyMaps.Apply(func(v float64) float64 {
			return distuv.UnitNormal.CDF(v - boundary)
		})
	}
	return nil
}

// standardize rewrites scores as log-space z-scores. Anomaly maps use the
// per-position pixel fit and are re-centered on the image mean so image
// and pixel scores share one origin.
func (n *CDFNormalizer) standardize(out *batch.BatchOutput) error {
	imageMean, imageStd, err := n.dist.ImageStats()
	if err != nil {
		return err
	}

	if out.HasPredScores() {
		for i, v := range out.PredScores {
			out.PredScores[i] = (math.Log(v) - imageMean) / imageStd
		}
	}

	if out.HasAnomalyMaps() {
		pixelMean, pixelStd, err := n.dist.PixelStats()
		if err != nil {
			return err
		}
		maps := out.AnomalyMaps
		size := maps.SampleSize()
		if size != len(pixelMean) {
			return core.NewShapeError([]int{len(pixelMean)}, []int{size})
		}
		values := maps.Values()
		for i, v := range values {
			j := i % size
			z := (math.Log(v) - pixelMean[j]) / pixelStd[j]
			z -= (imageMean - pixelMean[j]) / pixelStd[j]
			values[i] = z
		}
	}
	return nil
}
