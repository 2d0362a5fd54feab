package metrics

import (
	"math"

	"github.com/montanaflynn/stats"

	"govigil/domain/core"
	"govigil/domain/tensor"
)

// ScoreDistribution fits a Gaussian to the log of the scores seen during
// validation: one scalar fit for image scores, one per-position fit for
// anomaly maps. Downstream normalization standardizes new scores against
// these fits.
type ScoreDistribution struct {
	imageScores []float64   // log image scores
	mapSamples  [][]float64 // log anomaly maps, flattened per sample
	mapLen      int

	imageMean float64
	imageStd  float64
	pixelMean []float64
	pixelStd  []float64
	fitted    bool
}

// NewScoreDistribution creates an empty distribution tracker
func NewScoreDistribution() *ScoreDistribution {
	return &ScoreDistribution{}
}

// UpdateScores folds a batch of image scores into the accumulator
func (d *ScoreDistribution) UpdateScores(scores []float64) {
	for _, s := range scores {
		d.imageScores = append(d.imageScores, math.Log(s))
	}
}

// UpdateMaps folds a batch of anomaly maps into the accumulator. All maps
// across the epoch must share one spatial shape.
func (d *ScoreDistribution) UpdateMaps(maps *tensor.Tensor) error {
	if maps == nil {
		return nil
	}
	size := maps.SampleSize()
	if d.mapLen == 0 {
		d.mapLen = size
	} else if d.mapLen != size {
		return core.NewShapeError([]int{d.mapLen}, []int{size})
	}
	for i := 0; i < maps.Samples(); i++ {
		sample := maps.Sample(i)
		logged := make([]float64, len(sample))
		for j, v := range sample {
			logged[j] = math.Log(v)
		}
		d.mapSamples = append(d.mapSamples, logged)
	}
	return nil
}

// Compute fits the image-level and per-position pixel-level Gaussians
func (d *ScoreDistribution) Compute() error {
	if len(d.imageScores) == 0 && len(d.mapSamples) == 0 {
		return core.ErrNoObservations
	}

	if len(d.imageScores) > 0 {
		mean, err := stats.Mean(stats.Float64Data(d.imageScores))
		if err != nil {
			return err
		}
		std, err := stats.StandardDeviationSample(stats.Float64Data(d.imageScores))
		if err != nil {
			return err
		}
		d.imageMean = mean
		d.imageStd = std
	}

	if len(d.mapSamples) > 0 {
		d.pixelMean = make([]float64, d.mapLen)
		d.pixelStd = make([]float64, d.mapLen)
		column := make([]float64, len(d.mapSamples))
		for j := 0; j < d.mapLen; j++ {
			for i, sample := range d.mapSamples {
				column[i] = sample[j]
			}
			mean, err := stats.Mean(stats.Float64Data(column))
			if err != nil {
				return err
			}
			std, err := stats.StandardDeviationSample(stats.Float64Data(column))
			if err != nil {
				return err
			}
			d.pixelMean[j] = mean
			d.pixelStd[j] = std
		}
	}

	d.fitted = true
	return nil
}

// ImageStats returns the fitted log-space mean and standard deviation of
// image scores
func (d *ScoreDistribution) ImageStats() (mean, std float64, err error) {
	if !d.fitted {
		return 0, 0, core.ErrNoObservations
	}
	return d.imageMean, d.imageStd, nil
}

// PixelStats returns the fitted per-position log-space means and standard
// deviations of anomaly maps
func (d *ScoreDistribution) PixelStats() (mean, std []float64, err error) {
	if !d.fitted || d.pixelMean == nil {
		return nil, nil, core.ErrNoObservations
	}
	return d.pixelMean, d.pixelStd, nil
}

// Fitted reports whether Compute has run
func (d *ScoreDistribution) Fitted() bool {
	return d.fitted
}

// Reset clears accumulated state and fits
func (d *ScoreDistribution) Reset() {
	d.imageScores = nil
	d.mapSamples = nil
	d.mapLen = 0
	d.pixelMean = nil
	d.pixelStd = nil
	d.fitted = false
}
