package testkit

import (
	"context"
	"math"
	"math/rand"
	"sync"

	"govigil/domain/batch"
	"govigil/domain/core"
	"govigil/domain/tensor"
)

// ScorerConfig configures the synthetic scorer's score levels
type ScorerConfig struct {
	NormalMean    float64 `json:"normal_mean"`
	AnomalousMean float64 `json:"anomalous_mean"`
	NoiseStd      float64 `json:"noise_std"`
	Seed          int64   `json:"seed"`
}

// DefaultScorerConfig returns score levels with clear class separation
func DefaultScorerConfig() ScorerConfig {
	return ScorerConfig{
		NormalMean:    0.3,
		AnomalousMean: 0.7,
		NoiseStd:      0.05,
		Seed:          7,
	}
}

// NoisyScorer fabricates anomaly scores correlated with a batch's ground
// truth, standing in for a trained model. Batches with masks get per-pixel
// anomaly maps whose hot regions follow the mask; the image score is then
// left for post-processing to derive. Batches without masks get plain
// per-sample scores. Scores stay strictly positive so log-space
// normalization remains applicable.
type NoisyScorer struct {
	config ScorerConfig

	mu  sync.Mutex
	rng *rand.Rand
}

// NewNoisyScorer creates a deterministic synthetic scorer
func NewNoisyScorer(config ScorerConfig) *NoisyScorer {
	return &NoisyScorer{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

func (s *NoisyScorer) Name() string {
	return "synthetic-noisy"
}

// Forward returns the raw anomaly maps, or the scores as (n, 1) maps when
// the batch has no pixel ground truth to shape them
func (s *NoisyScorer) Forward(ctx context.Context, b *batch.Batch) (*tensor.Tensor, error) {
	out, err := s.ValidationStep(ctx, b)
	if err != nil {
		return nil, err
	}
	if out.HasAnomalyMaps() {
		return out.AnomalyMaps, nil
	}
	return tensor.New([]int{len(out.PredScores), 1}, append([]float64(nil), out.PredScores...))
}

// ValidationStep scores one batch against its own ground truth
func (s *NoisyScorer) ValidationStep(ctx context.Context, b *batch.Batch) (*batch.BatchOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if b == nil || b.Samples() == 0 {
		return nil, core.NewValidationError("batch", "must carry samples")
	}

	out := &batch.BatchOutput{Names: b.Names, Labels: b.Labels, Masks: b.Masks}

	if b.Masks != nil {
		maps, err := s.synthesizeMaps(b)
		if err != nil {
			return nil, err
		}
		out.AnomalyMaps = maps
		return out, nil
	}

	scores := make([]float64, b.Samples())
	for i := range scores {
		scores[i] = s.scoreFor(labelAt(b.Labels, i))
	}
	out.PredScores = scores
	return out, nil
}

// synthesizeMaps builds anomaly maps matching the mask shape: masked pixels
// score near the anomalous mean, the rest near half the normal mean so the
// per-sample maximum lands at the right level for both classes
func (s *NoisyScorer) synthesizeMaps(b *batch.Batch) (*tensor.Tensor, error) {
	maskValues := b.Masks.Values()
	values := make([]float64, len(maskValues))
	base := s.config.NormalMean * 0.5
	for i, m := range maskValues {
		if m > 0 {
			values[i] = s.config.AnomalousMean + math.Abs(s.noise())
		} else {
			values[i] = base + math.Abs(s.noise())
		}
	}
	return tensor.New(b.Masks.Shape(), values)
}

func (s *NoisyScorer) scoreFor(label int) float64 {
	mean := s.config.NormalMean
	if label == 1 {
		mean = s.config.AnomalousMean
	}
	v := mean + s.noise()
	return math.Max(v, 1e-6)
}

func (s *NoisyScorer) noise() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.NormFloat64() * s.config.NoiseStd
}

// labelAt treats absent labels as normal, covering predict-time batches
func labelAt(labels []int, i int) int {
	if i >= len(labels) {
		return 0
	}
	return labels[i]
}
