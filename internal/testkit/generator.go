package testkit

import (
	"fmt"
	"math"
	"math/rand"

	"govigil/domain/batch"
	"govigil/domain/core"
	"govigil/domain/tensor"
)

// DatasetConfig configures the synthetic dataset generator
type DatasetConfig struct {
	SampleCount  int     `json:"sample_count"`
	AnomalyRatio float64 `json:"anomaly_ratio"`
	BatchSize    int     `json:"batch_size"`
	MapHeight    int     `json:"map_height"`
	MapWidth     int     `json:"map_width"`
	WithMasks    bool    `json:"with_masks"`
	Seed         int64   `json:"seed"`
}

// DefaultDatasetConfig returns sensible defaults for synthetic evaluation data
func DefaultDatasetConfig() DatasetConfig {
	return DatasetConfig{
		SampleCount:  96,
		AnomalyRatio: 0.3,
		BatchSize:    16,
		MapHeight:    8,
		MapWidth:     8,
		WithMasks:    true,
		Seed:         42,
	}
}

// DatasetGenerator produces labeled synthetic batches. Samples are drawn
// deterministically from the seed: anomalous samples carry a rectangular
// defect region in their mask, normal samples an all-zero mask.
type DatasetGenerator struct {
	config DatasetConfig
	rng    *rand.Rand
}

// NewDatasetGenerator creates a generator for the given configuration
func NewDatasetGenerator(config DatasetConfig) *DatasetGenerator {
	return &DatasetGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// GenerateBatches produces the full dataset split into batches. Sample names
// carry the prefix so validation and test splits stay distinguishable.
func (g *DatasetGenerator) GenerateBatches(prefix string) ([]*batch.Batch, error) {
	if g.config.SampleCount <= 0 {
		return nil, core.NewValidationError("sample_count", "must be positive")
	}
	if g.config.BatchSize <= 0 {
		return nil, core.NewValidationError("batch_size", "must be positive")
	}
	if g.config.AnomalyRatio < 0 || g.config.AnomalyRatio > 1 {
		return nil, core.NewValidationError("anomaly_ratio", "must be within [0, 1]")
	}

	anomalyCount := int(math.Round(float64(g.config.SampleCount) * g.config.AnomalyRatio))

	// interleave anomalies through the dataset so every batch sees both kinds
	labels := make([]int, g.config.SampleCount)
	if anomalyCount > 0 {
		stride := float64(g.config.SampleCount) / float64(anomalyCount)
		for i := 0; i < anomalyCount; i++ {
			labels[int(float64(i)*stride)] = 1
		}
	}

	var batches []*batch.Batch
	for start := 0; start < g.config.SampleCount; start += g.config.BatchSize {
		end := start + g.config.BatchSize
		if end > g.config.SampleCount {
			end = g.config.SampleCount
		}
		b, err := g.generateBatch(prefix, start, labels[start:end])
		if err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	return batches, nil
}

func (g *DatasetGenerator) generateBatch(prefix string, offset int, labels []int) (*batch.Batch, error) {
	n := len(labels)
	h, w := g.config.MapHeight, g.config.MapWidth

	names := make([]string, n)
	for i := range names {
		kind := "good"
		if labels[i] == 1 {
			kind = "defect"
		}
		names[i] = fmt.Sprintf("%s_%s_%04d.png", prefix, kind, offset+i)
	}

	images := make([]float64, n*h*w)
	for i := range images {
		images[i] = 0.5 + g.rng.NormFloat64()*0.1
	}
	imageTensor, err := tensor.New([]int{n, h, w}, images)
	if err != nil {
		return nil, err
	}

	b := &batch.Batch{
		ID:     core.NewBatchID(),
		Names:  names,
		Images: imageTensor,
		Labels: append([]int(nil), labels...),
	}

	if g.config.WithMasks {
		masks := make([]float64, n*h*w)
		for i, label := range labels {
			if label == 1 {
				g.paintDefect(masks[i*h*w:(i+1)*h*w], h, w)
			}
		}
		maskTensor, err := tensor.New([]int{n, h, w}, masks)
		if err != nil {
			return nil, err
		}
		b.Masks = maskTensor
	}
	return b, nil
}

// paintDefect marks a random rectangle of at least 2x2 pixels as anomalous
func (g *DatasetGenerator) paintDefect(mask []float64, h, w int) {
	defectH := 2 + g.rng.Intn(h/2)
	defectW := 2 + g.rng.Intn(w/2)
	top := g.rng.Intn(h - defectH + 1)
	left := g.rng.Intn(w - defectW + 1)

	for y := top; y < top+defectH; y++ {
		for x := left; x < left+defectW; x++ {
			mask[y*w+x] = 1
		}
	}
}
