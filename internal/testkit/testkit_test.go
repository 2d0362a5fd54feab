package testkit

import (
	"context"
	"errors"
	"strings"
	"testing"

	"govigil/domain/batch"
	"govigil/domain/core"
)

func TestGenerateBatchesShape(t *testing.T) {
	config := DefaultDatasetConfig()
	gen := NewDatasetGenerator(config)

	batches, err := gen.GenerateBatches("val")
	if err != nil {
		t.Fatalf("GenerateBatches failed: %v", err)
	}

	if len(batches) != 6 {
		t.Errorf("Expected 96 samples in 6 batches of 16, got %d batches", len(batches))
	}

	total := 0
	anomalies := 0
	for _, b := range batches {
		total += b.Samples()
		if len(b.Names) != b.Samples() || len(b.Labels) != b.Samples() {
			t.Errorf("Expected names and labels per sample, got %d/%d for %d samples",
				len(b.Names), len(b.Labels), b.Samples())
		}
		if b.Masks == nil {
			t.Error("Expected masks with WithMasks enabled")
		}
		for _, label := range b.Labels {
			anomalies += label
		}
		for _, name := range b.Names {
			if !strings.HasPrefix(name, "val_") {
				t.Errorf("Expected name prefixed val_, got %s", name)
			}
		}
	}
	if total != 96 {
		t.Errorf("Expected 96 samples total, got %d", total)
	}
	// round(96 * 0.3)
	if anomalies != 29 {
		t.Errorf("Expected 29 anomalous samples, got %d", anomalies)
	}
}

func TestGenerateBatchesMasksFollowLabels(t *testing.T) {
	gen := NewDatasetGenerator(DatasetConfig{
		SampleCount:  8,
		AnomalyRatio: 0.5,
		BatchSize:    8,
		MapHeight:    8,
		MapWidth:     8,
		WithMasks:    true,
		Seed:         3,
	})

	batches, err := gen.GenerateBatches("test")
	if err != nil {
		t.Fatalf("GenerateBatches failed: %v", err)
	}

	b := batches[0]
	for i, label := range b.Labels {
		sum := 0.0
		for _, v := range b.Masks.Sample(i) {
			sum += v
		}
		if label == 1 && sum < 4 {
			t.Errorf("Expected defect region of at least 2x2 in sample %d, got mask sum %v", i, sum)
		}
		if label == 0 && sum != 0 {
			t.Errorf("Expected empty mask for normal sample %d, got sum %v", i, sum)
		}
	}
}

func TestGenerateBatchesDeterministic(t *testing.T) {
	config := DefaultDatasetConfig()

	first, err := NewDatasetGenerator(config).GenerateBatches("val")
	if err != nil {
		t.Fatalf("GenerateBatches failed: %v", err)
	}
	second, err := NewDatasetGenerator(config).GenerateBatches("val")
	if err != nil {
		t.Fatalf("GenerateBatches failed: %v", err)
	}

	for i := range first {
		if first[i].Names[0] != second[i].Names[0] {
			t.Errorf("Expected identical names for seed %d, got %s vs %s",
				config.Seed, first[i].Names[0], second[i].Names[0])
		}
		a, b := first[i].Images.Values(), second[i].Images.Values()
		for j := range a {
			if a[j] != b[j] {
				t.Fatalf("Expected identical images for equal seeds, batch %d position %d differs", i, j)
			}
		}
	}
}

func TestGenerateBatchesValidation(t *testing.T) {
	tests := []struct {
		name   string
		config DatasetConfig
	}{
		{"zero samples", DatasetConfig{SampleCount: 0, BatchSize: 4, AnomalyRatio: 0.5}},
		{"zero batch size", DatasetConfig{SampleCount: 4, BatchSize: 0, AnomalyRatio: 0.5}},
		{"ratio above one", DatasetConfig{SampleCount: 4, BatchSize: 4, AnomalyRatio: 1.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewDatasetGenerator(tt.config).GenerateBatches("x"); err == nil {
				t.Errorf("Expected validation error for %s", tt.name)
			}
		})
	}
}

func TestSyntheticSourceIteration(t *testing.T) {
	gen := NewDatasetGenerator(DatasetConfig{
		SampleCount: 8, AnomalyRatio: 0.25, BatchSize: 4,
		MapHeight: 4, MapWidth: 4, Seed: 1,
	})
	batches, err := gen.GenerateBatches("val")
	if err != nil {
		t.Fatalf("GenerateBatches failed: %v", err)
	}

	source := NewSyntheticSource("val", batches)
	if source.Len() != 2 {
		t.Fatalf("Expected 2 batches, got %d", source.Len())
	}

	ctx := context.Background()
	seen := 0
	for {
		b, err := source.Next(ctx)
		if errors.Is(err, core.ErrEndOfData) {
			break
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		if b.Samples() != 4 {
			t.Errorf("Expected 4 samples per batch, got %d", b.Samples())
		}
		seen++
	}
	if seen != 2 {
		t.Errorf("Expected 2 batches before end of data, got %d", seen)
	}

	source.Rewind()
	if _, err := source.Next(ctx); err != nil {
		t.Errorf("Expected Rewind to restart iteration, got %v", err)
	}
}

func TestSyntheticSourceHonorsContext(t *testing.T) {
	source := NewSyntheticSource("val", []*batch.Batch{{Names: []string{"a"}}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := source.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context cancellation to surface, got %v", err)
	}
}

func TestNoisyScorerSeparatesClasses(t *testing.T) {
	scorer := NewNoisyScorer(DefaultScorerConfig())

	b := &batch.Batch{
		Names:  []string{"n1", "n2", "a1", "a2"},
		Labels: []int{0, 0, 1, 1},
	}
	out, err := scorer.ValidationStep(context.Background(), b)
	if err != nil {
		t.Fatalf("ValidationStep failed: %v", err)
	}

	if !out.HasPredScores() {
		t.Fatal("Expected direct scores for a maskless batch")
	}
	for i := 0; i < 2; i++ {
		if out.PredScores[i] >= out.PredScores[i+2]-0.1 {
			t.Errorf("Expected clear separation, normal %v vs anomalous %v",
				out.PredScores[i], out.PredScores[i+2])
		}
		if out.PredScores[i] <= 0 {
			t.Errorf("Expected strictly positive score, got %v", out.PredScores[i])
		}
	}
}

func TestNoisyScorerSynthesizesMaps(t *testing.T) {
	gen := NewDatasetGenerator(DatasetConfig{
		SampleCount: 4, AnomalyRatio: 0.5, BatchSize: 4,
		MapHeight: 8, MapWidth: 8, WithMasks: true, Seed: 5,
	})
	batches, err := gen.GenerateBatches("val")
	if err != nil {
		t.Fatalf("GenerateBatches failed: %v", err)
	}

	scorer := NewNoisyScorer(DefaultScorerConfig())
	out, err := scorer.ValidationStep(context.Background(), batches[0])
	if err != nil {
		t.Fatalf("ValidationStep failed: %v", err)
	}

	if out.HasPredScores() {
		t.Error("Expected image scores left for post-processing when maps exist")
	}
	if !out.HasAnomalyMaps() || !out.HasMasks() {
		t.Fatal("Expected anomaly maps and ground-truth masks on the output")
	}

	for i, label := range out.Labels {
		max := out.AnomalyMaps.SampleMax(i)
		if label == 1 && max < 0.6 {
			t.Errorf("Expected anomalous sample %d map max near 0.7, got %v", i, max)
		}
		if label == 0 && max > 0.5 {
			t.Errorf("Expected normal sample %d map max well below 0.7, got %v", i, max)
		}
	}
}

func TestNoisyScorerWithoutLabels(t *testing.T) {
	scorer := NewNoisyScorer(DefaultScorerConfig())

	out, err := scorer.ValidationStep(context.Background(), &batch.Batch{Names: []string{"q"}})
	if err != nil {
		t.Fatalf("ValidationStep failed: %v", err)
	}
	if out.PredScores[0] > 0.5 {
		t.Errorf("Expected unlabeled sample scored at the normal level, got %v", out.PredScores[0])
	}
}
