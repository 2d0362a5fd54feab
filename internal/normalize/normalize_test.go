package normalize

import (
	"context"
	"errors"
	"math"
	"testing"

	"govigil/domain/batch"
	"govigil/domain/core"
	"govigil/domain/tensor"
	"govigil/internal/lifecycle"
	"govigil/internal/metrics"
)

func TestParseMethod(t *testing.T) {
	tests := []struct {
		input   string
		want    Method
		wantErr bool
	}{
		{"none", MethodNone, false},
		{"minmax", MethodMinMax, false},
		{"cdf", MethodCDF, false},
		{"zscore", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseMethod(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Expected error for %q, got method %q", tt.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("Expected %q to parse, got error: %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("Expected method %q, got %q", tt.want, got)
		}
	}
}

func TestMinMaxBoundaryLandsAtHalf(t *testing.T) {
	stats := metrics.NewMinMax()
	stats.Update([]float64{0.0, 1.0})

	var n Normalizer = NewMinMaxNormalizer(stats,
		metrics.NewAdaptiveThreshold(0.4), metrics.NewAdaptiveThreshold(0.4))

	out := &batch.BatchOutput{PredScores: []float64{0.4, 0.0, 1.0}}
	if err := n.Apply(out); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	// (v - 0.4) / (1 - 0) + 0.5, clamped to [0, 1]
	want := []float64{0.5, 0.1, 1.0}
	for i, w := range want {
		if math.Abs(out.PredScores[i]-w) > 1e-12 {
			t.Errorf("Expected normalized score %v at %d, got %v", w, i, out.PredScores[i])
		}
	}
}

func TestMinMaxClampsBelowZero(t *testing.T) {
	stats := metrics.NewMinMax()
	stats.Update([]float64{0.0, 2.0})

	n := NewMinMaxNormalizer(stats,
		metrics.NewAdaptiveThreshold(1.5), metrics.NewAdaptiveThreshold(1.5))

	out := &batch.BatchOutput{PredScores: []float64{0.0}}
	if err := n.Apply(out); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if out.PredScores[0] != 0 {
		t.Errorf("Expected score clamped to 0, got %v", out.PredScores[0])
	}
}

func TestMinMaxObservePrefersMaps(t *testing.T) {
	stats := metrics.NewMinMax()
	n := NewMinMaxNormalizer(stats,
		metrics.NewAdaptiveThreshold(0.5), metrics.NewAdaptiveThreshold(0.5))

	out := &batch.BatchOutput{
		PredScores:  []float64{5.0},
		AnomalyMaps: tensor.MustNew([]int{1, 2}, []float64{0.1, 0.9}),
	}
	if err := n.Observe(out); err != nil {
		t.Fatalf("Observe failed: %v", err)
	}

	max, err := stats.Max()
	if err != nil {
		t.Fatalf("Max failed: %v", err)
	}
	if max != 0.9 {
		t.Errorf("Expected range from maps (max 0.9), got max %v", max)
	}
}

func TestMinMaxRescalesMaps(t *testing.T) {
	stats := metrics.NewMinMax()
	stats.Update([]float64{0.0, 1.0})

	n := NewMinMaxNormalizer(stats,
		metrics.NewAdaptiveThreshold(0.5), metrics.NewAdaptiveThreshold(0.5))

	out := &batch.BatchOutput{
		AnomalyMaps: tensor.MustNew([]int{1, 2}, []float64{0.5, 0.75}),
	}
	if err := n.Apply(out); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	values := out.AnomalyMaps.Values()
	if math.Abs(values[0]-0.5) > 1e-12 || math.Abs(values[1]-0.75) > 1e-12 {
		t.Errorf("Expected map values [0.5 0.75], got %v", values)
	}
}

func TestMinMaxApplyBeforeObserve(t *testing.T) {
	n := NewMinMaxNormalizer(metrics.NewMinMax(),
		metrics.NewAdaptiveThreshold(0.5), metrics.NewAdaptiveThreshold(0.5))

	err := n.Apply(&batch.BatchOutput{PredScores: []float64{0.5}})
	if !errors.Is(err, core.ErrNoObservations) {
		t.Errorf("Expected ErrNoObservations before any range is seen, got %v", err)
	}
}

func TestCDFStandardizeAndApply(t *testing.T) {
	dist := metrics.NewScoreDistribution()
	// log scores 1 and 3: mean 2, sample std sqrt(2)
	dist.UpdateScores([]float64{math.Exp(1), math.Exp(3)})

	image := metrics.NewAdaptiveThreshold(0)
	n := NewCDFNormalizer(dist, image, metrics.NewAdaptiveThreshold(0))

	if err := n.Fit(); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	val := &batch.BatchOutput{PredScores: []float64{math.Exp(1), math.Exp(3)}}
	if err := n.PrepareValidation(val); err != nil {
		t.Fatalf("PrepareValidation failed: %v", err)
	}
	z := 1 / math.Sqrt2
	if math.Abs(val.PredScores[0]+z) > 1e-12 || math.Abs(val.PredScores[1]-z) > 1e-12 {
		t.Errorf("Expected standardized scores [-%v %v], got %v", z, z, val.PredScores)
	}

	// boundary 0 in standardized space: the mean score maps to Phi(0) = 0.5
	test := &batch.BatchOutput{PredScores: []float64{math.Exp(2), math.Exp(3)}}
	if err := n.Apply(test); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if math.Abs(test.PredScores[0]-0.5) > 1e-12 {
		t.Errorf("Expected mean score to normalize to 0.5, got %v", test.PredScores[0])
	}
	if math.Abs(test.PredScores[1]-0.7602499389065233) > 1e-9 {
		t.Errorf("Expected Phi(1/sqrt2) = 0.76025, got %v", test.PredScores[1])
	}
}

func TestCDFStandardizesMapsAgainstPixelFit(t *testing.T) {
	dist := metrics.NewScoreDistribution()
	dist.UpdateScores([]float64{math.Exp(1), math.Exp(3)})
	// position 0 logs {1, 3}: mean 2; position 1 logs {3, 5}: mean 4
	if err := dist.UpdateMaps(tensor.MustNew([]int{1, 2}, []float64{math.Exp(1), math.Exp(3)})); err != nil {
		t.Fatalf("UpdateMaps failed: %v", err)
	}
	if err := dist.UpdateMaps(tensor.MustNew([]int{1, 2}, []float64{math.Exp(3), math.Exp(5)})); err != nil {
		t.Fatalf("UpdateMaps failed: %v", err)
	}

	n := NewCDFNormalizer(dist, metrics.NewAdaptiveThreshold(0), metrics.NewAdaptiveThreshold(0))
	if err := n.Fit(); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	out := &batch.BatchOutput{
		AnomalyMaps: tensor.MustNew([]int{1, 2}, []float64{math.Exp(1), math.Exp(3)}),
	}
	if err := n.PrepareValidation(out); err != nil {
		t.Fatalf("PrepareValidation failed: %v", err)
	}

	// position 0: (1-2)/sqrt2 - (2-2)/sqrt2 = -1/sqrt2
	// position 1: (3-4)/sqrt2 - (2-4)/sqrt2 = +1/sqrt2
	z := 1 / math.Sqrt2
	values := out.AnomalyMaps.Values()
	if math.Abs(values[0]+z) > 1e-12 {
		t.Errorf("Expected position 0 standardized to -%v, got %v", z, values[0])
	}
	if math.Abs(values[1]-z) > 1e-12 {
		t.Errorf("Expected position 1 recentered to +%v, got %v", z, values[1])
	}
}

func TestCDFApplyBeforeFit(t *testing.T) {
	n := NewCDFNormalizer(metrics.NewScoreDistribution(),
		metrics.NewAdaptiveThreshold(0), metrics.NewAdaptiveThreshold(0))

	err := n.Apply(&batch.BatchOutput{PredScores: []float64{0.5}})
	if !errors.Is(err, core.ErrNoObservations) {
		t.Errorf("Expected ErrNoObservations before Fit, got %v", err)
	}
}

// fixedScorer satisfies the scorer contract for wiring tests
type fixedScorer struct{}

func (fixedScorer) Name() string { return "fixed" }

func (fixedScorer) Forward(ctx context.Context, b *batch.Batch) (*tensor.Tensor, error) {
	return nil, nil
}

func (fixedScorer) ValidationStep(ctx context.Context, b *batch.Batch) (*batch.BatchOutput, error) {
	return &batch.BatchOutput{PredScores: []float64{0.5}, Labels: []int{0}}, nil
}

func TestNewWiresAgainstAdapter(t *testing.T) {
	adapter, err := lifecycle.NewAdapter(lifecycle.Settings{
		Task:         batch.TaskClassification,
		DefaultImage: 0.5,
		DefaultPixel: 0.5,
	}, fixedScorer{}, nil)
	if err != nil {
		t.Fatalf("NewAdapter failed: %v", err)
	}

	n, err := New(MethodNone, adapter)
	if err != nil || n != nil {
		t.Errorf("Expected nil normalizer for none, got %v (err %v)", n, err)
	}

	n, err = New(MethodMinMax, adapter)
	if err != nil {
		t.Fatalf("New minmax failed: %v", err)
	}
	if _, ok := n.(*MinMaxNormalizer); !ok {
		t.Errorf("Expected MinMaxNormalizer, got %T", n)
	}

	n, err = New(MethodCDF, adapter)
	if err != nil {
		t.Fatalf("New cdf failed: %v", err)
	}
	if _, ok := n.(*CDFNormalizer); !ok {
		t.Errorf("Expected CDFNormalizer, got %T", n)
	}

	if _, err := New(Method("quantile"), adapter); err == nil {
		t.Error("Expected error for unknown method")
	}
}
