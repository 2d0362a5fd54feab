package metrics

import (
	"errors"
	"math"
	"testing"

	"govigil/domain/core"
)

// TestF1PerfectPrediction tests F1 = 1 when the cutoff separates the classes
func TestF1PerfectPrediction(t *testing.T) {
	f := NewF1Score(0.5)
	f.Update([]float64{0.1, 0.2, 0.8, 0.9}, []int{0, 0, 1, 1})

	v, err := f.Compute()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if math.Abs(v-1.0) > 1e-9 {
		t.Errorf("Expected F1 1.0, got %v", v)
	}
}

// TestF1KnownValue tests against hand-computed precision and recall
func TestF1KnownValue(t *testing.T) {
	f := NewF1Score(0.5)
	f.Update([]float64{0.9, 0.8, 0.3, 0.7}, []int{1, 0, 1, 0})

	v, err := f.Compute()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	// tp=1 fp=2 fn=1: precision=1/3, recall=1/2, F1=0.4
	if math.Abs(v-0.4) > 1e-9 {
		t.Errorf("Expected F1 0.4, got %v", v)
	}
}

// TestF1ThresholdAppliedAtCompute tests that the cutoff is applied lazily,
// so a sync after updates changes the score
func TestF1ThresholdAppliedAtCompute(t *testing.T) {
	f := NewF1Score(0.5)
	f.Update([]float64{0.9, 0.8, 0.3, 0.7}, []int{1, 0, 1, 0})

	f.SetThreshold(0.85)
	v, err := f.Compute()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	// At 0.85: tp=1 fp=0 fn=1: precision=1, recall=1/2, F1=2/3
	if math.Abs(v-2.0/3.0) > 1e-9 {
		t.Errorf("Expected F1 2/3 after threshold sync, got %v", v)
	}
	if f.Threshold() != 0.85 {
		t.Errorf("Expected threshold 0.85, got %v", f.Threshold())
	}
}

// TestF1DegenerateZero tests the zero-division guard
func TestF1DegenerateZero(t *testing.T) {
	f := NewF1Score(0.5)
	// Nothing predicted positive, nothing actually positive
	f.Update([]float64{0.1, 0.2}, []int{0, 0})

	v, err := f.Compute()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if v != 0 {
		t.Errorf("Expected F1 0 for degenerate epoch, got %v", v)
	}
}

// TestF1Empty tests the no-observations error
func TestF1Empty(t *testing.T) {
	f := NewF1Score(0.5)
	if _, err := f.Compute(); !errors.Is(err, core.ErrNoObservations) {
		t.Errorf("Expected no-observations error, got %v", err)
	}
}

// TestF1ResetKeepsThreshold tests that Reset clears pairs but not the cutoff
func TestF1ResetKeepsThreshold(t *testing.T) {
	f := NewF1Score(0.5)
	f.SetThreshold(0.7)
	f.Update([]float64{0.9}, []int{1})
	f.Reset()

	if f.Threshold() != 0.7 {
		t.Errorf("Expected threshold 0.7 to survive reset, got %v", f.Threshold())
	}
	if _, err := f.Compute(); !errors.Is(err, core.ErrNoObservations) {
		t.Errorf("Expected no-observations error after reset, got %v", err)
	}
}
