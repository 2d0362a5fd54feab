package tensor

import (
	"errors"
	"testing"

	"govigil/domain/core"
)

// TestNewValidation tests shape/data agreement checks
func TestNewValidation(t *testing.T) {
	tests := []struct {
		name  string
		shape []int
		data  []float64
		valid bool
	}{
		{"matching 2x3", []int{2, 3}, make([]float64, 6), true},
		{"scalar per sample", []int{4}, make([]float64, 4), true},
		{"too few elements", []int{2, 3}, make([]float64, 5), false},
		{"too many elements", []int{2, 2}, make([]float64, 6), false},
		{"zero dimension", []int{2, 0}, nil, false},
		{"negative dimension", []int{-1, 3}, nil, false},
		{"empty shape", []int{}, nil, false},
	}

	for _, test := range tests {
		_, err := New(test.shape, test.data)
		if test.valid && err != nil {
			t.Errorf("%s: unexpected error: %v", test.name, err)
		}
		if !test.valid {
			if err == nil {
				t.Errorf("%s: expected error, got none", test.name)
			} else if !errors.Is(err, core.ErrShapeMismatch) {
				t.Errorf("%s: expected shape mismatch error, got %v", test.name, err)
			}
		}
	}
}

// TestSampleMax tests per-sample maximum over spatial positions
func TestSampleMax(t *testing.T) {
	// 2 samples of 2x2 maps
	maps := MustNew([]int{2, 2, 2}, []float64{
		0.1, 0.4, 0.3, 0.2,
		0.9, 0.5, 0.7, 0.6,
	})

	if got := maps.SampleMax(0); got != 0.4 {
		t.Errorf("Expected sample 0 max 0.4, got %v", got)
	}
	if got := maps.SampleMax(1); got != 0.9 {
		t.Errorf("Expected sample 1 max 0.9, got %v", got)
	}
}

// TestSampleMaxNegativeValues tests the max is not anchored at zero
func TestSampleMaxNegativeValues(t *testing.T) {
	maps := MustNew([]int{1, 3}, []float64{-3.0, -1.5, -2.0})
	if got := maps.SampleMax(0); got != -1.5 {
		t.Errorf("Expected -1.5, got %v", got)
	}
}

// TestFlattenSamples tests the per-sample flattened view
func TestFlattenSamples(t *testing.T) {
	maps := MustNew([]int{2, 3}, []float64{1, 2, 3, 4, 5, 6})
	flat := maps.FlattenSamples()

	if len(flat) != 2 {
		t.Fatalf("Expected 2 samples, got %d", len(flat))
	}
	if len(flat[0]) != 3 || flat[0][2] != 3 {
		t.Errorf("Expected sample 0 = [1 2 3], got %v", flat[0])
	}
	if flat[1][0] != 4 {
		t.Errorf("Expected sample 1 to start at 4, got %v", flat[1][0])
	}
}

// TestApplyInPlace tests elementwise mutation
func TestApplyInPlace(t *testing.T) {
	m := MustNew([]int{1, 2}, []float64{1, 2})
	m.Apply(func(v float64) float64 { return v * 10 })
	if m.Values()[0] != 10 || m.Values()[1] != 20 {
		t.Errorf("Expected [10 20], got %v", m.Values())
	}
}

// TestCloneIndependence tests that clones do not share backing data
func TestCloneIndependence(t *testing.T) {
	orig := MustNew([]int{1, 2}, []float64{1, 2})
	clone := orig.Clone()
	clone.Apply(func(v float64) float64 { return 0 })

	if orig.Values()[0] != 1 {
		t.Errorf("Expected original untouched, got %v", orig.Values())
	}
	if clone.Values()[0] != 0 {
		t.Errorf("Expected clone zeroed, got %v", clone.Values())
	}
}

// TestNilTensorAccessors tests nil-safe accessors used by presence checks
func TestNilTensorAccessors(t *testing.T) {
	var none *Tensor
	if none.Samples() != 0 {
		t.Errorf("Expected 0 samples for nil tensor, got %d", none.Samples())
	}
	if none.SampleSize() != 0 {
		t.Errorf("Expected 0 sample size for nil tensor, got %d", none.SampleSize())
	}
	if none.Clone() != nil {
		t.Error("Expected nil clone for nil tensor")
	}
}
