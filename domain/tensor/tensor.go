package tensor

import (
	"fmt"

	"govigil/domain/core"
)

// ============================================================================
// DENSE TENSOR PRIMITIVE
// ============================================================================

// Tensor is a dense, row-major float64 tensor. The leading dimension is the
// sample (batch) dimension; trailing dimensions are spatial.
// INVARIANTS:
// - len(data) == product of shape
// - every shape entry > 0
type Tensor struct {
	shape []int
	data  []float64
}

// New creates a tensor after validating shape/data agreement
func New(shape []int, data []float64) (*Tensor, error) {
	if err := validateShape(shape, data); err != nil {
		return nil, err
	}
	s := make([]int, len(shape))
	copy(s, shape)
	return &Tensor{shape: s, data: data}, nil
}

// MustNew creates a tensor or panics. Use only in tests.
func MustNew(shape []int, data []float64) *Tensor {
	t, err := New(shape, data)
	if err != nil {
		panic(fmt.Sprintf("MustNew: %v", err))
	}
	return t
}

// Zeros creates a zero-filled tensor with the given shape
func Zeros(shape ...int) *Tensor {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return MustNew(shape, make([]float64, n))
}

func validateShape(shape []int, data []float64) error {
	if len(shape) == 0 {
		return fmt.Errorf("%w: empty shape", core.ErrShapeMismatch)
	}
	n := 1
	for _, d := range shape {
		if d <= 0 {
			return fmt.Errorf("%w: non-positive dimension %d in %v", core.ErrShapeMismatch, d, shape)
		}
		n *= d
	}
	if n != len(data) {
		return fmt.Errorf("%w: shape %v holds %d elements, data has %d", core.ErrShapeMismatch, shape, n, len(data))
	}
	return nil
}

// ============================================================================
// ACCESSORS
// ============================================================================

// Shape returns a copy of the tensor's dimensions
func (t *Tensor) Shape() []int {
	s := make([]int, len(t.shape))
	copy(s, t.shape)
	return s
}

// Len returns the total element count
func (t *Tensor) Len() int {
	return len(t.data)
}

// Samples returns the size of the leading (batch) dimension
func (t *Tensor) Samples() int {
	if t == nil || len(t.shape) == 0 {
		return 0
	}
	return t.shape[0]
}

// SampleSize returns the flattened element count per sample
func (t *Tensor) SampleSize() int {
	if t == nil || len(t.shape) == 0 {
		return 0
	}
	n := 1
	for _, d := range t.shape[1:] {
		n *= d
	}
	return n
}

// Values returns the backing row-major data slice. Callers must not resize it.
func (t *Tensor) Values() []float64 {
	return t.data
}

// ============================================================================
// SAMPLE OPERATIONS
// ============================================================================

// Sample returns the flattened values of sample i as a subslice of the
// backing data
func (t *Tensor) Sample(i int) []float64 {
	size := t.SampleSize()
	return t.data[i*size : (i+1)*size]
}

// SampleMax returns the maximum over all spatial positions of sample i
func (t *Tensor) SampleMax(i int) float64 {
	vals := t.Sample(i)
	max := vals[0]
	for _, v := range vals[1:] {
		if v > max {
			max = v
		}
	}
	return max
}

// FlattenSamples returns one flattened slice per sample, sharing the
// backing data
func (t *Tensor) FlattenSamples() [][]float64 {
	out := make([][]float64, t.Samples())
	for i := range out {
		out[i] = t.Sample(i)
	}
	return out
}

// ============================================================================
// MUTATION
// ============================================================================

// Apply replaces every element with f(element), in place
func (t *Tensor) Apply(f func(float64) float64) {
	for i, v := range t.data {
		t.data[i] = f(v)
	}
}

// Clone returns a deep copy
func (t *Tensor) Clone() *Tensor {
	if t == nil {
		return nil
	}
	data := make([]float64, len(t.data))
	copy(data, t.data)
	return MustNew(t.shape, data)
}
