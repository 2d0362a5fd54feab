package metrics

import (
	"math"

	"github.com/montanaflynn/stats"

	"govigil/domain/core"
	"govigil/domain/tensor"
)

// MinMax tracks the observed score range across updates. Normalizers use it
// to rescale scores and thresholds into [0, 1] after validation.
type MinMax struct {
	min  float64
	max  float64
	seen bool
}

// NewMinMax creates an empty range tracker
func NewMinMax() *MinMax {
	return &MinMax{min: math.Inf(1), max: math.Inf(-1)}
}

// Update folds a batch of values into the running range
func (m *MinMax) Update(values []float64) {
	if len(values) == 0 {
		return
	}
	lo, err := stats.Min(stats.Float64Data(values))
	if err != nil {
		return
	}
	hi, err := stats.Max(stats.Float64Data(values))
	if err != nil {
		return
	}
	if lo < m.min {
		m.min = lo
	}
	if hi > m.max {
		m.max = hi
	}
	m.seen = true
}

// UpdateTensor folds every element of a tensor into the running range
func (m *MinMax) UpdateTensor(t *tensor.Tensor) {
	if t == nil {
		return
	}
	m.Update(t.Values())
}

// Min returns the smallest observed value
func (m *MinMax) Min() (float64, error) {
	if !m.seen {
		return 0, core.ErrNoObservations
	}
	return m.min, nil
}

// Max returns the largest observed value
func (m *MinMax) Max() (float64, error) {
	if !m.seen {
		return 0, core.ErrNoObservations
	}
	return m.max, nil
}

// Range returns max - min
func (m *MinMax) Range() (float64, error) {
	if !m.seen {
		return 0, core.ErrNoObservations
	}
	return m.max - m.min, nil
}

// Reset clears the observed range
func (m *MinMax) Reset() {
	m.min = math.Inf(1)
	m.max = math.Inf(-1)
	m.seen = false
}
