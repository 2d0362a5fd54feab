// Package testkit provides deterministic synthetic datasets and scorers
// for exercising the evaluation pipeline without a trained model.
package testkit

import (
	"context"
	"sync"

	"govigil/domain/batch"
	"govigil/domain/core"
)

// SyntheticSource replays a fixed slice of batches and then reports end of
// data. Rewind restarts iteration for reuse across evaluation phases.
type SyntheticSource struct {
	name    string
	batches []*batch.Batch

	mu  sync.Mutex
	pos int
}

// NewSyntheticSource wraps pre-generated batches as a batch source
func NewSyntheticSource(name string, batches []*batch.Batch) *SyntheticSource {
	return &SyntheticSource{name: name, batches: batches}
}

func (s *SyntheticSource) Name() string {
	return s.name
}

// Next returns the next batch or core.ErrEndOfData once exhausted
func (s *SyntheticSource) Next(ctx context.Context) (*batch.Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pos >= len(s.batches) {
		return nil, core.ErrEndOfData
	}
	b := s.batches[s.pos]
	s.pos++
	return b, nil
}

// Rewind restarts iteration from the first batch
func (s *SyntheticSource) Rewind() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pos = 0
}

// Len returns the total number of batches the source replays
func (s *SyntheticSource) Len() int {
	return len(s.batches)
}
