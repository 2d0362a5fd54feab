package ports

import (
	"context"

	"govigil/domain/batch"
)

// BatchSource supplies the batches for one evaluation phase. Next returns
// core.ErrEndOfData when the source is exhausted; a source is iterated at
// most once per phase.
type BatchSource interface {
	// Name identifies the dataset for run fingerprinting
	Name() string

	// Next returns the next batch, or core.ErrEndOfData when exhausted
	Next(ctx context.Context) (*batch.Batch, error)
}
