package ports

import (
	"context"

	"govigil/domain/batch"
	"govigil/domain/core"
	"govigil/domain/tensor"
)

// AnomalyScorer is the model contract the lifecycle adapter wraps. ValidationStep
// is the required scoring method: there is no default scoring, so implementations
// that cannot score must not be wired into an adapter.
type AnomalyScorer interface {
	// Name identifies the scorer for run fingerprinting
	Name() string

	// Forward produces the raw model output for a batch. Failures propagate
	// to the caller untouched.
	Forward(ctx context.Context, b *batch.Batch) (*tensor.Tensor, error)

	// ValidationStep scores one batch, returning per-sample scores and/or
	// anomaly maps along with the batch's ground truth
	ValidationStep(ctx context.Context, b *batch.Batch) (*batch.BatchOutput, error)
}

// UnimplementedScorer can be embedded by scorers that only override part of
// the contract. Every method fails fast with a configuration error, so an
// incomplete scorer is caught on first use rather than producing silent
// defaults.
type UnimplementedScorer struct{}

func (UnimplementedScorer) Name() string { return "unimplemented" }

func (UnimplementedScorer) Forward(ctx context.Context, b *batch.Batch) (*tensor.Tensor, error) {
	return nil, core.ErrNotImplemented
}

func (UnimplementedScorer) ValidationStep(ctx context.Context, b *batch.Batch) (*batch.BatchOutput, error) {
	return nil, core.ErrNotImplemented
}
