package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"govigil/domain/batch"
	"govigil/domain/core"
	"govigil/domain/run"
	"govigil/internal"
	"govigil/internal/lifecycle"
	"govigil/internal/normalize"
	"govigil/ports"
)

// Config carries the engine's evaluation parameters
type Config struct {
	Workers     int    // concurrent scoring goroutines
	LogDir      string // exporter output directory
	DatasetName string // recorded in the run fingerprint
	Seed        int64  // recorded in the run fingerprint
}

// Engine drives a full evaluation: a validation pass to fix the decision
// boundaries, a test pass to measure and collect per-sample results, then
// export and persistence. Scoring fans out across workers; everything that
// aggregates state runs on the calling goroutine in batch order.
type Engine struct {
	config     Config
	adapter    *lifecycle.Adapter
	normalizer normalize.Normalizer
	repo       ports.RunRepository
	exporters  []ports.ResultsExporter

	sem    *semaphore.Weighted
	logger *internal.Logger
}

// New builds an engine around a lifecycle adapter. The normalizer and
// repository may be nil; exporters may be empty.
func New(config Config, adapter *lifecycle.Adapter, normalizer normalize.Normalizer, repo ports.RunRepository, exporters ...ports.ResultsExporter) (*Engine, error) {
	if adapter == nil {
		return nil, core.NewValidationError("adapter", "must not be nil")
	}
	if config.Workers <= 0 {
		config.Workers = 1
	}

	return &Engine{
		config:     config,
		adapter:    adapter,
		normalizer: normalizer,
		repo:       repo,
		exporters:  exporters,
		sem:        semaphore.NewWeighted(int64(config.Workers)),
		logger:     internal.DefaultLogger.Component("Engine"),
	}, nil
}

// Evaluate runs the complete pipeline over a validation source and a test
// source, returning the finished run record. The returned run is also
// persisted when a repository is attached.
func (e *Engine) Evaluate(ctx context.Context, valSource, testSource ports.BatchSource) (*run.Run, error) {
	if valSource == nil || testSource == nil {
		return nil, core.NewValidationError("sources", "validation and test sources are required")
	}

	settings := e.adapter.Settings()
	fingerprint := run.NewRunFingerprint(e.config.DatasetName, e.adapter.ScorerName(), e.config.Seed)
	r := run.NewRun(settings.Task, fingerprint)
	r.StartedAt = core.NewStartedAt(time.Now())

	manifest := run.NewRunManifest(
		r.ID, settings.Task, settings.AdaptiveThreshold,
		settings.DefaultImage, settings.DefaultPixel,
		e.config.DatasetName, e.adapter.ScorerName(), e.config.Seed,
	)
	if err := manifest.Validate(); err != nil {
		return nil, err
	}
	if e.repo != nil {
		if err := e.repo.CreateRun(ctx, r, manifest); err != nil {
			return nil, fmt.Errorf("recording run: %w", err)
		}
	}

	e.logger.Info("run %s started: task=%s scorer=%s dataset=%s",
		r.ID, settings.Task, e.adapter.ScorerName(), e.config.DatasetName)

	if err := e.validatePhase(ctx, r, valSource); err != nil {
		return r, e.failRun(ctx, r, err)
	}
	if err := e.testPhase(ctx, r, testSource); err != nil {
		return r, e.failRun(ctx, r, err)
	}
	if err := e.exportResults(ctx); err != nil {
		return r, e.failRun(ctx, r, err)
	}
	if err := e.persistOutcome(ctx, r); err != nil {
		return r, e.failRun(ctx, r, err)
	}

	r.Status = run.StatusCompleted
	r.FinishedAt = core.NewFinishedAt(time.Now())
	if e.repo != nil {
		if err := e.repo.UpdateStatus(ctx, r.ID, run.StatusCompleted, ""); err != nil {
			return r, e.failRun(ctx, r, fmt.Errorf("marking run completed: %w", err))
		}
	}

	e.logger.Info("run %s completed in %.2fs: image_threshold=%.4f pixel_threshold=%.4f, %d results",
		r.ID, r.FinishedAt.Elapsed(r.StartedAt).Seconds(),
		r.ImageThreshold, r.PixelThreshold, e.adapter.Results().Len())
	return r, nil
}

// validatePhase scores the validation set and fixes the decision boundaries
func (e *Engine) validatePhase(ctx context.Context, r *run.Run, source ports.BatchSource) error {
	e.setStatus(ctx, r, run.StatusValidating)

	outputs, err := e.scoreAll(ctx, source, e.adapter.ValidationStep, e.adapter.ValidationStepEnd)
	if err != nil {
		return fmt.Errorf("validation pass over %s: %w", source.Name(), err)
	}

	if e.normalizer != nil {
		for _, out := range outputs {
			if err := e.normalizer.Observe(out); err != nil {
				return err
			}
		}
		if err := e.normalizer.Fit(); err != nil {
			return fmt.Errorf("fitting %s normalization: %w", e.normalizer.Name(), err)
		}
		for _, out := range outputs {
			if err := e.normalizer.PrepareValidation(out); err != nil {
				return err
			}
		}
	}

	if err := e.adapter.ValidationEpochEnd(outputs); err != nil {
		return err
	}

	r.ImageThreshold = e.adapter.ImageThreshold().Value()
	r.PixelThreshold = e.adapter.PixelThreshold().Value()
	return nil
}

// testPhase scores the test set, collects metrics and assembles results.
// Predicted labels are stamped in the threshold's score space before any
// normalization rewrites the scores.
func (e *Engine) testPhase(ctx context.Context, r *run.Run, source ports.BatchSource) error {
	e.setStatus(ctx, r, run.StatusTesting)

	outputs, err := e.scoreAll(ctx, source, e.adapter.TestStep, e.adapter.TestStepEnd)
	if err != nil {
		return fmt.Errorf("test pass over %s: %w", source.Name(), err)
	}

	if e.normalizer != nil {
		for _, out := range outputs {
			e.adapter.ThresholdLabels(out)
			if err := e.normalizer.Apply(out); err != nil {
				return err
			}
		}
		// normalized scores put the boundary at 0.5
		e.adapter.ImageMetrics().SetF1Threshold(0.5)
		e.adapter.PixelMetrics().SetF1Threshold(0.5)
	}

	return e.adapter.TestEpochEnd(outputs)
}

// exportResults hands the assembled summary to every exporter
func (e *Engine) exportResults(ctx context.Context) error {
	for _, exporter := range e.exporters {
		if err := exporter.OnTestComplete(ctx, e.adapter.Results(), e.config.LogDir); err != nil {
			return err
		}
	}
	return nil
}

// persistOutcome stores thresholds and per-sample results
func (e *Engine) persistOutcome(ctx context.Context, r *run.Run) error {
	if e.repo == nil {
		return nil
	}
	if err := e.repo.SetThresholds(ctx, r.ID, r.ImageThreshold, r.PixelThreshold); err != nil {
		return fmt.Errorf("storing thresholds: %w", err)
	}
	if err := e.repo.SaveResults(ctx, r.ID, e.adapter.Results()); err != nil {
		return fmt.Errorf("storing results: %w", err)
	}
	return nil
}

// Predict scores one batch against the frozen thresholds
func (e *Engine) Predict(ctx context.Context, b *batch.Batch) (*batch.BatchOutput, error) {
	out, err := e.adapter.PredictStep(ctx, b)
	if err != nil {
		return nil, err
	}
	if e.normalizer != nil {
		if err := e.normalizer.Apply(out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

type stepFunc func(ctx context.Context, b *batch.Batch) (*batch.BatchOutput, error)

type stepEndFunc func(out *batch.BatchOutput) *batch.BatchOutput

// scoreAll drains the source, scoring batches on up to Workers goroutines.
// Outputs come back in source order regardless of completion order; the
// first scoring error aborts the pass.
func (e *Engine) scoreAll(ctx context.Context, source ports.BatchSource, step stepFunc, stepEnd stepEndFunc) ([]*batch.BatchOutput, error) {
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		outputs  []*batch.BatchOutput
		firstErr error
	)

	position := 0
	for {
		b, err := source.Next(ctx)
		if errors.Is(err, core.ErrEndOfData) {
			break
		}
		if err != nil {
			wg.Wait()
			return nil, err
		}

		if err := e.sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return nil, fmt.Errorf("acquiring scoring slot: %w", err)
		}

		wg.Add(1)
		go func(position int, b *batch.Batch) {
			defer wg.Done()
			defer e.sem.Release(1)

			out, err := step(ctx, b)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			out = stepEnd(out)

			mu.Lock()
			for len(outputs) <= position {
				outputs = append(outputs, nil)
			}
			outputs[position] = out
			mu.Unlock()
		}(position, b)
		position++
	}

	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}

	e.logger.Debug("scored %d batches from %s", len(outputs), source.Name())
	return outputs, nil
}

// setStatus advances the run's phase, mirroring it to the repository
func (e *Engine) setStatus(ctx context.Context, r *run.Run, status run.RunStatus) {
	r.Status = status
	if e.repo == nil {
		return
	}
	if err := e.repo.UpdateStatus(ctx, r.ID, status, ""); err != nil {
		e.logger.Warn("updating run %s status to %s: %v", r.ID, status, err)
	}
}

// failRun marks the run failed, keeping the original error
func (e *Engine) failRun(ctx context.Context, r *run.Run, cause error) error {
	r.Status = run.StatusFailed
	r.Error = cause.Error()
	r.FinishedAt = core.NewFinishedAt(time.Now())
	e.logger.Error("run %s failed: %v", r.ID, cause)

	if e.repo != nil {
		if err := e.repo.UpdateStatus(ctx, r.ID, run.StatusFailed, cause.Error()); err != nil {
			e.logger.Warn("recording failure for run %s: %v", r.ID, err)
		}
	}
	return cause
}
