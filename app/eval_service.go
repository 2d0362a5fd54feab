package app

import (
	"context"
	"fmt"
	"time"

	"govigil/domain/batch"
	"govigil/domain/run"
	"govigil/internal"
	"govigil/internal/engine"
	"govigil/internal/lifecycle"
	"govigil/ports"
)

// EvalReport aggregates everything a finished evaluation produced
type EvalReport struct {
	Run      *run.Run
	Results  *run.ResultsSummary
	Total    int
	Wrong    int
	Accuracy float64
	Elapsed  time.Duration
}

// EvalService runs the validate-then-test evaluation flow and assembles
// reports for callers that do not want to talk to the engine directly
type EvalService struct {
	engine  *engine.Engine
	adapter *lifecycle.Adapter
	logger  *internal.Logger
}

// NewEvalService creates a new evaluation service
func NewEvalService(eng *engine.Engine, adapter *lifecycle.Adapter) *EvalService {
	return &EvalService{
		engine:  eng,
		adapter: adapter,
		logger:  internal.DefaultLogger.Component("EvalService"),
	}
}

// RunEvaluation executes a full evaluation and summarizes the outcome
func (s *EvalService) RunEvaluation(ctx context.Context, valSource, testSource ports.BatchSource) (*EvalReport, error) {
	r, err := s.engine.Evaluate(ctx, valSource, testSource)
	if err != nil {
		return nil, fmt.Errorf("evaluation failed: %w", err)
	}

	results := s.adapter.Results()
	report := &EvalReport{
		Run:     r,
		Results: results,
		Total:   results.Len(),
		Wrong:   results.WrongCount(),
		Elapsed: r.FinishedAt.Elapsed(r.StartedAt),
	}
	if report.Total > 0 {
		report.Accuracy = float64(report.Total-report.Wrong) / float64(report.Total)
	}

	s.logger.Info("Evaluation %s finished: %d samples, %d wrong (accuracy %.4f) in %s",
		r.ID, report.Total, report.Wrong, report.Accuracy, report.Elapsed)

	return report, nil
}

// Predict scores a batch against the thresholds frozen by the last evaluation
func (s *EvalService) Predict(ctx context.Context, b *batch.Batch) (*batch.BatchOutput, error) {
	return s.engine.Predict(ctx, b)
}
