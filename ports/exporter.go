package ports

import (
	"context"

	"govigil/domain/run"
)

// ResultsExporter writes a test run's per-sample results to persistent
// storage, once, after the test phase completes. The output directory must
// already be resolved: exporters fail with a configuration error rather
// than writing to a fallback location.
type ResultsExporter interface {
	OnTestComplete(ctx context.Context, summary *run.ResultsSummary, outputDir string) error
}
