package export

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"

	"govigil/domain/run"
	"govigil/internal"
	"govigil/internal/errors"
)

const csvFileName = "results.csv"

// CSVExporter writes the per-sample test summary to results.csv inside the
// run's output directory. An existing file is overwritten.
type CSVExporter struct {
	logger *internal.Logger
}

func NewCSVExporter() *CSVExporter {
	return &CSVExporter{logger: internal.DefaultLogger.Component("CSVExporter")}
}

func (e *CSVExporter) Name() string { return "csv" }

// OnTestComplete writes the summary. Without an output directory there is
// nowhere to write, so it fails before touching the filesystem.
func (e *CSVExporter) OnTestComplete(ctx context.Context, summary *run.ResultsSummary, outputDir string) error {
	if outputDir == "" {
		return errors.ConfigInvalid("no log directory available")
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return errors.ExportFailed("creating output directory", err)
	}

	path := filepath.Join(outputDir, csvFileName)
	if err := writeCSV(path, summary); err != nil {
		return errors.ExportFailed("writing "+csvFileName, err)
	}

	e.logger.Info("wrote %d result rows to %s", summary.Len(), path)
	return nil
}

func writeCSV(path string, summary *run.ResultsSummary) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(resultsHeaders); err != nil {
		return err
	}
	for _, row := range resultsRows(summary) {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}
