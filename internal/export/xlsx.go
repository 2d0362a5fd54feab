package export

import (
	"context"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"govigil/domain/run"
	"govigil/internal"
	"govigil/internal/errors"
)

const xlsxFileName = "results.xlsx"

// XLSXExporter writes the per-sample test summary to results.xlsx for
// spreadsheet review. An existing file is overwritten.
type XLSXExporter struct {
	logger *internal.Logger
}

func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{logger: internal.DefaultLogger.Component("XLSXExporter")}
}

func (e *XLSXExporter) Name() string { return "xlsx" }

func (e *XLSXExporter) OnTestComplete(ctx context.Context, summary *run.ResultsSummary, outputDir string) error {
	if outputDir == "" {
		return errors.ConfigInvalid("no log directory available")
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return errors.ExportFailed("creating output directory", err)
	}

	path := filepath.Join(outputDir, xlsxFileName)
	if err := writeXLSX(path, summary); err != nil {
		return errors.ExportFailed("writing "+xlsxFileName, err)
	}

	e.logger.Info("wrote %d result rows to %s", summary.Len(), path)
	return nil
}

func writeXLSX(path string, summary *run.ResultsSummary) error {
	f := excelize.NewFile()

	sheet := "Sheet1"
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx == -1 {
		idx, err := f.NewSheet(sheet)
		if err != nil {
			return err
		}
		f.SetActiveSheet(idx)
	}

	for i, h := range resultsHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	for r, row := range resultsRows(summary) {
		rowIdx := r + 2
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, rowIdx)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}

	return f.SaveAs(path)
}
