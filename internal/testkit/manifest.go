package testkit

import (
	"encoding/csv"
	"os"
	"strconv"

	"govigil/domain/batch"

	"github.com/xuri/excelize/v2"
)

// ManifestRow describes one generated sample for dataset inspection
type ManifestRow struct {
	Name         string
	Split        string
	Label        int
	DefectPixels int
}

var manifestHeaders = []string{"name", "split", "label", "defect_pixels"}

// BuildManifest flattens generated batches into one row per sample
func BuildManifest(split string, batches []*batch.Batch) []ManifestRow {
	var rows []ManifestRow
	for _, b := range batches {
		for i, name := range b.Names {
			row := ManifestRow{
				Name:  name,
				Split: split,
				Label: b.Labels[i],
			}
			if b.Masks != nil {
				for _, v := range b.Masks.Sample(i) {
					if v > 0 {
						row.DefectPixels++
					}
				}
			}
			rows = append(rows, row)
		}
	}
	return rows
}

// WriteManifestCSV writes the sample listing as CSV
func WriteManifestCSV(path string, rows []ManifestRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(manifestHeaders); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			row.Name,
			row.Split,
			strconv.Itoa(row.Label),
			strconv.Itoa(row.DefectPixels),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	return w.Error()
}

// WriteManifestXLSX writes the sample listing as a spreadsheet
func WriteManifestXLSX(path string, rows []ManifestRow) error {
	f := excelize.NewFile()
	sheet := "Sheet1"

	for c, h := range manifestHeaders {
		cell, err := excelize.CoordinatesToCellName(c+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	for i, row := range rows {
		values := []interface{}{row.Name, row.Split, row.Label, row.DefectPixels}
		for c, v := range values {
			cell, err := excelize.CoordinatesToCellName(c+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}

	return f.SaveAs(path)
}
