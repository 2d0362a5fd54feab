package export

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"govigil/domain/run"
	"govigil/internal/errors"
)

func sampleSummary() *run.ResultsSummary {
	s := &run.ResultsSummary{}
	s.Append("good.png", 0, 0)
	s.Append("crack.png", 1, 1)
	s.Append("scratch.png", 0, 1)
	return s
}

func TestCSVExporterWritesResults(t *testing.T) {
	dir := t.TempDir()
	exporter := NewCSVExporter()

	if err := exporter.OnTestComplete(context.Background(), sampleSummary(), dir); err != nil {
		t.Fatalf("OnTestComplete failed: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, "results.csv"))
	if err != nil {
		t.Fatalf("Expected results.csv to exist: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("Reading results.csv failed: %v", err)
	}

	if len(records) != 4 {
		t.Fatalf("Expected header plus 3 rows, got %d records", len(records))
	}
	wantHeader := []string{"name", "true_label", "pred_label", "wrong_prediction"}
	for i, h := range wantHeader {
		if records[0][i] != h {
			t.Errorf("Expected header column %q, got %q", h, records[0][i])
		}
	}

	// scratch.png disagrees with its ground truth
	want := [][]string{
		{"good.png", "0", "0", "0"},
		{"crack.png", "1", "1", "0"},
		{"scratch.png", "0", "1", "1"},
	}
	for i, row := range want {
		for j, cell := range row {
			if records[i+1][j] != cell {
				t.Errorf("Expected row %d column %d = %q, got %q", i, j, cell, records[i+1][j])
			}
		}
	}
}

func TestCSVExporterNoLogDir(t *testing.T) {
	exporter := NewCSVExporter()

	err := exporter.OnTestComplete(context.Background(), sampleSummary(), "")
	if err == nil {
		t.Fatal("Expected error without an output directory, got nil")
	}
	if errors.GetCode(err) != errors.CodeConfigInvalid {
		t.Errorf("Expected code %s, got %s", errors.CodeConfigInvalid, errors.GetCode(err))
	}
	if _, statErr := os.Stat("results.csv"); !os.IsNotExist(statErr) {
		t.Error("Expected no file written when output directory is missing")
	}
}

func TestCSVExporterOverwrites(t *testing.T) {
	dir := t.TempDir()
	exporter := NewCSVExporter()

	if err := exporter.OnTestComplete(context.Background(), sampleSummary(), dir); err != nil {
		t.Fatalf("first export failed: %v", err)
	}

	smaller := &run.ResultsSummary{}
	smaller.Append("only.png", 1, 0)
	if err := exporter.OnTestComplete(context.Background(), smaller, dir); err != nil {
		t.Fatalf("second export failed: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, "results.csv"))
	if err != nil {
		t.Fatalf("Expected results.csv to exist: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("Reading results.csv failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected the rewrite to replace the file, got %d records", len(records))
	}
	if records[1][0] != "only.png" || records[1][3] != "1" {
		t.Errorf("Expected row [only.png 1 0 1], got %v", records[1])
	}
}

func TestCSVExporterEmptySummary(t *testing.T) {
	dir := t.TempDir()
	exporter := NewCSVExporter()

	if err := exporter.OnTestComplete(context.Background(), &run.ResultsSummary{}, dir); err != nil {
		t.Fatalf("OnTestComplete failed: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, "results.csv"))
	if err != nil {
		t.Fatalf("Expected header-only results.csv: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("Reading results.csv failed: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("Expected only the header row, got %d records", len(records))
	}
}

func TestXLSXExporterWritesResults(t *testing.T) {
	dir := t.TempDir()
	exporter := NewXLSXExporter()

	if err := exporter.OnTestComplete(context.Background(), sampleSummary(), dir); err != nil {
		t.Fatalf("OnTestComplete failed: %v", err)
	}

	f, err := excelize.OpenFile(filepath.Join(dir, "results.xlsx"))
	if err != nil {
		t.Fatalf("Expected results.xlsx to open: %v", err)
	}
	defer f.Close()

	checks := map[string]string{
		"A1": "name",
		"D1": "wrong_prediction",
		"A2": "good.png",
		"D4": "1",
	}
	for cell, want := range checks {
		got, err := f.GetCellValue("Sheet1", cell)
		if err != nil {
			t.Fatalf("GetCellValue %s failed: %v", cell, err)
		}
		if got != want {
			t.Errorf("Expected cell %s = %q, got %q", cell, want, got)
		}
	}
}

func TestXLSXExporterNoLogDir(t *testing.T) {
	exporter := NewXLSXExporter()

	err := exporter.OnTestComplete(context.Background(), sampleSummary(), "")
	if err == nil {
		t.Fatal("Expected error without an output directory, got nil")
	}
	if errors.GetCode(err) != errors.CodeConfigInvalid {
		t.Errorf("Expected code %s, got %s", errors.CodeConfigInvalid, errors.GetCode(err))
	}
}
