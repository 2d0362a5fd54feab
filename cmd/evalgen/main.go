package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"govigil/internal/testkit"
)

func main() {
	out := flag.String("out", "synthetic_dataset.csv", "output file path")
	samples := flag.Int("samples", 96, "samples per split")
	ratio := flag.Float64("ratio", 0.3, "fraction of anomalous samples")
	batchSize := flag.Int("batch", 16, "samples per batch")
	size := flag.Int("size", 8, "anomaly map height and width")
	masks := flag.Bool("masks", true, "generate pixel ground truth masks")
	seed := flag.Int64("seed", 42, "RNG seed (deterministic)")
	format := flag.String("format", "", "output format: xlsx or csv (default inferred from -out)")
	flag.Parse()

	if *samples <= 0 {
		fmt.Fprintln(os.Stderr, "samples must be > 0")
		os.Exit(2)
	}

	fmtName := strings.ToLower(strings.TrimSpace(*format))
	if fmtName == "" {
		ext := strings.ToLower(filepath.Ext(*out))
		switch ext {
		case ".xlsx":
			fmtName = "xlsx"
		case ".csv":
			fmtName = "csv"
		default:
			fmtName = "csv"
		}
	}

	cfg := testkit.DefaultDatasetConfig()
	cfg.SampleCount = *samples
	cfg.AnomalyRatio = *ratio
	cfg.BatchSize = *batchSize
	cfg.MapHeight = *size
	cfg.MapWidth = *size
	cfg.WithMasks = *masks
	cfg.Seed = *seed

	generator := testkit.NewDatasetGenerator(cfg)

	var rows []testkit.ManifestRow
	for _, split := range []string{"val", "test"} {
		batches, err := generator.GenerateBatches(split)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error generating dataset:", err)
			os.Exit(1)
		}
		rows = append(rows, testkit.BuildManifest(split, batches)...)
	}

	switch fmtName {
	case "csv":
		if err := testkit.WriteManifestCSV(*out, rows); err != nil {
			fmt.Fprintln(os.Stderr, "error writing csv:", err)
			os.Exit(1)
		}
	case "xlsx":
		if err := testkit.WriteManifestXLSX(*out, rows); err != nil {
			fmt.Fprintln(os.Stderr, "error writing xlsx:", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintln(os.Stderr, "unsupported format:", fmtName)
		os.Exit(2)
	}

	fmt.Printf("Synthetic dataset manifest created: %s\n", *out)
	fmt.Printf("Total Samples: %d | Anomalous Ratio: %.2f\n", len(rows), *ratio)
}
