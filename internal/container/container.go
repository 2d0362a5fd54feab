package container

import (
	"context"
	"fmt"
	"log"

	"govigil/adapters/postgres"
	"govigil/internal/config"
	"govigil/internal/engine"
	"govigil/internal/export"
	"govigil/internal/lifecycle"
	"govigil/internal/normalize"
	"govigil/internal/testkit"
	"govigil/ports"

	"github.com/jmoiron/sqlx"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config

	// Infrastructure
	DB *sqlx.DB

	// Repositories (data access layer)
	RunRepo ports.RunRepository

	// Evaluation components
	Adapter    *lifecycle.Adapter
	Normalizer normalize.Normalizer
	Exporters  []ports.ResultsExporter
	Engine     *engine.Engine
}

// New creates a new dependency injection container
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	c := &Container{
		Config: cfg,
	}

	return c, nil
}

// InitWithDatabase initializes run persistence backed by PostgreSQL
func (c *Container) InitWithDatabase(db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}

	c.DB = db

	// Test database connection
	if err := db.Ping(); err != nil {
		return fmt.Errorf("database connection test failed: %w", err)
	}

	c.RunRepo = postgres.NewRunRepository(db)

	log.Printf("Container initialized with database-backed run repository")
	return nil
}

// InitInMemory initializes run persistence in process memory, for library
// use and local evaluations without a database
func (c *Container) InitInMemory() {
	c.RunRepo = testkit.NewMemoryRunRepository()
	log.Printf("Container initialized with in-memory run repository")
}

// InitEvaluation builds the evaluation pipeline around a scorer. The
// repository must be initialized first.
func (c *Container) InitEvaluation(scorer ports.AnomalyScorer, datasetName string) error {
	if c.RunRepo == nil {
		return fmt.Errorf("run repository not initialized")
	}

	adapter, err := lifecycle.NewAdapter(lifecycle.Settings{
		Task:              c.Config.Eval.Task,
		AdaptiveThreshold: c.Config.Eval.AdaptiveThreshold,
		DefaultImage:      c.Config.Eval.DefaultImage,
		DefaultPixel:      c.Config.Eval.DefaultPixel,
	}, scorer, nil)
	if err != nil {
		return fmt.Errorf("failed to create lifecycle adapter: %w", err)
	}
	c.Adapter = adapter

	normalizer, err := normalize.New(c.Config.Eval.Normalization, adapter)
	if err != nil {
		return fmt.Errorf("failed to create normalizer: %w", err)
	}
	c.Normalizer = normalizer

	c.Exporters = buildExporters(c.Config.Export)

	eng, err := engine.New(engine.Config{
		Workers:     c.Config.Eval.Workers,
		LogDir:      c.Config.Eval.LogDir,
		DatasetName: datasetName,
		Seed:        c.Config.Eval.Seed,
	}, adapter, normalizer, c.RunRepo, c.Exporters...)
	if err != nil {
		return fmt.Errorf("failed to create evaluation engine: %w", err)
	}
	c.Engine = eng

	log.Printf("Evaluation pipeline initialized: scorer=%s normalization=%s workers=%d",
		scorer.Name(), c.Config.Eval.Normalization, c.Config.Eval.Workers)
	return nil
}

// buildExporters assembles the exporters enabled by configuration
func buildExporters(cfg config.ExportConfig) []ports.ResultsExporter {
	var exporters []ports.ResultsExporter
	if cfg.CSV {
		exporters = append(exporters, export.NewCSVExporter())
	}
	if cfg.XLSX {
		exporters = append(exporters, export.NewXLSXExporter())
	}
	return exporters
}

// Shutdown gracefully shuts down all components
func (c *Container) Shutdown(ctx context.Context) error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
