package main

import (
	"context"
	"log"

	"govigil/app"
	"govigil/internal/config"
	"govigil/internal/container"
	"govigil/internal/errors"
	"govigil/internal/migration"
	"govigil/internal/testkit"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// initDatabase initializes the PostgreSQL database connection
func initDatabase(appConfig *config.Config) (*sqlx.DB, error) {
	if appConfig.Database.URL == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}

	db, err := sqlx.Connect("postgres", appConfig.Database.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}

	// Run migrations
	migrator := migration.NewRunner()
	if err := migrator.Run(context.Background(), db); err != nil {
		return nil, errors.Wrap(err, "database migration failed")
	}

	return db, nil
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load application configuration
	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Create dependency injection container
	appContainer, err := container.New(appConfig)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	defer appContainer.Shutdown(context.Background())

	// Run persistence: PostgreSQL when configured, process memory otherwise
	if appConfig.Database.URL != "" {
		db, err := initDatabase(appConfig)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		if err := appContainer.InitWithDatabase(db); err != nil {
			log.Fatalf("Failed to initialize container: %v", err)
		}
	} else {
		log.Printf("No DATABASE_URL configured, keeping runs in memory")
		appContainer.InitInMemory()
	}

	// Configure the synthetic dataset and scorer. A real deployment would
	// plug a trained model in here instead.
	datasetConfig := testkit.DefaultDatasetConfig()
	datasetConfig.Seed = appConfig.Eval.Seed
	generator := testkit.NewDatasetGenerator(datasetConfig)

	valBatches, err := generator.GenerateBatches("val")
	if err != nil {
		log.Fatalf("Failed to generate validation batches: %v", err)
	}
	testBatches, err := generator.GenerateBatches("test")
	if err != nil {
		log.Fatalf("Failed to generate test batches: %v", err)
	}

	scorer := testkit.NewNoisyScorer(testkit.DefaultScorerConfig())
	if err := appContainer.InitEvaluation(scorer, "synthetic"); err != nil {
		log.Fatalf("Failed to initialize evaluation pipeline: %v", err)
	}

	// Run the evaluation
	service := app.NewEvalService(appContainer.Engine, appContainer.Adapter)
	report, err := service.RunEvaluation(context.Background(),
		testkit.NewSyntheticSource("synthetic-val", valBatches),
		testkit.NewSyntheticSource("synthetic-test", testBatches))
	if err != nil {
		log.Fatalf("Evaluation failed: %v", err)
	}

	log.Printf("Run %s completed: %d samples, %d wrong (accuracy %.4f)",
		report.Run.ID, report.Total, report.Wrong, report.Accuracy)
	log.Printf("Thresholds: image=%.4f pixel=%.4f", report.Run.ImageThreshold, report.Run.PixelThreshold)
	log.Printf("Results written to %s", appConfig.Eval.LogDir)
}
