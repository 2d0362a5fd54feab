package config

import (
	"os"
	"strconv"
	"time"

	"govigil/domain/batch"
	"govigil/internal/errors"
	"govigil/internal/normalize"
)

// Config represents the complete application configuration
type Config struct {
	Eval     EvalConfig `validate:"required"`
	Export   ExportConfig
	Database DatabaseConfig
	Server   ServerConfig
}

// EvalConfig holds evaluation lifecycle settings
type EvalConfig struct {
	Task              batch.Task       `validate:"required"`
	AdaptiveThreshold bool             // recompute thresholds each validation epoch
	DefaultImage      float64          // image threshold when not adaptive
	DefaultPixel      float64          // pixel threshold when not adaptive
	Normalization     normalize.Method // score rescaling applied after testing
	LogDir            string           // results directory handed to exporters
	Workers           int              // bounded parallelism for batch scoring
	Seed              int64
}

// ExportConfig selects which result formats are written at test end
type ExportConfig struct {
	CSV  bool
	XLSX bool
}

// DatabaseConfig holds database connection settings. URL may be empty:
// run persistence is optional for library use and required only by the
// API server.
type DatabaseConfig struct {
	URL     string
	SSLMode string
}

// ServerConfig holds results API server settings
type ServerConfig struct {
	Port         string `validate:"required"`
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{}

	// Load evaluation configuration
	evalConfig, err := loadEvalConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load evaluation configuration")
	}
	config.Eval = *evalConfig

	// Load export configuration
	exportConfig := loadExportConfig()
	config.Export = *exportConfig

	// Load database configuration
	dbConfig := loadDatabaseConfig()
	config.Database = *dbConfig

	// Load server configuration
	serverConfig := loadServerConfig()
	config.Server = *serverConfig

	// Validate required fields
	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadEvalConfig() (*EvalConfig, error) {
	task, err := batch.ParseTask(getEnvOrDefault("EVAL_TASK", string(batch.TaskSegmentation)))
	if err != nil {
		return nil, errors.ConfigInvalid(err.Error())
	}

	method, err := normalize.ParseMethod(getEnvOrDefault("EVAL_NORMALIZATION", string(normalize.MethodNone)))
	if err != nil {
		return nil, errors.ConfigInvalid(err.Error())
	}

	return &EvalConfig{
		Task:              task,
		AdaptiveThreshold: getEnvBoolOrDefault("ADAPTIVE_THRESHOLD", true),
		DefaultImage:      getEnvFloatOrDefault("DEFAULT_IMAGE_THRESHOLD", 0.5),
		DefaultPixel:      getEnvFloatOrDefault("DEFAULT_PIXEL_THRESHOLD", 0.5),
		Normalization:     method,
		LogDir:            getEnvOrDefault("LOG_DIR", "./results"),
		Workers:           getEnvIntOrDefault("EVAL_WORKERS", 4),
		Seed:              int64(getEnvIntOrDefault("EVAL_SEED", 42)),
	}, nil
}

func loadExportConfig() *ExportConfig {
	return &ExportConfig{
		CSV:  getEnvBoolOrDefault("EXPORT_CSV", true),
		XLSX: getEnvBoolOrDefault("EXPORT_XLSX", false),
	}
}

func loadDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		URL:     getEnvOrDefault("DATABASE_URL", ""),
		SSLMode: getEnvOrDefault("SSL_MODE", "disable"),
	}
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:         getEnvOrDefault("PORT", "8080"),
		ReadTimeout:  getEnvDurationOrDefault("READ_TIMEOUT", 10*time.Second),
		WriteTimeout: getEnvDurationOrDefault("WRITE_TIMEOUT", 30*time.Second),
	}
}

func validateConfig(config *Config) error {
	if !config.Eval.Task.IsValid() {
		return errors.ConfigInvalid("EVAL_TASK must be classification or segmentation")
	}
	if config.Eval.Workers <= 0 {
		return errors.ConfigInvalid("EVAL_WORKERS must be positive")
	}
	if !config.Export.CSV && !config.Export.XLSX {
		return errors.ConfigInvalid("at least one export format must be enabled")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
