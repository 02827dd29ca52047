// Package config loads the application configuration from environment
// variables. Entrypoints call godotenv first so a local .env file works in
// development.
package config

import (
	"os"
	"strconv"

	"hyperit/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server  ServerConfig
	Archive ArchiveConfig
	Compute ComputeConfig
	Paths   PathConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

// ArchiveConfig holds the optional run-archive database settings. An empty
// URL disables archiving.
type ArchiveConfig struct {
	URL     string
	Enabled bool
}

// ComputeConfig holds engine defaults overridable per request.
type ComputeConfig struct {
	Workers int
	Seed    int64
}

// PathConfig holds file system paths
type PathConfig struct {
	OutputDir string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
		Archive: loadArchiveConfig(),
		Compute: ComputeConfig{
			Workers: getEnvIntOrDefault("COMPUTE_WORKERS", 1),
			Seed:    int64(getEnvIntOrDefault("COMPUTE_SEED", 1)),
		},
		Paths: PathConfig{
			OutputDir: getEnvOrDefault("OUTPUT_DIR", "."),
		},
	}

	if config.Compute.Workers < 1 {
		return nil, errors.ConfigInvalid("COMPUTE_WORKERS must be positive")
	}
	return config, nil
}

func loadArchiveConfig() ArchiveConfig {
	url := os.Getenv("DATABASE_URL")
	return ArchiveConfig{
		URL:     url,
		Enabled: url != "",
	}
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
