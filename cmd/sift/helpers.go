package main

import (
	"fmt"
	"os"

	"sift/internal/config"
	"sift/internal/logging"
)

// loadEnvironment resolves the repo root and its configuration. A missing
// or unreadable config falls back to defaults with a warning; an invalid
// one is an error.
func loadEnvironment() (string, *config.Config, *logging.Logger, error) {
	repoRoot, err := resolveRepoRoot()
	if err != nil {
		return "", nil, nil, fmt.Errorf("failed to resolve repository root: %w", err)
	}

	cfg, err := config.LoadConfig(repoRoot)
	if err != nil {
		bootstrap := logging.NewLogger(logging.Config{
			Format: logging.HumanFormat,
			Level:  logging.WarnLevel,
		})
		bootstrap.Warn("Failed to load config, using defaults", map[string]interface{}{
			"error": err.Error(),
		})
		cfg = config.DefaultConfig()
	}

	if err := cfg.Validate(); err != nil {
		return "", nil, nil, err
	}

	return repoRoot, cfg, newLoggerFromConfig(cfg), nil
}

// newLoggerFromConfig builds the logger from config, honoring the
// --log-level override.
func newLoggerFromConfig(cfg *config.Config) *logging.Logger {
	level := cfg.Logging.Level
	if logLevelFlag != "" {
		level = logLevelFlag
	}

	format := logging.HumanFormat
	if cfg.Logging.Format == "json" {
		format = logging.JSONFormat
	}

	return logging.NewLogger(logging.Config{
		Format: format,
		Level:  logging.ParseLevel(level),
	})
}

// mustLoadEnvironment is loadEnvironment or exit.
func mustLoadEnvironment() (string, *config.Config, *logging.Logger) {
	repoRoot, cfg, logger, err := loadEnvironment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return repoRoot, cfg, logger
}
