// Package cli consolidates the initialization steps shared by the
// billfold binaries: logging, .env loading, configuration, and the
// SQLite repository.
package cli

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"billfold/internal/config"
	applog "billfold/internal/log"
	"billfold/internal/storage"
)

// SetupLogger initializes structured logging and sets it as the
// process default.
func SetupLogger() *slog.Logger {
	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)
	return logger.Logger
}

// LoadEnvFile loads the .env file for local development. Errors are
// ignored; the file is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it, exiting
// the process on validation failure.
func LoadAndValidateConfig(logger *slog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed",
			applog.FieldComponent, applog.ComponentApp,
			applog.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// InitSQLite opens the SQLite repository, exiting the process on
// failure.
func InitSQLite(logger *slog.Logger, dbPath string) *storage.SQLiteRepository {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository",
			applog.FieldComponent, applog.ComponentApp,
			applog.FieldError, err,
			"path", dbPath)
		os.Exit(1)
	}
	return repo
}
