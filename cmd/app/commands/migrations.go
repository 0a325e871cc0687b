package commands

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/sealedbox/sealedbox/internal/config"
)

// RunMigrations applies all pending migrations for driver against
// connectionString, picking the migration source directory that matches the
// driver (postgresql or mysql). Returns nil if there was nothing to apply.
func RunMigrations(logger *slog.Logger, driver, connectionString string) error {
	logger.Info("running database migrations", slog.String("driver", driver))

	migrationsPath := "file://migrations/postgresql"
	if driver == "mysql" {
		migrationsPath = "file://migrations/mysql"
	}

	m, err := migrate.New(migrationsPath, connectionString)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer closeMigrate(m, logger)

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("migrations completed successfully")
	return nil
}

// RunMigrationsFromEnv loads configuration from the environment and applies
// migrations against the configured database.
func RunMigrationsFromEnv() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := slog.Default()
	return RunMigrations(logger, cfg.DBDriver, cfg.DBConnectionString)
}
