// Package sqlbase provides the SQL persistence shared by the SQLite and PostgreSQL providers.
package sqlbase

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationManager applies the embedded schema migrations. The database
// driver for the URL scheme must be registered by the caller's provider package.
type MigrationManager struct {
	logger      *slog.Logger
	databaseURL string
}

func NewMigrationManager(logger *slog.Logger, databaseURL string) *MigrationManager {
	return &MigrationManager{
		logger:      logger,
		databaseURL: databaseURL,
	}
}

// RunMigrations handles database schema creation and updates.
func (m *MigrationManager) RunMigrations(ctx context.Context) error {
	m.logger.InfoContext(ctx, "Starting database migrations")

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load embedded migrations: %w", err)
	}

	migration, err := migrate.NewWithSourceInstance("iofs", source, m.databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	defer func() {
		sourceErr, dbErr := migration.Close()
		if sourceErr != nil || dbErr != nil {
			m.logger.ErrorContext(ctx, "Failed to close migration instance", "source_error", sourceErr, "database_error", dbErr)
		}
	}()

	err = migration.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := migration.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	m.logger.InfoContext(ctx, "Database migrations completed", "version", version, "dirty", dirty)

	return nil
}
