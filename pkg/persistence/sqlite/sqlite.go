// Package sqlite provides the SQLite persistence provider backed by modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/taskflow/pkg/persistence/sqlbase"

	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "modernc.org/sqlite"
)

const Scheme = "sqlite://"

var ErrEmptyPath = errors.New("sqlite database path is empty")

// NewPersistence opens the database at databaseURL ("sqlite://path/to/file.db"),
// applies migrations and returns the repositories.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*sqlbase.Database, error) {
	path := strings.TrimPrefix(databaseURL, Scheme)
	if path == "" {
		return nil, ErrEmptyPath
	}

	migrationManager := sqlbase.NewMigrationManager(logger, Scheme+path)

	err := migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	database, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// SQLite serialises writers; one connection avoids SQLITE_BUSY under concurrent dispatch.
	database.SetMaxOpenConns(1)

	err = database.PingContext(ctx)
	if err != nil {
		_ = database.Close()

		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return sqlbase.New(database, sqlbase.DialectSQLite, logger), nil
}

func dsn(path string) string {
	separator := "?"
	if strings.Contains(path, "?") {
		separator = "&"
	}

	return path + separator + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}
