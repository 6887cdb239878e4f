package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/taskflow/pkg/persistence"
	"github.com/dukex/taskflow/pkg/persistence/postgresql"
	"github.com/dukex/taskflow/pkg/persistence/sqlbase"
	"github.com/dukex/taskflow/pkg/persistence/sqlite"
)

var ErrUnsupportedDatabase = errors.New("unsupported database provider")

// NewPersistence opens and migrates the database named by databaseURL:
// sqlite://path or postgres://...
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	var (
		database *sqlbase.Database
		err      error
	)

	switch parsePersistenceProvider(databaseURL) {
	case "sqlite":
		database, err = sqlite.NewPersistence(ctx, logger, databaseURL)
	case "postgres", "postgresql":
		database, err = postgresql.NewPersistence(ctx, logger, databaseURL)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDatabase, databaseURL)
	}

	if err != nil {
		return nil, err
	}

	return database, nil
}

func parsePersistenceProvider(databaseURL string) string {
	provider, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return ""
	}

	return provider
}
