package sqlbase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/dukex/taskflow/pkg/persistence"
)

// Dialect captures the few differences between the supported SQL engines.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Rebind rewrites '?' placeholders into the dialect's native form.
func (d Dialect) Rebind(query string) string {
	if d != DialectPostgres {
		return query
	}

	var (
		b strings.Builder
		n int
	)

	b.Grow(len(query) + 8)

	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))

			continue
		}

		b.WriteRune(r)
	}

	return b.String()
}

type scanner interface {
	Scan(dest ...any) error
}

// Database implements persistence.Persistence on top of database/sql.
type Database struct {
	db            *sql.DB
	logger        *slog.Logger
	automations   *AutomationRepository
	executionLogs *ExecutionLogRepository
	cards         *CardRepository
	activity      *ActivityRepository
	notifications *NotificationRepository
}

var _ persistence.Persistence = (*Database)(nil)

func New(db *sql.DB, dialect Dialect, logger *slog.Logger) *Database {
	return &Database{
		db:            db,
		logger:        logger,
		automations:   NewAutomationRepository(db, dialect, logger),
		executionLogs: NewExecutionLogRepository(db, dialect, logger),
		cards:         NewCardRepository(db, dialect, logger),
		activity:      NewActivityRepository(db, dialect, logger),
		notifications: NewNotificationRepository(db, dialect, logger),
	}
}

func (d *Database) Automations() persistence.AutomationRepository {
	return d.automations
}

func (d *Database) ExecutionLogs() persistence.ExecutionLogRepository {
	return d.executionLogs
}

func (d *Database) Cards() persistence.CardRepository {
	return d.cards
}

func (d *Database) Activity() persistence.ActivityRepository {
	return d.activity
}

func (d *Database) Notifications() persistence.NotificationRepository {
	return d.notifications
}

// HealthCheck verifies the database connection is healthy.
func (d *Database) HealthCheck(ctx context.Context) error {
	err := d.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (d *Database) Close(_ context.Context) error {
	if d.db != nil {
		err := d.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

func closeRows(ctx context.Context, logger *slog.Logger, rows *sql.Rows) {
	err := rows.Close()
	if err != nil {
		logger.ErrorContext(ctx, "failed to close rows", "error", err)
	}
}

func rollback(ctx context.Context, logger *slog.Logger, tx *sql.Tx) {
	err := tx.Rollback()
	if err != nil && !errors.Is(err, sql.ErrTxDone) {
		logger.ErrorContext(ctx, "failed to rollback transaction", "error", err)
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
