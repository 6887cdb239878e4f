package sqlbase

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/taskflow/pkg/models"
	"github.com/google/uuid"
)

// ExecutionLogRepository stores automation_logs rows.
type ExecutionLogRepository struct {
	db      *sql.DB
	dialect Dialect
	logger  *slog.Logger
}

func NewExecutionLogRepository(db *sql.DB, dialect Dialect, logger *slog.Logger) *ExecutionLogRepository {
	return &ExecutionLogRepository{db: db, dialect: dialect, logger: logger}
}

func (r *ExecutionLogRepository) Append(ctx context.Context, entry *models.ExecutionLog) error {
	if entry.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate log ID: %w", err)
		}

		entry.ID = id.String()
	}

	if entry.ExecutedAt.IsZero() {
		entry.ExecutedAt = time.Now().UTC()
	}

	triggerData := entry.TriggerData
	if len(triggerData) == 0 {
		triggerData = json.RawMessage("{}")
	}

	query := `
		INSERT INTO automation_logs (id, automation_id, trigger_data, execution_result, error_message, executed_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, r.dialect.Rebind(query),
		entry.ID,
		entry.AutomationID,
		string(triggerData),
		string(entry.ExecutionResult),
		nullString(entry.ErrorMessage),
		entry.ExecutedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert execution log: %w", err)
	}

	return nil
}

// ListByAutomation returns the newest entries first.
func (r *ExecutionLogRepository) ListByAutomation(ctx context.Context, automationID string, limit, offset int) ([]*models.ExecutionLog, error) {
	query := `
		SELECT
			id
		  , automation_id
		  , trigger_data
		  , execution_result
		  , error_message
		  , executed_at
		FROM automation_logs
		WHERE automation_id = ?
		ORDER BY executed_at DESC, id DESC
		LIMIT ? OFFSET ?
	`

	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(query), automationID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query execution logs: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	entries := make([]*models.ExecutionLog, 0)

	for rows.Next() {
		var (
			entry        models.ExecutionLog
			triggerData  string
			result       string
			errorMessage sql.NullString
		)

		err := rows.Scan(&entry.ID, &entry.AutomationID, &triggerData, &result, &errorMessage, &entry.ExecutedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution log: %w", err)
		}

		entry.TriggerData = json.RawMessage(triggerData)
		entry.ExecutionResult = models.ExecutionResult(result)
		entry.ErrorMessage = errorMessage.String
		entry.ExecutedAt = entry.ExecutedAt.UTC()

		entries = append(entries, &entry)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating execution logs: %w", err)
	}

	return entries, nil
}

func (r *ExecutionLogRepository) CountByAutomation(ctx context.Context, automationID string) (int, error) {
	var count int

	err := r.db.QueryRowContext(ctx,
		r.dialect.Rebind(`SELECT COUNT(*) FROM automation_logs WHERE automation_id = ?`),
		automationID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count execution logs: %w", err)
	}

	return count, nil
}
