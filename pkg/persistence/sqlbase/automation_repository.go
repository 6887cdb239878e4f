package sqlbase

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/taskflow/pkg/models"
	"github.com/dukex/taskflow/pkg/persistence"
	"github.com/google/uuid"
)

const automationColumns = `
	id
  , board_id
  , name
  , trigger_type
  , trigger_config
  , conditions
  , actions
  , is_active
  , created_at
  , updated_at
`

// AutomationRepository handles automation-related database operations.
type AutomationRepository struct {
	db      *sql.DB
	dialect Dialect
	logger  *slog.Logger
}

func NewAutomationRepository(db *sql.DB, dialect Dialect, logger *slog.Logger) *AutomationRepository {
	return &AutomationRepository{db: db, dialect: dialect, logger: logger}
}

func (r *AutomationRepository) Create(ctx context.Context, automation *models.Automation) error {
	if automation.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate automation ID: %w", err)
		}

		automation.ID = id.String()
	}

	triggerConfig, conditions, actions, err := marshalAutomationPayload(automation)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO automations (` + automationColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, r.dialect.Rebind(query),
		automation.ID,
		automation.BoardID,
		automation.Name,
		string(automation.TriggerType),
		triggerConfig,
		conditions,
		actions,
		automation.IsActive,
		automation.CreatedAt.UTC(),
		automation.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert automation: %w", err)
	}

	return nil
}

func (r *AutomationRepository) Update(ctx context.Context, automation *models.Automation) error {
	triggerConfig, conditions, actions, err := marshalAutomationPayload(automation)
	if err != nil {
		return err
	}

	query := `
		UPDATE automations
		SET name = ?
		  , trigger_type = ?
		  , trigger_config = ?
		  , conditions = ?
		  , actions = ?
		  , is_active = ?
		  , updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, r.dialect.Rebind(query),
		automation.Name,
		string(automation.TriggerType),
		triggerConfig,
		conditions,
		actions,
		automation.IsActive,
		automation.UpdatedAt.UTC(),
		automation.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update automation: %w", err)
	}

	return requireAffected(result, persistence.NewRepositoryError("Update", "automation", automation.ID, persistence.ErrAutomationNotFound))
}

func (r *AutomationRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer rollback(ctx, r.logger, tx)

	_, err = tx.ExecContext(ctx, r.dialect.Rebind(`DELETE FROM automation_logs WHERE automation_id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete automation logs: %w", err)
	}

	result, err := tx.ExecContext(ctx, r.dialect.Rebind(`DELETE FROM automations WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete automation: %w", err)
	}

	err = requireAffected(result, persistence.NewRepositoryError("Delete", "automation", id, persistence.ErrAutomationNotFound))
	if err != nil {
		return err
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *AutomationRepository) GetByID(ctx context.Context, id string) (*models.Automation, error) {
	query := `SELECT ` + automationColumns + ` FROM automations WHERE id = ?`

	automation, err := scanAutomation(r.db.QueryRowContext(ctx, r.dialect.Rebind(query), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewRepositoryError("GetByID", "automation", id, persistence.ErrAutomationNotFound)
		}

		return nil, fmt.Errorf("failed to scan automation: %w", err)
	}

	return automation, nil
}

func (r *AutomationRepository) ListByBoard(ctx context.Context, boardID string) ([]*models.Automation, error) {
	query := `
		SELECT ` + automationColumns + `
		FROM automations
		WHERE board_id = ?
		ORDER BY created_at ASC, id ASC
	`

	return r.list(ctx, query, boardID)
}

func (r *AutomationRepository) ListActive(ctx context.Context, boardID string, triggerType models.TriggerType) ([]*models.Automation, error) {
	query := `
		SELECT ` + automationColumns + `
		FROM automations
		WHERE board_id = ? AND trigger_type = ? AND is_active = ?
		ORDER BY created_at ASC, id ASC
	`

	return r.list(ctx, query, boardID, string(triggerType), true)
}

func (r *AutomationRepository) list(ctx context.Context, query string, args ...any) ([]*models.Automation, error) {
	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query automations: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	automations := make([]*models.Automation, 0)

	for rows.Next() {
		automation, err := scanAutomation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan automation: %w", err)
		}

		automations = append(automations, automation)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating automations: %w", err)
	}

	return automations, nil
}

func scanAutomation(row scanner) (*models.Automation, error) {
	var (
		automation                         models.Automation
		triggerType                        string
		triggerConfig, conditions, actions string
	)

	err := row.Scan(
		&automation.ID,
		&automation.BoardID,
		&automation.Name,
		&triggerType,
		&triggerConfig,
		&conditions,
		&actions,
		&automation.IsActive,
		&automation.CreatedAt,
		&automation.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	automation.TriggerType = models.TriggerType(triggerType)

	err = json.Unmarshal([]byte(triggerConfig), &automation.TriggerConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to decode trigger config: %w", err)
	}

	err = json.Unmarshal([]byte(conditions), &automation.Conditions)
	if err != nil {
		return nil, fmt.Errorf("failed to decode conditions: %w", err)
	}

	err = json.Unmarshal([]byte(actions), &automation.Actions)
	if err != nil {
		return nil, fmt.Errorf("failed to decode actions: %w", err)
	}

	if automation.Conditions == nil {
		automation.Conditions = []models.Condition{}
	}

	if automation.Actions == nil {
		automation.Actions = []models.Action{}
	}

	automation.CreatedAt = automation.CreatedAt.UTC()
	automation.UpdatedAt = automation.UpdatedAt.UTC()

	return &automation, nil
}

func marshalAutomationPayload(automation *models.Automation) (string, string, string, error) {
	triggerConfig, err := json.Marshal(automation.TriggerConfig)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to marshal trigger config: %w", err)
	}

	conditions := automation.Conditions
	if conditions == nil {
		conditions = []models.Condition{}
	}

	conditionsJSON, err := json.Marshal(conditions)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to marshal conditions: %w", err)
	}

	actions := automation.Actions
	if actions == nil {
		actions = []models.Action{}
	}

	actionsJSON, err := json.Marshal(actions)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to marshal actions: %w", err)
	}

	return string(triggerConfig), string(conditionsJSON), string(actionsJSON), nil
}

func requireAffected(result sql.Result, notFound error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}

	if affected == 0 {
		return notFound
	}

	return nil
}
