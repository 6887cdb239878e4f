package sqlbase

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/taskflow/pkg/models"
)

// ActivityRepository stores the board activity trail.
type ActivityRepository struct {
	db      *sql.DB
	dialect Dialect
	logger  *slog.Logger
}

func NewActivityRepository(db *sql.DB, dialect Dialect, logger *slog.Logger) *ActivityRepository {
	return &ActivityRepository{db: db, dialect: dialect, logger: logger}
}

func (r *ActivityRepository) Record(ctx context.Context, entry *models.ActivityEntry) error {
	if entry.ID == "" {
		id, err := newID()
		if err != nil {
			return err
		}

		entry.ID = id
	}

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	before, err := marshalSnapshot(entry.Before)
	if err != nil {
		return err
	}

	after, err := marshalSnapshot(entry.After)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO activity_logs (id, board_id, entity_type, entity_id, action, before_data, after_data, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, r.dialect.Rebind(query),
		entry.ID,
		entry.BoardID,
		entry.EntityType,
		entry.EntityID,
		string(entry.Action),
		before,
		after,
		entry.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert activity entry: %w", err)
	}

	return nil
}

func (r *ActivityRepository) ListByEntity(ctx context.Context, entityType, entityID string) ([]*models.ActivityEntry, error) {
	query := `
		SELECT id, board_id, entity_type, entity_id, action, before_data, after_data, created_at
		FROM activity_logs
		WHERE entity_type = ? AND entity_id = ?
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(query), entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	entries := make([]*models.ActivityEntry, 0)

	for rows.Next() {
		var (
			entry         models.ActivityEntry
			action        string
			before, after sql.NullString
		)

		err := rows.Scan(&entry.ID, &entry.BoardID, &entry.EntityType, &entry.EntityID, &action, &before, &after, &entry.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity entry: %w", err)
		}

		entry.Action = models.ActivityAction(action)
		entry.CreatedAt = entry.CreatedAt.UTC()

		entry.Before, err = unmarshalSnapshot(before)
		if err != nil {
			return nil, err
		}

		entry.After, err = unmarshalSnapshot(after)
		if err != nil {
			return nil, err
		}

		entries = append(entries, &entry)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating activity: %w", err)
	}

	return entries, nil
}

func marshalSnapshot(snapshot *models.AutomationSnapshot) (sql.NullString, error) {
	if snapshot == nil {
		return sql.NullString{}, nil
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	return sql.NullString{String: string(data), Valid: true}, nil
}

func unmarshalSnapshot(data sql.NullString) (*models.AutomationSnapshot, error) {
	if !data.Valid {
		return nil, nil
	}

	var snapshot models.AutomationSnapshot

	err := json.Unmarshal([]byte(data.String), &snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}

	return &snapshot, nil
}
