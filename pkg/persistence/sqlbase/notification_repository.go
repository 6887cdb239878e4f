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

// NotificationRepository stores in-app notifications.
type NotificationRepository struct {
	db      *sql.DB
	dialect Dialect
	logger  *slog.Logger
}

func NewNotificationRepository(db *sql.DB, dialect Dialect, logger *slog.Logger) *NotificationRepository {
	return &NotificationRepository{db: db, dialect: dialect, logger: logger}
}

func (r *NotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	if notification.ID == "" {
		id, err := newID()
		if err != nil {
			return err
		}

		notification.ID = id
	}

	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
	}

	var data sql.NullString

	if len(notification.Data) > 0 {
		payload, err := json.Marshal(notification.Data)
		if err != nil {
			return fmt.Errorf("failed to marshal notification data: %w", err)
		}

		data = sql.NullString{String: string(payload), Valid: true}
	}

	query := `
		INSERT INTO notifications (id, user_id, title, message, data, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, r.dialect.Rebind(query),
		notification.ID,
		notification.UserID,
		notification.Title,
		notification.Message,
		data,
		notification.Read,
		notification.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}

	return nil
}

// ListByUser returns the newest notifications first.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*models.Notification, error) {
	query := `
		SELECT id, user_id, title, message, data, is_read, created_at
		FROM notifications
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(query), userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	notifications := make([]*models.Notification, 0)

	for rows.Next() {
		var (
			notification models.Notification
			data         sql.NullString
		)

		err := rows.Scan(
			&notification.ID,
			&notification.UserID,
			&notification.Title,
			&notification.Message,
			&data,
			&notification.Read,
			&notification.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}

		if data.Valid {
			err = json.Unmarshal([]byte(data.String), &notification.Data)
			if err != nil {
				return nil, fmt.Errorf("failed to decode notification data: %w", err)
			}
		}

		notification.CreatedAt = notification.CreatedAt.UTC()
		notifications = append(notifications, &notification)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}

	return notifications, nil
}
