// Package notifier delivers automation notifications to users and chat channels.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/taskflow/pkg/models"
	"github.com/dukex/taskflow/pkg/persistence"
)

var ErrMissingRecipient = errors.New("notification has no recipient")

type Notifier interface {
	Notify(ctx context.Context, notification models.Notification) error
}

// InApp stores notifications so they can be listed through the API.
type InApp struct {
	repository persistence.NotificationRepository
}

func NewInApp(repository persistence.NotificationRepository) *InApp {
	return &InApp{repository: repository}
}

func (n *InApp) Notify(ctx context.Context, notification models.Notification) error {
	if notification.UserID == "" {
		return ErrMissingRecipient
	}

	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
	}

	if err := n.repository.Create(ctx, &notification); err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}

	return nil
}

// Multi fans a notification out to every configured notifier. The first
// notifier is the primary one; failures of the others are only logged.
type Multi struct {
	primary   Notifier
	secondary []Notifier
	logger    *slog.Logger
}

func NewMulti(logger *slog.Logger, primary Notifier, secondary ...Notifier) *Multi {
	return &Multi{
		primary:   primary,
		secondary: secondary,
		logger:    logger.With("module", "notifier"),
	}
}

func (m *Multi) Notify(ctx context.Context, notification models.Notification) error {
	if err := m.primary.Notify(ctx, notification); err != nil {
		return err
	}

	var errs []error

	for _, n := range m.secondary {
		if err := n.Notify(ctx, notification); err != nil {
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		m.logger.WarnContext(ctx, "Secondary notification delivery failed",
			"user_id", notification.UserID,
			"error", err)
	}

	return nil
}

func formatText(notification models.Notification) string {
	if notification.Title == "" {
		return notification.Message
	}

	return fmt.Sprintf("*%s*\n%s", notification.Title, notification.Message)
}
