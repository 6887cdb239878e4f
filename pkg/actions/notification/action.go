// Package notification provides the send_notification automation action.
package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/taskflow/pkg/models"
	"github.com/dukex/taskflow/pkg/notifier"
	"github.com/dukex/taskflow/pkg/template"
)

const defaultTitle = "Automation"

var ErrMissingMessage = errors.New("send_notification requires message")

type Action struct {
	UserID  string
	Title   string
	Message string

	notifier notifier.Notifier
}

func NewAction(n notifier.Notifier, config map[string]any) (*Action, error) {
	message, _ := config["message"].(string)
	if message == "" {
		return nil, ErrMissingMessage
	}

	userID, _ := config["user_id"].(string)
	title, _ := config["title"].(string)

	if title == "" {
		title = defaultTitle
	}

	return &Action{UserID: userID, Title: title, Message: message, notifier: n}, nil
}

func (a *Action) Execute(ctx context.Context, event *models.Event, logger *slog.Logger) (any, error) {
	userID := a.UserID
	if userID == "" && event != nil && event.Card != nil {
		userID = event.Card.AssigneeID
	}

	if userID == "" {
		return nil, notifier.ErrMissingRecipient
	}

	data := template.EventData(event)

	title, err := template.RenderString(a.Title, data)
	if err != nil {
		return nil, fmt.Errorf("failed to render title: %w", err)
	}

	message, err := template.RenderString(a.Message, data)
	if err != nil {
		return nil, fmt.Errorf("failed to render message: %w", err)
	}

	n := models.Notification{
		UserID:  userID,
		Title:   title,
		Message: message,
		Data:    map[string]any{},
	}

	if event != nil {
		n.Data["trigger_type"] = string(event.TriggerType)
		n.Data["board_id"] = event.BoardID

		if event.Card != nil {
			n.Data["card_id"] = event.Card.ID
		}
	}

	if err := a.notifier.Notify(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to notify %s: %w", userID, err)
	}

	logger.DebugContext(ctx, "Notification sent", "user_id", userID)

	return map[string]any{
		"user_id": userID,
		"title":   title,
		"message": message,
	}, nil
}
