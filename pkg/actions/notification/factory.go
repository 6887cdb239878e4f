package notification

import (
	"context"

	"github.com/dukex/taskflow/pkg/notifier"
	"github.com/dukex/taskflow/pkg/protocol"
)

type ActionFactory struct {
	notifier notifier.Notifier
}

func NewActionFactory(n notifier.Notifier) *ActionFactory {
	return &ActionFactory{notifier: n}
}

func (f *ActionFactory) Create(_ context.Context, config map[string]any) (protocol.Action, error) {
	return NewAction(f.notifier, config)
}

func (f *ActionFactory) ID() string {
	return "send_notification"
}

func (f *ActionFactory) Name() string {
	return "Send notification"
}

func (f *ActionFactory) Description() string {
	return "Notifies a user. Defaults to the card assignee."
}

func (f *ActionFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"user_id": map[string]any{
				"type":        "string",
				"description": "Recipient. Defaults to the card assignee.",
			},
			"title": map[string]any{
				"type":        "string",
				"description": "Notification title. Supports templating.",
			},
			"message": map[string]any{
				"type":        "string",
				"minLength":   1,
				"description": "Notification body. Supports templating.",
				"examples": []string{
					"{{.card.title}} is due in {{.days_until_due}} days",
					"{{.card.title}} moved to {{.to_column_id}}",
				},
			},
		},
		"required":             []string{"message"},
		"additionalProperties": false,
	}
}
