package notifier

import (
	"context"
	"fmt"

	"github.com/dukex/taskflow/pkg/models"
	"github.com/slack-go/slack"
)

// Slack posts notifications to an incoming webhook.
type Slack struct {
	webhookURL string
}

func NewSlack(webhookURL string) *Slack {
	return &Slack{webhookURL: webhookURL}
}

func (s *Slack) Notify(ctx context.Context, notification models.Notification) error {
	msg := &slack.WebhookMessage{
		Text: formatText(notification),
	}

	if err := slack.PostWebhookContext(ctx, s.webhookURL, msg); err != nil {
		return fmt.Errorf("slack: post webhook: %w", err)
	}

	return nil
}
