package notifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/dukex/taskflow/pkg/models"
)

// webhookExecutor abstracts the discordgo method we use, enabling test fakes.
type webhookExecutor interface {
	WebhookExecute(webhookID, token string, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type Discord struct {
	session   webhookExecutor
	webhookID string
	token     string
}

func NewDiscord(webhookID, token string) (*Discord, error) {
	if webhookID == "" || token == "" {
		return nil, errors.New("discord: webhook id and token are required")
	}

	// Webhook execution is a plain REST call; the session is never opened.
	session, err := discordgo.New("")
	if err != nil {
		return nil, fmt.Errorf("discord: create session: %w", err)
	}

	return &Discord{session: session, webhookID: webhookID, token: token}, nil
}

func (d *Discord) Notify(ctx context.Context, notification models.Notification) error {
	params := &discordgo.WebhookParams{
		Content: formatText(notification),
	}

	if _, err := d.session.WebhookExecute(d.webhookID, d.token, false, params, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord: execute webhook: %w", err)
	}

	return nil
}
