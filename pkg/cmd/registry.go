// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"context"
	"log/slog"

	"github.com/dukex/taskflow/pkg/actions/movecard"
	"github.com/dukex/taskflow/pkg/actions/notification"
	"github.com/dukex/taskflow/pkg/actions/updatefield"
	"github.com/dukex/taskflow/pkg/notifier"
	"github.com/dukex/taskflow/pkg/persistence"
	"github.com/dukex/taskflow/pkg/protocol"
	"github.com/dukex/taskflow/pkg/registry"
)

func registerNativeActions(reg *registry.Registry, cards protocol.CardMutator, n notifier.Notifier) {
	reg.RegisterAction(movecard.NewActionFactory(cards))
	reg.RegisterAction(updatefield.NewActionFactory(cards))
	reg.RegisterAction(notification.NewActionFactory(n))
}

func NewRegistry(log *slog.Logger, cards protocol.CardMutator, n notifier.Notifier) *registry.Registry {
	reg := registry.NewRegistry(log)

	registerNativeActions(reg, cards, n)

	return reg
}

// NotifierConfig holds the optional external delivery targets.
type NotifierConfig struct {
	SlackWebhookURL     string
	DiscordWebhookID    string
	DiscordWebhookToken string
}

// NewNotifier always stores notifications in-app and mirrors them to every
// configured webhook.
func NewNotifier(ctx context.Context, log *slog.Logger, repository persistence.NotificationRepository, config NotifierConfig) (notifier.Notifier, error) {
	var secondary []notifier.Notifier

	if config.SlackWebhookURL != "" {
		secondary = append(secondary, notifier.NewSlack(config.SlackWebhookURL))
		log.InfoContext(ctx, "Slack notifications enabled")
	}

	if config.DiscordWebhookID != "" || config.DiscordWebhookToken != "" {
		discord, err := notifier.NewDiscord(config.DiscordWebhookID, config.DiscordWebhookToken)
		if err != nil {
			return nil, err
		}

		secondary = append(secondary, discord)
		log.InfoContext(ctx, "Discord notifications enabled")
	}

	return notifier.NewMulti(log, notifier.NewInApp(repository), secondary...), nil
}
