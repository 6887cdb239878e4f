// Package main provides the taskflow-api server: the automation API, the
// dispatch worker and the due date scheduler in one process.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dukex/taskflow/pkg/actions"
	"github.com/dukex/taskflow/pkg/config"
	"github.com/dukex/taskflow/pkg/scheduler"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 9091

func main() {
	err := newCommand().Run(context.Background(), os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:                  "taskflow-api",
		Usage:                 "Run board automations",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML config file; flags and environment variables take precedence",
				Sources: cli.EnvVars("TASKFLOW_CONFIG"),
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Database connection URL (sqlite://path or postgres://...)",
				Value:   "sqlite://taskflow.db",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log format (text, json)",
				Value:   "text",
				Sources: cli.EnvVars("LOG_FORMAT"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus carrying automation triggers (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringSliceFlag{
				Name:    "kafka-brokers",
				Usage:   "Kafka brokers used when --event-bus=kafka",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis URL for the shared scheduler deduper",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.DurationFlag{
				Name:    "scheduler-interval",
				Usage:   "How often due dates are scanned",
				Value:   scheduler.DefaultInterval,
				Sources: cli.EnvVars("SCHEDULER_INTERVAL"),
			},
			&cli.BoolFlag{
				Name:    "scheduler-dedupe",
				Usage:   "Fire each due date trigger once per card and day",
				Sources: cli.EnvVars("SCHEDULER_DEDUPE"),
			},
			&cli.DurationFlag{
				Name:    "action-timeout",
				Usage:   "Time limit for a single automation action",
				Value:   actions.DefaultTimeout,
				Sources: cli.EnvVars("ACTION_TIMEOUT"),
			},
			&cli.StringFlag{
				Name:    "slack-webhook-url",
				Usage:   "Mirror notifications to a Slack incoming webhook",
				Sources: cli.EnvVars("SLACK_WEBHOOK_URL"),
			},
			&cli.StringFlag{
				Name:    "discord-webhook-id",
				Usage:   "Mirror notifications to a Discord webhook (id)",
				Sources: cli.EnvVars("DISCORD_WEBHOOK_ID"),
			},
			&cli.StringFlag{
				Name:    "discord-webhook-token",
				Usage:   "Mirror notifications to a Discord webhook (token)",
				Sources: cli.EnvVars("DISCORD_WEBHOOK_TOKEN"),
			},
			&cli.BoolFlag{
				Name:    "otel-enabled",
				Usage:   "Export traces over OTLP/HTTP",
				Sources: cli.EnvVars("OTEL_ENABLED"),
			},
		},
		Before: loadConfigFile,
		Action: run,
	}
}

// loadConfigFile fills every flag that was not set on the command line or in
// the environment from the --config file.
func loadConfigFile(ctx context.Context, command *cli.Command) (context.Context, error) {
	path := command.String("config")
	if path == "" {
		return ctx, nil
	}

	cfg, err := config.Load(path)
	if err != nil {
		return ctx, err
	}

	for name, value := range cfg.Values() {
		if command.IsSet(name) {
			continue
		}

		if err := command.Set(name, value); err != nil {
			return ctx, fmt.Errorf("config %s: %w", name, err)
		}
	}

	return ctx, nil
}

type settings struct {
	port                int
	databaseURL         string
	eventBus            string
	kafkaBrokers        []string
	redisURL            string
	schedulerInterval   time.Duration
	schedulerDedupe     bool
	actionTimeout       time.Duration
	slackWebhookURL     string
	discordWebhookID    string
	discordWebhookToken string
	otelEnabled         bool
}

func settingsFrom(command *cli.Command) settings {
	return settings{
		port:                command.Int("port"),
		databaseURL:         command.String("database-url"),
		eventBus:            command.String("event-bus"),
		kafkaBrokers:        command.StringSlice("kafka-brokers"),
		redisURL:            command.String("redis-url"),
		schedulerInterval:   command.Duration("scheduler-interval"),
		schedulerDedupe:     command.Bool("scheduler-dedupe"),
		actionTimeout:       command.Duration("action-timeout"),
		slackWebhookURL:     command.String("slack-webhook-url"),
		discordWebhookID:    command.String("discord-webhook-id"),
		discordWebhookToken: command.String("discord-webhook-token"),
		otelEnabled:         command.Bool("otel-enabled"),
	}
}
