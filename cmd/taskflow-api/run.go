package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dukex/taskflow/pkg/actions"
	"github.com/dukex/taskflow/pkg/cmd"
	"github.com/dukex/taskflow/pkg/conditions"
	"github.com/dukex/taskflow/pkg/dispatcher"
	"github.com/dukex/taskflow/pkg/eventbus"
	"github.com/dukex/taskflow/pkg/hooks"
	"github.com/dukex/taskflow/pkg/log"
	"github.com/dukex/taskflow/pkg/logsink"
	"github.com/dukex/taskflow/pkg/otelhelper"
	"github.com/dukex/taskflow/pkg/persistence"
	"github.com/dukex/taskflow/pkg/scheduler"
	"github.com/dukex/taskflow/pkg/services"
	"github.com/dukex/taskflow/pkg/web"
	"github.com/go-playground/validator/v10"
	cli "github.com/urfave/cli/v3"
)

func run(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"), command.String("log-format"))

	logger := log.WithModule("api")
	s := settingsFrom(command)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if s.otelEnabled {
		shutdown, err := otelhelper.Setup(ctx, "taskflow-api")
		if err != nil {
			return err
		}

		defer func() {
			if err := shutdown(context.WithoutCancel(ctx)); err != nil {
				logger.Error("Failed to shutdown tracer provider", "error", err)
			}
		}()
	}

	logger.Info("Initializing TaskFlow API")

	application, err := build(ctx, s, logger)
	if err != nil {
		return err
	}
	defer application.Close(context.WithoutCancel(ctx))

	if err := application.Start(ctx); err != nil {
		return err
	}

	return NewAPI(logger, application.handlers).Start(ctx, s.port)
}

type application struct {
	persistence persistence.Persistence
	bus         eventbus.EventBus
	worker      *dispatcher.Worker
	scheduler   *scheduler.Scheduler
	deduper     scheduler.Deduper
	handlers    *web.APIHandlers
	logger      *slog.Logger
}

// build wires storage, the event bus and every automation component. The
// returned application owns the opened resources until Close.
func build(ctx context.Context, s settings, logger *slog.Logger) (*application, error) {
	store, err := cmd.NewPersistence(ctx, logger, s.databaseURL)
	if err != nil {
		return nil, err
	}

	bus, err := cmd.NewEventBus(s.eventBus, s.kafkaBrokers, logger)
	if err != nil {
		_ = store.Close(ctx)

		return nil, err
	}

	app := &application{persistence: store, bus: bus, logger: logger}

	cardService := services.NewCards(store, logger)

	notify, err := cmd.NewNotifier(ctx, logger, store.Notifications(), cmd.NotifierConfig{
		SlackWebhookURL:     s.slackWebhookURL,
		DiscordWebhookID:    s.discordWebhookID,
		DiscordWebhookToken: s.discordWebhookToken,
	})
	if err != nil {
		app.Close(ctx)

		return nil, err
	}

	reg := cmd.NewRegistry(logger, cardService, notify)

	evaluator, err := conditions.NewEvaluator(logger)
	if err != nil {
		app.Close(ctx)

		return nil, err
	}

	automationService := services.NewAutomation(store, evaluator, reg,
		services.NewInMemoryRulesCache(services.DefaultCacheConfig(), nil), logger)
	sink := logsink.New(store.ExecutionLogs(), logger)
	d := dispatcher.New(automationService, evaluator, actions.NewExecutor(reg, logger, s.actionTimeout), sink, logger)

	app.worker = dispatcher.NewWorker(bus, d, logger)

	opts := []scheduler.Option{scheduler.WithInterval(s.schedulerInterval)}

	if s.schedulerDedupe {
		deduper, err := newDeduper(ctx, s.redisURL)
		if err != nil {
			app.Close(ctx)

			return nil, err
		}

		app.deduper = deduper
		opts = append(opts, scheduler.WithDeduper(deduper))
	}

	app.scheduler = scheduler.New(store.Cards(), d, logger, opts...)

	app.handlers = web.NewAPIHandlers(
		automationService,
		cardService,
		d,
		sink,
		hooks.NewCardHooks(bus, logger),
		reg,
		store,
		validator.New(validator.WithRequiredStructEnabled()),
	)

	return app, nil
}

func newDeduper(ctx context.Context, redisURL string) (scheduler.Deduper, error) {
	if redisURL == "" {
		return scheduler.NewMemoryDeduper(nil), nil
	}

	return scheduler.NewRedisDeduperFromURL(ctx, redisURL)
}

// Start subscribes the dispatch worker and starts the due date scheduler.
func (a *application) Start(ctx context.Context) error {
	if err := a.worker.Start(ctx); err != nil {
		return err
	}

	return a.scheduler.Start(ctx)
}

func (a *application) Close(ctx context.Context) {
	if a.scheduler != nil {
		if err := a.scheduler.Stop(); err != nil {
			a.logger.Error("Failed to stop scheduler", "error", err)
		}
	}

	if closer, ok := a.deduper.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			a.logger.Error("Failed to close deduper", "error", err)
		}
	}

	if err := a.bus.Close(); err != nil {
		a.logger.Error("Failed to close event bus", "error", err)
	}

	if err := a.persistence.Close(ctx); err != nil {
		a.logger.Error("Failed to close persistence", "error", err)
	}
}
