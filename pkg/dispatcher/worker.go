package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/taskflow/pkg/eventbus"
	"github.com/dukex/taskflow/pkg/events"
)

var ErrUnexpectedEvent = errors.New("unexpected event payload")

// Worker consumes AutomationTriggered events from the bus and dispatches them.
type Worker struct {
	bus        eventbus.EventBus
	dispatcher *Dispatcher
	logger     *slog.Logger
}

func NewWorker(bus eventbus.EventBus, dispatcher *Dispatcher, logger *slog.Logger) *Worker {
	return &Worker{
		bus:        bus,
		dispatcher: dispatcher,
		logger:     logger.With("module", "dispatch_worker"),
	}
}

func (w *Worker) Start(ctx context.Context) error {
	if err := w.bus.Handle(events.AutomationTriggeredEvent, w.handleAutomationTriggered); err != nil {
		return fmt.Errorf("failed to register handler: %w", err)
	}

	if err := w.bus.Subscribe(ctx); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	w.logger.InfoContext(ctx, "Dispatch worker started")

	return nil
}

func (w *Worker) handleAutomationTriggered(ctx context.Context, event any) error {
	triggered, ok := event.(*events.AutomationTriggered)
	if !ok || triggered.Event == nil {
		return fmt.Errorf("%w: %T", ErrUnexpectedEvent, event)
	}

	outcomes, err := w.dispatcher.Dispatch(ctx, triggered.BoardID, triggered.TriggerType, triggered.Event)
	if err != nil {
		return err
	}

	w.logger.DebugContext(ctx, "Handled automation trigger",
		"event_id", triggered.ID,
		"board_id", triggered.BoardID,
		"trigger_type", triggered.TriggerType,
		"outcomes", len(outcomes))

	return nil
}
