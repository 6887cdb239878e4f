// Package dispatcher matches automation events to board rules and runs them.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dukex/taskflow/pkg/actions"
	"github.com/dukex/taskflow/pkg/conditions"
	"github.com/dukex/taskflow/pkg/logsink"
	"github.com/dukex/taskflow/pkg/models"
	"github.com/dukex/taskflow/pkg/otelhelper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var ErrRulePanicked = errors.New("automation panicked")

// RuleSource lists the active automations of a board for one trigger type.
type RuleSource interface {
	ListActive(ctx context.Context, boardID string, triggerType models.TriggerType) ([]*models.Automation, error)
}

type Dispatcher struct {
	rules     RuleSource
	evaluator *conditions.Evaluator
	executor  *actions.Executor
	sink      *logsink.Sink
	tracer    trace.Tracer
	logger    *slog.Logger
}

func New(
	rules RuleSource,
	evaluator *conditions.Evaluator,
	executor *actions.Executor,
	sink *logsink.Sink,
	logger *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		rules:     rules,
		evaluator: evaluator,
		executor:  executor,
		sink:      sink,
		tracer:    otel.Tracer("taskflow/dispatcher"),
		logger:    logger.With("module", "dispatcher"),
	}
}

// Dispatch runs every matching active rule of the board against event and
// returns one outcome per rule. It fails only when the rules cannot be loaded.
func (d *Dispatcher) Dispatch(ctx context.Context, boardID string, triggerType models.TriggerType, event *models.Event) ([]models.ExecutionOutcome, error) {
	ctx, span := otelhelper.StartSpan(ctx, d.tracer, "dispatcher.dispatch",
		attribute.String(otelhelper.BoardIDKey, boardID),
		attribute.String(otelhelper.TriggerTypeKey, string(triggerType)),
	)
	defer span.End()

	event = normalizeEvent(event, boardID, triggerType)

	automations, err := d.rules.ListActive(ctx, boardID, triggerType)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to load automations for board %s: %w", boardID, err)
	}

	outcomes := make([]models.ExecutionOutcome, 0, len(automations))

	for _, automation := range automations {
		if !automation.IsActive || automation.TriggerType != triggerType {
			continue
		}

		if !matchesTrigger(automation, event) {
			continue
		}

		outcome := d.run(ctx, automation, event)
		d.sink.Record(ctx, automation.ID, event, outcome.Result, outcome.Error)

		outcomes = append(outcomes, outcome)
	}

	span.SetAttributes(attribute.Int(otelhelper.RuleCountKey, len(outcomes)))

	d.logger.DebugContext(ctx, "Dispatched event",
		"board_id", boardID,
		"trigger_type", triggerType,
		"outcomes", len(outcomes))

	return outcomes, nil
}

// Test runs rule against a sample event without invoking any action handler.
// The attempt is always logged as test_success.
func (d *Dispatcher) Test(ctx context.Context, automation *models.Automation, sample *models.Event) models.ExecutionOutcome {
	ctx, span := otelhelper.StartSpan(ctx, d.tracer, "dispatcher.test",
		attribute.String(otelhelper.AutomationIDKey, automation.ID),
		attribute.String(otelhelper.TriggerTypeKey, string(automation.TriggerType)),
	)
	defer span.End()

	event := normalizeEvent(sample, automation.BoardID, automation.TriggerType)

	outcome := models.ExecutionOutcome{
		AutomationID:   automation.ID,
		AutomationName: automation.Name,
		Result:         models.ExecutionTestSuccess,
	}

	switch {
	case !matchesTrigger(automation, event):
		outcome.Skipped = true
		outcome.Reason = models.ReasonTriggerConfigMismatch
	case !d.evaluator.Evaluate(ctx, automation.Conditions, event):
		outcome.Skipped = true
		outcome.Reason = models.ReasonConditionsNotMet
	default:
		outcome.Executed = true
		outcome.ActionResults = d.executor.Simulate(automation.Actions)
	}

	d.sink.Record(ctx, automation.ID, event, models.ExecutionTestSuccess, "")

	return outcome
}

func (d *Dispatcher) run(ctx context.Context, automation *models.Automation, event *models.Event) (outcome models.ExecutionOutcome) {
	ctx, span := otelhelper.StartSpan(ctx, d.tracer, "dispatcher.run",
		attribute.String(otelhelper.AutomationIDKey, automation.ID),
		attribute.String(otelhelper.AutomationNameKey, automation.Name),
	)
	defer span.End()

	logger := d.logger.With("automation_id", automation.ID, "board_id", automation.BoardID)

	outcome = models.ExecutionOutcome{
		AutomationID:   automation.ID,
		AutomationName: automation.Name,
	}

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: %v", ErrRulePanicked, r)
			logger.ErrorContext(ctx, "Automation panicked", "error", err)
			otelhelper.SetError(span, err)

			outcome.Executed = false
			outcome.Result = models.ExecutionError
			outcome.Error = err.Error()
		}

		span.SetAttributes(attribute.String(otelhelper.ExecutionResultKey, string(outcome.Result)))
	}()

	if !d.evaluator.Evaluate(ctx, automation.Conditions, event) {
		logger.DebugContext(ctx, "Conditions not met")

		outcome.Skipped = true
		outcome.Reason = models.ReasonConditionsNotMet
		outcome.Result = models.ExecutionSkipped

		return outcome
	}

	outcome.Executed = true
	outcome.ActionResults = d.executor.ExecuteAll(ctx, automation.Actions, event)
	outcome.Result = models.ExecutionSuccess

	var failures []string

	for i, result := range outcome.ActionResults {
		if result.Failed() {
			failures = append(failures, fmt.Sprintf("action %d (%s): %s", i, result.Type, result.Error))
		}
	}

	if len(failures) > 0 {
		outcome.Result = models.ExecutionError
		outcome.Error = strings.Join(failures, "; ")
		otelhelper.SetError(span, errors.New(outcome.Error))
	}

	logger.InfoContext(ctx, "Automation executed", "execution_result", outcome.Result)

	return outcome
}

// normalizeEvent returns a copy of event stamped with the dispatch board and trigger.
func normalizeEvent(event *models.Event, boardID string, triggerType models.TriggerType) *models.Event {
	normalized := models.Event{}
	if event != nil {
		normalized = *event
	}

	if normalized.BoardID == "" {
		normalized.BoardID = boardID
	}

	if normalized.OccurredAt.IsZero() {
		normalized.OccurredAt = time.Now().UTC()
	}

	normalized.TriggerType = triggerType

	return &normalized
}
