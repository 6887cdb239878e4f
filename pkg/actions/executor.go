package actions

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/taskflow/pkg/models"
	"github.com/dukex/taskflow/pkg/registry"
)

const DefaultTimeout = 10 * time.Second

// Executor resolves actions through the registry and runs them one at a time.
type Executor struct {
	registry *registry.Registry
	logger   *slog.Logger
	timeout  time.Duration
}

func NewExecutor(registry *registry.Registry, logger *slog.Logger, timeout time.Duration) *Executor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Executor{
		registry: registry,
		logger:   logger.With("module", "action_executor"),
		timeout:  timeout,
	}
}

// ExecuteAll runs the actions in order. A failing action is recorded in its
// result and never stops the actions after it.
func (e *Executor) ExecuteAll(ctx context.Context, actions []models.Action, event *models.Event) []models.ActionResult {
	results := make([]models.ActionResult, 0, len(actions))

	for index, action := range actions {
		logger := e.logger.With("action_type", action.Type, "action_index", index)

		output, err := e.execute(ctx, action, event, logger)
		if err != nil {
			if IsUnknownActionError(err) {
				logger.ErrorContext(ctx, "Action type has no handler", "error", err)
			} else {
				logger.WarnContext(ctx, "Action failed", "error", err)
			}

			results = append(results, models.ActionResult{
				Type:   action.Type,
				Result: models.ActionStatusError,
				Error:  err.Error(),
			})

			continue
		}

		results = append(results, models.ActionResult{
			Type:   action.Type,
			Result: models.ActionStatusSuccess,
			Output: output,
		})
	}

	return results
}

// Simulate checks each action without running it.
func (e *Executor) Simulate(actions []models.Action) []models.ActionResult {
	results := make([]models.ActionResult, 0, len(actions))

	for _, action := range actions {
		result := models.ActionResult{Type: action.Type, Result: models.ActionStatusSimulated}

		if err := e.validate(action); err != nil {
			result.Result = models.ActionStatusError
			result.Error = err.Error()
		}

		results = append(results, result)
	}

	return results
}

func (e *Executor) execute(ctx context.Context, action models.Action, event *models.Event, logger *slog.Logger) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	if !e.registry.HasAction(action.Type) {
		return nil, &UnknownActionError{Type: action.Type}
	}

	handler, err := e.registry.CreateAction(ctx, action)
	if err != nil {
		return nil, err
	}

	type outcome struct {
		output any
		err    error
	}

	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("%w: %v", ErrActionPanicked, r)}
			}
		}()

		output, err := handler.Execute(ctx, event, logger)
		done <- outcome{output: output, err: err}
	}()

	select {
	case result := <-done:
		return result.output, result.err
	case <-ctx.Done():
		return nil, fmt.Errorf("action %s did not finish: %w", action.Type, ctx.Err())
	}
}

func (e *Executor) validate(action models.Action) error {
	if !e.registry.HasAction(action.Type) {
		return &UnknownActionError{Type: action.Type}
	}

	return e.registry.ValidateAction(action)
}
