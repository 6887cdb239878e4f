// Package conditions evaluates automation conditions against trigger events.
//
// Every condition kind is compiled into a predicate. Evaluation is a logical
// AND across the list and fails closed: an unknown kind, a malformed config or
// an expression error makes the whole list evaluate to false.
package conditions

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dukex/taskflow/pkg/models"
	"github.com/dukex/taskflow/pkg/registry"
	"github.com/google/cel-go/cel"
)

const celCostLimit = 100000

type Evaluator struct {
	logger   *slog.Logger
	env      *cel.Env
	mu       sync.RWMutex
	programs map[string]cel.Program
}

func NewEvaluator(logger *slog.Logger) (*Evaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("card", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("event", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("changes", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("days_until_due", cel.DynType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Evaluator{
		logger:   logger.With("module", "conditions"),
		env:      env,
		programs: make(map[string]cel.Program),
	}, nil
}

// Evaluate reports whether every condition holds for the event.
func (e *Evaluator) Evaluate(ctx context.Context, conditions []models.Condition, event *models.Event) bool {
	if len(conditions) == 0 {
		return true
	}

	f := newFacts(event)

	for i, condition := range conditions {
		ok, err := e.evaluateOne(condition, f)
		if err != nil {
			evalErr := &ConditionEvaluationError{Type: condition.Type, Index: i, Err: err}
			e.logger.WarnContext(ctx, "Condition failed closed", "error", evalErr)

			return false
		}

		if !ok {
			e.logger.DebugContext(ctx, "Condition not met", "index", i, "type", condition.Type)

			return false
		}
	}

	return true
}

func (e *Evaluator) evaluateOne(condition models.Condition, f *facts) (bool, error) {
	p, err := e.compile(condition)
	if err != nil {
		return false, err
	}

	return p.evaluate(f)
}

// Validate checks a condition at write time: its kind must be known, its config
// must match the kind's schema and expressions must compile to a boolean.
func (e *Evaluator) Validate(condition models.Condition) error {
	schema, ok := Schemas()[condition.Type]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCondition, condition.Type)
	}

	config := condition.Config
	if config == nil {
		config = map[string]any{}
	}

	err := registry.ValidateSchema(schema, config)
	if err != nil {
		return fmt.Errorf("%s: %w", condition.Type, err)
	}

	_, err = e.compile(condition)

	return err
}

func (e *Evaluator) compile(condition models.Condition) (predicate, error) {
	config := condition.Config

	switch condition.Type {
	case models.ConditionFieldEquals:
		field, err := stringParam(config, "field")
		if err != nil {
			return nil, err
		}

		raw, ok := config["value"]
		if !ok {
			return nil, fmt.Errorf("%w: missing value", ErrInvalidCondition)
		}

		value, err := normalize(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidCondition, err)
		}

		return &fieldEquals{field: field, value: value}, nil
	case models.ConditionFieldChanged:
		field, err := stringParam(config, "field")
		if err != nil {
			return nil, err
		}

		p := &fieldChanged{field: field}

		if raw, ok := config["from"]; ok {
			p.hasFrom = true
			if p.from, err = normalize(raw); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInvalidCondition, err)
			}
		}

		if raw, ok := config["to"]; ok {
			p.hasTo = true
			if p.to, err = normalize(raw); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInvalidCondition, err)
			}
		}

		return p, nil
	case models.ConditionPriorityIs:
		priorities, err := priorityParams(config)
		if err != nil {
			return nil, err
		}

		return &priorityIs{priorities: priorities}, nil
	case models.ConditionColumnIs:
		columnID, err := stringParam(config, "column_id")
		if err != nil {
			return nil, err
		}

		return &columnIs{columnID: columnID}, nil
	case models.ConditionExpression:
		source, err := stringParam(config, "expression")
		if err != nil {
			return nil, err
		}

		program, err := e.program(source)
		if err != nil {
			return nil, err
		}

		return &expression{source: source, program: program}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCondition, condition.Type)
	}
}

// program compiles a CEL expression once and caches the result.
func (e *Evaluator) program(source string) (cel.Program, error) {
	e.mu.RLock()
	program, ok := e.programs[source]
	e.mu.RUnlock()

	if ok {
		return program, nil
	}

	ast, issues := e.env.Compile(source)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCondition, issues.Err())
	}

	// Field access on card, event and changes is dyn-typed; a bare access would
	// pass the checker and then fail closed on every dispatch.
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("%w: %q", ErrNonBooleanCEL, source)
	}

	program, err := e.env.Program(ast, cel.EvalOptions(cel.OptTrackState), cel.CostLimit(celCostLimit))
	if err != nil {
		return nil, fmt.Errorf("failed to build CEL program: %w", err)
	}

	e.mu.Lock()
	e.programs[source] = program
	e.mu.Unlock()

	return program, nil
}

func stringParam(config map[string]any, key string) (string, error) {
	value, ok := config[key].(string)
	if !ok || value == "" {
		return "", fmt.Errorf("%w: %s must be a non-empty string", ErrInvalidCondition, key)
	}

	return value, nil
}

func priorityParams(config map[string]any) ([]string, error) {
	if priority, ok := config["priority"].(string); ok && priority != "" {
		return []string{priority}, nil
	}

	var priorities []string

	switch raw := config["priorities"].(type) {
	case []string:
		priorities = raw
	case []any:
		for _, item := range raw {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: priorities must be strings", ErrInvalidCondition)
			}

			priorities = append(priorities, s)
		}
	}

	if len(priorities) == 0 {
		return nil, fmt.Errorf("%w: priority or priorities is required", ErrInvalidCondition)
	}

	return priorities, nil
}
