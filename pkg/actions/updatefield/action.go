// Package updatefield provides the update_field automation action.
package updatefield

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/dukex/taskflow/pkg/actions"
	"github.com/dukex/taskflow/pkg/models"
	"github.com/dukex/taskflow/pkg/protocol"
	"github.com/dukex/taskflow/pkg/template"
)

var ErrInvalidField = errors.New("update_field requires a supported field")

type Action struct {
	Field string
	Value any

	cards protocol.CardMutator
}

func NewAction(cards protocol.CardMutator, config map[string]any) (*Action, error) {
	field, _ := config["field"].(string)
	if !slices.Contains(models.UpdatableCardFields, field) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidField, field)
	}

	return &Action{Field: field, Value: config["value"], cards: cards}, nil
}

func (a *Action) Execute(ctx context.Context, event *models.Event, logger *slog.Logger) (any, error) {
	if event == nil || event.Card == nil {
		return nil, actions.ErrNoCard
	}

	value := a.Value

	if s, ok := value.(string); ok && template.NeedsTemplating(s) {
		var (
			rendered any
			err      error
		)

		// Only the boolean field takes a typed render; the rest are text.
		if a.Field == "completed" {
			rendered, err = template.Render(s, template.EventData(event))
		} else {
			rendered, err = template.RenderString(s, template.EventData(event))
		}

		if err != nil {
			return nil, fmt.Errorf("failed to render value for %s: %w", a.Field, err)
		}

		value = rendered
	}

	card, err := a.cards.UpdateCardField(ctx, event.Card.ID, a.Field, value)
	if err != nil {
		return nil, fmt.Errorf("failed to update %s on card %s: %w", a.Field, event.Card.ID, err)
	}

	logger.DebugContext(ctx, "Card field updated", "card_id", card.ID, "field", a.Field)

	return map[string]any{
		"card_id": card.ID,
		"field":   a.Field,
		"value":   value,
	}, nil
}
