// Package movecard provides the move_card automation action.
package movecard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/taskflow/pkg/actions"
	"github.com/dukex/taskflow/pkg/models"
	"github.com/dukex/taskflow/pkg/protocol"
)

var ErrMissingColumn = errors.New("move_card requires column_id")

type Action struct {
	ColumnID string
	Position *int

	cards protocol.CardMutator
}

func NewAction(cards protocol.CardMutator, config map[string]any) (*Action, error) {
	columnID, _ := config["column_id"].(string)
	if columnID == "" {
		return nil, ErrMissingColumn
	}

	action := &Action{ColumnID: columnID, cards: cards}

	// JSON numbers decode as float64.
	switch position := config["position"].(type) {
	case float64:
		p := int(position)
		action.Position = &p
	case int:
		action.Position = &position
	}

	return action, nil
}

func (a *Action) Execute(ctx context.Context, event *models.Event, logger *slog.Logger) (any, error) {
	if event == nil || event.Card == nil {
		return nil, actions.ErrNoCard
	}

	card, err := a.cards.MoveCard(ctx, event.Card.ID, a.ColumnID, a.Position)
	if err != nil {
		return nil, fmt.Errorf("failed to move card %s: %w", event.Card.ID, err)
	}

	logger.DebugContext(ctx, "Card moved", "card_id", card.ID, "column_id", card.ColumnID)

	return map[string]any{
		"card_id":        card.ID,
		"from_column_id": event.Card.ColumnID,
		"to_column_id":   card.ColumnID,
		"position":       card.Position,
	}, nil
}
