package movecard

import (
	"context"

	"github.com/dukex/taskflow/pkg/protocol"
)

// ActionFactory creates Action instances bound to a card mutator.
type ActionFactory struct {
	cards protocol.CardMutator
}

func NewActionFactory(cards protocol.CardMutator) *ActionFactory {
	return &ActionFactory{cards: cards}
}

func (f *ActionFactory) Create(_ context.Context, config map[string]any) (protocol.Action, error) {
	return NewAction(f.cards, config)
}

func (f *ActionFactory) ID() string {
	return "move_card"
}

func (f *ActionFactory) Name() string {
	return "Move card"
}

func (f *ActionFactory) Description() string {
	return "Moves the triggering card to another column of the same board."
}

func (f *ActionFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"column_id": map[string]any{
				"type":        "string",
				"minLength":   1,
				"description": "Target column. It must belong to the card's board.",
			},
			"position": map[string]any{
				"type":        "integer",
				"minimum":     0,
				"description": "Position inside the target column. Defaults to the end of the column.",
			},
		},
		"required":             []string{"column_id"},
		"additionalProperties": false,
	}
}
