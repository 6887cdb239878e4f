package updatefield

import (
	"context"

	"github.com/dukex/taskflow/pkg/models"
	"github.com/dukex/taskflow/pkg/protocol"
)

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
	return "update_field"
}

func (f *ActionFactory) Name() string {
	return "Update field"
}

func (f *ActionFactory) Description() string {
	return "Sets one field of the triggering card. String values support templating over the event."
}

func (f *ActionFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"field": map[string]any{
				"type": "string",
				"enum": models.UpdatableCardFields,
			},
			"value": map[string]any{
				"description": "New value. Strings containing {{ }} are rendered with the event data.",
				"examples":    []any{"high", true, "2025-01-31", "Escalated: {{.card.title}}"},
			},
		},
		"required":             []string{"field", "value"},
		"additionalProperties": false,
	}
}
