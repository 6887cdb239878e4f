// Package protocol defines the contracts between the automation engine and its pluggable actions.
package protocol

import (
	"context"
	"log/slog"

	"github.com/dukex/taskflow/pkg/models"
)

type Action interface {
	Execute(ctx context.Context, event *models.Event, logger *slog.Logger) (any, error)
}

type ActionFactory interface {
	ID() string
	Name() string
	Description() string
	Schema() map[string]any
	Create(ctx context.Context, config map[string]any) (Action, error)
}

// CardMutator is the card-mutation surface available to actions. Mutations made
// through it do not re-enter the automation hooks.
type CardMutator interface {
	MoveCard(ctx context.Context, cardID, columnID string, position *int) (*models.Card, error)
	UpdateCardField(ctx context.Context, cardID, field string, value any) (*models.Card, error)
}
