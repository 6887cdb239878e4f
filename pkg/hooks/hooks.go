// Package hooks turns user-originated card mutations into automation triggers.
package hooks

import (
	"context"
	"log/slog"
	"time"

	"github.com/dukex/taskflow/pkg/eventbus"
	"github.com/dukex/taskflow/pkg/events"
	"github.com/dukex/taskflow/pkg/models"
)

// CardHooks publishes an AutomationTriggered event for every card mutation it
// is told about. Publishing is fire-and-forget: failures are logged only.
type CardHooks struct {
	publisher eventbus.EventPublisher
	logger    *slog.Logger
}

func NewCardHooks(publisher eventbus.EventPublisher, logger *slog.Logger) *CardHooks {
	return &CardHooks{
		publisher: publisher,
		logger:    logger.With("module", "card_hooks"),
	}
}

func (h *CardHooks) OnCardCreated(ctx context.Context, card *models.Card, boardID string) {
	h.publish(ctx, &models.Event{
		TriggerType: models.TriggerCardCreated,
		BoardID:     boardID,
		Card:        card.Clone(),
	})
}

func (h *CardHooks) OnCardMoved(ctx context.Context, card *models.Card, fromColumnID, toColumnID, boardID string) {
	h.publish(ctx, &models.Event{
		TriggerType:  models.TriggerCardMoved,
		BoardID:      boardID,
		Card:         card.Clone(),
		FromColumnID: fromColumnID,
		ToColumnID:   toColumnID,
	})
}

// OnCardUpdated fires only when at least one user-editable field changed.
func (h *CardHooks) OnCardUpdated(ctx context.Context, oldCard, newCard *models.Card, boardID string) {
	changes := models.DiffCards(oldCard, newCard)
	if len(changes) == 0 {
		return
	}

	h.publish(ctx, &models.Event{
		TriggerType: models.TriggerCardUpdated,
		BoardID:     boardID,
		Card:        newCard.Clone(),
		OldCard:     oldCard.Clone(),
		Changes:     changes,
	})
}

func (h *CardHooks) OnCardCompleted(ctx context.Context, card *models.Card, boardID string) {
	h.publish(ctx, &models.Event{
		TriggerType: models.TriggerCardCompleted,
		BoardID:     boardID,
		Card:        card.Clone(),
	})
}

func (h *CardHooks) OnChecklistCompleted(ctx context.Context, card *models.Card, checklist *models.Checklist, boardID string) {
	var snapshot *models.Checklist
	if checklist != nil {
		c := *checklist
		snapshot = &c
	}

	h.publish(ctx, &models.Event{
		TriggerType: models.TriggerChecklistCompleted,
		BoardID:     boardID,
		Card:        card.Clone(),
		Checklist:   snapshot,
	})
}

func (h *CardHooks) publish(ctx context.Context, event *models.Event) {
	event.OccurredAt = time.Now().UTC()
	triggered := events.NewAutomationTriggered(event)

	if err := h.publisher.Publish(ctx, event.BoardID, triggered); err != nil {
		h.logger.ErrorContext(ctx, "Failed to publish automation trigger",
			"board_id", event.BoardID,
			"trigger_type", event.TriggerType,
			"error", err)

		return
	}

	h.logger.DebugContext(ctx, "Published automation trigger",
		"event_id", triggered.ID,
		"board_id", event.BoardID,
		"trigger_type", event.TriggerType)
}
