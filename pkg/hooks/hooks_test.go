package hooks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dukex/taskflow/pkg/events"
	"github.com/dukex/taskflow/pkg/mocks"
	"github.com/dukex/taskflow/pkg/models"
	"github.com/dukex/taskflow/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func captured(t *testing.T, bus *mocks.MockEventBus) *events.AutomationTriggered {
	t.Helper()

	require.Len(t, bus.Calls, 1)

	triggered, ok := bus.Calls[0].Arguments.Get(2).(*events.AutomationTriggered)
	require.True(t, ok)

	return triggered
}

func newBus() *mocks.MockEventBus {
	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, "board-1", mock.AnythingOfType("*events.AutomationTriggered")).Return(nil)

	return bus
}

func TestCardHooks_OnCardCreated(t *testing.T) {
	bus := newBus()
	hooks := NewCardHooks(bus, testutil.Logger())
	card := &models.Card{ID: "card-1", BoardID: "board-1", Title: "New"}

	hooks.OnCardCreated(context.Background(), card, "board-1")

	triggered := captured(t, bus)
	assert.Equal(t, events.AutomationTriggeredEvent, triggered.Type)
	assert.Equal(t, "board-1", triggered.BoardID)
	assert.Equal(t, models.TriggerCardCreated, triggered.TriggerType)
	assert.Equal(t, "card-1", triggered.Event.Card.ID)
	assert.False(t, triggered.Event.OccurredAt.IsZero())

	card.Title = "Mutated later"
	assert.Equal(t, "New", triggered.Event.Card.Title, "event holds a snapshot")
}

func TestCardHooks_OnCardMoved(t *testing.T) {
	bus := newBus()
	hooks := NewCardHooks(bus, testutil.Logger())

	hooks.OnCardMoved(context.Background(), &models.Card{ID: "card-1"}, "todo", "done", "board-1")

	triggered := captured(t, bus)
	assert.Equal(t, models.TriggerCardMoved, triggered.TriggerType)
	assert.Equal(t, "todo", triggered.Event.FromColumnID)
	assert.Equal(t, "done", triggered.Event.ToColumnID)
}

func TestCardHooks_OnCardUpdated(t *testing.T) {
	bus := newBus()
	hooks := NewCardHooks(bus, testutil.Logger())

	due := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	oldCard := &models.Card{ID: "card-1", Priority: models.PriorityLow}
	newCard := &models.Card{ID: "card-1", Priority: models.PriorityHigh, DueDate: &due}

	hooks.OnCardUpdated(context.Background(), oldCard, newCard, "board-1")

	triggered := captured(t, bus)
	assert.Equal(t, models.TriggerCardUpdated, triggered.TriggerType)
	assert.Equal(t, models.PriorityLow, triggered.Event.OldCard.Priority)
	assert.Equal(t, models.FieldChange{From: "low", To: "high"}, triggered.Event.Changes["priority"])
	assert.Equal(t, models.FieldChange{From: nil, To: "2026-05-01T00:00:00Z"}, triggered.Event.Changes["due_date"])
}

func TestCardHooks_OnCardUpdatedWithoutChanges(t *testing.T) {
	bus := &mocks.MockEventBus{}
	hooks := NewCardHooks(bus, testutil.Logger())
	card := &models.Card{ID: "card-1", Title: "Same"}

	hooks.OnCardUpdated(context.Background(), card, card.Clone(), "board-1")

	bus.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestCardHooks_OnCardCompleted(t *testing.T) {
	bus := newBus()
	hooks := NewCardHooks(bus, testutil.Logger())

	hooks.OnCardCompleted(context.Background(), &models.Card{ID: "card-1", Completed: true}, "board-1")

	triggered := captured(t, bus)
	assert.Equal(t, models.TriggerCardCompleted, triggered.TriggerType)
	assert.True(t, triggered.Event.Card.Completed)
}

func TestCardHooks_OnChecklistCompleted(t *testing.T) {
	bus := newBus()
	hooks := NewCardHooks(bus, testutil.Logger())

	checklist := &models.Checklist{ID: "check-1", CardID: "card-1", Completed: true}
	hooks.OnChecklistCompleted(context.Background(), &models.Card{ID: "card-1"}, checklist, "board-1")

	triggered := captured(t, bus)
	assert.Equal(t, models.TriggerChecklistCompleted, triggered.TriggerType)
	require.NotNil(t, triggered.Event.Checklist)
	assert.Equal(t, "check-1", triggered.Event.Checklist.ID)
}

func TestCardHooks_PublishFailureIsSwallowed(t *testing.T) {
	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))
	hooks := NewCardHooks(bus, testutil.Logger())

	assert.NotPanics(t, func() {
		hooks.OnCardCreated(context.Background(), &models.Card{ID: "card-1"}, "board-1")
	})
	bus.AssertExpectations(t)
}
