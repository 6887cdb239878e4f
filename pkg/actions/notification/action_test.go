package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/dukex/taskflow/pkg/mocks"
	"github.com/dukex/taskflow/pkg/models"
	"github.com/dukex/taskflow/pkg/notifier"
	"github.com/dukex/taskflow/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func dueEvent() *models.Event {
	days := 3

	return &models.Event{
		TriggerType:  models.TriggerDueDateApproaching,
		BoardID:      "board-1",
		Card:         &models.Card{ID: "card-1", Title: "Renew certificate", AssigneeID: "user-7"},
		DaysUntilDue: &days,
	}
}

func TestNewAction_RequiresMessage(t *testing.T) {
	_, err := NewAction(&mocks.MockNotifier{}, map[string]any{"user_id": "u"})
	assert.ErrorIs(t, err, ErrMissingMessage)
}

func TestAction_ExecuteDefaultsToAssignee(t *testing.T) {
	n := &mocks.MockNotifier{}
	n.On("Notify", mock.Anything, models.Notification{
		UserID:  "user-7",
		Title:   "Due soon",
		Message: "Renew certificate is due in 3 days",
		Data: map[string]any{
			"trigger_type": "due_date_approaching",
			"board_id":     "board-1",
			"card_id":      "card-1",
		},
	}).Return(nil)

	action, err := NewAction(n, map[string]any{
		"title":   "Due soon",
		"message": "{{.card.title}} is due in {{.days_until_due}} days",
	})
	require.NoError(t, err)

	output, err := action.Execute(context.Background(), dueEvent(), testutil.Logger())
	require.NoError(t, err)
	assert.Equal(t, "user-7", output.(map[string]any)["user_id"])
	n.AssertExpectations(t)
}

func TestAction_ExecuteExplicitRecipient(t *testing.T) {
	n := &mocks.MockNotifier{}
	n.On("Notify", mock.Anything, mock.MatchedBy(func(notification models.Notification) bool {
		return notification.UserID == "lead" && notification.Title == defaultTitle
	})).Return(nil)

	action, err := NewAction(n, map[string]any{"user_id": "lead", "message": "heads up"})
	require.NoError(t, err)

	_, err = action.Execute(context.Background(), dueEvent(), testutil.Logger())
	require.NoError(t, err)
	n.AssertExpectations(t)
}

func TestAction_ExecuteErrors(t *testing.T) {
	t.Run("no recipient", func(t *testing.T) {
		action, err := NewAction(&mocks.MockNotifier{}, map[string]any{"message": "hi"})
		require.NoError(t, err)

		_, err = action.Execute(context.Background(), &models.Event{Card: &models.Card{ID: "c"}}, testutil.Logger())
		assert.ErrorIs(t, err, notifier.ErrMissingRecipient)
	})

	t.Run("delivery failure", func(t *testing.T) {
		n := &mocks.MockNotifier{}
		n.On("Notify", mock.Anything, mock.Anything).Return(errors.New("push gateway down"))

		action, err := NewAction(n, map[string]any{"message": "hi"})
		require.NoError(t, err)

		_, err = action.Execute(context.Background(), dueEvent(), testutil.Logger())
		assert.ErrorContains(t, err, "push gateway down")
	})
}
