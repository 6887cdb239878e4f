package events

import (
	"encoding/json"
	"testing"

	"github.com/dukex/taskflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAutomationTriggered(t *testing.T) {
	event := &models.Event{
		TriggerType: models.TriggerCardCompleted,
		BoardID:     "board-1",
		Card:        &models.Card{ID: "card-1", Completed: true},
	}

	triggered := NewAutomationTriggered(event)

	assert.NotEmpty(t, triggered.ID)
	assert.Equal(t, AutomationTriggeredEvent, triggered.GetType())
	assert.Equal(t, "board-1", triggered.BoardID)
	assert.Equal(t, models.TriggerCardCompleted, triggered.TriggerType)
	assert.False(t, triggered.Timestamp.IsZero())
}

func TestAutomationTriggered_JSONCarriesEvent(t *testing.T) {
	triggered := NewAutomationTriggered(&models.Event{
		TriggerType:  models.TriggerCardMoved,
		BoardID:      "board-1",
		FromColumnID: "col-a",
		ToColumnID:   "col-b",
	})

	payload, err := json.Marshal(triggered)
	require.NoError(t, err)

	var decoded AutomationTriggered
	require.NoError(t, json.Unmarshal(payload, &decoded))

	assert.Equal(t, triggered.ID, decoded.ID)
	require.NotNil(t, decoded.Event)
	assert.Equal(t, "col-a", decoded.Event.FromColumnID)
	assert.Equal(t, "col-b", decoded.Event.ToColumnID)
}
