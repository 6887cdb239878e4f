// Package events defines the messages exchanged over the automation event bus.
package events

import (
	"time"

	"github.com/dukex/taskflow/pkg/models"
	"github.com/google/uuid"
)

type EventType string

const Topic = "taskflow.automations"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	AutomationTriggeredEvent EventType = "automation.triggered"
)

type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	BoardID   string    `json:"board_id"`
}

// AutomationTriggered asks a worker to dispatch Event to the board's rules.
type AutomationTriggered struct {
	BaseEvent

	TriggerType models.TriggerType `json:"trigger_type"`
	Event       *models.Event      `json:"event"`
}

func (a AutomationTriggered) GetType() EventType {
	return AutomationTriggeredEvent
}

func NewAutomationTriggered(event *models.Event) *AutomationTriggered {
	return &AutomationTriggered{
		BaseEvent: BaseEvent{
			ID:        uuid.NewString(),
			Type:      AutomationTriggeredEvent,
			Timestamp: time.Now().UTC(),
			BoardID:   event.BoardID,
		},
		TriggerType: event.TriggerType,
		Event:       event,
	}
}
