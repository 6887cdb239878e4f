// Package models defines the core data structures for board automations.
package models

import (
	"slices"
	"time"
)

type TriggerType string

const (
	TriggerCardCreated        TriggerType = "card_created"
	TriggerCardMoved          TriggerType = "card_moved"
	TriggerCardUpdated        TriggerType = "card_updated"
	TriggerCardCompleted      TriggerType = "card_completed"
	TriggerChecklistCompleted TriggerType = "checklist_completed"
	TriggerDueDateApproaching TriggerType = "due_date_approaching"
)

// TriggerTypes lists every trigger type known to this deployment.
var TriggerTypes = []TriggerType{
	TriggerCardCreated,
	TriggerCardMoved,
	TriggerCardUpdated,
	TriggerCardCompleted,
	TriggerChecklistCompleted,
	TriggerDueDateApproaching,
}

func (t TriggerType) IsValid() bool {
	return slices.Contains(TriggerTypes, t)
}

// TriggerConfig narrows which events of a trigger type a rule reacts to.
// Only the fields relevant to the rule's trigger type are consulted.
type TriggerConfig struct {
	FromColumnID string   `json:"from_column_id,omitempty"`
	ToColumnID   string   `json:"to_column_id,omitempty"`
	Fields       []string `json:"fields,omitempty" validate:"omitempty,dive,oneof=title description priority due_date assignee_id completed column_id"`
	DaysBefore   *int     `json:"days_before,omitempty" validate:"omitempty,min=0,max=365"`
}

type ConditionType string

const (
	ConditionFieldEquals  ConditionType = "field_equals"
	ConditionFieldChanged ConditionType = "field_changed"
	ConditionPriorityIs   ConditionType = "priority_is"
	ConditionColumnIs     ConditionType = "column_is"
	ConditionExpression   ConditionType = "expression"
)

type Condition struct {
	Type   ConditionType  `json:"type"`
	Config map[string]any `json:"config,omitempty"`
}

type ActionType string

const (
	ActionMoveCard         ActionType = "move_card"
	ActionSendNotification ActionType = "send_notification"
	ActionUpdateField      ActionType = "update_field"
)

type Action struct {
	Type   ActionType     `json:"type"`
	Config map[string]any `json:"config,omitempty"`
}

// Automation is a rule owned by a single board.
type Automation struct {
	ID            string        `json:"id"`
	BoardID       string        `json:"board_id"`
	Name          string        `json:"name"`
	TriggerType   TriggerType   `json:"trigger_type"`
	TriggerConfig TriggerConfig `json:"trigger_config"`
	Conditions    []Condition   `json:"conditions"`
	Actions       []Action      `json:"actions"`
	IsActive      bool          `json:"is_active"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Snapshot returns the fields recorded in the activity trail.
func (a *Automation) Snapshot() *AutomationSnapshot {
	if a == nil {
		return nil
	}

	return &AutomationSnapshot{Name: a.Name, IsActive: a.IsActive}
}
