package models

import "time"

type ActivityAction string

const (
	ActivityCreated ActivityAction = "created"
	ActivityUpdated ActivityAction = "updated"
	ActivityDeleted ActivityAction = "deleted"
)

const EntityAutomation = "automation"

type AutomationSnapshot struct {
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

// ActivityEntry is one row of the board activity trail.
type ActivityEntry struct {
	ID         string              `json:"id"`
	BoardID    string              `json:"board_id"`
	EntityType string              `json:"entity_type"`
	EntityID   string              `json:"entity_id"`
	Action     ActivityAction      `json:"action"`
	Before     *AutomationSnapshot `json:"before,omitempty"`
	After      *AutomationSnapshot `json:"after,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
}

type Notification struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
	Read      bool           `json:"read"`
	CreatedAt time.Time      `json:"created_at"`
}
