package models

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

func (p Priority) IsValid() bool {
	return slices.Contains(Priorities, p)
}

type Board struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Column struct {
	ID       string `json:"id"`
	BoardID  string `json:"board_id"`
	Name     string `json:"name"`
	Position int    `json:"position"`
}

type Card struct {
	ID          string     `json:"id"`
	BoardID     string     `json:"board_id"`
	ColumnID    string     `json:"column_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    Priority   `json:"priority"`
	Position    int        `json:"position"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Completed   bool       `json:"completed"`
	AssigneeID  string     `json:"assignee_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Clone returns a copy that shares no pointers with c.
func (c *Card) Clone() *Card {
	if c == nil {
		return nil
	}

	clone := *c
	if c.DueDate != nil {
		due := *c.DueDate
		clone.DueDate = &due
	}

	return &clone
}

// UpdatableCardFields are the card fields automations may set.
var UpdatableCardFields = []string{"title", "description", "priority", "due_date", "assignee_id", "completed"}

var ErrUnknownCardField = errors.New("unknown card field")

// SetField assigns a JSON-decoded value to a named card field.
func (c *Card) SetField(field string, value any) error {
	switch field {
	case "title", "description", "assignee_id":
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("field %s expects a string, got %T", field, value)
		}

		switch field {
		case "title":
			c.Title = s
		case "description":
			c.Description = s
		default:
			c.AssigneeID = s
		}
	case "priority":
		s, ok := value.(string)
		if !ok || !Priority(s).IsValid() {
			return fmt.Errorf("invalid priority %v", value)
		}

		c.Priority = Priority(s)
	case "completed":
		b, ok := value.(bool)
		if !ok {
			return fmt.Errorf("field completed expects a boolean, got %T", value)
		}

		c.Completed = b
	case "due_date":
		if value == nil {
			c.DueDate = nil

			return nil
		}

		due, err := ParseDueDate(value)
		if err != nil {
			return err
		}

		c.DueDate = &due
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCardField, field)
	}

	return nil
}

// ParseDueDate accepts an RFC 3339 timestamp or a plain YYYY-MM-DD date.
func ParseDueDate(value any) (time.Time, error) {
	s, ok := value.(string)
	if !ok {
		return time.Time{}, fmt.Errorf("due_date expects a string, got %T", value)
	}

	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("invalid due_date %q", s)
}

type Checklist struct {
	ID          string     `json:"id"`
	CardID      string     `json:"card_id"`
	Title       string     `json:"title"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
