package models

import (
	"encoding/json"
	"strings"
	"time"
)

type FieldChange struct {
	From any `json:"from"`
	To   any `json:"to"`
}

// Event is the transient payload handed to the dispatcher. It is never stored
// as-is; only the outcome of dispatching it is logged.
type Event struct {
	TriggerType  TriggerType            `json:"trigger_type"`
	BoardID      string                 `json:"board_id"`
	Card         *Card                  `json:"card,omitempty"`
	OldCard      *Card                  `json:"old_card,omitempty"`
	FromColumnID string                 `json:"from_column_id,omitempty"`
	ToColumnID   string                 `json:"to_column_id,omitempty"`
	Changes      map[string]FieldChange `json:"changes,omitempty"`
	Checklist    *Checklist             `json:"checklist,omitempty"`
	DaysUntilDue *int                   `json:"days_until_due,omitempty"`
	Data         map[string]any         `json:"data,omitempty"`
	OccurredAt   time.Time              `json:"occurred_at"`
}

// Fields returns the event as a JSON-normalised map: numbers are float64,
// times are RFC 3339 strings and nested structs are maps.
func (e *Event) Fields() map[string]any {
	fields := map[string]any{}
	if e == nil {
		return fields
	}

	payload, err := json.Marshal(e)
	if err != nil {
		return fields
	}

	if err := json.Unmarshal(payload, &fields); err != nil {
		return map[string]any{}
	}

	return fields
}

// LookupPath resolves a dotted path such as "card.priority" against the
// flattened event fields.
func LookupPath(fields map[string]any, path string) (any, bool) {
	if path == "" {
		return nil, false
	}

	var current any = fields

	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}

		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}

	return current, true
}

// DiffCards reports the user-editable fields that differ between two snapshots.
func DiffCards(oldCard, newCard *Card) map[string]FieldChange {
	changes := map[string]FieldChange{}
	if oldCard == nil || newCard == nil {
		return changes
	}

	if oldCard.Title != newCard.Title {
		changes["title"] = FieldChange{From: oldCard.Title, To: newCard.Title}
	}

	if oldCard.Description != newCard.Description {
		changes["description"] = FieldChange{From: oldCard.Description, To: newCard.Description}
	}

	if oldCard.Priority != newCard.Priority {
		changes["priority"] = FieldChange{From: string(oldCard.Priority), To: string(newCard.Priority)}
	}

	if oldCard.ColumnID != newCard.ColumnID {
		changes["column_id"] = FieldChange{From: oldCard.ColumnID, To: newCard.ColumnID}
	}

	if oldCard.AssigneeID != newCard.AssigneeID {
		changes["assignee_id"] = FieldChange{From: oldCard.AssigneeID, To: newCard.AssigneeID}
	}

	if oldCard.Completed != newCard.Completed {
		changes["completed"] = FieldChange{From: oldCard.Completed, To: newCard.Completed}
	}

	if !sameDueDate(oldCard.DueDate, newCard.DueDate) {
		changes["due_date"] = FieldChange{From: formatDueDate(oldCard.DueDate), To: formatDueDate(newCard.DueDate)}
	}

	return changes
}

func sameDueDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}

	return a.Equal(*b)
}

func formatDueDate(t *time.Time) any {
	if t == nil {
		return nil
	}

	return t.UTC().Format(time.RFC3339)
}
