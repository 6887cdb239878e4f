package dispatcher

import (
	"testing"

	"github.com/dukex/taskflow/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestMatchesTrigger(t *testing.T) {
	three := 3
	seven := 7

	tests := []struct {
		name        string
		triggerType models.TriggerType
		config      models.TriggerConfig
		event       models.Event
		want        bool
	}{
		{
			name:        "moved without filters",
			triggerType: models.TriggerCardMoved,
			event:       models.Event{FromColumnID: "a", ToColumnID: "b"},
			want:        true,
		},
		{
			name:        "moved matching both filters",
			triggerType: models.TriggerCardMoved,
			config:      models.TriggerConfig{FromColumnID: "a", ToColumnID: "b"},
			event:       models.Event{FromColumnID: "a", ToColumnID: "b"},
			want:        true,
		},
		{
			name:        "moved from another column",
			triggerType: models.TriggerCardMoved,
			config:      models.TriggerConfig{FromColumnID: "a"},
			event:       models.Event{FromColumnID: "c", ToColumnID: "b"},
		},
		{
			name:        "moved to another column",
			triggerType: models.TriggerCardMoved,
			config:      models.TriggerConfig{ToColumnID: "done"},
			event:       models.Event{FromColumnID: "a", ToColumnID: "b"},
		},
		{
			name:        "updated watched field",
			triggerType: models.TriggerCardUpdated,
			config:      models.TriggerConfig{Fields: []string{"priority", "due_date"}},
			event:       models.Event{Changes: map[string]models.FieldChange{"due_date": {}}},
			want:        true,
		},
		{
			name:        "updated unwatched field",
			triggerType: models.TriggerCardUpdated,
			config:      models.TriggerConfig{Fields: []string{"priority"}},
			event:       models.Event{Changes: map[string]models.FieldChange{"title": {}}},
		},
		{
			name:        "due with matching horizon",
			triggerType: models.TriggerDueDateApproaching,
			config:      models.TriggerConfig{DaysBefore: &three},
			event:       models.Event{DaysUntilDue: &three},
			want:        true,
		},
		{
			name:        "due with other horizon",
			triggerType: models.TriggerDueDateApproaching,
			config:      models.TriggerConfig{DaysBefore: &three},
			event:       models.Event{DaysUntilDue: &seven},
		},
		{
			name:        "due without days",
			triggerType: models.TriggerDueDateApproaching,
			config:      models.TriggerConfig{DaysBefore: &three},
		},
		{
			name:        "created ignores config",
			triggerType: models.TriggerCardCreated,
			config:      models.TriggerConfig{ToColumnID: "done"},
			want:        true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			automation := &models.Automation{TriggerType: tt.triggerType, TriggerConfig: tt.config}
			assert.Equal(t, tt.want, matchesTrigger(automation, &tt.event))
		})
	}
}
