package dispatcher

import (
	"slices"

	"github.com/dukex/taskflow/pkg/models"
)

// matchesTrigger reports whether a rule's trigger config accepts the event.
// Trigger types without filters accept every event.
func matchesTrigger(automation *models.Automation, event *models.Event) bool {
	config := automation.TriggerConfig

	switch automation.TriggerType {
	case models.TriggerCardMoved:
		if config.FromColumnID != "" && config.FromColumnID != event.FromColumnID {
			return false
		}

		return config.ToColumnID == "" || config.ToColumnID == event.ToColumnID
	case models.TriggerCardUpdated:
		if len(config.Fields) == 0 {
			return true
		}

		return slices.ContainsFunc(config.Fields, func(field string) bool {
			_, changed := event.Changes[field]

			return changed
		})
	case models.TriggerDueDateApproaching:
		if config.DaysBefore == nil {
			return true
		}

		return event.DaysUntilDue != nil && *event.DaysUntilDue == *config.DaysBefore
	default:
		return true
	}
}
