package conditions

import (
	"github.com/dukex/taskflow/pkg/models"
)

func priorityEnum() []string {
	priorities := make([]string, 0, len(models.Priorities))
	for _, p := range models.Priorities {
		priorities = append(priorities, string(p))
	}

	return priorities
}

// Schemas returns the JSON schema of each condition kind's config.
func Schemas() map[models.ConditionType]map[string]any {
	nonEmpty := map[string]any{"type": "string", "minLength": 1}

	return map[models.ConditionType]map[string]any{
		models.ConditionFieldEquals: {
			"type": "object",
			"properties": map[string]any{
				"field": nonEmpty,
				"value": map[string]any{},
			},
			"required": []string{"field", "value"},
		},
		models.ConditionFieldChanged: {
			"type": "object",
			"properties": map[string]any{
				"field": nonEmpty,
				"from":  map[string]any{},
				"to":    map[string]any{},
			},
			"required": []string{"field"},
		},
		models.ConditionPriorityIs: {
			"type": "object",
			"properties": map[string]any{
				"priority": map[string]any{"type": "string", "enum": priorityEnum()},
				"priorities": map[string]any{
					"type":     "array",
					"minItems": 1,
					"items":    map[string]any{"type": "string", "enum": priorityEnum()},
				},
			},
			"anyOf": []any{
				map[string]any{"required": []string{"priority"}},
				map[string]any{"required": []string{"priorities"}},
			},
		},
		models.ConditionColumnIs: {
			"type": "object",
			"properties": map[string]any{
				"column_id": nonEmpty,
			},
			"required": []string{"column_id"},
		},
		models.ConditionExpression: {
			"type": "object",
			"properties": map[string]any{
				"expression": nonEmpty,
			},
			"required": []string{"expression"},
		},
	}
}
