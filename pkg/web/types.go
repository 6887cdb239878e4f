// Package web provides HTTP request and response types for the automation API.
package web

import (
	"github.com/dukex/taskflow/pkg/models"
	"github.com/dukex/taskflow/pkg/registry"
	"github.com/dukex/taskflow/pkg/services"
)

// CreateAutomationRequest represents the request body for creating a rule on a board.
type CreateAutomationRequest struct {
	Name          string               `json:"name"           validate:"required,max=200"`
	TriggerType   models.TriggerType   `json:"trigger_type"   validate:"required"`
	TriggerConfig models.TriggerConfig `json:"trigger_config"`
	Conditions    []models.Condition   `json:"conditions"     validate:"dive"`
	Actions       []models.Action      `json:"actions"        validate:"dive"`
	IsActive      *bool                `json:"is_active,omitempty"`
}

func (r CreateAutomationRequest) toService(boardID string) services.CreateAutomationRequest {
	return services.CreateAutomationRequest{
		BoardID:       boardID,
		Name:          r.Name,
		TriggerType:   r.TriggerType,
		TriggerConfig: r.TriggerConfig,
		Conditions:    r.Conditions,
		Actions:       r.Actions,
		IsActive:      r.IsActive,
	}
}

// UpdateAutomationRequest represents a partial rule update.
// Omitted fields keep their stored value.
type UpdateAutomationRequest struct {
	Name          *string               `json:"name,omitempty"           validate:"omitempty,max=200"`
	TriggerType   *models.TriggerType   `json:"trigger_type,omitempty"`
	TriggerConfig *models.TriggerConfig `json:"trigger_config,omitempty"`
	Conditions    *[]models.Condition   `json:"conditions,omitempty"`
	Actions       *[]models.Action      `json:"actions,omitempty"`
	IsActive      *bool                 `json:"is_active,omitempty"`
}

func (r UpdateAutomationRequest) toService() services.UpdateAutomationRequest {
	return services.UpdateAutomationRequest{
		Name:          r.Name,
		TriggerType:   r.TriggerType,
		TriggerConfig: r.TriggerConfig,
		Conditions:    r.Conditions,
		Actions:       r.Actions,
		IsActive:      r.IsActive,
	}
}

type CreateBoardRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

type CreateColumnRequest struct {
	Name     string `json:"name"     validate:"required,max=200"`
	Position int    `json:"position" validate:"min=0"`
}

type CreateCardRequest struct {
	ColumnID    string  `json:"column_id"             validate:"required"`
	Title       string  `json:"title"                 validate:"required,max=500"`
	Description string  `json:"description"`
	Priority    string  `json:"priority,omitempty"    validate:"omitempty,oneof=low medium high urgent"`
	DueDate     *string `json:"due_date,omitempty"`
	AssigneeID  string  `json:"assignee_id,omitempty"`
}

type MoveCardRequest struct {
	ColumnID string `json:"column_id"          validate:"required"`
	Position *int   `json:"position,omitempty" validate:"omitempty,min=0"`
}

type CreateChecklistRequest struct {
	Title string `json:"title" validate:"required,max=500"`
}

// SchemaResponse describes the trigger, condition and action kinds a rule may use.
type SchemaResponse struct {
	TriggerTypes []models.TriggerType                    `json:"trigger_types"`
	Conditions   map[models.ConditionType]map[string]any `json:"conditions"`
	Actions      []registry.ActionDescriptor             `json:"actions"`
}
