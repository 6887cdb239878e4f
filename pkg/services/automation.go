package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dukex/taskflow/pkg/models"
	"github.com/dukex/taskflow/pkg/persistence"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type ConditionValidator interface {
	Validate(condition models.Condition) error
}

type ActionValidator interface {
	ValidateAction(action models.Action) error
}

// CreateAutomationRequest holds the fields of a new rule.
type CreateAutomationRequest struct {
	BoardID       string               `validate:"required"`
	Name          string               `validate:"required,max=200"`
	TriggerType   models.TriggerType   `validate:"required"`
	TriggerConfig models.TriggerConfig `validate:"-"`
	Conditions    []models.Condition
	Actions       []models.Action
	IsActive      *bool
}

// UpdateAutomationRequest is a partial update; nil fields are left untouched.
type UpdateAutomationRequest struct {
	Name          *string
	TriggerType   *models.TriggerType
	TriggerConfig *models.TriggerConfig
	Conditions    *[]models.Condition
	Actions       *[]models.Action
	IsActive      *bool
}

type Automation struct {
	persistence persistence.Persistence
	conditions  ConditionValidator
	actions     ActionValidator
	cache       RulesCache
	validate    *validator.Validate
	logger      *slog.Logger
}

func NewAutomation(
	p persistence.Persistence,
	conditions ConditionValidator,
	actions ActionValidator,
	cache RulesCache,
	logger *slog.Logger,
) *Automation {
	return &Automation{
		persistence: p,
		conditions:  conditions,
		actions:     actions,
		cache:       cache,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		logger:      logger.With("module", "automation_service"),
	}
}

// ListActive returns the active rules of a board for one trigger type, in
// creation order.
func (s *Automation) ListActive(ctx context.Context, boardID string, triggerType models.TriggerType) ([]*models.Automation, error) {
	if rules, ok := s.cache.Get(boardID, triggerType); ok {
		return rules, nil
	}

	generation := s.cache.Generation(boardID)

	rules, err := s.persistence.Automations().ListActive(ctx, boardID, triggerType)
	if err != nil {
		return nil, fmt.Errorf("failed to list active automations: %w", err)
	}

	s.cache.Set(boardID, triggerType, rules, generation)

	return rules, nil
}

func (s *Automation) List(ctx context.Context, boardID string) ([]*models.Automation, error) {
	if _, err := s.persistence.Cards().GetBoard(ctx, boardID); err != nil {
		return nil, err
	}

	automations, err := s.persistence.Automations().ListByBoard(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list automations: %w", err)
	}

	return automations, nil
}

func (s *Automation) Get(ctx context.Context, id string) (*models.Automation, error) {
	return s.persistence.Automations().GetByID(ctx, id)
}

// Create validates and stores a new rule. Rules are active unless IsActive is false.
func (s *Automation) Create(ctx context.Context, req CreateAutomationRequest) (*models.Automation, error) {
	req.Name = strings.TrimSpace(req.Name)

	if err := s.validate.Struct(req); err != nil {
		return nil, requiredFieldError("Create", err)
	}

	if _, err := s.persistence.Cards().GetBoard(ctx, req.BoardID); err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate automation ID: %w", err)
	}

	now := time.Now().UTC()
	automation := &models.Automation{
		ID:            id.String(),
		BoardID:       req.BoardID,
		Name:          req.Name,
		TriggerType:   req.TriggerType,
		TriggerConfig: req.TriggerConfig,
		Conditions:    orEmpty(req.Conditions),
		Actions:       orEmpty(req.Actions),
		IsActive:      req.IsActive == nil || *req.IsActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.validateAutomation(ctx, "Create", automation); err != nil {
		return nil, err
	}

	if err := s.persistence.Automations().Create(ctx, automation); err != nil {
		return nil, fmt.Errorf("failed to create automation: %w", err)
	}

	s.afterMutation(ctx, automation.BoardID, automation.ID, models.ActivityCreated, nil, automation.Snapshot())

	return automation, nil
}

// Update merges the provided fields over the stored rule and validates the result.
func (s *Automation) Update(ctx context.Context, id string, req UpdateAutomationRequest) (*models.Automation, error) {
	existing, err := s.persistence.Automations().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	before := existing.Snapshot()
	merged := *existing

	if req.Name != nil {
		merged.Name = strings.TrimSpace(*req.Name)
	}

	if req.TriggerType != nil {
		merged.TriggerType = *req.TriggerType
	}

	if req.TriggerConfig != nil {
		merged.TriggerConfig = *req.TriggerConfig
	}

	if req.Conditions != nil {
		merged.Conditions = orEmpty(*req.Conditions)
	}

	if req.Actions != nil {
		merged.Actions = orEmpty(*req.Actions)
	}

	if req.IsActive != nil {
		merged.IsActive = *req.IsActive
	}

	if merged.Name == "" {
		return nil, NewValidationError("Update", "NAME_REQUIRED", "name cannot be empty", ErrNameRequired)
	}

	if merged.TriggerType == "" {
		return nil, NewValidationError("Update", "TRIGGER_TYPE_REQUIRED", "trigger_type cannot be empty", ErrTriggerTypeRequired)
	}

	if err := s.validateAutomation(ctx, "Update", &merged); err != nil {
		return nil, err
	}

	merged.UpdatedAt = time.Now().UTC()

	if err := s.persistence.Automations().Update(ctx, &merged); err != nil {
		return nil, fmt.Errorf("failed to update automation: %w", err)
	}

	s.afterMutation(ctx, merged.BoardID, merged.ID, models.ActivityUpdated, before, merged.Snapshot())

	return &merged, nil
}

// Delete removes the rule and its execution log.
func (s *Automation) Delete(ctx context.Context, id string) error {
	existing, err := s.persistence.Automations().GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.persistence.Automations().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete automation: %w", err)
	}

	s.afterMutation(ctx, existing.BoardID, existing.ID, models.ActivityDeleted, existing.Snapshot(), nil)

	return nil
}

func (s *Automation) afterMutation(
	ctx context.Context,
	boardID, automationID string,
	action models.ActivityAction,
	before, after *models.AutomationSnapshot,
) {
	s.cache.InvalidateBoard(boardID)

	entry := &models.ActivityEntry{
		BoardID:    boardID,
		EntityType: models.EntityAutomation,
		EntityID:   automationID,
		Action:     action,
		Before:     before,
		After:      after,
	}

	if err := s.persistence.Activity().Record(ctx, entry); err != nil {
		s.logger.WarnContext(ctx, "Failed to record activity",
			"automation_id", automationID,
			"action", action,
			"error", err)
	}
}

func (s *Automation) validateAutomation(ctx context.Context, op string, automation *models.Automation) error {
	if !automation.TriggerType.IsValid() {
		return NewValidationError(op, "INVALID_TRIGGER_TYPE",
			fmt.Sprintf("invalid trigger type '%s'", automation.TriggerType), ErrInvalidTriggerType)
	}

	if err := s.validateTriggerConfig(ctx, automation); err != nil {
		return NewValidationError(op, "INVALID_TRIGGER_CONFIG", err.Error(), ErrInvalidTriggerConfig)
	}

	for i, condition := range automation.Conditions {
		if err := s.conditions.Validate(condition); err != nil {
			return NewValidationError(op, "INVALID_CONDITION",
				fmt.Sprintf("condition %d: %v", i, err), ErrInvalidCondition)
		}
	}

	for i, action := range automation.Actions {
		if err := s.validateAction(ctx, automation.BoardID, action); err != nil {
			return NewValidationError(op, "INVALID_ACTION",
				fmt.Sprintf("action %d: %v", i, err), ErrInvalidAction)
		}
	}

	return nil
}

func (s *Automation) validateTriggerConfig(ctx context.Context, automation *models.Automation) error {
	config := automation.TriggerConfig

	if err := s.validate.Struct(config); err != nil {
		return err
	}

	for _, columnID := range []string{config.FromColumnID, config.ToColumnID} {
		if columnID == "" {
			continue
		}

		if err := s.columnOnBoard(ctx, automation.BoardID, columnID); err != nil {
			return err
		}
	}

	return nil
}

func (s *Automation) validateAction(ctx context.Context, boardID string, action models.Action) error {
	if err := s.actions.ValidateAction(action); err != nil {
		return err
	}

	if action.Type != models.ActionMoveCard {
		return nil
	}

	columnID, _ := action.Config["column_id"].(string)

	return s.columnOnBoard(ctx, boardID, columnID)
}

func (s *Automation) columnOnBoard(ctx context.Context, boardID, columnID string) error {
	column, err := s.persistence.Cards().GetColumn(ctx, columnID)
	if err != nil {
		return err
	}

	if column.BoardID != boardID {
		return fmt.Errorf("column %s: %w", columnID, persistence.ErrBoardMismatch)
	}

	return nil
}

func requiredFieldError(op string, err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return NewValidationError(op, "INVALID_REQUEST", err.Error(), ErrInvalidRequest)
	}

	switch field := validationErrors[0]; field.Field() {
	case "BoardID":
		return NewValidationError(op, "BOARD_REQUIRED", "board_id is required", ErrBoardRequired)
	case "Name":
		if field.Tag() == "required" {
			return NewValidationError(op, "NAME_REQUIRED", "name is required", ErrNameRequired)
		}

		return NewValidationError(op, "INVALID_REQUEST", "name is too long", ErrInvalidRequest)
	case "TriggerType":
		return NewValidationError(op, "TRIGGER_TYPE_REQUIRED", "trigger_type is required", ErrTriggerTypeRequired)
	default:
		return NewValidationError(op, "INVALID_REQUEST", err.Error(), ErrInvalidRequest)
	}
}

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}

	return items
}
