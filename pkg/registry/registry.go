// Package registry keeps the action factories available to automations.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/dukex/taskflow/pkg/models"
	"github.com/dukex/taskflow/pkg/protocol"
)

var ErrActionNotRegistered = errors.New("action type not registered")

type Registry struct {
	logger          *slog.Logger
	mu              sync.RWMutex
	actionFactories map[models.ActionType]protocol.ActionFactory
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		logger:          log,
		actionFactories: make(map[models.ActionType]protocol.ActionFactory),
	}
}

func (r *Registry) RegisterAction(actionFactory protocol.ActionFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.actionFactories[models.ActionType(actionFactory.ID())] = actionFactory
	r.logger.Debug("Registered action", "action_type", actionFactory.ID())
}

func (r *Registry) factory(actionType models.ActionType) (protocol.ActionFactory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.actionFactories[actionType]
	if !ok {
		return nil, fmt.Errorf("action type '%s': %w", actionType, ErrActionNotRegistered)
	}

	return factory, nil
}

func (r *Registry) HasAction(actionType models.ActionType) bool {
	_, err := r.factory(actionType)

	return err == nil
}

func (r *Registry) CreateAction(ctx context.Context, action models.Action) (protocol.Action, error) {
	factory, err := r.factory(action.Type)
	if err != nil {
		return nil, err
	}

	return factory.Create(ctx, configOrEmpty(action.Config))
}

// ValidateAction checks that the action type is registered and its config
// satisfies the factory's JSON schema.
func (r *Registry) ValidateAction(action models.Action) error {
	factory, err := r.factory(action.Type)
	if err != nil {
		return err
	}

	return ValidateSchema(factory.Schema(), configOrEmpty(action.Config))
}

// ActionTypes returns the registered action types in sorted order.
func (r *Registry) ActionTypes() []models.ActionType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Sorted(maps.Keys(r.actionFactories))
}

type ActionDescriptor struct {
	Type        models.ActionType `json:"type"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Schema      map[string]any    `json:"schema"`
}

func (r *Registry) Actions() []ActionDescriptor {
	descriptors := make([]ActionDescriptor, 0)

	for _, actionType := range r.ActionTypes() {
		factory, err := r.factory(actionType)
		if err != nil {
			continue
		}

		descriptors = append(descriptors, ActionDescriptor{
			Type:        actionType,
			Name:        factory.Name(),
			Description: factory.Description(),
			Schema:      factory.Schema(),
		})
	}

	return descriptors
}

func configOrEmpty(config map[string]any) map[string]any {
	if config == nil {
		return map[string]any{}
	}

	return config
}
