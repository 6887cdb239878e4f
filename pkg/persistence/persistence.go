// Package persistence provides the data storage abstraction for boards and their automations.
package persistence

import (
	"context"
	"time"

	"github.com/dukex/taskflow/pkg/models"
)

type Persistence interface {
	Automations() AutomationRepository
	ExecutionLogs() ExecutionLogRepository
	Cards() CardRepository
	Activity() ActivityRepository
	Notifications() NotificationRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// AutomationRepository stores rule definitions.
type AutomationRepository interface {
	Create(ctx context.Context, automation *models.Automation) error
	Update(ctx context.Context, automation *models.Automation) error
	// Delete removes the automation together with its execution log.
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*models.Automation, error)
	ListByBoard(ctx context.Context, boardID string) ([]*models.Automation, error)
	// ListActive returns active automations in creation order.
	ListActive(ctx context.Context, boardID string, triggerType models.TriggerType) ([]*models.Automation, error)
}

// ExecutionLogRepository is append-only.
type ExecutionLogRepository interface {
	Append(ctx context.Context, entry *models.ExecutionLog) error
	ListByAutomation(ctx context.Context, automationID string, limit, offset int) ([]*models.ExecutionLog, error)
	CountByAutomation(ctx context.Context, automationID string) (int, error)
}

type CardRepository interface {
	CreateBoard(ctx context.Context, board *models.Board) error
	GetBoard(ctx context.Context, id string) (*models.Board, error)
	CreateColumn(ctx context.Context, column *models.Column) error
	GetColumn(ctx context.Context, id string) (*models.Column, error)

	CreateCard(ctx context.Context, card *models.Card) error
	GetCard(ctx context.Context, id string) (*models.Card, error)
	UpdateCard(ctx context.Context, card *models.Card) error
	CountCardsInColumn(ctx context.Context, columnID string) (int, error)
	// ListDueCards returns incomplete cards due within [from, to).
	ListDueCards(ctx context.Context, from, to time.Time) ([]*models.Card, error)

	CreateChecklist(ctx context.Context, checklist *models.Checklist) error
	GetChecklist(ctx context.Context, id string) (*models.Checklist, error)
	CompleteChecklist(ctx context.Context, id string, at time.Time) (*models.Checklist, error)
}

type ActivityRepository interface {
	Record(ctx context.Context, entry *models.ActivityEntry) error
	ListByEntity(ctx context.Context, entityType, entityID string) ([]*models.ActivityEntry, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListByUser(ctx context.Context, userID string, limit int) ([]*models.Notification, error)
}
