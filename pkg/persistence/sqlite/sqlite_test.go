package sqlite_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/dukex/taskflow/pkg/models"
	"github.com/dukex/taskflow/pkg/persistence"
	"github.com/dukex/taskflow/pkg/persistence/sqlite"
	"github.com/dukex/taskflow/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPersistence_EmptyPath(t *testing.T) {
	_, err := sqlite.NewPersistence(context.Background(), testutil.Logger(), "sqlite://")
	require.ErrorIs(t, err, sqlite.ErrEmptyPath)
}

func TestNewPersistence_MigrationsAreIdempotent(t *testing.T) {
	ctx := context.Background()
	databaseURL := sqlite.Scheme + filepath.Join(t.TempDir(), "taskflow.db")

	first, err := sqlite.NewPersistence(ctx, testutil.Logger(), databaseURL)
	require.NoError(t, err)
	require.NoError(t, first.Close(ctx))

	second, err := sqlite.NewPersistence(ctx, testutil.Logger(), databaseURL)
	require.NoError(t, err)
	require.NoError(t, second.HealthCheck(ctx))
	require.NoError(t, second.Close(ctx))
}

func TestAutomationRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	p := testutil.NewPersistence(t)
	board := testutil.SeedBoard(t, p)

	days := 3
	automation := testutil.CreateTestAutomation(board.Board.ID, func(a *models.Automation) {
		a.TriggerType = models.TriggerDueDateApproaching
		a.TriggerConfig = models.TriggerConfig{DaysBefore: &days}
		a.Conditions = []models.Condition{{Type: models.ConditionPriorityIs, Config: map[string]any{"priority": "high"}}}
		a.Actions = []models.Action{{Type: models.ActionSendNotification, Config: map[string]any{"message": "due soon"}}}
	})
	testutil.SaveAutomation(t, p, automation)
	require.NotEmpty(t, automation.ID)

	stored, err := p.Automations().GetByID(ctx, automation.ID)
	require.NoError(t, err)
	assert.Equal(t, automation.Name, stored.Name)
	assert.Equal(t, models.TriggerDueDateApproaching, stored.TriggerType)
	require.NotNil(t, stored.TriggerConfig.DaysBefore)
	assert.Equal(t, 3, *stored.TriggerConfig.DaysBefore)
	assert.Equal(t, automation.Conditions, stored.Conditions)
	assert.Equal(t, automation.Actions, stored.Actions)
	assert.True(t, stored.IsActive)
	assert.WithinDuration(t, automation.CreatedAt, stored.CreatedAt, time.Millisecond)

	stored.Name = "Renamed"
	stored.IsActive = false
	stored.UpdatedAt = time.Now().UTC()
	require.NoError(t, p.Automations().Update(ctx, stored))

	updated, err := p.Automations().GetByID(ctx, automation.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.False(t, updated.IsActive)

	require.NoError(t, p.Automations().Delete(ctx, automation.ID))

	_, err = p.Automations().GetByID(ctx, automation.ID)
	assert.True(t, persistence.IsAutomationNotFound(err))

	err = p.Automations().Delete(ctx, automation.ID)
	assert.True(t, persistence.IsAutomationNotFound(err))

	err = p.Automations().Update(ctx, stored)
	assert.True(t, persistence.IsAutomationNotFound(err))
}

func TestAutomationRepository_ListActive(t *testing.T) {
	ctx := context.Background()
	p := testutil.NewPersistence(t)
	board := testutil.SeedBoard(t, p)
	other := testutil.SeedBoard(t, p)

	first := testutil.SaveAutomation(t, p, testutil.CreateTestAutomation(board.Board.ID, func(a *models.Automation) {
		a.Name = "first"
		a.CreatedAt = a.CreatedAt.Add(-time.Minute)
	}))
	second := testutil.SaveAutomation(t, p, testutil.CreateTestAutomation(board.Board.ID, func(a *models.Automation) {
		a.Name = "second"
	}))
	testutil.SaveAutomation(t, p, testutil.CreateTestAutomation(board.Board.ID, func(a *models.Automation) {
		a.Name = "inactive"
		a.IsActive = false
	}))
	testutil.SaveAutomation(t, p, testutil.CreateTestAutomation(board.Board.ID, func(a *models.Automation) {
		a.Name = "other trigger"
		a.TriggerType = models.TriggerCardCreated
	}))
	testutil.SaveAutomation(t, p, testutil.CreateTestAutomation(other.Board.ID))

	active, err := p.Automations().ListActive(ctx, board.Board.ID, models.TriggerCardMoved)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, first.ID, active[0].ID)
	assert.Equal(t, second.ID, active[1].ID)

	all, err := p.Automations().ListByBoard(ctx, board.Board.ID)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestExecutionLogRepository_PagingAndCascade(t *testing.T) {
	ctx := context.Background()
	p := testutil.NewPersistence(t)
	board := testutil.SeedBoard(t, p)
	automation := testutil.SaveAutomation(t, p, testutil.CreateTestAutomation(board.Board.ID))

	base := time.Now().UTC()
	for i := range 5 {
		entry := &models.ExecutionLog{
			AutomationID:    automation.ID,
			TriggerData:     json.RawMessage(`{"trigger_type":"card_moved"}`),
			ExecutionResult: models.ExecutionSuccess,
			ExecutedAt:      base.Add(time.Duration(i) * time.Second),
		}
		if i == 4 {
			entry.ExecutionResult = models.ExecutionError
			entry.ErrorMessage = "move_card: column not found"
		}

		require.NoError(t, p.ExecutionLogs().Append(ctx, entry))
	}

	count, err := p.ExecutionLogs().CountByAutomation(ctx, automation.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	page, err := p.ExecutionLogs().ListByAutomation(ctx, automation.ID, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, models.ExecutionError, page[0].ExecutionResult)
	assert.Equal(t, "move_card: column not found", page[0].ErrorMessage)
	assert.JSONEq(t, `{"trigger_type":"card_moved"}`, string(page[0].TriggerData))

	rest, err := p.ExecutionLogs().ListByAutomation(ctx, automation.ID, 10, 2)
	require.NoError(t, err)
	assert.Len(t, rest, 3)
	assert.Empty(t, rest[0].ErrorMessage)

	require.NoError(t, p.Automations().Delete(ctx, automation.ID))

	count, err = p.ExecutionLogs().CountByAutomation(ctx, automation.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCardRepository(t *testing.T) {
	ctx := context.Background()
	p := testutil.NewPersistence(t)
	board := testutil.SeedBoard(t, p)

	due := time.Date(2026, 10, 21, 9, 0, 0, 0, time.UTC)
	card := board.AddCard(t, testutil.WithDueDate(due), testutil.WithAssignee("user-1"))
	board.AddCard(t)

	stored, err := p.Cards().GetCard(ctx, card.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.DueDate)
	assert.True(t, due.Equal(*stored.DueDate))
	assert.Equal(t, "user-1", stored.AssigneeID)

	count, err := p.Cards().CountCardsInColumn(ctx, board.Todo.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	from := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	dueCards, err := p.Cards().ListDueCards(ctx, from, from.AddDate(0, 0, 8))
	require.NoError(t, err)
	require.Len(t, dueCards, 1)
	assert.Equal(t, card.ID, dueCards[0].ID)

	board.AddCard(t, testutil.WithDueDate(from.Add(-time.Minute)))
	board.AddCard(t, testutil.WithDueDate(from.AddDate(0, 0, 8)))

	dueCards, err = p.Cards().ListDueCards(ctx, from, from.AddDate(0, 0, 8))
	require.NoError(t, err)
	require.Len(t, dueCards, 1, "cards outside the window are not listed")

	dueCards, err = p.Cards().ListDueCards(ctx, from, from.AddDate(0, 0, 3))
	require.NoError(t, err)
	assert.Empty(t, dueCards)

	stored.Completed = true
	stored.ColumnID = board.Done.ID
	stored.UpdatedAt = time.Now().UTC()
	require.NoError(t, p.Cards().UpdateCard(ctx, stored))

	dueCards, err = p.Cards().ListDueCards(ctx, from, from.AddDate(0, 0, 8))
	require.NoError(t, err)
	assert.Empty(t, dueCards)

	_, err = p.Cards().GetCard(ctx, "missing")
	assert.True(t, persistence.IsCardNotFound(err))

	_, err = p.Cards().GetColumn(ctx, "missing")
	assert.ErrorIs(t, err, persistence.ErrColumnNotFound)

	_, err = p.Cards().GetBoard(ctx, "missing")
	assert.ErrorIs(t, err, persistence.ErrBoardNotFound)
}

func TestCardRepository_Checklists(t *testing.T) {
	ctx := context.Background()
	p := testutil.NewPersistence(t)
	board := testutil.SeedBoard(t, p)
	card := board.AddCard(t)

	checklist := &models.Checklist{CardID: card.ID, Title: "QA"}
	require.NoError(t, p.Cards().CreateChecklist(ctx, checklist))

	at := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	completed, err := p.Cards().CompleteChecklist(ctx, checklist.ID, at)
	require.NoError(t, err)
	assert.True(t, completed.Completed)
	require.NotNil(t, completed.CompletedAt)
	assert.True(t, at.Equal(*completed.CompletedAt))

	_, err = p.Cards().CompleteChecklist(ctx, "missing", at)
	assert.ErrorIs(t, err, persistence.ErrChecklistNotFound)
}

func TestActivityAndNotificationRepositories(t *testing.T) {
	ctx := context.Background()
	p := testutil.NewPersistence(t)

	require.NoError(t, p.Activity().Record(ctx, &models.ActivityEntry{
		BoardID:    "board-1",
		EntityType: models.EntityAutomation,
		EntityID:   "a-1",
		Action:     models.ActivityUpdated,
		Before:     &models.AutomationSnapshot{Name: "old", IsActive: true},
		After:      &models.AutomationSnapshot{Name: "new", IsActive: false},
	}))

	entries, err := p.Activity().ListByEntity(ctx, models.EntityAutomation, "a-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.ActivityUpdated, entries[0].Action)
	assert.Equal(t, &models.AutomationSnapshot{Name: "old", IsActive: true}, entries[0].Before)
	assert.Equal(t, &models.AutomationSnapshot{Name: "new", IsActive: false}, entries[0].After)

	require.NoError(t, p.Notifications().Create(ctx, &models.Notification{
		UserID:  "user-1",
		Title:   "Automation",
		Message: "Card is due tomorrow",
		Data:    map[string]any{"card_id": "c-1"},
	}))

	notifications, err := p.Notifications().ListByUser(ctx, "user-1", 10)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, "Card is due tomorrow", notifications[0].Message)
	assert.Equal(t, "c-1", notifications[0].Data["card_id"])
	assert.False(t, notifications[0].Read)
}
