// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/dukex/taskflow/pkg/models"
	"github.com/dukex/taskflow/pkg/persistence/sqlbase"
	"github.com/dukex/taskflow/pkg/persistence/sqlite"
	"github.com/stretchr/testify/require"
)

// Logger discards everything; tests assert on state, not log lines.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewPersistence returns a migrated SQLite database in a temp dir.
func NewPersistence(t *testing.T) *sqlbase.Database {
	t.Helper()

	databaseURL := sqlite.Scheme + filepath.Join(t.TempDir(), "taskflow.db")

	p, err := sqlite.NewPersistence(context.Background(), Logger(), databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = p.Close(context.Background())
	})

	return p
}

// Board holds a board seeded with "todo", "doing" and "done" columns.
type Board struct {
	Board   *models.Board
	Todo    *models.Column
	Doing   *models.Column
	Done    *models.Column
	Storage *sqlbase.Database
}

func SeedBoard(t *testing.T, p *sqlbase.Database) *Board {
	t.Helper()

	ctx := context.Background()
	board := &models.Board{Name: "Product"}
	require.NoError(t, p.Cards().CreateBoard(ctx, board))

	seeded := &Board{Board: board, Storage: p}

	for i, target := range []**models.Column{&seeded.Todo, &seeded.Doing, &seeded.Done} {
		column := &models.Column{BoardID: board.ID, Name: []string{"todo", "doing", "done"}[i], Position: i}
		require.NoError(t, p.Cards().CreateColumn(ctx, column))
		*target = column
	}

	return seeded
}

// AddCard creates a card in the todo column with the given overrides applied.
func (b *Board) AddCard(t *testing.T, overrides ...func(*models.Card)) *models.Card {
	t.Helper()

	card := &models.Card{
		BoardID:  b.Board.ID,
		ColumnID: b.Todo.ID,
		Title:    "Write release notes",
		Priority: models.PriorityMedium,
	}

	for _, override := range overrides {
		override(card)
	}

	require.NoError(t, b.Storage.Cards().CreateCard(context.Background(), card))

	return card
}

func WithDueDate(due time.Time) func(*models.Card) {
	return func(c *models.Card) {
		c.DueDate = &due
	}
}

func WithPriority(priority models.Priority) func(*models.Card) {
	return func(c *models.Card) {
		c.Priority = priority
	}
}

func WithAssignee(userID string) func(*models.Card) {
	return func(c *models.Card) {
		c.AssigneeID = userID
	}
}

// CreateTestAutomation builds an active automation with default values that can be overridden.
func CreateTestAutomation(boardID string, overrides ...func(*models.Automation)) *models.Automation {
	now := time.Now().UTC()

	automation := &models.Automation{
		BoardID:     boardID,
		Name:        "Test Automation",
		TriggerType: models.TriggerCardMoved,
		Conditions:  []models.Condition{},
		Actions:     []models.Action{},
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	for _, override := range overrides {
		override(automation)
	}

	return automation
}

// SaveAutomation stores the automation directly, bypassing write-time validation.
func SaveAutomation(t *testing.T, p *sqlbase.Database, automation *models.Automation) *models.Automation {
	t.Helper()

	require.NoError(t, p.Automations().Create(context.Background(), automation))

	return automation
}
