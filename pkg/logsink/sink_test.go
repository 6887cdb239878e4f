package logsink

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/dukex/taskflow/pkg/models"
	"github.com/dukex/taskflow/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSink_Record(t *testing.T) {
	p := testutil.NewPersistence(t)
	board := testutil.SeedBoard(t, p)
	automation := testutil.SaveAutomation(t, p, testutil.CreateTestAutomation(board.Board.ID))
	sink := New(p.ExecutionLogs(), testutil.Logger())
	ctx := context.Background()

	event := &models.Event{TriggerType: models.TriggerCardMoved, BoardID: board.Board.ID, ToColumnID: board.Done.ID}

	sink.Record(ctx, automation.ID, event, models.ExecutionSuccess, "ignored on success")
	sink.Record(ctx, automation.ID, event, models.ExecutionError, "")

	page, err := sink.Page(ctx, automation.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, page.Entries, 2)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, DefaultPageSize, page.Limit)

	byResult := map[models.ExecutionResult]*models.ExecutionLog{}
	for _, entry := range page.Entries {
		byResult[entry.ExecutionResult] = entry
	}

	assert.Empty(t, byResult[models.ExecutionSuccess].ErrorMessage)
	assert.Equal(t, "unknown error", byResult[models.ExecutionError].ErrorMessage)

	var stored models.Event
	require.NoError(t, json.Unmarshal(byResult[models.ExecutionSuccess].TriggerData, &stored))
	assert.Equal(t, board.Done.ID, stored.ToColumnID)
}

func TestSink_RecordSwallowsFailures(t *testing.T) {
	p := testutil.NewPersistence(t)
	sink := New(p.ExecutionLogs(), testutil.Logger())

	// The foreign key rejects an unknown automation; Record must not panic or fail.
	assert.NotPanics(t, func() {
		sink.Record(context.Background(), "missing", &models.Event{}, models.ExecutionSuccess, "")
	})

	count, err := p.ExecutionLogs().CountByAutomation(context.Background(), "missing")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSink_PageClampsLimits(t *testing.T) {
	p := testutil.NewPersistence(t)
	board := testutil.SeedBoard(t, p)
	automation := testutil.SaveAutomation(t, p, testutil.CreateTestAutomation(board.Board.ID))
	sink := New(p.ExecutionLogs(), testutil.Logger())
	ctx := context.Background()

	for range 3 {
		sink.Record(ctx, automation.ID, &models.Event{}, models.ExecutionSuccess, "")
	}

	page, err := sink.Page(ctx, automation.ID, 1000, -4)
	require.NoError(t, err)
	assert.Equal(t, MaxPageSize, page.Limit)
	assert.Zero(t, page.Offset)
	assert.Len(t, page.Entries, 3)

	page, err = sink.Page(ctx, automation.ID, 2, 2)
	require.NoError(t, err)
	assert.Len(t, page.Entries, 1)
	assert.Equal(t, 3, page.Total)
}
