package dispatcher

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/dukex/taskflow/pkg/actions"
	"github.com/dukex/taskflow/pkg/actions/movecard"
	"github.com/dukex/taskflow/pkg/conditions"
	"github.com/dukex/taskflow/pkg/logsink"
	"github.com/dukex/taskflow/pkg/mocks"
	"github.com/dukex/taskflow/pkg/models"
	"github.com/dukex/taskflow/pkg/persistence/sqlbase"
	"github.com/dukex/taskflow/pkg/protocol"
	"github.com/dukex/taskflow/pkg/registry"
	"github.com/dukex/taskflow/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	actionRecord  models.ActionType = "record"
	actionExplode models.ActionType = "explode"
	actionPanic   models.ActionType = "panic"
)

type funcAction func(ctx context.Context, event *models.Event) (any, error)

func (f funcAction) Execute(ctx context.Context, event *models.Event, _ *slog.Logger) (any, error) {
	return f(ctx, event)
}

type funcFactory struct {
	id     models.ActionType
	action funcAction
}

func (f *funcFactory) ID() string             { return string(f.id) }
func (f *funcFactory) Name() string           { return string(f.id) }
func (f *funcFactory) Description() string    { return "test action" }
func (f *funcFactory) Schema() map[string]any { return map[string]any{"type": "object"} }

func (f *funcFactory) Create(_ context.Context, _ map[string]any) (protocol.Action, error) {
	return f.action, nil
}

type harness struct {
	storage    *sqlbase.Database
	board      *testutil.Board
	cards      *mocks.MockCardMutator
	recorded   *atomic.Int32
	dispatcher *Dispatcher
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	storage := testutil.NewPersistence(t)
	h := &harness{
		storage:  storage,
		board:    testutil.SeedBoard(t, storage),
		cards:    &mocks.MockCardMutator{},
		recorded: &atomic.Int32{},
	}

	reg := registry.NewRegistry(testutil.Logger())
	reg.RegisterAction(movecard.NewActionFactory(h.cards))
	reg.RegisterAction(&funcFactory{id: actionRecord, action: func(context.Context, *models.Event) (any, error) {
		h.recorded.Add(1)

		return "recorded", nil
	}})
	reg.RegisterAction(&funcFactory{id: actionExplode, action: func(context.Context, *models.Event) (any, error) {
		return nil, errors.New("webhook refused")
	}})
	reg.RegisterAction(&funcFactory{id: actionPanic, action: func(context.Context, *models.Event) (any, error) {
		panic("handler bug")
	}})

	evaluator, err := conditions.NewEvaluator(testutil.Logger())
	require.NoError(t, err)

	h.dispatcher = New(
		storage.Automations(),
		evaluator,
		actions.NewExecutor(reg, testutil.Logger(), actions.DefaultTimeout),
		logsink.New(storage.ExecutionLogs(), testutil.Logger()),
		testutil.Logger(),
	)

	return h
}

func (h *harness) save(t *testing.T, overrides ...func(*models.Automation)) *models.Automation {
	t.Helper()

	return testutil.SaveAutomation(t, h.storage, testutil.CreateTestAutomation(h.board.Board.ID, overrides...))
}

func (h *harness) logs(t *testing.T, automationID string) []*models.ExecutionLog {
	t.Helper()

	entries, err := h.storage.ExecutionLogs().ListByAutomation(context.Background(), automationID, 100, 0)
	require.NoError(t, err)

	return entries
}

func (h *harness) movedEvent(card *models.Card) *models.Event {
	return &models.Event{
		Card:         card,
		FromColumnID: h.board.Todo.ID,
		ToColumnID:   h.board.Doing.ID,
	}
}

func withActions(actionTypes ...models.ActionType) func(*models.Automation) {
	return func(a *models.Automation) {
		for _, actionType := range actionTypes {
			a.Actions = append(a.Actions, models.Action{Type: actionType})
		}
	}
}

func inactive(a *models.Automation) {
	a.IsActive = false
}

func TestDispatch_InactiveRulesNeverRun(t *testing.T) {
	h := newHarness(t)
	rule := h.save(t, withActions(actionRecord), inactive)

	outcomes, err := h.dispatcher.Dispatch(context.Background(), h.board.Board.ID, models.TriggerCardMoved, h.movedEvent(h.board.AddCard(t)))
	require.NoError(t, err)

	assert.Empty(t, outcomes)
	assert.Zero(t, h.recorded.Load())
	assert.Empty(t, h.logs(t, rule.ID))
}

func TestDispatch_OneOutcomeAndLogPerMatchingRule(t *testing.T) {
	h := newHarness(t)
	rules := []*models.Automation{
		h.save(t, withActions(actionRecord)),
		h.save(t, withActions(actionRecord)),
		h.save(t, withActions(actionRecord)),
	}
	other := h.save(t, withActions(actionRecord), func(a *models.Automation) {
		a.TriggerType = models.TriggerCardCreated
	})

	outcomes, err := h.dispatcher.Dispatch(context.Background(), h.board.Board.ID, models.TriggerCardMoved, h.movedEvent(h.board.AddCard(t)))
	require.NoError(t, err)

	require.Len(t, outcomes, len(rules))

	for i, rule := range rules {
		assert.Equal(t, rule.ID, outcomes[i].AutomationID, "outcomes follow creation order")
		assert.True(t, outcomes[i].Executed)

		entries := h.logs(t, rule.ID)
		require.Len(t, entries, 1)
		assert.Equal(t, models.ExecutionSuccess, entries[0].ExecutionResult)
	}

	assert.Equal(t, int32(3), h.recorded.Load())
	assert.Empty(t, h.logs(t, other.ID))
}

func TestDispatch_FailingRuleDoesNotAbortBatch(t *testing.T) {
	h := newHarness(t)
	failing := h.save(t, withActions(actionExplode))
	panicking := h.save(t, withActions(actionPanic))
	healthy := h.save(t, withActions(actionRecord))

	outcomes, err := h.dispatcher.Dispatch(context.Background(), h.board.Board.ID, models.TriggerCardMoved, h.movedEvent(h.board.AddCard(t)))
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	assert.Equal(t, models.ExecutionError, outcomes[0].Result)
	assert.Contains(t, outcomes[0].Error, "webhook refused")
	assert.Equal(t, models.ExecutionError, outcomes[1].Result)
	assert.Contains(t, outcomes[1].Error, "handler bug")
	assert.Equal(t, models.ExecutionSuccess, outcomes[2].Result)
	assert.Equal(t, int32(1), h.recorded.Load())

	for _, rule := range []*models.Automation{failing, panicking} {
		entries := h.logs(t, rule.ID)
		require.Len(t, entries, 1)
		assert.Equal(t, models.ExecutionError, entries[0].ExecutionResult)
		assert.NotEmpty(t, entries[0].ErrorMessage)
	}

	entries := h.logs(t, healthy.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, models.ExecutionSuccess, entries[0].ExecutionResult)
	assert.Empty(t, entries[0].ErrorMessage)
}

func TestDispatch_UnknownActionIsLocalToThatAction(t *testing.T) {
	h := newHarness(t)
	h.save(t, withActions("teleport_card", actionRecord))

	outcomes, err := h.dispatcher.Dispatch(context.Background(), h.board.Board.ID, models.TriggerCardMoved, h.movedEvent(h.board.AddCard(t)))
	require.NoError(t, err)
	require.Len(t, outcomes, 1)

	results := outcomes[0].ActionResults
	require.Len(t, results, 2)
	assert.Equal(t, models.ActionStatusError, results[0].Result)
	assert.Contains(t, results[0].Error, "unknown action type")
	assert.Equal(t, models.ActionStatusSuccess, results[1].Result)
	assert.Equal(t, int32(1), h.recorded.Load())
	assert.Equal(t, models.ExecutionError, outcomes[0].Result)
}

func TestDispatch_DeletedRuleIsExcludedAndLogsCascade(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	rule := h.save(t, withActions(actionRecord))
	event := h.movedEvent(h.board.AddCard(t))

	_, err := h.dispatcher.Dispatch(ctx, h.board.Board.ID, models.TriggerCardMoved, event)
	require.NoError(t, err)
	require.Len(t, h.logs(t, rule.ID), 1)

	require.NoError(t, h.storage.Automations().Delete(ctx, rule.ID))

	outcomes, err := h.dispatcher.Dispatch(ctx, h.board.Board.ID, models.TriggerCardMoved, event)
	require.NoError(t, err)
	assert.Empty(t, outcomes)
	assert.Empty(t, h.logs(t, rule.ID))
}

func TestDispatch_CardMovedScenario(t *testing.T) {
	h := newHarness(t)
	card := h.board.AddCard(t)
	target := h.board.Done.ID

	rule := h.save(t, func(a *models.Automation) {
		a.Actions = []models.Action{{Type: models.ActionMoveCard, Config: map[string]any{"column_id": target}}}
	})

	h.cards.On("MoveCard", mock.Anything, card.ID, target, (*int)(nil)).
		Return(&models.Card{ID: card.ID, BoardID: card.BoardID, ColumnID: target}, nil)

	outcomes, err := h.dispatcher.Dispatch(context.Background(), h.board.Board.ID, models.TriggerCardMoved, &models.Event{
		Card:         card,
		FromColumnID: h.board.Todo.ID,
		ToColumnID:   h.board.Doing.ID,
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 1)

	assert.True(t, outcomes[0].Executed)
	assert.Equal(t, models.ExecutionSuccess, outcomes[0].Result)
	require.Len(t, outcomes[0].ActionResults, 1)
	assert.Equal(t, models.ActionStatusSuccess, outcomes[0].ActionResults[0].Result)

	entries := h.logs(t, rule.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, models.ExecutionSuccess, entries[0].ExecutionResult)
	h.cards.AssertExpectations(t)
}

func TestDispatch_MalformedConditionSkipsRule(t *testing.T) {
	h := newHarness(t)
	rule := h.save(t, withActions(actionRecord), func(a *models.Automation) {
		a.Conditions = []models.Condition{{Type: "moon_phase_is", Config: map[string]any{"phase": "full"}}}
	})

	outcomes, err := h.dispatcher.Dispatch(context.Background(), h.board.Board.ID, models.TriggerCardMoved, h.movedEvent(h.board.AddCard(t)))
	require.NoError(t, err)
	require.Len(t, outcomes, 1)

	assert.False(t, outcomes[0].Executed)
	assert.True(t, outcomes[0].Skipped)
	assert.Equal(t, models.ReasonConditionsNotMet, outcomes[0].Reason)
	assert.Empty(t, outcomes[0].ActionResults)
	assert.Zero(t, h.recorded.Load())

	entries := h.logs(t, rule.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, models.ExecutionSkipped, entries[0].ExecutionResult)
}

func TestDispatch_TriggerConfigFiltersRules(t *testing.T) {
	h := newHarness(t)
	toDone := h.save(t, withActions(actionRecord), func(a *models.Automation) {
		a.TriggerConfig.ToColumnID = h.board.Done.ID
	})
	toDoing := h.save(t, withActions(actionRecord), func(a *models.Automation) {
		a.TriggerConfig.ToColumnID = h.board.Doing.ID
	})

	outcomes, err := h.dispatcher.Dispatch(context.Background(), h.board.Board.ID, models.TriggerCardMoved, h.movedEvent(h.board.AddCard(t)))
	require.NoError(t, err)
	require.Len(t, outcomes, 1)

	assert.Equal(t, toDoing.ID, outcomes[0].AutomationID)
	assert.Empty(t, h.logs(t, toDone.ID))
}

func TestDispatch_ConditionsGateActions(t *testing.T) {
	h := newHarness(t)
	h.save(t, withActions(actionRecord), func(a *models.Automation) {
		a.Conditions = []models.Condition{
			{Type: models.ConditionPriorityIs, Config: map[string]any{"priority": "urgent"}},
		}
	})

	low := h.board.AddCard(t, testutil.WithPriority(models.PriorityLow))
	urgent := h.board.AddCard(t, testutil.WithPriority(models.PriorityUrgent))

	outcomes, err := h.dispatcher.Dispatch(context.Background(), h.board.Board.ID, models.TriggerCardMoved, h.movedEvent(low))
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].Skipped)

	outcomes, err = h.dispatcher.Dispatch(context.Background(), h.board.Board.ID, models.TriggerCardMoved, h.movedEvent(urgent))
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].Executed)
	assert.Equal(t, int32(1), h.recorded.Load())
}

func TestDispatch_LoadFailure(t *testing.T) {
	h := newHarness(t)
	rules := &mocks.MockAutomationRepository{}
	rules.On("ListActive", mock.Anything, "board-1", models.TriggerCardCreated).Return(nil, errors.New("database is locked"))
	h.dispatcher.rules = rules

	outcomes, err := h.dispatcher.Dispatch(context.Background(), "board-1", models.TriggerCardCreated, &models.Event{})
	require.Error(t, err)
	assert.Nil(t, outcomes)
	assert.ErrorContains(t, err, "database is locked")
}

func TestTest_SimulatesWithoutSideEffects(t *testing.T) {
	h := newHarness(t)
	rule := h.save(t, withActions(actionRecord, "teleport_card"))

	outcome := h.dispatcher.Test(context.Background(), rule, &models.Event{
		Card: &models.Card{ID: "sample", Priority: models.PriorityHigh},
		Data: map[string]any{"source": "sample"},
	})

	assert.Equal(t, models.ExecutionTestSuccess, outcome.Result)
	assert.True(t, outcome.Executed)
	require.Len(t, outcome.ActionResults, 2)
	assert.Equal(t, models.ActionStatusSimulated, outcome.ActionResults[0].Result)
	assert.Equal(t, models.ActionStatusError, outcome.ActionResults[1].Result)
	assert.Zero(t, h.recorded.Load())

	entries := h.logs(t, rule.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, models.ExecutionTestSuccess, entries[0].ExecutionResult)
}

func TestTest_ConditionsNotMetStillLogsTestSuccess(t *testing.T) {
	h := newHarness(t)
	rule := h.save(t, withActions(actionRecord), func(a *models.Automation) {
		a.Conditions = []models.Condition{{Type: models.ConditionFieldEquals, Config: map[string]any{"field": "data.env", "value": "prod"}}}
	})

	outcome := h.dispatcher.Test(context.Background(), rule, &models.Event{Data: map[string]any{"env": "staging"}})

	assert.True(t, outcome.Skipped)
	assert.Equal(t, models.ReasonConditionsNotMet, outcome.Reason)
	assert.Equal(t, models.ExecutionTestSuccess, outcome.Result)

	entries := h.logs(t, rule.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, models.ExecutionTestSuccess, entries[0].ExecutionResult)
}
