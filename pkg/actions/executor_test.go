package actions

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/dukex/taskflow/pkg/models"
	"github.com/dukex/taskflow/pkg/protocol"
	"github.com/dukex/taskflow/pkg/registry"
	"github.com/dukex/taskflow/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAction struct {
	run func(ctx context.Context) (any, error)
}

func (a *stubAction) Execute(ctx context.Context, _ *models.Event, _ *slog.Logger) (any, error) {
	return a.run(ctx)
}

type stubFactory struct {
	id    string
	calls int
	run   func(ctx context.Context) (any, error)
}

func (f *stubFactory) ID() string          { return f.id }
func (f *stubFactory) Name() string        { return f.id }
func (f *stubFactory) Description() string { return "stub" }

func (f *stubFactory) Schema() map[string]any {
	return map[string]any{"type": "object"}
}

func (f *stubFactory) Create(_ context.Context, _ map[string]any) (protocol.Action, error) {
	return &stubAction{run: func(ctx context.Context) (any, error) {
		f.calls++

		return f.run(ctx)
	}}, nil
}

func newTestExecutor(t *testing.T, timeout time.Duration, factories ...*stubFactory) *Executor {
	t.Helper()

	reg := registry.NewRegistry(testutil.Logger())
	for _, factory := range factories {
		reg.RegisterAction(factory)
	}

	return NewExecutor(reg, testutil.Logger(), timeout)
}

func succeed(output any) func(context.Context) (any, error) {
	return func(context.Context) (any, error) { return output, nil }
}

func TestExecuteAll_RunsInOrder(t *testing.T) {
	first := &stubFactory{id: "first", run: succeed("one")}
	second := &stubFactory{id: "second", run: succeed("two")}
	executor := newTestExecutor(t, time.Second, first, second)

	results := executor.ExecuteAll(context.Background(), []models.Action{
		{Type: "first"},
		{Type: "second"},
	}, &models.Event{})

	require.Len(t, results, 2)
	assert.Equal(t, models.ActionResult{Type: "first", Result: models.ActionStatusSuccess, Output: "one"}, results[0])
	assert.Equal(t, models.ActionResult{Type: "second", Result: models.ActionStatusSuccess, Output: "two"}, results[1])
}

func TestExecuteAll_UnknownActionDoesNotStopLaterActions(t *testing.T) {
	known := &stubFactory{id: "known", run: succeed(nil)}
	executor := newTestExecutor(t, time.Second, known)

	results := executor.ExecuteAll(context.Background(), []models.Action{
		{Type: "teleport_card"},
		{Type: "known"},
	}, &models.Event{})

	require.Len(t, results, 2)
	assert.True(t, results[0].Failed())
	assert.Equal(t, "unknown action type 'teleport_card'", results[0].Error)
	assert.Equal(t, models.ActionStatusSuccess, results[1].Result)
	assert.Equal(t, 1, known.calls)
}

func TestExecuteAll_ErrorsAndPanicsAreContained(t *testing.T) {
	failing := &stubFactory{id: "failing", run: func(context.Context) (any, error) {
		return nil, errors.New("column archived")
	}}
	panicking := &stubFactory{id: "panicking", run: func(context.Context) (any, error) {
		panic("nil card")
	}}
	after := &stubFactory{id: "after", run: succeed(nil)}
	executor := newTestExecutor(t, time.Second, failing, panicking, after)

	results := executor.ExecuteAll(context.Background(), []models.Action{
		{Type: "failing"},
		{Type: "panicking"},
		{Type: "after"},
	}, &models.Event{})

	require.Len(t, results, 3)
	assert.Equal(t, "column archived", results[0].Error)
	assert.Contains(t, results[1].Error, ErrActionPanicked.Error())
	assert.Contains(t, results[1].Error, "nil card")
	assert.Equal(t, models.ActionStatusSuccess, results[2].Result)
}

func TestExecuteAll_Timeout(t *testing.T) {
	slow := &stubFactory{id: "slow", run: func(ctx context.Context) (any, error) {
		<-ctx.Done()
		time.Sleep(50 * time.Millisecond)

		return "late", nil
	}}
	executor := newTestExecutor(t, 20*time.Millisecond, slow)

	results := executor.ExecuteAll(context.Background(), []models.Action{{Type: "slow"}}, &models.Event{})

	require.Len(t, results, 1)
	assert.True(t, results[0].Failed())
	assert.Contains(t, results[0].Error, context.DeadlineExceeded.Error())
}

func TestSimulate(t *testing.T) {
	known := &stubFactory{id: "known", run: succeed(nil)}
	executor := newTestExecutor(t, time.Second, known)

	results := executor.Simulate([]models.Action{
		{Type: "known"},
		{Type: "unknown"},
	})

	require.Len(t, results, 2)
	assert.Equal(t, models.ActionStatusSimulated, results[0].Result)
	assert.Equal(t, models.ActionStatusError, results[1].Result)
	assert.Equal(t, "unknown action type 'unknown'", results[1].Error)
	assert.Equal(t, 0, known.calls)
}

func TestNewExecutor_DefaultTimeout(t *testing.T) {
	executor := NewExecutor(registry.NewRegistry(testutil.Logger()), testutil.Logger(), 0)
	assert.Equal(t, DefaultTimeout, executor.timeout)
}

func TestIsUnknownActionError(t *testing.T) {
	assert.True(t, IsUnknownActionError(&UnknownActionError{Type: "x"}))
	assert.False(t, IsUnknownActionError(errors.New("x")))
}
