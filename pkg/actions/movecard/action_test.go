package movecard

import (
	"context"
	"errors"
	"testing"

	"github.com/dukex/taskflow/pkg/actions"
	"github.com/dukex/taskflow/pkg/mocks"
	"github.com/dukex/taskflow/pkg/models"
	"github.com/dukex/taskflow/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestActionFactory(t *testing.T) {
	factory := NewActionFactory(&mocks.MockCardMutator{})
	assert.Equal(t, "move_card", factory.ID())
	assert.NotEmpty(t, factory.Name())
	assert.Equal(t, []string{"column_id"}, factory.Schema()["required"])

	action, err := factory.Create(context.Background(), map[string]any{"column_id": "col-b"})
	require.NoError(t, err)
	assert.IsType(t, &Action{}, action)
}

func TestNewAction(t *testing.T) {
	tests := []struct {
		name         string
		config       map[string]any
		wantErr      error
		wantPosition *int
	}{
		{name: "missing column", config: map[string]any{}, wantErr: ErrMissingColumn},
		{name: "column only", config: map[string]any{"column_id": "col-b"}},
		{name: "json position", config: map[string]any{"column_id": "col-b", "position": float64(2)}, wantPosition: intPtr(2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, err := NewAction(&mocks.MockCardMutator{}, tt.config)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, "col-b", action.ColumnID)
			assert.Equal(t, tt.wantPosition, action.Position)
		})
	}
}

func TestAction_Execute(t *testing.T) {
	cards := &mocks.MockCardMutator{}
	cards.On("MoveCard", mock.Anything, "card-1", "col-x", (*int)(nil)).
		Return(&models.Card{ID: "card-1", ColumnID: "col-x", Position: 4}, nil)

	action, err := NewAction(cards, map[string]any{"column_id": "col-x"})
	require.NoError(t, err)

	output, err := action.Execute(context.Background(), &models.Event{
		Card: &models.Card{ID: "card-1", ColumnID: "col-b"},
	}, testutil.Logger())
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"card_id":        "card-1",
		"from_column_id": "col-b",
		"to_column_id":   "col-x",
		"position":       4,
	}, output)
	cards.AssertExpectations(t)
}

func TestAction_ExecuteErrors(t *testing.T) {
	t.Run("no card", func(t *testing.T) {
		action, err := NewAction(&mocks.MockCardMutator{}, map[string]any{"column_id": "col-x"})
		require.NoError(t, err)

		_, err = action.Execute(context.Background(), &models.Event{}, testutil.Logger())
		assert.ErrorIs(t, err, actions.ErrNoCard)
	})

	t.Run("mutator failure", func(t *testing.T) {
		cards := &mocks.MockCardMutator{}
		cards.On("MoveCard", mock.Anything, "card-1", "col-x", (*int)(nil)).Return(nil, errors.New("column not found"))

		action, err := NewAction(cards, map[string]any{"column_id": "col-x"})
		require.NoError(t, err)

		_, err = action.Execute(context.Background(), &models.Event{Card: &models.Card{ID: "card-1"}}, testutil.Logger())
		assert.ErrorContains(t, err, "column not found")
	})
}

func intPtr(v int) *int {
	return &v
}
