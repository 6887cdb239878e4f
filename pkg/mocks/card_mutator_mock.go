package mocks

import (
	"context"

	"github.com/dukex/taskflow/pkg/models"
	"github.com/stretchr/testify/mock"
)

// MockCardMutator is a mock implementation of protocol.CardMutator interface.
type MockCardMutator struct {
	mock.Mock
}

func (m *MockCardMutator) MoveCard(ctx context.Context, cardID, columnID string, position *int) (*models.Card, error) {
	args := m.Called(ctx, cardID, columnID, position)
	if card := args.Get(0); card != nil {
		return card.(*models.Card), args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockCardMutator) UpdateCardField(ctx context.Context, cardID, field string, value any) (*models.Card, error) {
	args := m.Called(ctx, cardID, field, value)
	if card := args.Get(0); card != nil {
		return card.(*models.Card), args.Error(1)
	}

	return nil, args.Error(1)
}
