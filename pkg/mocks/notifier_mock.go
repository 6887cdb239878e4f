package mocks

import (
	"context"

	"github.com/dukex/taskflow/pkg/models"
	"github.com/stretchr/testify/mock"
)

// MockNotifier is a mock implementation of notifier.Notifier interface.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, notification models.Notification) error {
	args := m.Called(ctx, notification)

	return args.Error(0)
}
