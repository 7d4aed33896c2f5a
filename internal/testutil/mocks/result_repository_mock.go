package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/deckflash/internal/models"
	"github.com/vytor/deckflash/internal/repository"
)

// MockResultRepository is a mock implementation of repository.ResultRepository
type MockResultRepository struct {
	mock.Mock
}

func (m *MockResultRepository) Insert(ctx context.Context, result models.QuizResult, update repository.ProgressUpdate) (int64, error) {
	args := m.Called(ctx, result, update)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockResultRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]models.QuizResult, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.QuizResult), args.Error(1)
}
