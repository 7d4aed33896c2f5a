package services

import (
	"context"
	"strings"

	apperrors "github.com/vytor/deckflash/internal/errors"
	"github.com/vytor/deckflash/internal/logger"
	"github.com/vytor/deckflash/internal/models"
	"github.com/vytor/deckflash/internal/progress"
	"github.com/vytor/deckflash/internal/repository"
)

// UserService handles learners and their lifetime progress
type UserService interface {
	GetOrCreateUser(ctx context.Context, displayName string) (*models.User, error)
	GetProgress(ctx context.Context, userID int64) (*models.UserProgress, error)
	CompleteQuiz(ctx context.Context, userID int64, cardsReviewed, correctAnswers int) (*models.UserProgress, error)
	// ListResults returns the user's answered cards, newest first. A zero limit
	// means the default page size.
	ListResults(ctx context.Context, userID int64, limit int) ([]models.QuizResult, error)
}

const (
	defaultResultsLimit = 50
	maxResultsLimit     = 500

	// progressAttempts bounds retries of a progress write that lost a version race.
	progressAttempts = 3
)

type userService struct {
	users   repository.UserRepository
	results repository.ResultRepository
	opts    Options
}

// NewUserService creates a new UserService
func NewUserService(users repository.UserRepository, results repository.ResultRepository, opts Options) UserService {
	return &userService{users: users, results: results, opts: opts.withDefaults()}
}

func (s *userService) GetOrCreateUser(ctx context.Context, displayName string) (*models.User, error) {
	name := strings.TrimSpace(displayName)
	if name == "" {
		return nil, apperrors.NewInvalidRequestError("display_name", "cannot be empty")
	}
	u, err := s.users.GetOrCreate(ctx, name)
	if err != nil {
		logger.FromContext(ctx).WithPrefix("user_service").Error("failed to get or create user: %v", err)
		return nil, apperrors.Propagate(err)
	}
	return u, nil
}

func (s *userService) GetProgress(ctx context.Context, userID int64) (*models.UserProgress, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, apperrors.Propagate(err)
	}
	p := models.NewUserProgress(*u)
	return &p, nil
}

func (s *userService) CompleteQuiz(ctx context.Context, userID int64, cardsReviewed, correctAnswers int) (*models.UserProgress, error) {
	log := logger.FromContext(ctx).WithPrefix("user_service")
	log.Debug("completing quiz: user_id=%d, reviewed=%d, correct=%d", userID, cardsReviewed, correctAnswers)

	if cardsReviewed < 0 {
		return nil, apperrors.NewInvalidRequestError("cards_reviewed", "cannot be negative")
	}
	if correctAnswers < 0 || correctAnswers > cardsReviewed {
		return nil, apperrors.NewInvalidRequestError("correct_answers", "must be between 0 and cards_reviewed")
	}

	now := s.opts.Now()
	var updated *models.User
	err := retryOnConflict(ctx, "complete quiz", func() error {
		var err error
		updated, err = s.users.UpdateProgress(ctx, userID, func(u models.User) models.User {
			return progress.RecordQuizCompletion(u, cardsReviewed, correctAnswers, now)
		})
		return err
	})
	if err != nil {
		if !apperrors.IsNotFound(err) {
			log.Error("failed to update progress: %v", err)
		}
		return nil, apperrors.Propagate(err)
	}
	log.Info("quiz completed: user_id=%d, streak=%d", userID, updated.CurrentStreak)

	p := models.NewUserProgress(*updated)
	return &p, nil
}

func (s *userService) ListResults(ctx context.Context, userID int64, limit int) ([]models.QuizResult, error) {
	switch {
	case limit < 0:
		return nil, apperrors.NewInvalidRequestError("limit", "cannot be negative")
	case limit == 0:
		limit = defaultResultsLimit
	case limit > maxResultsLimit:
		limit = maxResultsLimit
	}

	if _, err := s.users.Get(ctx, userID); err != nil {
		return nil, apperrors.Propagate(err)
	}
	results, err := s.results.ListByUser(ctx, userID, limit)
	if err != nil {
		logger.FromContext(ctx).WithPrefix("user_service").Error("failed to list results: %v", err)
		return nil, apperrors.Propagate(err)
	}
	return results, nil
}

// retryOnConflict reruns fn while it reports a CONFLICT, up to progressAttempts times.
func retryOnConflict(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= progressAttempts; attempt++ {
		if err = fn(); !apperrors.IsConflict(err) {
			return err
		}
		logger.FromContext(ctx).WithPrefix("services").Warn("%s lost a concurrent update: attempt=%d", op, attempt)
	}
	return err
}
