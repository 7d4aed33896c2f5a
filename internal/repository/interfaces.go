package repository

import (
	"context"

	"github.com/vytor/deckflash/internal/models"
)

// Implementations return *errors.AppError NOT_FOUND for missing rows so that
// services can pass the condition through unchanged.

// CardFilter narrows a card listing; zero values are ignored.
type CardFilter struct {
	DeckID int64
	// DeckIDs matches cards in any of the listed decks.
	DeckIDs []int64
}

// CardRepository handles card data access
type CardRepository interface {
	Get(ctx context.Context, id int64) (*models.Card, error)
	List(ctx context.Context, filter CardFilter) ([]models.Card, error)
	Insert(ctx context.Context, card models.Card) (int64, error)
	// UpdateScheduling stores state only if the card is still at expectedVersion
	// and returns a CONFLICT error otherwise.
	UpdateScheduling(ctx context.Context, id int64, state models.SchedulingState, expectedVersion int64) (*models.Card, error)
	// FindSimilar returns the deck's cards whose question similarity to question
	// is at least threshold, best match first.
	FindSimilar(ctx context.Context, deckID int64, question string, threshold float64, limit int) ([]models.SimilarCard, error)
}

// DeckRepository handles deck data access
type DeckRepository interface {
	Get(ctx context.Context, id int64) (*models.Deck, error)
	GetByShareToken(ctx context.Context, token string) (*models.Deck, error)
	ListByCategory(ctx context.Context, category string) ([]models.Deck, error)
	Insert(ctx context.Context, deck models.Deck) (int64, error)
	// SetShareToken replaces the deck's token; nil revokes it.
	SetShareToken(ctx context.Context, id int64, token *string) error
	// Delete removes the deck and, by cascade, its cards and results.
	Delete(ctx context.Context, id int64) error
}

// ProgressUpdate derives a user's new counters from the stored row.
type ProgressUpdate func(models.User) models.User

// UserRepository handles user data access
type UserRepository interface {
	Get(ctx context.Context, id int64) (*models.User, error)
	GetOrCreate(ctx context.Context, displayName string) (*models.User, error)
	// UpdateProgress reads the user, applies update and writes the result back
	// in one transaction. The write only lands if the row is still at the version
	// that was read; otherwise it returns a CONFLICT error.
	UpdateProgress(ctx context.Context, id int64, update ProgressUpdate) (*models.User, error)
}

// ResultRepository is an append-only log of answered cards
type ResultRepository interface {
	// Insert stores the result and applies update to its user in the same
	// transaction, so neither is kept without the other.
	Insert(ctx context.Context, result models.QuizResult, update ProgressUpdate) (int64, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]models.QuizResult, error)
}
