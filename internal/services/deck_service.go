package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	apperrors "github.com/vytor/deckflash/internal/errors"
	"github.com/vytor/deckflash/internal/logger"
	"github.com/vytor/deckflash/internal/models"
	"github.com/vytor/deckflash/internal/repository"
)

// CreateDeckInput carries the user-editable fields of a deck.
type CreateDeckInput struct {
	Name        string
	Category    string
	Subcategory string
	Difficulty  string
}

// CreateCardInput carries the content of a new card. An empty question type means simple.
type CreateCardInput struct {
	Question     string
	Answer       string
	QuestionType models.QuestionType
	Payload      models.QuestionPayload
}

// DeckService handles deck and card authoring and deck sharing
type DeckService interface {
	CreateDeck(ctx context.Context, in CreateDeckInput) (*models.Deck, error)
	GetDeck(ctx context.Context, id int64) (*models.Deck, error)
	ListDecks(ctx context.Context, category string) ([]models.Deck, error)
	DeleteDeck(ctx context.Context, id int64) error
	CreateCard(ctx context.Context, deckID int64, in CreateCardInput) (*models.Card, error)
	// ShareDeck issues a new share token, replacing any previous one.
	ShareDeck(ctx context.Context, deckID int64) (string, error)
	RevokeShare(ctx context.Context, deckID int64) error
	GetSharedDeck(ctx context.Context, token string) (*models.SharedDeck, error)
}

type deckService struct {
	decks repository.DeckRepository
	cards repository.CardRepository
	opts  Options
}

// NewDeckService creates a new DeckService
func NewDeckService(decks repository.DeckRepository, cards repository.CardRepository, opts Options) DeckService {
	return &deckService{decks: decks, cards: cards, opts: opts.withDefaults()}
}

func (s *deckService) CreateDeck(ctx context.Context, in CreateDeckInput) (*models.Deck, error) {
	log := logger.FromContext(ctx).WithPrefix("deck_service")

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.NewInvalidRequestError("name", "cannot be empty")
	}
	difficulty := strings.TrimSpace(in.Difficulty)
	if difficulty != "" {
		d, err := parseDifficulty(difficulty)
		if err != nil {
			return nil, err
		}
		difficulty = d.String()
	}

	now := s.opts.Now()
	id, err := s.decks.Insert(ctx, models.Deck{
		Name:        name,
		Category:    strings.TrimSpace(in.Category),
		Subcategory: strings.TrimSpace(in.Subcategory),
		Difficulty:  difficulty,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		log.Error("failed to insert deck: %v", err)
		return nil, apperrors.Propagate(err)
	}
	log.Info("deck created: id=%d, name=%s", id, name)
	return s.GetDeck(ctx, id)
}

func (s *deckService) GetDeck(ctx context.Context, id int64) (*models.Deck, error) {
	deck, err := s.decks.Get(ctx, id)
	if err != nil {
		return nil, apperrors.Propagate(err)
	}
	return deck, nil
}

func (s *deckService) ListDecks(ctx context.Context, category string) ([]models.Deck, error) {
	decks, err := s.decks.ListByCategory(ctx, strings.TrimSpace(category))
	if err != nil {
		logger.FromContext(ctx).WithPrefix("deck_service").Error("failed to list decks: %v", err)
		return nil, apperrors.Propagate(err)
	}
	return decks, nil
}

func (s *deckService) DeleteDeck(ctx context.Context, id int64) error {
	log := logger.FromContext(ctx).WithPrefix("deck_service")
	if err := s.decks.Delete(ctx, id); err != nil {
		return apperrors.Propagate(err)
	}
	log.Info("deck deleted: id=%d", id)
	return nil
}

func (s *deckService) CreateCard(ctx context.Context, deckID int64, in CreateCardInput) (*models.Card, error) {
	log := logger.FromContext(ctx).WithPrefix("deck_service")
	log.Debug("creating card: deck_id=%d, type=%s", deckID, in.QuestionType)

	qt := in.QuestionType
	if qt == "" {
		qt = models.QuestionSimple
	}
	now := s.opts.Now()
	card := models.Card{
		DeckID:       deckID,
		Question:     strings.TrimSpace(in.Question),
		Answer:       strings.TrimSpace(in.Answer),
		QuestionType: qt,
		Payload:      in.Payload,
		Scheduling:   models.NewSchedulingState(now),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if field, reason := card.Validate(); field != "" {
		return nil, apperrors.NewInvalidRequestError(field, reason)
	}

	if _, err := s.decks.Get(ctx, deckID); err != nil {
		return nil, apperrors.Propagate(err)
	}
	id, err := s.cards.Insert(ctx, card)
	if err != nil {
		log.Error("failed to insert card: %v", err)
		return nil, apperrors.Propagate(err)
	}
	created, err := s.cards.Get(ctx, id)
	if err != nil {
		return nil, apperrors.Propagate(err)
	}
	log.Info("card created: id=%d, deck_id=%d", id, deckID)
	return created, nil
}

func (s *deckService) ShareDeck(ctx context.Context, deckID int64) (string, error) {
	log := logger.FromContext(ctx).WithPrefix("deck_service")

	token := uuid.NewString()
	if err := s.decks.SetShareToken(ctx, deckID, &token); err != nil {
		return "", apperrors.Propagate(err)
	}
	log.Info("deck shared: id=%d", deckID)
	return token, nil
}

func (s *deckService) RevokeShare(ctx context.Context, deckID int64) error {
	if err := s.decks.SetShareToken(ctx, deckID, nil); err != nil {
		return apperrors.Propagate(err)
	}
	logger.FromContext(ctx).WithPrefix("deck_service").Info("deck share revoked: id=%d", deckID)
	return nil
}

func (s *deckService) GetSharedDeck(ctx context.Context, token string) (*models.SharedDeck, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperrors.NewInvalidRequestError("token", "cannot be empty")
	}
	if _, err := uuid.Parse(token); err != nil {
		return nil, apperrors.NewNotFoundError("shared deck", token)
	}

	deck, err := s.decks.GetByShareToken(ctx, token)
	if err != nil {
		return nil, apperrors.Propagate(err)
	}
	cards, err := s.cards.List(ctx, repository.CardFilter{DeckID: deck.ID})
	if err != nil {
		return nil, apperrors.Propagate(err)
	}
	deck.CardCount = len(cards)
	return &models.SharedDeck{Deck: *deck, Cards: cards}, nil
}

