package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	apperrors "github.com/vytor/deckflash/internal/errors"
	"github.com/vytor/deckflash/internal/interleave"
	"github.com/vytor/deckflash/internal/logger"
	"github.com/vytor/deckflash/internal/models"
	"github.com/vytor/deckflash/internal/progress"
	"github.com/vytor/deckflash/internal/repository"
	"github.com/vytor/deckflash/internal/scheduling"
	"github.com/vytor/deckflash/internal/selection"
)

// RecordResultInput describes one answered card.
type RecordResultInput struct {
	UserID     int64
	DeckID     int64
	CardID     int64
	IsCorrect  bool
	Difficulty string
	RawAnswer  *string
}

// QuizService builds study sessions and records how they went
type QuizService interface {
	// GenerateQuiz selects up to count cards, from one deck when deckID is set
	// and from every deck otherwise.
	GenerateQuiz(ctx context.Context, difficulty string, count int, deckID *int64) (*models.QuizSession, error)
	CreateInterleavedSession(ctx context.Context, deckIDs []int64, cardsPerDeck int, difficulty string) (*models.InterleavedQuizSession, error)
	SubmitRating(ctx context.Context, cardID int64, rating string) (*models.Card, error)
	RecordResult(ctx context.Context, in RecordResultInput) error
	// CheckDuplicates looks for existing cards in the deck whose question
	// resembles question. A nil threshold uses the configured default.
	CheckDuplicates(ctx context.Context, deckID int64, question string, threshold *float64) (*models.DuplicateCheck, error)
}

type quizService struct {
	cards   repository.CardRepository
	decks   repository.DeckRepository
	users   repository.UserRepository
	results repository.ResultRepository
	opts    Options
}

// NewQuizService creates a new QuizService
func NewQuizService(
	cards repository.CardRepository,
	decks repository.DeckRepository,
	users repository.UserRepository,
	results repository.ResultRepository,
	opts Options,
) QuizService {
	return &quizService{
		cards:   cards,
		decks:   decks,
		users:   users,
		results: results,
		opts:    opts.withDefaults(),
	}
}

func parseDifficulty(s string) (selection.Difficulty, error) {
	d, err := selection.ParseDifficulty(s)
	if err != nil {
		return 0, apperrors.NewInvalidRequestError("difficulty", fmt.Sprintf("%q is not one of easy, medium, hard, expert", s))
	}
	return d, nil
}

func (s *quizService) GenerateQuiz(ctx context.Context, difficulty string, count int, deckID *int64) (*models.QuizSession, error) {
	log := logger.FromContext(ctx).WithPrefix("quiz_service")
	log.Debug("generating quiz: difficulty=%s, count=%d", difficulty, count)

	d, err := parseDifficulty(difficulty)
	if err != nil {
		return nil, err
	}
	if count <= 0 {
		count = s.opts.DefaultQuizSize
	}
	if count > s.opts.MaxQuizSize {
		return nil, apperrors.NewInvalidRequestError("count", fmt.Sprintf("must not exceed %d", s.opts.MaxQuizSize))
	}

	filter := repository.CardFilter{}
	if deckID != nil {
		if _, err := s.decks.Get(ctx, *deckID); err != nil {
			return nil, apperrors.Propagate(err)
		}
		filter.DeckID = *deckID
	}

	candidates, err := s.cards.List(ctx, filter)
	if err != nil {
		log.Error("failed to list candidate cards: %v", err)
		return nil, apperrors.Propagate(err)
	}

	now := s.opts.Now()
	selected, err := selection.Select(candidates, d, count, now, s.opts.NewRand())
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	ids := make([]int64, len(selected))
	for i, c := range selected {
		ids[i] = c.ID
	}
	log.Info("quiz generated: difficulty=%s, candidates=%d, selected=%d", d, len(candidates), len(selected))

	return &models.QuizSession{
		ID:         uuid.NewString(),
		CreatedAt:  now,
		Difficulty: d.String(),
		DeckID:     deckID,
		CardIDs:    ids,
		Cards:      selected,
	}, nil
}

func (s *quizService) CreateInterleavedSession(ctx context.Context, deckIDs []int64, cardsPerDeck int, difficulty string) (*models.InterleavedQuizSession, error) {
	log := logger.FromContext(ctx).WithPrefix("quiz_service")
	log.Debug("creating interleaved session: decks=%v, cards_per_deck=%d, difficulty=%s", deckIDs, cardsPerDeck, difficulty)

	d, err := parseDifficulty(difficulty)
	if err != nil {
		return nil, err
	}
	if cardsPerDeck < 1 {
		return nil, apperrors.NewInvalidRequestError("cards_per_deck", "must be at least 1")
	}
	if cardsPerDeck > s.opts.MaxQuizSize {
		return nil, apperrors.NewInvalidRequestError("cards_per_deck", fmt.Sprintf("must not exceed %d", s.opts.MaxQuizSize))
	}

	ids := uniqueIDs(deckIDs)
	if len(ids) == 0 {
		return nil, apperrors.NewInvalidRequestError("deck_ids", interleave.ErrNoDecks.Error())
	}
	for _, id := range ids {
		if id <= 0 {
			return nil, apperrors.NewInvalidRequestError("deck_ids", fmt.Sprintf("invalid deck id %d", id))
		}
	}

	now := s.opts.Now()
	rng := s.opts.NewRand()
	decks := make([]*models.Deck, 0, len(ids))
	for _, id := range ids {
		deck, err := s.decks.Get(ctx, id)
		if err != nil {
			return nil, apperrors.Propagate(err)
		}
		decks = append(decks, deck)
	}
	all, err := s.cards.List(ctx, repository.CardFilter{DeckIDs: ids})
	if err != nil {
		log.Error("failed to list cards for decks %v: %v", ids, err)
		return nil, apperrors.Propagate(err)
	}
	byDeck := make(map[int64][]models.Card, len(ids))
	for _, c := range all {
		byDeck[c.DeckID] = append(byDeck[c.DeckID], c)
	}

	contributions := make([]interleave.DeckCards, 0, len(ids))
	summaries := make([]models.DeckSummary, 0, len(ids))
	for _, deck := range decks {
		id := deck.ID
		selected, err := selection.Select(byDeck[id], d, cardsPerDeck, now, rng)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		contributions = append(contributions, interleave.DeckCards{DeckID: id, Cards: selected})
		summaries = append(summaries, models.DeckSummary{
			DeckID:   id,
			Name:     deck.Name,
			Category: deck.Category,
			Count:    len(selected),
		})
	}

	entries, err := interleave.Interleave(contributions, rng)
	if errors.Is(err, interleave.ErrNoDecks) {
		return nil, apperrors.NewInvalidRequestError("deck_ids", err.Error())
	}
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	log.Info("interleaved session created: decks=%d, entries=%d", len(ids), len(entries))

	return &models.InterleavedQuizSession{
		ID:         uuid.NewString(),
		CreatedAt:  now,
		Difficulty: d.String(),
		Entries:    entries,
		Decks:      summaries,
	}, nil
}

// uniqueIDs drops repeated ids, keeping the first occurrence.
func uniqueIDs(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

func (s *quizService) SubmitRating(ctx context.Context, cardID int64, rating string) (*models.Card, error) {
	log := logger.FromContext(ctx).WithPrefix("quiz_service")
	log.Debug("submitting rating: card_id=%d, rating=%s", cardID, rating)

	r, err := scheduling.ParseRating(rating)
	if err != nil {
		return nil, apperrors.NewInvalidRequestError("rating", fmt.Sprintf("%q is not one of again, hard, good, easy", rating))
	}

	card, err := s.cards.Get(ctx, cardID)
	if err != nil {
		return nil, apperrors.Propagate(err)
	}

	next := scheduling.NextState(card.Scheduling, r, s.opts.Now())
	log.Debug("rating applied: card_id=%d, interval=%d->%d, ease=%.2f->%.2f",
		cardID, card.Scheduling.IntervalDays, next.IntervalDays, card.Scheduling.EaseFactor, next.EaseFactor)

	updated, err := s.cards.UpdateScheduling(ctx, cardID, next, card.Version)
	if err != nil {
		if apperrors.IsConflict(err) {
			log.Warn("rating lost a concurrent update: card_id=%d", cardID)
		}
		return nil, apperrors.Propagate(err)
	}
	return updated, nil
}

func (s *quizService) RecordResult(ctx context.Context, in RecordResultInput) error {
	log := logger.FromContext(ctx).WithPrefix("quiz_service")
	log.Debug("recording result: user_id=%d, deck_id=%d, card_id=%d, correct=%t", in.UserID, in.DeckID, in.CardID, in.IsCorrect)

	switch {
	case in.UserID <= 0:
		return apperrors.NewInvalidRequestError("user_id", "is required")
	case in.DeckID <= 0:
		return apperrors.NewInvalidRequestError("deck_id", "is required")
	case in.CardID <= 0:
		return apperrors.NewInvalidRequestError("card_id", "is required")
	}
	d, err := parseDifficulty(in.Difficulty)
	if err != nil {
		return err
	}

	if _, err := s.users.Get(ctx, in.UserID); err != nil {
		return apperrors.Propagate(err)
	}
	card, err := s.cards.Get(ctx, in.CardID)
	if err != nil {
		return apperrors.Propagate(err)
	}
	if card.DeckID != in.DeckID {
		return apperrors.NewInvalidRequestError("card_id", fmt.Sprintf("card %d does not belong to deck %d", in.CardID, in.DeckID))
	}

	var raw *string
	if in.RawAnswer != nil && strings.TrimSpace(*in.RawAnswer) != "" {
		raw = in.RawAnswer
	}

	now := s.opts.Now()
	result := models.QuizResult{
		UserID:     in.UserID,
		DeckID:     in.DeckID,
		CardID:     in.CardID,
		IsCorrect:  in.IsCorrect,
		Difficulty: d.String(),
		RawAnswer:  raw,
		AnsweredAt: now,
	}
	err = retryOnConflict(ctx, "record result", func() error {
		_, err := s.results.Insert(ctx, result, func(u models.User) models.User {
			return progress.RecordActivity(u, now)
		})
		return err
	})
	if err != nil {
		log.Error("failed to record result: %v", err)
		return apperrors.Propagate(err)
	}
	return nil
}

func (s *quizService) CheckDuplicates(ctx context.Context, deckID int64, question string, threshold *float64) (*models.DuplicateCheck, error) {
	log := logger.FromContext(ctx).WithPrefix("quiz_service")

	if strings.TrimSpace(question) == "" {
		return nil, apperrors.NewInvalidRequestError("question", "cannot be empty")
	}
	t := s.opts.DuplicateThreshold
	if threshold != nil {
		t = *threshold
	}
	if !(t > 0 && t <= 1) {
		return nil, apperrors.NewInvalidRequestError("threshold", "must be in (0, 1]")
	}
	log.Debug("checking duplicates: deck_id=%d, threshold=%.2f", deckID, t)

	if _, err := s.decks.Get(ctx, deckID); err != nil {
		return nil, apperrors.Propagate(err)
	}
	similar, err := s.cards.FindSimilar(ctx, deckID, question, t, s.opts.DuplicateLimit)
	if err != nil {
		log.Error("failed to find similar cards: %v", err)
		return nil, apperrors.Propagate(err)
	}
	if similar == nil {
		similar = []models.SimilarCard{}
	}

	return &models.DuplicateCheck{
		HasSimilar:   len(similar) > 0,
		Threshold:    t,
		SimilarCards: similar,
	}, nil
}
