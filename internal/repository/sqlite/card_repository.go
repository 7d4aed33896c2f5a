package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	apperrors "github.com/vytor/deckflash/internal/errors"
	"github.com/vytor/deckflash/internal/logger"
	"github.com/vytor/deckflash/internal/models"
	"github.com/vytor/deckflash/internal/repository"
)

var cardColumns = []string{
	"id", "deck_id", "question", "answer", "question_type", "payload",
	"next_review_at", "interval_days", "repetitions", "ease_factor",
	"version", "created_at", "updated_at",
}

type cardRepository struct {
	db *sql.DB
}

// NewCardRepository creates a new CardRepository implementation
func NewCardRepository(db *sql.DB) repository.CardRepository {
	return &cardRepository{db: db}
}

func scanCard(row rowScanner) (models.Card, error) {
	var c models.Card
	var questionType, payload string
	err := row.Scan(&c.ID, &c.DeckID, &c.Question, &c.Answer, &questionType, &payload,
		&c.Scheduling.NextReviewAt, &c.Scheduling.IntervalDays, &c.Scheduling.Repetitions, &c.Scheduling.EaseFactor,
		&c.Version, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return c, err
	}
	c.QuestionType = models.QuestionType(questionType)
	if payload != "" {
		if err := json.Unmarshal([]byte(payload), &c.Payload); err != nil {
			return c, fmt.Errorf("decode payload of card %d: %w", c.ID, err)
		}
	}
	return c, nil
}

func (r *cardRepository) Get(ctx context.Context, id int64) (*models.Card, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("getting card: id=%d", id)

	query, args, err := sqlBuilder.Select(cardColumns...).From("cards").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	c, err := scanCard(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("card not found: id=%d", id)
		return nil, apperrors.NewNotFoundError("card", id)
	}
	if err != nil {
		log.Error("failed to get card: %v", err)
		return nil, err
	}
	return &c, nil
}

func (r *cardRepository) List(ctx context.Context, filter repository.CardFilter) ([]models.Card, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("listing cards: deck_id=%d, deck_ids=%v", filter.DeckID, filter.DeckIDs)

	q := sqlBuilder.Select(cardColumns...).From("cards")
	if filter.DeckID != 0 {
		q = q.Where(squirrel.Eq{"deck_id": filter.DeckID})
	}
	if len(filter.DeckIDs) > 0 {
		q = q.Where(squirrel.Eq{"deck_id": filter.DeckIDs})
	}
	q = q.OrderBy("id ASC")

	query, args, err := q.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list cards: %v", err)
		return nil, err
	}
	defer rows.Close()

	cards := []models.Card{}
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			log.Error("failed to scan card row: %v", err)
			return nil, err
		}
		cards = append(cards, c)
	}
	log.Debug("found %d cards", len(cards))
	return cards, rows.Err()
}

func (r *cardRepository) Insert(ctx context.Context, c models.Card) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("inserting card: deck_id=%d, type=%s", c.DeckID, c.QuestionType)

	payload, err := json.Marshal(c.Payload)
	if err != nil {
		return 0, fmt.Errorf("encode payload: %w", err)
	}
	createdAt := orNow(c.CreatedAt)
	updatedAt := createdAt
	if !c.UpdatedAt.IsZero() {
		updatedAt = c.UpdatedAt.UTC()
	}

	query, args, err := sqlBuilder.Insert("cards").
		Columns("deck_id", "question", "answer", "question_type", "payload",
			"next_review_at", "interval_days", "repetitions", "ease_factor", "created_at", "updated_at").
		Values(c.DeckID, c.Question, c.Answer, string(c.QuestionType), string(payload),
			orNow(c.Scheduling.NextReviewAt), c.Scheduling.IntervalDays, c.Scheduling.Repetitions, c.Scheduling.EaseFactor,
			createdAt, updatedAt).
		ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return 0, err
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to insert card: %v", err)
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		log.Error("failed to get card id: %v", err)
		return 0, err
	}
	log.Debug("card inserted: id=%d", id)
	return id, nil
}

func (r *cardRepository) UpdateScheduling(ctx context.Context, id int64, s models.SchedulingState, expectedVersion int64) (*models.Card, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("updating card scheduling: id=%d, version=%d, interval=%d, ease=%.2f", id, expectedVersion, s.IntervalDays, s.EaseFactor)

	query, args, err := sqlBuilder.Update("cards").
		Set("next_review_at", s.NextReviewAt.UTC()).
		Set("interval_days", s.IntervalDays).
		Set("repetitions", s.Repetitions).
		Set("ease_factor", s.EaseFactor).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", nowUTC()).
		Where(squirrel.Eq{"id": id, "version": expectedVersion}).
		ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to update card: %v", err)
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// Either the card is gone or another writer bumped the version first.
		if _, err := r.Get(ctx, id); err != nil {
			return nil, err
		}
		log.Warn("card %d was modified concurrently (expected version %d)", id, expectedVersion)
		return nil, apperrors.NewConflictError("card", id)
	}
	return r.Get(ctx, id)
}

func (r *cardRepository) FindSimilar(ctx context.Context, deckID int64, question string, threshold float64, limit int) ([]models.SimilarCard, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("searching similar cards: deck_id=%d, threshold=%.2f, limit=%d", deckID, threshold, limit)

	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, deck_id, question, score
FROM (
    SELECT id, deck_id, question, similarity(question, ?) AS score
    FROM cards
    WHERE deck_id = ?
)
WHERE score >= ?
ORDER BY score DESC, id ASC
LIMIT ?
`, question, deckID, threshold, limit)
	if err != nil {
		log.Error("failed to query similar cards: %v", err)
		return nil, err
	}
	defer rows.Close()

	out := []models.SimilarCard{}
	for rows.Next() {
		var sc models.SimilarCard
		if err := rows.Scan(&sc.CardID, &sc.DeckID, &sc.Question, &sc.Similarity); err != nil {
			log.Error("failed to scan similar card row: %v", err)
			return nil, err
		}
		out = append(out, sc)
	}
	log.Debug("found %d similar cards", len(out))
	return out, rows.Err()
}
