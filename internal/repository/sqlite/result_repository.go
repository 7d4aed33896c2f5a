package sqlite

import (
	"context"
	"database/sql"

	"github.com/Masterminds/squirrel"
	apperrors "github.com/vytor/deckflash/internal/errors"
	"github.com/vytor/deckflash/internal/logger"
	"github.com/vytor/deckflash/internal/models"
	"github.com/vytor/deckflash/internal/repository"
)

type resultRepository struct {
	db *sql.DB
}

// NewResultRepository creates a new ResultRepository implementation
func NewResultRepository(db *sql.DB) repository.ResultRepository {
	return &resultRepository{db: db}
}

func (r *resultRepository) Insert(ctx context.Context, res models.QuizResult, update repository.ProgressUpdate) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("result_repo")
	log.Debug("inserting quiz result: user_id=%d, card_id=%d, correct=%t", res.UserID, res.CardID, res.IsCorrect)

	query, args, err := sqlBuilder.Insert("quiz_results").
		Columns("user_id", "deck_id", "card_id", "is_correct", "difficulty", "raw_answer", "answered_at").
		Values(res.UserID, res.DeckID, res.CardID, res.IsCorrect, res.Difficulty, nullString(res.RawAnswer), orNow(res.AnsweredAt)).
		ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return 0, err
	}

	var id int64
	err = tx(ctx, r.db, func(tx *sql.Tx) error {
		if update != nil {
			if _, err := applyProgress(ctx, tx, res.UserID, update); err != nil {
				return err
			}
		}
		out, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		id, err = out.LastInsertId()
		return err
	})
	if err != nil {
		if !apperrors.IsNotFound(err) && !apperrors.IsConflict(err) {
			log.Error("failed to insert quiz result: %v", err)
		}
		return 0, err
	}
	return id, nil
}

func (r *resultRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]models.QuizResult, error) {
	log := logger.FromContext(ctx).WithPrefix("result_repo")
	log.Debug("listing quiz results: user_id=%d, limit=%d", userID, limit)

	q := sqlBuilder.Select("id", "user_id", "deck_id", "card_id", "is_correct", "difficulty", "raw_answer", "answered_at").
		From("quiz_results").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("answered_at DESC", "id DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	query, args, err := q.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list quiz results: %v", err)
		return nil, err
	}
	defer rows.Close()

	results := []models.QuizResult{}
	for rows.Next() {
		var res models.QuizResult
		var raw sql.NullString
		if err := rows.Scan(&res.ID, &res.UserID, &res.DeckID, &res.CardID, &res.IsCorrect, &res.Difficulty, &raw, &res.AnsweredAt); err != nil {
			log.Error("failed to scan quiz result row: %v", err)
			return nil, err
		}
		res.RawAnswer = stringPtr(raw)
		results = append(results, res)
	}
	return results, rows.Err()
}
