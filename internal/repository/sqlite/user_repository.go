package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	apperrors "github.com/vytor/deckflash/internal/errors"
	"github.com/vytor/deckflash/internal/logger"
	"github.com/vytor/deckflash/internal/models"
	"github.com/vytor/deckflash/internal/repository"
)

const userSelect = `
SELECT id, display_name, quizzes_taken, cards_reviewed, correct_answers,
       current_streak, longest_streak, last_activity_date, created_at, version
FROM users
`

type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository implementation
func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func scanUser(row rowScanner) (models.User, error) {
	var u models.User
	var lastActivity sql.NullString
	err := row.Scan(&u.ID, &u.DisplayName, &u.QuizzesTaken, &u.CardsReviewed, &u.CorrectAnswers,
		&u.CurrentStreak, &u.LongestStreak, &lastActivity, &u.CreatedAt, &u.Version)
	if err != nil {
		return u, err
	}
	if lastActivity.Valid && lastActivity.String != "" {
		day, err := time.Parse(models.DateLayout, lastActivity.String)
		if err != nil {
			return u, fmt.Errorf("parse last activity date of user %d: %w", u.ID, err)
		}
		u.LastActivityDate = &day
	}
	return u, nil
}

func (r *userRepository) Get(ctx context.Context, id int64) (*models.User, error) {
	log := logger.FromContext(ctx).WithPrefix("user_repo")
	log.Debug("getting user: id=%d", id)

	u, err := scanUser(r.db.QueryRowContext(ctx, userSelect+`WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("user not found: id=%d", id)
		return nil, apperrors.NewNotFoundError("user", id)
	}
	if err != nil {
		log.Error("failed to get user: %v", err)
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) GetOrCreate(ctx context.Context, displayName string) (*models.User, error) {
	log := logger.FromContext(ctx).WithPrefix("user_repo")
	log.Debug("get or create user: display_name=%s", displayName)

	var u models.User
	err := tx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO users (display_name, created_at)
VALUES (?, ?)
ON CONFLICT(display_name) DO NOTHING
`, displayName, nowUTC()); err != nil {
			return err
		}
		var err error
		u, err = scanUser(tx.QueryRowContext(ctx, userSelect+`WHERE display_name = ?`, displayName))
		return err
	})
	if err != nil {
		log.Error("failed to get or create user: %v", err)
		return nil, err
	}
	log.Debug("user ready: id=%d", u.ID)
	return &u, nil
}

func (r *userRepository) UpdateProgress(ctx context.Context, id int64, update repository.ProgressUpdate) (*models.User, error) {
	log := logger.FromContext(ctx).WithPrefix("user_repo")
	log.Debug("updating user progress: id=%d", id)

	var u models.User
	err := tx(ctx, r.db, func(tx *sql.Tx) error {
		var err error
		u, err = applyProgress(ctx, tx, id, update)
		return err
	})
	if err != nil {
		if !apperrors.IsNotFound(err) && !apperrors.IsConflict(err) {
			log.Error("failed to update user progress: %v", err)
		}
		return nil, err
	}
	log.Debug("user progress updated: id=%d, version=%d, streak=%d", u.ID, u.Version, u.CurrentStreak)
	return &u, nil
}

// applyProgress runs the read-modify-write of a user's progress inside tx.
func applyProgress(ctx context.Context, tx *sql.Tx, id int64, update repository.ProgressUpdate) (models.User, error) {
	current, err := scanUser(tx.QueryRowContext(ctx, userSelect+`WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, apperrors.NewNotFoundError("user", id)
	}
	if err != nil {
		return models.User{}, err
	}

	next := update(current)
	var lastActivity sql.NullString
	if next.LastActivityDate != nil {
		lastActivity = sql.NullString{String: next.LastActivityDate.UTC().Format(models.DateLayout), Valid: true}
	}

	query, args, err := sqlBuilder.Update("users").SetMap(map[string]any{
		"quizzes_taken":      next.QuizzesTaken,
		"cards_reviewed":     next.CardsReviewed,
		"correct_answers":    next.CorrectAnswers,
		"current_streak":     next.CurrentStreak,
		"longest_streak":     next.LongestStreak,
		"last_activity_date": lastActivity,
		"version":            squirrel.Expr("version + 1"),
	}).Where(squirrel.Eq{"id": id, "version": current.Version}).ToSql()
	if err != nil {
		return models.User{}, err
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return models.User{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return models.User{}, err
	}
	if n == 0 {
		return models.User{}, apperrors.NewConflictError("user", id)
	}

	next.ID = current.ID
	next.DisplayName = current.DisplayName
	next.CreatedAt = current.CreatedAt
	next.Version = current.Version + 1
	return next, nil
}
