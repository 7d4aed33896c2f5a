package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Masterminds/squirrel"
	apperrors "github.com/vytor/deckflash/internal/errors"
	"github.com/vytor/deckflash/internal/logger"
	"github.com/vytor/deckflash/internal/models"
	"github.com/vytor/deckflash/internal/repository"
)

var deckColumns = []string{
	"id", "name", "category", "subcategory", "difficulty", "share_token",
	"(SELECT COUNT(*) FROM cards c WHERE c.deck_id = decks.id) AS card_count",
	"created_at", "updated_at",
}

type deckRepository struct {
	db *sql.DB
}

// NewDeckRepository creates a new DeckRepository implementation
func NewDeckRepository(db *sql.DB) repository.DeckRepository {
	return &deckRepository{db: db}
}

func scanDeck(row rowScanner) (models.Deck, error) {
	var d models.Deck
	var token sql.NullString
	err := row.Scan(&d.ID, &d.Name, &d.Category, &d.Subcategory, &d.Difficulty, &token, &d.CardCount, &d.CreatedAt, &d.UpdatedAt)
	d.ShareToken = stringPtr(token)
	return d, err
}

func (r *deckRepository) getWhere(ctx context.Context, where squirrel.Eq) (*models.Deck, error) {
	query, args, err := sqlBuilder.Select(deckColumns...).From("decks").Where(where).ToSql()
	if err != nil {
		return nil, err
	}
	d, err := scanDeck(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *deckRepository) Get(ctx context.Context, id int64) (*models.Deck, error) {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")
	log.Debug("getting deck: id=%d", id)

	d, err := r.getWhere(ctx, squirrel.Eq{"id": id})
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("deck not found: id=%d", id)
		return nil, apperrors.NewNotFoundError("deck", id)
	}
	if err != nil {
		log.Error("failed to get deck: %v", err)
		return nil, err
	}
	return d, nil
}

func (r *deckRepository) GetByShareToken(ctx context.Context, token string) (*models.Deck, error) {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")
	log.Debug("getting deck by share token")

	if token == "" {
		return nil, apperrors.NewNotFoundError("shared deck", "(empty token)")
	}
	d, err := r.getWhere(ctx, squirrel.Eq{"share_token": token})
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("no deck for share token")
		return nil, apperrors.NewNotFoundError("shared deck", token)
	}
	if err != nil {
		log.Error("failed to get deck by share token: %v", err)
		return nil, err
	}
	return d, nil
}

func (r *deckRepository) ListByCategory(ctx context.Context, category string) ([]models.Deck, error) {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")
	log.Debug("listing decks: category=%q", category)

	q := sqlBuilder.Select(deckColumns...).From("decks")
	if category != "" {
		q = q.Where(squirrel.Eq{"category": category})
	}
	query, args, err := q.OrderBy("name ASC", "id ASC").ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list decks: %v", err)
		return nil, err
	}
	defer rows.Close()

	decks := []models.Deck{}
	for rows.Next() {
		d, err := scanDeck(rows)
		if err != nil {
			log.Error("failed to scan deck row: %v", err)
			return nil, err
		}
		decks = append(decks, d)
	}
	log.Debug("found %d decks", len(decks))
	return decks, rows.Err()
}

func (r *deckRepository) Insert(ctx context.Context, d models.Deck) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")
	log.Debug("inserting deck: name=%s, category=%s", d.Name, d.Category)

	createdAt := orNow(d.CreatedAt)
	query, args, err := sqlBuilder.Insert("decks").
		Columns("name", "category", "subcategory", "difficulty", "share_token", "created_at", "updated_at").
		Values(d.Name, d.Category, d.Subcategory, d.Difficulty, nullString(d.ShareToken), createdAt, createdAt).
		ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return 0, err
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to insert deck: %v", err)
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		log.Error("failed to get deck id: %v", err)
		return 0, err
	}
	log.Debug("deck inserted: id=%d", id)
	return id, nil
}

func (r *deckRepository) SetShareToken(ctx context.Context, id int64, token *string) error {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")
	log.Debug("setting share token: deck_id=%d, revoke=%t", id, token == nil)

	query, args, err := sqlBuilder.Update("decks").
		Set("share_token", nullString(token)).
		Set("updated_at", nowUTC()).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return err
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to set share token: %v", err)
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperrors.NewNotFoundError("deck", id)
	}
	return nil
}

func (r *deckRepository) Delete(ctx context.Context, id int64) error {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")
	log.Debug("deleting deck and related data: id=%d", id)

	return tx(ctx, r.db, func(tx *sql.Tx) error {
		// Results -> cards -> deck, so the delete also holds without foreign key enforcement.
		if _, err := tx.ExecContext(ctx, `DELETE FROM quiz_results WHERE deck_id = ?`, id); err != nil {
			log.Error("failed to delete results for deck %d: %v", id, err)
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM cards WHERE deck_id = ?`, id); err != nil {
			log.Error("failed to delete cards for deck %d: %v", id, err)
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM decks WHERE id = ?`, id)
		if err != nil {
			log.Error("failed to delete deck %d: %v", id, err)
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return apperrors.NewNotFoundError("deck", id)
		}
		log.Debug("deck %d deleted with cascading data", id)
		return nil
	})
}
