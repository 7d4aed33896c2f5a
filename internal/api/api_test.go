package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/deckflash/internal/api"
	"github.com/vytor/deckflash/internal/models"
	"github.com/vytor/deckflash/internal/repository/sqlite"
	"github.com/vytor/deckflash/internal/services"
	"github.com/vytor/deckflash/internal/testutil"
)

type checkerFunc func(ctx context.Context) error

func (f checkerFunc) Check(ctx context.Context) error { return f(ctx) }

var apiNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, ready checkerFunc) http.Handler {
	t.Helper()
	db := testutil.NewTestDB(t)
	t.Cleanup(func() { testutil.MustClose(t, db) })

	cards := sqlite.NewCardRepository(db)
	decks := sqlite.NewDeckRepository(db)
	users := sqlite.NewUserRepository(db)
	results := sqlite.NewResultRepository(db)
	opts := services.Options{
		DefaultQuizSize: 5,
		MaxQuizSize:     50,
		Now:             testutil.FixedClock(apiNow),
		NewRand:         services.SeededRand(7),
	}

	if ready == nil {
		ready = func(context.Context) error { return nil }
	}
	srv := api.NewServer(
		services.NewQuizService(cards, decks, users, results, opts),
		services.NewDeckService(decks, cards, opts),
		services.NewUserService(users, results, opts),
		ready,
	)
	return srv.Routes()
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func createDeck(t *testing.T, h http.Handler, name string, questions ...string) models.Deck {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/decks", map[string]any{"name": name, "category": "programming"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	deck := decode[models.Deck](t, rec)
	for _, q := range questions {
		rec := do(t, h, http.MethodPost, fmt.Sprintf("/api/decks/%d/cards", deck.ID), map[string]any{"question": q, "answer": "a"})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
	return deck
}

func TestHealthAndReady(t *testing.T) {
	h := newTestServer(t, nil)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/healthz", nil).Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/readyz", nil).Code)

	down := newTestServer(t, func(context.Context) error { return errors.New("locked") })
	assert.Equal(t, http.StatusServiceUnavailable, do(t, down, http.MethodGet, "/readyz", nil).Code)
}

func TestDeckLifecycle(t *testing.T) {
	h := newTestServer(t, nil)
	deck := createDeck(t, h, "Go", "What is a goroutine?", "What is a channel?")

	rec := do(t, h, http.MethodGet, fmt.Sprintf("/api/decks/%d", deck.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decode[models.Deck](t, rec).CardCount)

	rec = do(t, h, http.MethodGet, "/api/decks?category=programming", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Deck](t, rec), 1)

	rec = do(t, h, http.MethodPost, fmt.Sprintf("/api/decks/%d/share", deck.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	token := decode[map[string]string](t, rec)["token"]
	require.NotEmpty(t, token)

	rec = do(t, h, http.MethodGet, "/api/shared/"+token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	shared := decode[models.SharedDeck](t, rec)
	assert.Len(t, shared.Cards, 2)

	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, fmt.Sprintf("/api/decks/%d/share", deck.ID), nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/shared/"+token, nil).Code)

	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, fmt.Sprintf("/api/decks/%d", deck.ID), nil).Code)
	rec = do(t, h, http.MethodGet, fmt.Sprintf("/api/decks/%d", deck.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decode[errorResponse](t, rec).Error.Code)
}

func TestCreateCard_Validation(t *testing.T) {
	h := newTestServer(t, nil)
	deck := createDeck(t, h, "Go")
	path := fmt.Sprintf("/api/decks/%d/cards", deck.ID)

	rec := do(t, h, http.MethodPost, path, map[string]any{"question": "q"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errBody := decode[errorResponse](t, rec)
	assert.Equal(t, "INVALID_REQUEST", errBody.Error.Code)
	assert.Contains(t, errBody.Error.Message, "answer")

	rec = do(t, h, http.MethodPost, path, map[string]any{
		"question": "Pick one", "answer": "go", "question_type": "multiple_choice",
		"options": []string{"go"}, "correct_answers": []string{"go"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, path, `{"question": `)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "BAD_REQUEST", decode[errorResponse](t, rec).Error.Code)

	rec = do(t, h, http.MethodPost, "/api/decks/999/cards", map[string]any{"question": "q", "answer": "a"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestQuizFlow(t *testing.T) {
	h := newTestServer(t, nil)
	a := createDeck(t, h, "A", "a1", "a2", "a3")
	b := createDeck(t, h, "B", "b1", "b2")

	rec := do(t, h, http.MethodPost, "/api/quizzes", map[string]any{"difficulty": "medium", "count": 2, "deck_id": a.ID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	quiz := decode[models.QuizSession](t, rec)
	assert.Len(t, quiz.CardIDs, 2)

	rec = do(t, h, http.MethodPost, "/api/quizzes/interleaved", map[string]any{
		"deck_ids": []int64{a.ID, b.ID}, "cards_per_deck": 3, "difficulty": "easy",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	session := decode[models.InterleavedQuizSession](t, rec)
	require.Len(t, session.Entries, 5)
	for i := 1; i < len(session.Entries)-1; i++ {
		assert.NotEqual(t, session.Entries[i-1].SourceDeckID, session.Entries[i].SourceDeckID)
	}

	rec = do(t, h, http.MethodPost, "/api/quizzes/interleaved", map[string]any{"deck_ids": []int64{}, "cards_per_deck": 3, "difficulty": "easy"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_REQUEST", decode[errorResponse](t, rec).Error.Code)

	cardID := quiz.CardIDs[0]
	rec = do(t, h, http.MethodPost, fmt.Sprintf("/api/cards/%d/rating", cardID), map[string]any{"rating": "good"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rated := decode[models.Card](t, rec)
	assert.Equal(t, 1, rated.Scheduling.IntervalDays)
	assert.Equal(t, 1, rated.Scheduling.Repetitions)
	assert.Equal(t, int64(2), rated.Version)

	rec = do(t, h, http.MethodPost, fmt.Sprintf("/api/cards/%d/rating", cardID), map[string]any{"rating": "good"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 6, decode[models.Card](t, rec).Scheduling.IntervalDays)

	rec = do(t, h, http.MethodPost, fmt.Sprintf("/api/cards/%d/rating", cardID), map[string]any{"rating": "meh"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/cards/abc/rating", map[string]any{"rating": "good"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResultsAndProgress(t *testing.T) {
	h := newTestServer(t, nil)
	deck := createDeck(t, h, "A", "a1")
	other := createDeck(t, h, "B", "b1")

	rec := do(t, h, http.MethodPost, "/api/users", map[string]any{"display_name": "ana"})
	require.Equal(t, http.StatusOK, rec.Code)
	user := decode[models.User](t, rec)

	rec = do(t, h, http.MethodPost, "/api/quizzes", map[string]any{"difficulty": "easy", "deck_id": deck.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	cardID := decode[models.QuizSession](t, rec).CardIDs[0]

	rec = do(t, h, http.MethodPost, "/api/results", map[string]any{
		"user_id": user.ID, "deck_id": deck.ID, "card_id": cardID, "is_correct": true, "difficulty": "easy",
	})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/results", map[string]any{
		"user_id": user.ID, "deck_id": other.ID, "card_id": cardID, "difficulty": "easy",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, fmt.Sprintf("/api/users/%d/progress", user.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	p := decode[models.UserProgress](t, rec)
	assert.Equal(t, 1, p.CurrentStreak)
	assert.Equal(t, 0.0, p.Accuracy)

	rec = do(t, h, http.MethodPost, fmt.Sprintf("/api/users/%d/completions", user.ID), map[string]any{"cards_reviewed": 4, "correct_answers": 3})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	p = decode[models.UserProgress](t, rec)
	assert.Equal(t, 1, p.QuizzesTaken)
	assert.Equal(t, 75.0, p.Accuracy)
	assert.Equal(t, 1, p.CurrentStreak)

	rec = do(t, h, http.MethodPost, fmt.Sprintf("/api/users/%d/completions", user.ID), map[string]any{"cards_reviewed": 1, "correct_answers": 2})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/users/999/progress", nil).Code)

	rec = do(t, h, http.MethodGet, fmt.Sprintf("/api/users/%d/results", user.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	results := decode[[]models.QuizResult](t, rec)
	require.Len(t, results, 1, "the rejected answer must not be stored")
	assert.Equal(t, cardID, results[0].CardID)
	assert.True(t, results[0].IsCorrect)
	assert.Equal(t, "easy", results[0].Difficulty)
}

func TestListResults(t *testing.T) {
	h := newTestServer(t, nil)
	deck := createDeck(t, h, "A", "a1", "a2", "a3")

	rec := do(t, h, http.MethodPost, "/api/users", map[string]any{"display_name": "bo"})
	require.Equal(t, http.StatusOK, rec.Code)
	user := decode[models.User](t, rec)

	rec = do(t, h, http.MethodPost, "/api/quizzes", map[string]any{"difficulty": "easy", "deck_id": deck.ID, "count": 3})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	for _, cardID := range decode[models.QuizSession](t, rec).CardIDs {
		rec := do(t, h, http.MethodPost, "/api/results", map[string]any{
			"user_id": user.ID, "deck_id": deck.ID, "card_id": cardID, "difficulty": "easy",
		})
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, fmt.Sprintf("/api/users/%d/results?limit=2", user.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	results := decode[[]models.QuizResult](t, rec)
	require.Len(t, results, 2)
	assert.Greater(t, results[0].ID, results[1].ID, "newest first")

	rec = do(t, h, http.MethodGet, fmt.Sprintf("/api/users/%d/results", user.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.QuizResult](t, rec), 3)

	rec = do(t, h, http.MethodGet, fmt.Sprintf("/api/users/%d/progress", user.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(4), decode[models.UserProgress](t, rec).Version)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, fmt.Sprintf("/api/users/%d/results?limit=ten", user.ID), nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, fmt.Sprintf("/api/users/%d/results?limit=-1", user.ID), nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/users/999/results", nil).Code)
}

func TestCheckDuplicates(t *testing.T) {
	h := newTestServer(t, nil)
	deck := createDeck(t, h, "Go", "What is a goroutine?", "Capital of France")
	path := fmt.Sprintf("/api/decks/%d/duplicates", deck.ID)

	rec := do(t, h, http.MethodPost, path, map[string]any{"question": "what is a goroutine"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	check := decode[models.DuplicateCheck](t, rec)
	assert.True(t, check.HasSimilar)
	require.Len(t, check.SimilarCards, 1)
	assert.Equal(t, "What is a goroutine?", check.SimilarCards[0].Question)

	rec = do(t, h, http.MethodPost, path, map[string]any{"question": "q", "threshold": 1.5})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.True(t, strings.Contains(decode[errorResponse](t, rec).Error.Message, "threshold"))
}

func TestUnknownRoute(t *testing.T) {
	h := newTestServer(t, nil)
	rec := do(t, h, http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
