package api

import (
	"net/http"

	"github.com/vytor/deckflash/internal/logger"
	"github.com/vytor/deckflash/internal/services"
)

type generateQuizRequest struct {
	Difficulty string `json:"difficulty" validate:"required"`
	Count      int    `json:"count" validate:"gte=0"`
	DeckID     *int64 `json:"deck_id" validate:"omitempty,gt=0"`
}

type interleavedSessionRequest struct {
	DeckIDs      []int64 `json:"deck_ids"`
	CardsPerDeck int     `json:"cards_per_deck" validate:"gte=1"`
	Difficulty   string  `json:"difficulty" validate:"required"`
}

type ratingRequest struct {
	Rating string `json:"rating" validate:"required"`
}

type recordResultRequest struct {
	UserID     int64   `json:"user_id" validate:"required,gt=0"`
	DeckID     int64   `json:"deck_id" validate:"required,gt=0"`
	CardID     int64   `json:"card_id" validate:"required,gt=0"`
	IsCorrect  bool    `json:"is_correct"`
	Difficulty string  `json:"difficulty" validate:"required"`
	RawAnswer  *string `json:"raw_answer" validate:"omitempty,max=4000"`
}

type duplicatesRequest struct {
	Question  string   `json:"question" validate:"required"`
	Threshold *float64 `json:"threshold"`
}

func (s *Server) handleGenerateQuiz(w http.ResponseWriter, r *http.Request) {
	var req generateQuizRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	session, err := s.QuizService.GenerateQuiz(r.Context(), req.Difficulty, req.Count, req.DeckID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, session)
}

func (s *Server) handleCreateInterleavedSession(w http.ResponseWriter, r *http.Request) {
	var req interleavedSessionRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	session, err := s.QuizService.CreateInterleavedSession(r.Context(), req.DeckIDs, req.CardsPerDeck, req.Difficulty)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, session)
}

func (s *Server) handleSubmitRating(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req ratingRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	log := logger.FromContext(r.Context()).WithFields(map[string]any{
		"card_id": id,
		"rating":  req.Rating,
	})
	card, err := s.QuizService.SubmitRating(r.Context(), id, req.Rating)
	if err != nil {
		handleError(w, r, err)
		return
	}
	log.Info("card rated, next review in %d days", card.Scheduling.IntervalDays)
	writeJSON(w, r, http.StatusOK, card)
}

func (s *Server) handleRecordResult(w http.ResponseWriter, r *http.Request) {
	var req recordResultRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	err := s.QuizService.RecordResult(r.Context(), services.RecordResultInput{
		UserID:     req.UserID,
		DeckID:     req.DeckID,
		CardID:     req.CardID,
		IsCorrect:  req.IsCorrect,
		Difficulty: req.Difficulty,
		RawAnswer:  req.RawAnswer,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCheckDuplicates(w http.ResponseWriter, r *http.Request) {
	deckID, err := idParam(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req duplicatesRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	check, err := s.QuizService.CheckDuplicates(r.Context(), deckID, req.Question, req.Threshold)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, check)
}
