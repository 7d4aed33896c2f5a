package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vytor/deckflash/internal/models"
	"github.com/vytor/deckflash/internal/services"
)

type createDeckRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Category    string `json:"category" validate:"max=100"`
	Subcategory string `json:"subcategory" validate:"max=100"`
	Difficulty  string `json:"difficulty"`
}

type createCardRequest struct {
	Question       string   `json:"question" validate:"required"`
	Answer         string   `json:"answer" validate:"required"`
	QuestionType   string   `json:"question_type" validate:"omitempty,oneof=simple multiple_choice scenario multi_part"`
	Options        []string `json:"options"`
	CorrectAnswers []string `json:"correct_answers"`
	Scenario       string   `json:"scenario"`
}

type shareResponse struct {
	Token string `json:"token"`
}

func (s *Server) handleCreateDeck(w http.ResponseWriter, r *http.Request) {
	var req createDeckRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	deck, err := s.DeckService.CreateDeck(r.Context(), services.CreateDeckInput{
		Name:        req.Name,
		Category:    req.Category,
		Subcategory: req.Subcategory,
		Difficulty:  req.Difficulty,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, deck)
}

func (s *Server) handleListDecks(w http.ResponseWriter, r *http.Request) {
	decks, err := s.DeckService.ListDecks(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, decks)
}

func (s *Server) handleGetDeck(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	deck, err := s.DeckService.GetDeck(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, deck)
}

func (s *Server) handleDeleteDeck(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := s.DeckService.DeleteDeck(r.Context(), id); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	deckID, err := idParam(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req createCardRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	card, err := s.DeckService.CreateCard(r.Context(), deckID, services.CreateCardInput{
		Question:     req.Question,
		Answer:       req.Answer,
		QuestionType: models.QuestionType(req.QuestionType),
		Payload: models.QuestionPayload{
			Options:        req.Options,
			CorrectAnswers: req.CorrectAnswers,
			Scenario:       req.Scenario,
		},
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, card)
}

func (s *Server) handleShareDeck(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	token, err := s.DeckService.ShareDeck(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, shareResponse{Token: token})
}

func (s *Server) handleRevokeShare(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := s.DeckService.RevokeShare(r.Context(), id); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetSharedDeck(w http.ResponseWriter, r *http.Request) {
	shared, err := s.DeckService.GetSharedDeck(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, shared)
}
