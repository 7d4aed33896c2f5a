package api

import (
	"net/http"
)

type createUserRequest struct {
	DisplayName string `json:"display_name" validate:"required,max=100"`
}

type completionRequest struct {
	CardsReviewed  int `json:"cards_reviewed" validate:"gte=0"`
	CorrectAnswers int `json:"correct_answers" validate:"gte=0"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	user, err := s.UserService.GetOrCreateUser(r.Context(), req.DisplayName)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, user)
}

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	p, err := s.UserService.GetProgress(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, p)
}

func (s *Server) handleCompleteQuiz(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req completionRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	p, err := s.UserService.CompleteQuiz(r.Context(), id, req.CardsReviewed, req.CorrectAnswers)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, p)
}

func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	limit, err := intQuery(r, "limit")
	if err != nil {
		handleError(w, r, err)
		return
	}
	results, err := s.UserService.ListResults(r.Context(), id, limit)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, results)
}
