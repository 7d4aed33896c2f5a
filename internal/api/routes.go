package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	// Recovery sits inside logging so a recovered panic is logged with its request_id.
	r.Use(loggingMiddleware)
	r.Use(recoveryMiddleware)
	r.Use(securityHeadersMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Post("/quizzes", s.handleGenerateQuiz)
		r.Post("/quizzes/interleaved", s.handleCreateInterleavedSession)
		r.Post("/cards/{id}/rating", s.handleSubmitRating)
		r.Post("/results", s.handleRecordResult)

		r.Post("/decks", s.handleCreateDeck)
		r.Get("/decks", s.handleListDecks)
		r.Get("/decks/{id}", s.handleGetDeck)
		r.Delete("/decks/{id}", s.handleDeleteDeck)
		r.Post("/decks/{id}/cards", s.handleCreateCard)
		r.Post("/decks/{id}/duplicates", s.handleCheckDuplicates)
		r.Post("/decks/{id}/share", s.handleShareDeck)
		r.Delete("/decks/{id}/share", s.handleRevokeShare)
		r.Get("/shared/{token}", s.handleGetSharedDeck)

		r.Post("/users", s.handleCreateUser)
		r.Get("/users/{id}/progress", s.handleGetProgress)
		r.Post("/users/{id}/completions", s.handleCompleteQuiz)
		r.Get("/users/{id}/results", s.handleListResults)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		handleError(w, r, notFoundRoute(r))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		handleError(w, r, methodNotAllowed(r))
	})
	return r
}
