package api

import (
	"context"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/vytor/deckflash/internal/services"
)

// Checker reports whether a dependency can serve requests.
type Checker interface {
	Check(ctx context.Context) error
}

type Server struct {
	QuizService services.QuizService
	DeckService services.DeckService
	UserService services.UserService
	DB          Checker

	validate *validator.Validate
}

func NewServer(quizzes services.QuizService, decks services.DeckService, users services.UserService, db Checker) *Server {
	return &Server{
		QuizService: quizzes,
		DeckService: decks,
		UserService: users,
		DB:          db,
		validate:    newValidator(),
	}
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
