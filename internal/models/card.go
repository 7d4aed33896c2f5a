package models

import (
	"strings"
	"time"
)

// DefaultEaseFactor is the ease assigned to a card that has never been reviewed.
const DefaultEaseFactor = 2.5

// QuestionType tags the shape of a card's prompt.
type QuestionType string

const (
	QuestionSimple         QuestionType = "simple"
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionScenario       QuestionType = "scenario"
	QuestionMultiPart      QuestionType = "multi_part"
)

// Valid reports whether t is one of the known question types.
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionSimple, QuestionMultipleChoice, QuestionScenario, QuestionMultiPart:
		return true
	}
	return false
}

// QuestionPayload carries the type-specific parts of a card.
type QuestionPayload struct {
	Options        []string `json:"options,omitempty"`
	CorrectAnswers []string `json:"correct_answers,omitempty"`
	Scenario       string   `json:"scenario,omitempty"`
}

// SchedulingState is the per-card memory state. Only the scheduling engine produces new values.
type SchedulingState struct {
	NextReviewAt time.Time `json:"next_review_at"`
	IntervalDays int       `json:"interval_days"`
	Repetitions  int       `json:"repetitions"`
	EaseFactor   float64   `json:"ease_factor"`
}

// NewSchedulingState returns the state of a card that was just created at now.
func NewSchedulingState(now time.Time) SchedulingState {
	return SchedulingState{
		NextReviewAt: now,
		IntervalDays: 0,
		Repetitions:  0,
		EaseFactor:   DefaultEaseFactor,
	}
}

// IsDue reports whether the card should be reviewed at or before now.
func (s SchedulingState) IsDue(now time.Time) bool {
	return !s.NextReviewAt.After(now)
}

type Card struct {
	ID           int64           `json:"id"`
	DeckID       int64           `json:"deck_id"`
	Question     string          `json:"question"`
	Answer       string          `json:"answer"`
	QuestionType QuestionType    `json:"question_type"`
	Payload      QuestionPayload `json:"payload"`
	Scheduling   SchedulingState `json:"scheduling"`
	Version      int64           `json:"version"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Validate checks the content invariants of a card and returns the offending
// field with a reason, or empty strings when the card is well formed.
func (c Card) Validate() (field, reason string) {
	if strings.TrimSpace(c.Question) == "" {
		return "question", "cannot be empty"
	}
	if strings.TrimSpace(c.Answer) == "" {
		return "answer", "cannot be empty"
	}
	if !c.QuestionType.Valid() {
		return "question_type", "unknown question type"
	}

	switch c.QuestionType {
	case QuestionMultipleChoice:
		if len(c.Payload.Options) < 2 {
			return "options", "multiple choice needs at least two options"
		}
		if len(c.Payload.CorrectAnswers) == 0 {
			return "correct_answers", "multiple choice needs at least one correct answer"
		}
		options := make(map[string]struct{}, len(c.Payload.Options))
		for _, o := range c.Payload.Options {
			options[o] = struct{}{}
		}
		for _, a := range c.Payload.CorrectAnswers {
			if _, ok := options[a]; !ok {
				return "correct_answers", "correct answer " + a + " is not an option"
			}
		}
	case QuestionScenario:
		if strings.TrimSpace(c.Payload.Scenario) == "" {
			return "scenario", "scenario questions need scenario text"
		}
	case QuestionMultiPart:
		if len(c.Payload.CorrectAnswers) == 0 {
			return "correct_answers", "multi part questions need at least one expected answer"
		}
	}
	return "", ""
}

// SimilarCard is a card returned by a fuzzy question match, with its score in [0,1].
type SimilarCard struct {
	CardID     int64   `json:"card_id"`
	DeckID     int64   `json:"deck_id"`
	Question   string  `json:"question"`
	Similarity float64 `json:"similarity"`
}
