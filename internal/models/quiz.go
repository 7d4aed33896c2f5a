package models

import "time"

// QuizSession is a single-deck answering plan. It is not persisted.
type QuizSession struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	Difficulty string    `json:"difficulty"`
	DeckID     *int64    `json:"deck_id,omitempty"`
	CardIDs    []int64   `json:"card_ids"`
	Cards      []Card    `json:"cards"`
}

type InterleavedEntry struct {
	CardID       int64 `json:"card_id"`
	SourceDeckID int64 `json:"source_deck_id"`
	Position     int   `json:"position"`
	Card         Card  `json:"card"`
}

type DeckSummary struct {
	DeckID   int64  `json:"deck_id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// InterleavedQuizSession mixes cards from several decks into one plan.
type InterleavedQuizSession struct {
	ID         string             `json:"id"`
	CreatedAt  time.Time          `json:"created_at"`
	Difficulty string             `json:"difficulty"`
	Entries    []InterleavedEntry `json:"entries"`
	Decks      []DeckSummary      `json:"decks"`
}

// QuizResult is an append-only log row, one per answered card.
type QuizResult struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	DeckID     int64     `json:"deck_id"`
	CardID     int64     `json:"card_id"`
	IsCorrect  bool      `json:"is_correct"`
	Difficulty string    `json:"difficulty"`
	RawAnswer  *string   `json:"raw_answer,omitempty"`
	AnsweredAt time.Time `json:"answered_at"`
}

// DuplicateCheck is the outcome of a pre-create similarity check.
type DuplicateCheck struct {
	HasSimilar   bool          `json:"has_similar"`
	Threshold    float64       `json:"threshold"`
	SimilarCards []SimilarCard `json:"similar_cards"`
}
