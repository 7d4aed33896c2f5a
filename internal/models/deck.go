package models

import "time"

type Deck struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Subcategory string    `json:"subcategory"`
	Difficulty  string    `json:"difficulty"`
	ShareToken  *string   `json:"share_token,omitempty"`
	CardCount   int       `json:"card_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SharedDeck is the read-only view handed out through a share token.
type SharedDeck struct {
	Deck  Deck   `json:"deck"`
	Cards []Card `json:"cards"`
}
