// Package interleave merges per-deck card selections into a single session
// that avoids showing two cards from the same deck back to back.
package interleave

import (
	"errors"
	"math/rand/v2"

	"github.com/vytor/deckflash/internal/models"
)

// ErrNoDecks is returned when Interleave is called without any deck.
var ErrNoDecks = errors.New("at least one deck is required")

// DeckCards is one deck's contribution to an interleaved session.
type DeckCards struct {
	DeckID int64
	Cards  []models.Card
}

// segment is a deck's window into the shared card arena.
type segment struct {
	deckID int64
	cursor int
	end    int
}

func (s *segment) remaining() bool { return s.cursor < s.end }

// Interleave shuffles every deck's cards and then repeatedly draws from a
// random deck other than the one used in the previous step. When only the
// previous deck still has cards, the constraint is relaxed for the tail.
// Every input card appears exactly once in the output. Input slices are not
// modified.
func Interleave(decks []DeckCards, rng *rand.Rand) ([]models.InterleavedEntry, error) {
	if len(decks) == 0 {
		return nil, ErrNoDecks
	}

	total := 0
	for _, d := range decks {
		total += len(d.Cards)
	}

	arena := make([]models.Card, 0, total)
	segments := make([]segment, 0, len(decks))
	for _, d := range decks {
		start := len(arena)
		arena = append(arena, d.Cards...)
		window := arena[start:]
		rng.Shuffle(len(window), func(i, j int) {
			window[i], window[j] = window[j], window[i]
		})
		segments = append(segments, segment{deckID: d.DeckID, cursor: start, end: len(arena)})
	}

	out := make([]models.InterleavedEntry, 0, total)
	eligible := make([]int, 0, len(segments))
	last := -1
	for len(out) < total {
		eligible = eligible[:0]
		for i := range segments {
			if segments[i].remaining() && (last < 0 || segments[i].deckID != segments[last].deckID) {
				eligible = append(eligible, i)
			}
		}
		if len(eligible) == 0 {
			// Forced tail: only the previous deck has cards left.
			for i := range segments {
				if segments[i].remaining() {
					eligible = append(eligible, i)
				}
			}
		}

		pick := eligible[rng.IntN(len(eligible))]
		seg := &segments[pick]
		c := arena[seg.cursor]
		seg.cursor++
		out = append(out, models.InterleavedEntry{
			CardID:       c.ID,
			SourceDeckID: seg.deckID,
			Position:     len(out),
			Card:         c,
		})
		last = pick
	}
	return out, nil
}
