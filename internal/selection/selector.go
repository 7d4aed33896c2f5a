// Package selection orders a pool of candidate cards for one deck under a difficulty policy.
package selection

import (
	"cmp"
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/vytor/deckflash/internal/models"
)

// Select returns at most count cards from candidates ordered by the policy d.
// The candidates slice is never modified. Only Medium consumes randomness from
// rng, which must then be non-nil.
func Select(candidates []models.Card, d Difficulty, count int, now time.Time, rng *rand.Rand) ([]models.Card, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("unknown difficulty %d", int(d))
	}
	if count <= 0 || len(candidates) == 0 {
		return []models.Card{}, nil
	}

	pool := slices.Clone(candidates)
	switch d {
	case Easy:
		slices.SortStableFunc(pool, func(a, b models.Card) int {
			return cmp.Compare(b.Scheduling.EaseFactor, a.Scheduling.EaseFactor)
		})
	case Medium:
		pool = dueFirst(pool, now, rng)
	case Hard:
		slices.SortStableFunc(pool, func(a, b models.Card) int {
			return cmp.Compare(a.Scheduling.EaseFactor, b.Scheduling.EaseFactor)
		})
	case Expert:
		slices.SortStableFunc(pool, func(a, b models.Card) int {
			if c := cmp.Compare(a.Scheduling.EaseFactor, b.Scheduling.EaseFactor); c != 0 {
				return c
			}
			return a.Scheduling.IntervalDays - b.Scheduling.IntervalDays
		})
	}

	if count < len(pool) {
		pool = pool[:count]
	}
	return pool, nil
}

// dueFirst partitions pool into due and not-yet-due cards, shuffling each bucket.
func dueFirst(pool []models.Card, now time.Time, rng *rand.Rand) []models.Card {
	due := make([]models.Card, 0, len(pool))
	later := make([]models.Card, 0, len(pool))
	for _, c := range pool {
		if c.Scheduling.IsDue(now) {
			due = append(due, c)
		} else {
			later = append(later, c)
		}
	}
	Shuffle(due, rng)
	Shuffle(later, rng)
	return append(due, later...)
}

// Shuffle permutes items in place using rng.
func Shuffle[T any](items []T, rng *rand.Rand) {
	rng.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
}
