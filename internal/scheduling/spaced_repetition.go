// Package scheduling implements the SM-2 family review scheduler.
//
// NextState is pure: it takes the current state, a rating and the moment of
// the review and returns a new state without touching its input.
package scheduling

import (
	"math"
	"time"

	"github.com/vytor/deckflash/internal/models"
)

// Policy holds the tunable constants of the scheduler.
type Policy struct {
	// Quality maps each rating onto the SM-2 0..5 scale.
	Quality [4]float64
	// PassQuality is the lowest quality counted as a successful recall.
	PassQuality float64
	// MinEase is the hard floor for the ease factor.
	MinEase float64
	// LapsePenalty is subtracted from the ease factor on a failed recall.
	LapsePenalty float64
	FirstInterval  int
	SecondInterval int
	// MaxInterval caps the interval in days; zero means no cap.
	MaxInterval int
}

// DefaultPolicy returns the classic SM-2 constants.
func DefaultPolicy() Policy {
	return Policy{
		Quality:        [4]float64{Again: 2, Hard: 3, Good: 4, Easy: 5},
		PassQuality:    3,
		MinEase:        1.3,
		LapsePenalty:   0.2,
		FirstInterval:  1,
		SecondInterval: 6,
		MaxInterval:    36500,
	}
}

var defaultPolicy = DefaultPolicy()

// NextState applies DefaultPolicy.
func NextState(current models.SchedulingState, rating Rating, now time.Time) models.SchedulingState {
	return defaultPolicy.NextState(current, rating, now)
}

// NextState computes the state after a review rated r at now.
// Ratings outside the known range are treated as Again.
func (p Policy) NextState(current models.SchedulingState, r Rating, now time.Time) models.SchedulingState {
	if !r.Valid() {
		r = Again
	}
	q := p.Quality[r]
	ef := current.EaseFactor
	if ef <= 0 {
		ef = models.DefaultEaseFactor
	}

	next := models.SchedulingState{}
	if q < p.PassQuality {
		next.Repetitions = 0
		next.IntervalDays = p.FirstInterval
		next.EaseFactor = math.Max(p.MinEase, ef-p.LapsePenalty)
		next.NextReviewAt = now.AddDate(0, 0, next.IntervalDays)
		return next
	}

	ef = ef + 0.1 - (5-q)*(0.08+(5-q)*0.02)
	if ef < p.MinEase {
		ef = p.MinEase
	}

	next.Repetitions = current.Repetitions + 1
	switch next.Repetitions {
	case 1:
		next.IntervalDays = p.FirstInterval
	case 2:
		next.IntervalDays = p.SecondInterval
	default:
		grown := math.Round(float64(current.IntervalDays) * ef)
		if p.MaxInterval > 0 && grown > float64(p.MaxInterval) {
			grown = float64(p.MaxInterval)
		}
		next.IntervalDays = int(grown)
	}
	if next.IntervalDays < 1 {
		next.IntervalDays = 1
	}
	if p.MaxInterval > 0 && next.IntervalDays > p.MaxInterval {
		next.IntervalDays = p.MaxInterval
	}
	next.EaseFactor = ef
	next.NextReviewAt = now.AddDate(0, 0, next.IntervalDays)
	return next
}
