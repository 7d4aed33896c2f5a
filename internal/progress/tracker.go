// Package progress maintains a user's lifetime counters and daily activity streak.
package progress

import (
	"time"

	"github.com/vytor/deckflash/internal/models"
)

// RecordActivity registers activity at now and returns the updated user.
// Several activities on the same UTC day count once.
func RecordActivity(u models.User, now time.Time) models.User {
	today := Day(now)

	switch {
	case u.LastActivityDate == nil:
		u.CurrentStreak = 1
		u.LongestStreak = max(u.LongestStreak, 1)
	default:
		last := Day(*u.LastActivityDate)
		switch gap := daysBetween(last, today); {
		case gap <= 0:
			// Same day, or a clock that went backwards: nothing changes.
			return u
		case gap == 1:
			u.CurrentStreak++
		default:
			u.CurrentStreak = 1
		}
		if u.CurrentStreak > u.LongestStreak {
			u.LongestStreak = u.CurrentStreak
		}
	}

	u.LastActivityDate = &today
	return u
}

// RecordQuizCompletion adds one finished quiz to the counters and records the activity.
// Callers validate that 0 <= correct <= reviewed.
func RecordQuizCompletion(u models.User, reviewed, correct int, now time.Time) models.User {
	u.QuizzesTaken++
	u.CardsReviewed += reviewed
	u.CorrectAnswers += correct
	return RecordActivity(u, now)
}

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
