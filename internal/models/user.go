package models

import "time"

// DateLayout is the day-resolution format used for activity dates.
const DateLayout = "2006-01-02"

type User struct {
	ID               int64      `json:"id"`
	DisplayName      string     `json:"display_name"`
	QuizzesTaken     int        `json:"quizzes_taken"`
	CardsReviewed    int        `json:"cards_reviewed"`
	CorrectAnswers   int        `json:"correct_answers"`
	CurrentStreak    int        `json:"current_streak"`
	LongestStreak    int        `json:"longest_streak"`
	LastActivityDate *time.Time `json:"last_activity_date"`
	CreatedAt        time.Time  `json:"created_at"`
	// Version increases by one on every progress write.
	Version int64 `json:"version"`
}

// AccuracyPercentage is derived from the counters and is 0 when nothing was reviewed.
func (u User) AccuracyPercentage() float64 {
	if u.CardsReviewed == 0 {
		return 0
	}
	return float64(u.CorrectAnswers) / float64(u.CardsReviewed) * 100
}

// UserProgress is the read model returned to callers.
type UserProgress struct {
	User
	Accuracy float64 `json:"accuracy"`
}

func NewUserProgress(u User) UserProgress {
	return UserProgress{User: u, Accuracy: u.AccuracyPercentage()}
}
