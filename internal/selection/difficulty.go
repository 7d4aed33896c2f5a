package selection

import (
	"fmt"
	"strings"
)

// Difficulty is the closed set of card selection policies.
type Difficulty int

const (
	Easy Difficulty = iota + 1
	Medium
	Hard
	Expert
)

// Difficulties lists every policy, in increasing order of challenge.
var Difficulties = []Difficulty{Easy, Medium, Hard, Expert}

func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "easy"
	case Medium:
		return "medium"
	case Hard:
		return "hard"
	case Expert:
		return "expert"
	default:
		return fmt.Sprintf("difficulty(%d)", int(d))
	}
}

func (d Difficulty) Valid() bool {
	return d >= Easy && d <= Expert
}

// ParseDifficulty accepts the policy labels case-insensitively; "difficult" is an alias of hard.
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return Easy, nil
	case "medium":
		return Medium, nil
	case "hard", "difficult":
		return Hard, nil
	case "expert":
		return Expert, nil
	}
	return 0, fmt.Errorf("unknown difficulty %q", s)
}
