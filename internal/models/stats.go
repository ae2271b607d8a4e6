package models

import (
	"strings"

	"github.com/google/uuid"
)

// QuestionType distinguishes scoring and panic behavior per question.
type QuestionType string

const (
	QuestionTypeSingleChoice QuestionType = "single-choice"
	QuestionTypeOpenEnded    QuestionType = "open-ended"
)

// GameStats aggregates the whole session's scoring state. It is seeded
// once from quiz content at room creation and mutated in place for the
// room's lifetime, never structurally replaced.
type GameStats struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Duration  int             `json:"duration"`
	Questions []QuestionStats `json:"questions"`
	Users     []*UserSession  `json:"users"`
}

// QuestionStats holds the per-question tallies.
type QuestionStats struct {
	Title        string       `json:"title"`
	Type         QuestionType `json:"type"`
	Points       float64      `json:"points"`
	Lines        []StatLine   `json:"lines"`
	TimeFinished bool         `json:"time_finished"`

	// PointsGiven buckets the usernames graded manually on open-ended
	// questions by the percentage awarded.
	PointsGiven GradeBuckets `json:"points_given"`
}

// GradeBuckets records manual-grading outcomes per username.
type GradeBuckets struct {
	None []string `json:"none"`
	Half []string `json:"half"`
	All  []string `json:"all"`
}

// StatLine is the per-choice aggregate: the choice label, whether it is a
// correct choice, and the usernames currently selecting it.
type StatLine struct {
	Label     string   `json:"label"`
	IsCorrect bool     `json:"is_correct"`
	Pickers   []string `json:"pickers"`
}

// HasPicker reports whether username currently selects this line.
func (l *StatLine) HasPicker(username string) bool {
	for _, p := range l.Pickers {
		if p == username {
			return true
		}
	}
	return false
}

// RemovePicker drops username from the line's picker set if present.
func (l *StatLine) RemovePicker(username string) {
	for i, p := range l.Pickers {
		if p == username {
			l.Pickers = append(l.Pickers[:i], l.Pickers[i+1:]...)
			return
		}
	}
}

// FindSession returns the session for username, matched case-insensitively,
// or nil if no such session exists.
func (g *GameStats) FindSession(username string) *UserSession {
	for _, u := range g.Users {
		if strings.EqualFold(u.Username, username) {
			return u
		}
	}
	return nil
}

// BestScore returns the highest score among non-organizer sessions.
func (g *GameStats) BestScore() float64 {
	best := 0.0
	for _, u := range g.Users {
		if strings.EqualFold(u.Username, OrganizerName) {
			continue
		}
		if u.Score > best {
			best = u.Score
		}
	}
	return best
}
