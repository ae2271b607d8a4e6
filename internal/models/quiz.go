package models

import "github.com/google/uuid"

// Quiz is externally authored quiz content, fetched once at room creation.
// The question list is treated as immutable for the session's lifetime.
type Quiz struct {
	ID       uuid.UUID      `json:"id"`
	Title    string         `json:"title"`
	Duration int            `json:"duration"`
	Question []QuizQuestion `json:"questions"`
}

// QuizQuestion is one question of a quiz.
type QuizQuestion struct {
	Text    string       `json:"text"`
	Type    QuestionType `json:"type"`
	Points  float64      `json:"points"`
	Choices []QuizChoice `json:"choices"`
}

// QuizChoice is one selectable choice of a single-choice question. An
// open-ended question carries no choices.
type QuizChoice struct {
	Label     string `json:"label"`
	IsCorrect bool   `json:"is_correct"`
}
