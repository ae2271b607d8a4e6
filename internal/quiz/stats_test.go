package quiz_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/o-benz/SmartyShowdown-sub000/internal/models"
	"github.com/o-benz/SmartyShowdown-sub000/internal/quiz"
)

func TestGenerateGameStats(t *testing.T) {
	q := &models.Quiz{
		ID:       uuid.New(),
		Title:    "capitals",
		Duration: 30,
		Question: []models.QuizQuestion{
			{
				Text:   "capital of france",
				Type:   models.QuestionTypeSingleChoice,
				Points: 10,
				Choices: []models.QuizChoice{
					{Label: "Paris", IsCorrect: true},
					{Label: "Lyon"},
				},
			},
			{
				Text:   "explain your answer",
				Type:   models.QuestionTypeOpenEnded,
				Points: 20,
			},
		},
	}

	gs := quiz.GenerateGameStats(q)

	require.Equal(t, "capitals", gs.Name)
	require.Equal(t, 30, gs.Duration)
	require.NotEqual(t, uuid.Nil, gs.ID)
	require.Empty(t, gs.Users, "sessions attach at login, not at seeding")
	require.Len(t, gs.Questions, 2)

	first := gs.Questions[0]
	require.Equal(t, "capital of france", first.Title)
	require.Equal(t, models.QuestionTypeSingleChoice, first.Type)
	require.Equal(t, 10.0, first.Points)
	require.Len(t, first.Lines, 2)
	require.Equal(t, "Paris", first.Lines[0].Label)
	require.True(t, first.Lines[0].IsCorrect)
	require.False(t, first.Lines[1].IsCorrect)
	require.Empty(t, first.Lines[0].Pickers)
	require.False(t, first.TimeFinished)

	second := gs.Questions[1]
	require.Equal(t, models.QuestionTypeOpenEnded, second.Type)
	require.Empty(t, second.Lines, "open-ended questions carry no choice lines")
}
