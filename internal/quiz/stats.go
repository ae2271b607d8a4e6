package quiz

import (
	"github.com/google/uuid"

	"github.com/o-benz/SmartyShowdown-sub000/internal/models"
)

// GenerateGameStats seeds a room's GameStats from quiz content. The
// returned value is mutated in place for the whole session; it is built
// exactly once per room.
func GenerateGameStats(q *models.Quiz) *models.GameStats {
	gs := &models.GameStats{
		ID:        uuid.New(),
		Name:      q.Title,
		Duration:  q.Duration,
		Questions: make([]models.QuestionStats, 0, len(q.Question)),
	}

	for _, question := range q.Question {
		qs := models.QuestionStats{
			Title:  question.Text,
			Type:   question.Type,
			Points: question.Points,
		}
		for _, c := range question.Choices {
			qs.Lines = append(qs.Lines, models.StatLine{
				Label:     c.Label,
				IsCorrect: c.IsCorrect,
			})
		}
		gs.Questions = append(gs.Questions, qs)
	}

	return gs
}
