package quiz

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/o-benz/SmartyShowdown-sub000/internal/models"
)

// Store is what the session core needs from quiz content storage.
type Store interface {
	GetQuizByID(ctx context.Context, id uuid.UUID) (*models.Quiz, error)
}

// DB defines what the repository needs from the database layer.
// *pgxpool.Pool satisfies it.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository reads externally authored quiz content from Postgres.
// Authoring and mutation of that content live outside this service; the
// repository is read-only by design.
type Repository struct {
	db DB
}

// NewRepository creates a new quiz content repository.
func NewRepository(db DB) *Repository {
	return &Repository{db: db}
}

const getQuizQuery = `
SELECT id, title, duration
FROM quizzes
WHERE id = $1
`

const getQuestionsQuery = `
SELECT q.position, q.text, q.type, q.points, c.label, c.is_correct
FROM quiz_questions q
LEFT JOIN quiz_choices c ON c.question_id = q.id
WHERE q.quiz_id = $1
ORDER BY q.position, c.position
`

// GetQuizByID fetches a quiz with its questions and choices.
func (r *Repository) GetQuizByID(ctx context.Context, id uuid.UUID) (*models.Quiz, error) {
	var q models.Quiz
	err := r.db.QueryRow(ctx, getQuizQuery, id).Scan(&q.ID, &q.Title, &q.Duration)
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz %s: %w", id, err)
	}

	rows, err := r.db.Query(ctx, getQuestionsQuery, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get questions for quiz %s: %w", id, err)
	}
	defer rows.Close()

	byPos := map[int]int{} // question position -> index in q.Question
	for rows.Next() {
		var (
			pos       int
			text      string
			qtype     models.QuestionType
			points    float64
			label     *string
			isCorrect *bool
		)
		if err := rows.Scan(&pos, &text, &qtype, &points, &label, &isCorrect); err != nil {
			return nil, fmt.Errorf("failed to scan question row: %w", err)
		}

		idx, ok := byPos[pos]
		if !ok {
			q.Question = append(q.Question, models.QuizQuestion{
				Text:   text,
				Type:   qtype,
				Points: points,
			})
			idx = len(q.Question) - 1
			byPos[pos] = idx
		}

		// Open-ended questions join to no choice rows.
		if label != nil {
			q.Question[idx].Choices = append(q.Question[idx].Choices, models.QuizChoice{
				Label:     *label,
				IsCorrect: isCorrect != nil && *isCorrect,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read question rows: %w", err)
	}

	return &q, nil
}
