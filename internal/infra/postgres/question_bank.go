package postgres

import (
	"context"
	"fmt"

	"trivia-host-service/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuestionBank serves question material from Postgres, as an alternative to
// the public trivia API.
type QuestionBank struct {
	pool *pgxpool.Pool
}

func NewQuestionBank(pool *pgxpool.Pool) *QuestionBank {
	return &QuestionBank{pool: pool}
}

func (b *QuestionBank) FetchQuestions(ctx context.Context, categoryID, amount int) ([]domain.SourceQuestion, error) {
	rows, err := b.pool.Query(ctx,
		`SELECT category, question, correct_answer, incorrect_answers
		 FROM questions WHERE category_id=$1 ORDER BY random() LIMIT $2`,
		categoryID, amount)
	if err != nil {
		return nil, domain.NewError(domain.UpstreamUnavailable, fmt.Sprintf("question bank query: %v", err))
	}
	defer rows.Close()

	questions := make([]domain.SourceQuestion, 0, amount)
	for rows.Next() {
		var q domain.SourceQuestion
		if err := rows.Scan(&q.Category, &q.Text, &q.CorrectAnswer, &q.IncorrectAnswers); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewError(domain.UpstreamUnavailable, fmt.Sprintf("question bank read: %v", err))
	}
	if len(questions) < amount {
		return nil, domain.NewError(domain.UpstreamUnavailable,
			fmt.Sprintf("question bank holds %d of %d questions for category %d", len(questions), amount, categoryID))
	}
	return questions, nil
}
