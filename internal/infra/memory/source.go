package memory

import (
	"context"
	"fmt"

	"trivia-host-service/internal/domain"
)

// StaticQuestionSource serves questions from an in-memory map keyed by
// category (useful for tests/demos).
type StaticQuestionSource struct {
	questions map[int][]domain.SourceQuestion
}

func NewStaticQuestionSource(questions map[int][]domain.SourceQuestion) *StaticQuestionSource {
	return &StaticQuestionSource{questions: questions}
}

func (s *StaticQuestionSource) FetchQuestions(_ context.Context, categoryID, amount int) ([]domain.SourceQuestion, error) {
	available := s.questions[categoryID]
	if len(available) < amount {
		return nil, domain.NewError(domain.UpstreamUnavailable,
			fmt.Sprintf("only %d of %d questions available for category %d", len(available), amount, categoryID))
	}
	return available[:amount], nil
}
