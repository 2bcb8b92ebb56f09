package game

import (
	"errors"
	"fmt"
	"testing"

	"trivia-host-service/internal/domain"
)

func assertCode(t *testing.T, err error, code domain.ErrorCode) {
	t.Helper()
	var gameErr *domain.Error
	if !errors.As(err, &gameErr) {
		t.Fatalf("expected game error %s, got %v", code, err)
	}
	if gameErr.Code != code {
		t.Fatalf("expected code %s, got %s", code, gameErr.Code)
	}
}

func sourceQuestions(category string, n int) []domain.SourceQuestion {
	questions := make([]domain.SourceQuestion, 0, n)
	for i := 0; i < n; i++ {
		questions = append(questions, domain.SourceQuestion{
			Category:         category,
			Text:             fmt.Sprintf("%s question %d", category, i+1),
			CorrectAnswer:    fmt.Sprintf("right %d", i+1),
			IncorrectAnswers: []string{"wrong a", "wrong b", "wrong c"},
		})
	}
	return questions
}

// testRoom builds a started 2x2 room with fixed ids: round 0 holds q1,q2 and
// round 1 holds q3,q4, each with answers a1..a3 and a1 correct.
func testRoom(sessionID string) domain.Room {
	question := func(id string) domain.Question {
		return domain.Question{
			ID:       id,
			Category: "History",
			Text:     "question " + id,
			Answers: []domain.Answer{
				{ID: "a1", Text: "alpha"},
				{ID: "a2", Text: "beta"},
				{ID: "a3", Text: "gamma"},
			},
			AnswerID: "a1",
		}
	}
	return domain.Room{
		SessionID:        sessionID,
		RoomID:           "WXYZ",
		HostConnectionID: "host-conn",
		Rounds: []domain.Round{
			{Index: 0, CategoryID: 23, NumOfQuestions: 2, Questions: []domain.Question{question("q1"), question("q2")}},
			{Index: 1, CategoryID: 9, NumOfQuestions: 2, Questions: []domain.Question{question("q3"), question("q4")}},
		},
		Started: true,
	}
}

func intp(v int) *int { return &v }
