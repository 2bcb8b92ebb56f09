package game

import (
	"context"
	"sort"

	"trivia-host-service/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// QuestionSource supplies raw question material for a category (HTTP trivia
// API, postgres question bank, etc).
type QuestionSource interface {
	FetchQuestions(ctx context.Context, categoryID, amount int) ([]domain.SourceQuestion, error)
}

// RoundSpec is one requested round of a room creation.
type RoundSpec struct {
	CategoryID     int
	NumOfQuestions int
}

// RoundBuilder turns a round spec into a fully formed round with opaque
// question and answer ids.
type RoundBuilder struct {
	source QuestionSource
}

func NewRoundBuilder(source QuestionSource) *RoundBuilder {
	return &RoundBuilder{source: source}
}

// BuildRound fetches questions and assigns ids. Answers are merged into one
// list and ordered by text, so position never reveals the correct entry.
func (b *RoundBuilder) BuildRound(ctx context.Context, roundIdx int, spec RoundSpec) (domain.Round, error) {
	fetched, err := b.source.FetchQuestions(ctx, spec.CategoryID, spec.NumOfQuestions)
	if err != nil {
		return domain.Round{}, err
	}

	questions := make([]domain.Question, 0, len(fetched))
	for _, sq := range fetched {
		correctID := uuid.NewString()
		answers := make([]domain.Answer, 0, len(sq.IncorrectAnswers)+1)
		answers = append(answers, domain.Answer{ID: correctID, Text: sq.CorrectAnswer})
		for _, text := range sq.IncorrectAnswers {
			answers = append(answers, domain.Answer{ID: uuid.NewString(), Text: text})
		}
		sort.Slice(answers, func(i, j int) bool {
			return answers[i].Text > answers[j].Text
		})

		questions = append(questions, domain.Question{
			ID:       uuid.NewString(),
			Category: sq.Category,
			Text:     sq.Text,
			Answers:  answers,
			AnswerID: correctID,
		})
	}

	return domain.Round{
		Index:          roundIdx,
		CategoryID:     spec.CategoryID,
		NumOfQuestions: spec.NumOfQuestions,
		Questions:      questions,
	}, nil
}

// BuildRounds builds all rounds concurrently. Fetch completion order is not
// creation order; the result is re-sorted by round index before use.
func (b *RoundBuilder) BuildRounds(ctx context.Context, specs []RoundSpec) ([]domain.Round, error) {
	rounds := make([]domain.Round, len(specs))
	g, gctx := errgroup.WithContext(ctx)
	for i, spec := range specs {
		i, spec := i, spec
		g.Go(func() error {
			round, err := b.BuildRound(gctx, i, spec)
			if err != nil {
				return err
			}
			rounds[i] = round
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(rounds, func(i, j int) bool {
		return rounds[i].Index < rounds[j].Index
	})
	return rounds, nil
}
