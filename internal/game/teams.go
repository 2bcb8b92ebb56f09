package game

import (
	"context"
	"errors"

	"trivia-host-service/internal/domain"
	"trivia-host-service/internal/store"
	"github.com/google/uuid"
)

// AnswerReceipt is the outcome of an accepted submission, addressed to the
// host connection.
type AnswerReceipt struct {
	SessionID        string
	TeamID           string
	TeamName         string
	QuestionID       string
	AnswerID         string
	HostConnectionID string
}

// TeamRegistry handles team join, answer submission and scoring.
type TeamRegistry struct {
	rooms store.RoomStore
	teams store.TeamStore
}

func NewTeamRegistry(rooms store.RoomStore, teams store.TeamStore) *TeamRegistry {
	return &TeamRegistry{rooms: rooms, teams: teams}
}

// Join creates a team in the room identified by its short code.
func (r *TeamRegistry) Join(ctx context.Context, roomID, teamName string) (domain.Team, error) {
	room, err := r.rooms.FindRoomByCode(ctx, roomID)
	if errors.Is(err, store.ErrRoomNotFound) {
		return domain.Team{}, domain.NewError(domain.RoomNotFound, "room not found")
	}
	if err != nil {
		return domain.Team{}, err
	}
	if room.Finished {
		return domain.Team{}, domain.NewError(domain.GameFinished, "game has finished")
	}

	team := domain.Team{
		SessionID: room.SessionID,
		TeamID:    uuid.NewString(),
		TeamName:  teamName,
		Score:     0,
		Answers:   []domain.SubmittedAnswer{},
	}
	if err := r.teams.PutTeam(ctx, team); err != nil {
		return domain.Team{}, err
	}
	return team, nil
}

// SubmitAnswer validates and records a team's answer for the currently
// published question. The first accepted submission per question is final;
// score moves by exactly one on a correct answer.
func (r *TeamRegistry) SubmitAnswer(ctx context.Context, sessionID, teamID, questionID, answerID string) (AnswerReceipt, error) {
	team, err := r.teams.GetTeam(ctx, sessionID, teamID)
	if errors.Is(err, store.ErrTeamNotFound) {
		return AnswerReceipt{}, domain.NewError(domain.TeamNotFound, "team not found")
	}
	if err != nil {
		return AnswerReceipt{}, err
	}
	if team.HasAnswered(questionID) {
		return AnswerReceipt{}, domain.NewError(domain.QuestionAlreadyAnswered, "question has already been answered")
	}

	room, err := r.rooms.GetRoom(ctx, sessionID)
	if errors.Is(err, store.ErrRoomNotFound) {
		return AnswerReceipt{}, domain.NewError(domain.RoomNotFound, "room not found")
	}
	if err != nil {
		return AnswerReceipt{}, err
	}
	if room.Finished {
		return AnswerReceipt{}, domain.NewError(domain.GameFinished, "game has finished")
	}

	current := room.CurrentQuestionRef()
	if current.ID != questionID {
		return AnswerReceipt{}, domain.NewError(domain.QuestionExpired, "this question has expired")
	}

	valid := false
	for _, answer := range current.Answers {
		if answer.ID == answerID {
			valid = true
			break
		}
	}
	if !valid {
		return AnswerReceipt{}, domain.NewError(domain.InvalidAnswerID, "invalid answerId")
	}

	team.Answers = append(team.Answers, domain.SubmittedAnswer{
		QuestionID: current.ID,
		AnswerID:   answerID,
	})
	if answerID == current.AnswerID {
		team.Score++
	}
	if err := r.teams.PutTeam(ctx, team); err != nil {
		return AnswerReceipt{}, err
	}

	return AnswerReceipt{
		SessionID:        sessionID,
		TeamID:           team.TeamID,
		TeamName:         team.TeamName,
		QuestionID:       current.ID,
		AnswerID:         answerID,
		HostConnectionID: room.HostConnectionID,
	}, nil
}
