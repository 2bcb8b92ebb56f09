package game

import (
	"context"
	"errors"

	"trivia-host-service/internal/domain"
	"trivia-host-service/internal/store"
)

// PublishedQuestion is the sequencer's result: the question at the room's
// pointer plus position metadata.
type PublishedQuestion struct {
	SessionID        string
	Question         domain.Question
	RoundNumber      int
	QuestionNumber   int
	ExpiresInSeconds int
	IsLastQuestion   bool
}

// Sequencer advances the room's (round, question) pointer. Advancement
// requires the caller to present the pointer it last saw, which makes
// duplicate and out-of-order requests re-serve the current question instead
// of double-advancing.
type Sequencer struct {
	rooms            store.RoomStore
	expiresInSeconds int
}

func NewSequencer(rooms store.RoomStore, expiresInSeconds int) *Sequencer {
	if expiresInSeconds <= 0 {
		expiresInSeconds = 10
	}
	return &Sequencer{rooms: rooms, expiresInSeconds: expiresInSeconds}
}

// PublishNext returns the next question when lastRound/lastQuestion match the
// room's current pointer, or re-issues the current question otherwise. Nil
// last-seen values mean the host is (re)requesting question one.
func (s *Sequencer) PublishNext(ctx context.Context, sessionID string, lastRound, lastQuestion *int) (PublishedQuestion, error) {
	room, err := s.rooms.GetRoom(ctx, sessionID)
	if errors.Is(err, store.ErrRoomNotFound) {
		return PublishedQuestion{}, domain.NewError(domain.RoomNotFound, "room not found")
	}
	if err != nil {
		return PublishedQuestion{}, err
	}
	if !room.Started {
		return PublishedQuestion{}, domain.NewError(domain.GameNotStarted, "game has not started")
	}
	if room.Finished {
		return PublishedQuestion{}, domain.NewError(domain.GameFinished, "game has finished")
	}

	switch {
	case lastRound == nil && lastQuestion == nil:
		// First request, or host reconnect re-requesting question one.
		room.CurrentRound = 0
		room.CurrentQuestion = 0
	case lastRound != nil && lastQuestion != nil &&
		*lastRound == room.CurrentRound && *lastQuestion == room.CurrentQuestion:
		if room.CurrentQuestion < len(room.Rounds[room.CurrentRound].Questions)-1 {
			room.CurrentQuestion++
		} else if room.CurrentRound < len(room.Rounds)-1 {
			room.CurrentRound++
			room.CurrentQuestion = 0
		} else {
			room.Finished = true
		}
		if err := s.rooms.PutRoom(ctx, &room); err != nil {
			if !errors.Is(err, store.ErrVersionConflict) {
				return PublishedQuestion{}, err
			}
			// Lost a concurrent advance; fall back to serving whatever the
			// room points at now.
			room, err = s.rooms.GetRoom(ctx, sessionID)
			if err != nil {
				return PublishedQuestion{}, err
			}
			if room.Finished {
				return PublishedQuestion{}, domain.NewError(domain.GameFinished, "game has finished")
			}
		}
	default:
		// Stale or duplicate request: re-issue the current question untouched.
	}

	return PublishedQuestion{
		SessionID:        room.SessionID,
		Question:         room.CurrentQuestionRef(),
		RoundNumber:      room.CurrentRound,
		QuestionNumber:   room.CurrentQuestion,
		ExpiresInSeconds: s.expiresInSeconds,
		IsLastQuestion:   room.AtLastQuestion(),
	}, nil
}
