package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"trivia-host-service/internal/domain"
	"trivia-host-service/internal/store"
	"github.com/google/uuid"
)

const roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// maxCodeAttempts bounds the re-roll loop when allocating a room code.
const maxCodeAttempts = 32

// ScoreSort is the leaderboard ordering policy for finished games.
type ScoreSort string

const (
	// ScoreSortAsc keeps the source ordering (lowest score first).
	ScoreSortAsc  ScoreSort = "asc"
	ScoreSortDesc ScoreSort = "desc"
)

// RoomManager owns room lifecycle: creation, start, finish and reconnection.
// One instance serves all connections concurrently.
type RoomManager struct {
	rooms      store.RoomStore
	teams      store.TeamStore
	builder    *RoundBuilder
	codeLength int
	scoreSort  ScoreSort
}

func NewRoomManager(rooms store.RoomStore, teams store.TeamStore, builder *RoundBuilder, codeLength int, scoreSort ScoreSort) *RoomManager {
	if codeLength <= 0 {
		codeLength = 4
	}
	if scoreSort != ScoreSortDesc {
		scoreSort = ScoreSortAsc
	}
	return &RoomManager{
		rooms:      rooms,
		teams:      teams,
		builder:    builder,
		codeLength: codeLength,
		scoreSort:  scoreSort,
	}
}

// Create assembles all rounds, allocates ids and persists the new room.
func (m *RoomManager) Create(ctx context.Context, specs []RoundSpec, hostConnectionID string) (domain.Room, error) {
	if len(specs) == 0 {
		return domain.Room{}, domain.NewError(domain.InvalidRoomSpec, "at least one round is required")
	}
	for _, spec := range specs {
		if spec.NumOfQuestions <= 0 {
			return domain.Room{}, domain.NewError(domain.InvalidRoomSpec,
				fmt.Sprintf("round for category %d requests %d questions", spec.CategoryID, spec.NumOfQuestions))
		}
	}

	rounds, err := m.builder.BuildRounds(ctx, specs)
	if err != nil {
		return domain.Room{}, err
	}

	code, err := m.allocateCode(ctx)
	if err != nil {
		return domain.Room{}, err
	}

	room := domain.Room{
		SessionID:        uuid.NewString(),
		RoomID:           code,
		HostConnectionID: hostConnectionID,
		Rounds:           rounds,
		CurrentRound:     0,
		CurrentQuestion:  0,
		Started:          false,
		Finished:         false,
	}
	if err := m.rooms.PutRoom(ctx, &room); err != nil {
		return domain.Room{}, err
	}
	return room, nil
}

// allocateCode rolls short codes until one is free among active rooms. The
// package-level rand source is safe for concurrent Create calls.
func (m *RoomManager) allocateCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := make([]byte, m.codeLength)
		for i := range code {
			code[i] = roomCodeAlphabet[rand.Intn(len(roomCodeAlphabet))]
		}
		taken, err := m.rooms.ActiveCodeExists(ctx, string(code))
		if err != nil {
			return "", err
		}
		if !taken {
			return string(code), nil
		}
	}
	return "", fmt.Errorf("no free room code after %d attempts", maxCodeAttempts)
}

// Start flips the started flag. Calling it again while not finished is a
// no-op re-save, not an error.
func (m *RoomManager) Start(ctx context.Context, sessionID string) error {
	for {
		room, err := m.loadRoom(ctx, sessionID)
		if err != nil {
			return err
		}
		if room.Finished {
			return domain.NewError(domain.GameFinished, "game has finished")
		}
		room.Started = true
		err = m.rooms.PutRoom(ctx, &room)
		if errors.Is(err, store.ErrVersionConflict) {
			continue
		}
		return err
	}
}

// Finish marks the room finished exactly once and returns the scoreboard.
func (m *RoomManager) Finish(ctx context.Context, sessionID string) ([]domain.TeamScore, error) {
	for {
		room, err := m.loadRoom(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if !room.Started {
			return nil, domain.NewError(domain.GameNotStarted, "game has not started")
		}
		if room.Finished {
			break
		}
		room.Finished = true
		err = m.rooms.PutRoom(ctx, &room)
		if errors.Is(err, store.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}
		break
	}

	scores, err := m.scoresForSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(scores, func(i, j int) bool {
		if m.scoreSort == ScoreSortDesc {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].Score < scores[j].Score
	})
	return scores, nil
}

// RejoinAsHost restores the host's view: rounds, scoreboard and whether the
// game has started.
func (m *RoomManager) RejoinAsHost(ctx context.Context, sessionID, roomID string) (domain.Room, []domain.TeamScore, error) {
	room, err := m.loadRoom(ctx, sessionID)
	if err != nil {
		return domain.Room{}, nil, err
	}
	if room.RoomID != roomID {
		return domain.Room{}, nil, domain.NewError(domain.RoomNotFound, "room was not found")
	}
	if room.Finished {
		return domain.Room{}, nil, domain.NewError(domain.GameFinished, "game has finished")
	}
	scores, err := m.scoresForSession(ctx, sessionID)
	if err != nil {
		return domain.Room{}, nil, err
	}
	return room, scores, nil
}

// RejoinAsTeam returns the team's identity so the client can resume.
func (m *RoomManager) RejoinAsTeam(ctx context.Context, sessionID, teamID string) (domain.Team, error) {
	team, err := m.teams.GetTeam(ctx, sessionID, teamID)
	if errors.Is(err, store.ErrTeamNotFound) {
		return domain.Team{}, domain.NewError(domain.TeamNotFound, "team not found")
	}
	if err != nil {
		return domain.Team{}, err
	}
	return team, nil
}

func (m *RoomManager) loadRoom(ctx context.Context, sessionID string) (domain.Room, error) {
	room, err := m.rooms.GetRoom(ctx, sessionID)
	if errors.Is(err, store.ErrRoomNotFound) {
		return domain.Room{}, domain.NewError(domain.RoomNotFound, "room not found")
	}
	if err != nil {
		return domain.Room{}, err
	}
	return room, nil
}

func (m *RoomManager) scoresForSession(ctx context.Context, sessionID string) ([]domain.TeamScore, error) {
	teams, err := m.teams.ListTeams(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	scores := make([]domain.TeamScore, 0, len(teams))
	for _, team := range teams {
		scores = append(scores, domain.TeamScore{
			TeamID:   team.TeamID,
			TeamName: team.TeamName,
			Score:    team.Score,
		})
	}
	return scores, nil
}
