package memory

import (
	"context"
	"errors"
	"testing"

	"trivia-host-service/internal/domain"
	"trivia-host-service/internal/store"
)

func TestRoomStoreVersioning(t *testing.T) {
	ctx := context.Background()
	rooms := NewRoomStore()

	room := domain.Room{SessionID: "s1", RoomID: "ABCD"}
	if err := rooms.PutRoom(ctx, &room); err != nil {
		t.Fatalf("put: %v", err)
	}
	if room.Version != 1 {
		t.Fatalf("expected version bump, got %d", room.Version)
	}

	// A writer holding the stale version loses.
	stale := domain.Room{SessionID: "s1", RoomID: "ABCD", Version: 0}
	if err := rooms.PutRoom(ctx, &stale); !errors.Is(err, store.ErrVersionConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}

	room.Started = true
	if err := rooms.PutRoom(ctx, &room); err != nil {
		t.Fatalf("second put: %v", err)
	}
	got, err := rooms.GetRoom(ctx, "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Started || got.Version != 2 {
		t.Fatalf("unexpected stored room: %+v", got)
	}

	// Inserting a brand-new room with a nonzero version is a conflict too.
	phantom := domain.Room{SessionID: "s2", Version: 7}
	if err := rooms.PutRoom(ctx, &phantom); !errors.Is(err, store.ErrVersionConflict) {
		t.Fatalf("expected conflict for phantom version, got %v", err)
	}
}

func TestRoomStoreNotFound(t *testing.T) {
	rooms := NewRoomStore()
	if _, err := rooms.GetRoom(context.Background(), "missing"); !errors.Is(err, store.ErrRoomNotFound) {
		t.Fatalf("expected room not found, got %v", err)
	}
	if _, err := rooms.FindRoomByCode(context.Background(), "ZZZZ"); !errors.Is(err, store.ErrRoomNotFound) {
		t.Fatalf("expected room not found by code, got %v", err)
	}
}

func TestFindRoomByCodePrefersActive(t *testing.T) {
	ctx := context.Background()
	rooms := NewRoomStore()

	finished := domain.Room{SessionID: "old", RoomID: "ABCD", Finished: true}
	if err := rooms.PutRoom(ctx, &finished); err != nil {
		t.Fatalf("put finished: %v", err)
	}

	// With only the finished room present the code still resolves.
	got, err := rooms.FindRoomByCode(ctx, "ABCD")
	if err != nil {
		t.Fatalf("find finished: %v", err)
	}
	if got.SessionID != "old" {
		t.Fatalf("unexpected room: %+v", got)
	}

	active := domain.Room{SessionID: "new", RoomID: "ABCD"}
	if err := rooms.PutRoom(ctx, &active); err != nil {
		t.Fatalf("put active: %v", err)
	}
	got, err = rooms.FindRoomByCode(ctx, "ABCD")
	if err != nil {
		t.Fatalf("find active: %v", err)
	}
	if got.SessionID != "new" {
		t.Fatalf("active room should win: %+v", got)
	}

	exists, err := rooms.ActiveCodeExists(ctx, "ABCD")
	if err != nil || !exists {
		t.Fatalf("expected active code, exists=%v err=%v", exists, err)
	}
	exists, err = rooms.ActiveCodeExists(ctx, "WXYZ")
	if err != nil || exists {
		t.Fatalf("unexpected active code, exists=%v err=%v", exists, err)
	}
}

func TestTeamStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	teams := NewTeamStore()

	if _, err := teams.GetTeam(ctx, "s1", "t1"); !errors.Is(err, store.ErrTeamNotFound) {
		t.Fatalf("expected team not found, got %v", err)
	}

	for _, team := range []domain.Team{
		{SessionID: "s1", TeamID: "t1", TeamName: "Alpha", Score: 2},
		{SessionID: "s1", TeamID: "t2", TeamName: "Beta"},
		{SessionID: "s2", TeamID: "t1", TeamName: "Other"},
	} {
		if err := teams.PutTeam(ctx, team); err != nil {
			t.Fatalf("put %s: %v", team.TeamID, err)
		}
	}

	got, err := teams.GetTeam(ctx, "s1", "t1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.TeamName != "Alpha" || got.Score != 2 {
		t.Fatalf("unexpected team: %+v", got)
	}

	listed, err := teams.ListTeams(ctx, "s1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 teams in s1, got %d", len(listed))
	}
}

func TestConnectionStore(t *testing.T) {
	ctx := context.Background()
	conns := NewConnectionStore()

	if _, err := conns.GetConnection(ctx, "c1"); !errors.Is(err, store.ErrConnectionNotFound) {
		t.Fatalf("expected connection not found, got %v", err)
	}

	if err := conns.PutConnection(ctx, domain.Connection{ConnectionID: "c1", SessionID: "s1", IsHost: true}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := conns.PutConnection(ctx, domain.Connection{ConnectionID: "c2", SessionID: "s1"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := conns.PutConnection(ctx, domain.Connection{ConnectionID: "c3", SessionID: "s2"}); err != nil {
		t.Fatalf("put: %v", err)
	}

	listed, err := conns.ListSessionConnections(ctx, "s1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 connections, got %d", len(listed))
	}

	if err := conns.DeleteConnection(ctx, "c1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := conns.GetConnection(ctx, "c1"); !errors.Is(err, store.ErrConnectionNotFound) {
		t.Fatalf("expected deleted connection gone, got %v", err)
	}
}

func TestStaticQuestionSource(t *testing.T) {
	source := NewStaticQuestionSource(map[int][]domain.SourceQuestion{
		23: {
			{Category: "History", Text: "q1", CorrectAnswer: "a", IncorrectAnswers: []string{"b"}},
			{Category: "History", Text: "q2", CorrectAnswer: "a", IncorrectAnswers: []string{"b"}},
		},
	})

	questions, err := source.FetchQuestions(context.Background(), 23, 2)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}

	var derr *domain.Error
	if _, err := source.FetchQuestions(context.Background(), 23, 3); !errors.As(err, &derr) || derr.Code != domain.UpstreamUnavailable {
		t.Fatalf("expected UPSTREAM_UNAVAILABLE for short category, got %v", err)
	}
	if _, err := source.FetchQuestions(context.Background(), 99, 1); !errors.As(err, &derr) || derr.Code != domain.UpstreamUnavailable {
		t.Fatalf("expected UPSTREAM_UNAVAILABLE for unknown category, got %v", err)
	}
}
