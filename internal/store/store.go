package store

import (
	"context"
	"errors"

	"trivia-host-service/internal/domain"
)

var (
	// ErrRoomNotFound is returned when no room exists for a session id or code.
	ErrRoomNotFound = errors.New("room not found")
	// ErrTeamNotFound is returned when no team exists for (session, team).
	ErrTeamNotFound = errors.New("team not found")
	// ErrConnectionNotFound is returned for unknown connection ids.
	ErrConnectionNotFound = errors.New("connection not found")
	// ErrVersionConflict is returned by PutRoom when the stored room's version
	// moved since the caller read it.
	ErrVersionConflict = errors.New("room version conflict")
)

// RoomStore persists rooms keyed by session id. PutRoom is an optimistic
// write: it succeeds only when the stored version matches room.Version, and
// bumps the version on success (both in the store and on the passed room).
type RoomStore interface {
	GetRoom(ctx context.Context, sessionID string) (domain.Room, error)
	PutRoom(ctx context.Context, room *domain.Room) error
	// FindRoomByCode resolves a room by its short code, preferring an active
	// one; a finished room still resolves so callers can report GAME_FINISHED.
	FindRoomByCode(ctx context.Context, roomID string) (domain.Room, error)
	// ActiveCodeExists reports whether a non-finished room currently holds the code.
	ActiveCodeExists(ctx context.Context, roomID string) (bool, error)
}

// TeamStore persists teams keyed by (session id, team id).
type TeamStore interface {
	GetTeam(ctx context.Context, sessionID, teamID string) (domain.Team, error)
	PutTeam(ctx context.Context, team domain.Team) error
	ListTeams(ctx context.Context, sessionID string) ([]domain.Team, error)
}

// ConnectionStore tracks which live connection belongs to which session.
type ConnectionStore interface {
	GetConnection(ctx context.Context, connectionID string) (domain.Connection, error)
	PutConnection(ctx context.Context, conn domain.Connection) error
	DeleteConnection(ctx context.Context, connectionID string) error
	ListSessionConnections(ctx context.Context, sessionID string) ([]domain.Connection, error)
}
