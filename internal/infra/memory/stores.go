package memory

import (
	"context"
	"sync"

	"trivia-host-service/internal/domain"
	"trivia-host-service/internal/store"
)

// RoomStore is an in-memory store.RoomStore. Writes are guarded by the same
// optimistic version check the redis store enforces.
type RoomStore struct {
	mu    sync.RWMutex
	rooms map[string]domain.Room
}

func NewRoomStore() *RoomStore {
	return &RoomStore{rooms: make(map[string]domain.Room)}
}

func (s *RoomStore) GetRoom(_ context.Context, sessionID string) (domain.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[sessionID]
	if !ok {
		return domain.Room{}, store.ErrRoomNotFound
	}
	return room, nil
}

func (s *RoomStore) PutRoom(_ context.Context, room *domain.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.rooms[room.SessionID]
	if ok && existing.Version != room.Version {
		return store.ErrVersionConflict
	}
	if !ok && room.Version != 0 {
		return store.ErrVersionConflict
	}
	room.Version++
	s.rooms[room.SessionID] = *room
	return nil
}

func (s *RoomStore) FindRoomByCode(_ context.Context, roomID string) (domain.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var finished *domain.Room
	for _, room := range s.rooms {
		if room.RoomID != roomID {
			continue
		}
		if !room.Finished {
			return room, nil
		}
		room := room
		finished = &room
	}
	// A finished room still resolves; callers turn that into GAME_FINISHED.
	if finished != nil {
		return *finished, nil
	}
	return domain.Room{}, store.ErrRoomNotFound
}

func (s *RoomStore) ActiveCodeExists(_ context.Context, roomID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, room := range s.rooms {
		if room.RoomID == roomID && !room.Finished {
			return true, nil
		}
	}
	return false, nil
}

// TeamStore is an in-memory store.TeamStore.
type TeamStore struct {
	mu    sync.RWMutex
	teams map[string]domain.Team
}

func NewTeamStore() *TeamStore {
	return &TeamStore{teams: make(map[string]domain.Team)}
}

func teamKey(sessionID, teamID string) string {
	return sessionID + "/" + teamID
}

func (s *TeamStore) GetTeam(_ context.Context, sessionID, teamID string) (domain.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	team, ok := s.teams[teamKey(sessionID, teamID)]
	if !ok {
		return domain.Team{}, store.ErrTeamNotFound
	}
	return team, nil
}

func (s *TeamStore) PutTeam(_ context.Context, team domain.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teams[teamKey(team.SessionID, team.TeamID)] = team
	return nil
}

func (s *TeamStore) ListTeams(_ context.Context, sessionID string) ([]domain.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	teams := make([]domain.Team, 0)
	for _, team := range s.teams {
		if team.SessionID == sessionID {
			teams = append(teams, team)
		}
	}
	return teams, nil
}

// ConnectionStore is an in-memory store.ConnectionStore.
type ConnectionStore struct {
	mu    sync.RWMutex
	conns map[string]domain.Connection
}

func NewConnectionStore() *ConnectionStore {
	return &ConnectionStore{conns: make(map[string]domain.Connection)}
}

func (s *ConnectionStore) GetConnection(_ context.Context, connectionID string) (domain.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conn, ok := s.conns[connectionID]
	if !ok {
		return domain.Connection{}, store.ErrConnectionNotFound
	}
	return conn, nil
}

func (s *ConnectionStore) PutConnection(_ context.Context, conn domain.Connection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[conn.ConnectionID] = conn
	return nil
}

func (s *ConnectionStore) DeleteConnection(_ context.Context, connectionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, connectionID)
	return nil
}

func (s *ConnectionStore) ListSessionConnections(_ context.Context, sessionID string) ([]domain.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conns := make([]domain.Connection, 0)
	for _, conn := range s.conns {
		if conn.SessionID == sessionID {
			conns = append(conns, conn)
		}
	}
	return conns, nil
}
