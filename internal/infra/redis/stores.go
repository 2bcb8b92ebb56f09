package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"trivia-host-service/internal/domain"
	"trivia-host-service/internal/store"
	"github.com/redis/go-redis/v9"
)

// RoomStore persists rooms as JSON blobs. Room writes go through WATCH/MULTI
// so the version check and the write are one atomic step.
//
// Keys:
//
//	room:session:{sessionId} -> room JSON
//	room:code:{roomId}       -> sessionId of the latest room holding the code
type RoomStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRoomStore(client *redis.Client, ttl time.Duration) *RoomStore {
	return &RoomStore{client: client, ttl: ttl}
}

func roomKey(sessionID string) string {
	return "room:session:" + sessionID
}

func codeKey(roomID string) string {
	return "room:code:" + roomID
}

func (s *RoomStore) GetRoom(ctx context.Context, sessionID string) (domain.Room, error) {
	raw, err := s.client.Get(ctx, roomKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Room{}, store.ErrRoomNotFound
	}
	if err != nil {
		return domain.Room{}, err
	}
	var room domain.Room
	if err := json.Unmarshal(raw, &room); err != nil {
		return domain.Room{}, err
	}
	return room, nil
}

func (s *RoomStore) PutRoom(ctx context.Context, room *domain.Room) error {
	key := roomKey(room.SessionID)

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
			if room.Version != 0 {
				return store.ErrVersionConflict
			}
		case err != nil:
			return err
		default:
			var existing domain.Room
			if err := json.Unmarshal(raw, &existing); err != nil {
				return err
			}
			if existing.Version != room.Version {
				return store.ErrVersionConflict
			}
		}

		next := *room
		next.Version = room.Version + 1
		payload, err := json.Marshal(next)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, s.ttl)
			pipe.Set(ctx, codeKey(room.RoomID), room.SessionID, s.ttl)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		// Another writer slipped in between read and write.
		return store.ErrVersionConflict
	}
	if err != nil {
		return err
	}
	room.Version++
	return nil
}

func (s *RoomStore) FindRoomByCode(ctx context.Context, roomID string) (domain.Room, error) {
	sessionID, err := s.client.Get(ctx, codeKey(roomID)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.Room{}, store.ErrRoomNotFound
	}
	if err != nil {
		return domain.Room{}, err
	}
	room, err := s.GetRoom(ctx, sessionID)
	if err != nil {
		return domain.Room{}, err
	}
	if room.RoomID != roomID {
		return domain.Room{}, store.ErrRoomNotFound
	}
	return room, nil
}

func (s *RoomStore) ActiveCodeExists(ctx context.Context, roomID string) (bool, error) {
	room, err := s.FindRoomByCode(ctx, roomID)
	if errors.Is(err, store.ErrRoomNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !room.Finished, nil
}

// TeamStore persists teams as JSON blobs plus a per-session id set for the
// scoreboard query.
//
// Keys:
//
//	team:{sessionId}:{teamId} -> team JSON
//	teams:{sessionId}         -> set of team ids
type TeamStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewTeamStore(client *redis.Client, ttl time.Duration) *TeamStore {
	return &TeamStore{client: client, ttl: ttl}
}

func teamKey(sessionID, teamID string) string {
	return "team:" + sessionID + ":" + teamID
}

func teamSetKey(sessionID string) string {
	return "teams:" + sessionID
}

func (s *TeamStore) GetTeam(ctx context.Context, sessionID, teamID string) (domain.Team, error) {
	raw, err := s.client.Get(ctx, teamKey(sessionID, teamID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Team{}, store.ErrTeamNotFound
	}
	if err != nil {
		return domain.Team{}, err
	}
	var team domain.Team
	if err := json.Unmarshal(raw, &team); err != nil {
		return domain.Team{}, err
	}
	return team, nil
}

func (s *TeamStore) PutTeam(ctx context.Context, team domain.Team) error {
	payload, err := json.Marshal(team)
	if err != nil {
		return err
	}
	pipe := s.client.Pipeline()
	pipe.Set(ctx, teamKey(team.SessionID, team.TeamID), payload, s.ttl)
	pipe.SAdd(ctx, teamSetKey(team.SessionID), team.TeamID)
	if s.ttl > 0 {
		pipe.Expire(ctx, teamSetKey(team.SessionID), s.ttl)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *TeamStore) ListTeams(ctx context.Context, sessionID string) ([]domain.Team, error) {
	ids, err := s.client.SMembers(ctx, teamSetKey(sessionID)).Result()
	if err != nil {
		return nil, err
	}
	teams := make([]domain.Team, 0, len(ids))
	for _, id := range ids {
		team, err := s.GetTeam(ctx, sessionID, id)
		if errors.Is(err, store.ErrTeamNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		teams = append(teams, team)
	}
	return teams, nil
}

// ConnectionStore tracks live connections and a per-session membership set
// used for broadcast fan-out.
//
// Keys:
//
//	conn:{connectionId}       -> connection JSON
//	conns:session:{sessionId} -> set of connection ids
type ConnectionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewConnectionStore(client *redis.Client, ttl time.Duration) *ConnectionStore {
	return &ConnectionStore{client: client, ttl: ttl}
}

func connKey(connectionID string) string {
	return "conn:" + connectionID
}

func connSetKey(sessionID string) string {
	return "conns:session:" + sessionID
}

func (s *ConnectionStore) GetConnection(ctx context.Context, connectionID string) (domain.Connection, error) {
	raw, err := s.client.Get(ctx, connKey(connectionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Connection{}, store.ErrConnectionNotFound
	}
	if err != nil {
		return domain.Connection{}, err
	}
	var conn domain.Connection
	if err := json.Unmarshal(raw, &conn); err != nil {
		return domain.Connection{}, err
	}
	return conn, nil
}

func (s *ConnectionStore) PutConnection(ctx context.Context, conn domain.Connection) error {
	old, err := s.GetConnection(ctx, conn.ConnectionID)
	if err != nil && !errors.Is(err, store.ErrConnectionNotFound) {
		return err
	}

	payload, err := json.Marshal(conn)
	if err != nil {
		return err
	}
	pipe := s.client.Pipeline()
	if old.SessionID != "" && old.SessionID != conn.SessionID {
		pipe.SRem(ctx, connSetKey(old.SessionID), conn.ConnectionID)
	}
	pipe.Set(ctx, connKey(conn.ConnectionID), payload, s.ttl)
	if conn.SessionID != "" {
		pipe.SAdd(ctx, connSetKey(conn.SessionID), conn.ConnectionID)
		if s.ttl > 0 {
			pipe.Expire(ctx, connSetKey(conn.SessionID), s.ttl)
		}
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *ConnectionStore) DeleteConnection(ctx context.Context, connectionID string) error {
	conn, err := s.GetConnection(ctx, connectionID)
	if errors.Is(err, store.ErrConnectionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	pipe := s.client.Pipeline()
	if conn.SessionID != "" {
		pipe.SRem(ctx, connSetKey(conn.SessionID), connectionID)
	}
	pipe.Del(ctx, connKey(connectionID))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *ConnectionStore) ListSessionConnections(ctx context.Context, sessionID string) ([]domain.Connection, error) {
	ids, err := s.client.SMembers(ctx, connSetKey(sessionID)).Result()
	if err != nil {
		return nil, err
	}
	conns := make([]domain.Connection, 0, len(ids))
	for _, id := range ids {
		conn, err := s.GetConnection(ctx, id)
		if errors.Is(err, store.ErrConnectionNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		conns = append(conns, conn)
	}
	return conns, nil
}
