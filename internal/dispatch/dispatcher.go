package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"trivia-host-service/internal/domain"
	"trivia-host-service/internal/events"
	"trivia-host-service/internal/game"
	"trivia-host-service/internal/store"
	"golang.org/x/sync/errgroup"
)

// Pusher delivers a payload to one live connection.
type Pusher interface {
	Push(ctx context.Context, connectionID string, payload []byte) error
}

type handlerFunc func(ctx context.Context, connectionID string, raw []byte) error

// Dispatcher is the single entry point for inbound events: it resolves the
// event type, enforces host-only authorization for privileged actions, replies
// to the sender and fans broadcast copies out to the session.
type Dispatcher struct {
	rooms     *game.RoomManager
	sequencer *game.Sequencer
	teams     *game.TeamRegistry
	conns     store.ConnectionStore
	pusher    Pusher
	handlers  map[events.Type]handlerFunc
}

func NewDispatcher(rooms *game.RoomManager, sequencer *game.Sequencer, teams *game.TeamRegistry, conns store.ConnectionStore, pusher Pusher) *Dispatcher {
	d := &Dispatcher{
		rooms:     rooms,
		sequencer: sequencer,
		teams:     teams,
		conns:     conns,
		pusher:    pusher,
	}
	d.handlers = map[events.Type]handlerFunc{
		events.TypePing:                d.handlePing,
		events.TypePingAll:             d.handlePingAll,
		events.TypeCreateRoom:          d.handleCreateRoom,
		events.TypeJoinRoom:            d.handleJoinRoom,
		events.TypeRejoinRoom:          d.handleRejoinRoom,
		events.TypeRejoinRoomHost:      d.handleRejoinRoomHost,
		events.TypeStartGame:           d.handleStartGame,
		events.TypeFinishGame:          d.handleFinishGame,
		events.TypePublishNextQuestion: d.handlePublishNextQuestion,
		events.TypeSubmitAnswer:        d.handleSubmitAnswer,
	}
	return d
}

// Dispatch processes one inbound message. It always acks the transport:
// domain failures travel back to the sender as ERROR events, anything else is
// logged and swallowed.
func (d *Dispatcher) Dispatch(ctx context.Context, connectionID string, raw []byte) {
	var envelope struct {
		Type events.Type `json:"type"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		log.Printf("dispatch: undecodable message from %s: %v", connectionID, err)
		return
	}

	handler, ok := d.handlers[envelope.Type]
	if !ok {
		log.Printf("dispatch: event type %q has no handler", envelope.Type)
		return
	}

	if err := handler(ctx, connectionID, raw); err != nil {
		var gameErr *domain.Error
		if errors.As(err, &gameErr) {
			d.sendError(ctx, connectionID, gameErr)
			return
		}
		log.Printf("dispatch: %s failed for %s: %v", envelope.Type, connectionID, err)
	}
}

func (d *Dispatcher) handlePing(ctx context.Context, connectionID string, raw []byte) error {
	var evt events.Ping
	if err := json.Unmarshal(raw, &evt); err != nil {
		return err
	}
	return d.send(ctx, connectionID, events.Ping{
		Type:      events.TypePing,
		SessionID: evt.SessionID,
		Message:   "You've been pinged",
	})
}

func (d *Dispatcher) handlePingAll(ctx context.Context, connectionID string, raw []byte) error {
	var evt events.Ping
	if err := json.Unmarshal(raw, &evt); err != nil {
		return err
	}
	d.broadcast(ctx, evt.SessionID, events.Ping{
		Type:      events.TypePing,
		SessionID: evt.SessionID,
		Message:   "Everyone's been pinged",
	})
	return nil
}

func (d *Dispatcher) handleCreateRoom(ctx context.Context, connectionID string, raw []byte) error {
	var evt events.CreateRoom
	if err := json.Unmarshal(raw, &evt); err != nil {
		return err
	}
	specs := make([]game.RoundSpec, 0, len(evt.Rounds))
	for _, r := range evt.Rounds {
		specs = append(specs, game.RoundSpec{CategoryID: r.CategoryID, NumOfQuestions: r.NumOfQuestions})
	}

	room, err := d.rooms.Create(ctx, specs, connectionID)
	if err != nil {
		return err
	}
	if err := d.bind(ctx, connectionID, room.SessionID, true); err != nil {
		return err
	}
	return d.send(ctx, connectionID, events.RoomCreated{
		Type:      events.TypeRoomCreated,
		SessionID: room.SessionID,
		RoomID:    room.RoomID,
		Rounds:    room.Rounds,
	})
}

func (d *Dispatcher) handleJoinRoom(ctx context.Context, connectionID string, raw []byte) error {
	var evt events.JoinRoom
	if err := json.Unmarshal(raw, &evt); err != nil {
		return err
	}
	team, err := d.teams.Join(ctx, evt.RoomID, evt.TeamName)
	if err != nil {
		return err
	}
	if err := d.bind(ctx, connectionID, team.SessionID, false); err != nil {
		return err
	}
	if err := d.send(ctx, connectionID, events.RoomJoined{
		Type:      events.TypeRoomJoined,
		SessionID: team.SessionID,
		TeamID:    team.TeamID,
		TeamName:  team.TeamName,
	}); err != nil {
		return err
	}
	// Broadcast copy carries the team name only.
	d.broadcast(ctx, team.SessionID, events.RoomJoined{
		Type:      events.TypeRoomJoined,
		SessionID: team.SessionID,
		TeamName:  team.TeamName,
	})
	return nil
}

func (d *Dispatcher) handleRejoinRoom(ctx context.Context, connectionID string, raw []byte) error {
	var evt events.RejoinRoom
	if err := json.Unmarshal(raw, &evt); err != nil {
		return err
	}
	team, err := d.rooms.RejoinAsTeam(ctx, evt.SessionID, evt.TeamID)
	if err != nil {
		return err
	}
	if err := d.bind(ctx, connectionID, evt.SessionID, false); err != nil {
		return err
	}
	if err := d.send(ctx, connectionID, events.RoomJoined{
		Type:      events.TypeRoomRejoined,
		SessionID: evt.SessionID,
		TeamID:    team.TeamID,
		TeamName:  team.TeamName,
	}); err != nil {
		return err
	}
	d.broadcast(ctx, evt.SessionID, events.RoomJoined{
		Type:      events.TypeRoomRejoined,
		SessionID: evt.SessionID,
		TeamName:  team.TeamName,
	})
	return nil
}

func (d *Dispatcher) handleRejoinRoomHost(ctx context.Context, connectionID string, raw []byte) error {
	var evt events.RejoinRoom
	if err := json.Unmarshal(raw, &evt); err != nil {
		return err
	}
	room, scores, err := d.rooms.RejoinAsHost(ctx, evt.SessionID, evt.RoomID)
	if err != nil {
		return err
	}
	if err := d.bind(ctx, connectionID, evt.SessionID, true); err != nil {
		return err
	}
	return d.send(ctx, connectionID, events.RoomHostRejoined{
		Type:        events.TypeRoomHostRejoined,
		SessionID:   evt.SessionID,
		RoomID:      room.RoomID,
		Rounds:      room.Rounds,
		Scores:      scores,
		GameStarted: room.Started,
	})
}

func (d *Dispatcher) handleStartGame(ctx context.Context, connectionID string, raw []byte) error {
	var evt events.StartGame
	if err := json.Unmarshal(raw, &evt); err != nil {
		return err
	}
	if err := d.requireHost(ctx, connectionID, evt.SessionID); err != nil {
		return err
	}
	if err := d.rooms.Start(ctx, evt.SessionID); err != nil {
		return err
	}
	d.broadcast(ctx, evt.SessionID, events.GameStarted{
		Type:      events.TypeGameStarted,
		SessionID: evt.SessionID,
	})
	return nil
}

func (d *Dispatcher) handleFinishGame(ctx context.Context, connectionID string, raw []byte) error {
	var evt events.FinishGame
	if err := json.Unmarshal(raw, &evt); err != nil {
		return err
	}
	if err := d.requireHost(ctx, connectionID, evt.SessionID); err != nil {
		return err
	}
	scores, err := d.rooms.Finish(ctx, evt.SessionID)
	if err != nil {
		return err
	}
	finished := events.GameFinished{
		Type:      events.TypeGameFinished,
		SessionID: evt.SessionID,
		Scores:    scores,
	}
	if err := d.send(ctx, connectionID, finished); err != nil {
		return err
	}
	d.broadcast(ctx, evt.SessionID, finished)
	return nil
}

func (d *Dispatcher) handlePublishNextQuestion(ctx context.Context, connectionID string, raw []byte) error {
	var evt events.PublishNextQuestion
	if err := json.Unmarshal(raw, &evt); err != nil {
		return err
	}
	if err := d.requireHost(ctx, connectionID, evt.SessionID); err != nil {
		return err
	}
	published, err := d.sequencer.PublishNext(ctx, evt.SessionID, evt.LastRoundNumber, evt.LastQuestionNumber)
	if err != nil {
		return err
	}
	out := events.QuestionPublished{
		Type:             events.TypeQuestionPublished,
		SessionID:        published.SessionID,
		Question:         published.Question,
		RoundNumber:      published.RoundNumber,
		QuestionNumber:   published.QuestionNumber,
		ExpiresInSeconds: published.ExpiresInSeconds,
		IsLastQuestion:   published.IsLastQuestion,
	}
	// The host keeps the correct answer id; everyone else gets the redacted copy.
	if err := d.send(ctx, connectionID, out); err != nil {
		return err
	}
	d.broadcast(ctx, evt.SessionID, out.Redacted())
	return nil
}

func (d *Dispatcher) handleSubmitAnswer(ctx context.Context, connectionID string, raw []byte) error {
	var evt events.SubmitAnswer
	if err := json.Unmarshal(raw, &evt); err != nil {
		return err
	}
	receipt, err := d.teams.SubmitAnswer(ctx, evt.SessionID, evt.TeamID, evt.QuestionID, evt.AnswerID)
	if err != nil {
		return err
	}
	// Answers are routed to the host only; teams never see each other's picks.
	return d.send(ctx, receipt.HostConnectionID, events.AnswerSubmitted{
		Type:             events.TypeAnswerSubmitted,
		SessionID:        receipt.SessionID,
		TeamID:           receipt.TeamID,
		TeamName:         receipt.TeamName,
		QuestionID:       receipt.QuestionID,
		AnswerID:         receipt.AnswerID,
		HostConnectionID: receipt.HostConnectionID,
	})
}

// requireHost verifies the sender's connection is bound to the session as its
// host.
func (d *Dispatcher) requireHost(ctx context.Context, connectionID, sessionID string) error {
	conn, err := d.conns.GetConnection(ctx, connectionID)
	if err != nil || conn.SessionID != sessionID || !conn.IsHost {
		return domain.NewError(domain.NotSessionOwner,
			fmt.Sprintf("connection '%s' is not the host of session '%s'", connectionID, sessionID))
	}
	return nil
}

func (d *Dispatcher) bind(ctx context.Context, connectionID, sessionID string, isHost bool) error {
	return d.conns.PutConnection(ctx, domain.Connection{
		ConnectionID: connectionID,
		SessionID:    sessionID,
		IsHost:       isHost,
	})
}

func (d *Dispatcher) send(ctx context.Context, connectionID string, event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return d.pusher.Push(ctx, connectionID, payload)
}

// broadcast delivers an event to every connection bound to the session. All
// deliveries run concurrently; a failed push never blocks the others.
func (d *Dispatcher) broadcast(ctx context.Context, sessionID string, event interface{}) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("broadcast: marshal: %v", err)
		return
	}
	conns, err := d.conns.ListSessionConnections(ctx, sessionID)
	if err != nil {
		log.Printf("broadcast: list connections for %s: %v", sessionID, err)
		return
	}

	var g errgroup.Group
	for _, conn := range conns {
		conn := conn
		g.Go(func() error {
			if err := d.pusher.Push(ctx, conn.ConnectionID, payload); err != nil {
				log.Printf("broadcast: push to %s: %v", conn.ConnectionID, err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (d *Dispatcher) sendError(ctx context.Context, connectionID string, gameErr *domain.Error) {
	if err := d.send(ctx, connectionID, events.NewError(gameErr)); err != nil {
		log.Printf("dispatch: error event to %s: %v", connectionID, err)
	}
}
