package ws

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"trivia-host-service/internal/dispatch"
	"trivia-host-service/internal/domain"
	"trivia-host-service/internal/game"
	"trivia-host-service/internal/infra/memory"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	rooms := memory.NewRoomStore()
	teams := memory.NewTeamStore()
	conns := memory.NewConnectionStore()
	source := memory.NewStaticQuestionSource(map[int][]domain.SourceQuestion{
		23: {
			{Category: "History", Text: "first?", CorrectAnswer: "right", IncorrectAnswers: []string{"wrong a", "wrong b"}},
			{Category: "History", Text: "second?", CorrectAnswer: "right", IncorrectAnswers: []string{"wrong a", "wrong b"}},
		},
	})

	manager := game.NewRoomManager(rooms, teams, game.NewRoundBuilder(source), 4, game.ScoreSortAsc)
	sequencer := game.NewSequencer(rooms, 10)
	registry := game.NewTeamRegistry(rooms, teams)

	hub := NewHub()
	dispatcher := dispatch.NewDispatcher(manager, sequencer, registry, conns, hub)
	handler := NewHandler(dispatcher, conns, hub)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", handler.ServeWS)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil reads frames until one of the wanted type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, eventType string) map[string]any {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		_ = conn.SetReadDeadline(deadline)
		var msg map[string]any
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("waiting for %s: %v", eventType, err)
		}
		if msg["type"] == eventType {
			return msg
		}
	}
}

func TestWebSocketGameFlow(t *testing.T) {
	server := newTestServer(t)
	host := dial(t, server)
	team := dial(t, server)

	if err := host.WriteJSON(map[string]any{
		"type":   "CREATE_ROOM",
		"rounds": []map[string]any{{"categoryId": 23, "numOfQuestions": 2}},
	}); err != nil {
		t.Fatalf("create room: %v", err)
	}
	created := readUntil(t, host, "ROOM_CREATED")
	sessionID := created["sessionId"].(string)
	roomID := created["roomId"].(string)
	if sessionID == "" || len(roomID) != 4 {
		t.Fatalf("bad identifiers: %+v", created)
	}

	if err := team.WriteJSON(map[string]any{
		"type": "JOIN_ROOM", "roomId": roomID, "teamName": "Sockets",
	}); err != nil {
		t.Fatalf("join room: %v", err)
	}
	joined := readUntil(t, team, "ROOM_JOINED")
	teamID, _ := joined["teamId"].(string)
	if teamID == "" {
		t.Fatalf("join reply missing teamId: %+v", joined)
	}

	// The host sees the join broadcast without the team id.
	hostJoin := readUntil(t, host, "ROOM_JOINED")
	if _, ok := hostJoin["teamId"]; ok {
		t.Fatalf("broadcast leaked teamId: %+v", hostJoin)
	}

	if err := host.WriteJSON(map[string]any{"type": "START_GAME", "sessionId": sessionID}); err != nil {
		t.Fatalf("start game: %v", err)
	}
	readUntil(t, host, "GAME_STARTED")
	readUntil(t, team, "GAME_STARTED")

	if err := host.WriteJSON(map[string]any{"type": "PUBLISH_NEXT_QUESTION", "sessionId": sessionID}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	hostCopy := readUntil(t, host, "QUESTION_PUBLISHED")
	question := hostCopy["question"].(map[string]any)
	answerID, _ := question["answerId"].(string)
	if answerID == "" {
		t.Fatalf("host copy missing answerId: %+v", question)
	}
	teamCopy := readUntil(t, team, "QUESTION_PUBLISHED")
	if _, ok := teamCopy["question"].(map[string]any)["answerId"]; ok {
		t.Fatalf("team copy leaked answerId: %+v", teamCopy)
	}

	if err := team.WriteJSON(map[string]any{
		"type":       "SUBMIT_ANSWER",
		"sessionId":  sessionID,
		"teamId":     teamID,
		"questionId": question["questionId"],
		"answerId":   answerID,
	}); err != nil {
		t.Fatalf("submit answer: %v", err)
	}
	submitted := readUntil(t, host, "ANSWER_SUBMITTED")
	if submitted["teamId"] != teamID {
		t.Fatalf("unexpected answer receipt: %+v", submitted)
	}

	if err := host.WriteJSON(map[string]any{"type": "FINISH_GAME", "sessionId": sessionID}); err != nil {
		t.Fatalf("finish game: %v", err)
	}
	finished := readUntil(t, team, "GAME_FINISHED")
	scores, ok := finished["scores"].([]any)
	if !ok || len(scores) != 1 {
		t.Fatalf("expected one scoreboard entry: %+v", finished)
	}
	entry := scores[0].(map[string]any)
	if entry["teamName"] != "Sockets" || entry["score"].(float64) != 1 {
		t.Fatalf("unexpected score entry: %+v", entry)
	}
}

func TestWebSocketErrorEvent(t *testing.T) {
	server := newTestServer(t)
	conn := dial(t, server)

	if err := conn.WriteJSON(map[string]any{"type": "START_GAME", "sessionId": "nope"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	msg := readUntil(t, conn, "ERROR")
	if msg["errorCode"] != string(domain.NotSessionOwner) {
		t.Fatalf("expected NOT_SESSION_OWNER, got %+v", msg)
	}
	if msg["sessionId"] != nil {
		t.Fatalf("error event must carry null sessionId: %+v", msg)
	}
}
