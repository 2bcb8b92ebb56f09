package events

import (
	"trivia-host-service/internal/domain"
)

// Type discriminates inbound and outbound events.
type Type string

const (
	TypeError Type = "ERROR"

	TypePing    Type = "PING"
	TypePingAll Type = "PING_ALL"

	TypeCreateRoom  Type = "CREATE_ROOM"
	TypeRoomCreated Type = "ROOM_CREATED"

	TypeJoinRoom   Type = "JOIN_ROOM"
	TypeRoomJoined Type = "ROOM_JOINED"

	TypeRejoinRoomHost   Type = "REJOIN_ROOM_HOST"
	TypeRoomHostRejoined Type = "ROOM_HOST_REJOINED"

	TypeRejoinRoom   Type = "REJOIN_ROOM"
	TypeRoomRejoined Type = "ROOM_REJOINED"

	TypeStartGame   Type = "START_GAME"
	TypeGameStarted Type = "GAME_STARTED"

	TypeFinishGame   Type = "FINISH_GAME"
	TypeGameFinished Type = "GAME_FINISHED"

	TypePublishNextQuestion Type = "PUBLISH_NEXT_QUESTION"
	TypeQuestionPublished   Type = "QUESTION_PUBLISHED"

	TypeSubmitAnswer    Type = "SUBMIT_ANSWER"
	TypeAnswerSubmitted Type = "ANSWER_SUBMITTED"
)

// CreateRoundSpec is one requested round in a CREATE_ROOM event.
type CreateRoundSpec struct {
	CategoryID     int `json:"categoryId"`
	NumOfQuestions int `json:"numOfQuestions"`
}

type CreateRoom struct {
	Type   Type              `json:"type"`
	Rounds []CreateRoundSpec `json:"rounds"`
}

type RoomCreated struct {
	Type      Type           `json:"type"`
	SessionID string         `json:"sessionId"`
	RoomID    string         `json:"roomId"`
	Rounds    []domain.Round `json:"rounds"`
}

type JoinRoom struct {
	Type     Type   `json:"type"`
	RoomID   string `json:"roomId"`
	TeamName string `json:"teamName"`
}

type RoomJoined struct {
	Type      Type   `json:"type"`
	SessionID string `json:"sessionId"`
	TeamID    string `json:"teamId,omitempty"`
	TeamName  string `json:"teamName"`
}

type RejoinRoom struct {
	Type      Type   `json:"type"`
	SessionID string `json:"sessionId"`
	RoomID    string `json:"roomId,omitempty"`
	TeamID    string `json:"teamId,omitempty"`
}

type RoomHostRejoined struct {
	Type        Type               `json:"type"`
	SessionID   string             `json:"sessionId"`
	RoomID      string             `json:"roomId"`
	Rounds      []domain.Round     `json:"rounds"`
	Scores      []domain.TeamScore `json:"scores"`
	GameStarted bool               `json:"gameStarted"`
}

type StartGame struct {
	Type      Type   `json:"type"`
	SessionID string `json:"sessionId"`
}

type GameStarted struct {
	Type      Type   `json:"type"`
	SessionID string `json:"sessionId"`
}

type FinishGame struct {
	Type      Type   `json:"type"`
	SessionID string `json:"sessionId"`
}

type GameFinished struct {
	Type      Type               `json:"type"`
	SessionID string             `json:"sessionId"`
	Scores    []domain.TeamScore `json:"scores"`
}

type PublishNextQuestion struct {
	Type               Type   `json:"type"`
	SessionID          string `json:"sessionId"`
	LastRoundNumber    *int   `json:"lastRoundNumber,omitempty"`
	LastQuestionNumber *int   `json:"lastQuestionNumber,omitempty"`
}

type QuestionPublished struct {
	Type             Type            `json:"type"`
	SessionID        string          `json:"sessionId"`
	Question         domain.Question `json:"question"`
	RoundNumber      int             `json:"roundNumber"`
	QuestionNumber   int             `json:"questionNumber"`
	ExpiresInSeconds int             `json:"expiresInSeconds"`
	IsLastQuestion   bool            `json:"isLastQuestion"`
}

// Redacted returns the broadcast copy with the correct answer id stripped.
func (e QuestionPublished) Redacted() QuestionPublished {
	e.Question.AnswerID = ""
	return e
}

type SubmitAnswer struct {
	Type       Type   `json:"type"`
	SessionID  string `json:"sessionId"`
	TeamID     string `json:"teamId"`
	QuestionID string `json:"questionId"`
	AnswerID   string `json:"answerId"`
}

type AnswerSubmitted struct {
	Type             Type   `json:"type"`
	SessionID        string `json:"sessionId"`
	TeamID           string `json:"teamId"`
	TeamName         string `json:"teamName"`
	QuestionID       string `json:"questionId"`
	AnswerID         string `json:"answerId"`
	HostConnectionID string `json:"hostConnectionId"`
}

type Ping struct {
	Type      Type   `json:"type"`
	SessionID string `json:"sessionId,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Error is the sender-directed failure event. SessionID is always null on the
// wire.
type Error struct {
	Type      Type             `json:"type"`
	SessionID *string          `json:"sessionId"`
	ErrorCode domain.ErrorCode `json:"errorCode"`
	Message   string           `json:"message"`
}

// NewError converts a domain error into its wire event.
func NewError(err *domain.Error) Error {
	return Error{Type: TypeError, ErrorCode: err.Code, Message: err.Message}
}
