package domain

// ErrorCode is the closed set of recoverable game error kinds. Codes travel on
// the wire inside ERROR events.
type ErrorCode string

const (
	NotSessionOwner         ErrorCode = "NOT_SESSION_OWNER"
	RoomNotFound            ErrorCode = "ROOM_NOT_FOUND"
	TeamNotFound            ErrorCode = "TEAM_NOT_FOUND"
	InvalidSessionID        ErrorCode = "INVALID_SESSION_ID"
	GameNotStarted          ErrorCode = "GAME_NOT_STARTED"
	GameAlreadyStarted      ErrorCode = "GAME_ALREADY_STARTED" // reserved, start stays idempotent
	GameFinished            ErrorCode = "GAME_FINISHED"
	QuestionAlreadyAnswered ErrorCode = "QUESTION_ALREADY_ANSWERED"
	QuestionExpired         ErrorCode = "QUESTION_EXPIRED"
	InvalidAnswerID         ErrorCode = "INVALID_ANSWER_ID"
	UpstreamUnavailable     ErrorCode = "UPSTREAM_UNAVAILABLE"
	InvalidRoomSpec         ErrorCode = "INVALID_ROOM_SPEC"
)

// Error is a game error carrying a wire code. The dispatcher converts these
// into ERROR events for the sender; anything else is logged and swallowed.
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

// NewError builds a game error for the given code.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}
