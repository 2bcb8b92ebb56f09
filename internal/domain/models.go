package domain

// Answer is one selectable option of a question. The order of answers on a
// question is fixed at build time and never reveals which one is correct.
type Answer struct {
	ID   string `json:"id"`
	Text string `json:"value"`
}

// Question models a multiple-choice question. AnswerID is the id of the single
// correct answer; it is stripped before the question is broadcast to teams.
type Question struct {
	ID       string   `json:"questionId"`
	Category string   `json:"category"`
	Text     string   `json:"questionText"`
	Answers  []Answer `json:"answers"`
	AnswerID string   `json:"answerId,omitempty"`
}

// Round is an ordered block of questions drawn from one category. Immutable
// after creation.
type Round struct {
	Index          int        `json:"roundIdx"`
	CategoryID     int        `json:"categoryId"`
	NumOfQuestions int        `json:"numOfQuestions"`
	Questions      []Question `json:"questions"`
}

// Room is one running quiz session. CurrentRound/CurrentQuestion only move
// forward while the game is started and not finished. Version backs the
// optimistic write in the room store.
type Room struct {
	SessionID        string  `json:"sessionId"`
	RoomID           string  `json:"roomId"`
	HostConnectionID string  `json:"hostConnectionId"`
	Rounds           []Round `json:"rounds"`
	CurrentRound     int     `json:"currentRound"`
	CurrentQuestion  int     `json:"currentQuestion"`
	Started          bool    `json:"started"`
	Finished         bool    `json:"finished"`
	Version          int64   `json:"version"`
}

// CurrentQuestionRef returns the question at the room's pointer.
func (r *Room) CurrentQuestionRef() Question {
	return r.Rounds[r.CurrentRound].Questions[r.CurrentQuestion]
}

// AtLastQuestion reports whether the pointer sits on the final question of the
// final round.
func (r *Room) AtLastQuestion() bool {
	return r.CurrentRound == len(r.Rounds)-1 &&
		r.CurrentQuestion == len(r.Rounds[r.CurrentRound].Questions)-1
}

// SubmittedAnswer records one accepted (question, answer) pair for a team.
type SubmittedAnswer struct {
	QuestionID string `json:"id"`
	AnswerID   string `json:"value"`
}

// Team is a joined participant. At most one submitted answer per question; the
// first accepted submission is final.
type Team struct {
	SessionID string            `json:"sessionId"`
	TeamID    string            `json:"teamId"`
	TeamName  string            `json:"teamName"`
	Score     int               `json:"score"`
	Answers   []SubmittedAnswer `json:"answers"`
}

// HasAnswered reports whether the team already answered the given question.
func (t *Team) HasAnswered(questionID string) bool {
	for _, a := range t.Answers {
		if a.QuestionID == questionID {
			return true
		}
	}
	return false
}

// TeamScore is the leaderboard projection of a team.
type TeamScore struct {
	TeamID   string `json:"teamId"`
	TeamName string `json:"teamName"`
	Score    int    `json:"score"`
}

// Connection binds a live transport connection to a session and role.
type Connection struct {
	ConnectionID string `json:"connectionId"`
	SessionID    string `json:"sessionId,omitempty"`
	IsHost       bool   `json:"isHost,omitempty"`
}
