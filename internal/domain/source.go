package domain

// SourceQuestion is raw question material from a question bank, before answer
// ids are assigned and the answer order is normalized.
type SourceQuestion struct {
	Category         string
	Text             string
	CorrectAnswer    string
	IncorrectAnswers []string
}
