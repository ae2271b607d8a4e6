package models

// Answer is the add-answer command payload. It is never persisted; it only
// drives the StatLine toggle for the session that sent it.
type Answer struct {
	QuestionIndex int `json:"question_index"`
	ChoiceIndex   int `json:"choice_index"`
}
