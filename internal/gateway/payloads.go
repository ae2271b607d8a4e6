package gateway

import "time"

// Event payload types for the broadcast set.

// RoomCreatedPayload is sent to the organizer once the room is registered.
type RoomCreatedPayload struct {
	RoomCode string `json:"room_code"`
	QuizName string `json:"quiz_name"`
}

// AckPayload answers join-room and login commands, and carries every
// structured rejection. Rejections go to the caller only, never the room.
type AckPayload struct {
	Joined  bool   `json:"joined"`
	Message string `json:"message,omitempty"`
}

// UserPayload names the subject of joined-room and left-room broadcasts.
type UserPayload struct {
	Username string `json:"username"`
}

// RoomMessagePayload is one chat message fanned out to the room.
type RoomMessagePayload struct {
	Username string    `json:"username"`
	Text     string    `json:"text"`
	SentAt   time.Time `json:"sent_at"`
}

// AnswerIndexPayload is the index-only selection update sent to the
// organizer's connection alone, so tallies never leak to other players.
type AnswerIndexPayload struct {
	QuestionIndex int `json:"question_index"`
	ChoiceIndex   int `json:"choice_index"`
}

// QuestionPayload accompanies change-question, finalize-answers and
// end-round broadcasts.
type QuestionPayload struct {
	QuestionIndex int `json:"question_index"`
}

// HeartbeatPayload drives client-local countdown rendering at a fixed
// cadence, independent of any room's round timer.
type HeartbeatPayload struct {
	SentAt time.Time `json:"sent_at"`
}

// RejectionPayload is the structured rejection for a failed privileged or
// malformed command. It is emitted to the caller only.
type RejectionPayload struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}
