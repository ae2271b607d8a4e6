package gateway

import (
	"encoding/json"
	"time"
)

// Broadcast event names. Every server-to-client message is one of these,
// wrapped in an Event envelope.
const (
	EventRoomCreated     = "room-created"
	EventJoinRoomAck     = "join-room-ack"
	EventLoginAck        = "login-ack"
	EventJoinedRoom      = "joined-room"
	EventLeftRoom        = "left-room"
	EventRoomClosed      = "room-closed"
	EventRoomMessage     = "room-message"
	EventGameStarted     = "game-started"
	EventChangeQuestion  = "change-question"
	EventFinalizeAnswers = "finalize-answers"
	EventEndRound        = "end-round"
	EventEndCorrection   = "end-correction"
	EventShowResults     = "show-results"
	EventAnswerIndex     = "answer-index"
	EventStats           = "stats"
	EventUserInfo        = "user-info"
	EventMessages        = "messages"
	EventHeartbeat       = "heartbeat"
	EventRejected        = "rejected"
)

// Event is the envelope for every broadcast.
type Event struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// NewEvent wraps payload into an envelope of the given type.
func NewEvent(eventType string, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}, nil
}
