package models

import "github.com/google/uuid"

// UserSession is one connected participant's per-room state. Created on
// successful login, removed on leave, ban or disconnect. Answered and
// FirstToAnswer are per-round flags reset on every question change.
type UserSession struct {
	ID            uuid.UUID `json:"id"`
	Username      string    `json:"username"`
	RoomCode      string    `json:"room_code"`
	Score         float64   `json:"score"`
	BonusCount    int       `json:"bonus_count"`
	Answered      bool      `json:"answered"`
	FirstToAnswer bool      `json:"first_to_answer"`
	HasLeft       bool      `json:"has_left"`
}

// NewUserSession creates a session for username joining roomCode.
func NewUserSession(username, roomCode string) *UserSession {
	return &UserSession{
		ID:       uuid.New(),
		Username: username,
		RoomCode: roomCode,
	}
}
