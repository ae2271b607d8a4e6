package models

import (
	"strings"
	"time"
)

// OrganizerName is the reserved username for the room organizer. It is
// excluded from ordinary uniqueness/validity checks and carries the
// privileged commands (start, lock, ban, advance question).
const OrganizerName = "organizer"

// DefaultTickDelay is the base round-timer interval for a freshly
// created room.
const DefaultTickDelay = time.Second

// Room is the authoritative per-session state, keyed by room code.
type Room struct {
	Code      string `json:"code"`
	IsOpen    bool   `json:"is_open"`
	IsStarted bool   `json:"is_started"`
	IsPaused  bool   `json:"is_paused"`

	// Banned usernames persist for the room's full lifetime and are
	// matched case-insensitively.
	Banned []string `json:"banned"`

	Messages []RoomMessage `json:"messages"`
	Stats    *GameStats    `json:"stats"`

	// TickDelay is the current round-timer interval. Panic mode swaps it
	// for an accelerated delay; pause preserves it.
	TickDelay time.Duration `json:"tick_delay"`
}

// RoomMessage is one entry in the room's ordered chat log.
type RoomMessage struct {
	Username string    `json:"username"`
	Text     string    `json:"text"`
	SentAt   time.Time `json:"sent_at"`
}

// IsBanned reports whether username is on the room's ban list,
// case-insensitively.
func (r *Room) IsBanned(username string) bool {
	for _, b := range r.Banned {
		if strings.EqualFold(b, username) {
			return true
		}
	}
	return false
}

// Participants counts sessions that have not left, excluding the organizer.
func (r *Room) Participants() int {
	if r.Stats == nil {
		return 0
	}
	n := 0
	for _, u := range r.Stats.Users {
		if !u.HasLeft && !strings.EqualFold(u.Username, OrganizerName) {
			n++
		}
	}
	return n
}
