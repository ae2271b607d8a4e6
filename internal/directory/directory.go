// Package directory holds the stateless validation and membership query
// helpers used by the session gateway: username validity, ban checks and
// room membership lookups.
package directory

import (
	"strings"

	"github.com/o-benz/SmartyShowdown-sub000/internal/models"
)

// RoomLookup is what the directory needs from the room arena.
type RoomLookup interface {
	Get(code string) *models.Room
}

// RoomConnections is the connection fan-out primitive the membership
// queries run against.
type RoomConnections interface {
	ConnectionIDsInRoom(code string) []string
}

// IsUserValid reports whether username may be taken in a room with the
// given sessions: non-empty, not the reserved organizer name, and unique
// case-insensitively among current sessions.
func IsUserValid(username string, sessions []*models.UserSession) bool {
	if username == "" {
		return false
	}
	if strings.EqualFold(username, models.OrganizerName) {
		return false
	}
	for _, s := range sessions {
		if !s.HasLeft && strings.EqualFold(s.Username, username) {
			return false
		}
	}
	return true
}

// IsLoginValid reports whether username may log into roomCode: the room
// must exist and the name must not be on its ban list.
func IsLoginValid(rooms RoomLookup, roomCode, username string) bool {
	room := rooms.Get(roomCode)
	if room == nil {
		return false
	}
	return !room.IsBanned(username)
}

// SocketsInRoom returns the connection ids currently joined to roomCode.
func SocketsInRoom(conns RoomConnections, roomCode string) []string {
	return conns.ConnectionIDsInRoom(roomCode)
}

// UsernamesInRoom returns the usernames of all sessions that have not
// left the room.
func UsernamesInRoom(room *models.Room) []string {
	if room == nil || room.Stats == nil {
		return nil
	}
	var names []string
	for _, u := range room.Stats.Users {
		if !u.HasLeft {
			names = append(names, u.Username)
		}
	}
	return names
}
