package registry

import (
	"math/rand"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/o-benz/SmartyShowdown-sub000/internal/models"
)

const (
	codeLength   = 4
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// RoomRegistry owns the room-code -> Room arena. All handlers receive the
// registry explicitly; there is no ambient global room map.
type RoomRegistry struct {
	mu    sync.RWMutex
	rooms map[string]*models.Room
}

// New creates an empty registry.
func New() *RoomRegistry {
	return &RoomRegistry{
		rooms: make(map[string]*models.Room),
	}
}

// Create registers a new open, unstarted room seeded with stats and
// returns it. The generated code is unique among live rooms.
func (r *RoomRegistry) Create(stats *models.GameStats) *models.Room {
	r.mu.Lock()
	defer r.mu.Unlock()

	code := r.generateCode()
	room := &models.Room{
		Code:      code,
		IsOpen:    true,
		Stats:     stats,
		TickDelay: models.DefaultTickDelay,
	}
	r.rooms[code] = room

	log.Info().Str("room_code", code).Str("quiz", stats.Name).Msg("room created")
	return room
}

// Get returns the room for code, or nil if it does not exist. Commands can
// race room destruction, so callers treat nil as a benign no-op.
func (r *RoomRegistry) Get(code string) *models.Room {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rooms[code]
}

// Delete removes the room for code from the arena. The caller must have
// cancelled the room's timer first.
func (r *RoomRegistry) Delete(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[code]; !ok {
		return
	}
	delete(r.rooms, code)
	log.Info().Str("room_code", code).Msg("room removed from registry")
}

// Len returns the number of live rooms.
func (r *RoomRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// generateCode draws codes until one is free. Callers hold r.mu.
func (r *RoomRegistry) generateCode() string {
	buf := make([]byte, codeLength)
	for {
		for i := range buf {
			buf[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
		}
		code := string(buf)
		if _, taken := r.rooms[code]; !taken {
			return code
		}
	}
}
