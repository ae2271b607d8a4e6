package timer

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/o-benz/SmartyShowdown-sub000/internal/models"
)

const (
	// PanicDelay is the accelerated tick interval used near round expiry.
	PanicDelay = 250 * time.Millisecond

	// Panic activates only below a type-dependent amount of remaining
	// time; open-ended questions get a wider window than single-choice.
	panicThresholdSingleChoice = 5 * time.Second
	panicThresholdOpenEnded    = 10 * time.Second

	tickEvent = "tick"
)

// Broadcaster is the room-scoped fan-out the timer fires into. Timer
// callbacks are limited to read+broadcast; they never mutate scores.
type Broadcaster interface {
	EmitToRoom(roomCode, event string, payload any)
}

// TickPayload is the body of every round-timer tick broadcast.
type TickPayload struct {
	RoomCode string    `json:"room_code"`
	TickedAt time.Time `json:"ticked_at"`
}

// Manager drives the per-room round interval: start, pause/resume, panic
// acceleration and cancellation. It owns every live ticker, keyed by room
// code, and guarantees at most one per room.
type Manager struct {
	clock clockwork.Clock
	bc    Broadcaster

	mu      sync.Mutex
	tickers map[string]*handle
}

// handle is the owned timer state for one room. Replacement always stops
// the old handle before storing a new one.
type handle struct {
	stop chan struct{}
	done chan struct{}
}

// NewManager creates a timer manager. Pass clockwork.NewRealClock() in
// production and a FakeClock in tests.
func NewManager(clock clockwork.Clock, bc Broadcaster) *Manager {
	return &Manager{
		clock:   clock,
		bc:      bc,
		tickers: make(map[string]*handle),
	}
}

// SetTimer starts the room's interval at room.TickDelay, first clearing
// any interval already live for that code. Each firing broadcasts a
// room-scoped tick.
func (m *Manager) SetTimer(room *models.Room, roomCode string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replaceLocked(roomCode, room.TickDelay)
}

// replaceLocked stops any live ticker for roomCode and starts a new one
// at delay. Callers hold m.mu.
func (m *Manager) replaceLocked(roomCode string, delay time.Duration) {
	if h, ok := m.tickers[roomCode]; ok {
		h.cancel()
		log.Debug().Str("room_code", roomCode).Msg("replaced existing room ticker")
	}

	h := &handle{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	m.tickers[roomCode] = h

	go m.run(roomCode, delay, h)
}

// cancel stops the handle's loop and waits for it to exit, so a room can
// never tick from two intervals at once, even transiently.
func (h *handle) cancel() {
	close(h.stop)
	<-h.done
}

// run is the per-room tick loop. It exits when the handle is stopped.
func (m *Manager) run(roomCode string, delay time.Duration, h *handle) {
	ticker := m.clock.NewTicker(delay)
	defer func() {
		ticker.Stop()
		close(h.done)
	}()

	for {
		select {
		case <-h.stop:
			return
		case <-ticker.Chan():
			m.bc.EmitToRoom(roomCode, tickEvent, TickPayload{
				RoomCode: roomCode,
				TickedAt: m.clock.Now(),
			})
		}
	}
}

// PauseTimer toggles the room's interval. Pausing stops the ticking while
// preserving the configured delay; resuming recreates the interval at
// that same delay, making the operation its own exact inverse.
func (m *Manager) PauseTimer(room *models.Room, roomCode string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if room.IsPaused {
		room.IsPaused = false
		m.replaceLocked(roomCode, room.TickDelay)
		log.Info().Str("room_code", roomCode).Dur("delay", room.TickDelay).Msg("room timer resumed")
		return
	}

	room.IsPaused = true
	if h, ok := m.tickers[roomCode]; ok {
		h.cancel()
		delete(m.tickers, roomCode)
	}
	log.Info().Str("room_code", roomCode).Msg("room timer paused")
}

// PanicTimer switches the room to the accelerated panic delay when
// timeLeft is below the threshold for the question's type. A paused room
// is resumed in the process. Returns whether activation occurred, so the
// caller can suppress duplicate panic triggers.
func (m *Manager) PanicTimer(room *models.Room, roomCode string, timeLeft time.Duration, questionIndex int) bool {
	if room.Stats == nil || questionIndex < 0 || questionIndex >= len(room.Stats.Questions) {
		return false
	}

	threshold := panicThresholdSingleChoice
	if room.Stats.Questions[questionIndex].Type == models.QuestionTypeOpenEnded {
		threshold = panicThresholdOpenEnded
	}
	if timeLeft >= threshold {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	room.IsPaused = false
	room.TickDelay = PanicDelay
	m.replaceLocked(roomCode, PanicDelay)

	log.Info().
		Str("room_code", roomCode).
		Int("question", questionIndex).
		Dur("time_left", timeLeft).
		Msg("panic mode activated")
	return true
}

// Stop cancels the room's interval if one is live. Teardown calls this
// strictly before the registry entry is deleted so no dangling callback
// can reference a removed code.
func (m *Manager) Stop(roomCode string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if h, ok := m.tickers[roomCode]; ok {
		h.cancel()
		delete(m.tickers, roomCode)
		log.Debug().Str("room_code", roomCode).Msg("room ticker cancelled")
	}
}

// Active reports whether a live interval exists for roomCode.
func (m *Manager) Active(roomCode string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.tickers[roomCode]
	return ok
}
