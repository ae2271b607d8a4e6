package timer_test

import (
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/o-benz/SmartyShowdown-sub000/internal/models"
	"github.com/o-benz/SmartyShowdown-sub000/internal/timer"
)

// emitRecorder counts room-scoped emits so tests can assert on tick
// delivery without a live websocket stack.
type emitRecorder struct {
	mu    sync.Mutex
	ticks map[string]int
}

func newEmitRecorder() *emitRecorder {
	return &emitRecorder{ticks: make(map[string]int)}
}

func (r *emitRecorder) EmitToRoom(roomCode, event string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ticks[roomCode]++
}

func (r *emitRecorder) count(roomCode string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ticks[roomCode]
}

func makeRoom(delay time.Duration) *models.Room {
	return &models.Room{
		Code:      "ROOM",
		TickDelay: delay,
		Stats: &models.GameStats{
			Questions: []models.QuestionStats{
				{Title: "q0", Type: models.QuestionTypeSingleChoice},
				{Title: "q1", Type: models.QuestionTypeOpenEnded},
			},
		},
	}
}

func TestManager_SetTimer_Ticks(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rec := newEmitRecorder()
	m := timer.NewManager(clock, rec)

	room := makeRoom(time.Second)
	m.SetTimer(room, room.Code)
	require.True(t, m.Active(room.Code))

	clock.BlockUntil(1)
	clock.Advance(time.Second)
	require.Eventually(t, func() bool {
		return rec.count(room.Code) == 1
	}, time.Second, time.Millisecond)

	clock.Advance(time.Second)
	require.Eventually(t, func() bool {
		return rec.count(room.Code) == 2
	}, time.Second, time.Millisecond)
}

func TestManager_SetTimer_ReplacesExistingInterval(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rec := newEmitRecorder()
	m := timer.NewManager(clock, rec)

	room := makeRoom(time.Second)
	m.SetTimer(room, room.Code)
	clock.BlockUntil(1)

	// The second SetTimer must fully stop the first interval before its
	// replacement starts, so ticks never double up.
	m.SetTimer(room, room.Code)
	clock.BlockUntil(1)

	clock.Advance(time.Second)
	require.Eventually(t, func() bool {
		return rec.count(room.Code) >= 1
	}, time.Second, time.Millisecond)
	require.Equal(t, 1, rec.count(room.Code))
}

func TestManager_PauseTimer_TogglesAndPreservesDelay(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rec := newEmitRecorder()
	m := timer.NewManager(clock, rec)

	room := makeRoom(2 * time.Second)
	m.SetTimer(room, room.Code)
	clock.BlockUntil(1)

	m.PauseTimer(room, room.Code)
	require.True(t, room.IsPaused)
	require.False(t, m.Active(room.Code))
	require.Equal(t, 2*time.Second, room.TickDelay, "pause must not disturb the configured delay")

	clock.Advance(10 * time.Second)
	require.Zero(t, rec.count(room.Code), "a paused room never ticks")

	m.PauseTimer(room, room.Code)
	require.False(t, room.IsPaused)
	require.True(t, m.Active(room.Code))

	clock.BlockUntil(1)
	clock.Advance(2 * time.Second)
	require.Eventually(t, func() bool {
		return rec.count(room.Code) == 1
	}, time.Second, time.Millisecond)
}

func TestManager_PanicTimer_Thresholds(t *testing.T) {
	tests := map[string]struct {
		questionIndex int
		timeLeft      time.Duration
		want          bool
	}{
		"single-choice above threshold": {questionIndex: 0, timeLeft: 6 * time.Second, want: false},
		"single-choice below threshold": {questionIndex: 0, timeLeft: 4 * time.Second, want: true},
		"open-ended above threshold":    {questionIndex: 1, timeLeft: 12 * time.Second, want: false},
		"open-ended below threshold":    {questionIndex: 1, timeLeft: 9 * time.Second, want: true},
		"question index out of range":   {questionIndex: 7, timeLeft: time.Second, want: false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			clock := clockwork.NewFakeClock()
			m := timer.NewManager(clock, newEmitRecorder())
			room := makeRoom(time.Second)

			got := m.PanicTimer(room, room.Code, tt.timeLeft, tt.questionIndex)
			require.Equal(t, tt.want, got)
			if tt.want {
				require.Equal(t, timer.PanicDelay, room.TickDelay)
				require.True(t, m.Active(room.Code))
			} else {
				require.Equal(t, time.Second, room.TickDelay)
			}
		})
	}
}

func TestManager_PanicTimer_ResumesPausedRoom(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rec := newEmitRecorder()
	m := timer.NewManager(clock, rec)

	room := makeRoom(time.Second)
	m.SetTimer(room, room.Code)
	clock.BlockUntil(1)
	m.PauseTimer(room, room.Code)
	require.True(t, room.IsPaused)

	require.True(t, m.PanicTimer(room, room.Code, 3*time.Second, 0))
	require.False(t, room.IsPaused, "panic overrides pause")
	require.True(t, m.Active(room.Code))

	clock.BlockUntil(1)
	clock.Advance(timer.PanicDelay)
	require.Eventually(t, func() bool {
		return rec.count(room.Code) == 1
	}, time.Second, time.Millisecond)
}

func TestManager_Stop(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rec := newEmitRecorder()
	m := timer.NewManager(clock, rec)

	room := makeRoom(time.Second)
	m.SetTimer(room, room.Code)
	clock.BlockUntil(1)

	m.Stop(room.Code)
	require.False(t, m.Active(room.Code))

	clock.Advance(5 * time.Second)
	require.Zero(t, rec.count(room.Code))

	// Stopping an unknown code is a no-op.
	m.Stop("NOPE")
}
