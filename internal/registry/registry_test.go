package registry_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/o-benz/SmartyShowdown-sub000/internal/models"
	"github.com/o-benz/SmartyShowdown-sub000/internal/registry"
)

func TestRoomRegistry_Create(t *testing.T) {
	r := registry.New()

	room := r.Create(&models.GameStats{Name: "quiz"})
	require.Len(t, room.Code, 4)
	require.True(t, room.IsOpen, "fresh rooms accept joins")
	require.False(t, room.IsStarted)
	require.Equal(t, models.DefaultTickDelay, room.TickDelay)

	require.Same(t, room, r.Get(room.Code))
}

func TestRoomRegistry_CodesAreUnique(t *testing.T) {
	r := registry.New()

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		room := r.Create(&models.GameStats{Name: "quiz"})
		require.False(t, seen[room.Code], "code %s issued twice", room.Code)
		seen[room.Code] = true
	}
	require.Equal(t, 200, r.Len())
}

func TestRoomRegistry_GetMissing(t *testing.T) {
	r := registry.New()
	require.Nil(t, r.Get("ZZZZ"))
}

func TestRoomRegistry_Delete(t *testing.T) {
	r := registry.New()
	room := r.Create(&models.GameStats{Name: "quiz"})

	r.Delete(room.Code)
	require.Nil(t, r.Get(room.Code))
	require.Zero(t, r.Len())

	// Deleting twice is a no-op.
	r.Delete(room.Code)
}
