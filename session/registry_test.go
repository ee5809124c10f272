package session_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/skylineops/costview/session"
	"github.com/skylineops/costview/session/providerfake"
)

func TestRegistry_CreateAndGet(t *testing.T) {
	registry := session.NewRegistry(time.Hour)
	store := session.NewStore(providerfake.New())

	id := registry.Create(store)
	require.NotEmpty(t, id)

	got, ok := registry.Get(id)
	require.True(t, ok)
	require.Same(t, store, got)
}

func TestRegistry_UnknownID(t *testing.T) {
	registry := session.NewRegistry(time.Hour)

	_, ok := registry.Get("nope")
	require.False(t, ok)

	_, ok = registry.Get("")
	require.False(t, ok)
}

func TestRegistry_Delete(t *testing.T) {
	registry := session.NewRegistry(time.Hour)
	id := registry.Create(session.NewStore(providerfake.New()))

	registry.Delete(id)

	_, ok := registry.Get(id)
	require.False(t, ok)
}

func TestRegistry_ExpiredEntriesAreDropped(t *testing.T) {
	registry := session.NewRegistry(time.Millisecond)
	id := registry.Create(session.NewStore(providerfake.New()))

	time.Sleep(5 * time.Millisecond)

	_, ok := registry.Get(id)
	require.False(t, ok)
}

func TestRegistry_SweepRemovesIdleEntries(t *testing.T) {
	registry := session.NewRegistry(time.Millisecond)
	registry.Create(session.NewStore(providerfake.New()))
	registry.Create(session.NewStore(providerfake.New()))

	time.Sleep(5 * time.Millisecond)

	require.Equal(t, 2, registry.Sweep())
	require.Zero(t, registry.Sweep())
}

func TestRegistry_SweepEveryReapsAbandonedSessions(t *testing.T) {
	registry := session.NewRegistry(time.Millisecond)
	registry.Create(session.NewStore(providerfake.New()))
	registry.Create(session.NewStore(providerfake.New()))
	require.Equal(t, 2, registry.Len())

	stop := registry.SweepEvery(2 * time.Millisecond)
	defer stop()

	// Entries vanish without anyone presenting their IDs to Get.
	require.Eventually(t, func() bool { return registry.Len() == 0 },
		2*time.Second, 5*time.Millisecond)
}

func TestRegistry_SweepEveryStopIsIdempotent(t *testing.T) {
	registry := session.NewRegistry(time.Hour)

	stop := registry.SweepEvery(time.Millisecond)
	stop()
	stop()
}

func TestRegistry_DistinctIDs(t *testing.T) {
	registry := session.NewRegistry(time.Hour)

	first := registry.Create(session.NewStore(providerfake.New()))
	second := registry.Create(session.NewStore(providerfake.New()))
	require.NotEqual(t, first, second)
}
