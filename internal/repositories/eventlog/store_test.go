package eventlog_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/dnd-tactics/internal/battle"
	dnderr "github.com/KirkDiggler/dnd-tactics/internal/errors"
	"github.com/KirkDiggler/dnd-tactics/internal/repositories/eventlog"
)

func openStore(t *testing.T) *eventlog.Store {
	t.Helper()
	store, err := eventlog.Open(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func event(n int) battle.Event {
	return battle.Event{
		ID:        fmt.Sprintf("evt-%d", n),
		Timestamp: time.Date(2026, 5, 1, 12, 0, n, 0, time.UTC),
		Round:     1,
		Actor:     "Fighter",
		Action:    battle.ActionAttack,
		Target:    "Goblin",
		Result:    "Hit! 9 damage",
		Damage:    9,
	}
}

func TestStore_AppendAndList(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	for i := 1; i <= 5; i++ {
		require.NoError(t, store.Append(ctx, "crypt", event(i)))
	}
	require.NoError(t, store.Append(ctx, "tower", event(1)))

	all, err := store.List(ctx, "crypt", 0)
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, event(1), all[0])
	assert.Equal(t, event(5), all[4])

	recent, err := store.List(ctx, "crypt", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "evt-4", recent[0].ID)
	assert.Equal(t, "evt-5", recent[1].ID)

	tower, err := store.List(ctx, "tower", 10)
	require.NoError(t, err)
	assert.Len(t, tower, 1)

	none, err := store.List(ctx, "keep", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStore_OptionalFields(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	e := battle.Event{
		ID:        "evt-1",
		Timestamp: time.Date(2026, 5, 1, 12, 0, 0, int(250*time.Millisecond), time.UTC),
		Round:     0,
		Actor:     battle.SystemActor,
		Action:    battle.ActionBattleStart,
		Result:    "Battle started! Initiative order is set.",
	}
	require.NoError(t, store.Append(ctx, "crypt", e))

	got, err := store.List(ctx, "crypt", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, e, got[0])
}

func TestStore_DuplicateEvent(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	require.NoError(t, store.Append(ctx, "crypt", event(1)))
	err := store.Append(ctx, "crypt", event(1))
	require.Error(t, err)
	assert.True(t, dnderr.IsAlreadyExists(err))
}

func TestStore_Validation(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	assert.True(t, dnderr.IsInvalidArgument(store.Append(ctx, " ", event(1))))
	assert.True(t, dnderr.IsInvalidArgument(store.Append(ctx, "crypt", battle.Event{})))

	_, err := eventlog.Open("  ")
	assert.True(t, dnderr.IsInvalidArgument(err))
}

func TestStore_CanceledContext(t *testing.T) {
	store := openStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, store.Append(ctx, "crypt", event(1)), context.Canceled)
	_, err := store.List(ctx, "crypt", 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "events.db")

	store, err := eventlog.Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Append(ctx, "crypt", event(1)))
	require.NoError(t, store.Close())

	reopened, err := eventlog.Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.List(ctx, "crypt", 0)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestStore_NilStoreIsSafe(t *testing.T) {
	var store *eventlog.Store
	assert.NoError(t, store.Close())
	assert.True(t, dnderr.IsFailedPrecondition(store.Append(context.Background(), "crypt", event(1))))
}
