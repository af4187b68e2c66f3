package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/roteiro/internal/adapters/redis"
	"github.com/aretw0/roteiro/pkg/domain"
	"github.com/aretw0/roteiro/pkg/ports/tests"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, opts ...redis.Option) (*redis.Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	store := redis.NewFromClient(client, opts...)
	t.Cleanup(func() { store.Close() })
	return store, mr
}

func TestStore_Contract(t *testing.T) {
	store, _ := newStore(t)
	tests.RunSessionStoreContract(t, store)
}

func TestStore_TTLExpiry(t *testing.T) {
	store, mr := newStore(t, redis.WithTTL(time.Minute))
	ctx := context.Background()

	state := domain.NewNavigationState("acme", "s1")
	state.SessionID = "op-1"
	require.NoError(t, store.Save(ctx, "op-1", state))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"op-1"}, ids)

	// Past the TTL the value is gone.
	mr.FastForward(2 * time.Minute)
	_, err = store.Load(ctx, "op-1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestStore_ListPrunesExpiredIndexEntries(t *testing.T) {
	store, mr := newStore(t, redis.WithTTL(time.Minute))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "op-live", domain.NewNavigationState("acme", "s1")))

	// An index entry whose expiry instant already passed, as left behind
	// by a session that expired while no one listed.
	mr.ZAdd("roteiro:session:index", float64(time.Now().Add(-time.Hour).Unix()), "op-stale")

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"op-live"}, ids)
}

func TestStore_Prefix(t *testing.T) {
	store, mr := newStore(t, redis.WithPrefix("custom:"))
	ctx := context.Background()

	state := domain.NewNavigationState("acme", "s1")
	require.NoError(t, store.Save(ctx, "op-1", state))

	assert.True(t, mr.Exists("custom:op-1"))
	assert.True(t, mr.Exists("custom:index"))
}
