// Package tests provides reusable contract suites for port implementations.
package tests

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/roteiro/pkg/domain"
	"github.com/aretw0/roteiro/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract verifies that a SessionStore implementation
// adheres to the interface contract.
func RunSessionStoreContract(t *testing.T, store ports.SessionStore) {
	ctx := context.Background()
	sessionID := "contract-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		state := domain.NewNavigationState("acme", "s1")
		state.BackStack = append(state.BackStack, "s0")

		err := store.Save(ctx, sessionID, state)
		require.NoError(t, err)

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "s1", loaded.CurrentStepID)
		assert.Equal(t, []string{"s0"}, loaded.BackStack)
		assert.False(t, loaded.Terminal)
	})

	t.Run("Load Isolation", func(t *testing.T) {
		state := domain.NewNavigationState("acme", "s1")
		require.NoError(t, store.Save(ctx, sessionID, state))

		first, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		first.BackStack = append(first.BackStack, "mutated")

		second, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Empty(t, second.BackStack, "mutating a loaded state must not leak into the store")
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "missing-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, domain.NewNavigationState("acme", "s1")))
		require.NoError(t, store.Delete(ctx, sessionID))

		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, store.Save(ctx, id1, domain.NewNavigationState("acme", "s1")))
		require.NoError(t, store.Save(ctx, id2, domain.NewNavigationState("acme", "s2")))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}

// RunStorageContract verifies that a Storage implementation adheres to the
// key-value contract used by the persist queue and repository.
func RunStorageContract(t *testing.T, storage ports.Storage) {
	ctx := context.Background()

	t.Run("Save and Load", func(t *testing.T) {
		require.NoError(t, storage.Save(ctx, "step:a", []byte(`{"id":"a"}`)))

		got, err := storage.Load(ctx, "step:a")
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":"a"}`, string(got))
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, storage.Save(ctx, "step:b", []byte("one")))
		require.NoError(t, storage.Save(ctx, "step:b", []byte("two")))

		got, err := storage.Load(ctx, "step:b")
		require.NoError(t, err)
		assert.Equal(t, "two", string(got))
	})

	t.Run("Load Missing", func(t *testing.T) {
		_, err := storage.Load(ctx, "step:absent")
		assert.ErrorIs(t, err, domain.ErrKeyNotFound)
	})

	t.Run("Delete Is Idempotent", func(t *testing.T) {
		require.NoError(t, storage.Save(ctx, "step:c", []byte("x")))
		require.NoError(t, storage.Delete(ctx, "step:c"))
		require.NoError(t, storage.Delete(ctx, "step:c"))

		_, err := storage.Load(ctx, "step:c")
		assert.ErrorIs(t, err, domain.ErrKeyNotFound)
	})

	t.Run("Keys By Prefix", func(t *testing.T) {
		require.NoError(t, storage.Save(ctx, "product:p1", []byte("x")))
		require.NoError(t, storage.Save(ctx, "product:p2", []byte("y")))

		keys, err := storage.Keys(ctx, "product:")
		require.NoError(t, err)
		assert.Contains(t, keys, "product:p1")
		assert.Contains(t, keys, "product:p2")

		keys, err = storage.Keys(ctx, "nothing:")
		require.NoError(t, err)
		assert.Empty(t, keys)
	})
}
