package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocker(t *testing.T) (*Locker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	store := New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = store.Close() })
	return store.NewLocker(), mr
}

func TestLocker_MutualExclusion(t *testing.T) {
	locker, _ := newLocker(t)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "op-1", time.Minute)
	require.NoError(t, err)

	// A second holder cannot acquire while the first holds it.
	blockedCtx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(blockedCtx, "op-1", time.Minute)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// After release it acquires immediately.
	require.NoError(t, unlock(ctx))
	unlock2, err := locker.Lock(ctx, "op-1", time.Minute)
	require.NoError(t, err)
	require.NoError(t, unlock2(ctx))
}

func TestLocker_IndependentKeys(t *testing.T) {
	locker, _ := newLocker(t)
	ctx := context.Background()

	unlockA, err := locker.Lock(ctx, "op-a", time.Minute)
	require.NoError(t, err)
	defer unlockA(ctx)

	unlockB, err := locker.Lock(ctx, "op-b", time.Minute)
	require.NoError(t, err)
	defer unlockB(ctx)
}

func TestLocker_StaleUnlockIsNoop(t *testing.T) {
	locker, mr := newLocker(t)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "op-1", time.Minute)
	require.NoError(t, err)

	// The lock expires and another process grabs it.
	mr.FastForward(2 * time.Minute)
	unlock2, err := locker.Lock(ctx, "op-1", time.Minute)
	require.NoError(t, err)

	// The stale holder's unlock must not release the new holder's lock.
	require.NoError(t, unlock(ctx))
	assert.True(t, mr.Exists("roteiro:session:lock:op-1"))

	require.NoError(t, unlock2(ctx))
	assert.False(t, mr.Exists("roteiro:session:lock:op-1"))
}

func TestLocker_Serializes(t *testing.T) {
	locker, _ := newLocker(t)
	ctx := context.Background()

	var (
		mu      sync.Mutex
		holders int
		peak    int
		wg      sync.WaitGroup
	)

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(ctx, "op-1", time.Minute)
			require.NoError(t, err)
			defer unlock(ctx)

			mu.Lock()
			holders++
			if holders > peak {
				peak = holders
			}
			mu.Unlock()

			time.Sleep(10 * time.Millisecond)

			mu.Lock()
			holders--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, peak)
}
