package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/roteiro/pkg/adapters/memory"
	"github.com/aretw0/roteiro/pkg/persistence/middleware"
)

func generateKey(t *testing.T) []byte {
	t.Helper()
	k := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStorage()
	key := generateKey(t)

	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
	secure := mw(underlying)

	plain := []byte(`{"id":"s1","title":"Saudação"}`)
	require.NoError(t, secure.Save(ctx, "step:s1", plain))

	// The backend sees only the sealed envelope.
	stored, err := underlying.Load(ctx, "step:s1")
	require.NoError(t, err)
	assert.NotContains(t, string(stored), "Saudação")
	assert.True(t, len(stored) > len(plain))

	// Loading through the middleware restores the plaintext.
	got, err := secure.Load(ctx, "step:s1")
	require.NoError(t, err)
	assert.Equal(t, plain, got)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStorage()
	oldKey := generateKey(t)
	newKey := generateKey(t)

	oldStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})(underlying)
	require.NoError(t, oldStore.Save(ctx, "step:s1", []byte("legacy")))

	// New active key, old key demoted to fallback.
	rotated := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(underlying)

	got, err := rotated.Load(ctx, "step:s1")
	require.NoError(t, err)
	assert.Equal(t, []byte("legacy"), got)

	// Without the fallback the old record is unreadable.
	strict := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: newKey})(underlying)
	_, err = strict.Load(ctx, "step:s1")
	assert.Error(t, err)
}

func TestEncryptionMiddleware_RejectsPlaintextRecords(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStorage()
	require.NoError(t, underlying.Save(ctx, "step:s1", []byte("not sealed")))

	secure := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)

	_, err := secure.Load(ctx, "step:s1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "envelope")
}

func TestEncryptionMiddleware_PanicsOnShortKey(t *testing.T) {
	assert.Panics(t, func() {
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short")})
	})
}
