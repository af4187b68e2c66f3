package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/roteiro/internal/adapters/sqlite"
	"github.com/aretw0/roteiro/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStorage(t *testing.T) *sqlite.Storage {
	t.Helper()
	storage, err := sqlite.Open(filepath.Join(t.TempDir(), "roteiro.db"))
	require.NoError(t, err)
	t.Cleanup(func() { storage.Close() })
	return storage
}

func TestStorage_Contract(t *testing.T) {
	tests.RunStorageContract(t, openStorage(t))
}

func TestStorage_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "roteiro.db")

	storage, err := sqlite.Open(path)
	require.NoError(t, err)
	require.NoError(t, storage.Save(ctx, "step:s1", []byte(`{"id":"s1"}`)))
	require.NoError(t, storage.Close())

	reopened, err := sqlite.Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	value, err := reopened.Load(ctx, "step:s1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"id":"s1"}`), value)
}

func TestStorage_PrefixIsLiteral(t *testing.T) {
	ctx := context.Background()
	storage := openStorage(t)

	require.NoError(t, storage.Save(ctx, "a_c", []byte("1")))
	require.NoError(t, storage.Save(ctx, "abc", []byte("2")))

	// "_" in a prefix is a literal underscore, not a LIKE wildcard.
	keys, err := storage.Keys(ctx, "a_")
	require.NoError(t, err)
	assert.Equal(t, []string{"a_c"}, keys)
}
