package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/roteiro/internal/adapters/file"
	"github.com/aretw0/roteiro/internal/adapters/sqlite"
	"github.com/aretw0/roteiro/internal/config"
	"github.com/aretw0/roteiro/internal/logging"
	"github.com/aretw0/roteiro/pkg/adapters/memory"
	"github.com/aretw0/roteiro/pkg/domain"
)

func TestNewApp_Backends(t *testing.T) {
	ctx := context.Background()
	logger := logging.NewNop()

	t.Run("memory", func(t *testing.T) {
		cfg := config.Default()
		cfg.Storage = config.StorageConfig{Backend: config.BackendMemory}

		app, err := NewApp(ctx, cfg, logger)
		require.NoError(t, err)
		defer app.Close()

		assert.IsType(t, &memory.Storage{}, app.Storage)
	})

	t.Run("file", func(t *testing.T) {
		cfg := config.Default()
		cfg.Storage = config.StorageConfig{Backend: config.BackendFile, Path: t.TempDir()}

		app, err := NewApp(ctx, cfg, logger)
		require.NoError(t, err)
		defer app.Close()

		assert.IsType(t, &file.Storage{}, app.Storage)
	})

	t.Run("sqlite", func(t *testing.T) {
		cfg := config.Default()
		cfg.Storage = config.StorageConfig{
			Backend: config.BackendSQLite,
			Path:    filepath.Join(t.TempDir(), "roteiro.db"),
		}

		app, err := NewApp(ctx, cfg, logger)
		require.NoError(t, err)
		defer app.Close()

		assert.IsType(t, &sqlite.Storage{}, app.Storage)
	})

	t.Run("unknown", func(t *testing.T) {
		cfg := config.Default()
		cfg.Storage = config.StorageConfig{Backend: "tape"}

		_, err := NewApp(ctx, cfg, logger)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "tape")
	})
}

func TestNewApp_CloseFlushesRepository(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Storage = config.StorageConfig{Backend: config.BackendFile, Path: dir}

	app, err := NewApp(ctx, cfg, logging.NewNop())
	require.NoError(t, err)

	require.NoError(t, app.Repo.CreateStep(&domain.Step{ID: "s1", Title: "Hello", ProductID: "p1"}))
	require.NoError(t, app.Close())

	// A fresh app over the same directory sees the persisted step.
	reopened, err := NewApp(ctx, cfg, logging.NewNop())
	require.NoError(t, err)
	defer reopened.Close()

	step, err := reopened.Repo.GetStep("s1")
	require.NoError(t, err)
	assert.Equal(t, "Hello", step.Title)
}

func TestResolveProduct(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.Storage = config.StorageConfig{Backend: config.BackendMemory}

	app, err := NewApp(ctx, cfg, logging.NewNop())
	require.NoError(t, err)
	defer app.Close()

	_, err = resolveProduct(app, "")
	assert.ErrorContains(t, err, "no products")

	require.NoError(t, app.Repo.CreateProduct(&domain.Product{ID: "acme", Name: "ACME"}))
	id, err := resolveProduct(app, "")
	require.NoError(t, err)
	assert.Equal(t, "acme", id)

	require.NoError(t, app.Repo.CreateProduct(&domain.Product{ID: "beta", Name: "Beta"}))
	_, err = resolveProduct(app, "")
	assert.ErrorContains(t, err, "--product")

	id, err = resolveProduct(app, "beta")
	require.NoError(t, err)
	assert.Equal(t, "beta", id)

	_, err = resolveProduct(app, "ghost")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}
