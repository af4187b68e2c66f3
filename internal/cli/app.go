// Package cli wires the roteiro components together for the command
// line: storage backends, the step repository, the navigator and the
// session manager, built from a single Config.
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/roteiro/internal/adapters/file"
	"github.com/aretw0/roteiro/internal/adapters/redis"
	"github.com/aretw0/roteiro/internal/adapters/sqlite"
	"github.com/aretw0/roteiro/internal/config"
	"github.com/aretw0/roteiro/internal/runtime"
	"github.com/aretw0/roteiro/pkg/adapters/memory"
	"github.com/aretw0/roteiro/pkg/persist"
	"github.com/aretw0/roteiro/pkg/persistence/middleware"
	"github.com/aretw0/roteiro/pkg/ports"
	"github.com/aretw0/roteiro/pkg/repository"
	"github.com/aretw0/roteiro/pkg/session"
)

// App bundles the long-lived components every command needs.
type App struct {
	Config   config.Config
	Storage  ports.Storage
	Bus      *persist.Bus
	Repo     *repository.Repository
	Nav      *runtime.Navigator
	Sessions *session.Manager
	Logger   *slog.Logger

	closers      []func() error
	sessionStore ports.SessionStore
	watchable    ports.Watchable
}

// Watchable returns the storage backend's change notifier, or nil when
// the backend cannot watch. Middleware wrapping does not hide it.
func (a *App) Watchable() ports.Watchable {
	return a.watchable
}

// AppOption customizes App construction.
type AppOption func(*App)

// WithSessionStore injects a session store instead of opening one from
// the config. Watch mode uses this to keep sessions alive across
// repository reloads.
func WithSessionStore(store ports.SessionStore) AppOption {
	return func(a *App) { a.sessionStore = store }
}

// NewApp builds the component graph described by cfg. The caller must
// Close the returned App to flush pending writes.
func NewApp(ctx context.Context, cfg config.Config, logger *slog.Logger, opts ...AppOption) (*App, error) {
	app := &App{Config: cfg, Logger: logger}
	for _, opt := range opts {
		opt(app)
	}

	storage, err := app.openStorage(cfg.Storage)
	if err != nil {
		return nil, err
	}
	app.Storage = storage
	app.Bus = persist.NewBus()

	repo, err := repository.New(ctx, storage, app.Bus, repository.WithLogger(logger))
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("opening repository: %w", err)
	}
	app.Repo = repo

	navOpts := []runtime.Option{runtime.WithLogger(logger)}
	if cfg.HistoryLimit > 0 {
		navOpts = append(navOpts, runtime.WithHistoryLimit(cfg.HistoryLimit))
	}
	app.Nav = runtime.NewNavigator(repo, navOpts...)

	store := app.sessionStore
	if store == nil {
		store = app.openSessionStore(cfg.Redis)
	}
	sessionOpts := []session.Option{session.WithLogger(logger)}
	if rs, ok := store.(*redis.Store); ok {
		// Replicated deployments share the store, so session access is
		// also serialized across processes.
		sessionOpts = append(sessionOpts, session.WithDistributedLocker(rs.NewLocker()))
	}
	app.Sessions = session.NewManager(app.Nav, store, sessionOpts...)

	return app, nil
}

func (a *App) openStorage(cfg config.StorageConfig) (ports.Storage, error) {
	var storage ports.Storage
	switch cfg.Backend {
	case config.BackendMemory:
		storage = memory.NewStorage()
	case config.BackendFile:
		storage = file.New(cfg.Path)
	case config.BackendSQLite:
		s, err := sqlite.Open(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite storage: %w", err)
		}
		a.closers = append(a.closers, s.Close)
		storage = s
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
	if w, ok := storage.(ports.Watchable); ok {
		a.watchable = w
	}

	var mws []middleware.Middleware
	if cfg.MaskPII {
		mws = append(mws, middleware.NewPIIMiddleware([]string{middleware.CPFPattern}))
	}
	if key := cfg.EncryptionKeyBytes(); key != nil {
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}))
	}
	if len(mws) > 0 {
		storage = middleware.Chain(mws...)(storage)
	}
	return storage, nil
}

func (a *App) openSessionStore(cfg config.RedisConfig) ports.SessionStore {
	if cfg.Addr == "" {
		return memory.NewSessionStore()
	}
	opts := []redis.Option{redis.WithTTL(cfg.TTL)}
	if cfg.Prefix != "" {
		opts = append(opts, redis.WithPrefix(cfg.Prefix))
	}
	store := redis.New(cfg.Addr, cfg.Password, cfg.DB, opts...)
	a.closers = append(a.closers, store.Close)
	a.Logger.Info("using redis session store", "addr", cfg.Addr)
	return store
}

// Close flushes the repository and releases every backend in reverse
// open order.
func (a *App) Close() error {
	if a.Repo != nil {
		a.Repo.Close()
	}
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
