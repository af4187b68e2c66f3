package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/aretw0/roteiro/internal/logging"
	"github.com/aretw0/roteiro/internal/runtime"
	"github.com/aretw0/roteiro/pkg/domain"
	"github.com/aretw0/roteiro/pkg/ports"
	"github.com/aretw0/roteiro/pkg/render"
)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager serializes access to operator sessions. Each operation loads the
// session state, applies the navigation rules, and saves the result while
// holding a per-session lock, so two tabs of the same operator cannot
// interleave half-applied transitions. Locks are reference counted and
// garbage collected when the last holder releases.
type Manager struct {
	nav   *runtime.Navigator
	store ports.SessionStore

	mu    sync.Mutex
	locks map[string]*lockEntry

	dlock   ports.DistributedLocker
	lockTTL time.Duration

	logger *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithDistributedLocker layers a cross-process lock on top of the
// in-process one, for deployments running several API replicas against
// a shared session store.
func WithDistributedLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.dlock = locker
	}
}

// NewManager creates a session manager over the given navigator and store.
func NewManager(nav *runtime.Navigator, store ports.SessionStore, opts ...Option) *Manager {
	m := &Manager{
		nav:     nav,
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: 30 * time.Second,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after
// unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it
// reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// WithLock executes a function while holding the in-process lock for
// the session. Cross-process locking, when configured, is applied by
// the orchestration operations, not here.
func (m *Manager) WithLock(sessionID string, fn func() error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	return fn()
}

// withLock holds the in-process lock and, when a distributed locker is
// configured, the cross-process lock as well.
func (m *Manager) withLock(ctx context.Context, sessionID string, fn func() error) error {
	return m.WithLock(sessionID, func() error {
		if m.dlock == nil {
			return fn()
		}
		unlock, err := m.dlock.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("acquire session lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("failed to release session lock", "session_id", sessionID, "err", err)
			}
		}()
		return fn()
	})
}

// Start opens a session at the product's first step, replacing any previous
// state under the same session ID.
func (m *Manager) Start(ctx context.Context, sessionID, productID string) (*domain.NavigationState, error) {
	var state *domain.NavigationState
	err := m.withLock(ctx, sessionID, func() error {
		var err error
		state, err = m.nav.Start(productID)
		if err != nil {
			return err
		}
		state.SessionID = sessionID
		if err := m.store.Save(ctx, sessionID, state); err != nil {
			return fmt.Errorf("initialize session: %w", err)
		}
		return nil
	})
	return state, err
}

// Load retrieves an existing session's state.
func (m *Manager) Load(ctx context.Context, sessionID string) (*domain.NavigationState, error) {
	var state *domain.NavigationState
	err := m.withLock(ctx, sessionID, func() error {
		var err error
		state, err = m.store.Load(ctx, sessionID)
		return err
	})
	return state, err
}

// Advance moves the session forward through one button and persists the
// result. The returned state is the post-transition snapshot.
func (m *Manager) Advance(ctx context.Context, sessionID, buttonID string) (*domain.NavigationState, error) {
	var state *domain.NavigationState
	err := m.withLock(ctx, sessionID, func() error {
		var err error
		state, err = m.store.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		state, err = m.nav.Advance(state, buttonID)
		if err != nil {
			return err
		}
		return m.store.Save(ctx, sessionID, state)
	})
	return state, err
}

// Back pops one step of navigation history. It reports false, without
// error, when there is nothing to go back to.
func (m *Manager) Back(ctx context.Context, sessionID string) (*domain.NavigationState, bool, error) {
	var (
		state *domain.NavigationState
		moved bool
	)
	err := m.withLock(ctx, sessionID, func() error {
		var err error
		state, err = m.store.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		state, moved = m.nav.GoBack(state)
		if !moved {
			return nil
		}
		return m.store.Save(ctx, sessionID, state)
	})
	return state, moved, err
}

// View renders the session's current step for display.
func (m *Manager) View(ctx context.Context, sessionID string, ph render.Placeholders) (*runtime.StepView, error) {
	var view *runtime.StepView
	err := m.withLock(ctx, sessionID, func() error {
		state, err := m.store.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		view, err = m.nav.View(state, ph)
		return err
	})
	return view, err
}

// End deletes the session. Ending an unknown session is not an error.
func (m *Manager) End(ctx context.Context, sessionID string) error {
	return m.withLock(ctx, sessionID, func() error {
		err := m.store.Delete(ctx, sessionID)
		if err != nil && err != domain.ErrSessionNotFound {
			return err
		}
		return nil
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying session store.
func (m *Manager) Store() ports.SessionStore {
	return m.store
}
