package roteiro

import (
	"context"
	"log/slog"

	"github.com/aretw0/roteiro/internal/logging"
	"github.com/aretw0/roteiro/internal/runtime"
	"github.com/aretw0/roteiro/internal/validator"
	"github.com/aretw0/roteiro/pkg/adapters/memory"
	"github.com/aretw0/roteiro/pkg/bundle"
	"github.com/aretw0/roteiro/pkg/domain"
	"github.com/aretw0/roteiro/pkg/persist"
	"github.com/aretw0/roteiro/pkg/ports"
	"github.com/aretw0/roteiro/pkg/render"
	"github.com/aretw0/roteiro/pkg/repository"
)

// Version is the release version reported by the CLI and servers.
const Version = "0.3.0"

// Engine is the high-level entry point for the roteiro library. It wraps
// the step repository and the navigation runtime behind a simplified API
// for embedding: import a script bundle, start a session state, advance
// it, render views.
//
// Engine is stateless with respect to sessions: the caller holds the
// NavigationState between calls. Hosts that need server-side sessions
// should use pkg/session on top of the same components.
type Engine struct {
	repo    *repository.Repository
	nav     *runtime.Navigator
	bus     *persist.Bus
	storage ports.Storage

	logger       *slog.Logger
	historyLimit int
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithStorage injects a persistence backend. The default is an
// in-memory store that forgets everything on Close.
func WithStorage(storage ports.Storage) Option {
	return func(e *Engine) { e.storage = storage }
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithHistoryLimit caps the back-stack kept per session state.
func WithHistoryLimit(limit int) Option {
	return func(e *Engine) { e.historyLimit = limit }
}

// New initializes an Engine, hydrating the repository from the
// configured storage backend.
func New(ctx context.Context, opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.storage == nil {
		eng.storage = memory.NewStorage()
	}
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	eng.bus = persist.NewBus()

	repo, err := repository.New(ctx, eng.storage, eng.bus, repository.WithLogger(eng.logger))
	if err != nil {
		return nil, err
	}
	eng.repo = repo

	navOpts := []runtime.Option{runtime.WithLogger(eng.logger)}
	if eng.historyLimit > 0 {
		navOpts = append(navOpts, runtime.WithHistoryLimit(eng.historyLimit))
	}
	eng.nav = runtime.NewNavigator(repo, navOpts...)

	return eng, nil
}

// Close flushes pending writes and stops the persistence queue.
func (e *Engine) Close() {
	e.repo.Close()
}

// Import loads a script bundle, replacing the steps of every product it
// contains. The report lists per-item validation failures.
func (e *Engine) Import(data []byte) (*bundle.Report, error) {
	return bundle.Import(e.repo, data)
}

// Export serializes one product back into the bundle format.
func (e *Engine) Export(productID string) ([]byte, error) {
	return bundle.Export(e.repo, productID)
}

// Start creates a fresh navigation state at the product's first step.
func (e *Engine) Start(productID string) (*domain.NavigationState, error) {
	return e.nav.Start(productID)
}

// Advance follows the button's transition and returns the new state.
func (e *Engine) Advance(state *domain.NavigationState, buttonID string) (*domain.NavigationState, error) {
	return e.nav.Advance(state, buttonID)
}

// GoBack pops the previous step off the state's history. The boolean
// reports whether there was anywhere to go.
func (e *Engine) GoBack(state *domain.NavigationState) (*domain.NavigationState, bool) {
	return e.nav.GoBack(state)
}

// View renders the state's current step with placeholders substituted.
func (e *Engine) View(state *domain.NavigationState, ph render.Placeholders) (*runtime.StepView, error) {
	return e.nav.View(state, ph)
}

// Validate crawls a product's graph and reports dead links and
// unreachable steps.
func (e *Engine) Validate(productID string) (*validator.Result, error) {
	return validator.ValidateProduct(e.repo, productID)
}

// Repository exposes the underlying step repository for hosts that need
// full CRUD access.
func (e *Engine) Repository() *repository.Repository {
	return e.repo
}

// Bus exposes the change-event bus for hosts that mirror updates.
func (e *Engine) Bus() *persist.Bus {
	return e.bus
}
