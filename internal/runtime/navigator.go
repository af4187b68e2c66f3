// Package runtime implements the session-scoped navigation state machine
// an operator drives live during a call. It is pure and synchronous: no
// I/O, no suspension points, no shared state between sessions.
package runtime

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/roteiro/internal/logging"
	"github.com/aretw0/roteiro/internal/metrics"
	"github.com/aretw0/roteiro/pkg/domain"
)

// ScriptSource is the narrow repository surface the controller reads from.
type ScriptSource interface {
	GetStep(id string) (*domain.Step, error)
	GetProduct(id string) (*domain.Product, error)
}

// ErrTerminalState is returned when Advance is called after the script
// already reached its call-closing point.
var ErrTerminalState = errors.New("navigation already terminal")

// Navigator applies button-driven transitions over the script graph.
// States are {at step S} plus Terminal; transitions are edges labeled by
// button clicks. The graph is not required to be acyclic: routing an
// operator back to an earlier step is a legitimate script design, so the
// controller never assumes progress.
type Navigator struct {
	source ScriptSource
	logger *slog.Logger

	// historyLimit bounds the back-stack; zero means unbounded (bounded in
	// practice by actual clicks during one call). When exceeded, the
	// oldest entry is dropped.
	historyLimit int
}

// Option configures a Navigator.
type Option func(*Navigator)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Navigator) { n.logger = logger }
}

// WithHistoryLimit caps the back-stack length. Oldest entries are dropped
// first, so "back" keeps working for the most recent clicks.
func WithHistoryLimit(limit int) Option {
	return func(n *Navigator) { n.historyLimit = limit }
}

// NewNavigator creates a controller over the given script source.
func NewNavigator(source ScriptSource, opts ...Option) *Navigator {
	n := &Navigator{
		source: source,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Start resolves the product's designated first step and returns a fresh
// state with an empty back-stack.
func (n *Navigator) Start(productID string) (*domain.NavigationState, error) {
	product, err := n.source.GetProduct(productID)
	if err != nil {
		metrics.NavigationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("start product %q: %w", productID, err)
	}
	if product.FirstStepID == "" {
		metrics.NavigationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("start product %q: no first step configured", productID)
	}
	metrics.NavigationsTotal.WithLabelValues("start").Inc()
	return domain.NewNavigationState(productID, product.FirstStepID), nil
}

// Advance applies the clicked button: the current step is pushed onto the
// back-stack and the target becomes current. A button without a target
// moves to Terminal WITHOUT clearing history, so a subsequent GoBack still
// returns to the pre-terminal step.
//
// The target is not resolved here; a dangling NextStepID only surfaces
// when the caller resolves the new current step.
func (n *Navigator) Advance(state *domain.NavigationState, buttonID string) (*domain.NavigationState, error) {
	if state == nil {
		return nil, fmt.Errorf("advance: nil state")
	}
	if state.Terminal {
		metrics.NavigationsTotal.WithLabelValues("error").Inc()
		return nil, ErrTerminalState
	}

	step, err := n.Resolve(state.CurrentStepID)
	if err != nil {
		metrics.NavigationsTotal.WithLabelValues("missing_step").Inc()
		return nil, err
	}
	button, ok := step.ButtonByID(buttonID)
	if !ok {
		metrics.NavigationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("advance from %q: %w: %q", step.ID, domain.ErrButtonNotFound, buttonID)
	}

	next := state.Clone()
	next.BackStack = append(next.BackStack, next.CurrentStepID)
	if n.historyLimit > 0 && len(next.BackStack) > n.historyLimit {
		next.BackStack = next.BackStack[len(next.BackStack)-n.historyLimit:]
	}

	if button.Terminal() {
		next.CurrentStepID = ""
		next.Terminal = true
		metrics.NavigationsTotal.WithLabelValues("terminal").Inc()
		n.logger.Debug("navigation reached terminal", "from", step.ID, "button", buttonID)
		return next, nil
	}

	next.CurrentStepID = button.NextStepID
	metrics.NavigationsTotal.WithLabelValues("advance").Inc()
	return next, nil
}

// GoBack pops the last entry off the back-stack and makes it current.
// It is a no-op returning false when the stack is empty; callers should
// check CanGoBack first.
func (n *Navigator) GoBack(state *domain.NavigationState) (*domain.NavigationState, bool) {
	if state == nil || !state.CanGoBack() {
		return state, false
	}
	next := state.Clone()
	last := len(next.BackStack) - 1
	next.CurrentStepID = next.BackStack[last]
	next.BackStack = next.BackStack[:last]
	next.Terminal = false
	metrics.NavigationsTotal.WithLabelValues("back").Inc()
	return next, true
}

// Resolve looks up a step. An unknown id (dangling NextStepID, or a step
// deleted after being linked to) comes back as a MissingStepError the
// caller turns into a dead-end screen, never a crash.
func (n *Navigator) Resolve(stepID string) (*domain.Step, error) {
	step, err := n.source.GetStep(stepID)
	if err != nil {
		if errors.Is(err, domain.ErrStepNotFound) {
			n.logger.Warn("navigation hit missing step", "step_id", stepID)
			return nil, &domain.MissingStepError{StepID: stepID}
		}
		return nil, err
	}
	return step, nil
}
