package ports

import (
	"context"
	"time"

	"github.com/aretw0/roteiro/pkg/domain"
)

// SessionStore persists operator navigation state keyed by session ID.
// Navigation state is ephemeral by design: it is created when the operator
// opens a product and deleted when they leave, so implementations are free
// to expire entries (e.g. a Redis TTL).
type SessionStore interface {
	// Save persists the state for a given session ID.
	Save(ctx context.Context, sessionID string, state *domain.NavigationState) error

	// Load retrieves the state for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.NavigationState, error)

	// Delete removes the state for a given session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of all live sessions.
	List(ctx context.Context) ([]string, error)
}

// UnlockFunc releases a held distributed lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serializes session access across processes. The
// session manager's in-process locks cover a single instance; a
// deployment with several API replicas layers one of these on top.
type DistributedLocker interface {
	// Lock blocks until the lock for key is acquired or ctx is done.
	// The TTL bounds how long a crashed holder can wedge the key.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
