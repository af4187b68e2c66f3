package ports

import "context"

// Storage is the key-value persistence port backing the step repository.
// Keys are namespaced strings ("step:<id>", "product:<id>", "meta:...").
// Values are opaque serialized bytes; the repository owns the codec.
//
// Implementations must return domain.ErrQuotaExceeded when a write is
// rejected for capacity reasons, so the persist queue can drop that key
// without aborting the rest of a flush.
type Storage interface {
	// Save persists value under key, overwriting any previous value.
	Save(ctx context.Context, key string, value []byte) error

	// Load retrieves the value for key. A missing key returns
	// domain.ErrKeyNotFound.
	Load(ctx context.Context, key string) ([]byte, error)

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys lists all stored keys with the given prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// Watchable is implemented by storage backends that can notify about
// out-of-band changes (another process editing the backing files). The
// channel signals only that a re-read is required.
type Watchable interface {
	Watch(ctx context.Context) (<-chan struct{}, error)
}
