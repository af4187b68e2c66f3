// Package memory provides in-memory implementations of the storage and
// session ports. They back tests and single-process deployments that do
// not need durability.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/aretw0/roteiro/pkg/domain"
)

// Storage implements ports.Storage in memory. Safe for concurrent use.
type Storage struct {
	mu   sync.RWMutex
	data map[string][]byte

	// quotaBytes caps the total stored size when positive; writes past it
	// fail with domain.ErrQuotaExceeded. Used by tests to exercise the
	// persist queue's per-key failure tolerance.
	quotaBytes int
}

// StorageOption configures a Storage.
type StorageOption func(*Storage)

// WithQuota caps total stored bytes.
func WithQuota(bytes int) StorageOption {
	return func(s *Storage) { s.quotaBytes = bytes }
}

// NewStorage creates an empty in-memory storage.
func NewStorage(opts ...StorageOption) *Storage {
	s := &Storage{data: make(map[string][]byte)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save stores a copy of value under key.
func (s *Storage) Save(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.quotaBytes > 0 {
		total := len(value)
		for k, v := range s.data {
			if k != key {
				total += len(v)
			}
		}
		if total > s.quotaBytes {
			return domain.ErrQuotaExceeded
		}
	}
	s.data[key] = append([]byte(nil), value...)
	return nil
}

// Load returns a copy of the value for key.
func (s *Storage) Load(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.data[key]
	if !ok {
		return nil, domain.ErrKeyNotFound
	}
	return append([]byte(nil), value...), nil
}

// Delete removes key. Absent keys are not an error.
func (s *Storage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// Keys lists stored keys with the given prefix.
func (s *Storage) Keys(ctx context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// Len reports the number of stored keys. Test helper.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
