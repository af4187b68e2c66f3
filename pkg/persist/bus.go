package persist

import (
	"sync"

	"github.com/aretw0/roteiro/pkg/domain"
)

// Bus fans typed change events out to subscribers. Delivery is best-effort:
// a slow subscriber's buffer overflowing drops the event rather than
// blocking the publisher, so consumers must re-fetch on receipt instead of
// counting events.
type Bus struct {
	mu   sync.RWMutex
	subs map[chan domain.ChangeEvent]struct{}
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[chan domain.ChangeEvent]struct{})}
}

// Subscribe registers a listener. The returned cancel func must be called
// to release the channel; it is safe to call twice.
func (b *Bus) Subscribe() (<-chan domain.ChangeEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan domain.ChangeEvent, 16)
	b.subs[ch] = struct{}{}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, ch)
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers evt to all current subscribers without blocking.
func (b *Bus) Publish(evt domain.ChangeEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- evt:
		default:
			// Slow subscriber; it will re-fetch on the next event.
		}
	}
}
