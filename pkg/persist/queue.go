// Package persist implements the write-coalescing layer between the step
// repository and the storage port, plus the typed change bus that tells UI
// consumers to re-read.
//
// Two debounce tiers are involved. A short window coalesces storage writes:
// bursts of mutations within one user action collapse into a single
// physical write pass per key. A longer window gates the update marker and
// the change broadcast, so listeners are not stormed while several fields
// of one form are still being edited.
package persist

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"github.com/aretw0/roteiro/internal/logging"
	"github.com/aretw0/roteiro/internal/metrics"
	"github.com/aretw0/roteiro/pkg/domain"
	"github.com/aretw0/roteiro/pkg/ports"
)

const (
	// DefaultFlushWindow is the quiescence window before queued keys are
	// written. Every Save resets it.
	DefaultFlushWindow = 280 * time.Millisecond

	// DefaultNotifyWindow gates the update marker and change broadcast.
	DefaultNotifyWindow = 1 * time.Second

	// MarkerKey receives an RFC 3339 timestamp whenever a mutation settles.
	// Other processes poll or watch it; the engine itself never reads it.
	MarkerKey = "meta:last_update"
)

type pendingWrite struct {
	value  any
	delete bool
}

// Queue coalesces writes to a Storage port. All methods are safe for
// concurrent use. A Queue must be constructed with NewQueue and released
// with Close, which flushes whatever is still pending.
type Queue struct {
	storage ports.Storage
	bus     *Bus
	logger  *slog.Logger

	flushWindow  time.Duration
	notifyWindow time.Duration

	mu          sync.Mutex
	pending     map[string]pendingWrite
	events      map[string]domain.ChangeEvent
	flushTimer  *time.Timer
	notifyTimer *time.Timer
	closed      bool
}

// QueueOption configures a Queue.
type QueueOption func(*Queue)

// WithFlushWindow overrides the storage-coalescing debounce window.
func WithFlushWindow(d time.Duration) QueueOption {
	return func(q *Queue) { q.flushWindow = d }
}

// WithNotifyWindow overrides the marker/broadcast debounce window.
func WithNotifyWindow(d time.Duration) QueueOption {
	return func(q *Queue) { q.notifyWindow = d }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) QueueOption {
	return func(q *Queue) { q.logger = logger }
}

// NewQueue creates a write queue over storage, publishing change events on
// bus. A nil bus disables broadcasting.
func NewQueue(storage ports.Storage, bus *Bus, opts ...QueueOption) *Queue {
	q := &Queue{
		storage:      storage,
		bus:          bus,
		logger:       logging.NewNop(),
		flushWindow:  DefaultFlushWindow,
		notifyWindow: DefaultNotifyWindow,
		pending:      make(map[string]pendingWrite),
		events:       make(map[string]domain.ChangeEvent),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Save enqueues value under key. Nothing is written until the shared
// flush timer fires; repeated saves of the same key keep only the last
// value.
func (q *Queue) Save(key string, value any) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.pending[key] = pendingWrite{value: value}
	q.resetFlushTimerLocked()
}

// Delete enqueues a tombstone for key.
func (q *Queue) Delete(key string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.pending[key] = pendingWrite{delete: true}
	q.resetFlushTimerLocked()
}

// Notify records that a mutation of the given kind logically completed.
// After the notify window passes with no further mutations, the update
// marker is written and one event per (kind, id) is broadcast. Notify is
// deliberately decoupled from the physical flush: "data durably queued"
// and "UI should re-read" are separate facts.
func (q *Queue) Notify(kind domain.ChangeKind, id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.events[string(kind)+":"+id] = domain.ChangeEvent{Kind: kind, ID: id, Timestamp: time.Now()}
	if q.notifyTimer != nil {
		q.notifyTimer.Stop()
	}
	q.notifyTimer = time.AfterFunc(q.notifyWindow, q.fireNotify)
}

// Flush writes all queued keys immediately, bypassing the debounce. Used
// on shutdown and by tests.
func (q *Queue) Flush(ctx context.Context) {
	q.mu.Lock()
	if q.flushTimer != nil {
		q.flushTimer.Stop()
		q.flushTimer = nil
	}
	batch := q.pending
	q.pending = make(map[string]pendingWrite)
	q.mu.Unlock()

	q.writeBatch(ctx, batch)
}

// Close stops the timers and flushes pending writes and notifications.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	if q.flushTimer != nil {
		q.flushTimer.Stop()
	}
	if q.notifyTimer != nil {
		q.notifyTimer.Stop()
	}
	batch := q.pending
	q.pending = make(map[string]pendingWrite)
	events := q.drainEventsLocked()
	q.mu.Unlock()

	q.writeBatch(context.Background(), batch)
	q.deliver(events)
}

func (q *Queue) resetFlushTimerLocked() {
	if q.flushTimer != nil {
		q.flushTimer.Stop()
	}
	q.flushTimer = time.AfterFunc(q.flushWindow, func() {
		// Re-check queue state: a Save racing the timer may already have
		// re-armed it, and a flush callback enqueueing new writes must not
		// lose them.
		q.mu.Lock()
		q.flushTimer = nil
		batch := q.pending
		q.pending = make(map[string]pendingWrite)
		q.mu.Unlock()

		q.writeBatch(context.Background(), batch)
	})
}

// writeBatch persists one batch, key by key. A failure on one key is
// logged and dropped; the remaining keys still flush. The engine keeps
// operating on its in-memory state either way.
func (q *Queue) writeBatch(ctx context.Context, batch map[string]pendingWrite) {
	if len(batch) == 0 {
		return
	}
	metrics.FlushesTotal.Inc()

	for key, w := range batch {
		if w.delete {
			if err := q.storage.Delete(ctx, key); err != nil {
				metrics.StorageErrorsTotal.Inc()
				q.logger.Error("persist: delete failed", "key", key, "err", err)
			}
			continue
		}
		data, err := json.Marshal(w.value)
		if err != nil {
			metrics.StorageErrorsTotal.Inc()
			q.logger.Error("persist: serialize failed", "key", key, "err", err)
			continue
		}
		if err := q.storage.Save(ctx, key, data); err != nil {
			metrics.StorageErrorsTotal.Inc()
			if errors.Is(err, domain.ErrQuotaExceeded) {
				q.logger.Warn("persist: quota exceeded, write dropped", "key", key)
			} else {
				q.logger.Error("persist: write failed", "key", key, "err", err)
			}
			continue
		}
		metrics.FlushedKeysTotal.Inc()
	}
}

func (q *Queue) fireNotify() {
	q.mu.Lock()
	q.notifyTimer = nil
	events := q.drainEventsLocked()
	q.mu.Unlock()

	q.deliver(events)
}

func (q *Queue) drainEventsLocked() []domain.ChangeEvent {
	if len(q.events) == 0 {
		return nil
	}
	events := make([]domain.ChangeEvent, 0, len(q.events))
	for _, evt := range q.events {
		events = append(events, evt)
	}
	q.events = make(map[string]domain.ChangeEvent)
	return events
}

func (q *Queue) deliver(events []domain.ChangeEvent) {
	if len(events) == 0 {
		return
	}
	marker, _ := json.Marshal(time.Now().Format(time.RFC3339Nano))
	if err := q.storage.Save(context.Background(), MarkerKey, marker); err != nil {
		metrics.StorageErrorsTotal.Inc()
		q.logger.Warn("persist: update marker write failed", "err", err)
	}
	if q.bus != nil {
		for _, evt := range events {
			q.bus.Publish(evt)
		}
	}
}
