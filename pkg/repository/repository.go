// Package repository holds all script steps and their grouping by product.
// Reads are served from memory; writes are coalesced through the persist
// queue. Derived caches are invalidated explicitly by the mutation that
// changed their source data, never by TTL.
package repository

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"github.com/aretw0/roteiro/internal/logging"
	"github.com/aretw0/roteiro/pkg/domain"
	"github.com/aretw0/roteiro/pkg/persist"
	"github.com/aretw0/roteiro/pkg/ports"
)

const (
	stepKeyPrefix    = "step:"
	productKeyPrefix = "product:"
)

// Repository is the single source of script data for the engine. Construct
// one per process (or per test) and pass it by reference; there is no
// package-level instance.
type Repository struct {
	queue  *persist.Queue
	logger *slog.Logger

	mu       sync.RWMutex
	steps    map[string]*domain.Step
	products map[string]*domain.Product

	// stepsByProduct is a derived cache rebuilt lazily after explicit
	// invalidation. Key "" holds standalone steps.
	stepsByProduct map[string][]*domain.Step
}

// Option configures a Repository.
type Option func(*Repository)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Repository) { r.logger = logger }
}

// New creates a repository over storage, hydrating all persisted steps and
// products into memory. Mutations are queued through a persist.Queue that
// broadcasts typed change events on bus (bus may be nil).
func New(ctx context.Context, storage ports.Storage, bus *persist.Bus, opts ...Option) (*Repository, error) {
	r := &Repository{
		logger:         logging.NewNop(),
		steps:          make(map[string]*domain.Step),
		products:       make(map[string]*domain.Product),
		stepsByProduct: make(map[string][]*domain.Step),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.queue = persist.NewQueue(storage, bus, persist.WithLogger(r.logger))

	if err := r.hydrate(ctx, storage); err != nil {
		return nil, fmt.Errorf("repository: hydrate: %w", err)
	}
	return r, nil
}

// hydrate loads the persisted state. Individual corrupt records are logged
// and skipped so one bad row cannot take the whole script base offline.
func (r *Repository) hydrate(ctx context.Context, storage ports.Storage) error {
	stepKeys, err := storage.Keys(ctx, stepKeyPrefix)
	if err != nil {
		return fmt.Errorf("list steps: %w", err)
	}
	for _, key := range stepKeys {
		data, err := storage.Load(ctx, key)
		if err != nil {
			r.logger.Warn("repository: skipping unreadable step", "key", key, "err", err)
			continue
		}
		var step domain.Step
		if err := json.Unmarshal(data, &step); err != nil {
			r.logger.Warn("repository: skipping corrupt step", "key", key, "err", err)
			continue
		}
		if step.ID == "" {
			step.ID = strings.TrimPrefix(key, stepKeyPrefix)
		}
		r.steps[step.ID] = &step
	}

	productKeys, err := storage.Keys(ctx, productKeyPrefix)
	if err != nil {
		return fmt.Errorf("list products: %w", err)
	}
	for _, key := range productKeys {
		data, err := storage.Load(ctx, key)
		if err != nil {
			r.logger.Warn("repository: skipping unreadable product", "key", key, "err", err)
			continue
		}
		var product domain.Product
		if err := json.Unmarshal(data, &product); err != nil {
			r.logger.Warn("repository: skipping corrupt product", "key", key, "err", err)
			continue
		}
		if product.ID == "" {
			product.ID = strings.TrimPrefix(key, productKeyPrefix)
		}
		r.products[product.ID] = &product
	}
	return nil
}

// Close flushes pending writes and releases the queue.
func (r *Repository) Close() {
	r.queue.Close()
}

// Flush forces pending writes through immediately. Used on shutdown paths
// that cannot wait for the debounce window.
func (r *Repository) Flush(ctx context.Context) {
	r.queue.Flush(ctx)
}

// --- Steps ---

// GetStep returns a copy of the step, or domain.ErrStepNotFound.
func (r *Repository) GetStep(id string) (*domain.Step, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	step, ok := r.steps[id]
	if !ok {
		return nil, domain.ErrStepNotFound
	}
	return cloneStep(step), nil
}

// GetSteps returns copies of all steps for a product, ordered by
// OrderIndex then ID (admin listing order, never traversal order).
// An empty productID returns every step.
func (r *Repository) GetSteps(productID string) []*domain.Step {
	r.mu.Lock()
	defer r.mu.Unlock()

	if productID == "" {
		out := make([]*domain.Step, 0, len(r.steps))
		for _, s := range r.steps {
			out = append(out, cloneStep(s))
		}
		sortSteps(out)
		return out
	}

	cached, ok := r.stepsByProduct[productID]
	if !ok {
		cached = r.buildProductCacheLocked(productID)
	}
	out := make([]*domain.Step, 0, len(cached))
	for _, s := range cached {
		out = append(out, cloneStep(s))
	}
	return out
}

// CreateStep inserts a new step. The ID must be unique and non-empty.
// Button targets are NOT validated here; referential integrity surfaces
// lazily at traversal time.
func (r *Repository) CreateStep(step *domain.Step) error {
	if step == nil || step.ID == "" {
		return fmt.Errorf("create step: empty id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.steps[step.ID]; exists {
		return fmt.Errorf("create step %q: already exists", step.ID)
	}
	stored := cloneStep(step)
	r.steps[stored.ID] = stored
	r.invalidateProductCacheLocked(stored.ProductID)

	r.queue.Save(stepKeyPrefix+stored.ID, cloneStep(stored))
	r.queue.Notify(domain.ChangeStep, stored.ID)
	return nil
}

// UpdateStep replaces an existing step in place.
func (r *Repository) UpdateStep(step *domain.Step) error {
	if step == nil || step.ID == "" {
		return fmt.Errorf("update step: empty id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, exists := r.steps[step.ID]
	if !exists {
		return domain.ErrStepNotFound
	}
	stored := cloneStep(step)
	r.steps[stored.ID] = stored
	// The step may have moved between products; both buckets are stale.
	r.invalidateProductCacheLocked(prev.ProductID)
	r.invalidateProductCacheLocked(stored.ProductID)

	r.queue.Save(stepKeyPrefix+stored.ID, cloneStep(stored))
	r.queue.Notify(domain.ChangeStep, stored.ID)
	return nil
}

// DeleteStep removes a step. Buttons elsewhere may still point at it; the
// resulting dangling references are tolerated and surface as a
// MissingStepError during traversal.
func (r *Repository) DeleteStep(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, exists := r.steps[id]
	if !exists {
		return domain.ErrStepNotFound
	}
	delete(r.steps, id)
	r.invalidateProductCacheLocked(prev.ProductID)

	r.queue.Delete(stepKeyPrefix + id)
	r.queue.Notify(domain.ChangeStep, id)
	return nil
}

// SetAlert stores or clears a step's alert. Mirroring the editor's save
// logic, an alert without a message is treated as "not alerting" and
// stored as nil.
func (r *Repository) SetAlert(stepID string, alert *domain.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	step, exists := r.steps[stepID]
	if !exists {
		return domain.ErrStepNotFound
	}
	if alert == nil || alert.Message == "" {
		step.Alert = nil
	} else {
		a := *alert
		if a.CreatedAt.IsZero() {
			a.CreatedAt = time.Now()
		}
		step.Alert = &a
	}
	r.queue.Save(stepKeyPrefix+stepID, cloneStep(step))
	r.queue.Notify(domain.ChangeAnnotation, stepID)
	return nil
}

// SetTabulations replaces a step's recommended tabulations.
func (r *Repository) SetTabulations(stepID string, tabs []domain.Tabulation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	step, exists := r.steps[stepID]
	if !exists {
		return domain.ErrStepNotFound
	}
	step.Tabulations = append([]domain.Tabulation(nil), tabs...)
	r.queue.Save(stepKeyPrefix+stepID, cloneStep(step))
	r.queue.Notify(domain.ChangeAnnotation, stepID)
	return nil
}

// --- Products ---

// GetProduct returns a copy of the product, or domain.ErrProductNotFound.
func (r *Repository) GetProduct(id string) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	clone := *p
	return &clone, nil
}

// GetProducts returns copies of all products sorted by name.
func (r *Repository) GetProducts() []*domain.Product {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Product, 0, len(r.products))
	for _, p := range r.products {
		clone := *p
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// CreateProduct inserts a new product.
func (r *Repository) CreateProduct(product *domain.Product) error {
	if product == nil || product.ID == "" {
		return fmt.Errorf("create product: empty id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.products[product.ID]; exists {
		return fmt.Errorf("create product %q: already exists", product.ID)
	}
	clone := *product
	r.products[clone.ID] = &clone

	r.queue.Save(productKeyPrefix+clone.ID, clone)
	r.queue.Notify(domain.ChangeProduct, clone.ID)
	return nil
}

// UpdateProduct replaces an existing product.
func (r *Repository) UpdateProduct(product *domain.Product) error {
	if product == nil || product.ID == "" {
		return fmt.Errorf("update product: empty id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.products[product.ID]; !exists {
		return domain.ErrProductNotFound
	}
	clone := *product
	r.products[clone.ID] = &clone

	r.queue.Save(productKeyPrefix+clone.ID, clone)
	r.queue.Notify(domain.ChangeProduct, clone.ID)
	return nil
}

// DeleteProduct removes a product. Its steps are kept as standalone
// orphans; deleting them is an explicit separate action.
func (r *Repository) DeleteProduct(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.products[id]; !exists {
		return domain.ErrProductNotFound
	}
	delete(r.products, id)
	r.invalidateProductCacheLocked(id)

	r.queue.Delete(productKeyPrefix + id)
	r.queue.Notify(domain.ChangeProduct, id)
	return nil
}

// ReplaceProductSteps atomically swaps a product's whole step set. Used by
// the bundle importer: re-import is a full replace per product, never an
// append.
func (r *Repository) ReplaceProductSteps(product *domain.Product, steps []*domain.Step) error {
	if product == nil || product.ID == "" {
		return fmt.Errorf("replace product steps: empty product id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, s := range r.steps {
		if s.ProductID == product.ID {
			delete(r.steps, id)
			r.queue.Delete(stepKeyPrefix + id)
		}
	}
	for _, s := range steps {
		stored := cloneStep(s)
		stored.ProductID = product.ID
		r.steps[stored.ID] = stored
		r.queue.Save(stepKeyPrefix+stored.ID, cloneStep(stored))
	}

	clone := *product
	r.products[clone.ID] = &clone
	r.queue.Save(productKeyPrefix+clone.ID, clone)

	r.invalidateProductCacheLocked(product.ID)
	r.queue.Notify(domain.ChangeImport, product.ID)
	return nil
}

// --- Derived cache ---

func (r *Repository) invalidateProductCacheLocked(productID string) {
	delete(r.stepsByProduct, productID)
}

func (r *Repository) buildProductCacheLocked(productID string) []*domain.Step {
	var bucket []*domain.Step
	for _, s := range r.steps {
		if s.ProductID == productID {
			bucket = append(bucket, s)
		}
	}
	sortSteps(bucket)
	r.stepsByProduct[productID] = bucket
	return bucket
}

func sortSteps(steps []*domain.Step) {
	sort.Slice(steps, func(i, j int) bool {
		if steps[i].OrderIndex != steps[j].OrderIndex {
			return steps[i].OrderIndex < steps[j].OrderIndex
		}
		return steps[i].ID < steps[j].ID
	})
}
