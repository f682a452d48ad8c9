package repository

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"product-catalog/internal/model"

	"github.com/rs/zerolog"
)

// memoryProductRepository implements ProductRepository in process memory.
// Mutations hold the write lock across check-then-mutate, reads copy out a
// snapshot under the read lock.
type memoryProductRepository struct {
	mu       sync.RWMutex
	products map[int64]*model.Product
	order    []int64 // insertion order of live ids
	nextID   int64
	now      func() time.Time
	logger   zerolog.Logger
}

// NewMemoryProductRepository creates an empty in-memory product repository.
func NewMemoryProductRepository(logger zerolog.Logger) ProductRepository {
	return newMemoryProductRepository(logger)
}

func newMemoryProductRepository(logger zerolog.Logger) *memoryProductRepository {
	logger = logger.With().Str("repository", "product-memory").Logger()
	logger.Debug().Msg("initialising in-memory product repository")

	return &memoryProductRepository{
		products: make(map[int64]*model.Product),
		now:      time.Now,
		logger:   logger,
	}
}

// Create stores a new product.
func (r *memoryProductRepository) Create(ctx context.Context, product *model.Product) (*model.Product, error) {
	if product == nil {
		return nil, errors.New("product is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.nameTakenLocked(product.Name, 0) {
		r.logger.Debug().Str("name", product.Name).Msg("product name already exists")
		return nil, model.NewNameConflictError(product.Name)
	}

	r.nextID++
	stored := *product
	stored.ID = r.nextID
	stored.CreatedAt = r.now().UTC()
	stored.ItemsSold = 0

	r.products[stored.ID] = &stored
	r.order = append(r.order, stored.ID)

	r.logger.Debug().
		Int64("product_id", stored.ID).
		Str("name", stored.Name).
		Msg("product created")

	out := stored
	return &out, nil
}

// Update merges the patch into an existing product.
func (r *memoryProductRepository) Update(ctx context.Context, id int64, patch model.ProductPatch) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.products[id]
	if !ok {
		return nil, model.NewNotFoundError(id)
	}

	if patch.Name != nil && !sameName(current.Name, *patch.Name) {
		if r.nameTakenLocked(*patch.Name, id) {
			r.logger.Debug().
				Int64("product_id", id).
				Str("name", *patch.Name).
				Msg("rename rejected, name already exists")
			return nil, model.NewNameConflictError(*patch.Name)
		}
	}

	patch.Apply(current)

	r.logger.Debug().Int64("product_id", id).Msg("product updated")

	out := *current
	return &out, nil
}

// Delete removes a product without pending orders.
func (r *memoryProductRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.products[id]
	if !ok {
		return model.NewNotFoundError(id)
	}
	if current.HasPendingOrders {
		return model.NewPendingOrdersError(id)
	}

	delete(r.products, id)
	if i := slices.Index(r.order, id); i >= 0 {
		r.order = slices.Delete(r.order, i, i+1)
	}

	r.logger.Debug().Int64("product_id", id).Msg("product deleted")

	return nil
}

// FindAll filters by search criteria, sorts and paginates.
func (r *memoryProductRepository) FindAll(ctx context.Context, opts model.FindOptions) ([]model.Product, error) {
	opts = opts.Normalize()

	products := r.snapshot()

	filtered := products[:0]
	for _, p := range products {
		if opts.Search.Matches(p) {
			filtered = append(filtered, p)
		}
	}

	compare := compareBy(opts.SortBy)
	if opts.SortOrder == model.SortDesc {
		asc := compare
		compare = func(a, b model.Product) int { return -asc(a, b) }
	}
	slices.SortStableFunc(filtered, compare)

	return paginate(filtered, opts.Offset(), opts.Limit), nil
}

// FindLowStock returns products with stock strictly below threshold in insertion order.
func (r *memoryProductRepository) FindLowStock(ctx context.Context, threshold int) ([]model.Product, error) {
	products := r.snapshot()

	out := make([]model.Product, 0, len(products))
	for _, p := range products {
		if p.Stock < threshold {
			out = append(out, p)
		}
	}
	return out, nil
}

// FindMostPopular returns up to limit products ordered by items sold, descending.
// Ties keep insertion order.
func (r *memoryProductRepository) FindMostPopular(ctx context.Context, limit int) ([]model.Product, error) {
	products := r.snapshot()

	slices.SortStableFunc(products, func(a, b model.Product) int {
		return cmp.Compare(b.ItemsSold, a.ItemsSold)
	})

	return paginate(products, 0, limit), nil
}

// Ping always succeeds for the in-memory store.
func (r *memoryProductRepository) Ping(ctx context.Context) error {
	return nil
}

// snapshot copies all products in insertion order.
func (r *memoryProductRepository) snapshot() []model.Product {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Product, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.products[id])
	}
	return out
}

// nameTakenLocked reports whether a product other than exceptID uses name.
// Callers must hold r.mu.
func (r *memoryProductRepository) nameTakenLocked(name string, exceptID int64) bool {
	for id, p := range r.products {
		if id != exceptID && sameName(p.Name, name) {
			return true
		}
	}
	return false
}

// sameName compares lower-cased names, the same rule as the
// LOWER(name) unique index of the PostgreSQL store.
func sameName(a, b string) bool {
	return strings.ToLower(a) == strings.ToLower(b)
}

func compareBy(field model.SortField) func(a, b model.Product) int {
	switch field {
	case model.SortByID:
		return func(a, b model.Product) int { return cmp.Compare(a.ID, b.ID) }
	case model.SortByName:
		return func(a, b model.Product) int { return cmp.Compare(a.Name, b.Name) }
	case model.SortByDescription:
		return func(a, b model.Product) int { return cmp.Compare(a.Description, b.Description) }
	case model.SortByStock:
		return func(a, b model.Product) int { return cmp.Compare(a.Stock, b.Stock) }
	case model.SortByCreatedAt:
		return func(a, b model.Product) int { return a.CreatedAt.Compare(b.CreatedAt) }
	case model.SortByItemsSold:
		return func(a, b model.Product) int { return cmp.Compare(a.ItemsSold, b.ItemsSold) }
	case model.SortByHasPendingOrders:
		return func(a, b model.Product) int { return compareBool(a.HasPendingOrders, b.HasPendingOrders) }
	default:
		return func(a, b model.Product) int { return 0 }
	}
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

// paginate returns products[offset:offset+limit], clamped to the slice bounds.
func paginate(products []model.Product, offset, limit int) []model.Product {
	if limit <= 0 || offset < 0 || offset >= len(products) {
		return []model.Product{}
	}
	end := len(products)
	if limit < end-offset {
		end = offset + limit
	}
	return products[offset:end]
}
