package repository

import (
	"context"

	"product-catalog/internal/model"
)

// ProductRepository is the sole owner of product state. Every read and write
// of the catalog goes through it.
type ProductRepository interface {
	// Create stores a new product, assigning its ID, CreatedAt and ItemsSold.
	// Returns a name-conflict error if the name is already taken (case-insensitive).
	Create(ctx context.Context, product *model.Product) (*model.Product, error)

	// Update merges the present patch fields into an existing product.
	Update(ctx context.Context, id int64, patch model.ProductPatch) (*model.Product, error)

	// Delete removes a product that has no pending orders.
	Delete(ctx context.Context, id int64) error

	// FindAll filters, sorts and paginates the catalog.
	FindAll(ctx context.Context, opts model.FindOptions) ([]model.Product, error)

	// FindLowStock returns products whose stock is strictly below threshold.
	FindLowStock(ctx context.Context, threshold int) ([]model.Product, error)

	// FindMostPopular returns up to limit products by items sold, descending.
	FindMostPopular(ctx context.Context, limit int) ([]model.Product, error)

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
}
