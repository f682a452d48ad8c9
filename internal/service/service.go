package service

import (
	"context"

	"product-catalog/internal/model"
)

// ProductService defines operations for product management.
type ProductService interface {
	// Create builds a product from the request and stores it.
	Create(ctx context.Context, req *model.CreateProductRequest) (*model.Product, error)

	// Update applies a partial update to an existing product.
	Update(ctx context.Context, id int64, patch model.ProductPatch) (*model.Product, error)

	// Delete removes a product.
	Delete(ctx context.Context, id int64) error

	// FindAll lists products with search, sort and pagination.
	FindAll(ctx context.Context, opts model.FindOptions) ([]model.Product, error)

	// FindLowStock lists products whose stock is below threshold.
	FindLowStock(ctx context.Context, threshold int) ([]model.Product, error)

	// FindMostPopular lists the best selling products.
	FindMostPopular(ctx context.Context, limit int) ([]model.Product, error)

	// Ready reports whether the underlying store can serve requests.
	Ready(ctx context.Context) error
}
