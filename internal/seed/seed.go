package seed

import (
	"context"

	"product-catalog/internal/model"
)

// Record is one product entry of a seed file.
type Record struct {
	Name             string `json:"name" validate:"required,max=30"`
	Description      string `json:"description" validate:"required,max=100"`
	Stock            int    `json:"stock" validate:"gte=0"`
	ItemsSold        int    `json:"itemsSold" validate:"gte=0"`
	HasPendingOrders bool   `json:"hasPendingOrders"`
}

// CreateRequest converts the record into a create payload.
func (r Record) CreateRequest() *model.CreateProductRequest {
	stock := r.Stock
	return &model.CreateProductRequest{
		Name:             r.Name,
		Description:      r.Description,
		Stock:            &stock,
		HasPendingOrders: r.HasPendingOrders,
	}
}

// Loader defines the interface for loading seed files.
type Loader interface {
	// Load reads a gzipped JSON-lines seed file and returns its records in file order.
	Load(ctx context.Context, path string) ([]Record, error)
}
