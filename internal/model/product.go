package model

import (
	"math"
	"strings"
	"time"
)

// Product represents a product in the catalog.
type Product struct {
	ID               int64     `json:"id" db:"id"`
	Name             string    `json:"name" db:"name"`
	Description      string    `json:"description" db:"description"`
	Stock            int       `json:"stock" db:"stock"`
	CreatedAt        time.Time `json:"createdAt" db:"created_at"`
	ItemsSold        int       `json:"itemsSold" db:"items_sold"`
	HasPendingOrders bool      `json:"hasPendingOrders" db:"has_pending_orders"`
}

// ProductPatch carries the fields of a partial update. Nil fields are left untouched.
type ProductPatch struct {
	Name             *string `json:"name,omitempty"`
	Description      *string `json:"description,omitempty"`
	Stock            *int    `json:"stock,omitempty"`
	ItemsSold        *int    `json:"itemsSold,omitempty"`
	HasPendingOrders *bool   `json:"hasPendingOrders,omitempty"`
}

// Apply merges the present fields of the patch into p.
func (pp ProductPatch) Apply(p *Product) {
	if pp.Name != nil {
		p.Name = *pp.Name
	}
	if pp.Description != nil {
		p.Description = *pp.Description
	}
	if pp.Stock != nil {
		p.Stock = *pp.Stock
	}
	if pp.ItemsSold != nil {
		p.ItemsSold = *pp.ItemsSold
	}
	if pp.HasPendingOrders != nil {
		p.HasPendingOrders = *pp.HasPendingOrders
	}
}

// CreateProductRequest represents the request payload for creating a product.
type CreateProductRequest struct {
	Name             string `json:"name" validate:"required,max=30"`
	Description      string `json:"description" validate:"required,max=100"`
	Stock            *int   `json:"stock" validate:"required,gte=0"`
	HasPendingOrders bool   `json:"hasPendingOrders"`
}

// UpdateProductRequest represents the request payload for a partial product update.
type UpdateProductRequest struct {
	Name             *string `json:"name" validate:"omitempty,min=1,max=30"`
	Description      *string `json:"description" validate:"omitempty,min=1,max=100"`
	Stock            *int    `json:"stock" validate:"omitempty,gte=0"`
	ItemsSold        *int    `json:"itemsSold" validate:"omitempty,gte=0"`
	HasPendingOrders *bool   `json:"hasPendingOrders"`
}

// Patch converts the request into a ProductPatch.
func (r UpdateProductRequest) Patch() ProductPatch {
	return ProductPatch{
		Name:             r.Name,
		Description:      r.Description,
		Stock:            r.Stock,
		ItemsSold:        r.ItemsSold,
		HasPendingOrders: r.HasPendingOrders,
	}
}

// SortField names a product attribute usable for ordering.
type SortField string

const (
	SortByID               SortField = "id"
	SortByName             SortField = "name"
	SortByDescription      SortField = "description"
	SortByStock            SortField = "stock"
	SortByCreatedAt        SortField = "createdAt"
	SortByItemsSold        SortField = "itemsSold"
	SortByHasPendingOrders SortField = "hasPendingOrders"
)

// Valid reports whether f is a known sort field.
func (f SortField) Valid() bool {
	switch f {
	case SortByID, SortByName, SortByDescription, SortByStock,
		SortByCreatedAt, SortByItemsSold, SortByHasPendingOrders:
		return true
	}
	return false
}

// SortOrder is the direction of an ordering.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// SearchCriteria holds case-insensitive substring filters. Empty fields match everything.
type SearchCriteria struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

// Matches reports whether p satisfies every non-empty criterion.
func (c SearchCriteria) Matches(p Product) bool {
	if c.Name != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(c.Name)) {
		return false
	}
	if c.Description != "" && !strings.Contains(strings.ToLower(p.Description), strings.ToLower(c.Description)) {
		return false
	}
	return true
}

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// FindOptions controls filtering, ordering and pagination of product listings.
type FindOptions struct {
	Page      int
	Limit     int
	SortBy    SortField
	SortOrder SortOrder
	Search    SearchCriteria
}

// Normalize fills defaults. Without an explicit SortBy, products are listed
// oldest first. With one, anything but "asc" sorts descending.
func (o FindOptions) Normalize() FindOptions {
	if o.Page < 1 {
		o.Page = DefaultPage
	}
	if o.Limit < 1 {
		o.Limit = DefaultLimit
	}
	if o.SortBy == "" {
		o.SortBy = SortByCreatedAt
		if o.SortOrder == "" {
			o.SortOrder = SortAsc
		}
	}
	if o.SortOrder != SortAsc {
		o.SortOrder = SortDesc
	}
	return o
}

// Offset returns the index of the first element of the requested page.
// Pages too far out to address saturate at math.MaxInt.
func (o FindOptions) Offset() int {
	if o.Page < 1 || o.Limit < 1 {
		return 0
	}
	if o.Page-1 > math.MaxInt/o.Limit {
		return math.MaxInt
	}
	return (o.Page - 1) * o.Limit
}
