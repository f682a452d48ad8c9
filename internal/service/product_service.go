package service

import (
	"context"
	"errors"

	"product-catalog/internal/model"
	"product-catalog/internal/repository"

	"github.com/rs/zerolog"
)

// productService implements ProductService by delegating to the repository.
// Errors are returned unchanged so callers can match domain error kinds.
type productService struct {
	productRepo repository.ProductRepository
	logger      zerolog.Logger
}

// NewProductService creates a new product service.
func NewProductService(productRepo repository.ProductRepository, logger zerolog.Logger) ProductService {
	return &productService{
		productRepo: productRepo,
		logger:      logger.With().Str("service", "product").Logger(),
	}
}

// Create builds a product from the request and stores it.
func (s *productService) Create(ctx context.Context, req *model.CreateProductRequest) (*model.Product, error) {
	if req == nil {
		return nil, errors.New("create product request is required")
	}

	product := &model.Product{
		Name:             req.Name,
		Description:      req.Description,
		HasPendingOrders: req.HasPendingOrders,
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}

	created, err := s.productRepo.Create(ctx, product)
	if err != nil {
		s.logFailure(err).Str("name", req.Name).Msg("failed to create product")
		return nil, err
	}

	s.logger.Debug().
		Int64("product_id", created.ID).
		Str("name", created.Name).
		Msg("product created")

	return created, nil
}

// Update applies a partial update to an existing product.
func (s *productService) Update(ctx context.Context, id int64, patch model.ProductPatch) (*model.Product, error) {
	updated, err := s.productRepo.Update(ctx, id, patch)
	if err != nil {
		s.logFailure(err).Int64("product_id", id).Msg("failed to update product")
		return nil, err
	}

	s.logger.Debug().Int64("product_id", id).Msg("product updated")

	return updated, nil
}

// Delete removes a product.
func (s *productService) Delete(ctx context.Context, id int64) error {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		s.logFailure(err).Int64("product_id", id).Msg("failed to delete product")
		return err
	}

	s.logger.Debug().Int64("product_id", id).Msg("product deleted")

	return nil
}

// FindAll lists products with search, sort and pagination.
func (s *productService) FindAll(ctx context.Context, opts model.FindOptions) ([]model.Product, error) {
	products, err := s.productRepo.FindAll(ctx, opts)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list products")
		return nil, err
	}

	s.logger.Debug().
		Int("count", len(products)).
		Int("page", opts.Page).
		Int("limit", opts.Limit).
		Str("sort_by", string(opts.SortBy)).
		Str("sort_order", string(opts.SortOrder)).
		Msg("retrieved products")

	return products, nil
}

// FindLowStock lists products whose stock is below threshold.
func (s *productService) FindLowStock(ctx context.Context, threshold int) ([]model.Product, error) {
	products, err := s.productRepo.FindLowStock(ctx, threshold)
	if err != nil {
		s.logger.Error().Err(err).Int("threshold", threshold).Msg("failed to list low stock products")
		return nil, err
	}

	s.logger.Debug().
		Int("count", len(products)).
		Int("threshold", threshold).
		Msg("retrieved low stock products")

	return products, nil
}

// FindMostPopular lists the best selling products.
func (s *productService) FindMostPopular(ctx context.Context, limit int) ([]model.Product, error) {
	products, err := s.productRepo.FindMostPopular(ctx, limit)
	if err != nil {
		s.logger.Error().Err(err).Int("limit", limit).Msg("failed to list popular products")
		return nil, err
	}

	s.logger.Debug().
		Int("count", len(products)).
		Int("limit", limit).
		Msg("retrieved popular products")

	return products, nil
}

// Ready reports whether the underlying store can serve requests.
func (s *productService) Ready(ctx context.Context) error {
	return s.productRepo.Ping(ctx)
}

// logFailure logs domain errors at warn and everything else at error.
func (s *productService) logFailure(err error) *zerolog.Event {
	var domainErr *model.DomainError
	if errors.As(err, &domainErr) {
		return s.logger.Warn().Str("code", domainErr.Code).Str("reason", domainErr.Message)
	}
	return s.logger.Error().Err(err)
}
