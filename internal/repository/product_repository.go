package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"product-catalog/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const uniqueViolation = "23505"

const productColumns = `id, name, description, stock, created_at, items_sold, has_pending_orders`

// sortColumns maps sort fields to SQL expressions. Text columns use the C
// collation so ordering matches byte-wise string comparison.
var sortColumns = map[model.SortField]string{
	model.SortByID:               "id",
	model.SortByName:             `name COLLATE "C"`,
	model.SortByDescription:      `description COLLATE "C"`,
	model.SortByStock:            "stock",
	model.SortByCreatedAt:        "created_at",
	model.SortByItemsSold:        "items_sold",
	model.SortByHasPendingOrders: "has_pending_orders",
}

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

// Create inserts a new product. The unique index on LOWER(name) enforces name uniqueness.
func (r *productRepository) Create(ctx context.Context, product *model.Product) (*model.Product, error) {
	if product == nil {
		return nil, errors.New("product is required")
	}

	query := `
		INSERT INTO products (name, description, stock, items_sold, has_pending_orders)
		VALUES ($1, $2, $3, 0, $4)
		RETURNING ` + productColumns

	created, err := scanProduct(r.pool.QueryRow(ctx, query,
		product.Name, product.Description, product.Stock, product.HasPendingOrders))
	if err != nil {
		if isUniqueViolation(err) {
			r.logger.Debug().Str("name", product.Name).Msg("product name already exists")
			return nil, model.NewNameConflictError(product.Name)
		}
		r.logger.Error().Err(err).Str("name", product.Name).Msg("failed to create product")
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return created, nil
}

// Update merges the patch into an existing product inside a transaction.
func (r *productRepository) Update(ctx context.Context, id int64, patch model.ProductPatch) (*model.Product, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	current, err := r.lockProduct(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil && !strings.EqualFold(current.Name, *patch.Name) {
		var taken bool
		err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM products WHERE LOWER(name) = LOWER($1) AND id <> $2)`,
			*patch.Name, id,
		).Scan(&taken)
		if err != nil {
			r.logger.Error().Err(err).Int64("product_id", id).Msg("failed to check product name")
			return nil, fmt.Errorf("failed to check product name: %w", err)
		}
		if taken {
			return nil, model.NewNameConflictError(*patch.Name)
		}
	}

	patch.Apply(current)

	query := `
		UPDATE products
		SET name = $2, description = $3, stock = $4, items_sold = $5, has_pending_orders = $6
		WHERE id = $1
		RETURNING ` + productColumns

	updated, err := scanProduct(tx.QueryRow(ctx, query,
		id, current.Name, current.Description, current.Stock, current.ItemsSold, current.HasPendingOrders))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, model.NewNameConflictError(current.Name)
		}
		r.logger.Error().Err(err).Int64("product_id", id).Msg("failed to update product")
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.Error().Err(err).Int64("product_id", id).Msg("failed to commit product update")
		return nil, fmt.Errorf("failed to commit product update: %w", err)
	}

	return updated, nil
}

// Delete removes a product without pending orders inside a transaction.
func (r *productRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	current, err := r.lockProduct(ctx, tx, id)
	if err != nil {
		return err
	}
	if current.HasPendingOrders {
		return model.NewPendingOrdersError(id)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM products WHERE id = $1`, id); err != nil {
		r.logger.Error().Err(err).Int64("product_id", id).Msg("failed to delete product")
		return fmt.Errorf("failed to delete product: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.Error().Err(err).Int64("product_id", id).Msg("failed to commit product delete")
		return fmt.Errorf("failed to commit product delete: %w", err)
	}

	return nil
}

// FindAll filters, sorts and paginates products in SQL.
func (r *productRepository) FindAll(ctx context.Context, opts model.FindOptions) ([]model.Product, error) {
	opts = opts.Normalize()

	var (
		where []string
		args  []any
	)
	if opts.Search.Name != "" {
		args = append(args, likePattern(opts.Search.Name))
		where = append(where, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	if opts.Search.Description != "" {
		args = append(args, likePattern(opts.Search.Description))
		where = append(where, fmt.Sprintf("description ILIKE $%d", len(args)))
	}

	var sb strings.Builder
	sb.WriteString("SELECT " + productColumns + " FROM products")
	if len(where) > 0 {
		sb.WriteString(" WHERE " + strings.Join(where, " AND "))
	}

	if column, ok := sortColumns[opts.SortBy]; ok {
		direction := "DESC"
		if opts.SortOrder == model.SortAsc {
			direction = "ASC"
		}
		sb.WriteString(fmt.Sprintf(" ORDER BY %s %s, id ASC", column, direction))
	} else {
		sb.WriteString(" ORDER BY id ASC")
	}

	args = append(args, opts.Limit, opts.Offset())
	sb.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args)))

	return r.queryProducts(ctx, sb.String(), args...)
}

// FindLowStock returns products with stock strictly below threshold.
func (r *productRepository) FindLowStock(ctx context.Context, threshold int) ([]model.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE stock < $1
		ORDER BY id ASC
	`
	return r.queryProducts(ctx, query, threshold)
}

// FindMostPopular returns up to limit products by items sold, descending.
func (r *productRepository) FindMostPopular(ctx context.Context, limit int) ([]model.Product, error) {
	if limit <= 0 {
		return []model.Product{}, nil
	}

	query := `
		SELECT ` + productColumns + `
		FROM products
		ORDER BY items_sold DESC, id ASC
		LIMIT $1
	`
	return r.queryProducts(ctx, query, limit)
}

// Ping verifies database connectivity.
func (r *productRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// lockProduct loads a product and locks its row for the rest of the transaction.
func (r *productRepository) lockProduct(ctx context.Context, tx pgx.Tx, id int64) (*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 FOR UPDATE`

	p, err := scanProduct(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Int64("product_id", id).Msg("product not found")
			return nil, model.NewNotFoundError(id)
		}
		r.logger.Error().Err(err).Int64("product_id", id).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}
	return p, nil
}

func (r *productRepository) queryProducts(ctx context.Context, query string, args ...any) ([]model.Product, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query products")
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]model.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product row")
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating product rows")
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

func scanProduct(row pgx.Row) (*model.Product, error) {
	var p model.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Stock, &p.CreatedAt, &p.ItemsSold, &p.HasPendingOrders)
	if err != nil {
		return nil, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return &p, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern builds a substring pattern with LIKE metacharacters escaped.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
