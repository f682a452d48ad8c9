package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"product-catalog/internal/database"
	"product-catalog/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB creates a PostgreSQL testcontainer and returns a connection pool.
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping PostgreSQL repository test in short mode")
	}

	ctx := context.Background()

	// Start PostgreSQL container
	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	require.NoError(t, database.Migrate(ctx, pool, zerolog.Nop()))

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

func truncate(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(), "TRUNCATE products RESTART IDENTITY")
	require.NoError(t, err)
}

func TestProductRepository_Postgres(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewProductRepository(pool, zerolog.Nop())

	t.Run("Create assigns id and rejects duplicate names", func(t *testing.T) {
		truncate(t, pool)

		created, err := repo.Create(ctx, &model.Product{Name: "Existing Product", Description: "d", Stock: 50})
		require.NoError(t, err)
		assert.Equal(t, int64(1), created.ID)
		assert.Equal(t, 0, created.ItemsSold)
		assert.False(t, created.CreatedAt.IsZero())

		_, err = repo.Create(ctx, &model.Product{Name: "existing PRODUCT", Description: "d", Stock: 1})
		assert.True(t, errors.Is(err, model.ErrProductNameConflict))

		all, err := repo.FindAll(ctx, model.FindOptions{})
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("Update merges patch and guards renames", func(t *testing.T) {
		truncate(t, pool)

		mustCreate(t, repo, "Product 1", "d", 10)
		p2 := mustCreate(t, repo, "Product 2", "d", 20)

		updated, err := repo.Update(ctx, p2.ID, model.ProductPatch{Description: ptr("Updated")})
		require.NoError(t, err)
		assert.Equal(t, "Updated", updated.Description)
		assert.Equal(t, "Product 2", updated.Name)
		assert.Equal(t, 20, updated.Stock)

		_, err = repo.Update(ctx, p2.ID, model.ProductPatch{Name: ptr("product 1")})
		assert.True(t, errors.Is(err, model.ErrProductNameConflict))

		renamed, err := repo.Update(ctx, p2.ID, model.ProductPatch{Name: ptr("PRODUCT 2")})
		require.NoError(t, err)
		assert.Equal(t, "PRODUCT 2", renamed.Name)

		_, err = repo.Update(ctx, 999, model.ProductPatch{Name: ptr("Nonexistent")})
		assert.True(t, errors.Is(err, model.ErrProductNotFound))
	})

	t.Run("Delete honours pending orders", func(t *testing.T) {
		truncate(t, pool)

		free := mustCreate(t, repo, "Delete Me", "d", 10)
		blocked, err := repo.Create(ctx, &model.Product{Name: "Blocked", Description: "d", HasPendingOrders: true})
		require.NoError(t, err)

		require.NoError(t, repo.Delete(ctx, free.ID))
		assert.True(t, errors.Is(repo.Delete(ctx, free.ID), model.ErrProductNotFound))
		assert.True(t, errors.Is(repo.Delete(ctx, blocked.ID), model.ErrPendingOrders))

		all, err := repo.FindAll(ctx, model.FindOptions{})
		require.NoError(t, err)
		assert.Equal(t, []string{"Blocked"}, names(all))
	})

	t.Run("FindAll searches, sorts and paginates", func(t *testing.T) {
		truncate(t, pool)

		mustCreate(t, repo, "Alpha", "First", 10)
		mustCreate(t, repo, "Beta", "Second", 20)
		mustCreate(t, repo, "Gamma_1", "100% cotton", 5)

		byName, err := repo.FindAll(ctx, model.FindOptions{Search: model.SearchCriteria{Name: "alpha"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"Alpha"}, names(byName))

		byDescription, err := repo.FindAll(ctx, model.FindOptions{Search: model.SearchCriteria{Description: "second"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"Beta"}, names(byDescription))

		literal, err := repo.FindAll(ctx, model.FindOptions{Search: model.SearchCriteria{Name: "_", Description: "%"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"Gamma_1"}, names(literal))

		byStock, err := repo.FindAll(ctx, model.FindOptions{SortBy: model.SortByStock, SortOrder: model.SortDesc})
		require.NoError(t, err)
		assert.Equal(t, []string{"Beta", "Alpha", "Gamma_1"}, names(byStock))

		defaults, err := repo.FindAll(ctx, model.FindOptions{})
		require.NoError(t, err)
		assert.Equal(t, []string{"Alpha", "Beta", "Gamma_1"}, names(defaults))

		page, err := repo.FindAll(ctx, model.FindOptions{Page: 2, Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, []string{"Gamma_1"}, names(page))

		empty, err := repo.FindAll(ctx, model.FindOptions{Page: 5, Limit: 2})
		require.NoError(t, err)
		assert.NotNil(t, empty)
		assert.Empty(t, empty)
	})

	t.Run("derived views", func(t *testing.T) {
		truncate(t, pool)

		for i, sold := range []int{25, 100, 50} {
			p := mustCreate(t, repo, fmt.Sprintf("Popular %d", i), "d", i*3)
			_, err := repo.Update(ctx, p.ID, model.ProductPatch{ItemsSold: ptr(sold)})
			require.NoError(t, err)
		}

		low, err := repo.FindLowStock(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, []string{"Popular 0"}, names(low))

		top, err := repo.FindMostPopular(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, []string{"Popular 1", "Popular 2"}, names(top))

		none, err := repo.FindMostPopular(ctx, 0)
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, repo.Ping(ctx))
	})
}

func TestLikePattern(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{input: "alpha", expected: "%alpha%"},
		{input: "50%", expected: `%50\%%`},
		{input: "a_b", expected: `%a\_b%`},
		{input: `c:\`, expected: `%c:\\%`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, likePattern(tt.input))
		})
	}
}
