package seed

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"product-catalog/internal/model"
	"product-catalog/internal/repository"
	"product-catalog/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() service.ProductService {
	logger := zerolog.Nop()
	return service.NewProductService(repository.NewMemoryProductRepository(logger), logger)
}

func recordsByPath(files map[string][]Record) Loader {
	return &mockLoader{loadFunc: func(ctx context.Context, path string) ([]Record, error) {
		records, ok := files[path]
		if !ok {
			return nil, errors.New("missing file " + path)
		}
		return records, nil
	}}
}

func TestSeeder_Seed(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	loader := recordsByPath(map[string][]Record{
		"a.gz": {
			{Name: "Alpha", Description: "First", Stock: 5, ItemsSold: 40},
			{Name: "Beta", Description: "Second", Stock: 1, HasPendingOrders: true},
		},
		"b.gz": {
			{Name: "alpha", Description: "Duplicate", Stock: 9},
			{Name: "Gamma", Description: "Third", Stock: 0, ItemsSold: 70},
		},
	})

	res, err := NewSeeder(loader, svc, zerolog.Nop()).Seed(ctx, []string{"a.gz", "b.gz"})

	require.NoError(t, err)
	assert.Equal(t, Result{Files: 2, Created: 3, Skipped: 1}, res)

	products, err := svc.FindAll(ctx, model.FindOptions{})
	require.NoError(t, err)
	require.Len(t, products, 3)

	assert.Equal(t, "Alpha", products[0].Name)
	assert.Equal(t, int64(1), products[0].ID)
	assert.Equal(t, 40, products[0].ItemsSold)
	assert.True(t, products[1].HasPendingOrders)
	assert.Equal(t, "Gamma", products[2].Name)
	assert.Equal(t, int64(3), products[2].ID)

	popular, err := svc.FindMostPopular(ctx, 1)
	require.NoError(t, err)
	require.Len(t, popular, 1)
	assert.Equal(t, "Gamma", popular[0].Name)
}

func TestSeeder_Seed_NoFiles(t *testing.T) {
	loader := &mockLoader{loadFunc: func(ctx context.Context, path string) ([]Record, error) {
		t.Error("loader should not be called without files")
		return nil, nil
	}}

	res, err := NewSeeder(loader, newTestService(), zerolog.Nop()).Seed(context.Background(), nil)

	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
}

func TestSeeder_Seed_LoadErrorCreatesNothing(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	loader := recordsByPath(map[string][]Record{
		"a.gz": {{Name: "Alpha", Description: "First", Stock: 5}},
	})

	_, err := NewSeeder(loader, svc, zerolog.Nop()).Seed(ctx, []string{"a.gz", "missing.gz"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.gz")

	products, err := svc.FindAll(ctx, model.FindOptions{})
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestSeeder_Seed_LoadsConcurrently(t *testing.T) {
	var inFlight, peak atomic.Int32
	release := make(chan struct{})

	loader := &mockLoader{loadFunc: func(ctx context.Context, path string) ([]Record, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		if n == 3 {
			close(release)
		}
		<-release
		inFlight.Add(-1)
		return []Record{{Name: path, Description: "d", Stock: 1}}, nil
	}}

	res, err := NewSeeder(loader, newTestService(), zerolog.Nop()).Seed(context.Background(), []string{"x", "y", "z"})

	require.NoError(t, err)
	assert.Equal(t, 3, res.Created)
	assert.Equal(t, int32(3), peak.Load())
}
