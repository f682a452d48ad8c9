package seed

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"product-catalog/internal/model"
	"product-catalog/internal/service"

	"github.com/rs/zerolog"
)

// Result summarises a seeding run.
type Result struct {
	Files   int
	Created int
	Skipped int
}

// Seeder loads seed files and creates their products through the service.
type Seeder struct {
	loader   Loader
	products service.ProductService
	logger   zerolog.Logger
}

// NewSeeder creates a new seeder.
func NewSeeder(loader Loader, products service.ProductService, logger zerolog.Logger) *Seeder {
	return &Seeder{
		loader:   loader,
		products: products,
		logger:   logger.With().Str("component", "seeder").Logger(),
	}
}

// Seed loads all files concurrently, then applies their records in file
// order so ids are assigned deterministically. Records whose name already
// exists are skipped. Any load failure aborts before a product is created.
func (s *Seeder) Seed(ctx context.Context, paths []string) (Result, error) {
	res := Result{Files: len(paths)}
	if len(paths) == 0 {
		return res, nil
	}

	s.logger.Info().Int("file_count", len(paths)).Msg("seeding product catalog")

	type loadResult struct {
		index   int
		records []Record
		err     error
	}

	resultChan := make(chan loadResult, len(paths))
	var wg sync.WaitGroup

	for i, path := range paths {
		wg.Add(1)
		go func(index int, path string) {
			defer wg.Done()

			records, err := s.loader.Load(ctx, path)
			resultChan <- loadResult{index: index, records: records, err: err}
		}(i, path)
	}

	wg.Wait()
	close(resultChan)

	results := make([]loadResult, len(paths))
	for result := range resultChan {
		results[result.index] = result
	}

	for i, result := range results {
		if result.err != nil {
			s.logger.Error().Err(result.err).Str("file", paths[i]).Msg("failed to load seed file")
			return res, fmt.Errorf("failed to load seed file %s: %w", paths[i], result.err)
		}
	}

	for i, result := range results {
		for _, rec := range result.records {
			created, err := s.apply(ctx, rec)
			if err != nil {
				return res, fmt.Errorf("failed to seed product %q from %s: %w", rec.Name, paths[i], err)
			}
			if created {
				res.Created++
			} else {
				res.Skipped++
			}
		}
	}

	s.logger.Info().
		Int("files", res.Files).
		Int("created", res.Created).
		Int("skipped", res.Skipped).
		Msg("product catalog seeded")

	return res, nil
}

// apply creates one record. It reports false when the name is already taken.
func (s *Seeder) apply(ctx context.Context, rec Record) (bool, error) {
	product, err := s.products.Create(ctx, rec.CreateRequest())
	if err != nil {
		if errors.Is(err, model.ErrProductNameConflict) {
			s.logger.Warn().Str("name", rec.Name).Msg("seed product already exists, skipping")
			return false, nil
		}
		return false, err
	}

	// Sales counters start at zero on create.
	if rec.ItemsSold > 0 {
		itemsSold := rec.ItemsSold
		if _, err := s.products.Update(ctx, product.ID, model.ProductPatch{ItemsSold: &itemsSold}); err != nil {
			return false, err
		}
	}

	return true, nil
}
