package main

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"product-catalog/internal/config"
	"product-catalog/internal/seed"
)

// Sample catalog split across two files. "widget" in catalog2 collides with
// "Widget" in catalog1 and is skipped when seeding, which exercises the
// conflict path.
var catalogs = map[string][]seed.Record{
	"catalog1.jsonl.gz": {
		{Name: "Widget", Description: "Standard widget", Stock: 120, ItemsSold: 340},
		{Name: "Gadget", Description: "Pocket gadget", Stock: 8, ItemsSold: 95},
		{Name: "Gizmo", Description: "Multi-purpose gizmo", Stock: 0, ItemsSold: 410, HasPendingOrders: true},
		{Name: "Sprocket", Description: "Steel sprocket, 24 teeth", Stock: 56, ItemsSold: 12},
	},
	"catalog2.jsonl.gz": {
		{Name: "widget", Description: "Duplicate of Widget", Stock: 1},
		{Name: "Doohickey", Description: "Spare doohickey", Stock: 3, ItemsSold: 220},
		{Name: "Thingamajig", Description: "Deluxe thingamajig", Stock: 41},
	},
}

// main writes sample seed files for local runs:
//
//	go run scripts/generate_sample_seed.go
//	SEED_FILES=data/seed/catalog1.jsonl.gz,data/seed/catalog2.jsonl.gz go run ./cmd/api
func main() {
	logger := config.NewLogger(config.LoggerConfig{Level: "info", Format: "console"})

	dataDir := "data/seed"
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		logger.Fatal().Err(err).Str("dir", dataDir).Msg("failed to create directory")
	}

	for filename, records := range catalogs {
		filePath := filepath.Join(dataDir, filename)

		if err := createSeedFile(filePath, records); err != nil {
			logger.Fatal().Err(err).Str("file", filePath).Msg("failed to create seed file")
		}

		logger.Info().Str("file", filePath).Int("records", len(records)).Msg("seed file created")
	}
}

func createSeedFile(filePath string, records []seed.Record) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	enc := json.NewEncoder(gzipWriter)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("failed to write record %q: %w", rec.Name, err)
		}
	}

	return gzipWriter.Close()
}
