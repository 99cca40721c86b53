// cmd/seedproducts/main.go — Seeds a demo catalog for local development,
// including a bulk master product with two sellable variants drawing from its
// pool. Safe to re-run: rows are upserted by SKU. Seeding mutates stock, so
// the cached stock views are invalidated afterwards when Redis is configured.
// Usage: go run cmd/seedproducts/main.go
package main

import (
	"context"
	"os"
	"time"

	"stockpos/internal/cache"
	"stockpos/internal/config"
	"stockpos/internal/infra"
	"stockpos/internal/model"
	"stockpos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	if err := infra.RunMigrations(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	rdb, err := infra.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		// The catalog still seeds without Redis; views just go stale.
		log.Warn().Err(err).Msg("redis unavailable, stock views will not be invalidated")
	}

	products := repository.NewProductRepository(db)
	var seededIDs []uuid.UUID

	master := seed(ctx, db, products, model.Product{
		SKU:       "COFFEE-1KG",
		Barcode:   str("7790001000019"),
		Name:      "House Blend Coffee 1kg (bulk)",
		StockQty:  40,
		MinStock:  5,
		MaxStock:  200,
		CostPrice: dec("5200.00"),
		SellPrice: dec("0.00"), // not sold directly; variants carry prices
		IsMaster:  true,
		IsVisible: false,
	})
	seededIDs = append(seededIDs, master.ID)

	catalog := []model.Product{
		{
			SKU:             "COFFEE-250G",
			Barcode:         str("7790001000026"),
			Name:            "House Blend Coffee 250g",
			CostPrice:       dec("1300.00"),
			SellPrice:       dec("2450.00"),
			MasterProductID: &master.ID,
		},
		{
			SKU:             "COFFEE-500G",
			Barcode:         str("7790001000033"),
			Name:            "House Blend Coffee 500g",
			CostPrice:       dec("2600.00"),
			SellPrice:       dec("4700.00"),
			MasterProductID: &master.ID,
		},
		{
			SKU:       "MILK-1L",
			Barcode:   str("7790002000018"),
			Name:      "Whole Milk 1L",
			StockQty:  120,
			MinStock:  cfg.LowStockDefaultMin,
			MaxStock:  300,
			CostPrice: dec("850.00"),
			SellPrice: dec("1290.00"),
		},
		{
			SKU:       "SUGAR-1KG",
			Name:      "Refined Sugar 1kg",
			StockQty:  3,
			MinStock:  cfg.LowStockDefaultMin, // seeded below threshold on purpose
			MaxStock:  150,
			CostPrice: dec("600.00"),
			SellPrice: dec("980.00"),
		},
	}
	for _, p := range catalog {
		seededIDs = append(seededIDs, seed(ctx, db, products, p).ID)
	}

	// Seeding changed stock quantities; tell the view caches.
	cache.NewRedisInvalidator(rdb).InvalidateStockViews(ctx, seededIDs...)

	log.Info().Int("products", len(seededIDs)).Msg("demo catalog seeded")
}

func seed(ctx context.Context, db *gorm.DB, products repository.ProductRepository, p model.Product) *model.Product {
	p.IsActive = true
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "sku"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "barcode", "cost_price", "sell_price",
			"min_stock", "max_stock", "is_master", "is_visible",
			"master_product_id", "is_active",
		}),
	}).Create(&p).Error
	if err != nil {
		log.Fatal().Err(err).Str("sku", p.SKU).Msg("seed failed")
	}
	// Re-read so callers get the persisted id even when the row pre-existed.
	got, err := products.FindBySKU(ctx, p.SKU)
	if err != nil {
		log.Fatal().Err(err).Str("sku", p.SKU).Msg("seed re-read failed")
	}
	log.Info().Str("sku", got.SKU).Msg("seeded")
	return got
}

func str(s string) *string { return &s }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
