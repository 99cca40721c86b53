package infra

import (
	"fmt"

	"stockpos/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx. TranslateError is
// required: the services detect unique-constraint races through
// gorm.ErrDuplicatedKey, which only exists when the driver errors are
// translated.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	return db, nil
}

// RunMigrations creates / updates all tables and applies the idempotent SQL
// patches that GORM cannot express (partial indexes).
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Product{},
		&model.SalesOrder{},
		&model.SalesItem{},
		&model.StockIn{},
		&model.StockInItem{},
		&model.StockAdjustment{},
		&model.DailySalesSummary{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot fully handle
// on its own. Each statement uses IF NOT EXISTS semantics so re-running on an
// already-patched DB is safe.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		// Partial index backing the low-stock view: only active root products
		// carry a meaningful stock_qty.
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_products_low_stock') THEN
		    CREATE INDEX idx_products_low_stock
		        ON products (stock_qty)
		        WHERE is_active AND master_product_id IS NULL;
		  END IF;
		END $$`,
		// Draft lookups during a shift scan by status constantly.
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_sales_orders_status') THEN
		    CREATE INDEX idx_sales_orders_status ON sales_orders (status, created_at);
		  END IF;
		END $$`,
		// Adjustment history per product, newest first.
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_stock_adjustments_product') THEN
		    CREATE INDEX idx_stock_adjustments_product ON stock_adjustments (product_id, created_at DESC);
		  END IF;
		END $$`,
	}

	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", sql[:min(len(sql), 60)], err)
		}
	}
	return nil
}
