package repository

import (
	"context"

	"stockpos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductRepository defines the data access contract for products.
// Services depend on this interface, not on the concrete GORM implementation,
// enabling clean unit testing via in-memory stubs.
//
// AdjustStockTx is the only way stock_qty changes. It is a single conditional
// UPDATE so the non-negative invariant is enforced by the store itself, not by
// an application-level read-then-write.
type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindBySKU(ctx context.Context, sku string) (*model.Product, error)
	// FindByCode resolves an active product by SKU first, then by barcode.
	FindByCode(ctx context.Context, code string) (*model.Product, error)
	Update(ctx context.Context, p *model.Product) error
	ListLowStock(ctx context.Context) ([]model.Product, error)

	// Used inside transactions — callers must pass the tx instance.
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Product, error)
	// AdjustStockTx applies delta only when the result stays >= 0. It reports
	// the new quantity and whether the update applied at all.
	AdjustStockTx(tx *gorm.DB, id uuid.UUID, delta int) (newQty int, applied bool, err error)
	UpdateCostPriceTx(tx *gorm.DB, id uuid.UUID, cost decimal.Decimal) error
	// LinkToMasterTx zeroes the product's own stock and points it at master.
	LinkToMasterTx(tx *gorm.DB, id, masterID uuid.UUID) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type productRepo struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepo{db: db} }

func (r *productRepo) Create(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	return &p, err
}

func (r *productRepo) FindBySKU(ctx context.Context, sku string) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).Where("sku = ? AND is_active = true", sku).First(&p).Error
	return &p, err
}

func (r *productRepo) FindByCode(ctx context.Context, code string) (*model.Product, error) {
	if p, err := r.FindBySKU(ctx, code); err == nil {
		return p, nil
	}
	var p model.Product
	err := r.db.WithContext(ctx).Where("barcode = ? AND is_active = true", code).First(&p).Error
	return &p, err
}

func (r *productRepo) Update(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *productRepo) ListLowStock(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Where("is_active = true AND master_product_id IS NULL AND stock_qty <= min_stock").
		Order("stock_qty ASC").
		Find(&products).Error
	return products, err
}

func (r *productRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, "id = ?", id).Error
	return &p, err
}

func (r *productRepo) AdjustStockTx(tx *gorm.DB, id uuid.UUID, delta int) (int, bool, error) {
	var newQty int
	res := tx.Raw(
		`UPDATE products
		    SET stock_qty = stock_qty + ?, updated_at = NOW()
		  WHERE id = ? AND stock_qty + ? >= 0
		RETURNING stock_qty`,
		delta, id, delta,
	).Scan(&newQty)
	if res.Error != nil {
		return 0, false, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, false, nil
	}
	return newQty, true, nil
}

func (r *productRepo) UpdateCostPriceTx(tx *gorm.DB, id uuid.UUID, cost decimal.Decimal) error {
	return tx.Model(&model.Product{}).Where("id = ?", id).
		Update("cost_price", cost).Error
}

func (r *productRepo) LinkToMasterTx(tx *gorm.DB, id, masterID uuid.UUID) error {
	return tx.Model(&model.Product{}).Where("id = ?", id).Updates(map[string]interface{}{
		"stock_qty":         0,
		"master_product_id": masterID,
	}).Error
}

func (r *productRepo) DB() *gorm.DB { return r.db }
