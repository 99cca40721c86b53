package repository

import (
	"context"

	"stockpos/internal/dto"
	"stockpos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SalesOrderRepository interface {
	Create(ctx context.Context, o *model.SalesOrder) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.SalesOrder, error)
	FindByNumber(ctx context.Context, number string) (*model.SalesOrder, error)
	FindItem(ctx context.Context, itemID uuid.UUID) (*model.SalesItem, error)
	// CountByNumberPrefix feeds per-day order number generation.
	CountByNumberPrefix(ctx context.Context, prefix string) (int64, error)
	Update(ctx context.Context, o *model.SalesOrder) error
	List(ctx context.Context, filter dto.OrderFilter) ([]model.SalesOrder, int64, error)

	// Used inside transactions — callers must pass the tx instance.
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.SalesOrder, error)
	UpdateTx(tx *gorm.DB, o *model.SalesOrder) error
	CreateItemTx(tx *gorm.DB, item *model.SalesItem) error
	UpdateItemTx(tx *gorm.DB, item *model.SalesItem) error
	DeleteItemTx(tx *gorm.DB, itemID uuid.UUID) error

	DB() *gorm.DB
}

type salesOrderRepo struct{ db *gorm.DB }

func NewSalesOrderRepository(db *gorm.DB) SalesOrderRepository { return &salesOrderRepo{db: db} }

func (r *salesOrderRepo) DB() *gorm.DB { return r.db }

func (r *salesOrderRepo) Create(ctx context.Context, o *model.SalesOrder) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *salesOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.SalesOrder, error) {
	var o model.SalesOrder
	err := r.db.WithContext(ctx).Preload("Items").First(&o, "id = ?", id).Error
	return &o, err
}

func (r *salesOrderRepo) FindByNumber(ctx context.Context, number string) (*model.SalesOrder, error) {
	var o model.SalesOrder
	err := r.db.WithContext(ctx).Preload("Items").Where("order_number = ?", number).First(&o).Error
	return &o, err
}

func (r *salesOrderRepo) FindItem(ctx context.Context, itemID uuid.UUID) (*model.SalesItem, error) {
	var item model.SalesItem
	err := r.db.WithContext(ctx).First(&item, "id = ?", itemID).Error
	return &item, err
}

func (r *salesOrderRepo) CountByNumberPrefix(ctx context.Context, prefix string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.SalesOrder{}).
		Where("order_number LIKE ?", prefix+"%").Count(&count).Error
	return count, err
}

func (r *salesOrderRepo) Update(ctx context.Context, o *model.SalesOrder) error {
	return r.db.WithContext(ctx).Save(o).Error
}

func (r *salesOrderRepo) List(ctx context.Context, filter dto.OrderFilter) ([]model.SalesOrder, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.SalesOrder{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.StaffID != nil {
		q = q.Where("staff_id = ?", *filter.StaffID)
	}
	if filter.Date != "" {
		q = q.Where("DATE(created_at) = ?", filter.Date)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	limit := filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}

	var orders []model.SalesOrder
	err := q.Preload("Items").
		Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&orders).Error
	return orders, total, err
}

// FindByIDTx locks the order row for the duration of the enclosing
// transaction. Items are loaded afterwards — FOR UPDATE cannot span the join.
func (r *salesOrderRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.SalesOrder, error) {
	var o model.SalesOrder
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&o, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("order_id = ?", id).Find(&o.Items).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *salesOrderRepo) UpdateTx(tx *gorm.DB, o *model.SalesOrder) error {
	return tx.Omit("Items").Save(o).Error
}

func (r *salesOrderRepo) CreateItemTx(tx *gorm.DB, item *model.SalesItem) error {
	return tx.Create(item).Error
}

func (r *salesOrderRepo) UpdateItemTx(tx *gorm.DB, item *model.SalesItem) error {
	return tx.Save(item).Error
}

func (r *salesOrderRepo) DeleteItemTx(tx *gorm.DB, itemID uuid.UUID) error {
	return tx.Delete(&model.SalesItem{}, "id = ?", itemID).Error
}
