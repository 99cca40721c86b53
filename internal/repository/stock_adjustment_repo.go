package repository

import (
	"context"
	"time"

	"stockpos/internal/dto"
	"stockpos/internal/model"

	"gorm.io/gorm"
)

type StockAdjustmentRepository interface {
	// CreateTx appends a ledger row inside the same transaction that moved
	// the stock, so the snapshot can never drift from the counter.
	CreateTx(tx *gorm.DB, a *model.StockAdjustment) error
	List(ctx context.Context, filter dto.AdjustmentFilter) ([]model.StockAdjustment, int64, error)
	Stats(ctx context.Context, windowStart time.Time) (*dto.AdjustmentStats, error)

	DB() *gorm.DB
}

type stockAdjustmentRepo struct{ db *gorm.DB }

func NewStockAdjustmentRepository(db *gorm.DB) StockAdjustmentRepository {
	return &stockAdjustmentRepo{db: db}
}

func (r *stockAdjustmentRepo) DB() *gorm.DB { return r.db }

func (r *stockAdjustmentRepo) CreateTx(tx *gorm.DB, a *model.StockAdjustment) error {
	return tx.Create(a).Error
}

func (r *stockAdjustmentRepo) List(ctx context.Context, filter dto.AdjustmentFilter) ([]model.StockAdjustment, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.StockAdjustment{}).Preload("Product")
	if filter.ProductID != nil {
		q = q.Where("product_id = ?", *filter.ProductID)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.Reason != "" {
		q = q.Where("reason = ?", filter.Reason)
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
	if limit < 1 || limit > 500 {
		limit = 100
	}

	var rows []model.StockAdjustment
	err := q.Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&rows).Error
	return rows, total, err
}

func (r *stockAdjustmentRepo) Stats(ctx context.Context, windowStart time.Time) (*dto.AdjustmentStats, error) {
	stats := &dto.AdjustmentStats{WindowStart: windowStart}
	db := r.db.WithContext(ctx).Model(&model.StockAdjustment{})

	if err := db.Count(&stats.TotalAdjustments).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(&model.StockAdjustment{}).
		Where("type = ?", model.AdjustmentIncrease).
		Select("COALESCE(SUM(quantity), 0)").Scan(&stats.TotalIncreased).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(&model.StockAdjustment{}).
		Where("type = ?", model.AdjustmentDecrease).
		Select("COALESCE(SUM(quantity), 0)").Scan(&stats.TotalDecreased).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(&model.StockAdjustment{}).
		Where("created_at >= ?", windowStart).
		Count(&stats.RecentCount).Error; err != nil {
		return nil, err
	}

	rows, err := r.db.WithContext(ctx).Model(&model.StockAdjustment{}).
		Select("reason, COUNT(*) AS count, COALESCE(SUM(quantity), 0) AS total_quantity").
		Group("reason").
		Order("count DESC").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var s dto.ReasonStat
		if err := rows.Scan(&s.Reason, &s.Count, &s.TotalQuantity); err != nil {
			return nil, err
		}
		stats.ByReason = append(stats.ByReason, s)
	}
	return stats, rows.Err()
}
