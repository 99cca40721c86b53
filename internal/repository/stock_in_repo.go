package repository

import (
	"context"

	"stockpos/internal/dto"
	"stockpos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StockInRepository interface {
	Create(ctx context.Context, s *model.StockIn) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.StockIn, error)
	Update(ctx context.Context, s *model.StockIn) error
	List(ctx context.Context, filter dto.StockInFilter) ([]model.StockIn, int64, error)

	// Used inside transactions — callers must pass the tx instance.
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.StockIn, error)
	UpdateTx(tx *gorm.DB, s *model.StockIn) error

	DB() *gorm.DB
}

type stockInRepo struct{ db *gorm.DB }

func NewStockInRepository(db *gorm.DB) StockInRepository { return &stockInRepo{db: db} }

func (r *stockInRepo) DB() *gorm.DB { return r.db }

func (r *stockInRepo) Create(ctx context.Context, s *model.StockIn) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *stockInRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.StockIn, error) {
	var s model.StockIn
	err := r.db.WithContext(ctx).Preload("Items").First(&s, "id = ?", id).Error
	return &s, err
}

func (r *stockInRepo) Update(ctx context.Context, s *model.StockIn) error {
	return r.db.WithContext(ctx).Omit("Items").Save(s).Error
}

func (r *stockInRepo) List(ctx context.Context, filter dto.StockInFilter) ([]model.StockIn, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.StockIn{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.ApprovalStatus != "" {
		q = q.Where("approval_status = ?", filter.ApprovalStatus)
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

	var records []model.StockIn
	err := q.Preload("Items").
		Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&records).Error
	return records, total, err
}

// FindByIDTx locks the stock-in row so a concurrent receive/cancel observes a
// consistent status. Items load afterwards.
func (r *stockInRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.StockIn, error) {
	var s model.StockIn
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&s, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("stock_in_id = ?", id).Find(&s.Items).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *stockInRepo) UpdateTx(tx *gorm.DB, s *model.StockIn) error {
	return tx.Omit("Items").Save(s).Error
}
