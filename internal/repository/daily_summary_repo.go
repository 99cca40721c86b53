package repository

import (
	"context"
	"time"

	"stockpos/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DailySummaryRepository interface {
	// UpsertTx seeds the day's row on first confirm and otherwise applies
	// store-level atomic increments, so concurrent confirms on the same day
	// never lose updates to a caller-side read-modify-write.
	UpsertTx(tx *gorm.DB, s *model.DailySalesSummary) error
	FindByDate(ctx context.Context, day time.Time) (*model.DailySalesSummary, error)
	Range(ctx context.Context, from, to time.Time) ([]model.DailySalesSummary, error)

	DB() *gorm.DB
}

type dailySummaryRepo struct{ db *gorm.DB }

func NewDailySummaryRepository(db *gorm.DB) DailySummaryRepository {
	return &dailySummaryRepo{db: db}
}

func (r *dailySummaryRepo) DB() *gorm.DB { return r.db }

func (r *dailySummaryRepo) UpsertTx(tx *gorm.DB, s *model.DailySalesSummary) error {
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"total_orders":     gorm.Expr("daily_sales_summaries.total_orders + ?", s.TotalOrders),
			"total_revenue":    gorm.Expr("daily_sales_summaries.total_revenue + ?", s.TotalRevenue),
			"total_cost":       gorm.Expr("daily_sales_summaries.total_cost + ?", s.TotalCost),
			"total_profit":     gorm.Expr("daily_sales_summaries.total_profit + ?", s.TotalProfit),
			"total_items_sold": gorm.Expr("daily_sales_summaries.total_items_sold + ?", s.TotalItemsSold),
			"updated_at":       gorm.Expr("NOW()"),
		}),
	}).Create(s).Error
}

func (r *dailySummaryRepo) FindByDate(ctx context.Context, day time.Time) (*model.DailySalesSummary, error) {
	var s model.DailySalesSummary
	err := r.db.WithContext(ctx).Where("date = ?", model.SummaryDay(day)).First(&s).Error
	return &s, err
}

func (r *dailySummaryRepo) Range(ctx context.Context, from, to time.Time) ([]model.DailySalesSummary, error) {
	var rows []model.DailySalesSummary
	err := r.db.WithContext(ctx).
		Where("date BETWEEN ? AND ?", model.SummaryDay(from), model.SummaryDay(to)).
		Order("date ASC").
		Find(&rows).Error
	return rows, err
}
