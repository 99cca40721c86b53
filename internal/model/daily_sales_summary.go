package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailySalesSummary is the per-calendar-day sales aggregate, keyed by the
// day-truncated date. Rows are only ever incremented additively (store-level
// atomic upsert), never recomputed, so concurrent confirms on the same day
// cannot lose updates.
type DailySalesSummary struct {
	Date           time.Time       `gorm:"type:date;primaryKey"`
	TotalOrders    int             `gorm:"not null;default:0"`
	TotalRevenue   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TotalCost      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TotalProfit    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TotalItemsSold int             `gorm:"not null;default:0"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SummaryDay truncates t to its UTC calendar day, the summary's grain.
func SummaryDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
