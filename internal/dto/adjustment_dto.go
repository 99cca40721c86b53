package dto

import (
	"time"

	"github.com/google/uuid"
)

// CreateAdjustmentRequest records a manual stock correction.
type CreateAdjustmentRequest struct {
	ProductID uuid.UUID `validate:"required"`
	Type      string    `validate:"required,oneof=INCREASE DECREASE"`
	Reason    string    `validate:"required"`
	Quantity  int       `validate:"required,gt=0"`
	Notes     string
	ActorID   uuid.UUID `validate:"required"`
}

// AdjustmentFilter lists ledger rows, newest first.
type AdjustmentFilter struct {
	ProductID *uuid.UUID
	Type      string `validate:"omitempty,oneof=INCREASE DECREASE"`
	Reason    string
	Page      int `validate:"min=0"`
	Limit     int `validate:"min=0,max=500"`
}

// ReasonStat is one per-reason aggregate bucket.
type ReasonStat struct {
	Reason        string
	Count         int64
	TotalQuantity int64
}

// AdjustmentStats summarizes the ledger for dashboards.
type AdjustmentStats struct {
	TotalAdjustments int64
	TotalIncreased   int64
	TotalDecreased   int64
	RecentCount      int64 // adjustments inside the recency window
	WindowStart      time.Time
	ByReason         []ReasonStat
}
