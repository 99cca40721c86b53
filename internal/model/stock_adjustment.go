package model

import (
	"time"

	"github.com/google/uuid"
)

// Adjustment direction.
const (
	AdjustmentIncrease = "INCREASE"
	AdjustmentDecrease = "DECREASE"
)

// Adjustment reasons.
const (
	ReasonDamaged = "DAMAGED"
	ReasonExpired = "EXPIRED"
	ReasonLost    = "LOST"
	ReasonFound   = "FOUND"
	ReasonRecount = "RECOUNT"
	ReasonOther   = "OTHER"
)

// ValidAdjustmentReason reports whether reason is a known enum value.
func ValidAdjustmentReason(reason string) bool {
	switch reason {
	case ReasonDamaged, ReasonExpired, ReasonLost, ReasonFound, ReasonRecount, ReasonOther:
		return true
	}
	return false
}

// StockAdjustment is an append-only audit row for a manual stock correction.
// OldStock/NewStock snapshot the resolved target's quantity at write time and
// are immutable afterwards: NewStock = OldStock ± Quantity, never below zero.
type StockAdjustment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index"`
	Type      string    `gorm:"not null"`
	Reason    string    `gorm:"not null;index"`
	Quantity  int       `gorm:"not null"`
	OldStock  int       `gorm:"not null"`
	NewStock  int       `gorm:"not null"`
	Notes     string
	AdjustedBy uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt  time.Time `gorm:"index"`

	Product *Product `gorm:"foreignKey:ProductID"`
}
