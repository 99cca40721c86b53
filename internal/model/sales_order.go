package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order lifecycle: DRAFT is freely mutable, then exactly one transition to
// CONFIRMED (stock-affecting) or CANCELED (no stock effect). Both terminal.
const (
	OrderStatusDraft     = "DRAFT"
	OrderStatusConfirmed = "CONFIRMED"
	OrderStatusCanceled  = "CANCELED"
)

// Order-level discount types.
const (
	DiscountPercentage  = "PERCENTAGE"
	DiscountFixedAmount = "FIXED_AMOUNT"
)

// SalesOrder is a point-of-sale order. Draft orders never reserve stock; the
// authoritative stock check and decrement happen once, at confirm time.
type SalesOrder struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderNumber string    `gorm:"uniqueIndex;not null"`
	Status      string    `gorm:"not null;default:'DRAFT';index"`
	StaffID     uuid.UUID `gorm:"type:uuid;not null;index"`

	DiscountType   *string         `gorm:""`
	DiscountValue  decimal.Decimal `gorm:"type:decimal(10,2);default:0"`
	DiscountReason *string

	// Optional payment / customer fields persisted at confirm time.
	PaymentMethod *string
	AmountPaid    decimal.Decimal `gorm:"type:decimal(10,2);default:0"`
	CustomerName  *string
	Notes         string

	TotalCost  decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	Profit     decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`

	CreatedAt   time.Time
	UpdatedAt   time.Time
	ConfirmedAt *time.Time
	CanceledAt  *time.Time

	Items []SalesItem `gorm:"foreignKey:OrderID"`
}

// IsDraft reports whether items and order fields may still be mutated.
func (o *SalesOrder) IsDraft() bool { return o.Status == OrderStatusDraft }

// SalesItem is one order line. UnitCost and UnitPrice are snapshots taken
// when the line is added so later catalog edits never rewrite history.
type SalesItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index"`
	SKU       string    `gorm:"not null"`
	Quantity  int       `gorm:"not null"`
	UnitCost  decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Profit    decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}

// Recalculate refreshes the derived line amounts from quantity and prices.
func (i *SalesItem) Recalculate() {
	qty := decimal.NewFromInt(int64(i.Quantity))
	i.Subtotal = i.UnitPrice.Mul(qty)
	i.Profit = i.UnitPrice.Sub(i.UnitCost).Mul(qty)
}
