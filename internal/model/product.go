package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is the authoritative stock row. A master product owns a physical
// stock pool; variant products (MasterProductID set) are sellable SKUs that
// draw from their master's pool and always keep StockQty == 0 themselves.
// The relation is depth-1 only: a master never points at another master.
type Product struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SKU       string    `gorm:"uniqueIndex;not null"`
	Barcode   *string   `gorm:"uniqueIndex"`
	Name      string    `gorm:"index;not null"`
	StockQty  int       `gorm:"not null;default:0"`
	MinStock  int       `gorm:"not null;default:0"`
	MaxStock  int       `gorm:"not null;default:0"`
	CostPrice decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	SellPrice decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	IsMaster  bool      `gorm:"not null;default:false"`
	IsVisible bool      `gorm:"not null;default:true"`
	// MasterProductID links a variant to the product whose stock it shares.
	MasterProductID *uuid.UUID `gorm:"type:uuid;index"`
	IsActive        bool       `gorm:"not null;default:true"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Master *Product `gorm:"foreignKey:MasterProductID"`
}

// IsVariant reports whether this product draws stock from a master.
func (p *Product) IsVariant() bool { return p.MasterProductID != nil }

// StockTargetID returns the id whose stock_qty field is actually read or
// written for this product: itself, or its master when linked.
func (p *Product) StockTargetID() uuid.UUID {
	if p.MasterProductID != nil {
		return *p.MasterProductID
	}
	return p.ID
}

// IsLowStock evaluates the min-stock threshold. Variants are never evaluated
// on their own MinStock; their master's row is the one that matters.
func (p *Product) IsLowStock() bool {
	return !p.IsVariant() && p.StockQty <= p.MinStock
}
