package dto

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockInItemRequest is one receiving line.
type StockInItemRequest struct {
	ProductID uuid.UUID       `validate:"required"`
	Qty       int             `validate:"required,gt=0"`
	UnitCost  decimal.Decimal `validate:"min=0"`
}

// CreateStockInRequest opens a receiving record. Reference and items are
// immutable once created. ActorCanAutoApprove is decided by the caller's
// authorization collaborator; this core never evaluates roles itself.
type CreateStockInRequest struct {
	Reference           string               `validate:"required,max=50"`
	SupplierName        string               `validate:"max=120"`
	Notes               string
	Items               []StockInItemRequest `validate:"required,min=1,dive"`
	ActorID             uuid.UUID            `validate:"required"`
	ActorCanAutoApprove bool
}

// UpdateStockInRequest edits the non-item fields of a not-yet-received record.
type UpdateStockInRequest struct {
	SupplierName *string `validate:"omitempty,max=120"`
	Notes        *string
}

// StockInFilter lists receiving records.
type StockInFilter struct {
	Status         string `validate:"omitempty,oneof=PENDING RECEIVED CANCELLED"`
	ApprovalStatus string `validate:"omitempty,oneof=PENDING_APPROVAL APPROVED REJECTED"`
	Page           int    `validate:"min=0"`
	Limit          int    `validate:"min=0,max=200"`
}
