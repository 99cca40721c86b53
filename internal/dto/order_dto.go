package dto

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ─── Requests ────────────────────────────────────────────────────────────────

// StartSaleRequest opens a new draft order. OrderNumber is normally left
// empty and generated server-side; supplying one pins it verbatim.
type StartSaleRequest struct {
	StaffID      uuid.UUID `validate:"required"`
	OrderNumber  string    `validate:"omitempty,max=20"`
	CustomerName *string
	Notes        string
}

// AddItemRequest adds (or merges into) an order line. Code resolves by SKU
// first, then by barcode.
type AddItemRequest struct {
	Code      string `validate:"required"`
	Quantity  int    `validate:"required,gt=0"`
	UnitPrice *decimal.Decimal
}

// UpdateItemRequest changes quantity and/or unit price on a draft line.
type UpdateItemRequest struct {
	Quantity  *int `validate:"omitempty,gt=0"`
	UnitPrice *decimal.Decimal
}

// ApplyDiscountRequest applies an order-level discount.
type ApplyDiscountRequest struct {
	Type   string          `validate:"required,oneof=PERCENTAGE FIXED_AMOUNT"`
	Value  decimal.Decimal `validate:"min=0"`
	Reason *string
}

// ConfirmSaleRequest carries the optional payment fields persisted at
// confirm time.
type ConfirmSaleRequest struct {
	PaymentMethod *string `validate:"omitempty,oneof=CASH CARD TRANSFER QR"`
	AmountPaid    decimal.Decimal `validate:"min=0"`
	CustomerName  *string
}

// OrderFilter lists orders by status and day.
type OrderFilter struct {
	Status  string `validate:"omitempty,oneof=DRAFT CONFIRMED CANCELED"`
	StaffID *uuid.UUID
	Date    string `validate:"omitempty,datetime=2006-01-02"`
	Page    int    `validate:"min=0"`
	Limit   int    `validate:"min=0,max=200"`
}
