package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockIn carries two orthogonal axes. Status tracks the physical receiving
// flow, ApprovalStatus the sign-off flow. RECEIVED and CANCELLED absorb.
const (
	StockInStatusPending   = "PENDING"
	StockInStatusReceived  = "RECEIVED"
	StockInStatusCancelled = "CANCELLED"

	ApprovalPending  = "PENDING_APPROVAL"
	ApprovalApproved = "APPROVED"
	ApprovalRejected = "REJECTED"
)

// StockIn is a purchase receiving record. Stock only moves when the record is
// both APPROVED and explicitly received; cancellation never touches stock.
// All transition legality lives in the Can* guards below so that an illegal
// combination (e.g. receiving while still pending approval) cannot be reached
// from two independently-checked enum fields.
type StockIn struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Reference      string    `gorm:"uniqueIndex;not null"`
	Status         string    `gorm:"not null;default:'PENDING';index"`
	ApprovalStatus string    `gorm:"not null;default:'PENDING_APPROVAL';index"`

	SupplierName string
	Notes        string

	TotalQty  int             `gorm:"not null;default:0"`
	TotalCost decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`

	RejectionReason *string
	ApprovedBy      *uuid.UUID `gorm:"type:uuid"`
	ApprovedAt      *time.Time
	ReceivedAt      *time.Time

	CreatedBy uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Items []StockInItem `gorm:"foreignKey:StockInID"`
}

// StockInItem is one line of a receiving record.
type StockInItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StockInID uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index"`
	Qty       int       `gorm:"not null"`
	UnitCost  decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	TotalCost decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CreatedAt time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}

// terminal reports whether the receiving axis reached an absorbing state.
func (s *StockIn) terminal() bool {
	return s.Status == StockInStatusReceived || s.Status == StockInStatusCancelled
}

// CanApprove / CanReject: the approval axis only moves out of
// PENDING_APPROVAL, and never once the record itself is terminal.
func (s *StockIn) CanApprove() bool {
	return !s.terminal() && s.ApprovalStatus == ApprovalPending
}

func (s *StockIn) CanReject() bool { return s.CanApprove() }

// CanReceive: receiving requires an approved, non-terminal record.
func (s *StockIn) CanReceive() bool {
	return !s.terminal() && s.ApprovalStatus == ApprovalApproved
}

// CanCancel: anything not yet received may be cancelled.
func (s *StockIn) CanCancel() bool { return s.Status != StockInStatusReceived }

// CanUpdate: non-item fields stay editable until the stock actually moved.
func (s *StockIn) CanUpdate() bool { return s.Status != StockInStatusReceived }
