package service

import (
	"context"
	"time"

	"stockpos/internal/apperror"
	"stockpos/internal/cache"
	"stockpos/internal/dto"
	"stockpos/internal/model"
	"stockpos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReceivingService runs the purchase receiving workflow: a stock-in is
// created, passes the approval gate, and only then may be received — the one
// moment its quantities enter the stock pool.
type ReceivingService interface {
	Create(ctx context.Context, req dto.CreateStockInRequest) (*model.StockIn, error)
	Approve(ctx context.Context, id, approverID uuid.UUID) (*model.StockIn, error)
	Reject(ctx context.Context, id, approverID uuid.UUID, reason string) (*model.StockIn, error)
	Receive(ctx context.Context, id uuid.UUID) (*model.StockIn, error)
	Cancel(ctx context.Context, id uuid.UUID) (*model.StockIn, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateStockInRequest) (*model.StockIn, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.StockIn, error)
	List(ctx context.Context, filter dto.StockInFilter) ([]model.StockIn, int64, error)
}

type receivingService struct {
	stockIns    repository.StockInRepository
	products    repository.ProductRepository
	stock       StockService
	invalidator cache.Invalidator
}

func NewReceivingService(
	stockIns repository.StockInRepository,
	products repository.ProductRepository,
	stock StockService,
	invalidator cache.Invalidator,
) ReceivingService {
	return &receivingService{
		stockIns:    stockIns,
		products:    products,
		stock:       stock,
		invalidator: invalidator,
	}
}

func (s *receivingService) Create(ctx context.Context, req dto.CreateStockInRequest) (*model.StockIn, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}

	stockIn := &model.StockIn{
		Reference:      req.Reference,
		Status:         model.StockInStatusPending,
		ApprovalStatus: model.ApprovalPending,
		SupplierName:   req.SupplierName,
		Notes:          req.Notes,
		CreatedBy:      req.ActorID,
	}

	totalQty := 0
	totalCost := decimal.Zero
	for _, item := range req.Items {
		if _, err := s.products.FindByID(ctx, item.ProductID); err != nil {
			return nil, notFoundOr(err, "product %s not found", item.ProductID)
		}
		lineCost := item.UnitCost.Mul(decimal.NewFromInt(int64(item.Qty)))
		totalQty += item.Qty
		totalCost = totalCost.Add(lineCost)
		stockIn.Items = append(stockIn.Items, model.StockInItem{
			ProductID: item.ProductID,
			Qty:       item.Qty,
			UnitCost:  item.UnitCost,
			TotalCost: lineCost,
		})
	}
	stockIn.TotalQty = totalQty
	stockIn.TotalCost = totalCost

	// A privileged creator skips the approval queue; the record is born
	// approved with the audit fields already filled in.
	if req.ActorCanAutoApprove {
		now := time.Now()
		actor := req.ActorID
		stockIn.ApprovalStatus = model.ApprovalApproved
		stockIn.ApprovedBy = &actor
		stockIn.ApprovedAt = &now
	}

	if err := s.stockIns.Create(ctx, stockIn); err != nil {
		if isDuplicateKey(err) {
			return nil, apperror.Conflict("stock-in reference %q already exists", req.Reference)
		}
		return nil, apperror.Internal(err)
	}
	return stockIn, nil
}

func (s *receivingService) Approve(ctx context.Context, id, approverID uuid.UUID) (*model.StockIn, error) {
	stockIn, err := s.stockIns.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "stock-in %s not found", id)
	}
	if !stockIn.CanApprove() {
		return nil, apperror.InvalidState("stock-in %s cannot be approved (status=%s approval=%s)",
			stockIn.Reference, stockIn.Status, stockIn.ApprovalStatus)
	}

	now := time.Now()
	stockIn.ApprovalStatus = model.ApprovalApproved
	stockIn.ApprovedBy = &approverID
	stockIn.ApprovedAt = &now
	stockIn.RejectionReason = nil
	if err := s.stockIns.Update(ctx, stockIn); err != nil {
		return nil, apperror.Internal(err)
	}
	return stockIn, nil
}

func (s *receivingService) Reject(ctx context.Context, id, approverID uuid.UUID, reason string) (*model.StockIn, error) {
	if reason == "" {
		return nil, apperror.Validation("a rejection reason is required")
	}
	stockIn, err := s.stockIns.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "stock-in %s not found", id)
	}
	if !stockIn.CanReject() {
		return nil, apperror.InvalidState("stock-in %s cannot be rejected (status=%s approval=%s)",
			stockIn.Reference, stockIn.Status, stockIn.ApprovalStatus)
	}

	stockIn.ApprovalStatus = model.ApprovalRejected
	stockIn.RejectionReason = &reason
	if err := s.stockIns.Update(ctx, stockIn); err != nil {
		return nil, apperror.Internal(err)
	}
	return stockIn, nil
}

// Receive moves every item quantity into its resolved stock target and
// stamps the product's cost price with the item's unit cost, all inside one
// transaction. When the same product appears twice, the later line's cost
// wins — deliberate last-write-wins, matching the ledger's receive order.
func (s *receivingService) Receive(ctx context.Context, id uuid.UUID) (*model.StockIn, error) {
	var received *model.StockIn
	var productIDs []uuid.UUID

	err := runTx(ctx, s.stockIns.DB(), func(tx *gorm.DB) error {
		stockIn, err := s.stockIns.FindByIDTx(tx, id)
		if err != nil {
			return notFoundOr(err, "stock-in %s not found", id)
		}
		if !stockIn.CanReceive() {
			return apperror.InvalidState("stock-in %s cannot be received (status=%s approval=%s)",
				stockIn.Reference, stockIn.Status, stockIn.ApprovalStatus)
		}

		for _, item := range stockIn.Items {
			targetID, err := s.stock.ResolveStockTarget(ctx, item.ProductID)
			if err != nil {
				return err
			}
			if _, err := s.stock.AdjustStockTx(tx, targetID, item.Qty); err != nil {
				return err
			}
			if err := s.products.UpdateCostPriceTx(tx, item.ProductID, item.UnitCost); err != nil {
				return apperror.Internal(err)
			}
			productIDs = append(productIDs, item.ProductID)
		}

		now := time.Now()
		stockIn.Status = model.StockInStatusReceived
		stockIn.ReceivedAt = &now
		if err := s.stockIns.UpdateTx(tx, stockIn); err != nil {
			return apperror.Internal(err)
		}
		received = stockIn
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.invalidator != nil {
		s.invalidator.InvalidateStockViews(ctx, productIDs...)
	}
	return received, nil
}

func (s *receivingService) Cancel(ctx context.Context, id uuid.UUID) (*model.StockIn, error) {
	stockIn, err := s.stockIns.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "stock-in %s not found", id)
	}
	if !stockIn.CanCancel() {
		return nil, apperror.InvalidState("stock-in %s was already received", stockIn.Reference)
	}

	stockIn.Status = model.StockInStatusCancelled
	if err := s.stockIns.Update(ctx, stockIn); err != nil {
		return nil, apperror.Internal(err)
	}
	return stockIn, nil
}

func (s *receivingService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateStockInRequest) (*model.StockIn, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	stockIn, err := s.stockIns.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "stock-in %s not found", id)
	}
	if !stockIn.CanUpdate() {
		return nil, apperror.InvalidState("stock-in %s was already received", stockIn.Reference)
	}

	// Reference and items are immutable once created; only the descriptive
	// fields may change.
	if req.SupplierName != nil {
		stockIn.SupplierName = *req.SupplierName
	}
	if req.Notes != nil {
		stockIn.Notes = *req.Notes
	}
	if err := s.stockIns.Update(ctx, stockIn); err != nil {
		return nil, apperror.Internal(err)
	}
	return stockIn, nil
}

func (s *receivingService) GetByID(ctx context.Context, id uuid.UUID) (*model.StockIn, error) {
	stockIn, err := s.stockIns.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "stock-in %s not found", id)
	}
	return stockIn, nil
}

func (s *receivingService) List(ctx context.Context, filter dto.StockInFilter) ([]model.StockIn, int64, error) {
	if err := dto.Validate(filter); err != nil {
		return nil, 0, err
	}
	records, total, err := s.stockIns.List(ctx, filter)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	return records, total, nil
}
