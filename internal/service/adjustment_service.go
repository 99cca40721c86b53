package service

import (
	"context"
	"time"

	"stockpos/internal/apperror"
	"stockpos/internal/cache"
	"stockpos/internal/dto"
	"stockpos/internal/model"
	"stockpos/internal/repository"

	"gorm.io/gorm"
)

// adjustmentRecencyWindow bounds the "recent" bucket in GetAdjustmentStats.
const adjustmentRecencyWindow = 7 * 24 * time.Hour

// AdjustmentService is the manual-correction ledger. Every row carries an
// immutable before/after snapshot written in the same transaction that moved
// the stock.
type AdjustmentService interface {
	CreateAdjustment(ctx context.Context, req dto.CreateAdjustmentRequest) (*model.StockAdjustment, error)
	ListAdjustments(ctx context.Context, filter dto.AdjustmentFilter) ([]model.StockAdjustment, int64, error)
	GetAdjustmentStats(ctx context.Context) (*dto.AdjustmentStats, error)
}

type adjustmentService struct {
	adjustments repository.StockAdjustmentRepository
	products    repository.ProductRepository
	stock       StockService
	invalidator cache.Invalidator
}

func NewAdjustmentService(
	adjustments repository.StockAdjustmentRepository,
	products repository.ProductRepository,
	stock StockService,
	invalidator cache.Invalidator,
) AdjustmentService {
	return &adjustmentService{
		adjustments: adjustments,
		products:    products,
		stock:       stock,
		invalidator: invalidator,
	}
}

func (s *adjustmentService) CreateAdjustment(ctx context.Context, req dto.CreateAdjustmentRequest) (*model.StockAdjustment, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	if !model.ValidAdjustmentReason(req.Reason) {
		return nil, apperror.Validation("unknown adjustment reason %q", req.Reason)
	}

	targetID, err := s.stock.ResolveStockTarget(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	delta := req.Quantity
	if req.Type == model.AdjustmentDecrease {
		delta = -req.Quantity
	}

	adj := &model.StockAdjustment{
		ProductID:  req.ProductID,
		Type:       req.Type,
		Reason:     req.Reason,
		Quantity:   req.Quantity,
		Notes:      req.Notes,
		AdjustedBy: req.ActorID,
	}

	err = runTx(ctx, s.adjustments.DB(), func(tx *gorm.DB) error {
		// The conditional update both enforces the floor and hands back the
		// post-adjustment quantity, so the snapshot is derived from the same
		// atomic statement rather than a separate read.
		newQty, err := s.stock.AdjustStockTx(tx, targetID, delta)
		if err != nil {
			return err
		}
		adj.OldStock = newQty - delta
		adj.NewStock = newQty
		return s.adjustments.CreateTx(tx, adj)
	})
	if err != nil {
		return nil, err
	}

	if s.invalidator != nil {
		s.invalidator.InvalidateStockViews(ctx, req.ProductID, targetID)
	}
	return adj, nil
}

func (s *adjustmentService) ListAdjustments(ctx context.Context, filter dto.AdjustmentFilter) ([]model.StockAdjustment, int64, error) {
	if err := dto.Validate(filter); err != nil {
		return nil, 0, err
	}
	rows, total, err := s.adjustments.List(ctx, filter)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	return rows, total, nil
}

func (s *adjustmentService) GetAdjustmentStats(ctx context.Context) (*dto.AdjustmentStats, error) {
	stats, err := s.adjustments.Stats(ctx, time.Now().Add(-adjustmentRecencyWindow))
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return stats, nil
}
