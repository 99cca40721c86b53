package service

import (
	"context"

	"stockpos/internal/apperror"
	"stockpos/internal/cache"
	"stockpos/internal/model"
	"stockpos/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StockService owns the authoritative per-product stock counter and the
// master/variant resolution rules. Every other service routes its stock
// mutations through AdjustStockTx so the non-negative invariant has exactly
// one enforcement point.
type StockService interface {
	// ResolveStockTarget returns the id whose stock_qty is actually read or
	// written for productID: itself, or its master when linked. A chain
	// deeper than one hop is rejected.
	ResolveStockTarget(ctx context.Context, productID uuid.UUID) (uuid.UUID, error)
	GetActualStock(ctx context.Context, productID uuid.UUID) (int, error)
	// AdjustStockTx atomically applies delta to the resolved target's row
	// inside the caller's transaction. A decrement that would go negative
	// fails with InsufficientStock and applies nothing.
	AdjustStockTx(tx *gorm.DB, targetID uuid.UUID, delta int) (int, error)
	// ConvertToVariant transfers the product's remaining stock into the
	// master's pool and links the product as a variant, as one atomic unit.
	ConvertToVariant(ctx context.Context, productID, masterID uuid.UUID) error
	// ListLowStock feeds the low-stock read view. Variants never appear;
	// their master's row carries the pool.
	ListLowStock(ctx context.Context) ([]model.Product, error)
}

type stockService struct {
	products    repository.ProductRepository
	invalidator cache.Invalidator
}

func NewStockService(products repository.ProductRepository, invalidator cache.Invalidator) StockService {
	return &stockService{products: products, invalidator: invalidator}
}

func (s *stockService) ResolveStockTarget(ctx context.Context, productID uuid.UUID) (uuid.UUID, error) {
	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return uuid.Nil, notFoundOr(err, "product %s not found", productID)
	}
	if p.MasterProductID == nil {
		return p.ID, nil
	}

	master, err := s.products.FindByID(ctx, *p.MasterProductID)
	if err != nil {
		return uuid.Nil, notFoundOr(err, "master product %s not found", *p.MasterProductID)
	}
	// Depth-1 invariant: a master that is itself a variant means the graph
	// was corrupted outside the guarded paths. Refuse to chain.
	if master.MasterProductID != nil {
		return uuid.Nil, apperror.Validation("product %s resolves through more than one hop", productID)
	}
	return master.ID, nil
}

func (s *stockService) GetActualStock(ctx context.Context, productID uuid.UUID) (int, error) {
	targetID, err := s.ResolveStockTarget(ctx, productID)
	if err != nil {
		return 0, err
	}
	target, err := s.products.FindByID(ctx, targetID)
	if err != nil {
		return 0, notFoundOr(err, "product %s not found", targetID)
	}
	return target.StockQty, nil
}

func (s *stockService) AdjustStockTx(tx *gorm.DB, targetID uuid.UUID, delta int) (int, error) {
	newQty, applied, err := s.products.AdjustStockTx(tx, targetID, delta)
	if err != nil {
		return 0, apperror.Internal(err)
	}
	if !applied {
		if delta < 0 {
			return 0, apperror.InsufficientStock("stock for product %s cannot go below zero (delta %d)", targetID, delta)
		}
		return 0, apperror.NotFound("product %s not found", targetID)
	}
	return newQty, nil
}

func (s *stockService) ConvertToVariant(ctx context.Context, productID, masterID uuid.UUID) error {
	if productID == masterID {
		return apperror.Validation("a product cannot be its own master")
	}

	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return notFoundOr(err, "product %s not found", productID)
	}
	if p.IsMaster {
		return apperror.Validation("product %s is a master and cannot become a variant", p.SKU)
	}
	if p.MasterProductID != nil {
		return apperror.Validation("product %s is already a variant", p.SKU)
	}

	master, err := s.products.FindByID(ctx, masterID)
	if err != nil {
		return notFoundOr(err, "master product %s not found", masterID)
	}
	if !master.IsMaster {
		return apperror.Validation("product %s is not flagged as a master", master.SKU)
	}
	if master.MasterProductID != nil {
		return apperror.Validation("product %s is itself a variant and cannot take variants", master.SKU)
	}

	err = runTx(ctx, s.products.DB(), func(tx *gorm.DB) error {
		// Lock the variant-to-be so its remaining stock cannot move while
		// we transfer it into the master's pool.
		locked, err := s.products.FindByIDTx(tx, productID)
		if err != nil {
			return notFoundOr(err, "product %s not found", productID)
		}
		if locked.StockQty > 0 {
			if _, err := s.AdjustStockTx(tx, masterID, locked.StockQty); err != nil {
				return err
			}
		}
		if err := s.products.LinkToMasterTx(tx, productID, masterID); err != nil {
			return apperror.Internal(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, productID, masterID)
	return nil
}

func (s *stockService) invalidate(ctx context.Context, ids ...uuid.UUID) {
	if s.invalidator != nil {
		s.invalidator.InvalidateStockViews(ctx, ids...)
	}
}

func (s *stockService) ListLowStock(ctx context.Context) ([]model.Product, error) {
	return s.products.ListLowStock(ctx)
}
