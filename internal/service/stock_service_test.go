package service

import (
	"context"
	"testing"

	"stockpos/internal/apperror"
	"stockpos/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStockFixture() (*stubProductRepo, *recordingInvalidator, StockService) {
	products := newStubProductRepo()
	inv := &recordingInvalidator{}
	return products, inv, NewStockService(products, inv)
}

func TestResolveStockTarget(t *testing.T) {
	products, _, svc := newStockFixture()
	ctx := context.Background()
	master := products.add(model.Product{SKU: "BULK", StockQty: 10, IsMaster: true})
	variant := products.add(model.Product{SKU: "UNIT", MasterProductID: &master.ID})
	plain := products.add(model.Product{SKU: "PLAIN", StockQty: 2})

	got, err := svc.ResolveStockTarget(ctx, plain.ID)
	require.NoError(t, err)
	assert.Equal(t, plain.ID, got)

	got, err = svc.ResolveStockTarget(ctx, variant.ID)
	require.NoError(t, err)
	assert.Equal(t, master.ID, got)

	_, err = svc.ResolveStockTarget(ctx, uuid.New())
	assert.True(t, apperror.IsNotFound(err))
}

func TestResolveStockTargetRejectsChains(t *testing.T) {
	products, _, svc := newStockFixture()
	grandmaster := products.add(model.Product{SKU: "G", IsMaster: true})
	// A corrupted middle node: variant of one product, master of another.
	middle := products.add(model.Product{SKU: "M", MasterProductID: &grandmaster.ID})
	leaf := products.add(model.Product{SKU: "L", MasterProductID: &middle.ID})

	_, err := svc.ResolveStockTarget(context.Background(), leaf.ID)
	assert.True(t, apperror.IsValidation(err))
}

func TestGetActualStockFollowsMaster(t *testing.T) {
	products, _, svc := newStockFixture()
	ctx := context.Background()
	master := products.add(model.Product{SKU: "BULK", StockQty: 42, IsMaster: true})
	variant := products.add(model.Product{SKU: "UNIT", MasterProductID: &master.ID})

	qty, err := svc.GetActualStock(ctx, variant.ID)
	require.NoError(t, err)
	assert.Equal(t, 42, qty)
}

func TestAdjustStockTxFloor(t *testing.T) {
	products, _, svc := newStockFixture()
	p := products.add(model.Product{SKU: "A", StockQty: 5})

	newQty, err := svc.AdjustStockTx(nil, p.ID, -5)
	require.NoError(t, err)
	assert.Equal(t, 0, newQty)

	_, err = svc.AdjustStockTx(nil, p.ID, -1)
	assert.True(t, apperror.IsInsufficientStock(err))
	assert.Equal(t, 0, products.stock(p.ID))

	_, err = svc.AdjustStockTx(nil, uuid.New(), 3)
	assert.True(t, apperror.IsNotFound(err))
}

func TestConvertToVariantTransfersStock(t *testing.T) {
	products, inv, svc := newStockFixture()
	ctx := context.Background()
	master := products.add(model.Product{SKU: "BULK", StockQty: 10, IsMaster: true})
	p := products.add(model.Product{SKU: "SOLO", StockQty: 7})

	require.NoError(t, svc.ConvertToVariant(ctx, p.ID, master.ID))

	assert.Equal(t, 17, products.stock(master.ID))
	assert.Equal(t, 0, products.stock(p.ID))
	got, err := products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got.MasterProductID)
	assert.Equal(t, master.ID, *got.MasterProductID)
	assert.NotZero(t, inv.calls)
}

func TestConvertToVariantGuards(t *testing.T) {
	products, _, svc := newStockFixture()
	ctx := context.Background()
	master := products.add(model.Product{SKU: "BULK", IsMaster: true})
	other := products.add(model.Product{SKU: "OTHER", IsMaster: true})
	variant := products.add(model.Product{SKU: "UNIT", MasterProductID: &master.ID})
	plain := products.add(model.Product{SKU: "PLAIN"})

	// Self-link.
	err := svc.ConvertToVariant(ctx, plain.ID, plain.ID)
	assert.True(t, apperror.IsValidation(err))

	// A master cannot become a variant.
	err = svc.ConvertToVariant(ctx, other.ID, master.ID)
	assert.True(t, apperror.IsValidation(err))

	// Re-linking an existing variant is rejected.
	err = svc.ConvertToVariant(ctx, variant.ID, other.ID)
	assert.True(t, apperror.IsValidation(err))

	// The target must be flagged as a master.
	err = svc.ConvertToVariant(ctx, plain.ID, variant.ID)
	assert.True(t, apperror.IsValidation(err))
}

func TestListLowStockSkipsVariants(t *testing.T) {
	products, _, svc := newStockFixture()
	master := products.add(model.Product{SKU: "BULK", StockQty: 1, MinStock: 5, IsMaster: true})
	products.add(model.Product{SKU: "UNIT", StockQty: 0, MinStock: 5, MasterProductID: &master.ID})
	products.add(model.Product{SKU: "OK", StockQty: 50, MinStock: 5})

	low, err := svc.ListLowStock(context.Background())
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "BULK", low[0].SKU)
}
