package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
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

// orderNumberPattern is the strict format a scanned code must match before it
// is ever treated as an order relabel. Arbitrary scan noise must never
// silently overwrite an order number.
var orderNumberPattern = regexp.MustCompile(`^SO-\d{8}-\d{4}$`)

// maxOrderNumberAttempts bounds the retry loop when generated numbers race.
const maxOrderNumberAttempts = 5

// OrderService is the POS draft → confirm engine. Drafts never reserve
// stock; the advisory check at add-time keeps the UI honest, and the
// authoritative check happens inside the confirm transaction.
type OrderService interface {
	StartSale(ctx context.Context, req dto.StartSaleRequest) (*model.SalesOrder, error)
	AddItem(ctx context.Context, orderID uuid.UUID, req dto.AddItemRequest) (*model.SalesOrder, error)
	ScanBarcode(ctx context.Context, orderID uuid.UUID, code string) (*model.SalesOrder, error)
	UpdateItem(ctx context.Context, itemID uuid.UUID, req dto.UpdateItemRequest) (*model.SalesOrder, error)
	RemoveItem(ctx context.Context, itemID uuid.UUID) (*model.SalesOrder, error)
	ApplyDiscount(ctx context.Context, orderID uuid.UUID, req dto.ApplyDiscountRequest) (*model.SalesOrder, error)
	ConfirmSale(ctx context.Context, orderID uuid.UUID, req dto.ConfirmSaleRequest) (*model.SalesOrder, error)
	CancelOrder(ctx context.Context, orderID uuid.UUID) (*model.SalesOrder, error)
	GetOrderByID(ctx context.Context, id uuid.UUID) (*model.SalesOrder, error)
	GetOrderByNumber(ctx context.Context, number string) (*model.SalesOrder, error)
	ListOrders(ctx context.Context, filter dto.OrderFilter) ([]model.SalesOrder, int64, error)
	// GetDailySummaries returns the per-day sales aggregates in [from, to].
	GetDailySummaries(ctx context.Context, from, to time.Time) ([]model.DailySalesSummary, error)
}

type orderService struct {
	orders      repository.SalesOrderRepository
	products    repository.ProductRepository
	summaries   repository.DailySummaryRepository
	stock       StockService
	invalidator cache.Invalidator
}

func NewOrderService(
	orders repository.SalesOrderRepository,
	products repository.ProductRepository,
	summaries repository.DailySummaryRepository,
	stock StockService,
	invalidator cache.Invalidator,
) OrderService {
	return &orderService{
		orders:      orders,
		products:    products,
		summaries:   summaries,
		stock:       stock,
		invalidator: invalidator,
	}
}

// ── StartSale ────────────────────────────────────────────────────────────────

func (s *orderService) StartSale(ctx context.Context, req dto.StartSaleRequest) (*model.SalesOrder, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxOrderNumberAttempts; attempt++ {
		number := req.OrderNumber
		if number == "" {
			n, err := s.nextOrderNumber(ctx, attempt)
			if err != nil {
				return nil, err
			}
			number = n
		}

		order := &model.SalesOrder{
			OrderNumber:  number,
			Status:       model.OrderStatusDraft,
			StaffID:      req.StaffID,
			CustomerName: req.CustomerName,
			Notes:        req.Notes,
		}
		err := s.orders.Create(ctx, order)
		if err == nil {
			return order, nil
		}
		if !isDuplicateKey(err) {
			return nil, apperror.Internal(err)
		}
		// A caller-supplied number has nothing to retry with.
		if req.OrderNumber != "" {
			return nil, apperror.Conflict("order number %q already exists", req.OrderNumber)
		}
	}
	return nil, apperror.Conflict("could not allocate a unique order number")
}

// nextOrderNumber produces SO-YYYYMMDD-NNNN, where NNNN continues today's
// sequence. attempt skips past numbers lost to a concurrent creator.
func (s *orderService) nextOrderNumber(ctx context.Context, attempt int) (string, error) {
	prefix := "SO-" + time.Now().Format("20060102") + "-"
	count, err := s.orders.CountByNumberPrefix(ctx, prefix)
	if err != nil {
		return "", apperror.Internal(err)
	}
	return fmt.Sprintf("%s%04d", prefix, count+int64(attempt)+1), nil
}

// ── Draft item management ────────────────────────────────────────────────────

func (s *orderService) AddItem(ctx context.Context, orderID uuid.UUID, req dto.AddItemRequest) (*model.SalesOrder, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}

	order, err := s.loadDraft(ctx, orderID)
	if err != nil {
		return nil, err
	}

	product, err := s.products.FindByCode(ctx, req.Code)
	if err != nil {
		return nil, notFoundOr(err, "no product matches %q", req.Code)
	}

	// Merge into an existing line rather than duplicating it.
	var line *model.SalesItem
	for i := range order.Items {
		if order.Items[i].ProductID == product.ID {
			line = &order.Items[i]
			break
		}
	}

	existingQty := 0
	if line != nil {
		existingQty = line.Quantity
	}
	if err := s.checkStock(ctx, product, existingQty+req.Quantity); err != nil {
		return nil, err
	}

	unitPrice := product.SellPrice
	if unitPrice.IsZero() {
		unitPrice = product.CostPrice
	}
	if req.UnitPrice != nil {
		unitPrice = *req.UnitPrice
	}

	err = runTx(ctx, s.orders.DB(), func(tx *gorm.DB) error {
		if line != nil {
			line.Quantity += req.Quantity
			if req.UnitPrice != nil {
				line.UnitPrice = *req.UnitPrice
			}
			line.Recalculate()
			if err := s.orders.UpdateItemTx(tx, line); err != nil {
				return apperror.Internal(err)
			}
		} else {
			item := model.SalesItem{
				OrderID:   order.ID,
				ProductID: product.ID,
				SKU:       product.SKU,
				Quantity:  req.Quantity,
				UnitCost:  product.CostPrice,
				UnitPrice: unitPrice,
			}
			item.Recalculate()
			if err := s.orders.CreateItemTx(tx, &item); err != nil {
				return apperror.Internal(err)
			}
			order.Items = append(order.Items, item)
		}
		return s.saveTotalsTx(tx, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *orderService) ScanBarcode(ctx context.Context, orderID uuid.UUID, code string) (*model.SalesOrder, error) {
	if code == "" {
		return nil, apperror.Validation("scanned code is empty")
	}

	// A product match always wins: scanning an item adds one unit.
	_, err := s.products.FindByCode(ctx, code)
	if err == nil {
		return s.AddItem(ctx, orderID, dto.AddItemRequest{Code: code, Quantity: 1})
	}
	// Only a true miss falls through to the relabel path; a storage failure
	// must never be read as "not a product".
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Internal(err)
	}

	// Not a product. Only a code in strict order-number form may relabel.
	if !orderNumberPattern.MatchString(code) {
		return nil, apperror.NotFound("code %q matches neither a product nor an order number", code)
	}

	order, err := s.loadDraft(ctx, orderID)
	if err != nil {
		return nil, err
	}
	order.OrderNumber = code
	if err := s.orders.Update(ctx, order); err != nil {
		if isDuplicateKey(err) {
			return nil, apperror.Conflict("order number %q already exists", code)
		}
		return nil, apperror.Internal(err)
	}
	return order, nil
}

func (s *orderService) UpdateItem(ctx context.Context, itemID uuid.UUID, req dto.UpdateItemRequest) (*model.SalesOrder, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}

	item, err := s.orders.FindItem(ctx, itemID)
	if err != nil {
		return nil, notFoundOr(err, "order item %s not found", itemID)
	}
	order, err := s.loadDraft(ctx, item.OrderID)
	if err != nil {
		return nil, err
	}

	if req.Quantity != nil && *req.Quantity != item.Quantity {
		product, err := s.products.FindByID(ctx, item.ProductID)
		if err != nil {
			return nil, notFoundOr(err, "product %s not found", item.ProductID)
		}
		if err := s.checkStock(ctx, product, *req.Quantity); err != nil {
			return nil, err
		}
		item.Quantity = *req.Quantity
	}
	if req.UnitPrice != nil {
		item.UnitPrice = *req.UnitPrice
	}
	item.Recalculate()

	err = runTx(ctx, s.orders.DB(), func(tx *gorm.DB) error {
		if err := s.orders.UpdateItemTx(tx, item); err != nil {
			return apperror.Internal(err)
		}
		for i := range order.Items {
			if order.Items[i].ID == item.ID {
				order.Items[i] = *item
				break
			}
		}
		return s.saveTotalsTx(tx, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *orderService) RemoveItem(ctx context.Context, itemID uuid.UUID) (*model.SalesOrder, error) {
	item, err := s.orders.FindItem(ctx, itemID)
	if err != nil {
		return nil, notFoundOr(err, "order item %s not found", itemID)
	}
	order, err := s.loadDraft(ctx, item.OrderID)
	if err != nil {
		return nil, err
	}

	err = runTx(ctx, s.orders.DB(), func(tx *gorm.DB) error {
		if err := s.orders.DeleteItemTx(tx, item.ID); err != nil {
			return apperror.Internal(err)
		}
		kept := order.Items[:0]
		for _, it := range order.Items {
			if it.ID != item.ID {
				kept = append(kept, it)
			}
		}
		order.Items = kept
		return s.saveTotalsTx(tx, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// ── Discounts ────────────────────────────────────────────────────────────────

func (s *orderService) ApplyDiscount(ctx context.Context, orderID uuid.UUID, req dto.ApplyDiscountRequest) (*model.SalesOrder, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}

	order, err := s.loadDraft(ctx, orderID)
	if err != nil {
		return nil, err
	}

	gross := grossTotal(order)
	switch req.Type {
	case model.DiscountPercentage:
		// Rejected, not clamped: a percentage outside [0,100] is operator error.
		if req.Value.LessThan(decimal.Zero) || req.Value.GreaterThan(decimal.NewFromInt(100)) {
			return nil, apperror.Validation("percentage discount must be within [0,100], got %s", req.Value)
		}
	case model.DiscountFixedAmount:
		if req.Value.LessThan(decimal.Zero) || req.Value.GreaterThan(gross) {
			return nil, apperror.Validation("fixed discount %s exceeds order total %s", req.Value, gross)
		}
	}

	discType := req.Type
	order.DiscountType = &discType
	order.DiscountValue = req.Value
	order.DiscountReason = req.Reason
	recomputeTotals(order)

	if err := s.orders.Update(ctx, order); err != nil {
		return nil, apperror.Internal(err)
	}
	return order, nil
}

// ── Confirm / Cancel ─────────────────────────────────────────────────────────

// ConfirmSale finalizes a draft in one all-or-nothing transaction. Stock is
// re-validated and decremented here, not trusted from add-time: other orders
// may have consumed the same stock since the line was added. If any single
// decrement would go negative the whole transaction aborts, every counter
// keeps its value, and the order stays DRAFT.
func (s *orderService) ConfirmSale(ctx context.Context, orderID uuid.UUID, req dto.ConfirmSaleRequest) (*model.SalesOrder, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}

	var confirmed *model.SalesOrder
	var productIDs []uuid.UUID

	err := runTx(ctx, s.orders.DB(), func(tx *gorm.DB) error {
		order, err := s.orders.FindByIDTx(tx, orderID)
		if err != nil {
			return notFoundOr(err, "order %s not found", orderID)
		}
		// The status guard doubles as the idempotency check: a retried
		// confirm finds CONFIRMED and stops here.
		if !order.IsDraft() {
			return apperror.InvalidState("order %s is %s, only DRAFT orders can be confirmed", order.OrderNumber, order.Status)
		}
		if len(order.Items) == 0 {
			return apperror.Validation("order %s has no items", order.OrderNumber)
		}

		for _, item := range order.Items {
			targetID, err := s.stock.ResolveStockTarget(ctx, item.ProductID)
			if err != nil {
				return err
			}
			if _, err := s.stock.AdjustStockTx(tx, targetID, -item.Quantity); err != nil {
				if apperror.IsInsufficientStock(err) {
					return apperror.InsufficientStock("insufficient stock for %s (requested %d)", item.SKU, item.Quantity)
				}
				return err
			}
			productIDs = append(productIDs, item.ProductID)
		}

		now := time.Now()
		order.Status = model.OrderStatusConfirmed
		order.ConfirmedAt = &now
		if req.PaymentMethod != nil {
			order.PaymentMethod = req.PaymentMethod
		}
		if !req.AmountPaid.IsZero() {
			order.AmountPaid = req.AmountPaid
		}
		if req.CustomerName != nil {
			order.CustomerName = req.CustomerName
		}
		if err := s.orders.UpdateTx(tx, order); err != nil {
			return apperror.Internal(err)
		}

		itemsSold := 0
		for _, item := range order.Items {
			itemsSold += item.Quantity
		}
		summary := &model.DailySalesSummary{
			Date:           model.SummaryDay(now),
			TotalOrders:    1,
			TotalRevenue:   order.TotalPrice,
			TotalCost:      order.TotalCost,
			TotalProfit:    order.Profit,
			TotalItemsSold: itemsSold,
		}
		if err := s.summaries.UpsertTx(tx, summary); err != nil {
			return apperror.Internal(err)
		}

		confirmed = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.invalidator != nil {
		s.invalidator.InvalidateStockViews(ctx, productIDs...)
	}
	return confirmed, nil
}

// CancelOrder closes a draft without ever touching stock — drafts never
// reserved any. Confirmed orders must go through a refund flow instead.
func (s *orderService) CancelOrder(ctx context.Context, orderID uuid.UUID) (*model.SalesOrder, error) {
	order, err := s.loadDraft(ctx, orderID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	order.Status = model.OrderStatusCanceled
	order.CanceledAt = &now
	if err := s.orders.Update(ctx, order); err != nil {
		return nil, apperror.Internal(err)
	}
	return order, nil
}

// ── Reads ────────────────────────────────────────────────────────────────────

func (s *orderService) GetOrderByID(ctx context.Context, id uuid.UUID) (*model.SalesOrder, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "order %s not found", id)
	}
	return order, nil
}

func (s *orderService) GetOrderByNumber(ctx context.Context, number string) (*model.SalesOrder, error) {
	order, err := s.orders.FindByNumber(ctx, number)
	if err != nil {
		return nil, notFoundOr(err, "order %q not found", number)
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, filter dto.OrderFilter) ([]model.SalesOrder, int64, error) {
	if err := dto.Validate(filter); err != nil {
		return nil, 0, err
	}
	orders, total, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	return orders, total, nil
}

func (s *orderService) GetDailySummaries(ctx context.Context, from, to time.Time) ([]model.DailySalesSummary, error) {
	rows, err := s.summaries.Range(ctx, from, to)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return rows, nil
}

// ── Internals ────────────────────────────────────────────────────────────────

func (s *orderService) loadDraft(ctx context.Context, orderID uuid.UUID) (*model.SalesOrder, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err, "order %s not found", orderID)
	}
	if !order.IsDraft() {
		return nil, apperror.InvalidState("order %s is %s and can no longer be modified", order.OrderNumber, order.Status)
	}
	return order, nil
}

// checkStock is the advisory add-time check against the resolved pool.
func (s *orderService) checkStock(ctx context.Context, product *model.Product, wantQty int) error {
	actual, err := s.stock.GetActualStock(ctx, product.ID)
	if err != nil {
		return err
	}
	if actual < wantQty {
		return apperror.InsufficientStock("insufficient stock for %s: have %d, want %d", product.SKU, actual, wantQty)
	}
	return nil
}

func (s *orderService) saveTotalsTx(tx *gorm.DB, order *model.SalesOrder) error {
	recomputeTotals(order)
	if err := s.orders.UpdateTx(tx, order); err != nil {
		return apperror.Internal(err)
	}
	return nil
}

func grossTotal(o *model.SalesOrder) decimal.Decimal {
	gross := decimal.Zero
	for _, item := range o.Items {
		gross = gross.Add(item.Subtotal)
	}
	return gross
}

// recomputeTotals rebuilds the order's derived amounts from its lines and
// reapplies any stored discount. A fixed discount that outgrew the order
// (items removed after applying it) clamps to the gross total so the price
// never goes negative.
func recomputeTotals(o *model.SalesOrder) {
	gross := grossTotal(o)
	totalCost := decimal.Zero
	for _, item := range o.Items {
		totalCost = totalCost.Add(item.UnitCost.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	discount := decimal.Zero
	if o.DiscountType != nil {
		switch *o.DiscountType {
		case model.DiscountPercentage:
			discount = gross.Mul(o.DiscountValue).Div(decimal.NewFromInt(100))
		case model.DiscountFixedAmount:
			discount = o.DiscountValue
			if discount.GreaterThan(gross) {
				discount = gross
			}
		}
	}

	o.TotalCost = totalCost
	o.TotalPrice = gross.Sub(discount)
	o.Profit = o.TotalPrice.Sub(totalCost)
}
