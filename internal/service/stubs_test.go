package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"stockpos/internal/cache"
	"stockpos/internal/dto"
	"stockpos/internal/model"
	"stockpos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// In-memory repository stubs. They mirror the store's observable behavior
// (misses are gorm.ErrRecordNotFound, unique races are gorm.ErrDuplicatedKey,
// AdjustStockTx is atomic under a mutex) so the services under test run their
// real code paths without a database.

// ── products ─────────────────────────────────────────────────────────────────

type stubProductRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]*model.Product
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{products: make(map[uuid.UUID]*model.Product)}
}

func (r *stubProductRepo) add(p model.Product) *model.Product {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.IsActive = true
	r.products[p.ID] = &p
	return &p
}

func (r *stubProductRepo) Create(_ context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *stubProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubProductRepo) FindBySKU(_ context.Context, sku string) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.SKU == sku && p.IsActive {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubProductRepo) FindByCode(_ context.Context, code string) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.SKU == code && p.IsActive {
			cp := *p
			return &cp, nil
		}
	}
	for _, p := range r.products {
		if p.Barcode != nil && *p.Barcode == code && p.IsActive {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubProductRepo) Update(_ context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *stubProductRepo) ListLowStock(_ context.Context) ([]model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Product
	for _, p := range r.products {
		if p.IsActive && p.MasterProductID == nil && p.StockQty <= p.MinStock {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubProductRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Product, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubProductRepo) AdjustStockTx(_ *gorm.DB, id uuid.UUID, delta int) (int, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return 0, false, nil
	}
	if p.StockQty+delta < 0 {
		return 0, false, nil
	}
	p.StockQty += delta
	return p.StockQty, true, nil
}

func (r *stubProductRepo) UpdateCostPriceTx(_ *gorm.DB, id uuid.UUID, cost decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.products[id]; ok {
		p.CostPrice = cost
	}
	return nil
}

func (r *stubProductRepo) LinkToMasterTx(_ *gorm.DB, id, masterID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.StockQty = 0
	p.MasterProductID = &masterID
	return nil
}

func (r *stubProductRepo) DB() *gorm.DB { return nil }

// stock reads the live quantity, bypassing the repository contract.
func (r *stubProductRepo) stock(id uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.products[id].StockQty
}

var _ repository.ProductRepository = (*stubProductRepo)(nil)

// ── sales orders ─────────────────────────────────────────────────────────────

type stubOrderRepo struct {
	mu      sync.Mutex
	orders  map[uuid.UUID]*model.SalesOrder
	items   map[uuid.UUID]*model.SalesItem
	itemSeq []uuid.UUID
	numbers map[string]uuid.UUID
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{
		orders:  make(map[uuid.UUID]*model.SalesOrder),
		items:   make(map[uuid.UUID]*model.SalesItem),
		numbers: make(map[string]uuid.UUID),
	}
}

func (r *stubOrderRepo) snapshot(id uuid.UUID) (*model.SalesOrder, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *o
	cp.Items = nil
	for _, itemID := range r.itemSeq {
		if it, ok := r.items[itemID]; ok && it.OrderID == id {
			cp.Items = append(cp.Items, *it)
		}
	}
	return &cp, nil
}

func (r *stubOrderRepo) Create(_ context.Context, o *model.SalesOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.numbers[o.OrderNumber]; dup {
		return gorm.ErrDuplicatedKey
	}
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	cp := *o
	cp.Items = nil
	r.orders[o.ID] = &cp
	r.numbers[o.OrderNumber] = o.ID
	return nil
}

func (r *stubOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*model.SalesOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot(id)
}

func (r *stubOrderRepo) FindByNumber(_ context.Context, number string) (*model.SalesOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.numbers[number]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return r.snapshot(id)
}

func (r *stubOrderRepo) FindItem(_ context.Context, itemID uuid.UUID) (*model.SalesItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[itemID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *it
	return &cp, nil
}

func (r *stubOrderRepo) CountByNumberPrefix(_ context.Context, prefix string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for number := range r.numbers {
		if strings.HasPrefix(number, prefix) {
			count++
		}
	}
	return count, nil
}

func (r *stubOrderRepo) Update(_ context.Context, o *model.SalesOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, dup := r.numbers[o.OrderNumber]; dup && existing != o.ID {
		return gorm.ErrDuplicatedKey
	}
	for number, id := range r.numbers {
		if id == o.ID {
			delete(r.numbers, number)
		}
	}
	r.numbers[o.OrderNumber] = o.ID
	cp := *o
	cp.Items = nil
	r.orders[o.ID] = &cp
	return nil
}

func (r *stubOrderRepo) List(_ context.Context, filter dto.OrderFilter) ([]model.SalesOrder, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.SalesOrder
	for id := range r.orders {
		o, _ := r.snapshot(id)
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		out = append(out, *o)
	}
	return out, int64(len(out)), nil
}

func (r *stubOrderRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.SalesOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot(id)
}

func (r *stubOrderRepo) UpdateTx(_ *gorm.DB, o *model.SalesOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *o
	cp.Items = nil
	r.orders[o.ID] = &cp
	return nil
}

func (r *stubOrderRepo) CreateItemTx(_ *gorm.DB, item *model.SalesItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	cp := *item
	r.items[item.ID] = &cp
	r.itemSeq = append(r.itemSeq, item.ID)
	return nil
}

func (r *stubOrderRepo) UpdateItemTx(_ *gorm.DB, item *model.SalesItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *item
	r.items[item.ID] = &cp
	return nil
}

func (r *stubOrderRepo) DeleteItemTx(_ *gorm.DB, itemID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, itemID)
	return nil
}

func (r *stubOrderRepo) DB() *gorm.DB { return nil }

var _ repository.SalesOrderRepository = (*stubOrderRepo)(nil)

// ── stock-ins ────────────────────────────────────────────────────────────────

type stubStockInRepo struct {
	mu         sync.Mutex
	records    map[uuid.UUID]*model.StockIn
	references map[string]uuid.UUID
}

func newStubStockInRepo() *stubStockInRepo {
	return &stubStockInRepo{
		records:    make(map[uuid.UUID]*model.StockIn),
		references: make(map[string]uuid.UUID),
	}
}

func (r *stubStockInRepo) store(s *model.StockIn) {
	cp := *s
	cp.Items = append([]model.StockInItem(nil), s.Items...)
	r.records[s.ID] = &cp
}

func (r *stubStockInRepo) Create(_ context.Context, s *model.StockIn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.references[s.Reference]; dup {
		return gorm.ErrDuplicatedKey
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	for i := range s.Items {
		if s.Items[i].ID == uuid.Nil {
			s.Items[i].ID = uuid.New()
		}
		s.Items[i].StockInID = s.ID
	}
	r.store(s)
	r.references[s.Reference] = s.ID
	return nil
}

func (r *stubStockInRepo) FindByID(_ context.Context, id uuid.UUID) (*model.StockIn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.records[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	cp.Items = append([]model.StockInItem(nil), s.Items...)
	return &cp, nil
}

func (r *stubStockInRepo) Update(_ context.Context, s *model.StockIn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store(s)
	return nil
}

func (r *stubStockInRepo) List(_ context.Context, filter dto.StockInFilter) ([]model.StockIn, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.StockIn
	for _, s := range r.records {
		if filter.Status != "" && s.Status != filter.Status {
			continue
		}
		if filter.ApprovalStatus != "" && s.ApprovalStatus != filter.ApprovalStatus {
			continue
		}
		out = append(out, *s)
	}
	return out, int64(len(out)), nil
}

func (r *stubStockInRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.StockIn, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubStockInRepo) UpdateTx(_ *gorm.DB, s *model.StockIn) error {
	return r.Update(context.Background(), s)
}

func (r *stubStockInRepo) DB() *gorm.DB { return nil }

var _ repository.StockInRepository = (*stubStockInRepo)(nil)

// ── adjustments ──────────────────────────────────────────────────────────────

type stubAdjustmentRepo struct {
	mu   sync.Mutex
	rows []model.StockAdjustment
}

func newStubAdjustmentRepo() *stubAdjustmentRepo { return &stubAdjustmentRepo{} }

func (r *stubAdjustmentRepo) CreateTx(_ *gorm.DB, a *model.StockAdjustment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	r.rows = append(r.rows, *a)
	return nil
}

func (r *stubAdjustmentRepo) List(_ context.Context, filter dto.AdjustmentFilter) ([]model.StockAdjustment, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.StockAdjustment
	for _, a := range r.rows {
		if filter.ProductID != nil && a.ProductID != *filter.ProductID {
			continue
		}
		if filter.Type != "" && a.Type != filter.Type {
			continue
		}
		if filter.Reason != "" && a.Reason != filter.Reason {
			continue
		}
		out = append(out, a)
	}
	return out, int64(len(out)), nil
}

func (r *stubAdjustmentRepo) Stats(_ context.Context, windowStart time.Time) (*dto.AdjustmentStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &dto.AdjustmentStats{WindowStart: windowStart}
	byReason := make(map[string]*dto.ReasonStat)
	for _, a := range r.rows {
		stats.TotalAdjustments++
		switch a.Type {
		case model.AdjustmentIncrease:
			stats.TotalIncreased += int64(a.Quantity)
		case model.AdjustmentDecrease:
			stats.TotalDecreased += int64(a.Quantity)
		}
		if !a.CreatedAt.Before(windowStart) {
			stats.RecentCount++
		}
		s, ok := byReason[a.Reason]
		if !ok {
			s = &dto.ReasonStat{Reason: a.Reason}
			byReason[a.Reason] = s
		}
		s.Count++
		s.TotalQuantity += int64(a.Quantity)
	}
	for _, s := range byReason {
		stats.ByReason = append(stats.ByReason, *s)
	}
	return stats, nil
}

func (r *stubAdjustmentRepo) DB() *gorm.DB { return nil }

var _ repository.StockAdjustmentRepository = (*stubAdjustmentRepo)(nil)

// ── daily summaries ──────────────────────────────────────────────────────────

type stubSummaryRepo struct {
	mu   sync.Mutex
	days map[time.Time]*model.DailySalesSummary
}

func newStubSummaryRepo() *stubSummaryRepo {
	return &stubSummaryRepo{days: make(map[time.Time]*model.DailySalesSummary)}
}

func (r *stubSummaryRepo) UpsertTx(_ *gorm.DB, s *model.DailySalesSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.days[s.Date]
	if !ok {
		cp := *s
		r.days[s.Date] = &cp
		return nil
	}
	existing.TotalOrders += s.TotalOrders
	existing.TotalRevenue = existing.TotalRevenue.Add(s.TotalRevenue)
	existing.TotalCost = existing.TotalCost.Add(s.TotalCost)
	existing.TotalProfit = existing.TotalProfit.Add(s.TotalProfit)
	existing.TotalItemsSold += s.TotalItemsSold
	return nil
}

func (r *stubSummaryRepo) FindByDate(_ context.Context, day time.Time) (*model.DailySalesSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.days[model.SummaryDay(day)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *stubSummaryRepo) Range(_ context.Context, from, to time.Time) ([]model.DailySalesSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.DailySalesSummary
	for _, s := range r.days {
		if !s.Date.Before(model.SummaryDay(from)) && !s.Date.After(model.SummaryDay(to)) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *stubSummaryRepo) DB() *gorm.DB { return nil }

var _ repository.DailySummaryRepository = (*stubSummaryRepo)(nil)

// ── invalidator ──────────────────────────────────────────────────────────────

// recordingInvalidator captures which product ids were invalidated.
type recordingInvalidator struct {
	mu    sync.Mutex
	calls int
	ids   []uuid.UUID
}

func (i *recordingInvalidator) InvalidateStockViews(_ context.Context, productIDs ...uuid.UUID) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.calls++
	i.ids = append(i.ids, productIDs...)
}

var _ cache.Invalidator = (*recordingInvalidator)(nil)
