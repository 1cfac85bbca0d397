package service

import (
	"context"
	"strings"
	"time"

	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/dto"
	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/model"
	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── Stubs ─────────────────────────────────────────────────────────────────────
// In-memory repository implementations. runTx passes tx=nil when the repo's
// DB() returns nil, so every *Tx method here simply ignores its tx argument.

// stubSessionRepo is an in-memory CashSessionRepository.
type stubSessionRepo struct {
	sessions    map[uuid.UUID]*model.CashSession
	movements   []model.CashMovement
	withdrawals []model.CashWithdrawal
}

func newStubSessionRepo() *stubSessionRepo {
	return &stubSessionRepo{sessions: make(map[uuid.UUID]*model.CashSession)}
}

func (r *stubSessionRepo) CreateSession(_ context.Context, s *model.CashSession) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.sessions[s.ID] = s
	return nil
}

// Find methods hand out copies the way a SELECT does; callers never share a
// pointer with the stored row.
func (r *stubSessionRepo) FindSessionByID(_ context.Context, id uuid.UUID) (*model.CashSession, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *s
	return &c, nil
}

func (r *stubSessionRepo) FindOpenByStore(_ context.Context, storeID uuid.UUID) (*model.CashSession, error) {
	for _, s := range r.sessions {
		if s.StoreID == storeID && s.Status == "open" {
			c := *s
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubSessionRepo) CloseSession(_ context.Context, id, closedBy uuid.UUID, countedCash decimal.Decimal, notes *string) (*model.CashSession, error) {
	s, ok := r.sessions[id]
	if !ok || s.Status != "open" {
		return nil, gorm.ErrRecordNotFound
	}
	// Closing figures derive from the stored row at close time, mirroring the
	// SQL expressions in the real repository.
	expected := s.OpeningAmount.
		Add(s.TotalCashSales).
		Sub(s.TotalReturns).
		Sub(s.TotalWithdrawals).
		Round(2)
	difference := countedCash.Sub(expected).Round(2)
	now := time.Now()
	s.Status = "closed"
	s.ClosedBy = &closedBy
	s.CountedCash = &countedCash
	s.ExpectedCash = &expected
	s.CashDifference = &difference
	s.ClosingNotes = notes
	s.ClosedAt = &now
	c := *s
	return &c, nil
}

func (r *stubSessionRepo) ApplySaleTx(_ *gorm.DB, sessionID uuid.UUID, total decimal.Decimal, perTender map[string]decimal.Decimal) error {
	s, ok := r.sessions[sessionID]
	if !ok || s.Status != "open" {
		return gorm.ErrRecordNotFound
	}
	s.TotalSales = s.TotalSales.Add(total)
	s.TotalCashSales = s.TotalCashSales.Add(perTender["cash"])
	s.TotalCardSales = s.TotalCardSales.Add(perTender["card"])
	s.TotalBizumSales = s.TotalBizumSales.Add(perTender["bizum"])
	s.TotalTransferSales = s.TotalTransferSales.Add(perTender["transfer"])
	s.TotalVoucherSales = s.TotalVoucherSales.Add(perTender["voucher"])
	return nil
}

func (r *stubSessionRepo) ApplyWithdrawalTx(_ *gorm.DB, sessionID uuid.UUID, amount decimal.Decimal) error {
	s, ok := r.sessions[sessionID]
	if !ok || s.Status != "open" {
		return gorm.ErrRecordNotFound
	}
	s.TotalWithdrawals = s.TotalWithdrawals.Add(amount)
	return nil
}

func (r *stubSessionRepo) CreateWithdrawalTx(_ *gorm.DB, w *model.CashWithdrawal) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	w.CreatedAt = time.Now()
	r.withdrawals = append(r.withdrawals, *w)
	return nil
}

func (r *stubSessionRepo) CreateMovementTx(_ *gorm.DB, m *model.CashMovement) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = time.Now()
	r.movements = append(r.movements, *m)
	return nil
}

func (r *stubSessionRepo) ListMovements(_ context.Context, sessionID uuid.UUID) ([]model.CashMovement, error) {
	var out []model.CashMovement
	for _, m := range r.movements {
		if m.CashSessionID == sessionID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *stubSessionRepo) HistoryClosed(_ context.Context, _, _ int) ([]model.CashSession, int64, error) {
	var out []model.CashSession
	for _, s := range r.sessions {
		if s.Status == "closed" {
			out = append(out, *s)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubSessionRepo) DB() *gorm.DB { return nil }

var _ repository.CashSessionRepository = (*stubSessionRepo)(nil)

// stubSaleRepo is an in-memory SaleRepository.
type stubSaleRepo struct {
	sales     map[uuid.UUID]*model.Sale
	idemIdx   map[string]*model.Sale
	ticketSeq map[uuid.UUID]int64
}

func newStubSaleRepo() *stubSaleRepo {
	return &stubSaleRepo{
		sales:     make(map[uuid.UUID]*model.Sale),
		idemIdx:   make(map[string]*model.Sale),
		ticketSeq: make(map[uuid.UUID]int64),
	}
}

func (r *stubSaleRepo) Create(_ context.Context, _ *gorm.DB, s *model.Sale) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	for i := range s.Lines {
		if s.Lines[i].ID == uuid.Nil {
			s.Lines[i].ID = uuid.New()
		}
	}
	s.CreatedAt = time.Now()
	r.sales[s.ID] = s
	if s.IdempotencyKey != nil {
		r.idemIdx[*s.IdempotencyKey] = s
	}
	return nil
}

// cloneSale deep-copies a sale so stub reads behave like real SELECTs instead
// of sharing pointers with the stored row.
func cloneSale(s *model.Sale) *model.Sale {
	c := *s
	c.Lines = append([]model.SaleLine(nil), s.Lines...)
	c.Payments = append([]model.Payment(nil), s.Payments...)
	return &c
}

func (r *stubSaleRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Sale, error) {
	s, ok := r.sales[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return cloneSale(s), nil
}

func (r *stubSaleRepo) FindByTicketNumber(_ context.Context, ticket string) (*model.Sale, error) {
	for _, s := range r.sales {
		if s.TicketNumber == ticket {
			return cloneSale(s), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubSaleRepo) FindByIdempotencyKey(_ context.Context, key string) (*model.Sale, error) {
	s, ok := r.idemIdx[key]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return cloneSale(s), nil
}

func (r *stubSaleRepo) FindLinesForUpdateTx(_ *gorm.DB, saleID uuid.UUID) ([]model.SaleLine, error) {
	s, ok := r.sales[saleID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return append([]model.SaleLine(nil), s.Lines...), nil
}

func (r *stubSaleRepo) NextTicketNumber(_ context.Context, _ *gorm.DB, storeID uuid.UUID) (int64, error) {
	r.ticketSeq[storeID]++
	return r.ticketSeq[storeID], nil
}

func (r *stubSaleRepo) UpdateStatusTx(_ *gorm.DB, id uuid.UUID, status string) error {
	s, ok := r.sales[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.Status = status
	return nil
}

func (r *stubSaleRepo) UpdateLineReturnTx(_ *gorm.DB, line *model.SaleLine) error {
	for _, s := range r.sales {
		for i := range s.Lines {
			if s.Lines[i].ID == line.ID {
				s.Lines[i].QuantityReturned = line.QuantityReturned
				s.Lines[i].ReturnedAt = line.ReturnedAt
				s.Lines[i].ReturnReason = line.ReturnReason
				return nil
			}
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *stubSaleRepo) List(_ context.Context, _ dto.SaleFilter) ([]model.Sale, int64, error) {
	var out []model.Sale
	for _, s := range r.sales {
		out = append(out, *s)
	}
	return out, int64(len(out)), nil
}

func (r *stubSaleRepo) DB() *gorm.DB { return nil }

var _ repository.SaleRepository = (*stubSaleRepo)(nil)

// stubStockRepo keys levels by variant+warehouse.
type stubStockRepo struct {
	levels    map[string]*model.StockLevel
	movements []model.StockMovement
}

func newStubStockRepo() *stubStockRepo {
	return &stubStockRepo{levels: make(map[string]*model.StockLevel)}
}

func stockKey(variantID, warehouseID uuid.UUID) string {
	return variantID.String() + "/" + warehouseID.String()
}

func (r *stubStockRepo) seed(variantID, warehouseID uuid.UUID, qty int) {
	r.levels[stockKey(variantID, warehouseID)] = &model.StockLevel{
		ID:               uuid.New(),
		ProductVariantID: variantID,
		WarehouseID:      warehouseID,
		Quantity:         qty,
		Available:        qty,
	}
}

func (r *stubStockRepo) FindLevelForUpdateTx(_ *gorm.DB, variantID, warehouseID uuid.UUID) (*model.StockLevel, error) {
	key := stockKey(variantID, warehouseID)
	if l, ok := r.levels[key]; ok {
		return l, nil
	}
	l := &model.StockLevel{ID: uuid.New(), ProductVariantID: variantID, WarehouseID: warehouseID}
	r.levels[key] = l
	return l, nil
}

func (r *stubStockRepo) SaveLevelTx(_ *gorm.DB, level *model.StockLevel) error {
	r.levels[stockKey(level.ProductVariantID, level.WarehouseID)] = level
	return nil
}

func (r *stubStockRepo) CreateMovementTx(_ *gorm.DB, m *model.StockMovement) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = time.Now()
	r.movements = append(r.movements, *m)
	return nil
}

func (r *stubStockRepo) FindLevel(_ context.Context, variantID, warehouseID uuid.UUID) (*model.StockLevel, error) {
	if l, ok := r.levels[stockKey(variantID, warehouseID)]; ok {
		return l, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubStockRepo) ListMovements(_ context.Context, variantID uuid.UUID, _ int) ([]model.StockMovement, error) {
	var out []model.StockMovement
	for _, m := range r.movements {
		if m.ProductVariantID == variantID {
			out = append(out, m)
		}
	}
	return out, nil
}

var _ repository.StockRepository = (*stubStockRepo)(nil)

// stubVoucherRepo stores vouchers by uppercase code.
type stubVoucherRepo struct {
	vouchers map[string]*model.Voucher
}

func newStubVoucherRepo() *stubVoucherRepo {
	return &stubVoucherRepo{vouchers: make(map[string]*model.Voucher)}
}

func (r *stubVoucherRepo) Create(_ context.Context, _ *gorm.DB, v *model.Voucher) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	r.vouchers[strings.ToUpper(v.Code)] = v
	return nil
}

func (r *stubVoucherRepo) FindByCode(_ context.Context, code string) (*model.Voucher, error) {
	v, ok := r.vouchers[strings.ToUpper(code)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return v, nil
}

func (r *stubVoucherRepo) FindByCodeForUpdateTx(_ *gorm.DB, code string) (*model.Voucher, error) {
	v, ok := r.vouchers[strings.ToUpper(code)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return v, nil
}

func (r *stubVoucherRepo) SaveTx(_ *gorm.DB, v *model.Voucher) error {
	r.vouchers[strings.ToUpper(v.Code)] = v
	return nil
}

func (r *stubVoucherRepo) CodeExists(_ context.Context, code string) (bool, error) {
	_, ok := r.vouchers[strings.ToUpper(code)]
	return ok, nil
}

func (r *stubVoucherRepo) DB() *gorm.DB { return nil }

var _ repository.VoucherRepository = (*stubVoucherRepo)(nil)

// stubReturnRepo appends created records.
type stubReturnRepo struct {
	records []model.ReturnRecord
}

func (r *stubReturnRepo) Create(_ context.Context, _ *gorm.DB, rec *model.ReturnRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	rec.CreatedAt = time.Now()
	r.records = append(r.records, *rec)
	return nil
}

func (r *stubReturnRepo) ListBySale(_ context.Context, saleID uuid.UUID) ([]model.ReturnRecord, error) {
	var out []model.ReturnRecord
	for _, rec := range r.records {
		if rec.OriginalSaleID == saleID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *stubReturnRepo) DB() *gorm.DB { return nil }

var _ repository.ReturnRepository = (*stubReturnRepo)(nil)

// stubProductRepo serves a fixed set of variants.
type stubProductRepo struct {
	variants map[uuid.UUID]*model.ProductVariant
	stock    map[uuid.UUID]int
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{
		variants: make(map[uuid.UUID]*model.ProductVariant),
		stock:    make(map[uuid.UUID]int),
	}
}

func (r *stubProductRepo) FindVariantByID(_ context.Context, id uuid.UUID) (*model.ProductVariant, error) {
	v, ok := r.variants[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return v, nil
}

func (r *stubProductRepo) FindVariantByBarcode(_ context.Context, barcode string) (*model.ProductVariant, error) {
	for _, v := range r.variants {
		if v.Barcode != nil && *v.Barcode == barcode && v.Active {
			return v, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubProductRepo) Search(_ context.Context, query string, limit int) ([]model.ProductVariant, error) {
	var out []model.ProductVariant
	for _, v := range r.variants {
		if !v.Active {
			continue
		}
		if strings.Contains(strings.ToLower(v.Name), strings.ToLower(query)) || v.SKU == query {
			out = append(out, *v)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *stubProductRepo) StockFor(_ context.Context, variantIDs []uuid.UUID, _ uuid.UUID) (map[uuid.UUID]int, error) {
	out := make(map[uuid.UUID]int)
	for _, id := range variantIDs {
		if qty, ok := r.stock[id]; ok {
			out[id] = qty
		}
	}
	return out, nil
}

var _ repository.ProductRepository = (*stubProductRepo)(nil)

// stubStoreRepo serves stores by id.
type stubStoreRepo struct {
	stores map[uuid.UUID]*model.Store
}

func newStubStoreRepo() *stubStoreRepo {
	return &stubStoreRepo{stores: make(map[uuid.UUID]*model.Store)}
}

func (r *stubStoreRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Store, error) {
	s, ok := r.stores[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (r *stubStoreRepo) FindByCode(_ context.Context, code string) (*model.Store, error) {
	for _, s := range r.stores {
		if s.Code == code {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

var _ repository.StoreRepository = (*stubStoreRepo)(nil)

// stubOutboxRepo captures created outbox rows.
type stubOutboxRepo struct {
	entries map[uuid.UUID]*model.LedgerOutbox
}

func newStubOutboxRepo() *stubOutboxRepo {
	return &stubOutboxRepo{entries: make(map[uuid.UUID]*model.LedgerOutbox)}
}

func (r *stubOutboxRepo) CreateTx(_ *gorm.DB, e *model.LedgerOutbox) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Status == "" {
		e.Status = "pending"
	}
	e.CreatedAt = time.Now()
	r.entries[e.ID] = e
	return nil
}

func (r *stubOutboxRepo) FindByID(_ context.Context, id uuid.UUID) (*model.LedgerOutbox, error) {
	e, ok := r.entries[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return e, nil
}

func (r *stubOutboxRepo) FindDue(_ context.Context, now time.Time, limit int) ([]model.LedgerOutbox, error) {
	var out []model.LedgerOutbox
	for _, e := range r.entries {
		if e.Status == "pending" && (e.NextRetryAt == nil || !e.NextRetryAt.After(now)) {
			out = append(out, *e)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *stubOutboxRepo) MarkDelivered(_ context.Context, id uuid.UUID) error {
	e, ok := r.entries[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	now := time.Now()
	e.Status = "delivered"
	e.DeliveredAt = &now
	return nil
}

func (r *stubOutboxRepo) MarkFailed(_ context.Context, id uuid.UUID, attempts int, nextRetryAt *time.Time, lastError string) error {
	e, ok := r.entries[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	e.Attempts = attempts
	e.NextRetryAt = nextRetryAt
	e.LastError = &lastError
	if nextRetryAt == nil {
		e.Status = "failed"
	}
	return nil
}

func (r *stubOutboxRepo) ListUndelivered(_ context.Context, limit int) ([]model.LedgerOutbox, error) {
	var out []model.LedgerOutbox
	for _, e := range r.entries {
		if e.Status != "delivered" {
			out = append(out, *e)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

var _ repository.OutboxRepository = (*stubOutboxRepo)(nil)
