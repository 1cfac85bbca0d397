package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/config"
	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/dto"
	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/model"
	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/repository"
	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SaleService interface {
	CreateSale(ctx context.Context, userID uuid.UUID, req dto.CreateSaleRequest) (*dto.SaleResponse, error)
	GetSale(ctx context.Context, id uuid.UUID) (*dto.SaleResponse, error)
	ListSales(ctx context.Context, filter dto.SaleFilter) (*dto.SaleListResponse, error)
}

type saleService struct {
	repo        repository.SaleRepository
	sessions    CashSessionService
	sessionRepo repository.CashSessionRepository
	stock       StockLedger
	productRepo repository.ProductRepository
	storeRepo   repository.StoreRepository
	vouchers    VoucherService
	outboxRepo  repository.OutboxRepository
	dispatcher  *worker.Dispatcher
	cfg         *config.Config
}

func NewSaleService(
	repo repository.SaleRepository,
	sessions CashSessionService,
	sessionRepo repository.CashSessionRepository,
	stock StockLedger,
	productRepo repository.ProductRepository,
	storeRepo repository.StoreRepository,
	vouchers VoucherService,
	outboxRepo repository.OutboxRepository,
	dispatcher *worker.Dispatcher,
	cfg *config.Config,
) SaleService {
	return &saleService{
		repo:        repo,
		sessions:    sessions,
		sessionRepo: sessionRepo,
		stock:       stock,
		productRepo: productRepo,
		storeRepo:   storeRepo,
		vouchers:    vouchers,
		outboxRepo:  outboxRepo,
		dispatcher:  dispatcher,
		cfg:         cfg,
	}
}

// ── CreateSale ───────────────────────────────────────────────────────────────
// One ACID transaction per ticket:
//  1. Validate open session and store
//  2. Resolve variants, compute totals, validate payment sufficiency
//  3. BEGIN TX: ticket number, redeem voucher tenders, create sale+lines+payments,
//     decrement stock with movement rows, increment session aggregates, write
//     the ledger outbox intent
//  4. COMMIT
//  5. (async) nudge the ledger worker — the outbox row survives either way

func (s *saleService) CreateSale(ctx context.Context, userID uuid.UUID, req dto.CreateSaleRequest) (*dto.SaleResponse, error) {
	storeID, err := uuid.Parse(req.StoreID)
	if err != nil {
		return nil, fmt.Errorf("invalid store_id: %w", err)
	}
	sessionID, err := uuid.Parse(req.CashSessionID)
	if err != nil {
		return nil, fmt.Errorf("invalid cash_session_id: %w", err)
	}

	// 1. Deduplicate retried requests
	if req.IdempotencyKey != nil {
		if existing, err := s.repo.FindByIdempotencyKey(ctx, *req.IdempotencyKey); err == nil {
			return s.saleToResponse(existing), nil
		}
	}

	// 2. Validate open session
	session, err := s.sessions.RequireOpen(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.StoreID != storeID {
		return nil, ErrSessionStoreMismatch
	}

	store, err := s.storeRepo.FindByID(ctx, storeID)
	if err != nil {
		return nil, ErrStoreNotFound
	}

	// 3. Resolve lines and compute totals (pre-flight, outside TX)
	type resolvedLine struct {
		variantID  *uuid.UUID
		trackStock bool
		line       model.SaleLine
	}

	resolved := make([]resolvedLine, 0, len(req.Lines))
	tenderLines := make([]TenderLine, 0, len(req.Lines))

	for _, lr := range req.Lines {
		rl := resolvedLine{}
		description := lr.Description
		if lr.ProductVariantID != nil {
			vid, err := uuid.Parse(*lr.ProductVariantID)
			if err != nil {
				return nil, fmt.Errorf("invalid product_variant_id: %w", err)
			}
			variant, err := s.productRepo.FindVariantByID(ctx, vid)
			if err != nil || !variant.Active {
				return nil, ErrVariantNotFound
			}
			rl.variantID = &vid
			rl.trackStock = variant.TrackStock
			if description == "" {
				description = variant.Name
			}
		}

		tl := TenderLine{
			Quantity:    lr.Quantity,
			UnitPrice:   lr.UnitPrice,
			DiscountPct: lr.DiscountPct,
			TaxRate:     lr.TaxRate,
		}
		tenderLines = append(tenderLines, tl)

		rl.line = model.SaleLine{
			ProductVariantID: rl.variantID,
			Description:      description,
			Quantity:         lr.Quantity,
			UnitPrice:        lr.UnitPrice.Round(2),
			DiscountPct:      lr.DiscountPct,
			TaxRate:          lr.TaxRate,
			LineTotal:        LineTotal(tl),
		}
		resolved = append(resolved, rl)
	}

	taxRate := decimal.NewFromFloat(s.cfg.DefaultTaxRatePct)
	totals := ComputeSaleTotals(tenderLines, req.GlobalDiscount, taxRate)

	// 4. Validate payment sufficiency
	paid := decimal.Zero
	methods := make([]string, 0, len(req.Payments))
	perTender := make(map[string]decimal.Decimal)
	for _, p := range req.Payments {
		paid = paid.Add(p.Amount)
		methods = append(methods, p.Method)
		if _, known := repository.TenderColumn[p.Method]; known {
			perTender[p.Method] = perTender[p.Method].Add(p.Amount)
		} else {
			log.Debug().Str("method", p.Method).Msg("sale: unmapped tender method not aggregated")
		}
	}
	if paid.LessThan(totals.Total) {
		return nil, ErrInsufficientPayment
	}
	change := ChangeDue(paid, totals.Total)

	var clientID *uuid.UUID
	if req.ClientID != nil {
		cid, err := uuid.Parse(*req.ClientID)
		if err != nil {
			return nil, fmt.Errorf("invalid client_id: %w", err)
		}
		clientID = &cid
	}

	// 5. ACID transaction
	var (
		sale   model.Sale
		outbox model.LedgerOutbox
	)
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		ticketNum, err := s.repo.NextTicketNumber(ctx, tx, storeID)
		if err != nil {
			return err
		}

		sale = model.Sale{
			TicketNumber:   fmt.Sprintf("%s-%06d", store.Code, ticketNum),
			StoreID:        storeID,
			CashSessionID:  sessionID,
			ClientID:       clientID,
			SalespersonID:  userID,
			Subtotal:       totals.Subtotal,
			DiscountAmount: totals.DiscountAmount,
			TaxAmount:      totals.TaxAmount,
			Total:          totals.Total,
			PaymentMethod:  ClassifyTender(methods),
			Status:         "completed",
			IdempotencyKey: req.IdempotencyKey,
		}
		for _, rl := range resolved {
			sale.Lines = append(sale.Lines, rl.line)
		}

		// Redeem voucher tenders before persisting their payment rows
		for _, p := range req.Payments {
			payment := model.Payment{
				Method:    p.Method,
				Amount:    p.Amount.Round(2),
				Reference: p.Reference,
			}
			if p.Method == "voucher" {
				if p.Reference == nil || *p.Reference == "" {
					return ErrVoucherNotFound
				}
				voucher, err := s.vouchers.RedeemTx(tx, *p.Reference, p.Amount)
				if err != nil {
					return err
				}
				payment.VoucherID = &voucher.ID
			}
			sale.Payments = append(sale.Payments, payment)
		}

		// Stores without a main warehouse skip stock entirely; the gap is
		// flagged on the sale for reconciliation.
		if store.MainWarehouseID == nil {
			for _, rl := range resolved {
				if rl.variantID != nil && rl.trackStock {
					sale.StockUntracked = true
					log.Warn().
						Str("store_id", storeID.String()).
						Msg("sale: store has no main warehouse, stock step skipped")
					break
				}
			}
		}

		if err := s.repo.Create(ctx, tx, &sale); err != nil {
			return err
		}

		if store.MainWarehouseID != nil {
			ref := MovementRef{
				ReferenceType: "sale",
				ReferenceID:   sale.ID,
				CreatedBy:     userID,
				StoreID:       storeID,
			}
			for _, rl := range resolved {
				if rl.variantID == nil || !rl.trackStock {
					continue
				}
				if _, err := s.stock.DecrementTx(tx, *rl.variantID, *store.MainWarehouseID, rl.line.Quantity, ref); err != nil {
					return fmt.Errorf("stock decrement for %s: %w", rl.line.Description, err)
				}
			}
		}

		// Session aggregates — atomic increments, journal entries per tender
		if err := s.sessionRepo.ApplySaleTx(tx, sessionID, totals.Total, perTender); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSessionClosed
			}
			return err
		}
		for _, p := range sale.Payments {
			method := p.Method
			mov := &model.CashMovement{
				CashSessionID: sessionID,
				Kind:          "sale",
				TenderMethod:  &method,
				Amount:        p.Amount,
				Description:   fmt.Sprintf("Sale %s", sale.TicketNumber),
				ReferenceID:   &sale.ID,
			}
			if err := s.sessionRepo.CreateMovementTx(tx, mov); err != nil {
				return err
			}
		}

		// Ledger outbox intent — committed with the sale
		payload, err := json.Marshal(worker.LedgerEntryPayload{
			SaleID:       sale.ID.String(),
			TicketNumber: sale.TicketNumber,
			StoreID:      storeID.String(),
			Subtotal:     totals.Subtotal,
			TaxAmount:    totals.TaxAmount,
			Total:        totals.Total,
			CreatedAt:    time.Now().UTC().Format(time.RFC3339),
		})
		if err != nil {
			return err
		}
		outbox = model.LedgerOutbox{SaleID: sale.ID, Payload: string(payload)}
		return s.outboxRepo.CreateTx(tx, &outbox)
	})
	if txErr != nil {
		// Two retries carrying the same key can both miss the dedupe lookup;
		// the loser hits the unique index on idempotency_key and is served
		// the winner's ticket instead of an error.
		if req.IdempotencyKey != nil && repository.IsUniqueViolation(txErr) {
			if existing, err := s.repo.FindByIdempotencyKey(ctx, *req.IdempotencyKey); err == nil {
				return s.saleToResponse(existing), nil
			}
		}
		return nil, txErr
	}

	// 6. Nudge the ledger worker. Best effort: if the enqueue fails the retry
	// cron picks the outbox row up anyway.
	if s.dispatcher != nil {
		if err := s.dispatcher.EnqueueLedger(ctx, worker.LedgerJobPayload{OutboxID: outbox.ID.String()}); err != nil {
			log.Warn().Err(err).Str("sale_id", sale.ID.String()).Msg("sale: ledger enqueue failed, retry cron will deliver")
		}
	}

	resp := s.saleToResponse(&sale)
	resp.Change = change
	return resp, nil
}

func (s *saleService) GetSale(ctx context.Context, id uuid.UUID) (*dto.SaleResponse, error) {
	sale, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrSaleNotFound
	}
	return s.saleToResponse(sale), nil
}

func (s *saleService) ListSales(ctx context.Context, filter dto.SaleFilter) (*dto.SaleListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	sales, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	resp := &dto.SaleListResponse{Total: total, Page: filter.Page, Limit: filter.Limit}
	resp.Data = make([]dto.SaleResponse, 0, len(sales))
	for i := range sales {
		resp.Data = append(resp.Data, *s.saleToResponse(&sales[i]))
	}
	return resp, nil
}

func (s *saleService) saleToResponse(sale *model.Sale) *dto.SaleResponse {
	lines := make([]dto.SaleLineResponse, 0, len(sale.Lines))
	for _, l := range sale.Lines {
		var vid *string
		if l.ProductVariantID != nil {
			v := l.ProductVariantID.String()
			vid = &v
		}
		lines = append(lines, dto.SaleLineResponse{
			ID:               l.ID.String(),
			ProductVariantID: vid,
			Description:      l.Description,
			Quantity:         l.Quantity,
			UnitPrice:        l.UnitPrice,
			DiscountPct:      l.DiscountPct,
			TaxRate:          l.TaxRate,
			LineTotal:        l.LineTotal,
			QuantityReturned: l.QuantityReturned,
		})
	}
	payments := make([]dto.SalePaymentResponse, 0, len(sale.Payments))
	for _, p := range sale.Payments {
		payments = append(payments, dto.SalePaymentResponse{
			Method:    p.Method,
			Amount:    p.Amount,
			Reference: p.Reference,
		})
	}
	return &dto.SaleResponse{
		ID:             sale.ID.String(),
		TicketNumber:   sale.TicketNumber,
		StoreID:        sale.StoreID.String(),
		CashSessionID:  sale.CashSessionID.String(),
		Lines:          lines,
		Payments:       payments,
		Subtotal:       sale.Subtotal,
		DiscountAmount: sale.DiscountAmount,
		TaxAmount:      sale.TaxAmount,
		Total:          sale.Total,
		PaymentMethod:  sale.PaymentMethod,
		Change:         decimal.Zero,
		Status:         sale.Status,
		StockUntracked: sale.StockUntracked,
		CreatedAt:      sale.CreatedAt.Format(time.RFC3339),
	}
}
