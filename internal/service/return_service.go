package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/config"
	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/dto"
	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/model"
	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ReturnService interface {
	CreateReturn(ctx context.Context, userID uuid.UUID, req dto.CreateReturnRequest) (*dto.ReturnResponse, error)
	ListBySale(ctx context.Context, saleID uuid.UUID) ([]dto.ReturnRecordResponse, error)
}

type returnService struct {
	repo      repository.ReturnRepository
	saleRepo  repository.SaleRepository
	stock     StockLedger
	storeRepo repository.StoreRepository
	vouchers  VoucherService
	cfg       *config.Config
}

func NewReturnService(
	repo repository.ReturnRepository,
	saleRepo repository.SaleRepository,
	stock StockLedger,
	storeRepo repository.StoreRepository,
	vouchers VoucherService,
	cfg *config.Config,
) ReturnService {
	return &returnService{
		repo:      repo,
		saleRepo:  saleRepo,
		stock:     stock,
		storeRepo: storeRepo,
		vouchers:  vouchers,
		cfg:       cfg,
	}
}

// CreateReturn processes a partial or full return against an existing sale.
// Refunds are proportional to the line total, and a line can never return more
// units than it has left unreturned. Cash session aggregates are not touched
// here; refund money leaves through the voucher or the exchange that follows.
func (s *returnService) CreateReturn(ctx context.Context, userID uuid.UUID, req dto.CreateReturnRequest) (*dto.ReturnResponse, error) {
	saleID, err := uuid.Parse(req.OriginalSaleID)
	if err != nil {
		return nil, fmt.Errorf("invalid sale_id: %w", err)
	}

	sale, err := s.saleRepo.FindByID(ctx, saleID)
	if err != nil {
		return nil, ErrSaleNotFound
	}

	store, err := s.storeRepo.FindByID(ctx, sale.StoreID)
	if err != nil {
		return nil, ErrStoreNotFound
	}

	type requestLine struct {
		lineID   uuid.UUID
		quantity int
	}
	reqLines := make([]requestLine, 0, len(req.Lines))
	for _, lr := range req.Lines {
		lineID, err := uuid.Parse(lr.LineID)
		if err != nil {
			return nil, fmt.Errorf("invalid line_id: %w", err)
		}
		reqLines = append(reqLines, requestLine{lineID: lineID, quantity: lr.Quantity})
	}

	var (
		record      model.ReturnRecord
		voucherCode *string
		saleStatus  string
	)

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		// Validation runs against the lines re-read under FOR UPDATE, never
		// against the snapshot above: two overlapping returns of the same
		// line serialize here, and the loser sees the winner's counters.
		lines, err := s.saleRepo.FindLinesForUpdateTx(tx, saleID)
		if err != nil {
			return err
		}
		lineByID := make(map[uuid.UUID]*model.SaleLine, len(lines))
		for i := range lines {
			lineByID[lines[i].ID] = &lines[i]
		}

		type plannedLine struct {
			line     *model.SaleLine
			quantity int
			refund   decimal.Decimal
		}
		planned := make([]plannedLine, 0, len(reqLines))
		totalRefund := decimal.Zero
		// Requested units accumulate per line so a request naming the same
		// line twice cannot slip past the remaining-quantity check.
		requested := make(map[uuid.UUID]int, len(reqLines))

		for _, rl := range reqLines {
			line, ok := lineByID[rl.lineID]
			if !ok {
				return ErrLineNotFound
			}
			requested[rl.lineID] += rl.quantity
			remaining := line.Quantity - line.QuantityReturned
			if requested[rl.lineID] > remaining {
				return fmt.Errorf("line %s has %d returnable units: %w", rl.lineID, remaining, ErrOverReturn)
			}
			// Proportional refund: unit share of the tax-inclusive line total.
			refund := line.LineTotal.
				Mul(decimal.NewFromInt(int64(rl.quantity))).
				Div(decimal.NewFromInt(int64(line.Quantity))).
				Round(2)
			planned = append(planned, plannedLine{line: line, quantity: rl.quantity, refund: refund})
			totalRefund = totalRefund.Add(refund)
		}

		record = model.ReturnRecord{
			OriginalSaleID: saleID,
			ReturnType:     req.ReturnType,
			TotalReturned:  totalRefund,
			Reason:         req.Reason,
			ProcessedBy:    userID,
			StoreID:        sale.StoreID,
		}

		if req.ReturnType == "voucher" {
			expiresAt := time.Now().UTC().AddDate(0, 0, s.cfg.VoucherExpiryDays)
			voucher, err := s.vouchers.IssueTx(ctx, tx, totalRefund, &saleID, sale.ClientID, expiresAt)
			if err != nil {
				return err
			}
			record.VoucherID = &voucher.ID
			voucherCode = &voucher.Code
		}

		if err := s.repo.Create(ctx, tx, &record); err != nil {
			return err
		}

		now := time.Now().UTC()
		for _, pl := range planned {
			pl.line.QuantityReturned += pl.quantity
			pl.line.ReturnedAt = &now
			pl.line.ReturnReason = &req.Reason
			if err := s.saleRepo.UpdateLineReturnTx(tx, pl.line); err != nil {
				return err
			}
		}

		// Returned merchandise goes back on the shelf when the store tracks it.
		if store.MainWarehouseID != nil {
			ref := MovementRef{
				ReferenceType: "return",
				ReferenceID:   record.ID,
				CreatedBy:     userID,
				StoreID:       sale.StoreID,
			}
			for _, pl := range planned {
				if pl.line.ProductVariantID == nil {
					continue
				}
				if _, err := s.stock.RestoreTx(tx, *pl.line.ProductVariantID, *store.MainWarehouseID, pl.quantity, ref); err != nil {
					return err
				}
			}
		} else {
			log.Warn().
				Str("sale_id", saleID.String()).
				Msg("return: store has no main warehouse, stock restore skipped")
		}

		// Recompute sale status from the locked lines' updated counters.
		fully := true
		for i := range lines {
			if lines[i].QuantityReturned < lines[i].Quantity {
				fully = false
				break
			}
		}
		saleStatus = "partially_returned"
		if fully {
			saleStatus = "fully_returned"
		}
		return s.saleRepo.UpdateStatusTx(tx, saleID, saleStatus)
	})
	if txErr != nil {
		return nil, txErr
	}

	return &dto.ReturnResponse{
		ID:             record.ID.String(),
		OriginalSaleID: saleID.String(),
		ReturnType:     record.ReturnType,
		TotalReturned:  record.TotalReturned,
		VoucherCode:    voucherCode,
		SaleStatus:     saleStatus,
		CreatedAt:      record.CreatedAt.Format(time.RFC3339),
	}, nil
}

func (s *returnService) ListBySale(ctx context.Context, saleID uuid.UUID) ([]dto.ReturnRecordResponse, error) {
	records, err := s.repo.ListBySale(ctx, saleID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ReturnRecordResponse, 0, len(records))
	for _, r := range records {
		var vid *string
		if r.VoucherID != nil {
			v := r.VoucherID.String()
			vid = &v
		}
		out = append(out, dto.ReturnRecordResponse{
			ID:             r.ID.String(),
			OriginalSaleID: r.OriginalSaleID.String(),
			ReturnType:     r.ReturnType,
			TotalReturned:  r.TotalReturned,
			VoucherID:      vid,
			Reason:         r.Reason,
			CreatedAt:      r.CreatedAt.Format(time.RFC3339),
		})
	}
	return out, nil
}
