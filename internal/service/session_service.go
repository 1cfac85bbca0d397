package service

import (
	"context"
	"errors"
	"time"

	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/dto"
	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/model"
	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CashSessionService interface {
	Open(ctx context.Context, userID uuid.UUID, req dto.OpenSessionRequest) (*dto.SessionResponse, error)
	Close(ctx context.Context, userID, sessionID uuid.UUID, req dto.CloseSessionRequest) (*dto.SessionResponse, error)
	RecordWithdrawal(ctx context.Context, userID, sessionID uuid.UUID, req dto.WithdrawalRequest) (*dto.WithdrawalResponse, error)
	GetActive(ctx context.Context, storeID uuid.UUID) (*dto.SessionResponse, error)
	Report(ctx context.Context, sessionID uuid.UUID) (*dto.SessionReportResponse, error)
	History(ctx context.Context, page, limit int) (*dto.SessionHistoryResponse, error)
	// RequireOpen is called by the sale flow to validate the target session.
	RequireOpen(ctx context.Context, sessionID uuid.UUID) (*model.CashSession, error)
}

type sessionService struct {
	repo repository.CashSessionRepository
}

func NewCashSessionService(repo repository.CashSessionRepository) CashSessionService {
	return &sessionService{repo: repo}
}

// ── Open ─────────────────────────────────────────────────────────────────────

func (s *sessionService) Open(ctx context.Context, userID uuid.UUID, req dto.OpenSessionRequest) (*dto.SessionResponse, error) {
	storeID, err := uuid.Parse(req.StoreID)
	if err != nil {
		return nil, err
	}

	// Guard: no duplicate open session per store. The partial unique index on
	// (store_id) WHERE status='open' backs this check against races.
	if existing, err := s.repo.FindOpenByStore(ctx, storeID); err == nil && existing != nil {
		return nil, ErrSessionAlreadyOpen
	}

	session := &model.CashSession{
		StoreID:       storeID,
		OpenedBy:      userID,
		OpeningAmount: req.OpeningAmount,
		Status:        "open",
		OpenedAt:      time.Now(),
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	return sessionToResponse(session), nil
}

// ── Close ────────────────────────────────────────────────────────────────────
// Closing is terminal: expected cash is derived from the running aggregates,
// the difference against the blind count is recorded, and the row is frozen.
// The derivation happens inside the guarded UPDATE so sales landing while the
// close is in flight are still counted.

func (s *sessionService) Close(ctx context.Context, userID, sessionID uuid.UUID, req dto.CloseSessionRequest) (*dto.SessionResponse, error) {
	session, err := s.repo.CloseSession(ctx, sessionID, userID, req.CountedCash.Round(2), req.ClosingNotes)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if _, findErr := s.repo.FindSessionByID(ctx, sessionID); findErr != nil {
				return nil, ErrSessionNotFound
			}
			// The session exists but no open row matched: already closed.
			return nil, ErrSessionClosed
		}
		return nil, err
	}
	return sessionToResponse(session), nil
}

// ── RecordWithdrawal ─────────────────────────────────────────────────────────

func (s *sessionService) RecordWithdrawal(ctx context.Context, userID, sessionID uuid.UUID, req dto.WithdrawalRequest) (*dto.WithdrawalResponse, error) {
	if _, err := s.RequireOpen(ctx, sessionID); err != nil {
		return nil, err
	}

	withdrawal := &model.CashWithdrawal{
		CashSessionID: sessionID,
		Amount:        req.Amount.Round(2),
		Reason:        req.Reason,
		WithdrawnBy:   userID,
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.ApplyWithdrawalTx(tx, sessionID, withdrawal.Amount); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSessionClosed
			}
			return err
		}
		if err := s.repo.CreateWithdrawalTx(tx, withdrawal); err != nil {
			return err
		}
		cash := "cash"
		mov := &model.CashMovement{
			CashSessionID: sessionID,
			Kind:          "withdrawal",
			TenderMethod:  &cash,
			Amount:        withdrawal.Amount.Neg(),
			Description:   req.Reason,
			ReferenceID:   &withdrawal.ID,
		}
		return s.repo.CreateMovementTx(tx, mov)
	})
	if txErr != nil {
		return nil, txErr
	}

	return &dto.WithdrawalResponse{
		ID:            withdrawal.ID.String(),
		CashSessionID: sessionID.String(),
		Amount:        withdrawal.Amount,
		Reason:        withdrawal.Reason,
		CreatedAt:     withdrawal.CreatedAt.Format(time.RFC3339),
	}, nil
}

// ── Queries ──────────────────────────────────────────────────────────────────

func (s *sessionService) GetActive(ctx context.Context, storeID uuid.UUID) (*dto.SessionResponse, error) {
	session, err := s.repo.FindOpenByStore(ctx, storeID)
	if err != nil {
		return nil, ErrSessionNotFound
	}
	return sessionToResponse(session), nil
}

func (s *sessionService) Report(ctx context.Context, sessionID uuid.UUID) (*dto.SessionReportResponse, error) {
	session, err := s.repo.FindSessionByID(ctx, sessionID)
	if err != nil {
		return nil, ErrSessionNotFound
	}
	movs, err := s.repo.ListMovements(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	report := &dto.SessionReportResponse{Session: *sessionToResponse(session)}
	for _, m := range movs {
		report.Movements = append(report.Movements, dto.SessionMovementResponse{
			Kind:         m.Kind,
			TenderMethod: m.TenderMethod,
			Amount:       m.Amount,
			Description:  m.Description,
			CreatedAt:    m.CreatedAt.Format(time.RFC3339),
		})
	}
	return report, nil
}

func (s *sessionService) History(ctx context.Context, page, limit int) (*dto.SessionHistoryResponse, error) {
	sessions, total, err := s.repo.HistoryClosed(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	resp := &dto.SessionHistoryResponse{Total: total, Page: page, Limit: limit}
	resp.Data = make([]dto.SessionResponse, 0, len(sessions))
	for i := range sessions {
		resp.Data = append(resp.Data, *sessionToResponse(&sessions[i]))
	}
	return resp, nil
}

func (s *sessionService) RequireOpen(ctx context.Context, sessionID uuid.UUID) (*model.CashSession, error) {
	session, err := s.repo.FindSessionByID(ctx, sessionID)
	if err != nil {
		return nil, ErrSessionNotFound
	}
	if session.Status != "open" {
		return nil, ErrSessionClosed
	}
	return session, nil
}

// ── Helpers ──────────────────────────────────────────────────────────────────

func sessionToResponse(s *model.CashSession) *dto.SessionResponse {
	resp := &dto.SessionResponse{
		ID:            s.ID.String(),
		StoreID:       s.StoreID.String(),
		OpenedBy:      s.OpenedBy.String(),
		OpeningAmount: s.OpeningAmount,
		Status:        s.Status,
		TotalSales:    s.TotalSales,
		SalesByTender: dto.TenderTotals{
			Cash:     s.TotalCashSales,
			Card:     s.TotalCardSales,
			Bizum:    s.TotalBizumSales,
			Transfer: s.TotalTransferSales,
			Voucher:  s.TotalVoucherSales,
		},
		TotalReturns:     s.TotalReturns,
		TotalWithdrawals: s.TotalWithdrawals,
		CountedCash:      s.CountedCash,
		ExpectedCash:     s.ExpectedCash,
		CashDifference:   s.CashDifference,
		ClosingNotes:     s.ClosingNotes,
		OpenedAt:         s.OpenedAt.Format(time.RFC3339),
	}
	if s.ClosedAt != nil {
		t := s.ClosedAt.Format(time.RFC3339)
		resp.ClosedAt = &t
	}
	return resp
}
