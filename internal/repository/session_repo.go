package repository

import (
	"context"

	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TenderColumn maps a payment method to the session column holding its running
// total. Methods not present here are not aggregated (the caller logs the skip).
var TenderColumn = map[string]string{
	"cash":     "total_cash_sales",
	"card":     "total_card_sales",
	"bizum":    "total_bizum_sales",
	"transfer": "total_transfer_sales",
	"voucher":  "total_voucher_sales",
}

type CashSessionRepository interface {
	CreateSession(ctx context.Context, s *model.CashSession) error
	FindSessionByID(ctx context.Context, id uuid.UUID) (*model.CashSession, error)
	FindOpenByStore(ctx context.Context, storeID uuid.UUID) (*model.CashSession, error)

	// CloseSession flips an open session to closed and returns the frozen row.
	// Expected cash and the difference against the blind count are computed in
	// SQL from the row's own running totals, so a sale committing while the
	// close request is in flight still lands in the closing figures. Guarded
	// by status='open' so a concurrent close loses the race; returns
	// gorm.ErrRecordNotFound when no open row matched.
	CloseSession(ctx context.Context, id, closedBy uuid.UUID, countedCash decimal.Decimal, notes *string) (*model.CashSession, error)

	// ApplySaleTx additively updates the running totals with atomic SQL
	// increments. perTender holds one delta per recognized payment method.
	// Returns gorm.ErrRecordNotFound when the session is not open.
	ApplySaleTx(tx *gorm.DB, sessionID uuid.UUID, total decimal.Decimal, perTender map[string]decimal.Decimal) error
	ApplyWithdrawalTx(tx *gorm.DB, sessionID uuid.UUID, amount decimal.Decimal) error

	CreateWithdrawalTx(tx *gorm.DB, w *model.CashWithdrawal) error
	CreateMovementTx(tx *gorm.DB, m *model.CashMovement) error
	ListMovements(ctx context.Context, sessionID uuid.UUID) ([]model.CashMovement, error)
	HistoryClosed(ctx context.Context, page, limit int) ([]model.CashSession, int64, error)

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type sessionRepo struct{ db *gorm.DB }

func NewCashSessionRepository(db *gorm.DB) CashSessionRepository { return &sessionRepo{db: db} }

func (r *sessionRepo) DB() *gorm.DB { return r.db }

func (r *sessionRepo) CreateSession(ctx context.Context, s *model.CashSession) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *sessionRepo) FindSessionByID(ctx context.Context, id uuid.UUID) (*model.CashSession, error) {
	var s model.CashSession
	err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error
	return &s, err
}

func (r *sessionRepo) FindOpenByStore(ctx context.Context, storeID uuid.UUID) (*model.CashSession, error) {
	var s model.CashSession
	err := r.db.WithContext(ctx).
		Where("store_id = ? AND status = 'open'", storeID).
		First(&s).Error
	return &s, err
}

// expectedCashExpr derives the drawer's expected cash from the row itself:
// opening + cash sales − returns − withdrawals.
const expectedCashExpr = "opening_amount + total_cash_sales - total_returns - total_withdrawals"

func (r *sessionRepo) CloseSession(ctx context.Context, id, closedBy uuid.UUID, countedCash decimal.Decimal, notes *string) (*model.CashSession, error) {
	var s model.CashSession
	res := r.db.WithContext(ctx).Model(&s).
		Clauses(clause.Returning{}).
		Where("id = ? AND status = 'open'", id).
		Updates(map[string]interface{}{
			"status":          "closed",
			"closed_by":       closedBy,
			"counted_cash":    countedCash,
			"expected_cash":   gorm.Expr("ROUND(" + expectedCashExpr + ", 2)"),
			"cash_difference": gorm.Expr("ROUND(? - ("+expectedCashExpr+"), 2)", countedCash),
			"closing_notes":   notes,
			"closed_at":       gorm.Expr("NOW()"),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &s, nil
}

func (r *sessionRepo) ApplySaleTx(tx *gorm.DB, sessionID uuid.UUID, total decimal.Decimal, perTender map[string]decimal.Decimal) error {
	updates := map[string]interface{}{
		"total_sales": gorm.Expr("total_sales + ?", total),
	}
	for method, amount := range perTender {
		col, ok := TenderColumn[method]
		if !ok {
			continue
		}
		updates[col] = gorm.Expr(col+" + ?", amount)
	}
	res := tx.Model(&model.CashSession{}).
		Where("id = ? AND status = 'open'", sessionID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *sessionRepo) ApplyWithdrawalTx(tx *gorm.DB, sessionID uuid.UUID, amount decimal.Decimal) error {
	res := tx.Model(&model.CashSession{}).
		Where("id = ? AND status = 'open'", sessionID).
		Update("total_withdrawals", gorm.Expr("total_withdrawals + ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *sessionRepo) CreateWithdrawalTx(tx *gorm.DB, w *model.CashWithdrawal) error {
	return tx.Create(w).Error
}

func (r *sessionRepo) CreateMovementTx(tx *gorm.DB, m *model.CashMovement) error {
	return tx.Create(m).Error
}

func (r *sessionRepo) ListMovements(ctx context.Context, sessionID uuid.UUID) ([]model.CashMovement, error) {
	var movs []model.CashMovement
	err := r.db.WithContext(ctx).
		Where("cash_session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&movs).Error
	return movs, err
}

func (r *sessionRepo) HistoryClosed(ctx context.Context, page, limit int) ([]model.CashSession, int64, error) {
	var sessions []model.CashSession
	var total int64

	q := r.db.WithContext(ctx).Model(&model.CashSession{}).Where("status = 'closed'")
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("closed_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&sessions).Error
	return sessions, total, err
}
