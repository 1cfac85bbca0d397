package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type OpenSessionRequest struct {
	StoreID       string          `json:"store_id"       validate:"required,uuid"`
	OpeningAmount decimal.Decimal `json:"opening_amount" validate:"min=0"`
}

type CloseSessionRequest struct {
	CountedCash  decimal.Decimal `json:"counted_cash"  validate:"min=0"`
	ClosingNotes *string         `json:"closing_notes"`
}

type WithdrawalRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required,gt=0"`
	Reason string          `json:"reason" validate:"required,min=3"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// TenderTotals breaks down a session's running sales per payment method.
type TenderTotals struct {
	Cash     decimal.Decimal `json:"cash"`
	Card     decimal.Decimal `json:"card"`
	Bizum    decimal.Decimal `json:"bizum"`
	Transfer decimal.Decimal `json:"transfer"`
	Voucher  decimal.Decimal `json:"voucher"`
}

type SessionResponse struct {
	ID               string           `json:"id"`
	StoreID          string           `json:"store_id"`
	OpenedBy         string           `json:"opened_by"`
	OpeningAmount    decimal.Decimal  `json:"opening_amount"`
	Status           string           `json:"status"`
	TotalSales       decimal.Decimal  `json:"total_sales"`
	SalesByTender    TenderTotals     `json:"sales_by_tender"`
	TotalReturns     decimal.Decimal  `json:"total_returns"`
	TotalWithdrawals decimal.Decimal  `json:"total_withdrawals"`
	CountedCash      *decimal.Decimal `json:"counted_cash,omitempty"`
	ExpectedCash     *decimal.Decimal `json:"expected_cash,omitempty"`
	CashDifference   *decimal.Decimal `json:"cash_difference,omitempty"`
	ClosingNotes     *string          `json:"closing_notes,omitempty"`
	OpenedAt         string           `json:"opened_at"`
	ClosedAt         *string          `json:"closed_at,omitempty"`
}

type WithdrawalResponse struct {
	ID            string          `json:"id"`
	CashSessionID string          `json:"cash_session_id"`
	Amount        decimal.Decimal `json:"amount"`
	Reason        string          `json:"reason"`
	CreatedAt     string          `json:"created_at"`
}

type SessionMovementResponse struct {
	Kind         string          `json:"kind"`
	TenderMethod *string         `json:"tender_method,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	Description  string          `json:"description"`
	CreatedAt    string          `json:"created_at"`
}

// SessionReportResponse is the per-session report: the session with its full
// movement journal.
type SessionReportResponse struct {
	Session   SessionResponse           `json:"session"`
	Movements []SessionMovementResponse `json:"movements"`
}

type SessionHistoryResponse struct {
	Data  []SessionResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}
