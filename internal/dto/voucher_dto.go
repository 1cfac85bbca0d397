package dto

import "github.com/shopspring/decimal"

type VoucherResponse struct {
	Code            string          `json:"code"`
	VoucherType     string          `json:"voucher_type"`
	OriginalAmount  decimal.Decimal `json:"original_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	Status          string          `json:"status"`
	IssuedAt        string          `json:"issued_at"`
	ExpiresAt       string          `json:"expires_at"`
}
