package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// ReturnLineRequest selects a sale line and how many units of it come back.
type ReturnLineRequest struct {
	LineID   string `json:"line_id"  validate:"required,uuid"`
	Quantity int    `json:"quantity" validate:"required,min=1"`
}

type CreateReturnRequest struct {
	OriginalSaleID string              `json:"original_sale_id" validate:"required,uuid"`
	ReturnType     string              `json:"return_type"      validate:"required,oneof=exchange voucher"`
	Lines          []ReturnLineRequest `json:"lines"            validate:"required,min=1,dive"`
	Reason         string              `json:"reason"           validate:"required,min=3"`
	StoreID        string              `json:"store_id"         validate:"required,uuid"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ReturnResponse struct {
	ID             string          `json:"id"`
	OriginalSaleID string          `json:"original_sale_id"`
	ReturnType     string          `json:"return_type"`
	TotalReturned  decimal.Decimal `json:"total_returned"`
	// VoucherCode is present when return_type=voucher
	VoucherCode *string `json:"voucher_code,omitempty"`
	SaleStatus  string  `json:"sale_status"`
	CreatedAt   string  `json:"created_at"`
}

// ReturnRecordResponse is the listing shape for GET /v1/sales/:id/returns.
type ReturnRecordResponse struct {
	ID             string          `json:"id"`
	OriginalSaleID string          `json:"original_sale_id"`
	ReturnType     string          `json:"return_type"`
	TotalReturned  decimal.Decimal `json:"total_returned"`
	VoucherID      *string         `json:"voucher_id,omitempty"`
	Reason         string          `json:"reason"`
	CreatedAt      string          `json:"created_at"`
}
