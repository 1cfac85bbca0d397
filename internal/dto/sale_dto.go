package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// SaleLineRequest is one ticket line. ProductVariantID is empty for
// manual/free-text lines; those carry their own Description and never touch
// stock.
type SaleLineRequest struct {
	ProductVariantID *string         `json:"product_variant_id" validate:"omitempty,uuid"`
	Description      string          `json:"description"        validate:"required_without=ProductVariantID"`
	Quantity         int             `json:"quantity"           validate:"required,min=1"`
	UnitPrice        decimal.Decimal `json:"unit_price"         validate:"min=0"`
	DiscountPct      decimal.Decimal `json:"discount_pct"       validate:"min=0,max=100"`
	TaxRate          decimal.Decimal `json:"tax_rate"           validate:"min=0"`
}

type SalePaymentRequest struct {
	Method string          `json:"method" validate:"required,oneof=cash card bizum transfer voucher"`
	Amount decimal.Decimal `json:"amount" validate:"required"`
	// Reference carries the card authorization code, transfer reference, or the
	// voucher code for method=voucher.
	Reference *string `json:"reference"`
}

type CreateSaleRequest struct {
	StoreID        string               `json:"store_id"        validate:"required,uuid"`
	CashSessionID  string               `json:"cash_session_id" validate:"required,uuid"`
	ClientID       *string              `json:"client_id"       validate:"omitempty,uuid"`
	GlobalDiscount decimal.Decimal      `json:"global_discount_pct" validate:"min=0,max=100"`
	Lines          []SaleLineRequest    `json:"lines"           validate:"required,min=1,dive"`
	Payments       []SalePaymentRequest `json:"payments"        validate:"required,min=1,dive"`
	// IdempotencyKey is set by the POS client; a retried request with the same
	// key returns the already-created sale.
	IdempotencyKey *string `json:"idempotency_key" validate:"omitempty,max=64"`
}

// SaleFilter is bound from query string of GET /v1/sales.
type SaleFilter struct {
	Date   string `form:"date"`               // YYYY-MM-DD; empty = today
	Status string `form:"status,default=all"` // completed | partially_returned | fully_returned | all
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SaleLineResponse struct {
	ID               string          `json:"id"`
	ProductVariantID *string         `json:"product_variant_id,omitempty"`
	Description      string          `json:"description"`
	Quantity         int             `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	DiscountPct      decimal.Decimal `json:"discount_pct"`
	TaxRate          decimal.Decimal `json:"tax_rate"`
	LineTotal        decimal.Decimal `json:"line_total"`
	QuantityReturned int             `json:"quantity_returned"`
}

type SalePaymentResponse struct {
	Method    string          `json:"method"`
	Amount    decimal.Decimal `json:"amount"`
	Reference *string         `json:"reference,omitempty"`
}

type SaleResponse struct {
	ID             string                `json:"id"`
	TicketNumber   string                `json:"ticket_number"`
	StoreID        string                `json:"store_id"`
	CashSessionID  string                `json:"cash_session_id"`
	Lines          []SaleLineResponse    `json:"lines"`
	Payments       []SalePaymentResponse `json:"payments"`
	Subtotal       decimal.Decimal       `json:"subtotal"`
	DiscountAmount decimal.Decimal       `json:"discount_amount"`
	TaxAmount      decimal.Decimal       `json:"tax_amount"`
	Total          decimal.Decimal       `json:"total"`
	PaymentMethod  string                `json:"payment_method"`
	Change         decimal.Decimal       `json:"change"`
	Status         string                `json:"status"`
	StockUntracked bool                  `json:"stock_untracked"`
	CreatedAt      string                `json:"created_at"`
}

type SaleListResponse struct {
	Data  []SaleResponse `json:"data"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}
