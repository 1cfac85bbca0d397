package dto

import "github.com/shopspring/decimal"

// ProductSearchFilter is bound from query string of GET /v1/products/search.
type ProductSearchFilter struct {
	Query   string `form:"q"                validate:"required,min=1"`
	StoreID string `form:"store_id"         validate:"required,uuid"`
	Limit   int    `form:"limit,default=20" validate:"min=1,max=100"`
}

// SellableVariantResponse is one search hit with its live stock in the store's
// main warehouse. Stock is nil when the store has no main warehouse.
type SellableVariantResponse struct {
	VariantID string          `json:"variant_id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Barcode   *string         `json:"barcode,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	TaxRate   decimal.Decimal `json:"tax_rate"`
	Stock     *int            `json:"stock,omitempty"`
}
