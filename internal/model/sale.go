package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sale is a completed ticket with its lines and payments.
// Status: "completed" | "partially_returned" | "fully_returned"
// Created atomically with lines and payments; status is later mutated only by
// the return flow.
type Sale struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TicketNumber  string     `gorm:"type:varchar(30);uniqueIndex;not null"`
	StoreID       uuid.UUID  `gorm:"type:uuid;not null;index"`
	CashSessionID uuid.UUID  `gorm:"type:uuid;not null;index"`
	ClientID      *uuid.UUID `gorm:"type:uuid;index"`
	SalespersonID uuid.UUID  `gorm:"type:uuid;not null"`

	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Total          decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	// PaymentMethod is the single tender name, or "mixed" when more than one
	// distinct method was used.
	PaymentMethod string `gorm:"type:varchar(20);not null"`
	Status        string `gorm:"type:varchar(30);not null;default:'completed'"`

	// StockUntracked is set when at least one line skipped stock deduction
	// because the store has no main warehouse. Queryable for reconciliation.
	StockUntracked bool `gorm:"not null;default:false"`

	// IdempotencyKey is supplied by the POS client so a retried request after a
	// timeout resolves to the already-created sale instead of a duplicate.
	IdempotencyKey *string `gorm:"type:varchar(64);uniqueIndex"`

	CreatedAt time.Time

	Lines    []SaleLine `gorm:"foreignKey:SaleID"`
	Payments []Payment  `gorm:"foreignKey:SaleID"`
}

// SaleLine is one ordered line of a ticket. ProductVariantID is nil for
// manual/free-text lines, which never touch stock.
// Invariant: QuantityReturned <= Quantity.
type SaleLine struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SaleID           uuid.UUID  `gorm:"type:uuid;index;not null"`
	ProductVariantID *uuid.UUID `gorm:"type:uuid;index"`
	Description      string     `gorm:"not null"`

	Quantity    int             `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DiscountPct decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	TaxRate     decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	QuantityReturned int `gorm:"not null;default:0"`
	ReturnedAt       *time.Time
	ReturnReason     *string
}

// Payment is one tender instance on a ticket.
// Method: "cash" | "card" | "bizum" | "transfer" | "voucher"
// Invariant: sum of a sale's payments >= the sale total; cash overpayment
// becomes change and is not persisted.
type Payment struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SaleID    uuid.UUID       `gorm:"type:uuid;index;not null"`
	Method    string          `gorm:"type:varchar(20);not null"`
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Reference *string         `gorm:"type:varchar(64)"`
	VoucherID *uuid.UUID      `gorm:"type:uuid"`
	CreatedAt time.Time
}

// TicketCounter holds the last assigned ticket number per store. The row is
// locked and incremented inside the sale transaction, which serializes ticket
// allocation per store.
type TicketCounter struct {
	StoreID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	LastNumber int64     `gorm:"not null;default:0"`
}
