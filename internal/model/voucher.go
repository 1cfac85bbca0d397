package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Voucher is store credit issued in lieu of a cash refund, redeemable up to
// its remaining balance before expiry.
// Status: "active" | "redeemed" | "expired" | "cancelled"
// Invariant: 0 <= RemainingAmount <= OriginalAmount.
type Voucher struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	// Code is human-entered at redemption. Stored uppercase; lookups are
	// case-insensitive.
	Code            string          `gorm:"type:varchar(30);uniqueIndex;not null"`
	VoucherType     string          `gorm:"type:varchar(20);not null;default:'return'"`
	OriginalAmount  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	RemainingAmount decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	OriginSaleID    *uuid.UUID      `gorm:"type:uuid;index"`
	ClientID        *uuid.UUID      `gorm:"type:uuid;index"`
	Status          string          `gorm:"type:varchar(20);not null;default:'active'"`
	IssuedAt        time.Time
	ExpiresAt       time.Time `gorm:"not null"`
	RedeemedAt      *time.Time
}
