package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CashSession represents one open/close period of a store's till.
// Status: "open" | "closed". At most one session per store may be open at a
// time (enforced by a partial unique index on store_id WHERE status = 'open').
// Once closed a session is frozen; no further mutation is allowed.
type CashSession struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StoreID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	OpenedBy      uuid.UUID       `gorm:"type:uuid;not null"`
	OpeningAmount decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Status        string          `gorm:"type:varchar(20);not null;default:'open'"`

	// Running totals, mutated additively by every completed sale, withdrawal
	// or voucher redemption while the session is open. Updated via atomic SQL
	// increments — never read-modify-write.
	TotalSales         decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TotalCashSales     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TotalCardSales     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TotalBizumSales    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TotalTransferSales decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TotalVoucherSales  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TotalReturns       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TotalWithdrawals   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`

	// Closing data — nil while open
	ClosedBy       *uuid.UUID       `gorm:"type:uuid"`
	CountedCash    *decimal.Decimal `gorm:"type:decimal(12,2)"`
	ExpectedCash   *decimal.Decimal `gorm:"type:decimal(12,2)"`
	CashDifference *decimal.Decimal `gorm:"type:decimal(12,2)"`
	ClosingNotes   *string

	OpenedAt time.Time
	ClosedAt *time.Time

	Movements []CashMovement `gorm:"foreignKey:CashSessionID"`
}

// CashMovement is an immutable event in the till journal.
// Kind: "sale" | "withdrawal" | "adjustment"
// Movements are NEVER modified or deleted — corrections create inverse entries.
type CashMovement struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CashSessionID uuid.UUID       `gorm:"type:uuid;index;not null"`
	Kind          string          `gorm:"type:varchar(20);not null"`
	TenderMethod  *string         `gorm:"type:varchar(20)"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Description   string          `gorm:"not null"`
	// ReferenceID links to the originating Sale or withdrawal
	ReferenceID *uuid.UUID `gorm:"type:uuid"`
	CreatedAt   time.Time
}

// CashWithdrawal records a cash pull-out from the till unrelated to sales
// (change runs, bank deposits). Immutable once created.
type CashWithdrawal struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CashSessionID uuid.UUID       `gorm:"type:uuid;index;not null"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Reason        string          `gorm:"not null"`
	WithdrawnBy   uuid.UUID       `gorm:"type:uuid;not null"`
	CreatedAt     time.Time
}
