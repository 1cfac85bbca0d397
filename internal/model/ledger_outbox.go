package model

import (
	"time"

	"github.com/google/uuid"
)

// LedgerOutbox is the delivery intent for the downstream accounting ledger.
// One row is written inside the sale transaction; a worker delivers it with
// retries. The sale never blocks on — and never silently loses — the ledger
// side effect.
// Status: "pending" | "delivered" | "failed"
type LedgerOutbox struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	SaleID  uuid.UUID `gorm:"type:uuid;not null;index" json:"sale_id"`
	Payload string    `gorm:"type:jsonb;not null" json:"payload"`
	Status  string    `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	// Retry bookkeeping — used by the retry cron to re-attempt delivery
	Attempts    int        `gorm:"not null;default:0" json:"attempts"`
	NextRetryAt *time.Time `gorm:"index" json:"next_retry_at,omitempty"`
	LastError   *string    `json:"last_error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
}

func (LedgerOutbox) TableName() string { return "ledger_outbox" }
