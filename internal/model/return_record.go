package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReturnRecord documents one refund/exchange against a prior sale.
// ReturnType: "exchange" | "voucher". Immutable once created.
type ReturnRecord struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OriginalSaleID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ReturnType     string          `gorm:"type:varchar(20);not null"`
	TotalReturned  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	VoucherID      *uuid.UUID      `gorm:"type:uuid"`
	Reason         string          `gorm:"not null"`
	ProcessedBy    uuid.UUID       `gorm:"type:uuid;not null"`
	StoreID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	CreatedAt      time.Time

	Voucher *Voucher `gorm:"foreignKey:VoucherID"`
}
