package model

import (
	"time"

	"github.com/google/uuid"
)

// StockLevel tracks the on-hand quantity of one variant in one warehouse.
// Mutated by every sale line and return line touching a tracked variant,
// always under a row lock inside the owning transaction.
type StockLevel struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductVariantID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_variant_warehouse"`
	WarehouseID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_variant_warehouse"`
	Quantity         int       `gorm:"not null;default:0"`
	Available        int       `gorm:"not null;default:0"`
	LastSaleAt       *time.Time
	LastMovementAt   *time.Time
}

// StockMovement records a single inventory change and its cause. Append-only:
// never updated or deleted. The audit trail of StockLevel.
// Kind: "sale" | "return" | "adjustment"
type StockMovement struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductVariantID uuid.UUID `gorm:"type:uuid;not null;index"`
	WarehouseID      uuid.UUID `gorm:"type:uuid;not null;index"`
	Kind             string    `gorm:"type:varchar(20);not null"`
	// Quantity is signed: negative = out, positive = in
	Quantity    int `gorm:"not null"`
	StockBefore int `gorm:"not null"`
	StockAfter  int `gorm:"not null"`
	// Clamped marks a decrement that would have gone negative and was clamped
	// to zero under the oversell-allowed policy.
	Clamped       bool       `gorm:"not null;default:false"`
	ReferenceType *string    `gorm:"type:varchar(20)"` // "sale" | "return"
	ReferenceID   *uuid.UUID `gorm:"type:uuid"`
	CreatedBy     uuid.UUID  `gorm:"type:uuid;not null"`
	StoreID       uuid.UUID  `gorm:"type:uuid;not null;index"`
	CreatedAt     time.Time
}
