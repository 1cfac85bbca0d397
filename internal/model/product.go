package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product groups sellable variants. Catalog management itself lives outside
// this service; these rows are read-only here.
type Product struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `gorm:"index;not null"`
	Category  string    `gorm:"not null;default:''"`
	Active    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Variants []ProductVariant `gorm:"foreignKey:ProductID"`
}

// ProductVariant is the sellable unit referenced by sale lines and stock rows.
// TrackStock=false variants (services, made-to-measure work) never touch the
// stock ledger.
type ProductVariant struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	SKU        string          `gorm:"type:varchar(40);uniqueIndex;not null"`
	Name       string          `gorm:"not null"`
	Barcode    *string         `gorm:"type:varchar(40);index"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TaxRate    decimal.Decimal `gorm:"type:decimal(5,2);not null;default:21"`
	TrackStock bool            `gorm:"not null;default:true"`
	Active     bool            `gorm:"not null;default:true"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}
