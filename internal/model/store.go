package model

import (
	"time"

	"github.com/google/uuid"
)

// Store is a physical point of sale. Code is the short prefix of its ticket
// numbers. MainWarehouseID is nil for stores without tracked inventory; the
// stock step of a sale is skipped for such stores.
type Store struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name            string     `gorm:"not null"`
	Code            string     `gorm:"type:varchar(10);uniqueIndex;not null"`
	MainWarehouseID *uuid.UUID `gorm:"type:uuid"`
	Active          bool       `gorm:"not null;default:true"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	MainWarehouse *Warehouse `gorm:"foreignKey:MainWarehouseID"`
}

type Warehouse struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `gorm:"not null"`
	Active    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time
}
