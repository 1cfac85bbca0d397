package repository

import (
	"context"
	"errors"

	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StockRepository interface {
	// FindLevelForUpdateTx fetches the (variant, warehouse) level row under a
	// FOR UPDATE lock, creating a zero row first when none exists. Two
	// concurrent sales for the same variant serialize on this lock.
	FindLevelForUpdateTx(tx *gorm.DB, variantID, warehouseID uuid.UUID) (*model.StockLevel, error)
	SaveLevelTx(tx *gorm.DB, level *model.StockLevel) error
	CreateMovementTx(tx *gorm.DB, m *model.StockMovement) error

	FindLevel(ctx context.Context, variantID, warehouseID uuid.UUID) (*model.StockLevel, error)
	ListMovements(ctx context.Context, variantID uuid.UUID, limit int) ([]model.StockMovement, error)
}

type stockRepo struct{ db *gorm.DB }

func NewStockRepository(db *gorm.DB) StockRepository { return &stockRepo{db: db} }

func (r *stockRepo) FindLevelForUpdateTx(tx *gorm.DB, variantID, warehouseID uuid.UUID) (*model.StockLevel, error) {
	var level model.StockLevel
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_variant_id = ? AND warehouse_id = ?", variantID, warehouseID).
		First(&level).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// First movement for this pair: insert a zero row, tolerate a
		// concurrent insert, then lock it.
		seed := model.StockLevel{ProductVariantID: variantID, WarehouseID: warehouseID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
			return nil, err
		}
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("product_variant_id = ? AND warehouse_id = ?", variantID, warehouseID).
			First(&level).Error
	}
	if err != nil {
		return nil, err
	}
	return &level, nil
}

func (r *stockRepo) SaveLevelTx(tx *gorm.DB, level *model.StockLevel) error {
	return tx.Model(&model.StockLevel{}).Where("id = ?", level.ID).
		Updates(map[string]interface{}{
			"quantity":         level.Quantity,
			"available":        level.Available,
			"last_sale_at":     level.LastSaleAt,
			"last_movement_at": level.LastMovementAt,
		}).Error
}

func (r *stockRepo) CreateMovementTx(tx *gorm.DB, m *model.StockMovement) error {
	return tx.Create(m).Error
}

func (r *stockRepo) FindLevel(ctx context.Context, variantID, warehouseID uuid.UUID) (*model.StockLevel, error) {
	var level model.StockLevel
	err := r.db.WithContext(ctx).
		Where("product_variant_id = ? AND warehouse_id = ?", variantID, warehouseID).
		First(&level).Error
	return &level, err
}

func (r *stockRepo) ListMovements(ctx context.Context, variantID uuid.UUID, limit int) ([]model.StockMovement, error) {
	var movs []model.StockMovement
	err := r.db.WithContext(ctx).
		Where("product_variant_id = ?", variantID).
		Order("created_at DESC").Limit(limit).
		Find(&movs).Error
	return movs, err
}
