package repository

import (
	"context"

	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductRepository is the read-side of the external catalog. The POS only
// ever reads variants; catalog writes happen elsewhere.
type ProductRepository interface {
	FindVariantByID(ctx context.Context, id uuid.UUID) (*model.ProductVariant, error)
	FindVariantByBarcode(ctx context.Context, barcode string) (*model.ProductVariant, error)
	// Search matches active variants by name (ILIKE), SKU or barcode.
	Search(ctx context.Context, query string, limit int) ([]model.ProductVariant, error)
	// StockFor returns on-hand quantities for the given variants in one
	// warehouse. Variants without a level row are absent from the map.
	StockFor(ctx context.Context, variantIDs []uuid.UUID, warehouseID uuid.UUID) (map[uuid.UUID]int, error)
}

type productRepo struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepo{db: db} }

func (r *productRepo) FindVariantByID(ctx context.Context, id uuid.UUID) (*model.ProductVariant, error) {
	var v model.ProductVariant
	err := r.db.WithContext(ctx).First(&v, "id = ?", id).Error
	return &v, err
}

func (r *productRepo) FindVariantByBarcode(ctx context.Context, barcode string) (*model.ProductVariant, error) {
	var v model.ProductVariant
	err := r.db.WithContext(ctx).
		Where("barcode = ? AND active = true", barcode).First(&v).Error
	return &v, err
}

func (r *productRepo) Search(ctx context.Context, query string, limit int) ([]model.ProductVariant, error) {
	var variants []model.ProductVariant
	err := r.db.WithContext(ctx).
		Where("active = true").
		Where("name ILIKE ? OR sku = ? OR barcode = ?", "%"+query+"%", query, query).
		Order("name ASC").Limit(limit).
		Find(&variants).Error
	return variants, err
}

func (r *productRepo) StockFor(ctx context.Context, variantIDs []uuid.UUID, warehouseID uuid.UUID) (map[uuid.UUID]int, error) {
	if len(variantIDs) == 0 {
		return map[uuid.UUID]int{}, nil
	}
	var levels []model.StockLevel
	err := r.db.WithContext(ctx).
		Where("product_variant_id IN ? AND warehouse_id = ?", variantIDs, warehouseID).
		Find(&levels).Error
	if err != nil {
		return nil, err
	}
	stock := make(map[uuid.UUID]int, len(levels))
	for _, l := range levels {
		stock[l.ProductVariantID] = l.Quantity
	}
	return stock, nil
}
