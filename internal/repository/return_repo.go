package repository

import (
	"context"

	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReturnRepository interface {
	Create(ctx context.Context, tx *gorm.DB, rec *model.ReturnRecord) error
	ListBySale(ctx context.Context, saleID uuid.UUID) ([]model.ReturnRecord, error)
	DB() *gorm.DB
}

type returnRepo struct{ db *gorm.DB }

func NewReturnRepository(db *gorm.DB) ReturnRepository { return &returnRepo{db: db} }

func (r *returnRepo) DB() *gorm.DB { return r.db }

func (r *returnRepo) Create(ctx context.Context, tx *gorm.DB, rec *model.ReturnRecord) error {
	return tx.WithContext(ctx).Create(rec).Error
}

func (r *returnRepo) ListBySale(ctx context.Context, saleID uuid.UUID) ([]model.ReturnRecord, error) {
	var recs []model.ReturnRecord
	err := r.db.WithContext(ctx).
		Where("original_sale_id = ?", saleID).
		Order("created_at ASC").
		Find(&recs).Error
	return recs, err
}
