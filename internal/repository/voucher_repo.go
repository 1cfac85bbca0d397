package repository

import (
	"context"

	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VoucherRepository interface {
	Create(ctx context.Context, tx *gorm.DB, v *model.Voucher) error
	// FindByCode looks a voucher up case-insensitively.
	FindByCode(ctx context.Context, code string) (*model.Voucher, error)
	// FindByCodeForUpdateTx locks the voucher row for a balanced redemption.
	FindByCodeForUpdateTx(tx *gorm.DB, code string) (*model.Voucher, error)
	SaveTx(tx *gorm.DB, v *model.Voucher) error
	CodeExists(ctx context.Context, code string) (bool, error)
	DB() *gorm.DB
}

type voucherRepo struct{ db *gorm.DB }

func NewVoucherRepository(db *gorm.DB) VoucherRepository { return &voucherRepo{db: db} }

func (r *voucherRepo) DB() *gorm.DB { return r.db }

func (r *voucherRepo) Create(ctx context.Context, tx *gorm.DB, v *model.Voucher) error {
	return tx.WithContext(ctx).Create(v).Error
}

func (r *voucherRepo) FindByCode(ctx context.Context, code string) (*model.Voucher, error) {
	var v model.Voucher
	err := r.db.WithContext(ctx).Where("UPPER(code) = UPPER(?)", code).First(&v).Error
	return &v, err
}

func (r *voucherRepo) FindByCodeForUpdateTx(tx *gorm.DB, code string) (*model.Voucher, error) {
	var v model.Voucher
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("UPPER(code) = UPPER(?)", code).First(&v).Error
	return &v, err
}

func (r *voucherRepo) SaveTx(tx *gorm.DB, v *model.Voucher) error {
	return tx.Model(&model.Voucher{}).Where("id = ?", v.ID).
		Updates(map[string]interface{}{
			"remaining_amount": v.RemainingAmount,
			"status":           v.Status,
			"redeemed_at":      v.RedeemedAt,
		}).Error
}

func (r *voucherRepo) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Voucher{}).
		Where("UPPER(code) = UPPER(?)", code).Count(&count).Error
	return count > 0, err
}
