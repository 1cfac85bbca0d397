package repository

import (
	"context"

	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/dto"
	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SaleRepository interface {
	Create(ctx context.Context, tx *gorm.DB, s *model.Sale) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	FindByTicketNumber(ctx context.Context, ticket string) (*model.Sale, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*model.Sale, error)

	// NextTicketNumber increments the store's ticket counter and returns the
	// new value. The upsert serializes concurrent allocations on the counter
	// row, so numbers are monotonic and collision-free per store.
	NextTicketNumber(ctx context.Context, tx *gorm.DB, storeID uuid.UUID) (int64, error)

	// FindLinesForUpdateTx loads the sale's lines under a FOR UPDATE lock.
	// Overlapping returns against the same ticket serialize on these rows, so
	// the quantity_returned counters they validate against cannot go stale
	// between the read and the write.
	FindLinesForUpdateTx(tx *gorm.DB, saleID uuid.UUID) ([]model.SaleLine, error)

	UpdateStatusTx(tx *gorm.DB, id uuid.UUID, status string) error
	UpdateLineReturnTx(tx *gorm.DB, line *model.SaleLine) error
	List(ctx context.Context, filter dto.SaleFilter) ([]model.Sale, int64, error)

	DB() *gorm.DB
}

type saleRepo struct{ db *gorm.DB }

func NewSaleRepository(db *gorm.DB) SaleRepository { return &saleRepo{db: db} }

func (r *saleRepo) DB() *gorm.DB { return r.db }

func (r *saleRepo) Create(ctx context.Context, tx *gorm.DB, s *model.Sale) error {
	return tx.WithContext(ctx).Create(s).Error
}

func (r *saleRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	err := r.db.WithContext(ctx).Preload("Lines").Preload("Payments").First(&s, "id = ?", id).Error
	return &s, err
}

func (r *saleRepo) FindByTicketNumber(ctx context.Context, ticket string) (*model.Sale, error) {
	var s model.Sale
	err := r.db.WithContext(ctx).Preload("Lines").Preload("Payments").
		Where("ticket_number = ?", ticket).First(&s).Error
	return &s, err
}

func (r *saleRepo) FindByIdempotencyKey(ctx context.Context, key string) (*model.Sale, error) {
	var s model.Sale
	err := r.db.WithContext(ctx).Preload("Lines").Preload("Payments").
		Where("idempotency_key = ?", key).First(&s).Error
	return &s, err
}

func (r *saleRepo) NextTicketNumber(ctx context.Context, tx *gorm.DB, storeID uuid.UUID) (int64, error) {
	var num int64
	err := tx.WithContext(ctx).Raw(`
		INSERT INTO ticket_counters (store_id, last_number)
		VALUES (?, 1)
		ON CONFLICT (store_id)
		DO UPDATE SET last_number = ticket_counters.last_number + 1
		RETURNING last_number`, storeID).Scan(&num).Error
	return num, err
}

func (r *saleRepo) FindLinesForUpdateTx(tx *gorm.DB, saleID uuid.UUID) ([]model.SaleLine, error) {
	var lines []model.SaleLine
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("sale_id = ?", saleID).
		Order("id ASC").
		Find(&lines).Error
	return lines, err
}

func (r *saleRepo) UpdateStatusTx(tx *gorm.DB, id uuid.UUID, status string) error {
	return tx.Model(&model.Sale{}).Where("id = ?", id).Update("status", status).Error
}

func (r *saleRepo) UpdateLineReturnTx(tx *gorm.DB, line *model.SaleLine) error {
	return tx.Model(&model.SaleLine{}).Where("id = ?", line.ID).
		Updates(map[string]interface{}{
			"quantity_returned": line.QuantityReturned,
			"returned_at":       line.ReturnedAt,
			"return_reason":     line.ReturnReason,
		}).Error
}

func (r *saleRepo) List(ctx context.Context, filter dto.SaleFilter) ([]model.Sale, int64, error) {
	var sales []model.Sale
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Sale{})

	if filter.Status != "" && filter.Status != "all" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Date != "" {
		q = q.Where("DATE(created_at) = ?", filter.Date)
	} else {
		// Default: today
		q = q.Where("DATE(created_at) = CURRENT_DATE")
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Preload("Lines").Preload("Payments").
		Order("created_at DESC").
		Offset((filter.Page - 1) * filter.Limit).Limit(filter.Limit).
		Find(&sales).Error
	return sales, total, err
}
