package repository

import (
	"context"
	"time"

	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OutboxRepository interface {
	CreateTx(tx *gorm.DB, entry *model.LedgerOutbox) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.LedgerOutbox, error)
	// FindDue returns pending entries whose next retry is due (or that were
	// never attempted).
	FindDue(ctx context.Context, now time.Time, limit int) ([]model.LedgerOutbox, error)
	MarkDelivered(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, attempts int, nextRetryAt *time.Time, lastError string) error
	ListUndelivered(ctx context.Context, limit int) ([]model.LedgerOutbox, error)
}

type outboxRepo struct{ db *gorm.DB }

func NewOutboxRepository(db *gorm.DB) OutboxRepository { return &outboxRepo{db: db} }

func (r *outboxRepo) CreateTx(tx *gorm.DB, entry *model.LedgerOutbox) error {
	return tx.Create(entry).Error
}

func (r *outboxRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.LedgerOutbox, error) {
	var e model.LedgerOutbox
	err := r.db.WithContext(ctx).First(&e, "id = ?", id).Error
	return &e, err
}

func (r *outboxRepo) FindDue(ctx context.Context, now time.Time, limit int) ([]model.LedgerOutbox, error) {
	var entries []model.LedgerOutbox
	err := r.db.WithContext(ctx).
		Where("status = 'pending' AND (next_retry_at IS NULL OR next_retry_at <= ?)", now).
		Order("created_at ASC").Limit(limit).
		Find(&entries).Error
	return entries, err
}

func (r *outboxRepo) MarkDelivered(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&model.LedgerOutbox{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       "delivered",
			"delivered_at": &now,
		}).Error
}

func (r *outboxRepo) MarkFailed(ctx context.Context, id uuid.UUID, attempts int, nextRetryAt *time.Time, lastError string) error {
	status := "pending"
	if nextRetryAt == nil {
		// Retries exhausted
		status = "failed"
	}
	return r.db.WithContext(ctx).Model(&model.LedgerOutbox{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        status,
			"attempts":      attempts,
			"next_retry_at": nextRetryAt,
			"last_error":    lastError,
		}).Error
}

func (r *outboxRepo) ListUndelivered(ctx context.Context, limit int) ([]model.LedgerOutbox, error) {
	var entries []model.LedgerOutbox
	err := r.db.WithContext(ctx).
		Where("status IN ('pending', 'failed')").
		Order("created_at ASC").Limit(limit).
		Find(&entries).Error
	return entries, err
}
