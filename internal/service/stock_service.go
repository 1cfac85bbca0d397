package service

import (
	"context"
	"errors"
	"time"

	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/model"
	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// MovementRef identifies the operation causing a stock change.
type MovementRef struct {
	ReferenceType string // "sale" | "return"
	ReferenceID   uuid.UUID
	CreatedBy     uuid.UUID
	StoreID       uuid.UUID
}

// StockLedger reads and writes per-(variant, warehouse) stock levels and
// appends the immutable movement trail. All writes happen inside the caller's
// transaction, under a row lock on the level, so two concurrent sales for the
// last unit serialize rather than both succeeding.
type StockLedger interface {
	DecrementTx(tx *gorm.DB, variantID, warehouseID uuid.UUID, qty int, ref MovementRef) (*model.StockMovement, error)
	RestoreTx(tx *gorm.DB, variantID, warehouseID uuid.UUID, qty int, ref MovementRef) (*model.StockMovement, error)
	Level(ctx context.Context, variantID, warehouseID uuid.UUID) (*model.StockLevel, error)
	Movements(ctx context.Context, variantID uuid.UUID, limit int) ([]model.StockMovement, error)
}

type stockLedger struct {
	repo repository.StockRepository
	// allowOversell: clamp to zero and flag the movement instead of rejecting.
	allowOversell bool
}

func NewStockLedger(repo repository.StockRepository, allowOversell bool) StockLedger {
	return &stockLedger{repo: repo, allowOversell: allowOversell}
}

func (s *stockLedger) DecrementTx(tx *gorm.DB, variantID, warehouseID uuid.UUID, qty int, ref MovementRef) (*model.StockMovement, error) {
	level, err := s.repo.FindLevelForUpdateTx(tx, variantID, warehouseID)
	if err != nil {
		return nil, err
	}

	before := level.Quantity
	after := before - qty
	clamped := false
	if after < 0 {
		if !s.allowOversell {
			return nil, ErrInsufficientStock
		}
		after = 0
		clamped = true
		log.Warn().
			Str("variant_id", variantID.String()).
			Str("warehouse_id", warehouseID.String()).
			Int("stock_before", before).
			Int("requested", qty).
			Msg("stock: oversell clamped to zero")
	}

	now := time.Now()
	level.Quantity = after
	level.Available = after
	level.LastMovementAt = &now
	if ref.ReferenceType == "sale" {
		level.LastSaleAt = &now
	}
	if err := s.repo.SaveLevelTx(tx, level); err != nil {
		return nil, err
	}

	mov := &model.StockMovement{
		ProductVariantID: variantID,
		WarehouseID:      warehouseID,
		Kind:             ref.ReferenceType,
		Quantity:         after - before,
		StockBefore:      before,
		StockAfter:       after,
		Clamped:          clamped,
		ReferenceType:    &ref.ReferenceType,
		ReferenceID:      &ref.ReferenceID,
		CreatedBy:        ref.CreatedBy,
		StoreID:          ref.StoreID,
	}
	if err := s.repo.CreateMovementTx(tx, mov); err != nil {
		return nil, err
	}
	return mov, nil
}

func (s *stockLedger) RestoreTx(tx *gorm.DB, variantID, warehouseID uuid.UUID, qty int, ref MovementRef) (*model.StockMovement, error) {
	level, err := s.repo.FindLevelForUpdateTx(tx, variantID, warehouseID)
	if err != nil {
		return nil, err
	}

	before := level.Quantity
	after := before + qty

	now := time.Now()
	level.Quantity = after
	level.Available = after
	level.LastMovementAt = &now
	if err := s.repo.SaveLevelTx(tx, level); err != nil {
		return nil, err
	}

	mov := &model.StockMovement{
		ProductVariantID: variantID,
		WarehouseID:      warehouseID,
		Kind:             ref.ReferenceType,
		Quantity:         qty,
		StockBefore:      before,
		StockAfter:       after,
		ReferenceType:    &ref.ReferenceType,
		ReferenceID:      &ref.ReferenceID,
		CreatedBy:        ref.CreatedBy,
		StoreID:          ref.StoreID,
	}
	if err := s.repo.CreateMovementTx(tx, mov); err != nil {
		return nil, err
	}
	return mov, nil
}

func (s *stockLedger) Level(ctx context.Context, variantID, warehouseID uuid.UUID) (*model.StockLevel, error) {
	level, err := s.repo.FindLevel(ctx, variantID, warehouseID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// No level row yet means zero on hand, not an error.
		return &model.StockLevel{ProductVariantID: variantID, WarehouseID: warehouseID}, nil
	}
	return level, err
}

func (s *stockLedger) Movements(ctx context.Context, variantID uuid.UUID, limit int) ([]model.StockMovement, error) {
	return s.repo.ListMovements(ctx, variantID, limit)
}
