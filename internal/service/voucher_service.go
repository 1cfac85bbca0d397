package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/dto"
	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/model"
	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type VoucherService interface {
	// IssueTx mints a voucher inside the caller's transaction with a unique,
	// human-typeable code.
	IssueTx(ctx context.Context, tx *gorm.DB, amount decimal.Decimal, originSaleID, clientID *uuid.UUID, expiresAt time.Time) (*model.Voucher, error)
	Validate(ctx context.Context, code string) (*dto.VoucherResponse, error)
	// RedeemTx decrements the voucher's remaining balance under a row lock.
	RedeemTx(tx *gorm.DB, code string, amount decimal.Decimal) (*model.Voucher, error)
}

type voucherService struct {
	repo repository.VoucherRepository
}

func NewVoucherService(repo repository.VoucherRepository) VoucherService {
	return &voucherService{repo: repo}
}

// codeAlphabet excludes ambiguous characters (0/O, 1/I/L) so codes survive
// being read over a counter and typed back in.
const codeAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

func generateCode(now time.Time) (string, error) {
	suffix := make([]byte, 4)
	for i := range suffix {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
		if err != nil {
			return "", err
		}
		suffix[i] = codeAlphabet[n.Int64()]
	}
	return fmt.Sprintf("SP-%s-%s", now.Format("060102"), suffix), nil
}

func (s *voucherService) IssueTx(ctx context.Context, tx *gorm.DB, amount decimal.Decimal, originSaleID, clientID *uuid.UUID, expiresAt time.Time) (*model.Voucher, error) {
	now := time.Now()

	var code string
	for attempt := 0; ; attempt++ {
		c, err := generateCode(now)
		if err != nil {
			return nil, err
		}
		exists, err := s.repo.CodeExists(ctx, c)
		if err != nil {
			return nil, err
		}
		if !exists {
			code = c
			break
		}
		if attempt >= 5 {
			return nil, errors.New("could not generate a unique voucher code")
		}
	}

	voucher := &model.Voucher{
		Code:            code,
		VoucherType:     "return",
		OriginalAmount:  amount.Round(2),
		RemainingAmount: amount.Round(2),
		OriginSaleID:    originSaleID,
		ClientID:        clientID,
		Status:          "active",
		IssuedAt:        now,
		ExpiresAt:       expiresAt,
	}
	if err := s.repo.Create(ctx, tx, voucher); err != nil {
		return nil, err
	}
	return voucher, nil
}

func (s *voucherService) Validate(ctx context.Context, code string) (*dto.VoucherResponse, error) {
	voucher, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, ErrVoucherNotFound
	}
	if voucher.Status != "active" {
		return nil, ErrVoucherNotFound
	}
	// Expiry wins even with balance remaining.
	if time.Now().After(voucher.ExpiresAt) {
		return nil, ErrVoucherExpired
	}
	return voucherToResponse(voucher), nil
}

func (s *voucherService) RedeemTx(tx *gorm.DB, code string, amount decimal.Decimal) (*model.Voucher, error) {
	voucher, err := s.repo.FindByCodeForUpdateTx(tx, code)
	if err != nil {
		return nil, ErrVoucherNotFound
	}
	if voucher.Status != "active" {
		return nil, ErrVoucherNotFound
	}
	if time.Now().After(voucher.ExpiresAt) {
		return nil, ErrVoucherExpired
	}
	if amount.GreaterThan(voucher.RemainingAmount) {
		return nil, ErrInsufficientBalance
	}

	voucher.RemainingAmount = voucher.RemainingAmount.Sub(amount).Round(2)
	if voucher.RemainingAmount.IsZero() {
		now := time.Now()
		voucher.Status = "redeemed"
		voucher.RedeemedAt = &now
	}
	if err := s.repo.SaveTx(tx, voucher); err != nil {
		return nil, err
	}
	return voucher, nil
}

func voucherToResponse(v *model.Voucher) *dto.VoucherResponse {
	return &dto.VoucherResponse{
		Code:            v.Code,
		VoucherType:     v.VoucherType,
		OriginalAmount:  v.OriginalAmount,
		RemainingAmount: v.RemainingAmount,
		Status:          v.Status,
		IssuedAt:        v.IssuedAt.Format(time.RFC3339),
		ExpiresAt:       v.ExpiresAt.Format(time.RFC3339),
	}
}
