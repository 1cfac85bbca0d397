package service

import (
	"context"
	"testing"

	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/dto"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionOpen(t *testing.T) {
	repo := newStubSessionRepo()
	svc := NewCashSessionService(repo)
	storeID := uuid.New()
	userID := uuid.New()

	resp, err := svc.Open(context.Background(), userID, dto.OpenSessionRequest{
		StoreID:       storeID.String(),
		OpeningAmount: d("150"),
	})
	require.NoError(t, err)
	assert.Equal(t, "open", resp.Status)
	assert.Equal(t, storeID.String(), resp.StoreID)
	assert.True(t, resp.OpeningAmount.Equal(d("150")))
}

func TestSessionOpen_DuplicatePerStore(t *testing.T) {
	repo := newStubSessionRepo()
	svc := NewCashSessionService(repo)
	storeID := uuid.New()

	_, err := svc.Open(context.Background(), uuid.New(), dto.OpenSessionRequest{StoreID: storeID.String(), OpeningAmount: d("100")})
	require.NoError(t, err)

	_, err = svc.Open(context.Background(), uuid.New(), dto.OpenSessionRequest{StoreID: storeID.String(), OpeningAmount: d("100")})
	assert.ErrorIs(t, err, ErrSessionAlreadyOpen)

	// A different store is unaffected.
	_, err = svc.Open(context.Background(), uuid.New(), dto.OpenSessionRequest{StoreID: uuid.New().String(), OpeningAmount: d("100")})
	assert.NoError(t, err)
}

func TestSessionClose_ExpectedCashMath(t *testing.T) {
	repo := newStubSessionRepo()
	svc := NewCashSessionService(repo)
	userID := uuid.New()

	opened, err := svc.Open(context.Background(), userID, dto.OpenSessionRequest{
		StoreID:       uuid.New().String(),
		OpeningAmount: d("150"),
	})
	require.NoError(t, err)
	sessionID := uuid.MustParse(opened.ID)

	// Simulate the day's traffic directly on the aggregates.
	session := repo.sessions[sessionID]
	session.TotalCashSales = d("480.50")
	session.TotalWithdrawals = d("100")

	closed, err := svc.Close(context.Background(), userID, sessionID, dto.CloseSessionRequest{
		CountedCash: d("525"),
	})
	require.NoError(t, err)

	// expected = 150 + 480.50 − 0 − 100 = 530.50; counted 525 → short 5.50
	require.NotNil(t, closed.ExpectedCash)
	require.NotNil(t, closed.CashDifference)
	assert.True(t, closed.ExpectedCash.Equal(d("530.50")), "expected = %s", closed.ExpectedCash)
	assert.True(t, closed.CashDifference.Equal(d("-5.50")), "difference = %s", closed.CashDifference)
	assert.Equal(t, "closed", closed.Status)
	require.NotNil(t, closed.ClosedAt)
}

func TestSessionClose_CountsSalesLandedDuringClose(t *testing.T) {
	repo := newStubSessionRepo()
	svc := NewCashSessionService(repo)
	userID := uuid.New()

	opened, err := svc.Open(context.Background(), userID, dto.OpenSessionRequest{
		StoreID:       uuid.New().String(),
		OpeningAmount: d("150"),
	})
	require.NoError(t, err)
	sessionID := uuid.MustParse(opened.ID)

	// A ticket commits after the cashier has started counting the drawer.
	// Closing figures derive from the row at close time, so it still counts.
	require.NoError(t, repo.ApplySaleTx(nil, sessionID, d("121"), map[string]decimal.Decimal{"cash": d("121")}))

	closed, err := svc.Close(context.Background(), userID, sessionID, dto.CloseSessionRequest{
		CountedCash: d("271"),
	})
	require.NoError(t, err)
	require.NotNil(t, closed.ExpectedCash)
	require.NotNil(t, closed.CashDifference)
	assert.True(t, closed.ExpectedCash.Equal(d("271")), "expected = %s", closed.ExpectedCash)
	assert.True(t, closed.CashDifference.IsZero(), "difference = %s", closed.CashDifference)
}

func TestSessionClose_AlreadyClosed(t *testing.T) {
	repo := newStubSessionRepo()
	svc := NewCashSessionService(repo)
	userID := uuid.New()

	opened, err := svc.Open(context.Background(), userID, dto.OpenSessionRequest{
		StoreID:       uuid.New().String(),
		OpeningAmount: d("100"),
	})
	require.NoError(t, err)
	sessionID := uuid.MustParse(opened.ID)

	_, err = svc.Close(context.Background(), userID, sessionID, dto.CloseSessionRequest{CountedCash: d("100")})
	require.NoError(t, err)

	_, err = svc.Close(context.Background(), userID, sessionID, dto.CloseSessionRequest{CountedCash: d("100")})
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestSessionWithdrawal(t *testing.T) {
	repo := newStubSessionRepo()
	svc := NewCashSessionService(repo)
	userID := uuid.New()

	opened, err := svc.Open(context.Background(), userID, dto.OpenSessionRequest{
		StoreID:       uuid.New().String(),
		OpeningAmount: d("200"),
	})
	require.NoError(t, err)
	sessionID := uuid.MustParse(opened.ID)

	resp, err := svc.RecordWithdrawal(context.Background(), userID, sessionID, dto.WithdrawalRequest{
		Amount: d("50"),
		Reason: "bank deposit",
	})
	require.NoError(t, err)
	assert.True(t, resp.Amount.Equal(d("50")))

	// Aggregate bumped and a negative cash movement journaled.
	assert.True(t, repo.sessions[sessionID].TotalWithdrawals.Equal(d("50")))
	require.Len(t, repo.movements, 1)
	assert.Equal(t, "withdrawal", repo.movements[0].Kind)
	assert.True(t, repo.movements[0].Amount.Equal(d("-50")))
	require.Len(t, repo.withdrawals, 1)
	assert.Equal(t, userID, repo.withdrawals[0].WithdrawnBy)
}

func TestSessionWithdrawal_ClosedSession(t *testing.T) {
	repo := newStubSessionRepo()
	svc := NewCashSessionService(repo)
	userID := uuid.New()

	opened, err := svc.Open(context.Background(), userID, dto.OpenSessionRequest{
		StoreID:       uuid.New().String(),
		OpeningAmount: d("100"),
	})
	require.NoError(t, err)
	sessionID := uuid.MustParse(opened.ID)

	_, err = svc.Close(context.Background(), userID, sessionID, dto.CloseSessionRequest{CountedCash: d("100")})
	require.NoError(t, err)

	_, err = svc.RecordWithdrawal(context.Background(), userID, sessionID, dto.WithdrawalRequest{Amount: d("10"), Reason: "change run"})
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestSessionGetActiveAndReport(t *testing.T) {
	repo := newStubSessionRepo()
	svc := NewCashSessionService(repo)
	storeID := uuid.New()
	userID := uuid.New()

	_, err := svc.GetActive(context.Background(), storeID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	opened, err := svc.Open(context.Background(), userID, dto.OpenSessionRequest{
		StoreID:       storeID.String(),
		OpeningAmount: d("80"),
	})
	require.NoError(t, err)

	active, err := svc.GetActive(context.Background(), storeID)
	require.NoError(t, err)
	assert.Equal(t, opened.ID, active.ID)

	sessionID := uuid.MustParse(opened.ID)
	_, err = svc.RecordWithdrawal(context.Background(), userID, sessionID, dto.WithdrawalRequest{Amount: d("20"), Reason: "petty cash"})
	require.NoError(t, err)

	report, err := svc.Report(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Equal(t, opened.ID, report.Session.ID)
	require.Len(t, report.Movements, 1)
	assert.Equal(t, "withdrawal", report.Movements[0].Kind)
}
