package service

import (
	"context"
	"testing"

	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/config"
	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/dto"
	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sellTwoShirts runs a 2-unit sale through the full sale path and returns its
// response; every return test starts from this ticket (total 121.00, one line
// with LineTotal 121.00).
func sellTwoShirts(t *testing.T, env *posEnv) *dto.SaleResponse {
	t.Helper()
	resp, err := env.sales.CreateSale(context.Background(), env.userID,
		env.basicSaleRequest(dto.SalePaymentRequest{Method: "cash", Amount: d("121")}))
	require.NoError(t, err)
	return resp
}

func TestCreateReturn_PartialWithVoucher(t *testing.T) {
	env := newPosEnv(t, false)
	sale := sellTwoShirts(t, env)

	resp, err := env.returns.CreateReturn(context.Background(), env.userID, dto.CreateReturnRequest{
		OriginalSaleID: sale.ID,
		ReturnType:     "voucher",
		Lines:          []dto.ReturnLineRequest{{LineID: sale.Lines[0].ID, Quantity: 1}},
		Reason:         "wrong size",
	})
	require.NoError(t, err)

	// Proportional refund: 121.00 × 1/2 = 60.50, tax included.
	assert.True(t, resp.TotalReturned.Equal(d("60.50")), "refund = %s", resp.TotalReturned)
	assert.Equal(t, "partially_returned", resp.SaleStatus)
	require.NotNil(t, resp.VoucherCode)

	// The issued voucher is immediately spendable for the refund amount.
	voucher, err := env.vouchers.Validate(context.Background(), *resp.VoucherCode)
	require.NoError(t, err)
	assert.True(t, voucher.RemainingAmount.Equal(d("60.50")))

	// Merchandise back on the shelf: 8 + 1 = 9.
	level := env.stockRepo.levels[stockKey(env.variantID, env.warehouseID)]
	assert.Equal(t, 9, level.Quantity)

	// Line counter advanced on the stored sale.
	stored := env.saleRepo.sales[uuid.MustParse(sale.ID)]
	assert.Equal(t, 1, stored.Lines[0].QuantityReturned)
	assert.Equal(t, "partially_returned", stored.Status)
}

func TestCreateReturn_FullReturn(t *testing.T) {
	env := newPosEnv(t, false)
	sale := sellTwoShirts(t, env)

	resp, err := env.returns.CreateReturn(context.Background(), env.userID, dto.CreateReturnRequest{
		OriginalSaleID: sale.ID,
		ReturnType:     "voucher",
		Lines:          []dto.ReturnLineRequest{{LineID: sale.Lines[0].ID, Quantity: 2}},
		Reason:         "changed mind",
	})
	require.NoError(t, err)

	assert.True(t, resp.TotalReturned.Equal(d("121")))
	assert.Equal(t, "fully_returned", resp.SaleStatus)

	level := env.stockRepo.levels[stockKey(env.variantID, env.warehouseID)]
	assert.Equal(t, 10, level.Quantity)
}

func TestCreateReturn_OverReturnRejected(t *testing.T) {
	env := newPosEnv(t, false)
	sale := sellTwoShirts(t, env)

	_, err := env.returns.CreateReturn(context.Background(), env.userID, dto.CreateReturnRequest{
		OriginalSaleID: sale.ID,
		ReturnType:     "voucher",
		Lines:          []dto.ReturnLineRequest{{LineID: sale.Lines[0].ID, Quantity: 1}},
		Reason:         "wrong size",
	})
	require.NoError(t, err)

	// Only one unit remains returnable.
	_, err = env.returns.CreateReturn(context.Background(), env.userID, dto.CreateReturnRequest{
		OriginalSaleID: sale.ID,
		ReturnType:     "voucher",
		Lines:          []dto.ReturnLineRequest{{LineID: sale.Lines[0].ID, Quantity: 2}},
		Reason:         "wrong size again",
	})
	assert.ErrorIs(t, err, ErrOverReturn)
}

func TestCreateReturn_DuplicateLineInOneRequest(t *testing.T) {
	env := newPosEnv(t, false)
	sale := sellTwoShirts(t, env)

	// Naming the same line twice must not return more than it holds.
	_, err := env.returns.CreateReturn(context.Background(), env.userID, dto.CreateReturnRequest{
		OriginalSaleID: sale.ID,
		ReturnType:     "voucher",
		Lines: []dto.ReturnLineRequest{
			{LineID: sale.Lines[0].ID, Quantity: 2},
			{LineID: sale.Lines[0].ID, Quantity: 1},
		},
		Reason: "wrong size",
	})
	assert.ErrorIs(t, err, ErrOverReturn)
	assert.Empty(t, env.returnRepo.records)
}

// staleSaleRepo serves FindByID from a snapshot taken at construction time,
// the way a second register still sees the sale before a concurrent return
// commits.
type staleSaleRepo struct {
	*stubSaleRepo
	snapshot *model.Sale
}

func (r *staleSaleRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	if id == r.snapshot.ID {
		return cloneSale(r.snapshot), nil
	}
	return r.stubSaleRepo.FindByID(ctx, id)
}

func TestCreateReturn_ConcurrentReturnsCannotDoubleRefund(t *testing.T) {
	env := newPosEnv(t, false)
	sale := sellTwoShirts(t, env)

	// Both requests read the same pre-return state of the sale, as two
	// registers racing on one ticket would.
	snapshot, err := env.saleRepo.FindByID(context.Background(), uuid.MustParse(sale.ID))
	require.NoError(t, err)
	stale := &staleSaleRepo{stubSaleRepo: env.saleRepo, snapshot: snapshot}
	cfg := &config.Config{DefaultTaxRatePct: 21, VoucherExpiryDays: 90}
	returns := NewReturnService(env.returnRepo, stale, NewStockLedger(env.stockRepo, false), env.storeRepo, env.vouchers, cfg)

	fullReturn := dto.CreateReturnRequest{
		OriginalSaleID: sale.ID,
		ReturnType:     "voucher",
		Lines:          []dto.ReturnLineRequest{{LineID: sale.Lines[0].ID, Quantity: 2}},
		Reason:         "changed mind",
	}
	_, err = returns.CreateReturn(context.Background(), env.userID, fullReturn)
	require.NoError(t, err)

	// The stale pre-read no longer decides anything: the loser revalidates
	// against the line counters re-read under lock and is rejected.
	_, err = returns.CreateReturn(context.Background(), env.userID, fullReturn)
	assert.ErrorIs(t, err, ErrOverReturn)

	// One refund, one voucher, merchandise restored exactly once.
	require.Len(t, env.returnRepo.records, 1)
	assert.Len(t, env.voucherRepo.vouchers, 1)
	level := env.stockRepo.levels[stockKey(env.variantID, env.warehouseID)]
	assert.Equal(t, 10, level.Quantity)
	stored := env.saleRepo.sales[uuid.MustParse(sale.ID)]
	assert.Equal(t, 2, stored.Lines[0].QuantityReturned)
}

func TestCreateReturn_ExchangeIssuesNoVoucher(t *testing.T) {
	env := newPosEnv(t, false)
	sale := sellTwoShirts(t, env)

	resp, err := env.returns.CreateReturn(context.Background(), env.userID, dto.CreateReturnRequest{
		OriginalSaleID: sale.ID,
		ReturnType:     "exchange",
		Lines:          []dto.ReturnLineRequest{{LineID: sale.Lines[0].ID, Quantity: 1}},
		Reason:         "swap for size 42",
	})
	require.NoError(t, err)

	assert.Nil(t, resp.VoucherCode)
	assert.Empty(t, env.voucherRepo.vouchers)
	require.Len(t, env.returnRepo.records, 1)
	assert.Nil(t, env.returnRepo.records[0].VoucherID)
}

func TestCreateReturn_UnknownLine(t *testing.T) {
	env := newPosEnv(t, false)
	sale := sellTwoShirts(t, env)

	_, err := env.returns.CreateReturn(context.Background(), env.userID, dto.CreateReturnRequest{
		OriginalSaleID: sale.ID,
		ReturnType:     "voucher",
		Lines:          []dto.ReturnLineRequest{{LineID: uuid.New().String(), Quantity: 1}},
		Reason:         "bad line",
	})
	assert.ErrorIs(t, err, ErrLineNotFound)
}

func TestCreateReturn_SessionAggregatesUntouched(t *testing.T) {
	env := newPosEnv(t, false)
	sale := sellTwoShirts(t, env)
	before := env.sessionRepo.sessions[env.sessionID].TotalSales

	_, err := env.returns.CreateReturn(context.Background(), env.userID, dto.CreateReturnRequest{
		OriginalSaleID: sale.ID,
		ReturnType:     "voucher",
		Lines:          []dto.ReturnLineRequest{{LineID: sale.Lines[0].ID, Quantity: 1}},
		Reason:         "wrong size",
	})
	require.NoError(t, err)

	// Refund money leaves through the voucher, not the drawer.
	session := env.sessionRepo.sessions[env.sessionID]
	assert.True(t, session.TotalSales.Equal(before))
	assert.True(t, session.TotalReturns.IsZero())
}

func TestListReturnsBySale(t *testing.T) {
	env := newPosEnv(t, false)
	sale := sellTwoShirts(t, env)

	_, err := env.returns.CreateReturn(context.Background(), env.userID, dto.CreateReturnRequest{
		OriginalSaleID: sale.ID,
		ReturnType:     "voucher",
		Lines:          []dto.ReturnLineRequest{{LineID: sale.Lines[0].ID, Quantity: 1}},
		Reason:         "wrong size",
	})
	require.NoError(t, err)

	records, err := env.returns.ListBySale(context.Background(), uuid.MustParse(sale.ID))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "voucher", records[0].ReturnType)
	assert.True(t, records[0].TotalReturned.Equal(d("60.50")))
	assert.NotNil(t, records[0].VoucherID)
}
