package engine

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nandigama/InvestSimulate2/internal/models"
	"github.com/nandigama/InvestSimulate2/internal/oracle"
	"github.com/nandigama/InvestSimulate2/internal/store"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestEngine(t *testing.T) (*Engine, *store.Memory) {
	t.Helper()
	st := store.NewMemory()
	ora := oracle.NewStatic(map[string]decimal.Decimal{
		"AAPL": dec("50.00"),
		"TSLA": dec("250.00"),
	})
	return New(st, ora), st
}

func createAccount(t *testing.T, st store.Store, username, balance string) models.Account {
	t.Helper()
	account, err := st.CreateAccount(context.Background(), username, dec(balance))
	require.NoError(t, err)
	return account
}

func TestExecuteBuy(t *testing.T) {
	t.Parallel()

	eng, st := newTestEngine(t)
	trader := createAccount(t, st, "trader", "5000")
	ctx := context.Background()

	txn, err := eng.Execute(ctx, trader.ID, models.TradeRequest{
		Symbol: "AAPL", Shares: dec("10"), Side: models.SideBuy,
	})
	require.NoError(t, err)

	assert.NotZero(t, txn.ID)
	assert.Equal(t, trader.ID, txn.AccountID)
	assert.Equal(t, "AAPL", txn.Symbol)
	assert.Equal(t, models.SideBuy, txn.Side)
	assert.True(t, txn.Price.Equal(dec("50.00")))
	assert.True(t, txn.Total().Equal(dec("500")))

	updated, err := st.Account(ctx, trader.ID)
	require.NoError(t, err)
	assert.True(t, updated.CashBalance.Equal(dec("4500")), "balance = %s", updated.CashBalance)

	p, ok, err := st.Position(ctx, trader.ID, "AAPL")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, p.Shares.Equal(dec("10")))
	assert.True(t, p.AveragePrice.Equal(dec("50.00")))

	history, err := st.Transactions(ctx, trader.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, txn.ID, history[0].ID)
}

func TestExecuteBuyInsufficientFunds(t *testing.T) {
	t.Parallel()

	eng, st := newTestEngine(t)
	account := createAccount(t, st, "poor", "100")
	ctx := context.Background()

	_, err := eng.Execute(ctx, account.ID, models.TradeRequest{
		Symbol: "AAPL", Shares: dec("10"), Side: models.SideBuy,
	})
	assert.ErrorIs(t, err, models.ErrInsufficientFunds)

	// Nothing committed.
	updated, err := st.Account(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, updated.CashBalance.Equal(dec("100")))
	history, err := st.Transactions(ctx, account.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestExecuteSellLifecycle(t *testing.T) {
	t.Parallel()

	eng, st := newTestEngine(t)
	account := createAccount(t, st, "seller", "5000")
	ctx := context.Background()

	_, err := eng.Execute(ctx, account.ID, models.TradeRequest{
		Symbol: "AAPL", Shares: dec("10"), Side: models.SideBuy,
	})
	require.NoError(t, err)

	_, err = eng.Execute(ctx, account.ID, models.TradeRequest{
		Symbol: "AAPL", Shares: dec("10"), Side: models.SideSell,
	})
	require.NoError(t, err)

	// Round trip at a constant price restores the balance, and the
	// emptied position is gone.
	updated, err := st.Account(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, updated.CashBalance.Equal(dec("5000")), "balance = %s", updated.CashBalance)

	_, ok, err := st.Position(ctx, account.ID, "AAPL")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExecuteSellWithoutShares(t *testing.T) {
	t.Parallel()

	eng, st := newTestEngine(t)
	account := createAccount(t, st, "noshares", "5000")

	_, err := eng.Execute(context.Background(), account.ID, models.TradeRequest{
		Symbol: "AAPL", Shares: dec("1"), Side: models.SideSell,
	})
	assert.ErrorIs(t, err, models.ErrInsufficientShares)
}

func TestExecuteAccountNotFound(t *testing.T) {
	t.Parallel()

	eng, _ := newTestEngine(t)

	_, err := eng.Execute(context.Background(), 99999, models.TradeRequest{
		Symbol: "AAPL", Shares: dec("1"), Side: models.SideBuy,
	})
	assert.ErrorIs(t, err, models.ErrAccountNotFound)
}

func TestExecuteInvalidTrade(t *testing.T) {
	t.Parallel()

	eng, st := newTestEngine(t)
	account := createAccount(t, st, "validation", "5000")
	ctx := context.Background()

	tests := []struct {
		name string
		req  models.TradeRequest
	}{
		{"zero shares", models.TradeRequest{Symbol: "AAPL", Shares: dec("0"), Side: models.SideBuy}},
		{"negative shares", models.TradeRequest{Symbol: "AAPL", Shares: dec("-1"), Side: models.SideBuy}},
		{"empty symbol", models.TradeRequest{Symbol: "", Shares: dec("1"), Side: models.SideBuy}},
		{"oversized symbol", models.TradeRequest{Symbol: "ABCDEFGHIJK", Shares: dec("1"), Side: models.SideBuy}},
		{"bad side", models.TradeRequest{Symbol: "AAPL", Shares: dec("1"), Side: "hold"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eng.Execute(ctx, account.ID, tt.req)
			assert.ErrorIs(t, err, models.ErrInvalidTrade)
		})
	}
}

func TestExecuteUnknownSymbol(t *testing.T) {
	t.Parallel()

	eng, st := newTestEngine(t)
	account := createAccount(t, st, "nosymbol", "5000")

	_, err := eng.Execute(context.Background(), account.ID, models.TradeRequest{
		Symbol: "NOPE", Shares: dec("1"), Side: models.SideBuy,
	})
	assert.ErrorIs(t, err, oracle.ErrNoQuote)
}

func TestConcurrentTradesSameAccount(t *testing.T) {
	t.Parallel()

	eng, st := newTestEngine(t)
	account := createAccount(t, st, "concurrent", "5000")
	ctx := context.Background()

	const trades = 20
	var wg sync.WaitGroup
	errs := make([]error, trades)
	for i := 0; i < trades; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = eng.Execute(ctx, account.ID, models.TradeRequest{
				Symbol: "AAPL", Shares: dec("1"), Side: models.SideBuy,
			})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "trade %d", i)
	}

	updated, err := st.Account(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, updated.CashBalance.Equal(dec("4000")), "balance = %s", updated.CashBalance)

	p, ok, err := st.Position(ctx, account.ID, "AAPL")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, p.Shares.Equal(decimal.NewFromInt(trades)))
}

func TestPortfolioValue(t *testing.T) {
	t.Parallel()

	eng, st := newTestEngine(t)
	account := createAccount(t, st, "valued", "5000")
	ctx := context.Background()

	_, err := eng.Execute(ctx, account.ID, models.TradeRequest{
		Symbol: "AAPL", Shares: dec("10"), Side: models.SideBuy,
	})
	require.NoError(t, err)

	updated, err := st.Account(ctx, account.ID)
	require.NoError(t, err)

	value, err := eng.PortfolioValue(ctx, updated)
	require.NoError(t, err)
	// 4500 cash + 10 shares at the current $50 quote.
	assert.True(t, value.Equal(dec("5000")), "value = %s", value)
}
