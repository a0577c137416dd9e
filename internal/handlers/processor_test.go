package handlers

import (
	"context"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nandigama/InvestSimulate2/internal/copytrade"
	"github.com/nandigama/InvestSimulate2/internal/engine"
	"github.com/nandigama/InvestSimulate2/internal/models"
	"github.com/nandigama/InvestSimulate2/internal/oracle"
	"github.com/nandigama/InvestSimulate2/internal/store"
)

func newTestProcessor(t *testing.T, workers int) (*TradeProcessor, *store.Memory) {
	t.Helper()

	st := store.NewMemory()
	ora := oracle.NewStatic(map[string]decimal.Decimal{"AAPL": dec("50.00")})
	eng := engine.New(st, ora)
	logger := log.New(io.Discard, "", 0)
	controller := copytrade.NewController(st, eng, logger, 4, 2*time.Second)

	tp := NewTradeProcessor(workers, st, eng, controller, logger)
	tp.Start()
	t.Cleanup(tp.Stop)
	return tp, st
}

func TestProcessorExecutesSubmittedTrade(t *testing.T) {
	tp, st := newTestProcessor(t, 2)
	ctx := context.Background()

	account, err := st.CreateAccount(ctx, "alice", dec("5000"))
	require.NoError(t, err)

	result := tp.SubmitTrade(ctx, account.ID, models.TradeRequest{
		Symbol: "AAPL", Shares: dec("10"), Side: models.SideBuy,
	})
	require.NoError(t, result.Err)
	assert.True(t, result.Transaction.Price.Equal(dec("50.00")))

	account, err = st.Account(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, account.CashBalance.Equal(dec("4500")))
}

func TestProcessorReturnsTradeError(t *testing.T) {
	tp, st := newTestProcessor(t, 1)
	ctx := context.Background()

	account, err := st.CreateAccount(ctx, "alice", dec("10"))
	require.NoError(t, err)

	result := tp.SubmitTrade(ctx, account.ID, models.TradeRequest{
		Symbol: "AAPL", Shares: dec("1"), Side: models.SideBuy,
	})
	assert.ErrorIs(t, result.Err, models.ErrInsufficientFunds)
}

func TestProcessorHandlesConcurrentSubmissions(t *testing.T) {
	tp, st := newTestProcessor(t, 4)
	ctx := context.Background()

	account, err := st.CreateAccount(ctx, "alice", dec("5000"))
	require.NoError(t, err)

	const trades = 20
	var wg sync.WaitGroup
	errs := make(chan error, trades)
	for i := 0; i < trades; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result := tp.SubmitTrade(ctx, account.ID, models.TradeRequest{
				Symbol: "AAPL", Shares: dec("1"), Side: models.SideBuy,
			})
			errs <- result.Err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	// 20 one-share buys at $50 leave exactly 4000 behind.
	account, err = st.Account(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, account.CashBalance.Equal(dec("4000")), "balance = %s", account.CashBalance)

	p, ok, err := st.Position(ctx, account.ID, "AAPL")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, p.Shares.Equal(dec("20")))
}
