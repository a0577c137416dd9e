package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nandigama/InvestSimulate2/internal/db"
	"github.com/nandigama/InvestSimulate2/internal/models"
)

// uniqueName keeps usernames unique across test runs against a shared
// database.
func uniqueName(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
}

// These tests run against a real Postgres and are skipped when none is
// reachable. They cover the behaviors the memory store cannot stand in
// for: SQL transactions, constraint enforcement, and upsert semantics.

func setupPostgres(t *testing.T) *Postgres {
	t.Helper()
	database := db.SetupTestDB(t)
	t.Cleanup(func() {
		db.CleanupTestDB(t, database)
		database.Close()
	})
	return NewPostgres(database)
}

func TestPostgresAccountRoundTrip(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	a, err := s.CreateAccount(ctx, uniqueName("pg_alice"), dec("5000.00"))
	require.NoError(t, err)
	require.NotZero(t, a.ID)

	got, err := s.Account(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.Username, got.Username)
	assert.True(t, got.CashBalance.Equal(dec("5000.00")))

	_, err = s.CreateAccount(ctx, a.Username, dec("5000.00"))
	assert.ErrorIs(t, err, models.ErrUsernameTaken)

	_, err = s.Account(ctx, -1)
	assert.ErrorIs(t, err, models.ErrAccountNotFound)
}

func TestPostgresAdjustBalanceGuards(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	a, err := s.CreateAccount(ctx, uniqueName("pg_bal"), dec("100.00"))
	require.NoError(t, err)

	_, err = s.AdjustBalance(ctx, a.ID, dec("-100.01"))
	assert.ErrorIs(t, err, models.ErrInsufficientFunds)

	got, err := s.AdjustBalance(ctx, a.ID, dec("-40.50"))
	require.NoError(t, err)
	assert.True(t, got.CashBalance.Equal(dec("59.50")))

	_, err = s.AdjustBalance(ctx, -1, dec("1"))
	assert.ErrorIs(t, err, models.ErrAccountNotFound)
}

func TestPostgresWithinTxRollsBack(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	a, err := s.CreateAccount(ctx, uniqueName("pg_tx"), dec("5000.00"))
	require.NoError(t, err)

	boom := errors.New("boom")
	err = s.WithinTx(ctx, func(tx Store) error {
		if _, err := tx.AdjustBalance(ctx, a.ID, dec("-500")); err != nil {
			return err
		}
		if _, err := tx.UpsertPosition(ctx, models.Position{
			AccountID: a.ID, Symbol: "AAPL", Shares: dec("10"), AveragePrice: dec("50"),
		}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.Account(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, got.CashBalance.Equal(dec("5000.00")))
	_, ok, err := s.Position(ctx, a.ID, "AAPL")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPostgresPositionUpsertAndDelete(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	a, err := s.CreateAccount(ctx, uniqueName("pg_pos"), dec("5000.00"))
	require.NoError(t, err)

	p1, err := s.UpsertPosition(ctx, models.Position{
		AccountID: a.ID, Symbol: "TSLA", Shares: dec("2"), AveragePrice: dec("250.00"),
	})
	require.NoError(t, err)

	p2, err := s.UpsertPosition(ctx, models.Position{
		AccountID: a.ID, Symbol: "TSLA", Shares: dec("3.500000"), AveragePrice: dec("245.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, p1.ID, p2.ID, "upsert keeps the row identity")
	assert.True(t, p2.Shares.Equal(dec("3.5")))

	positions, err := s.Positions(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, positions, 1)

	require.NoError(t, s.DeletePosition(ctx, a.ID, "TSLA"))
	_, ok, err := s.Position(ctx, a.ID, "TSLA")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPostgresCopiedTradeStatus(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	trader, err := s.CreateAccount(ctx, uniqueName("pg_trader"), dec("5000.00"))
	require.NoError(t, err)
	follower, err := s.CreateAccount(ctx, uniqueName("pg_follower"), dec("5000.00"))
	require.NoError(t, err)

	txn, err := s.AppendTransaction(ctx, models.Transaction{
		AccountID: trader.ID, Symbol: "AAPL", Shares: dec("10"), Price: dec("50"), Side: models.SideBuy,
	})
	require.NoError(t, err)

	ct, err := s.AppendCopiedTrade(ctx, models.CopiedTrade{
		OriginalTransactionID: txn.ID,
		FollowerAccountID:     follower.ID,
		Status:                models.CopyPending,
		CopiedShares:          dec("2"),
		CopiedPrice:           dec("50"),
	})
	require.NoError(t, err)

	require.NoError(t, s.UpdateCopiedTradeStatus(ctx, ct.ID, models.CopyExecuted))

	copied, err := s.CopiedTrades(ctx, follower.ID)
	require.NoError(t, err)
	require.Len(t, copied, 1)
	assert.Equal(t, models.CopyExecuted, copied[0].Status)
}

func TestPostgresFollowAndSettings(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	trader, err := s.CreateAccount(ctx, uniqueName("pg_t2"), dec("5000.00"))
	require.NoError(t, err)
	trader, err = s.UpdateTraderProfile(ctx, trader.ID, true, dec("9.99"), "value picks")
	require.NoError(t, err)
	assert.True(t, trader.IsTrader)

	follower, err := s.CreateAccount(ctx, uniqueName("pg_f2"), dec("5000.00"))
	require.NoError(t, err)

	_, err = s.Follow(ctx, follower.ID, trader.ID)
	require.NoError(t, err)
	_, err = s.Follow(ctx, follower.ID, trader.ID) // idempotent
	require.NoError(t, err)

	edges, err := s.Followers(ctx, trader.ID)
	require.NoError(t, err)
	require.Len(t, edges, 1)

	setting, err := s.CreateCopySetting(ctx, models.CopySetting{
		FollowerAccountID:   follower.ID,
		FollowedTraderID:    trader.ID,
		Enabled:             true,
		CopyAmountCash:      dec("100"),
		MaxPositionSizeCash: dec("1000"),
		RiskLevel:           "medium",
	})
	require.NoError(t, err)

	setting.Enabled = false
	updated, err := s.UpdateCopySetting(ctx, setting)
	require.NoError(t, err)
	assert.False(t, updated.Enabled)

	settings, err := s.CopySettings(ctx, follower.ID)
	require.NoError(t, err)
	require.Len(t, settings, 1)

	require.NoError(t, s.Unfollow(ctx, follower.ID, trader.ID))
	edges, err = s.Followers(ctx, trader.ID)
	require.NoError(t, err)
	assert.Empty(t, edges)
}

func TestPostgresSubscriptions(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	trader, err := s.CreateAccount(ctx, uniqueName("pg_t3"), dec("5000.00"))
	require.NoError(t, err)
	sub1, err := s.CreateAccount(ctx, uniqueName("pg_s3"), dec("5000.00"))
	require.NoError(t, err)

	sub, err := s.CreateSubscription(ctx, sub1.ID, trader.ID, dec("19.99"))
	require.NoError(t, err)
	assert.True(t, sub.Active)

	active, err := s.ActiveSubscriptions(ctx, sub1.ID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.True(t, active[0].Fee.Equal(dec("19.99")))

	require.NoError(t, s.CancelSubscription(ctx, sub.ID))
	assert.ErrorIs(t, s.CancelSubscription(ctx, sub.ID), models.ErrSubscriptionGone)

	active, err = s.ActiveSubscriptions(ctx, sub1.ID)
	require.NoError(t, err)
	assert.Empty(t, active)
}
