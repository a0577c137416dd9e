// Package store holds the persistence abstraction behind the ledger and
// the social/copy-trading records. Two backends implement it: an
// in-memory store with snapshot-rollback transactions, and a Postgres
// store where WithinTx maps onto a database transaction.
package store

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/nandigama/InvestSimulate2/internal/models"
)

// Store is the full persistence surface. WithinTx runs fn against a
// view of the store on which every operation either commits as one
// atomic unit or leaves no trace; the ledger relies on this for its
// all-or-nothing trade semantics.
type Store interface {
	WithinTx(ctx context.Context, fn func(tx Store) error) error

	// Accounts.
	CreateAccount(ctx context.Context, username string, balance decimal.Decimal) (models.Account, error)
	Account(ctx context.Context, id int64) (models.Account, error)
	AccountByUsername(ctx context.Context, username string) (models.Account, error)
	Accounts(ctx context.Context) ([]models.Account, error)
	Traders(ctx context.Context) ([]models.Account, error)
	UpdateTraderProfile(ctx context.Context, id int64, isTrader bool, fee decimal.Decimal, bio string) (models.Account, error)
	// AdjustBalance applies a signed delta and fails with
	// models.ErrInsufficientFunds if the result would go negative.
	AdjustBalance(ctx context.Context, id int64, delta decimal.Decimal) (models.Account, error)

	// Positions.
	Position(ctx context.Context, accountID int64, symbol string) (models.Position, bool, error)
	Positions(ctx context.Context, accountID int64) ([]models.Position, error)
	UpsertPosition(ctx context.Context, p models.Position) (models.Position, error)
	DeletePosition(ctx context.Context, accountID int64, symbol string) error

	// Append-only trade log.
	AppendTransaction(ctx context.Context, t models.Transaction) (models.Transaction, error)
	Transactions(ctx context.Context, accountID int64) ([]models.Transaction, error)

	// Copied-trade outcomes. Append assigns the id; only the status may
	// change afterwards (pending → executed/failed).
	AppendCopiedTrade(ctx context.Context, ct models.CopiedTrade) (models.CopiedTrade, error)
	UpdateCopiedTradeStatus(ctx context.Context, id int64, status models.CopyStatus) error
	CopiedTrades(ctx context.Context, followerAccountID int64) ([]models.CopiedTrade, error)

	// Social graph.
	Follow(ctx context.Context, followerID, followedID int64) (models.FollowEdge, error)
	Unfollow(ctx context.Context, followerID, followedID int64) error
	Followers(ctx context.Context, accountID int64) ([]models.FollowEdge, error)

	// Copy-trading settings.
	CreateCopySetting(ctx context.Context, s models.CopySetting) (models.CopySetting, error)
	UpdateCopySetting(ctx context.Context, s models.CopySetting) (models.CopySetting, error)
	CopySettings(ctx context.Context, accountID int64) ([]models.CopySetting, error)

	// Subscriptions.
	CreateSubscription(ctx context.Context, subscriberID, traderID int64, fee decimal.Decimal) (models.Subscription, error)
	CancelSubscription(ctx context.Context, id int64) error
	ActiveSubscriptions(ctx context.Context, subscriberID int64) ([]models.Subscription, error)
}
