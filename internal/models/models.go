package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of a trade.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// CopyStatus is the lifecycle state of a copied trade.
type CopyStatus string

const (
	CopyPending  CopyStatus = "pending"
	CopyExecuted CopyStatus = "executed"
	CopyFailed   CopyStatus = "failed"
)

// StartingBalance is the virtual cash every new account receives.
var StartingBalance = decimal.RequireFromString("5000.00")

// Account holds a user's virtual cash and trader profile.
type Account struct {
	ID              int64           `json:"id"`
	Username        string          `json:"username"`
	CashBalance     decimal.Decimal `json:"cash_balance"`
	IsTrader        bool            `json:"is_trader"`
	SubscriptionFee decimal.Decimal `json:"subscription_fee"`
	Bio             string          `json:"bio"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Position is one (account, symbol) holding. Shares stay strictly
// positive while the record exists; the ledger deletes it at zero.
type Position struct {
	ID           int64           `json:"id"`
	AccountID    int64           `json:"account_id"`
	Symbol       string          `json:"symbol"`
	Shares       decimal.Decimal `json:"shares"`
	AveragePrice decimal.Decimal `json:"average_price"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Transaction is an immutable record of one executed trade.
type Transaction struct {
	ID        int64           `json:"id"`
	AccountID int64           `json:"account_id"`
	Symbol    string          `json:"symbol"`
	Shares    decimal.Decimal `json:"shares"`
	Price     decimal.Decimal `json:"price"`
	Side      Side            `json:"side"`
	Timestamp time.Time       `json:"timestamp"`
}

// Total is the cash value of the transaction (shares * price).
func (t Transaction) Total() decimal.Decimal {
	return t.Shares.Mul(t.Price)
}

// CopySetting is a follower's configuration for copying one trader.
type CopySetting struct {
	ID                  int64           `json:"id"`
	FollowerAccountID   int64           `json:"follower_account_id"`
	FollowedTraderID    int64           `json:"followed_trader_id"`
	Enabled             bool            `json:"enabled"`
	CopyAmountCash      decimal.Decimal `json:"copy_amount_cash"`
	MaxPositionSizeCash decimal.Decimal `json:"max_position_size_cash"`
	RiskLevel           string          `json:"risk_level"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// CopiedTrade is the per-follower outcome record of one fanout attempt.
type CopiedTrade struct {
	ID                    int64           `json:"id"`
	OriginalTransactionID int64           `json:"original_transaction_id"`
	FollowerAccountID     int64           `json:"follower_account_id"`
	Status                CopyStatus      `json:"status"`
	CopiedShares          decimal.Decimal `json:"copied_shares"`
	CopiedPrice           decimal.Decimal `json:"copied_price"`
	CreatedAt             time.Time       `json:"created_at"`
}

// FollowEdge is a social-graph edge, independent of any copy setting.
type FollowEdge struct {
	FollowerAccountID int64     `json:"follower_account_id"`
	FollowedAccountID int64     `json:"followed_account_id"`
	CreatedAt         time.Time `json:"created_at"`
}

// Subscription records a paid follow of a trader at the fee in effect
// when it was created. Billing is out of scope; only the fee is kept.
type Subscription struct {
	ID           int64           `json:"id"`
	SubscriberID int64           `json:"subscriber_id"`
	TraderID     int64           `json:"trader_id"`
	Fee          decimal.Decimal `json:"fee"`
	Active       bool            `json:"active"`
	CreatedAt    time.Time       `json:"created_at"`
	CancelledAt  *time.Time      `json:"cancelled_at,omitempty"`
}

// TradeRequest is one trade to execute against an account.
type TradeRequest struct {
	Symbol string          `json:"symbol" binding:"required"`
	Shares decimal.Decimal `json:"shares" binding:"required"`
	Side   Side            `json:"side" binding:"required,oneof=buy sell"`
}
