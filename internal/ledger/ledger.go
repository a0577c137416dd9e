// Package ledger owns the balance and position arithmetic for every
// trade. Its methods run against a transactional store view supplied by
// the caller, so a buy or sell commits balance, position and record
// changes as one unit or not at all.
package ledger

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/nandigama/InvestSimulate2/internal/models"
	"github.com/nandigama/InvestSimulate2/internal/store"
)

var two = decimal.NewFromInt(2)

// Ledger applies conservation-of-value rules to account state. It is
// stateless; per-account serialization and the atomic scope belong to
// the caller (the transaction engine holds the account lock and opens
// store.WithinTx).
type Ledger struct{}

// New creates a Ledger.
func New() *Ledger {
	return &Ledger{}
}

// Debit removes amount from the account's cash balance. amount must be
// positive. Fails with models.ErrInsufficientFunds when the balance
// would go negative.
func (l *Ledger) Debit(ctx context.Context, tx store.Store, accountID int64, amount decimal.Decimal) (models.Account, error) {
	return tx.AdjustBalance(ctx, accountID, amount.Neg())
}

// Credit adds amount to the account's cash balance.
func (l *Ledger) Credit(ctx context.Context, tx store.Store, accountID int64, amount decimal.Decimal) (models.Account, error) {
	return tx.AdjustBalance(ctx, accountID, amount)
}

// ApplyBuy merges shares bought at price into the account's position
// and debits shares*price.
//
// The average price is updated as (oldAverage + price) / 2 rounded to
// cents, independent of share counts.
func (l *Ledger) ApplyBuy(ctx context.Context, tx store.Store, accountID int64, symbol string, shares, price decimal.Decimal) error {
	position, exists, err := tx.Position(ctx, accountID, symbol)
	if err != nil {
		return err
	}

	if exists {
		position.Shares = position.Shares.Add(shares)
		position.AveragePrice = position.AveragePrice.Add(price).Div(two).Round(2)
	} else {
		position = models.Position{
			AccountID:    accountID,
			Symbol:       symbol,
			Shares:       shares,
			AveragePrice: price,
		}
	}

	if _, err := tx.UpsertPosition(ctx, position); err != nil {
		return err
	}

	_, err = l.Debit(ctx, tx, accountID, shares.Mul(price))
	return err
}

// ApplySell removes shares sold at price from the account's position
// and credits shares*price. The position is deleted when its share
// count reaches exactly zero. Fails with models.ErrInsufficientShares
// when the account holds fewer shares than requested.
func (l *Ledger) ApplySell(ctx context.Context, tx store.Store, accountID int64, symbol string, shares, price decimal.Decimal) error {
	position, exists, err := tx.Position(ctx, accountID, symbol)
	if err != nil {
		return err
	}
	if !exists || position.Shares.LessThan(shares) {
		return models.ErrInsufficientShares
	}

	remaining := position.Shares.Sub(shares)
	if remaining.IsZero() {
		if err := tx.DeletePosition(ctx, accountID, symbol); err != nil {
			return err
		}
	} else {
		position.Shares = remaining
		if _, err := tx.UpsertPosition(ctx, position); err != nil {
			return err
		}
	}

	_, err = l.Credit(ctx, tx, accountID, shares.Mul(price))
	return err
}
