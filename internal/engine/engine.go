// Package engine orchestrates one trade end-to-end: account lookup,
// oracle quote, ledger mutation and the immutable transaction record,
// all inside a single atomic scope serialized per account.
package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/nandigama/InvestSimulate2/internal/ledger"
	"github.com/nandigama/InvestSimulate2/internal/models"
	"github.com/nandigama/InvestSimulate2/internal/oracle"
	"github.com/nandigama/InvestSimulate2/internal/store"
)

const maxSymbolLen = 10

// Engine executes trades. Safe for concurrent use; trades against the
// same account take turns, trades against different accounts run in
// parallel.
type Engine struct {
	store  store.Store
	ledger *ledger.Ledger
	oracle oracle.Oracle
	locker *models.AccountLocker
}

// New creates an Engine on top of the given store and price oracle.
func New(st store.Store, ora oracle.Oracle) *Engine {
	return &Engine{
		store:  st,
		ledger: ledger.New(),
		oracle: ora,
		locker: models.NewAccountLocker(),
	}
}

func validateTrade(req models.TradeRequest) error {
	symbol := strings.TrimSpace(req.Symbol)
	if symbol == "" || len(symbol) > maxSymbolLen {
		return fmt.Errorf("%w: bad symbol %q", models.ErrInvalidTrade, req.Symbol)
	}
	if !req.Shares.IsPositive() {
		return fmt.Errorf("%w: shares must be positive", models.ErrInvalidTrade)
	}
	if req.Side != models.SideBuy && req.Side != models.SideSell {
		return fmt.Errorf("%w: unknown side %q", models.ErrInvalidTrade, req.Side)
	}
	return nil
}

// Execute runs a single trade for the account and returns the committed
// transaction. A failed trade leaves no state change behind and is
// final; there are no retries.
func (e *Engine) Execute(ctx context.Context, accountID int64, req models.TradeRequest) (models.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return models.Transaction{}, err
	}
	if err := validateTrade(req); err != nil {
		return models.Transaction{}, err
	}

	e.locker.Lock(accountID)
	defer e.locker.Unlock(accountID)

	if _, err := e.store.Account(ctx, accountID); err != nil {
		return models.Transaction{}, err
	}

	price, err := e.oracle.Quote(ctx, req.Symbol)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("quote %s: %w", req.Symbol, err)
	}
	if !price.IsPositive() {
		return models.Transaction{}, fmt.Errorf("%w: non-positive quote for %s", models.ErrInvalidTrade, req.Symbol)
	}

	var committed models.Transaction
	err = e.store.WithinTx(ctx, func(tx store.Store) error {
		account, err := tx.Account(ctx, accountID)
		if err != nil {
			return err
		}

		total := req.Shares.Mul(price)
		if req.Side == models.SideBuy && total.GreaterThan(account.CashBalance) {
			return models.ErrInsufficientFunds
		}

		if req.Side == models.SideBuy {
			err = e.ledger.ApplyBuy(ctx, tx, accountID, req.Symbol, req.Shares, price)
		} else {
			err = e.ledger.ApplySell(ctx, tx, accountID, req.Symbol, req.Shares, price)
		}
		if err != nil {
			return err
		}

		committed, err = tx.AppendTransaction(ctx, models.Transaction{
			AccountID: accountID,
			Symbol:    req.Symbol,
			Shares:    req.Shares,
			Price:     price,
			Side:      req.Side,
		})
		return err
	})
	if err != nil {
		return models.Transaction{}, err
	}
	return committed, nil
}

// PortfolioValue prices the account's holdings at current oracle quotes
// and returns cash + market value. Used by the leaderboard.
func (e *Engine) PortfolioValue(ctx context.Context, account models.Account) (decimal.Decimal, error) {
	positions, err := e.store.Positions(ctx, account.ID)
	if err != nil {
		return decimal.Decimal{}, err
	}

	total := account.CashBalance
	for _, p := range positions {
		price, err := e.oracle.Quote(ctx, p.Symbol)
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("quote %s: %w", p.Symbol, err)
		}
		total = total.Add(p.Shares.Mul(price))
	}
	return total, nil
}
