package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/nandigama/InvestSimulate2/internal/models"
)

// queryer is satisfied by both *sql.DB and *sql.Tx so the same query
// code serves plain calls and transaction scopes.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Postgres is the durable Store backend.
type Postgres struct {
	db *sql.DB
	q  queryer
}

// NewPostgres wraps an open database handle.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db, q: db}
}

func (s *Postgres) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	if _, nested := s.q.(*sql.Tx); nested {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() // no-op after commit

	if err := fn(&Postgres{db: s.db, q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

const accountColumns = "id, username, cash_balance, is_trader, subscription_fee, bio, created_at"

func scanAccount(row interface{ Scan(...any) error }) (models.Account, error) {
	var a models.Account
	err := row.Scan(&a.ID, &a.Username, &a.CashBalance, &a.IsTrader, &a.SubscriptionFee, &a.Bio, &a.CreatedAt)
	return a, err
}

func (s *Postgres) CreateAccount(ctx context.Context, username string, balance decimal.Decimal) (models.Account, error) {
	row := s.q.QueryRowContext(ctx, `
        INSERT INTO users (username, cash_balance)
        VALUES ($1, $2)
        RETURNING `+accountColumns,
		username, balance)

	a, err := scanAccount(row)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return models.Account{}, models.ErrUsernameTaken
	}
	if err != nil {
		return models.Account{}, fmt.Errorf("create account: %w", err)
	}
	return a, nil
}

func (s *Postgres) Account(ctx context.Context, id int64) (models.Account, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM users WHERE id = $1`, id)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, models.ErrAccountNotFound
	}
	if err != nil {
		return models.Account{}, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (s *Postgres) AccountByUsername(ctx context.Context, username string) (models.Account, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM users WHERE username = $1`, username)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, models.ErrAccountNotFound
	}
	if err != nil {
		return models.Account{}, fmt.Errorf("get account by username: %w", err)
	}
	return a, nil
}

func (s *Postgres) Accounts(ctx context.Context) ([]models.Account, error) {
	return s.listAccounts(ctx, `SELECT `+accountColumns+` FROM users ORDER BY id`)
}

func (s *Postgres) Traders(ctx context.Context) ([]models.Account, error) {
	return s.listAccounts(ctx, `SELECT `+accountColumns+` FROM users WHERE is_trader ORDER BY id`)
}

func (s *Postgres) listAccounts(ctx context.Context, query string, args ...any) ([]models.Account, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Postgres) UpdateTraderProfile(ctx context.Context, id int64, isTrader bool, fee decimal.Decimal, bio string) (models.Account, error) {
	row := s.q.QueryRowContext(ctx, `
        UPDATE users SET is_trader = $1, subscription_fee = $2, bio = $3
        WHERE id = $4
        RETURNING `+accountColumns,
		isTrader, fee, bio, id)

	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, models.ErrAccountNotFound
	}
	if err != nil {
		return models.Account{}, fmt.Errorf("update trader profile: %w", err)
	}
	return a, nil
}

func (s *Postgres) AdjustBalance(ctx context.Context, id int64, delta decimal.Decimal) (models.Account, error) {
	row := s.q.QueryRowContext(ctx, `
        UPDATE users SET cash_balance = cash_balance + $1
        WHERE id = $2 AND cash_balance + $1 >= 0
        RETURNING `+accountColumns,
		delta, id)

	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		// Either the account is missing or the debit would go negative.
		var exists bool
		if err := s.q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists); err != nil {
			return models.Account{}, fmt.Errorf("adjust balance: %w", err)
		}
		if !exists {
			return models.Account{}, models.ErrAccountNotFound
		}
		return models.Account{}, models.ErrInsufficientFunds
	}
	if err != nil {
		return models.Account{}, fmt.Errorf("adjust balance: %w", err)
	}
	return a, nil
}

const positionColumns = "id, user_id, symbol, shares, average_price, updated_at"

func scanPosition(row interface{ Scan(...any) error }) (models.Position, error) {
	var p models.Position
	err := row.Scan(&p.ID, &p.AccountID, &p.Symbol, &p.Shares, &p.AveragePrice, &p.UpdatedAt)
	return p, err
}

func (s *Postgres) Position(ctx context.Context, accountID int64, symbol string) (models.Position, bool, error) {
	query := `SELECT ` + positionColumns + ` FROM portfolios WHERE user_id = $1 AND symbol = $2`
	if _, inTx := s.q.(*sql.Tx); inTx {
		// Trades read-modify-write the position row.
		query += ` FOR UPDATE`
	}
	row := s.q.QueryRowContext(ctx, query, accountID, symbol)

	p, err := scanPosition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Position{}, false, nil
	}
	if err != nil {
		return models.Position{}, false, fmt.Errorf("get position: %w", err)
	}
	return p, true, nil
}

func (s *Postgres) Positions(ctx context.Context, accountID int64) ([]models.Position, error) {
	rows, err := s.q.QueryContext(ctx, `
        SELECT `+positionColumns+` FROM portfolios WHERE user_id = $1 ORDER BY symbol`,
		accountID)
	if err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	defer rows.Close()

	var out []models.Position
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Postgres) UpsertPosition(ctx context.Context, p models.Position) (models.Position, error) {
	row := s.q.QueryRowContext(ctx, `
        INSERT INTO portfolios (user_id, symbol, shares, average_price)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (user_id, symbol)
        DO UPDATE SET shares = $3, average_price = $4, updated_at = NOW()
        RETURNING `+positionColumns,
		p.AccountID, p.Symbol, p.Shares, p.AveragePrice)

	out, err := scanPosition(row)
	if err != nil {
		return models.Position{}, fmt.Errorf("upsert position: %w", err)
	}
	return out, nil
}

func (s *Postgres) DeletePosition(ctx context.Context, accountID int64, symbol string) error {
	if _, err := s.q.ExecContext(ctx, `
        DELETE FROM portfolios WHERE user_id = $1 AND symbol = $2`,
		accountID, symbol); err != nil {
		return fmt.Errorf("delete position: %w", err)
	}
	return nil
}

func (s *Postgres) AppendTransaction(ctx context.Context, t models.Transaction) (models.Transaction, error) {
	row := s.q.QueryRowContext(ctx, `
        INSERT INTO transactions (user_id, symbol, shares, price, side)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at`,
		t.AccountID, t.Symbol, t.Shares, t.Price, string(t.Side))

	if err := row.Scan(&t.ID, &t.Timestamp); err != nil {
		return models.Transaction{}, fmt.Errorf("append transaction: %w", err)
	}
	return t, nil
}

func (s *Postgres) Transactions(ctx context.Context, accountID int64) ([]models.Transaction, error) {
	rows, err := s.q.QueryContext(ctx, `
        SELECT id, user_id, symbol, shares, price, side, created_at
        FROM transactions WHERE user_id = $1 ORDER BY id`,
		accountID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []models.Transaction
	for rows.Next() {
		var t models.Transaction
		var side string
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Symbol, &t.Shares, &t.Price, &side, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Side = models.Side(side)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Postgres) AppendCopiedTrade(ctx context.Context, ct models.CopiedTrade) (models.CopiedTrade, error) {
	row := s.q.QueryRowContext(ctx, `
        INSERT INTO copied_trades (original_transaction_id, follower_id, status, copied_shares, copied_price)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at`,
		ct.OriginalTransactionID, ct.FollowerAccountID, string(ct.Status), ct.CopiedShares, ct.CopiedPrice)

	if err := row.Scan(&ct.ID, &ct.CreatedAt); err != nil {
		return models.CopiedTrade{}, fmt.Errorf("append copied trade: %w", err)
	}
	return ct, nil
}

func (s *Postgres) UpdateCopiedTradeStatus(ctx context.Context, id int64, status models.CopyStatus) error {
	res, err := s.q.ExecContext(ctx, `
        UPDATE copied_trades SET status = $1 WHERE id = $2`,
		string(status), id)
	if err != nil {
		return fmt.Errorf("update copied trade: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.ErrSettingNotFound
	}
	return nil
}

func (s *Postgres) CopiedTrades(ctx context.Context, followerAccountID int64) ([]models.CopiedTrade, error) {
	rows, err := s.q.QueryContext(ctx, `
        SELECT id, original_transaction_id, follower_id, status, copied_shares, copied_price, created_at
        FROM copied_trades WHERE follower_id = $1 ORDER BY id`,
		followerAccountID)
	if err != nil {
		return nil, fmt.Errorf("list copied trades: %w", err)
	}
	defer rows.Close()

	var out []models.CopiedTrade
	for rows.Next() {
		var ct models.CopiedTrade
		var status string
		if err := rows.Scan(&ct.ID, &ct.OriginalTransactionID, &ct.FollowerAccountID, &status, &ct.CopiedShares, &ct.CopiedPrice, &ct.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan copied trade: %w", err)
		}
		ct.Status = models.CopyStatus(status)
		out = append(out, ct)
	}
	return out, rows.Err()
}

func (s *Postgres) Follow(ctx context.Context, followerID, followedID int64) (models.FollowEdge, error) {
	row := s.q.QueryRowContext(ctx, `
        INSERT INTO followers (follower_id, followed_id)
        VALUES ($1, $2)
        ON CONFLICT (follower_id, followed_id) DO UPDATE SET follower_id = EXCLUDED.follower_id
        RETURNING follower_id, followed_id, created_at`,
		followerID, followedID)

	var e models.FollowEdge
	if err := row.Scan(&e.FollowerAccountID, &e.FollowedAccountID, &e.CreatedAt); err != nil {
		return models.FollowEdge{}, fmt.Errorf("follow: %w", err)
	}
	return e, nil
}

func (s *Postgres) Unfollow(ctx context.Context, followerID, followedID int64) error {
	if _, err := s.q.ExecContext(ctx, `
        DELETE FROM followers WHERE follower_id = $1 AND followed_id = $2`,
		followerID, followedID); err != nil {
		return fmt.Errorf("unfollow: %w", err)
	}
	return nil
}

func (s *Postgres) Followers(ctx context.Context, accountID int64) ([]models.FollowEdge, error) {
	rows, err := s.q.QueryContext(ctx, `
        SELECT follower_id, followed_id, created_at
        FROM followers WHERE followed_id = $1 ORDER BY created_at`,
		accountID)
	if err != nil {
		return nil, fmt.Errorf("list followers: %w", err)
	}
	defer rows.Close()

	var out []models.FollowEdge
	for rows.Next() {
		var e models.FollowEdge
		if err := rows.Scan(&e.FollowerAccountID, &e.FollowedAccountID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan follow edge: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

const settingColumns = "id, follower_id, trader_id, enabled, copy_amount_cash, max_position_size_cash, risk_level, created_at, updated_at"

func scanSetting(row interface{ Scan(...any) error }) (models.CopySetting, error) {
	var s models.CopySetting
	err := row.Scan(&s.ID, &s.FollowerAccountID, &s.FollowedTraderID, &s.Enabled,
		&s.CopyAmountCash, &s.MaxPositionSizeCash, &s.RiskLevel, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func (s *Postgres) CreateCopySetting(ctx context.Context, cs models.CopySetting) (models.CopySetting, error) {
	row := s.q.QueryRowContext(ctx, `
        INSERT INTO copy_trading_settings (follower_id, trader_id, enabled, copy_amount_cash, max_position_size_cash, risk_level)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING `+settingColumns,
		cs.FollowerAccountID, cs.FollowedTraderID, cs.Enabled, cs.CopyAmountCash, cs.MaxPositionSizeCash, cs.RiskLevel)

	out, err := scanSetting(row)
	if err != nil {
		return models.CopySetting{}, fmt.Errorf("create copy setting: %w", err)
	}
	return out, nil
}

func (s *Postgres) UpdateCopySetting(ctx context.Context, cs models.CopySetting) (models.CopySetting, error) {
	row := s.q.QueryRowContext(ctx, `
        UPDATE copy_trading_settings
        SET trader_id = $1, enabled = $2, copy_amount_cash = $3, max_position_size_cash = $4, risk_level = $5, updated_at = NOW()
        WHERE id = $6
        RETURNING `+settingColumns,
		cs.FollowedTraderID, cs.Enabled, cs.CopyAmountCash, cs.MaxPositionSizeCash, cs.RiskLevel, cs.ID)

	out, err := scanSetting(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.CopySetting{}, models.ErrSettingNotFound
	}
	if err != nil {
		return models.CopySetting{}, fmt.Errorf("update copy setting: %w", err)
	}
	return out, nil
}

func (s *Postgres) CopySettings(ctx context.Context, accountID int64) ([]models.CopySetting, error) {
	rows, err := s.q.QueryContext(ctx, `
        SELECT `+settingColumns+` FROM copy_trading_settings WHERE follower_id = $1 ORDER BY id`,
		accountID)
	if err != nil {
		return nil, fmt.Errorf("list copy settings: %w", err)
	}
	defer rows.Close()

	var out []models.CopySetting
	for rows.Next() {
		cs, err := scanSetting(rows)
		if err != nil {
			return nil, fmt.Errorf("scan copy setting: %w", err)
		}
		out = append(out, cs)
	}
	return out, rows.Err()
}

func (s *Postgres) CreateSubscription(ctx context.Context, subscriberID, traderID int64, fee decimal.Decimal) (models.Subscription, error) {
	row := s.q.QueryRowContext(ctx, `
        INSERT INTO subscriptions (subscriber_id, trader_id, fee, active)
        VALUES ($1, $2, $3, TRUE)
        RETURNING id, created_at`,
		subscriberID, traderID, fee)

	sub := models.Subscription{SubscriberID: subscriberID, TraderID: traderID, Fee: fee, Active: true}
	if err := row.Scan(&sub.ID, &sub.CreatedAt); err != nil {
		return models.Subscription{}, fmt.Errorf("create subscription: %w", err)
	}
	return sub, nil
}

func (s *Postgres) CancelSubscription(ctx context.Context, id int64) error {
	res, err := s.q.ExecContext(ctx, `
        UPDATE subscriptions SET active = FALSE, cancelled_at = NOW()
        WHERE id = $1 AND active`,
		id)
	if err != nil {
		return fmt.Errorf("cancel subscription: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.ErrSubscriptionGone
	}
	return nil
}

func (s *Postgres) ActiveSubscriptions(ctx context.Context, subscriberID int64) ([]models.Subscription, error) {
	rows, err := s.q.QueryContext(ctx, `
        SELECT id, subscriber_id, trader_id, fee, active, created_at, cancelled_at
        FROM subscriptions WHERE subscriber_id = $1 AND active ORDER BY id`,
		subscriberID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	var out []models.Subscription
	for rows.Next() {
		var sub models.Subscription
		var cancelled sql.NullTime
		if err := rows.Scan(&sub.ID, &sub.SubscriberID, &sub.TraderID, &sub.Fee, &sub.Active, &sub.CreatedAt, &cancelled); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		if cancelled.Valid {
			sub.CancelledAt = &cancelled.Time
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}
