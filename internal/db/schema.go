package db

import (
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
        id               BIGSERIAL PRIMARY KEY,
        username         TEXT NOT NULL UNIQUE,
        cash_balance     NUMERIC(18,6) NOT NULL CHECK (cash_balance >= 0),
        is_trader        BOOLEAN NOT NULL DEFAULT FALSE,
        subscription_fee NUMERIC(18,6) NOT NULL DEFAULT 0,
        bio              TEXT NOT NULL DEFAULT '',
        created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`CREATE TABLE IF NOT EXISTS portfolios (
        id            BIGSERIAL PRIMARY KEY,
        user_id       BIGINT NOT NULL REFERENCES users(id),
        symbol        TEXT NOT NULL,
        shares        NUMERIC(18,6) NOT NULL CHECK (shares > 0),
        average_price NUMERIC(18,6) NOT NULL,
        updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        UNIQUE (user_id, symbol)
    )`,
	`CREATE TABLE IF NOT EXISTS transactions (
        id         BIGSERIAL PRIMARY KEY,
        user_id    BIGINT NOT NULL REFERENCES users(id),
        symbol     TEXT NOT NULL,
        shares     NUMERIC(18,6) NOT NULL,
        price      NUMERIC(18,6) NOT NULL,
        side       TEXT NOT NULL CHECK (side IN ('buy', 'sell')),
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`CREATE TABLE IF NOT EXISTS copied_trades (
        id                      BIGSERIAL PRIMARY KEY,
        original_transaction_id BIGINT NOT NULL REFERENCES transactions(id),
        follower_id             BIGINT NOT NULL REFERENCES users(id),
        status                  TEXT NOT NULL CHECK (status IN ('pending', 'executed', 'failed')),
        copied_shares           NUMERIC(18,6) NOT NULL,
        copied_price            NUMERIC(18,6) NOT NULL,
        created_at              TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`CREATE TABLE IF NOT EXISTS followers (
        follower_id BIGINT NOT NULL REFERENCES users(id),
        followed_id BIGINT NOT NULL REFERENCES users(id),
        created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        PRIMARY KEY (follower_id, followed_id)
    )`,
	`CREATE TABLE IF NOT EXISTS copy_trading_settings (
        id                     BIGSERIAL PRIMARY KEY,
        follower_id            BIGINT NOT NULL REFERENCES users(id),
        trader_id              BIGINT NOT NULL REFERENCES users(id),
        enabled                BOOLEAN NOT NULL DEFAULT TRUE,
        copy_amount_cash       NUMERIC(18,6) NOT NULL,
        max_position_size_cash NUMERIC(18,6) NOT NULL,
        risk_level             TEXT NOT NULL DEFAULT 'medium',
        created_at             TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        updated_at             TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`CREATE TABLE IF NOT EXISTS subscriptions (
        id            BIGSERIAL PRIMARY KEY,
        subscriber_id BIGINT NOT NULL REFERENCES users(id),
        trader_id     BIGINT NOT NULL REFERENCES users(id),
        fee           NUMERIC(18,6) NOT NULL,
        active        BOOLEAN NOT NULL DEFAULT TRUE,
        created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        cancelled_at  TIMESTAMPTZ
    )`,
}

// Migrate creates the tables if they do not exist yet.
func Migrate(database *sql.DB) error {
	for _, stmt := range schema {
		if _, err := database.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
