package db

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nandigama/InvestSimulate2/internal/config"
)

// SetupTestDB connects to the test database and applies the schema.
// Tests that need Postgres are skipped when it is not reachable.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	database, err := Connect(config.Load())
	if err != nil {
		t.Skipf("postgres not available: %v", err)
	}

	if err := Migrate(database); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}

	return database
}

// CleanupTestDB removes all test data.
func CleanupTestDB(t *testing.T, database *sql.DB) {
	t.Helper()

	tables := []string{"copied_trades", "copy_trading_settings", "subscriptions", "followers", "transactions", "portfolios", "users"}
	for _, table := range tables {
		if _, err := database.Exec(fmt.Sprintf("DELETE FROM %s", table)); err != nil {
			t.Logf("warning: failed to cleanup table %s: %v", table, err)
		}
	}
}

// CreateTestUser inserts a user with the given balance and returns its id.
func CreateTestUser(t *testing.T, database *sql.DB, username string, balance decimal.Decimal) int64 {
	t.Helper()

	// Make the username unique across runs.
	uniqueUsername := fmt.Sprintf("%s_%d", username, time.Now().UnixNano())

	var userID int64
	err := database.QueryRow(
		"INSERT INTO users (username, cash_balance) VALUES ($1, $2) RETURNING id",
		uniqueUsername, balance,
	).Scan(&userID)
	if err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	return userID
}
