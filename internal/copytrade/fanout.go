// Package copytrade replicates a trader's executed trade into each
// eligible follower's portfolio. Every follower attempt is independent:
// attempts run concurrently, failures are recorded and logged but never
// surface to the trader or abort sibling attempts.
package copytrade

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/semaphore"

	"github.com/nandigama/InvestSimulate2/internal/models"
	"github.com/nandigama/InvestSimulate2/internal/store"
)

// copyShareDigits is the quantization of derived share counts.
const copyShareDigits = 6

// Executor executes one trade. Satisfied by *engine.Engine.
type Executor interface {
	Execute(ctx context.Context, accountID int64, req models.TradeRequest) (models.Transaction, error)
}

// Summary reports how one fanout batch settled. The batch as a whole
// never fails; individual follower outcomes live in copied_trades.
type Summary struct {
	BatchID  string
	Executed int
	Failed   int
	Skipped  int
}

// Controller fans a trader's trade out to followers.
type Controller struct {
	store          store.Store
	executor       Executor
	logger         *log.Logger
	sem            *semaphore.Weighted
	attemptTimeout time.Duration
}

// NewController creates a fanout controller. parallelism bounds how many
// follower attempts run at once; attemptTimeout bounds each attempt and
// a timeout settles that attempt as failed, never retried.
func NewController(st store.Store, exec Executor, logger *log.Logger, parallelism int64, attemptTimeout time.Duration) *Controller {
	if parallelism < 1 {
		parallelism = 1
	}
	return &Controller{
		store:          st,
		executor:       exec,
		logger:         logger,
		sem:            semaphore.NewWeighted(parallelism),
		attemptTimeout: attemptTimeout,
	}
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeExecuted
	outcomeFailed
)

// Fanout replicates txn into every follower with an active copy setting
// for the trader. It must be called only after txn has committed, and
// only for accounts with IsTrader set. It returns once every follower
// attempt has settled.
func (c *Controller) Fanout(ctx context.Context, txn models.Transaction, trader models.Account) Summary {
	summary := Summary{BatchID: uuid.NewString()}
	if !trader.IsTrader {
		return summary
	}

	followers, err := c.store.Followers(ctx, trader.ID)
	if err != nil {
		c.logger.Printf("fanout %s: listing followers of trader %d failed: %v", summary.BatchID, trader.ID, err)
		return summary
	}
	if len(followers) == 0 {
		return summary
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, edge := range followers {
		wg.Add(1)
		go func(followerID int64) {
			defer wg.Done()

			if err := c.sem.Acquire(ctx, 1); err != nil {
				c.logger.Printf("fanout %s: follower %d not attempted: %v", summary.BatchID, followerID, err)
				mu.Lock()
				summary.Skipped++
				mu.Unlock()
				return
			}
			defer c.sem.Release(1)

			result := c.copyForFollower(ctx, summary.BatchID, txn, trader, followerID)

			mu.Lock()
			switch result {
			case outcomeExecuted:
				summary.Executed++
			case outcomeFailed:
				summary.Failed++
			default:
				summary.Skipped++
			}
			mu.Unlock()
		}(edge.FollowerAccountID)
	}
	wg.Wait()

	return summary
}

// copyForFollower runs one follower's attempt end to end. Any error is
// settled into the follower's copied_trades record and goes no further.
func (c *Controller) copyForFollower(ctx context.Context, batchID string, txn models.Transaction, trader models.Account, followerID int64) outcome {
	attemptCtx, cancel := context.WithTimeout(ctx, c.attemptTimeout)
	defer cancel()

	settings, err := c.store.CopySettings(attemptCtx, followerID)
	if err != nil {
		c.logger.Printf("fanout %s: loading settings for follower %d failed: %v", batchID, followerID, err)
		return outcomeSkipped
	}

	setting, ok := activeSetting(settings, trader.ID)
	if !ok {
		return outcomeSkipped
	}

	copyAmount := decimal.Min(setting.CopyAmountCash, setting.MaxPositionSizeCash, txn.Total())
	copyShares := copyAmount.Div(txn.Price).Truncate(copyShareDigits)

	record, err := c.store.AppendCopiedTrade(attemptCtx, models.CopiedTrade{
		OriginalTransactionID: txn.ID,
		FollowerAccountID:     followerID,
		Status:                models.CopyPending,
		CopiedShares:          copyShares,
		CopiedPrice:           txn.Price,
	})
	if err != nil {
		c.logger.Printf("fanout %s: recording copy for follower %d failed: %v", batchID, followerID, err)
		return outcomeSkipped
	}

	_, execErr := c.executor.Execute(attemptCtx, followerID, models.TradeRequest{
		Symbol: txn.Symbol,
		Shares: copyShares,
		Side:   txn.Side,
	})

	status := models.CopyExecuted
	result := outcomeExecuted
	if execErr != nil {
		status = models.CopyFailed
		result = outcomeFailed
		attemptErr := &models.FanoutAttemptError{FollowerAccountID: followerID, Err: execErr}
		c.logger.Printf("fanout %s: %v", batchID, attemptErr)
	}

	// The status write must survive an expired attempt context.
	settleCtx := context.WithoutCancel(ctx)
	if err := c.store.UpdateCopiedTradeStatus(settleCtx, record.ID, status); err != nil {
		c.logger.Printf("fanout %s: settling copy %d for follower %d failed: %v", batchID, record.ID, followerID, err)
	}
	return result
}

// activeSetting picks the follower's enabled setting for the trader.
// Uniqueness is not enforced at creation, so ties break deterministically
// to the most recently updated setting.
func activeSetting(settings []models.CopySetting, traderID int64) (models.CopySetting, bool) {
	matches := settings[:0:0]
	for _, s := range settings {
		if s.Enabled && s.FollowedTraderID == traderID {
			matches = append(matches, s)
		}
	}
	if len(matches) == 0 {
		return models.CopySetting{}, false
	}
	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].UpdatedAt.Equal(matches[j].UpdatedAt) {
			return matches[i].UpdatedAt.After(matches[j].UpdatedAt)
		}
		return matches[i].ID > matches[j].ID
	})
	return matches[0], true
}
