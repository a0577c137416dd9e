package oracle

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// Cached decorates an Oracle with a short-lived Redis quote cache so a
// burst of fanout executions for the same symbol reuses one quote.
type Cached struct {
	next   Oracle
	client *redis.Client
	ttl    time.Duration
	logger *log.Logger
}

// NewCached wraps next with a Redis-backed cache.
func NewCached(next Oracle, client *redis.Client, ttl time.Duration, logger *log.Logger) *Cached {
	return &Cached{next: next, client: client, ttl: ttl, logger: logger}
}

func quoteKey(symbol string) string { return "quote:" + symbol }

func (c *Cached) Quote(ctx context.Context, symbol string) (decimal.Decimal, error) {
	cached, err := c.client.Get(ctx, quoteKey(symbol)).Result()
	if err == nil {
		if price, perr := decimal.NewFromString(cached); perr == nil {
			return price, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Printf("quote cache read for %s failed: %v", symbol, err)
	}

	price, err := c.next.Quote(ctx, symbol)
	if err != nil {
		return decimal.Decimal{}, err
	}

	if err := c.client.Set(ctx, quoteKey(symbol), price.String(), c.ttl).Err(); err != nil {
		c.logger.Printf("quote cache write for %s failed: %v", symbol, err)
	}
	return price, nil
}
