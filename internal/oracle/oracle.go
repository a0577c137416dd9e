// Package oracle provides the price source for trade execution. The
// interface is injectable so tests can pin prices; the default mock
// mirrors the simulator's random $10–$100 quotes.
package oracle

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNoQuote is returned when an oracle has no price for a symbol.
var ErrNoQuote = errors.New("no quote for symbol")

// Oracle returns the current trade price for a symbol. Quotes are
// always strictly positive.
type Oracle interface {
	Quote(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// Mock quotes a uniform random price between $10.00 and $100.00 with
// two fractional digits, per the simulator's behavior.
type Mock struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewMock creates a mock oracle. A zero seed derives one from the clock.
func NewMock(seed int64) *Mock {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Mock{rng: rand.New(rand.NewSource(seed))}
}

func (m *Mock) Quote(ctx context.Context, symbol string) (decimal.Decimal, error) {
	m.mu.Lock()
	raw := m.rng.Float64()*90 + 10
	m.mu.Unlock()

	return decimal.NewFromFloat(raw).Round(2), nil
}

// Static serves fixed per-symbol quotes, for deterministic tests.
type Static struct {
	prices map[string]decimal.Decimal
}

// NewStatic creates a static oracle over the given price table.
func NewStatic(prices map[string]decimal.Decimal) *Static {
	cp := make(map[string]decimal.Decimal, len(prices))
	for sym, p := range prices {
		cp[sym] = p
	}
	return &Static{prices: cp}
}

func (s *Static) Quote(ctx context.Context, symbol string) (decimal.Decimal, error) {
	p, ok := s.prices[symbol]
	if !ok {
		return decimal.Decimal{}, ErrNoQuote
	}
	return p, nil
}
