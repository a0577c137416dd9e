package oracle

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockQuoteRange(t *testing.T) {
	t.Parallel()

	m := NewMock(42)
	ctx := context.Background()
	low := decimal.NewFromInt(10)
	high := decimal.NewFromInt(100)

	for i := 0; i < 200; i++ {
		price, err := m.Quote(ctx, "AAPL")
		require.NoError(t, err)
		assert.True(t, price.GreaterThanOrEqual(low), "price %s below $10", price)
		assert.True(t, price.LessThanOrEqual(high), "price %s above $100", price)
		assert.LessOrEqual(t, int(price.Exponent())*-1, 2, "price %s has more than 2 fractional digits", price)
	}
}

func TestMockQuoteDeterministicPerSeed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a := NewMock(7)
	b := NewMock(7)

	for i := 0; i < 20; i++ {
		pa, err := a.Quote(ctx, "AAPL")
		require.NoError(t, err)
		pb, err := b.Quote(ctx, "AAPL")
		require.NoError(t, err)
		assert.True(t, pa.Equal(pb))
	}
}

func TestStaticQuote(t *testing.T) {
	t.Parallel()

	s := NewStatic(map[string]decimal.Decimal{
		"AAPL": decimal.RequireFromString("50.00"),
	})
	ctx := context.Background()

	price, err := s.Quote(ctx, "AAPL")
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("50.00")))

	_, err = s.Quote(ctx, "NOPE")
	assert.ErrorIs(t, err, ErrNoQuote)
}
