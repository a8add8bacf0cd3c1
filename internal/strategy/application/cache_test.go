package application

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/optionstrategy/internal/strategy/domain"
)

func TestResultCache_LazyExpiry(t *testing.T) {
	clock := &testClock{t: today}
	c := NewResultCache(5*time.Second, 0, clock.Now)
	r := &domain.StrategyResult{Symbol: "SPY"}

	c.Set("k", r)
	got, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, r, got)

	clock.Advance(5 * time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Zero(t, c.Len())
}

func TestResultCache_PurgesExpiredWhenOverCapacity(t *testing.T) {
	clock := &testClock{t: today}
	c := NewResultCache(time.Second, 3, clock.Now)
	for i := range 3 {
		c.Set(fmt.Sprintf("old-%d", i), &domain.StrategyResult{})
	}
	clock.Advance(2 * time.Second)

	c.Set("fresh", &domain.StrategyResult{})
	assert.Equal(t, 1, c.Len())
	_, ok := c.Get("fresh")
	assert.True(t, ok)
}

func TestResultCache_KeepsExpiredUnderCapacity(t *testing.T) {
	clock := &testClock{t: today}
	c := NewResultCache(time.Second, 10, clock.Now)
	c.Set("a", &domain.StrategyResult{})
	clock.Advance(2 * time.Second)
	c.Set("b", &domain.StrategyResult{})
	assert.Equal(t, 2, c.Len())
}

func TestResultCache_ReturnsCopies(t *testing.T) {
	c := NewResultCache(time.Minute, 0, (&testClock{t: today}).Now)
	r := &domain.StrategyResult{
		Symbol:     "SPY",
		Strikes:    []decimal.Decimal{decimal.NewFromInt(95), decimal.NewFromInt(105)},
		Breakevens: []decimal.Decimal{decimal.NewFromInt(97)},
		Legs:       []domain.StrategyLeg{{Price: decimal.NewFromInt(3)}},
	}
	c.Set("k", r)
	r.Symbol = "QQQ"
	r.Strikes[0] = decimal.Zero

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "SPY", got.Symbol)
	assert.Equal(t, "95", got.Strikes[0].String())

	got.Breakevens[0] = decimal.Zero
	got.Legs[0].Price = decimal.Zero
	got.MaxProfit = decimal.NewFromInt(1000)

	again, ok := c.Get("k")
	require.True(t, ok)
	assert.NotSame(t, got, again)
	assert.Equal(t, "97", again.Breakevens[0].String())
	assert.Equal(t, "3", again.Legs[0].Price.String())
	assert.True(t, again.MaxProfit.IsZero())
}
