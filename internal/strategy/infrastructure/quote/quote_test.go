package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pricing "github.com/wyfcoding/optionstrategy/internal/pricing/domain"
	"github.com/wyfcoding/optionstrategy/internal/strategy/domain"
	"github.com/wyfcoding/optionstrategy/pkg/config"
)

type mapStore struct {
	data map[string][]byte
	err  error
}

func (s *mapStore) put(t *testing.T, key string, v any) {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	s.data[key] = raw
}

func (s *mapStore) GetJSON(_ context.Context, key string, dest any) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	raw, ok := s.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

var exp = time.Date(2026, time.November, 20, 0, 0, 0, 0, time.UTC)

func TestQuoteKey(t *testing.T) {
	assert.Equal(t, "md:quote:SPY:20261120:C:450.5",
		QuoteKey("md:", "spy", decimal.RequireFromString("450.50"), exp, pricing.Call))
	assert.Equal(t, "underlying:SPY", UnderlyingKey("", "spy"))
}

func TestRedisQuoteSource_GetQuote(t *testing.T) {
	now := time.Date(2026, time.October, 14, 15, 0, 0, 0, time.UTC)
	store := &mapStore{data: map[string][]byte{}}
	store.put(t, QuoteKey("", "SPY", decimal.NewFromInt(450), exp, pricing.Put), map[string]any{
		"bid": "3.10", "ask": "3.30", "volume": 120,
		"delta": -0.4, "gamma": 0.02, "theta": -0.05, "vega": 0.3, "rho": -0.1,
		"iv": 0.22, "updated_at": now.Add(-time.Second),
	})
	store.put(t, QuoteKey("", "SPY", decimal.NewFromInt(460), exp, pricing.Put), map[string]any{
		"last": 7.5, "delta": -0.6, "updated_at": now.Add(-time.Minute),
	})

	src := NewRedisQuoteSource(store, "", WithMaxAge(30*time.Second), WithClock(func() time.Time { return now }))
	ctx := context.Background()

	q, err := src.GetQuote(ctx, "SPY", decimal.NewFromInt(450), exp, pricing.Put)
	require.NoError(t, err)
	require.NotNil(t, q)
	price, ok := q.ReferencePrice()
	require.True(t, ok)
	assert.Equal(t, "3.2", price.String())
	require.NotNil(t, q.Greeks)
	assert.Equal(t, -0.4, q.Greeks.Delta)
	assert.Equal(t, 0.22, *q.ImpliedVolatility)
	assert.Equal(t, domain.ProvenanceLive, q.Provenance)

	// 过期快照视为无报价
	q, err = src.GetQuote(ctx, "SPY", decimal.NewFromInt(460), exp, pricing.Put)
	require.NoError(t, err)
	assert.Nil(t, q)

	q, err = src.GetQuote(ctx, "SPY", decimal.NewFromInt(470), exp, pricing.Put)
	require.NoError(t, err)
	assert.Nil(t, q)
}

func TestRedisQuoteSource_PartialGreeksDropped(t *testing.T) {
	store := &mapStore{data: map[string][]byte{}}
	store.put(t, QuoteKey("", "QQQ", decimal.NewFromInt(400), exp, pricing.Call), map[string]any{"last": 2, "delta": 0.3})
	q, err := NewRedisQuoteSource(store, "").GetQuote(context.Background(), "QQQ", decimal.NewFromInt(400), exp, pricing.Call)
	require.NoError(t, err)
	require.NotNil(t, q)
	assert.Nil(t, q.Greeks)
}

func TestRedisQuoteSource_Underlying(t *testing.T) {
	store := &mapStore{data: map[string][]byte{}}
	store.put(t, UnderlyingKey("", "SPY"), map[string]any{"price": "451.25"})
	src := NewRedisQuoteSource(store, "")

	p, ok, err := src.GetUnderlyingPrice(context.Background(), "spy")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "451.25", p.String())

	_, ok, err = src.GetUnderlyingPrice(context.Background(), "IWM")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisQuoteSource_StoreErrorIsSourceFailure(t *testing.T) {
	src := NewRedisQuoteSource(&mapStore{err: errors.New("connection refused")}, "")
	_, err := src.GetQuote(context.Background(), "SPY", decimal.NewFromInt(450), exp, pricing.Call)
	assert.True(t, IsSourceFailure(err), "%v", err)
	_, _, err = src.GetUnderlyingPrice(context.Background(), "SPY")
	assert.True(t, IsSourceFailure(err), "%v", err)
}

func TestMemoryQuoteSource(t *testing.T) {
	m := NewMemoryQuoteSource()
	m.SetUnderlyingPrice("spy", decimal.NewFromInt(450))
	m.SetQuote("SPY", decimal.NewFromInt(455), exp, pricing.Call, &domain.Quote{Last: decimal.NewNullDecimal(decimal.NewFromInt(4))})

	p, ok, err := m.GetUnderlyingPrice(context.Background(), "SPY")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, p.Equal(decimal.NewFromInt(450)))

	q, err := m.GetQuote(context.Background(), "spy", decimal.RequireFromString("455.0"), exp, pricing.Call)
	require.NoError(t, err)
	require.NotNil(t, q)

	q, err = m.GetQuote(context.Background(), "SPY", decimal.NewFromInt(455), exp, pricing.Put)
	require.NoError(t, err)
	assert.Nil(t, q)
}

type flakySource struct {
	calls atomic.Int64
	err   error
}

func (f *flakySource) GetQuote(context.Context, string, decimal.Decimal, time.Time, pricing.OptionRight) (*domain.Quote, error) {
	f.calls.Add(1)
	return nil, f.err
}

func (f *flakySource) GetUnderlyingPrice(context.Context, string) (decimal.Decimal, bool, error) {
	f.calls.Add(1)
	return decimal.NewFromInt(100), true, f.err
}

func breakerConfig() config.BreakerConfig {
	return config.BreakerConfig{
		Enabled:      true,
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      time.Minute,
		FailureRatio: 0.5,
		MinRequests:  3,
	}
}

func TestBreakerQuoteSource_TripsOnFailures(t *testing.T) {
	next := &flakySource{err: errors.New("gateway timeout")}
	src := NewBreakerQuoteSource("quotes", next, breakerConfig(), nil)
	_, ok := src.(*BreakerQuoteSource)
	require.True(t, ok)

	for range 3 {
		_, err := src.GetQuote(context.Background(), "SPY", decimal.NewFromInt(450), exp, pricing.Call)
		require.Error(t, err)
		assert.False(t, IsSourceFailure(err))
	}

	_, err := src.GetQuote(context.Background(), "SPY", decimal.NewFromInt(450), exp, pricing.Call)
	assert.True(t, IsSourceFailure(err), "%v", err)
	assert.EqualValues(t, 3, next.calls.Load(), "open breaker must not reach the source")

	// 标的价格不经过熔断器
	_, _, err = src.GetUnderlyingPrice(context.Background(), "SPY")
	assert.EqualError(t, err, "gateway timeout")
	assert.EqualValues(t, 4, next.calls.Load())
}

func TestBreakerQuoteSource_LegTimeoutsDoNotTrip(t *testing.T) {
	for _, cause := range []error{context.DeadlineExceeded, context.Canceled} {
		next := &flakySource{err: fmt.Errorf("read quote: %w", cause)}
		src := NewBreakerQuoteSource("quotes", next, breakerConfig(), nil)

		for range 10 {
			q, err := src.GetQuote(context.Background(), "SPY", decimal.NewFromInt(450), exp, pricing.Call)
			assert.ErrorIs(t, err, cause)
			assert.False(t, IsSourceFailure(err))
			assert.Nil(t, q)
		}
		assert.EqualValues(t, 10, next.calls.Load(), "breaker must stay closed")
	}
}

func TestBreakerQuoteSource_AbsentQuoteIsSuccess(t *testing.T) {
	next := &flakySource{}
	src := NewBreakerQuoteSource("quotes", next, breakerConfig(), nil).(*BreakerQuoteSource)
	for range 5 {
		q, err := src.GetQuote(context.Background(), "SPY", decimal.NewFromInt(450), exp, pricing.Call)
		require.NoError(t, err)
		assert.Nil(t, q)
	}
	p, ok, err := src.GetUnderlyingPrice(context.Background(), "SPY")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "100", p.String())
	assert.EqualValues(t, 6, next.calls.Load())
}

func TestBreakerQuoteSource_Disabled(t *testing.T) {
	next := &flakySource{}
	cfg := breakerConfig()
	cfg.Enabled = false
	assert.Same(t, next, NewBreakerQuoteSource("quotes", next, cfg, nil))
}
