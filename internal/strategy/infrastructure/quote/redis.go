// Package quote 行情源适配器：Redis 快照、内存与熔断装饰
package quote

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	pricing "github.com/wyfcoding/optionstrategy/internal/pricing/domain"
	"github.com/wyfcoding/optionstrategy/internal/strategy/domain"
)

// JSONStore 键值 JSON 读取，key 不存在时返回 false
// 由 cache.RedisCache 实现。
type JSONStore interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
}

// quoteRecord Redis 中的期权报价快照，由行情采集进程写入
type quoteRecord struct {
	Bid               decimal.NullDecimal `json:"bid"`
	Ask               decimal.NullDecimal `json:"ask"`
	Last              decimal.NullDecimal `json:"last"`
	Volume            int64               `json:"volume"`
	OpenInterest      int64               `json:"open_interest"`
	Delta             *float64            `json:"delta,omitempty"`
	Gamma             *float64            `json:"gamma,omitempty"`
	Theta             *float64            `json:"theta,omitempty"`
	Vega              *float64            `json:"vega,omitempty"`
	Rho               *float64            `json:"rho,omitempty"`
	ImpliedVolatility *float64            `json:"iv,omitempty"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

type underlyingRecord struct {
	Price     decimal.Decimal `json:"price"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// toQuote 只有五个希腊字母齐全时才携带 Greeks
func (r *quoteRecord) toQuote() *domain.Quote {
	q := &domain.Quote{
		Bid:               r.Bid,
		Ask:               r.Ask,
		Last:              r.Last,
		Volume:            r.Volume,
		OpenInterest:      r.OpenInterest,
		ImpliedVolatility: r.ImpliedVolatility,
		Timestamp:         r.UpdatedAt,
		Provenance:        domain.ProvenanceLive,
	}
	if r.Delta != nil && r.Gamma != nil && r.Theta != nil && r.Vega != nil && r.Rho != nil {
		q.Greeks = &pricing.GreeksResult{Delta: *r.Delta, Gamma: *r.Gamma, Theta: *r.Theta, Vega: *r.Vega, Rho: *r.Rho}
	}
	return q
}

// RedisQuoteSource 从 Redis 读取行情快照
type RedisQuoteSource struct {
	store  JSONStore
	prefix string
	maxAge time.Duration
	now    func() time.Time
}

// RedisOption RedisQuoteSource 配置项
type RedisOption func(*RedisQuoteSource)

// WithMaxAge 超过该时长的快照视为无报价，0 表示不检查
func WithMaxAge(d time.Duration) RedisOption {
	return func(s *RedisQuoteSource) { s.maxAge = d }
}

// WithClock 注入时钟
func WithClock(now func() time.Time) RedisOption {
	return func(s *RedisQuoteSource) { s.now = now }
}

// NewRedisQuoteSource 创建 Redis 行情源
func NewRedisQuoteSource(store JSONStore, prefix string, opts ...RedisOption) *RedisQuoteSource {
	s := &RedisQuoteSource{store: store, prefix: prefix, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// QuoteKey 期权快照键：<prefix>quote:<SYM>:<YYYYMMDD>:<C|P>:<strike>
func QuoteKey(prefix, symbol string, strike decimal.Decimal, expiration time.Time, right pricing.OptionRight) string {
	return fmt.Sprintf("%squote:%s:%s:%s:%s",
		prefix, strings.ToUpper(symbol), expiration.Format("20060102"), right.Code(), strike.String())
}

// UnderlyingKey 标的价格键：<prefix>underlying:<SYM>
func UnderlyingKey(prefix, symbol string) string {
	return prefix + "underlying:" + strings.ToUpper(symbol)
}

func (s *RedisQuoteSource) stale(updatedAt time.Time) bool {
	return s.maxAge > 0 && !updatedAt.IsZero() && s.now().Sub(updatedAt) > s.maxAge
}

// GetQuote 读取期权报价，键不存在或快照过期时返回 (nil, nil)
func (s *RedisQuoteSource) GetQuote(ctx context.Context, symbol string, strike decimal.Decimal, expiration time.Time, right pricing.OptionRight) (*domain.Quote, error) {
	key := QuoteKey(s.prefix, symbol, strike, expiration, right)
	var rec quoteRecord
	found, err := s.store.GetJSON(ctx, key, &rec)
	if err != nil {
		return nil, sourceFailure("read quote snapshot", err).WithDetail("key=%s", key)
	}
	if !found || s.stale(rec.UpdatedAt) {
		return nil, nil
	}
	return rec.toQuote(), nil
}

// GetUnderlyingPrice 读取标的价格
func (s *RedisQuoteSource) GetUnderlyingPrice(ctx context.Context, symbol string) (decimal.Decimal, bool, error) {
	key := UnderlyingKey(s.prefix, symbol)
	var rec underlyingRecord
	found, err := s.store.GetJSON(ctx, key, &rec)
	if err != nil {
		return decimal.Zero, false, sourceFailure("read underlying snapshot", err).WithDetail("key=%s", key)
	}
	if !found || s.stale(rec.UpdatedAt) || !rec.Price.IsPositive() {
		return decimal.Zero, false, nil
	}
	return rec.Price, true, nil
}
