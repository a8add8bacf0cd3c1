package application

import (
	"time"

	"github.com/wyfcoding/optionstrategy/internal/strategy/domain"
	"github.com/wyfcoding/optionstrategy/pkg/metrics"
)

const (
	DefaultCacheTTL           = 5 * time.Second
	DefaultQuoteTimeout       = 1500 * time.Millisecond
	DefaultPublishTimeout     = 2 * time.Second
	DefaultVolatility         = 0.25
	DefaultContractMultiplier = 100
	DefaultMaxConcurrentLegs  = 4
	DefaultMaxCacheEntries    = 10000
)

// Option 计算器配置项
type Option func(*StrategyCalculator)

// WithCacheTTL 结果缓存有效期
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *StrategyCalculator) {
		if ttl > 0 {
			c.cacheTTL = ttl
		}
	}
}

// WithMaxCacheEntries 超过该条目数时写入会清理过期条目
func WithMaxCacheEntries(n int) Option {
	return func(c *StrategyCalculator) { c.maxCacheEntries = n }
}

// WithClock 注入时钟
func WithClock(now func() time.Time) Option {
	return func(c *StrategyCalculator) {
		if now != nil {
			c.now = now
		}
	}
}

// WithEventPublisher 计算完成后发布事件
func WithEventPublisher(p domain.EventPublisher) Option {
	return func(c *StrategyCalculator) { c.publisher = p }
}

// WithMetrics 指标采集
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *StrategyCalculator) { c.metrics = m }
}

// WithDefaultVolatility 无报价或无法反解时使用的波动率
func WithDefaultVolatility(vol float64) Option {
	return func(c *StrategyCalculator) {
		if vol > 0 {
			c.defaultVol = vol
		}
	}
}

// WithDividendYield 股息率
func WithDividendYield(q float64) Option {
	return func(c *StrategyCalculator) { c.dividendYield = q }
}

// WithContractMultiplier 每份合约对应的标的数量
func WithContractMultiplier(n int64) Option {
	return func(c *StrategyCalculator) {
		if n > 0 {
			c.multiplier = n
		}
	}
}

// WithQuoteTimeout 单腿报价获取超时，超时按无报价处理
func WithQuoteTimeout(d time.Duration) Option {
	return func(c *StrategyCalculator) {
		if d > 0 {
			c.quoteTimeout = d
		}
	}
}

// WithMaxConcurrentLegs 并发获取报价的腿数上限
func WithMaxConcurrentLegs(n int) Option {
	return func(c *StrategyCalculator) {
		if n > 0 {
			c.maxConcurrentLegs = n
		}
	}
}
