package quote

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"github.com/wyfcoding/pkg/breaker"
	configpkg "github.com/wyfcoding/pkg/config"
	wmetrics "github.com/wyfcoding/pkg/metrics"

	pricing "github.com/wyfcoding/optionstrategy/internal/pricing/domain"
	"github.com/wyfcoding/optionstrategy/internal/strategy/domain"
	"github.com/wyfcoding/optionstrategy/pkg/config"
)

// BreakerQuoteSource 熔断保护的期权报价读取
// 熔断打开时返回行情源故障，计算器据此整体回退为估算。
// 标的价格读取不经过熔断器，报价源熔断不影响标的价格解析。
type BreakerQuoteSource struct {
	next domain.QuoteSource
	cb   *breaker.Breaker
}

// NewBreakerQuoteSource 包装行情源；cfg.Enabled 为 false 时返回 next 本身
// m 为 nil 时不导出熔断状态指标；同一 m 只能用于一个熔断器。
func NewBreakerQuoteSource(name string, next domain.QuoteSource, cfg config.BreakerConfig, m *wmetrics.Metrics) domain.QuoteSource {
	if !cfg.Enabled {
		return next
	}

	cb := breaker.NewBreaker(breaker.Settings{
		Name:   name,
		Config: configpkg.CircuitBreakerConfig{
			Enabled:     true,
			MaxRequests: cfg.MaxRequests,
			Interval:    cfg.Interval,
			Timeout:     cfg.Timeout,
		},
		FailureRatio: cfg.FailureRatio,
		MinRequests:  cfg.MinRequests,
	}, m)

	return &BreakerQuoteSource{next: next, cb: cb}
}

type quoteReply struct {
	q   *domain.Quote
	err error
}

func (b *BreakerQuoteSource) GetQuote(ctx context.Context, symbol string, strike decimal.Decimal, expiration time.Time, right pricing.OptionRight) (*domain.Quote, error) {
	res, err := b.cb.Execute(func() (any, error) {
		q, err := b.next.GetQuote(ctx, symbol, strike, expiration, right)
		// 单腿超时与调用方取消按无报价处理，不计入熔断
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return quoteReply{err: err}, nil
		}
		return quoteReply{q: q}, err
	})
	if err != nil {
		return nil, mapBreakerError(err)
	}
	r := res.(quoteReply)
	return r.q, r.err
}

func (b *BreakerQuoteSource) GetUnderlyingPrice(ctx context.Context, symbol string) (decimal.Decimal, bool, error) {
	return b.next.GetUnderlyingPrice(ctx, symbol)
}

func mapBreakerError(err error) error {
	if errors.Is(err, breaker.ErrServiceUnavailable) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return sourceFailure("quote source circuit breaker is open", err)
	}
	return err
}
