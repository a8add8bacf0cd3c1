package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc/pool"
	"golang.org/x/sync/singleflight"

	pricing "github.com/wyfcoding/optionstrategy/internal/pricing/domain"
	"github.com/wyfcoding/optionstrategy/internal/strategy/domain"
	"github.com/wyfcoding/optionstrategy/pkg/logger"
	"github.com/wyfcoding/optionstrategy/pkg/metrics"
	"github.com/wyfcoding/pkg/xerrors"
)

const (
	pricePlaces = 4
	moneyPlaces = 2
)

// StrategyCalculator 多腿期权策略计算器
// 优先使用实时报价，缺失的腿由定价器估算；行情源故障时整体回退为估算。
type StrategyCalculator struct {
	pricer    *pricing.Pricer
	quotes    domain.QuoteSource
	cache     *ResultCache
	publisher domain.EventPublisher
	metrics   *metrics.Metrics
	group     singleflight.Group
	now       func() time.Time

	cacheTTL          time.Duration
	maxCacheEntries   int
	quoteTimeout      time.Duration
	publishTimeout    time.Duration
	defaultVol        float64
	dividendYield     float64
	multiplier        int64
	maxConcurrentLegs int
}

// NewStrategyCalculator 创建计算器
func NewStrategyCalculator(pricer *pricing.Pricer, quotes domain.QuoteSource, opts ...Option) *StrategyCalculator {
	c := &StrategyCalculator{
		pricer:            pricer,
		quotes:            quotes,
		now:               time.Now,
		cacheTTL:          DefaultCacheTTL,
		maxCacheEntries:   DefaultMaxCacheEntries,
		quoteTimeout:      DefaultQuoteTimeout,
		publishTimeout:    DefaultPublishTimeout,
		defaultVol:        DefaultVolatility,
		multiplier:        DefaultContractMultiplier,
		maxConcurrentLegs: DefaultMaxConcurrentLegs,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.cache = NewResultCache(c.cacheTTL, c.maxCacheEntries, c.now)
	return c
}

// Calculate 计算策略结果
// 校验失败返回参数校验错误，无法获得标的价格返回 *domain.DataUnavailableError；
// 报价缺失或行情源故障不会导致失败，而是体现在 DataSource 中。
func (c *StrategyCalculator) Calculate(ctx context.Context, cmd CalculateStrategyCommand) (*domain.StrategyResult, error) {
	plan, err := newPlan(cmd, cmd.Expiration.DaysFrom(c.now()))
	if err != nil {
		return nil, err
	}

	key := plan.cacheKey()
	if res, ok := c.cache.Get(key); ok {
		c.metrics.RecordCacheHit()
		c.log(ctx).Debug("strategy cache hit", "key", key)
		return res, nil
	}
	c.metrics.RecordCacheMiss()

	// 同一键的并发未命中只计算一次；计算不随单个调用方取消
	v, err, shared := c.group.Do(key, func() (any, error) {
		if res, ok := c.cache.Get(key); ok {
			return res, nil
		}
		computeCtx := context.WithoutCancel(ctx)
		res, err := c.compute(computeCtx, plan)
		if err != nil {
			return nil, err
		}
		c.cache.Set(key, res)
		c.publish(computeCtx, res)
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	res := v.(*domain.StrategyResult)
	if shared {
		return res.Clone(), nil
	}
	return res, nil
}

func (c *StrategyCalculator) compute(ctx context.Context, plan *calculationPlan) (*domain.StrategyResult, error) {
	start := time.Now()

	legs, err := plan.buildLegs()
	if err != nil {
		return nil, err
	}
	underlying, err := c.resolveUnderlying(ctx, plan)
	if err != nil {
		return nil, err
	}

	fetches := c.fetchLegs(ctx, legs)
	fallback := false
	for i, f := range fetches {
		if f.Outcome == domain.FetchUnavailable {
			fallback = true
			c.log(ctx).Warn("quote source failed, falling back to estimates for all legs",
				"symbol", plan.symbol, "strike", legs[i].Strike.String(), "right", legs[i].Right, "error", f.Err)
			break
		}
	}
	if fallback {
		c.metrics.RecordFullFallback(string(plan.strategy))
		for i := range fetches {
			fetches[i] = domain.Estimated(domain.ReasonFallback)
		}
	}

	s := underlying.InexactFloat64()
	resolved := make([]domain.StrategyLeg, len(legs))
	for i, leg := range legs {
		resolved[i] = c.resolveLeg(leg, fetches[i], s, plan.days)
		if resolved[i].IsEstimated() {
			c.metrics.RecordLegEstimate(string(resolved[i].EstimateReason))
		}
	}

	res, err := c.aggregate(plan, underlying, resolved)
	if err != nil {
		return nil, err
	}
	res.FullFallback = fallback

	if res.DataSource != domain.DataSourceRealtime && !fallback {
		c.log(ctx).Warn("strategy calculated with estimated legs",
			"strategy", plan.strategy, "symbol", plan.symbol, "estimated_legs", res.EstimatedLegs(), "legs", len(resolved))
	}
	c.metrics.RecordCalculation(string(plan.strategy), string(res.DataSource), time.Since(start))
	return res, nil
}

// resolveUnderlying 调用方给定的价格优先，其次查询行情源
func (c *StrategyCalculator) resolveUnderlying(ctx context.Context, plan *calculationPlan) (decimal.Decimal, error) {
	if plan.override != nil {
		return *plan.override, nil
	}

	type reply struct {
		price decimal.Decimal
		ok    bool
	}
	r, err := callWithTimeout(ctx, c.quoteTimeout, func(ctx context.Context) (reply, error) {
		price, ok, err := c.quotes.GetUnderlyingPrice(ctx, plan.symbol)
		return reply{price, ok}, err
	})
	if err != nil {
		return decimal.Zero, &domain.DataUnavailableError{Symbol: plan.symbol, Cause: err}
	}
	if !r.ok || !r.price.IsPositive() {
		return decimal.Zero, &domain.DataUnavailableError{Symbol: plan.symbol}
	}
	return r.price, nil
}

// fetchLegs 并发获取各腿报价，结果顺序与 legs 一致
func (c *StrategyCalculator) fetchLegs(ctx context.Context, legs []domain.OptionContractSpec) []domain.QuoteFetch {
	fetches := make([]domain.QuoteFetch, len(legs))
	p := pool.New().WithMaxGoroutines(c.maxConcurrentLegs)
	for i, leg := range legs {
		p.Go(func() {
			fetches[i] = c.fetchLeg(ctx, leg)
		})
	}
	p.Wait()
	return fetches
}

func (c *StrategyCalculator) fetchLeg(ctx context.Context, leg domain.OptionContractSpec) domain.QuoteFetch {
	start := time.Now()
	q, err := callWithTimeout(ctx, c.quoteTimeout, func(ctx context.Context) (*domain.Quote, error) {
		return c.quotes.GetQuote(ctx, leg.Symbol, leg.Strike, leg.Expiration.Time, leg.Right)
	})

	var f domain.QuoteFetch
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		f = domain.Estimated(domain.ReasonTimeout)
	case err != nil:
		f = domain.Unavailable(err)
	case q == nil:
		f = domain.Estimated(domain.ReasonNoQuote)
	default:
		if _, ok := q.ReferencePrice(); ok {
			f = domain.Live(q)
		} else {
			f = domain.Estimated(domain.ReasonNoPrice)
		}
	}
	c.metrics.RecordQuoteFetch(f.Outcome.String(), time.Since(start))
	return f
}

// resolveLeg 确定单腿价格、波动率与希腊字母
func (c *StrategyCalculator) resolveLeg(spec domain.OptionContractSpec, f domain.QuoteFetch, s float64, days int) domain.StrategyLeg {
	k := spec.Strike.InexactFloat64()
	t := float64(days)
	q := c.dividendYield
	leg := domain.StrategyLeg{Contract: spec}

	if f.Outcome == domain.FetchLive {
		price, _ := f.Quote.ReferencePrice()
		leg.Quote = f.Quote
		leg.Price = price
		leg.Provenance = domain.ProvenanceLive

		if iv, ok := c.pricer.ImpliedVolatility(spec.Right, price.InexactFloat64(), s, k, t, q); ok {
			leg.Volatility, leg.VolatilitySource = iv, domain.VolFromImplied
		} else if f.Quote.ImpliedVolatility != nil && *f.Quote.ImpliedVolatility > 0 {
			leg.Volatility, leg.VolatilitySource = *f.Quote.ImpliedVolatility, domain.VolFromQuote
		} else {
			leg.Volatility, leg.VolatilitySource = c.defaultVol, domain.VolFromDefault
		}
		if f.Quote.Greeks != nil {
			leg.Greeks = *f.Quote.Greeks
		} else {
			leg.Greeks = c.pricer.Greeks(spec.Right, s, k, t, leg.Volatility, q)
		}
	} else {
		vol := c.defaultVol
		estimate := c.pricer.Price(spec.Right, s, k, t, vol, q)
		greeks := c.pricer.Greeks(spec.Right, s, k, t, vol, q)

		leg.Price = decimal.NewFromFloat(estimate).Round(pricePlaces)
		leg.Volatility, leg.VolatilitySource = vol, domain.VolFromDefault
		leg.Greeks = greeks
		leg.Provenance = domain.ProvenanceEstimated
		leg.EstimateReason = f.Reason
		leg.Quote = &domain.Quote{
			Last:              decimal.NewNullDecimal(leg.Price),
			Greeks:            &greeks,
			ImpliedVolatility: &vol,
			Timestamp:         c.now(),
			Provenance:        domain.ProvenanceEstimated,
		}
	}

	leg.Value = leg.Price.
		Mul(decimal.NewFromInt(int64(spec.Quantity) * c.multiplier)).
		Mul(decimal.NewFromInt(spec.Action.Sign()))
	return leg
}

// aggregate 汇总各腿为策略结果
func (c *StrategyCalculator) aggregate(plan *calculationPlan, underlying decimal.Decimal, legs []domain.StrategyLeg) (*domain.StrategyResult, error) {
	contracts := decimal.NewFromInt(int64(plan.contracts))
	perContract := decimal.NewFromInt(c.multiplier).Mul(contracts)

	// 每股净权利金，收入为正
	netPerShare := decimal.Zero
	var greeks pricing.GreeksResult
	var volSum float64
	for _, l := range legs {
		ratio := decimal.NewFromInt(int64(l.Contract.Quantity)).Div(contracts)
		netPerShare = netPerShare.Add(l.Price.Mul(ratio).Mul(decimal.NewFromInt(l.Contract.Action.Sign())))
		greeks = greeks.Add(l.Greeks, float64(-l.Contract.Action.Sign()*int64(l.Contract.Quantity)))
		volSum += l.Volatility
	}

	maxProfit, maxLoss, breakevens := pricing.RiskProfile(plan.strategy, plan.strikesF, netPerShare.InexactFloat64())
	meanVol := volSum / float64(len(legs))
	pop, err := c.pricer.ProbabilityFromBreakevens(plan.strategy, underlying.InexactFloat64(), breakevens, float64(plan.days), meanVol, c.dividendYield)
	if err != nil {
		return nil, xerrors.Internal("probability of profit", err)
	}

	res := &domain.StrategyResult{
		Strategy:            plan.strategy,
		Symbol:              plan.symbol,
		Expiration:          plan.expiration,
		Strikes:             plan.strikes,
		Contracts:           plan.contracts,
		UnderlyingPrice:     underlying,
		DaysToExpiration:    plan.days,
		MaxProfit:           decimal.NewFromFloat(maxProfit).Mul(perContract).Round(moneyPlaces),
		MaxLoss:             decimal.NewFromFloat(maxLoss).Mul(perContract).Round(moneyPlaces),
		ProbabilityOfProfit: pop,
		Greeks:              greeks,
		Legs:                legs,
		DataSource:          domain.ClassifyDataSource(legs),
		CalculatedAt:        c.now(),
	}
	if netPerShare.IsPositive() {
		res.NetCredit = netPerShare.Mul(perContract).Round(moneyPlaces)
	} else {
		res.NetDebit = netPerShare.Neg().Mul(perContract).Round(moneyPlaces)
	}
	for _, b := range breakevens {
		res.Breakevens = append(res.Breakevens, decimal.NewFromFloat(b).Round(pricePlaces))
	}
	return res, nil
}

func (c *StrategyCalculator) publish(ctx context.Context, res *domain.StrategyResult) {
	if c.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, c.publishTimeout)
	defer cancel()

	event := domain.NewStrategyCalculatedEvent(uuid.NewString(), res, c.now())
	if err := c.publisher.PublishStrategyCalculated(ctx, event); err != nil {
		c.log(ctx).Error("failed to publish strategy event",
			"strategy", res.Strategy, "symbol", res.Symbol, "error", err)
	}
}

func (c *StrategyCalculator) log(ctx context.Context) *slog.Logger {
	return logger.WithContext(ctx).With("module", "strategy_calculator")
}

// callWithTimeout 即使 fn 不响应取消也在超时后返回
func callWithTimeout[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type reply struct {
		v   T
		err error
	}
	ch := make(chan reply, 1)
	go func() {
		v, err := fn(ctx)
		ch <- reply{v, err}
	}()

	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
