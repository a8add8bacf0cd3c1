package application

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/optionstrategy/internal/pricing/domain"
	"github.com/wyfcoding/optionstrategy/pkg/logger"
)

const pricePlaces = 4

// PricingQueryService 处理所有定价相关的查询操作（Queries）。
type PricingQueryService struct {
	pricer            *domain.Pricer
	dividendYield     float64
	defaultVolatility float64
}

// NewPricingQueryService 构造函数。
func NewPricingQueryService(pricer *domain.Pricer, dividendYield, defaultVolatility float64) *PricingQueryService {
	return &PricingQueryService{
		pricer:            pricer,
		dividendYield:     dividendYield,
		defaultVolatility: defaultVolatility,
	}
}

func (s *PricingQueryService) log(ctx context.Context) *slog.Logger {
	return logger.WithContext(ctx).With("module", "pricing_query")
}

func (s *PricingQueryService) yield(q *float64) float64 {
	if q != nil {
		return *q
	}
	return s.dividendYield
}

// PriceOption 计算期权价格与希腊字母
func (s *PricingQueryService) PriceOption(ctx context.Context, query PriceOptionQuery) (*OptionPriceDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	right, err := domain.ParseOptionRight(query.Right)
	if err != nil {
		return nil, err
	}
	in := domain.PricingInput{
		Right:           right,
		UnderlyingPrice: query.UnderlyingPrice,
		Strike:          query.Strike,
		Days:            query.Days,
		Volatility:      query.Volatility,
		DividendYield:   s.yield(query.DividendYield),
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	price := s.pricer.Price(in.Right, in.UnderlyingPrice, in.Strike, in.Days, in.Volatility, in.DividendYield)
	greeks := s.pricer.Greeks(in.Right, in.UnderlyingPrice, in.Strike, in.Days, in.Volatility, in.DividendYield)
	intrinsic := domain.Intrinsic(right, in.UnderlyingPrice, in.Strike)

	s.log(ctx).Debug("option priced", "right", right, "strike", in.Strike, "days", in.Days, "price", price)
	return &OptionPriceDTO{
		Right:     right,
		Price:     decimal.NewFromFloat(price).Round(pricePlaces),
		Intrinsic: decimal.NewFromFloat(intrinsic).Round(pricePlaces),
		Greeks:    greeks,
	}, nil
}

// ImpliedVolatility 由市场价格反解波动率，未收敛不视为错误
func (s *PricingQueryService) ImpliedVolatility(ctx context.Context, query ImpliedVolatilityQuery) (*ImpliedVolatilityDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	right, err := domain.ParseOptionRight(query.Right)
	if err != nil {
		return nil, err
	}
	if query.MarketPrice <= 0 || query.UnderlyingPrice <= 0 || query.Strike <= 0 {
		return nil, domain.NewValidationError("market price, underlying price and strike must be positive")
	}
	if query.Days < 0 {
		return nil, domain.NewValidationError("days to expiration must be non-negative, got %v", query.Days)
	}

	vol, ok := s.pricer.ImpliedVolatility(right, query.MarketPrice, query.UnderlyingPrice, query.Strike, query.Days, s.yield(query.DividendYield))
	if !ok {
		s.log(ctx).Info("implied volatility did not converge",
			"right", right, "market_price", query.MarketPrice, "strike", query.Strike, "days", query.Days)
		return &ImpliedVolatilityDTO{}, nil
	}
	return &ImpliedVolatilityDTO{Converged: true, Volatility: &vol}, nil
}

// AnalyzeSpread 计算理论价差风险指标与盈利概率
func (s *PricingQueryService) AnalyzeSpread(ctx context.Context, query SpreadQuery) (*SpreadDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	st, err := domain.ParseSpreadType(query.Type)
	if err != nil {
		return nil, err
	}
	vols := query.Volatilities
	if len(vols) == 0 {
		vols = []float64{s.defaultVolatility}
	}
	q := s.yield(query.DividendYield)

	res, err := s.pricer.Spread(st, query.UnderlyingPrice, query.Strikes, query.Days, vols, q)
	if err != nil {
		return nil, err
	}

	var sum float64
	for _, v := range vols {
		sum += v
	}
	pop, err := s.pricer.ProbabilityFromBreakevens(st, query.UnderlyingPrice, res.Breakevens, query.Days, sum/float64(len(vols)), q)
	if err != nil {
		return nil, err
	}
	return &SpreadDTO{SpreadResult: res, ProbabilityOfProfit: pop}, nil
}
