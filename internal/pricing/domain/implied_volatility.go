package domain

import "math"

const (
	// MinVolatility 牛顿迭代中的波动率下限
	MinVolatility = 0.001
	// MaxVolatility 牛顿迭代中的波动率上限
	MaxVolatility = 5.0

	minVega = 1e-10
)

// IVParams 隐含波动率求解参数
type IVParams struct {
	Precision     float64 // 价格误差容忍度
	MaxIterations int
}

// DefaultIVParams 默认求解参数
func DefaultIVParams() IVParams {
	return IVParams{Precision: 1e-4, MaxIterations: 100}
}

// ImpliedVolatility 使用默认参数求解隐含波动率
func (p *Pricer) ImpliedVolatility(right OptionRight, target, s, k, days, q float64) (float64, bool) {
	return p.ImpliedVolatilityWithParams(right, target, s, k, days, q, DefaultIVParams())
}

// ImpliedVolatilityWithParams 牛顿法求解隐含波动率
// 未收敛或临近到期时返回 false。
func (p *Pricer) ImpliedVolatilityWithParams(right OptionRight, target, s, k, days, q float64, params IVParams) (float64, bool) {
	if YearsToExpiry(days) <= MinTimeToExpiry || target <= 0 || s <= 0 || k <= 0 {
		return 0, false
	}
	if params.Precision <= 0 {
		params.Precision = DefaultIVParams().Precision
	}
	if params.MaxIterations <= 0 {
		params.MaxIterations = DefaultIVParams().MaxIterations
	}

	vol := initialGuess(right, s, k)
	for range params.MaxIterations {
		diff := p.Price(right, s, k, days, vol, q) - target
		if math.Abs(diff) < params.Precision {
			return vol, true
		}
		vega := max(p.Greeks(right, s, k, days, vol, q).Vega, minVega)
		// vega 为每 1% 波动率的价格变动
		vol -= diff / (vega * 100)
		vol = min(max(vol, MinVolatility), MaxVolatility)
	}
	return 0, false
}

// initialGuess 按价值状态选择初始波动率
func initialGuess(right OptionRight, s, k float64) float64 {
	m := s / k
	if m >= 0.8 && m <= 1.2 {
		return 0.3
	}
	otm := (right == Call && m < 0.8) || (right == Put && m > 1.2)
	if otm {
		return 0.5
	}
	return 0.2
}
