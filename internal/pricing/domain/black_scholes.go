package domain

import (
	"math"

)

// Pricer Black-Scholes 定价器
// 无状态、并发安全；无风险利率在构造时确定。
type Pricer struct {
	riskFreeRate float64
}

// NewPricer 创建定价器
func NewPricer(riskFreeRate float64) *Pricer {
	return &Pricer{riskFreeRate: riskFreeRate}
}

// d1d2 计算 d1 与 d2，要求 vol 与 t 均为正
func (p *Pricer) d1d2(s, k, t, vol, q float64) (float64, float64, error) {
	if vol <= 0 || t <= 0 {
		return 0, 0, NewValidationError("volatility and time must be positive (vol=%v, t=%v)", vol, t)
	}
	if s <= 0 || k <= 0 {
		return 0, 0, NewValidationError("spot and strike must be positive (s=%v, k=%v)", s, k)
	}
	sqrtT := math.Sqrt(t)
	d1 := (math.Log(s/k) + (p.riskFreeRate-q+0.5*vol*vol)*t) / (vol * sqrtT)
	return d1, d1 - vol*sqrtT, nil
}

// Price 计算期权理论价格
// 到期时间不足约 1 小时时直接返回内在价值；否则闭式结果下限为 MinOptionPrice。
func (p *Pricer) Price(right OptionRight, s, k, days, vol, q float64) float64 {
	t := YearsToExpiry(days)
	if t <= MinTimeToExpiry {
		return Intrinsic(right, s, k)
	}

	d1, d2, err := p.d1d2(s, k, t, vol, q)
	if err != nil {
		return Intrinsic(right, s, k)
	}

	r := p.riskFreeRate
	var price float64
	if right == Call {
		price = s*math.Exp(-q*t)*normCDF(d1) - k*math.Exp(-r*t)*normCDF(d2)
	} else {
		price = k*math.Exp(-r*t)*normCDF(-d2) - s*math.Exp(-q*t)*normCDF(-d1)
	}
	return max(price, MinOptionPrice)
}

// Greeks 计算希腊字母
func (p *Pricer) Greeks(right OptionRight, s, k, days, vol, q float64) GreeksResult {
	t := YearsToExpiry(days)
	if t <= MinTimeToExpiry {
		return expiryGreeks(right, s, k)
	}

	d1, d2, err := p.d1d2(s, k, t, vol, q)
	if err != nil {
		return expiryGreeks(right, s, k)
	}

	r := p.riskFreeRate
	sqrtT := math.Sqrt(t)
	expQT := math.Exp(-q * t)
	expRT := math.Exp(-r * t)
	pdfD1 := normPDF(d1)

	g := GreeksResult{
		Gamma: expQT * pdfD1 / (s * vol * sqrtT),
		Vega:  s * expQT * pdfD1 * sqrtT * 0.01,
	}

	decay := -s * expQT * pdfD1 * vol / (2 * sqrtT)
	if right == Call {
		g.Delta = expQT * normCDF(d1)
		g.Theta = (decay - r*k*expRT*normCDF(d2) + q*s*expQT*normCDF(d1)) / DaysPerYear
		g.Rho = k * t * expRT * normCDF(d2) * 0.01
	} else {
		g.Delta = expQT * (normCDF(d1) - 1)
		g.Theta = (decay + r*k*expRT*normCDF(-d2) - q*s*expQT*normCDF(-d1)) / DaysPerYear
		g.Rho = -k * t * expRT * normCDF(-d2) * 0.01
	}
	return g
}

// expiryGreeks 到期时的平凡希腊字母：实值 delta 为 ±1，其余为 0
func expiryGreeks(right OptionRight, s, k float64) GreeksResult {
	switch {
	case right == Call && s > k:
		return GreeksResult{Delta: 1}
	case right == Put && s < k:
		return GreeksResult{Delta: -1}
	default:
		return GreeksResult{}
	}
}

// normCDF 标准正态分布累积分布函数
func normCDF(x float64) float64 {
	return 0.5 * math.Erfc(-x/math.Sqrt2)
}

// normPDF 标准正态分布概率密度函数
func normPDF(x float64) float64 {
	return math.Exp(-x*x/2) / math.Sqrt(2*math.Pi)
}
