// Package domain 定价领域模型：Black-Scholes 定价、希腊字母、隐含波动率与价差风险
package domain

import (
	"strings"

)

const (
	// DaysPerYear 年化天数（日历日）
	DaysPerYear = 365.0
	// MinTimeToExpiry 约 1 小时的年化时间，低于该值时不再使用闭式公式
	MinTimeToExpiry = 1.0 / 8760.0
	// MinOptionPrice 闭式公式价格下限
	MinOptionPrice = 0.01
)

// OptionRight 期权方向
type OptionRight string

const (
	Call OptionRight = "call" // 看涨期权
	Put  OptionRight = "put"  // 看跌期权
)

// ParseOptionRight 解析期权方向，兼容 CALL/PUT/C/P
func ParseOptionRight(s string) (OptionRight, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "call", "c":
		return Call, nil
	case "put", "p":
		return Put, nil
	default:
		return "", NewValidationError("invalid option right %q: supported types: call, put", s)
	}
}

// Code 单字母代码，用于行情键
func (r OptionRight) Code() string {
	if r == Put {
		return "P"
	}
	return "C"
}

// GreeksResult 希腊字母（单份合约口径）
// Theta 为每日历日，Vega 为波动率变动 1 个百分点，Rho 为利率变动 1 个百分点。
type GreeksResult struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	Rho   float64 `json:"rho"`
}

// Add 按权重累加
func (g GreeksResult) Add(o GreeksResult, weight float64) GreeksResult {
	return GreeksResult{
		Delta: g.Delta + o.Delta*weight,
		Gamma: g.Gamma + o.Gamma*weight,
		Theta: g.Theta + o.Theta*weight,
		Vega:  g.Vega + o.Vega*weight,
		Rho:   g.Rho + o.Rho*weight,
	}
}

// PricingInput 单个期权的定价输入
type PricingInput struct {
	Right           OptionRight `json:"right"`
	UnderlyingPrice float64     `json:"underlying_price"`
	Strike          float64     `json:"strike"`
	Days            float64     `json:"days"`
	Volatility      float64     `json:"volatility"`
	DividendYield   float64     `json:"dividend_yield"`
}

// Validate 校验输入范围
func (in PricingInput) Validate() error {
	if in.Right != Call && in.Right != Put {
		return NewValidationError("invalid option right %q", in.Right)
	}
	if in.UnderlyingPrice <= 0 {
		return NewValidationError("underlying price must be positive, got %v", in.UnderlyingPrice)
	}
	if in.Strike <= 0 {
		return NewValidationError("strike must be positive, got %v", in.Strike)
	}
	if in.Days < 0 {
		return NewValidationError("days to expiration must be non-negative, got %v", in.Days)
	}
	if in.Volatility <= 0 {
		return NewValidationError("volatility must be positive, got %v", in.Volatility)
	}
	return nil
}

// YearsToExpiry 将日历日转换为年
func YearsToExpiry(days float64) float64 {
	return days / DaysPerYear
}

// Intrinsic 内在价值
func Intrinsic(right OptionRight, s, k float64) float64 {
	if right == Call {
		return max(0, s-k)
	}
	return max(0, k-s)
}
