package application

import (
	"github.com/shopspring/decimal"

	"github.com/wyfcoding/optionstrategy/internal/pricing/domain"
)

// PriceOptionQuery 单个期权定价查询
// DividendYield 为空时使用服务默认股息率。
type PriceOptionQuery struct {
	Right           string
	UnderlyingPrice float64
	Strike          float64
	Days            float64
	Volatility      float64
	DividendYield   *float64
}

// ImpliedVolatilityQuery 隐含波动率查询
type ImpliedVolatilityQuery struct {
	Right           string
	MarketPrice     float64
	UnderlyingPrice float64
	Strike          float64
	Days            float64
	DividendYield   *float64
}

// SpreadQuery 理论价差分析查询
// Volatilities 为空时使用默认波动率，长度为 1 时所有腿共用。
type SpreadQuery struct {
	Type            string
	UnderlyingPrice float64
	Strikes         []float64
	Days            float64
	Volatilities    []float64
	DividendYield   *float64
}

// OptionPriceDTO 定价结果
type OptionPriceDTO struct {
	Right     domain.OptionRight  `json:"right"`
	Price     decimal.Decimal     `json:"price"`
	Intrinsic decimal.Decimal     `json:"intrinsic"`
	Greeks    domain.GreeksResult `json:"greeks"`
}

// ImpliedVolatilityDTO 隐含波动率结果，未收敛时 Volatility 为空
type ImpliedVolatilityDTO struct {
	Converged  bool     `json:"converged"`
	Volatility *float64 `json:"volatility,omitempty"`
}

// SpreadDTO 价差分析结果
type SpreadDTO struct {
	*domain.SpreadResult
	ProbabilityOfProfit float64 `json:"probability_of_profit"`
}
