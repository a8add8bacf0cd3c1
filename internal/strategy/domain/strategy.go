package domain

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"

	pricing "github.com/wyfcoding/optionstrategy/internal/pricing/domain"
)

// DataSource 策略结果整体数据来源
type DataSource string

const (
	DataSourceRealtime  DataSource = "ib_realtime"
	DataSourceEstimated DataSource = "estimated"
	DataSourceMixed     DataSource = "mixed"
)

// VolatilitySource 腿的波动率来源
type VolatilitySource string

const (
	VolFromQuote   VolatilitySource = "quote"
	VolFromImplied VolatilitySource = "implied"
	VolFromDefault VolatilitySource = "default"
)

// StrategyLeg 已解析价格的策略腿
// Price 为每股价格；Value 为带符号的总金额（卖出为正）。
type StrategyLeg struct {
	Contract         OptionContractSpec   `json:"contract"`
	Quote            *Quote               `json:"quote,omitempty"`
	Price            decimal.Decimal      `json:"price"`
	Value            decimal.Decimal      `json:"value"`
	Volatility       float64              `json:"volatility"`
	VolatilitySource VolatilitySource     `json:"volatility_source"`
	Greeks           pricing.GreeksResult `json:"greeks"`
	Provenance       QuoteProvenance      `json:"provenance"`
	EstimateReason   EstimateReason       `json:"estimate_reason,omitempty"`
}

// IsEstimated 是否为模型估算
func (l StrategyLeg) IsEstimated() bool {
	return l.Provenance == ProvenanceEstimated
}

// StrategyResult 策略级计算结果
// 金额字段为币种原生单位的合计值，盈亏平衡点为标的每股价格。
type StrategyResult struct {
	Strategy            pricing.SpreadType   `json:"strategy"`
	Symbol              string               `json:"symbol"`
	Expiration          Date                 `json:"expiration"`
	Strikes             []decimal.Decimal    `json:"strikes"`
	Contracts           int                  `json:"contracts"`
	UnderlyingPrice     decimal.Decimal      `json:"underlying_price"`
	DaysToExpiration    int                  `json:"days_to_expiration"`
	NetCredit           decimal.Decimal      `json:"net_credit"`
	NetDebit            decimal.Decimal      `json:"net_debit"`
	MaxProfit           decimal.Decimal      `json:"max_profit"`
	MaxLoss             decimal.Decimal      `json:"max_loss"`
	Breakevens          []decimal.Decimal    `json:"breakevens"`
	ProbabilityOfProfit float64              `json:"probability_of_profit"`
	Greeks              pricing.GreeksResult `json:"greeks"`
	Legs                []StrategyLeg        `json:"legs"`
	DataSource          DataSource           `json:"data_source"`
	FullFallback        bool                 `json:"full_fallback"`
	CalculatedAt        time.Time            `json:"calculated_at"`
}

// Clone 复制结果及其切片字段；各腿的 Quote 指针共享，只读
func (r *StrategyResult) Clone() *StrategyResult {
	if r == nil {
		return nil
	}
	out := *r
	out.Strikes = slices.Clone(r.Strikes)
	out.Breakevens = slices.Clone(r.Breakevens)
	out.Legs = slices.Clone(r.Legs)
	return &out
}

// EstimatedLegs 估算腿数量
func (r *StrategyResult) EstimatedLegs() int {
	n := 0
	for _, l := range r.Legs {
		if l.IsEstimated() {
			n++
		}
	}
	return n
}

// ClassifyDataSource 全部实时为 ib_realtime，全部估算为 estimated，否则为 mixed
func ClassifyDataSource(legs []StrategyLeg) DataSource {
	live, estimated := 0, 0
	for _, l := range legs {
		if l.IsEstimated() {
			estimated++
		} else {
			live++
		}
	}
	switch {
	case estimated == 0:
		return DataSourceRealtime
	case live == 0:
		return DataSourceEstimated
	default:
		return DataSourceMixed
	}
}
