package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	pricing "github.com/wyfcoding/optionstrategy/internal/pricing/domain"
)

// QuoteProvenance 报价来源标签
type QuoteProvenance string

const (
	ProvenanceLive      QuoteProvenance = "live"
	ProvenanceEstimated QuoteProvenance = "estimated"
)

// Quote 单个合约的报价快照，每次计算重新获取
// 缺失的希腊字母与隐含波动率为 nil，不以 0 代替。
type Quote struct {
	Bid               decimal.NullDecimal   `json:"bid"`
	Ask               decimal.NullDecimal   `json:"ask"`
	Last              decimal.NullDecimal   `json:"last"`
	Volume            int64                 `json:"volume"`
	OpenInterest      int64                 `json:"open_interest"`
	Greeks            *pricing.GreeksResult `json:"greeks,omitempty"`
	ImpliedVolatility *float64              `json:"implied_volatility,omitempty"`
	Timestamp         time.Time             `json:"timestamp"`
	Provenance        QuoteProvenance       `json:"provenance"`
}

// ReferencePrice 双边报价取中间价，否则取最新成交价；都没有时返回 false
func (q *Quote) ReferencePrice() (decimal.Decimal, bool) {
	if q == nil {
		return decimal.Zero, false
	}
	if q.Bid.Valid && q.Ask.Valid && q.Bid.Decimal.IsPositive() && q.Ask.Decimal.IsPositive() {
		return q.Bid.Decimal.Add(q.Ask.Decimal).Div(decimal.NewFromInt(2)), true
	}
	if q.Last.Valid && q.Last.Decimal.IsPositive() {
		return q.Last.Decimal, true
	}
	return decimal.Zero, false
}

// QuoteSource 外部行情源
// GetQuote 返回 (nil, nil) 表示无报价；error 仅表示行情源本身故障。
type QuoteSource interface {
	GetQuote(ctx context.Context, symbol string, strike decimal.Decimal, expiration time.Time, right pricing.OptionRight) (*Quote, error)
	GetUnderlyingPrice(ctx context.Context, symbol string) (decimal.Decimal, bool, error)
}

// FetchOutcome 单腿报价获取结果
type FetchOutcome int

const (
	FetchLive FetchOutcome = iota
	FetchEstimated
	FetchUnavailable
)

func (o FetchOutcome) String() string {
	switch o {
	case FetchLive:
		return "live"
	case FetchEstimated:
		return "estimated"
	default:
		return "unavailable"
	}
}

// EstimateReason 估算原因
type EstimateReason string

const (
	ReasonNoQuote  EstimateReason = "no_quote"
	ReasonNoPrice  EstimateReason = "no_price"
	ReasonTimeout  EstimateReason = "timeout"
	ReasonFallback EstimateReason = "source_fallback"
)

// QuoteFetch Live(Quote) | Estimated(reason) | Unavailable(err)
type QuoteFetch struct {
	Outcome FetchOutcome
	Quote   *Quote
	Reason  EstimateReason
	Err     error
}

// Live 获取到可用报价
func Live(q *Quote) QuoteFetch {
	return QuoteFetch{Outcome: FetchLive, Quote: q}
}

// Estimated 该腿需要模型估算
func Estimated(reason EstimateReason) QuoteFetch {
	return QuoteFetch{Outcome: FetchEstimated, Reason: reason}
}

// Unavailable 行情源故障
func Unavailable(err error) QuoteFetch {
	return QuoteFetch{Outcome: FetchUnavailable, Err: err}
}
