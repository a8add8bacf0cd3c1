package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	pricing "github.com/wyfcoding/optionstrategy/internal/pricing/domain"
)

const StrategyCalculatedEventType = "StrategyCalculated"

// StrategyCalculatedEvent 策略计算完成事件（缓存命中不发布）
type StrategyCalculatedEvent struct {
	EventID             string             `json:"event_id"`
	EventType           string             `json:"event_type"`
	Strategy            pricing.SpreadType `json:"strategy"`
	Symbol              string             `json:"symbol"`
	Expiration          Date               `json:"expiration"`
	Strikes             []decimal.Decimal  `json:"strikes"`
	Contracts           int                `json:"contracts"`
	UnderlyingPrice     decimal.Decimal    `json:"underlying_price"`
	NetCredit           decimal.Decimal    `json:"net_credit"`
	NetDebit            decimal.Decimal    `json:"net_debit"`
	MaxProfit           decimal.Decimal    `json:"max_profit"`
	MaxLoss             decimal.Decimal    `json:"max_loss"`
	ProbabilityOfProfit float64            `json:"probability_of_profit"`
	DataSource          DataSource         `json:"data_source"`
	EstimatedLegs       int                `json:"estimated_legs"`
	CalculatedAt        time.Time          `json:"calculated_at"`
	OccurredOn          time.Time          `json:"occurred_on"`
}

// NewStrategyCalculatedEvent 由结果构造事件
func NewStrategyCalculatedEvent(id string, r *StrategyResult, occurredOn time.Time) StrategyCalculatedEvent {
	return StrategyCalculatedEvent{
		EventID:             id,
		EventType:           StrategyCalculatedEventType,
		Strategy:            r.Strategy,
		Symbol:              r.Symbol,
		Expiration:          r.Expiration,
		Strikes:             r.Strikes,
		Contracts:           r.Contracts,
		UnderlyingPrice:     r.UnderlyingPrice,
		NetCredit:           r.NetCredit,
		NetDebit:            r.NetDebit,
		MaxProfit:           r.MaxProfit,
		MaxLoss:             r.MaxLoss,
		ProbabilityOfProfit: r.ProbabilityOfProfit,
		DataSource:          r.DataSource,
		EstimatedLegs:       r.EstimatedLegs(),
		CalculatedAt:        r.CalculatedAt,
		OccurredOn:          occurredOn,
	}
}

// EventPublisher 事件发布接口
type EventPublisher interface {
	PublishStrategyCalculated(ctx context.Context, event StrategyCalculatedEvent) error
}
