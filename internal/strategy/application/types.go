package application

import (
	"github.com/shopspring/decimal"

	"github.com/wyfcoding/optionstrategy/internal/strategy/domain"
)

// CalculateStrategyCommand 策略计算命令
// UnderlyingPrice 非空时优先于行情源。
type CalculateStrategyCommand struct {
	Strategy        string
	Symbol          string
	Expiration      domain.Date
	Strikes         []decimal.Decimal
	Contracts       int
	UnderlyingPrice *decimal.Decimal
}
