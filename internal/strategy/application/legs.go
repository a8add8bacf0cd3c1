package application

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	pricing "github.com/wyfcoding/optionstrategy/internal/pricing/domain"
	"github.com/wyfcoding/optionstrategy/internal/strategy/domain"
)

// calculationPlan 校验通过的计算请求
type calculationPlan struct {
	strategy   pricing.SpreadType
	symbol     string
	expiration domain.Date
	strikes    []decimal.Decimal
	strikesF   []float64
	contracts  int
	days       int
	override   *decimal.Decimal
}

func (p *calculationPlan) cacheKey() string {
	var b strings.Builder
	b.WriteString(string(p.strategy))
	b.WriteByte('|')
	b.WriteString(p.symbol)
	b.WriteByte('|')
	b.WriteString(p.expiration.String())
	b.WriteByte('|')
	for i, k := range p.strikes {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k.String())
	}
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(p.contracts))
	return b.String()
}

// buildLegs 按策略结构展开各腿，数量为模板比例乘以合约数
func (p *calculationPlan) buildLegs() ([]domain.OptionContractSpec, error) {
	templates := p.strategy.Legs()
	legs := make([]domain.OptionContractSpec, 0, len(templates))
	for _, t := range templates {
		spec, err := domain.NewOptionContractSpec(
			p.symbol,
			p.strikes[t.StrikeIndex],
			p.expiration,
			t.Right,
			domain.ActionFromSide(t.Side),
			t.Ratio*p.contracts,
		)
		if err != nil {
			return nil, err
		}
		legs = append(legs, spec)
	}
	return legs, nil
}

// newPlan 校验命令；任何错误都在取数之前返回
func newPlan(cmd CalculateStrategyCommand, days int) (*calculationPlan, error) {
	st, err := pricing.ParseSpreadType(cmd.Strategy)
	if err != nil {
		return nil, err
	}
	symbol := strings.ToUpper(strings.TrimSpace(cmd.Symbol))
	if symbol == "" {
		return nil, pricing.NewValidationError("symbol is required")
	}
	if cmd.Contracts <= 0 {
		return nil, pricing.NewValidationError("contracts must be positive, got %d", cmd.Contracts)
	}
	if cmd.Expiration.IsZero() {
		return nil, pricing.NewValidationError("expiration is required")
	}
	if days < 0 {
		return nil, pricing.NewValidationError("expiration %s is in the past", cmd.Expiration)
	}
	if cmd.UnderlyingPrice != nil && !cmd.UnderlyingPrice.IsPositive() {
		return nil, pricing.NewValidationError("underlying price must be positive, got %s", cmd.UnderlyingPrice)
	}

	strikes := make([]float64, len(cmd.Strikes))
	for i, k := range cmd.Strikes {
		strikes[i] = k.InexactFloat64()
	}
	if err := pricing.ValidateStrikes(st, strikes); err != nil {
		return nil, err
	}

	return &calculationPlan{
		strategy:   st,
		symbol:     symbol,
		expiration: cmd.Expiration,
		strikes:    cmd.Strikes,
		strikesF:   strikes,
		contracts:  cmd.Contracts,
		days:       days,
		override:   cmd.UnderlyingPrice,
	}, nil
}
