package domain

import (
	"math"
	"slices"
	"strings"

)

// SpreadType 价差策略类型
type SpreadType string

const (
	BullCall   SpreadType = "bull_call"
	BearPut    SpreadType = "bear_put"
	BearCall   SpreadType = "bear_call"
	BullPut    SpreadType = "bull_put"
	IronCondor SpreadType = "iron_condor"
	Butterfly  SpreadType = "butterfly"
)

// SpreadTypes 全部支持的策略类型
var SpreadTypes = []SpreadType{BullCall, BearPut, BearCall, BullPut, IronCondor, Butterfly}

// ParseSpreadType 解析策略类型
func ParseSpreadType(s string) (SpreadType, error) {
	t := SpreadType(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(SpreadTypes, t) {
		return t, nil
	}
	names := make([]string, len(SpreadTypes))
	for i, st := range SpreadTypes {
		names[i] = string(st)
	}
	return "", NewValidationError("unknown strategy type %q: supported types: %s", s, strings.Join(names, ", "))
}

// StrikeCount 策略所需行权价个数
func (t SpreadType) StrikeCount() int {
	switch t {
	case IronCondor:
		return 4
	case Butterfly:
		return 3
	default:
		return 2
	}
}

// Side 买卖方向
type Side int

const (
	Buy  Side = 1
	Sell Side = -1
)

func (s Side) String() string {
	if s == Sell {
		return "sell"
	}
	return "buy"
}

// LegTemplate 策略腿模板，StrikeIndex 指向升序行权价数组
type LegTemplate struct {
	Right       OptionRight
	Side        Side
	StrikeIndex int
	Ratio       int
}

// Legs 各策略的固定腿结构，行权价均按升序给出
func (t SpreadType) Legs() []LegTemplate {
	switch t {
	case BullCall:
		return []LegTemplate{{Call, Buy, 0, 1}, {Call, Sell, 1, 1}}
	case BearPut:
		return []LegTemplate{{Put, Buy, 1, 1}, {Put, Sell, 0, 1}}
	case BearCall:
		return []LegTemplate{{Call, Sell, 0, 1}, {Call, Buy, 1, 1}}
	case BullPut:
		return []LegTemplate{{Put, Sell, 1, 1}, {Put, Buy, 0, 1}}
	case IronCondor:
		return []LegTemplate{
			{Put, Buy, 0, 1},
			{Put, Sell, 1, 1},
			{Call, Sell, 2, 1},
			{Call, Buy, 3, 1},
		}
	case Butterfly:
		return []LegTemplate{{Call, Buy, 0, 1}, {Call, Sell, 1, 2}, {Call, Buy, 2, 1}}
	default:
		return nil
	}
}

// ValidateStrikes 校验行权价个数与严格升序
func ValidateStrikes(t SpreadType, strikes []float64) error {
	want := t.StrikeCount()
	if len(t.Legs()) == 0 {
		return NewValidationError("unknown strategy type %q", t)
	}
	if len(strikes) != want {
		return NewValidationError("%s requires %d strikes, got %d", t, want, len(strikes))
	}
	for i, k := range strikes {
		if k <= 0 || math.IsNaN(k) {
			return NewValidationError("strike must be positive, got %v", k)
		}
		if i > 0 && k <= strikes[i-1] {
			return NewValidationError("%s strikes must be strictly ascending, got %v", t, strikes)
		}
	}
	// 蝶式风险公式要求两翼等宽
	if t == Butterfly && math.Abs((strikes[1]-strikes[0])-(strikes[2]-strikes[1])) > 1e-9 {
		return NewValidationError("butterfly strikes must be equally spaced, got %v", strikes)
	}
	return nil
}

// SpreadLegPrice 价差中单腿的理论价格
type SpreadLegPrice struct {
	Right      OptionRight `json:"right"`
	Side       string      `json:"side"`
	Strike     float64     `json:"strike"`
	Ratio      int         `json:"ratio"`
	Volatility float64     `json:"volatility"`
	Price      float64     `json:"price"`
}

// SpreadResult 价差风险指标（每股口径）
type SpreadResult struct {
	Type       SpreadType       `json:"type"`
	NetDebit   float64          `json:"net_debit"`
	NetCredit  float64          `json:"net_credit"`
	MaxProfit  float64          `json:"max_profit"`
	MaxLoss    float64          `json:"max_loss"`
	Breakevens []float64        `json:"breakevens"`
	Legs       []SpreadLegPrice `json:"legs"`
}

// RiskProfile 给定净权利金（收入为正）计算最大盈利、最大亏损与盈亏平衡点
// 最大亏损不小于 0。
func RiskProfile(t SpreadType, strikes []float64, netCredit float64) (maxProfit, maxLoss float64, breakevens []float64) {
	debit := -netCredit
	switch t {
	case BullCall:
		maxProfit = strikes[1] - strikes[0] - debit
		maxLoss = debit
		breakevens = []float64{strikes[0] + debit}
	case BearPut:
		maxProfit = strikes[1] - strikes[0] - debit
		maxLoss = debit
		breakevens = []float64{strikes[1] - debit}
	case BearCall:
		maxProfit = netCredit
		maxLoss = strikes[1] - strikes[0] - netCredit
		breakevens = []float64{strikes[0] + netCredit}
	case BullPut:
		maxProfit = netCredit
		maxLoss = strikes[1] - strikes[0] - netCredit
		breakevens = []float64{strikes[1] - netCredit}
	case IronCondor:
		width := max(strikes[1]-strikes[0], strikes[3]-strikes[2])
		maxProfit = netCredit
		maxLoss = width - netCredit
		breakevens = []float64{strikes[1] - netCredit, strikes[2] + netCredit}
	case Butterfly:
		maxProfit = (strikes[2]-strikes[0])/2 - debit
		maxLoss = debit
		breakevens = []float64{strikes[0] + debit, strikes[2] - debit}
	}
	return maxProfit, max(maxLoss, 0), breakevens
}

// Spread 使用理论价格计算价差的风险指标
// vols 可以为单个值（所有腿共用）或与行权价一一对应。
func (p *Pricer) Spread(t SpreadType, s float64, strikes []float64, days float64, vols []float64, q float64) (*SpreadResult, error) {
	if err := ValidateStrikes(t, strikes); err != nil {
		return nil, err
	}
	if s <= 0 {
		return nil, NewValidationError("underlying price must be positive, got %v", s)
	}
	if days < 0 {
		return nil, NewValidationError("days to expiration must be non-negative, got %v", days)
	}
	if len(vols) != 1 && len(vols) != len(strikes) {
		return nil, NewValidationError("expected 1 or %d volatilities, got %d", len(strikes), len(vols))
	}
	for _, v := range vols {
		if v <= 0 {
			return nil, NewValidationError("volatility must be positive, got %v", v)
		}
	}

	res := &SpreadResult{Type: t}
	var netCredit float64
	for _, leg := range t.Legs() {
		k := strikes[leg.StrikeIndex]
		vol := vols[0]
		if len(vols) > 1 {
			vol = vols[leg.StrikeIndex]
		}
		price := p.Price(leg.Right, s, k, days, vol, q)
		netCredit -= float64(leg.Side) * float64(leg.Ratio) * price
		res.Legs = append(res.Legs, SpreadLegPrice{
			Right:      leg.Right,
			Side:       leg.Side.String(),
			Strike:     k,
			Ratio:      leg.Ratio,
			Volatility: vol,
			Price:      price,
		})
	}

	res.NetCredit = max(netCredit, 0)
	res.NetDebit = max(-netCredit, 0)
	res.MaxProfit, res.MaxLoss, res.Breakevens = RiskProfile(t, strikes, netCredit)
	return res, nil
}
