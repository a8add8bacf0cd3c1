package domain

import (
	"math"
	"slices"

)

// ProbabilityOfProfit 在对数正态假设下估算价差到期盈利概率，所有腿使用同一波动率
func (p *Pricer) ProbabilityOfProfit(t SpreadType, s float64, strikes []float64, days, vol, q float64) (float64, error) {
	res, err := p.Spread(t, s, strikes, days, []float64{vol}, q)
	if err != nil {
		return 0, err
	}
	return p.ProbabilityFromBreakevens(t, s, res.Breakevens, days, vol, q)
}

// ProbabilityFromBreakevens 根据盈亏平衡点计算到期盈利概率
// 区间型策略（铁鹰、蝶式）为落在两平衡点之间的概率；看涨型为高于平衡点，看跌型为低于平衡点。
func (p *Pricer) ProbabilityFromBreakevens(t SpreadType, s float64, breakevens []float64, days, vol, q float64) (float64, error) {
	if s <= 0 {
		return 0, NewValidationError("underlying price must be positive, got %v", s)
	}
	rangeBound := t == IronCondor || t == Butterfly
	want := 1
	if rangeBound {
		want = 2
	}
	if len(breakevens) != want {
		return 0, NewValidationError("%s expects %d breakevens, got %d", t, want, len(breakevens))
	}
	if len(t.Legs()) == 0 {
		return 0, NewValidationError("unknown strategy type %q", t)
	}

	years := YearsToExpiry(days)
	if years <= MinTimeToExpiry || vol <= 0 {
		// 到期时结果已确定
		return p.probabilityAtExpiry(t, s, breakevens), nil
	}

	// below 返回到期价格低于 b 的概率
	below := func(b float64) float64 {
		if b <= 0 {
			return 0
		}
		z := (math.Log(b/s) - (p.riskFreeRate-q-0.5*vol*vol)*years) / (vol * math.Sqrt(years))
		return normCDF(z)
	}

	var prob float64
	switch t {
	case IronCondor, Butterfly:
		lo, hi := slices.Min(breakevens), slices.Max(breakevens)
		prob = below(hi) - below(lo)
	case BullCall, BullPut:
		prob = 1 - below(breakevens[0])
	default:
		prob = below(breakevens[0])
	}
	return clamp01(prob), nil
}

func (p *Pricer) probabilityAtExpiry(t SpreadType, s float64, breakevens []float64) float64 {
	var win bool
	switch t {
	case IronCondor, Butterfly:
		win = s > slices.Min(breakevens) && s < slices.Max(breakevens)
	case BullCall, BullPut:
		win = s > breakevens[0]
	default:
		win = s < breakevens[0]
	}
	if win {
		return 1
	}
	return 0
}

func clamp01(x float64) float64 {
	return min(max(x, 0), 1)
}
