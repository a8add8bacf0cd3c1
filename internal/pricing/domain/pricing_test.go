package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

)

func TestPrice_ATMThirtyDays(t *testing.T) {
	p := NewPricer(0.05)
	for _, vol := range []float64{0.20, 0.25} {
		call := p.Price(Call, 100, 100, 30, vol, 0)
		assert.Greater(t, call, 2.0)
		assert.Less(t, call, 4.0)
	}
	assert.Equal(t, 0.0, p.Price(Call, 100, 100, 0, 0.2, 0))
}

func TestPrice_PutCallParity(t *testing.T) {
	p := NewPricer(0.05)
	for _, tc := range []struct{ s, k, days, vol, q float64 }{
		{100, 100, 30, 0.25, 0},
		{105, 100, 60, 0.3, 0.01},
		{95, 100, 90, 0.2, 0.02},
	} {
		years := tc.days / DaysPerYear
		c := p.Price(Call, tc.s, tc.k, tc.days, tc.vol, tc.q)
		put := p.Price(Put, tc.s, tc.k, tc.days, tc.vol, tc.q)
		want := tc.s*math.Exp(-tc.q*years) - tc.k*math.Exp(-0.05*years)
		assert.InDelta(t, want, c-put, 1e-9)
	}
}

func TestPrice_Monotonicity(t *testing.T) {
	p := NewPricer(0.05)
	assert.Greater(t, p.Price(Call, 105, 100, 30, 0.25, 0), p.Price(Call, 100, 100, 30, 0.25, 0))
	assert.Less(t, p.Price(Put, 105, 100, 30, 0.25, 0), p.Price(Put, 100, 100, 30, 0.25, 0))
	assert.Greater(t, p.Price(Call, 100, 100, 30, 0.4, 0), p.Price(Call, 100, 100, 30, 0.2, 0))
	assert.Greater(t, p.Price(Call, 100, 100, 90, 0.25, 0), p.Price(Call, 100, 100, 30, 0.25, 0))
	assert.Greater(t, p.Price(Call, 100, 95, 30, 0.25, 0), p.Price(Call, 100, 105, 30, 0.25, 0))
}

func TestPrice_FloorAndIntrinsic(t *testing.T) {
	p := NewPricer(0.05)
	assert.Equal(t, MinOptionPrice, p.Price(Call, 50, 200, 10, 0.1, 0))
	assert.Equal(t, 10.0, p.Price(Call, 110, 100, 0, 0.25, 0))
	assert.Equal(t, 0.0, p.Price(Call, 90, 100, 0, 0.25, 0))
	assert.Equal(t, 10.0, p.Price(Put, 90, 100, 0, 0.25, 0))
	// 非正波动率退化为内在价值
	assert.Equal(t, 5.0, p.Price(Call, 105, 100, 30, 0, 0))

	assert.Equal(t, 0.0, Intrinsic(Call, 95, 100))
	assert.Equal(t, 5.0, Intrinsic(Put, 95, 100))
}

func TestGreeks_Bounds(t *testing.T) {
	p := NewPricer(0.05)
	for _, s := range []float64{70, 90, 100, 110, 130} {
		c := p.Greeks(Call, s, 100, 45, 0.3, 0)
		put := p.Greeks(Put, s, 100, 45, 0.3, 0)
		assert.GreaterOrEqual(t, c.Delta, 0.0)
		assert.LessOrEqual(t, c.Delta, 1.0)
		assert.GreaterOrEqual(t, put.Delta, -1.0)
		assert.LessOrEqual(t, put.Delta, 0.0)
		assert.GreaterOrEqual(t, c.Gamma, 0.0)
		assert.GreaterOrEqual(t, c.Vega, 0.0)
		assert.InDelta(t, c.Gamma, put.Gamma, 1e-12)
		assert.InDelta(t, c.Vega, put.Vega, 1e-12)
		assert.InDelta(t, 1.0, c.Delta-put.Delta, 1e-9)
		assert.GreaterOrEqual(t, c.Rho, 0.0)
		assert.LessOrEqual(t, put.Rho, 0.0)
	}
	atm := p.Greeks(Call, 100, 100, 30, 0.25, 0)
	assert.Less(t, atm.Theta, 0.0)
}

func TestGreeks_VegaMatchesFiniteDifference(t *testing.T) {
	p := NewPricer(0.05)
	g := p.Greeks(Call, 100, 100, 60, 0.25, 0)
	up := p.Price(Call, 100, 100, 60, 0.2505, 0)
	down := p.Price(Call, 100, 100, 60, 0.2495, 0)
	// 每 1% 波动率
	assert.InDelta(t, (up-down)/0.001*0.01, g.Vega, 1e-4)
}

func TestGreeks_AtExpiry(t *testing.T) {
	p := NewPricer(0.05)
	assert.Equal(t, GreeksResult{Delta: 1}, p.Greeks(Call, 110, 100, 0, 0.25, 0))
	assert.Equal(t, GreeksResult{}, p.Greeks(Call, 90, 100, 0, 0.25, 0))
	assert.Equal(t, GreeksResult{Delta: -1}, p.Greeks(Put, 90, 100, 0, 0.25, 0))
	assert.Equal(t, GreeksResult{}, p.Greeks(Put, 110, 100, 0, 0.25, 0))
}

func TestImpliedVolatility_RoundTrip(t *testing.T) {
	p := NewPricer(0.05)
	for _, tc := range []struct {
		right OptionRight
		s, k  float64
	}{
		{Call, 100, 100},
		{Put, 100, 100},
		{Call, 110, 100},
		{Put, 95, 100},
	} {
		target := p.Price(tc.right, tc.s, tc.k, 30, 0.25, 0)
		vol, ok := p.ImpliedVolatility(tc.right, target, tc.s, tc.k, 30, 0)
		require.True(t, ok, "%s %v/%v", tc.right, tc.s, tc.k)
		assert.InDelta(t, 0.25, vol, 0.005)
	}
}

func TestImpliedVolatility_Failures(t *testing.T) {
	p := NewPricer(0.05)

	_, ok := p.ImpliedVolatility(Call, 3, 100, 100, 0, 0)
	assert.False(t, ok, "expiring option has no implied volatility")

	// 低于内在价值，无解
	_, ok = p.ImpliedVolatility(Call, 10, 150, 100, 30, 0)
	assert.False(t, ok)

	_, ok = p.ImpliedVolatilityWithParams(Call, 3, 100, 100, 30, 0, IVParams{Precision: 1e-12, MaxIterations: 1})
	assert.False(t, ok)
}

func TestInitialGuess(t *testing.T) {
	assert.Equal(t, 0.3, initialGuess(Call, 100, 100))
	assert.Equal(t, 0.5, initialGuess(Call, 70, 100))
	assert.Equal(t, 0.2, initialGuess(Call, 130, 100))
	assert.Equal(t, 0.5, initialGuess(Put, 130, 100))
	assert.Equal(t, 0.2, initialGuess(Put, 70, 100))
}

func TestValidateStrikes(t *testing.T) {
	assert.NoError(t, ValidateStrikes(BullCall, []float64{95, 105}))
	assert.NoError(t, ValidateStrikes(IronCondor, []float64{80, 90, 110, 120}))
	assert.NoError(t, ValidateStrikes(Butterfly, []float64{92.5, 95, 97.5}))

	for _, tc := range []struct {
		name    string
		t       SpreadType
		strikes []float64
	}{
		{"count", BullCall, []float64{95}},
		{"order", BullCall, []float64{105, 95}},
		{"equal", Butterfly, []float64{90, 100, 100}},
		{"uneven wings", Butterfly, []float64{90, 100, 115}},
		{"condor count", IronCondor, []float64{80, 90, 110}},
		{"condor order", IronCondor, []float64{80, 110, 90, 120}},
		{"negative", BullPut, []float64{-5, 10}},
		{"unknown", SpreadType("straddle"), []float64{100, 110}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateStrikes(tc.t, tc.strikes)
			require.Error(t, err)
			assert.True(t, IsValidation(err), "%v", err)
		})
	}
}

func TestSpread_DebitAndCreditRelations(t *testing.T) {
	p := NewPricer(0.05)
	strikes := []float64{95, 105}

	bc, err := p.Spread(BullCall, 100, strikes, 30, []float64{0.25}, 0)
	require.NoError(t, err)
	assert.Greater(t, bc.NetDebit, 0.0)
	assert.Less(t, bc.NetDebit, 10.0)
	assert.Zero(t, bc.NetCredit)
	assert.InDelta(t, 10.0, bc.MaxProfit+bc.MaxLoss, 1e-9)
	assert.InDelta(t, 95+bc.NetDebit, bc.Breakevens[0], 1e-9)

	bear, err := p.Spread(BearCall, 100, strikes, 30, []float64{0.25}, 0)
	require.NoError(t, err)
	assert.InDelta(t, bc.NetDebit, bear.NetCredit, 1e-9)
	assert.InDelta(t, bc.MaxLoss, bear.MaxProfit, 1e-9)

	bp, err := p.Spread(BullPut, 100, strikes, 30, []float64{0.25}, 0)
	require.NoError(t, err)
	assert.Greater(t, bp.NetCredit, 0.0)
	assert.InDelta(t, 105-bp.NetCredit, bp.Breakevens[0], 1e-9)

	bpd, err := p.Spread(BearPut, 100, strikes, 30, []float64{0.25}, 0)
	require.NoError(t, err)
	assert.InDelta(t, bp.NetCredit, bpd.NetDebit, 1e-9)
	assert.InDelta(t, 105-bpd.NetDebit, bpd.Breakevens[0], 1e-9)
}

func TestSpread_IronCondorAndButterfly(t *testing.T) {
	p := NewPricer(0.05)

	ic, err := p.Spread(IronCondor, 100, []float64{80, 90, 110, 120}, 30, []float64{0.25}, 0)
	require.NoError(t, err)
	require.Len(t, ic.Legs, 4)
	assert.Greater(t, ic.NetCredit, 0.0)
	assert.InDelta(t, 10-ic.NetCredit, ic.MaxLoss, 1e-9)
	assert.Equal(t, []float64{90 - ic.NetCredit, 110 + ic.NetCredit}, ic.Breakevens)

	bf, err := p.Spread(Butterfly, 100, []float64{90, 100, 110}, 30, []float64{0.25, 0.24, 0.26}, 0)
	require.NoError(t, err)
	require.Len(t, bf.Legs, 3)
	assert.Equal(t, 2, bf.Legs[1].Ratio)
	assert.Equal(t, 0.24, bf.Legs[1].Volatility)
	assert.Greater(t, bf.NetDebit, 0.0)
	assert.InDelta(t, 10-bf.NetDebit, bf.MaxProfit, 1e-9)
	assert.InDelta(t, 90+bf.NetDebit, bf.Breakevens[0], 1e-9)
	assert.InDelta(t, 110-bf.NetDebit, bf.Breakevens[1], 1e-9)
}

func TestSpread_Validation(t *testing.T) {
	p := NewPricer(0.05)

	_, err := p.Spread(Butterfly, 100, []float64{90, 100, 110}, 30, []float64{0.25, 0.3}, 0)
	assert.True(t, IsValidation(err), "%v", err)

	_, err = p.Spread(BullCall, 100, []float64{105, 95}, 30, []float64{0.25}, 0)
	assert.True(t, IsValidation(err), "%v", err)

	_, err = p.Spread(BullCall, 100, []float64{95, 105}, 30, []float64{0}, 0)
	assert.True(t, IsValidation(err), "%v", err)

	_, err = p.Spread(BullCall, 0, []float64{95, 105}, 30, []float64{0.25}, 0)
	assert.True(t, IsValidation(err), "%v", err)
}

func TestRiskProfile_ClampsMaxLoss(t *testing.T) {
	_, maxLoss, _ := RiskProfile(BearCall, []float64{95, 105}, 12)
	assert.Zero(t, maxLoss)
	_, maxLoss, _ = RiskProfile(BullCall, []float64{95, 105}, 1)
	assert.Zero(t, maxLoss)
}

func TestProbabilityOfProfit_Bounds(t *testing.T) {
	p := NewPricer(0.05)
	cases := map[SpreadType][]float64{
		BullCall:   {95, 105},
		BearPut:    {95, 105},
		BearCall:   {95, 105},
		BullPut:    {95, 105},
		IronCondor: {80, 90, 110, 120},
		Butterfly:  {90, 100, 110},
	}
	for st, strikes := range cases {
		pop, err := p.ProbabilityOfProfit(st, 100, strikes, 30, 0.25, 0)
		require.NoError(t, err, st)
		assert.GreaterOrEqual(t, pop, 0.0, st)
		assert.LessOrEqual(t, pop, 1.0, st)
	}
}

func TestProbabilityOfProfit_IronCondorNarrowing(t *testing.T) {
	p := NewPricer(0.05)
	wide, err := p.ProbabilityOfProfit(IronCondor, 100, []float64{70, 85, 115, 130}, 30, 0.25, 0)
	require.NoError(t, err)
	narrow, err := p.ProbabilityOfProfit(IronCondor, 100, []float64{90, 98, 102, 110}, 30, 0.25, 0)
	require.NoError(t, err)
	assert.Greater(t, wide, narrow)
}

func TestProbabilityFromBreakevens(t *testing.T) {
	p := NewPricer(0.05)

	up, err := p.ProbabilityFromBreakevens(BullCall, 100, []float64{100}, 30, 0.25, 0)
	require.NoError(t, err)
	down, err := p.ProbabilityFromBreakevens(BearPut, 100, []float64{100}, 30, 0.25, 0)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, up+down, 1e-12)

	_, err = p.ProbabilityFromBreakevens(IronCondor, 100, []float64{100}, 30, 0.25, 0)
	assert.True(t, IsValidation(err), "%v", err)

	atExpiry, err := p.ProbabilityFromBreakevens(IronCondor, 100, []float64{95, 105}, 0, 0.25, 0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, atExpiry)
}

func TestParse(t *testing.T) {
	r, err := ParseOptionRight("PUT")
	require.NoError(t, err)
	assert.Equal(t, Put, r)
	_, err = ParseOptionRight("x")
	assert.True(t, IsValidation(err), "%v", err)

	st, err := ParseSpreadType("Iron_Condor")
	require.NoError(t, err)
	assert.Equal(t, IronCondor, st)
	_, err = ParseSpreadType("straddle")
	assert.ErrorContains(t, err, "bull_call")
}
