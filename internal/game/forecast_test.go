package game

import (
	mathrand "math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrawPower(t *testing.T) {
	// fameDraw=0.5, fanDraw capped at 1.0, combined=0.7, size modifier 0.95.
	got := DrawPower(2500, 3000, 1000)
	assert.InDelta(t, 0.665, got, 1e-9)
}

func TestDrawPowerMonotonic(t *testing.T) {
	const capacity = 1000
	prev := 0.0
	for fame := int64(0); fame <= 10_000; fame += 500 {
		got := DrawPower(fame, 500, capacity)
		require.GreaterOrEqual(t, got, prev, "fame=%d", fame)
		prev = got
	}
	prev = 0.0
	for fans := int64(0); fans <= 10_000; fans += 500 {
		got := DrawPower(1000, fans, capacity)
		require.GreaterOrEqual(t, got, prev, "fans=%d", fans)
		prev = got
	}
}

func TestDrawPowerBounds(t *testing.T) {
	assert.Zero(t, DrawPower(0, 0, 500))
	assert.Zero(t, DrawPower(-100, -100, 500))

	// Huge inputs stay inside the nominal range.
	got := DrawPower(1_000_000_000, 1_000_000_000, 50)
	assert.LessOrEqual(t, got, 1.2)

	// Larger rooms are harder to fill for the same band.
	small := DrawPower(2500, 3000, 200)
	large := DrawPower(2500, 3000, 8000)
	assert.Greater(t, small, large)

	// Size modifier floors at 0.3 for arena-scale rooms.
	arena := DrawPower(5000, 1_000_000, 40_000)
	assert.InDelta(t, 0.3, arena, 1e-9)
}

func TestForecastSales(t *testing.T) {
	// drawPower=0.665 lands in the [0.4, 0.7) tier: base 0.103. A 14-day
	// lead maxes the advance bonus at 0.3, $20 tickets give 0.94 price
	// sensitivity, so the final rate is 0.103*0.94*1.3.
	f := ForecastSales(2500, 3000, 1000, 14, 20*CentsPerDollar)

	assert.InDelta(t, 0.1259, f.DailySaleRate, 1e-3)
	assert.Equal(t, MomentumFast, f.Momentum)
	assert.Equal(t, 1000, f.ExpectedTotalSales)
	assert.Equal(t, 86, f.SelloutProbability)
}

func TestForecastExpectedNeverExceedsCapacity(t *testing.T) {
	f := ForecastSales(1_000_000_000, 1_000_000_000, 1, 90, 0)
	assert.Equal(t, 1, f.ExpectedTotalSales)
	assert.LessOrEqual(t, f.SelloutProbability, 100)
}

func TestForecastZeroDays(t *testing.T) {
	f := ForecastSales(2500, 3000, 1000, 0, 20*CentsPerDollar)
	assert.Zero(t, f.ExpectedTotalSales)
	assert.Positive(t, f.DailySaleRate)
}

func TestForecastPriceSensitivityFloor(t *testing.T) {
	cheap := ForecastSales(2500, 3000, 1000, 14, 5*CentsPerDollar)
	pricey := ForecastSales(2500, 3000, 1000, 14, 400*CentsPerDollar)
	require.Greater(t, cheap.DailySaleRate, pricey.DailySaleRate)

	// Past the floor, raising the price further changes nothing.
	floor := ForecastSales(2500, 3000, 1000, 14, 200*CentsPerDollar)
	assert.InDelta(t, floor.DailySaleRate, pricey.DailySaleRate, 1e-12)
}

func TestMomentumForRate(t *testing.T) {
	tests := []struct {
		rate float64
		want Momentum
	}{
		{rate: 0.30, want: MomentumSellout},
		{rate: 0.25, want: MomentumSellout},
		{rate: 0.20, want: MomentumFast},
		{rate: 0.12, want: MomentumFast},
		{rate: 0.08, want: MomentumSteady},
		{rate: 0.05, want: MomentumSteady},
		{rate: 0.01, want: MomentumSlow},
		{rate: 0, want: MomentumSlow},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, momentumForRate(tc.rate), "rate=%v", tc.rate)
	}
}

func TestSimulateSalesDayNeverOversells(t *testing.T) {
	rng := mathrand.New(mathrand.NewSource(42))
	const capacity = 350

	sold := 0
	for day := 90; day >= 0; day-- {
		got := SimulateSalesDay(sold, capacity, 0.15, day, rng)
		require.GreaterOrEqual(t, got, 0)
		sold += got
		require.LessOrEqual(t, sold, capacity)
	}
	// A 15% daily rate over 90 days has to hit the ceiling.
	assert.Equal(t, capacity, sold)

	// At capacity the next draw is always zero.
	assert.Zero(t, SimulateSalesDay(capacity, capacity, 0.9, 1, rng))
}

func TestSimulateSalesDayUrgencyRamp(t *testing.T) {
	// Same seed, same jitter draw: only the day multiplier differs.
	far := SimulateSalesDay(0, 10_000, 0.05, 30, mathrand.New(mathrand.NewSource(7)))
	week := SimulateSalesDay(0, 10_000, 0.05, 7, mathrand.New(mathrand.NewSource(7)))
	eve := SimulateSalesDay(0, 10_000, 0.05, 2, mathrand.New(mathrand.NewSource(7)))

	assert.Greater(t, week, far)
	assert.Greater(t, eve, week)
}

func TestSimulateSalesDayDeterministic(t *testing.T) {
	a := SimulateSalesDay(100, 1000, 0.1, 10, mathrand.New(mathrand.NewSource(99)))
	b := SimulateSalesDay(100, 1000, 0.1, 10, mathrand.New(mathrand.NewSource(99)))
	assert.Equal(t, a, b)
}
