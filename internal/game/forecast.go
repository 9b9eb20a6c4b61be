package game

import (
	"math"
	mathrand "math/rand"
)

// Momentum labels the magnitude of a daily sale rate.
type Momentum string

const (
	MomentumSlow    Momentum = "slow"
	MomentumSteady  Momentum = "steady"
	MomentumFast    Momentum = "fast"
	MomentumSellout Momentum = "sellout"
)

// Forecast is the booking-time sales projection for a gig. It is computed
// once when the gig is booked and snapshotted onto the gig row; the worker
// recomputes a fresh one each sales tick so that fan growth from earlier
// settlements feeds later gigs.
type Forecast struct {
	DailySaleRate      float64  `json:"daily_sale_rate"`
	ExpectedTotalSales int      `json:"expected_total_sales"`
	SelloutProbability int      `json:"sellout_probability_percent"`
	Momentum           Momentum `json:"sales_momentum"`
}

// DrawPower estimates what fraction of a venue a band can fill from its
// existing fame and fanbase. Nominal range [0, 1.2]; the 1.2 ceiling is
// enforced on the combined product. Larger venues are proportionally
// harder to fill, floored at a 0.3 modifier.
func DrawPower(bandFame, bandTotalFans int64, venueCapacity int) float64 {
	venueCapacity = clampCapacity(venueCapacity)
	fame := clampNonNegative(float64(bandFame))
	fans := clampNonNegative(float64(bandTotalFans))

	fameDraw := math.Min(1, fame/FameDrawCeiling)
	fanDraw := math.Min(1, fans/(float64(venueCapacity)*3))
	combined := 0.6*fameDraw + 0.4*fanDraw

	sizeModifier := math.Max(0.3, 1-(float64(venueCapacity)/10_000)*0.5)
	return math.Min(1.2, combined*sizeModifier)
}

// ForecastSales produces the daily sell-through rate, expected total sales,
// sellout probability and momentum tier for a booking. All inputs are
// clamped internally rather than rejected.
func ForecastSales(bandFame, bandTotalFans int64, venueCapacity, daysBooked int, ticketPriceCents int64) Forecast {
	venueCapacity = clampCapacity(venueCapacity)
	if daysBooked < 0 {
		daysBooked = 0
	}
	price := clampNonNegative(CentsToDollars(ticketPriceCents))

	draw := DrawPower(bandFame, bandTotalFans, venueCapacity)
	advanceBonus := math.Min(MaxAdvanceBonus, (float64(daysBooked)/14)*0.3)
	priceSensitivity := math.Max(0.5, 1-(price/100)*0.3)

	var baseRate float64
	switch {
	case draw >= 1.0:
		baseRate = 0.25 + (draw-1)*0.5
	case draw >= 0.7:
		baseRate = 0.12 + (draw-0.7)*0.4
	case draw >= 0.4:
		baseRate = 0.05 + (draw-0.4)*0.2
	default:
		baseRate = 0.02 + draw*0.08
	}

	rate := baseRate * priceSensitivity * (1 + advanceBonus)

	expected := int(math.Round(float64(venueCapacity) * rate * float64(daysBooked) * (1 + advanceBonus)))
	if expected > venueCapacity {
		expected = venueCapacity
	}

	sellout := int(math.Round(draw * 100 * (1 + advanceBonus)))
	if sellout > 100 {
		sellout = 100
	}

	return Forecast{
		DailySaleRate:      rate,
		ExpectedTotalSales: expected,
		SelloutProbability: sellout,
		// Momentum comes from the final rate, not the selection band:
		// price and advance modifiers can shift it across a boundary.
		Momentum: momentumForRate(rate),
	}
}

func momentumForRate(rate float64) Momentum {
	switch {
	case rate >= 0.25:
		return MomentumSellout
	case rate >= 0.12:
		return MomentumFast
	case rate >= 0.05:
		return MomentumSteady
	default:
		return MomentumSlow
	}
}

// SimulateSalesDay draws one day of incremental ticket sales. Demand ramps
// up close to show day and carries bounded jitter; the result never pushes
// cumulative sales past capacity. The rand source is injected so callers
// (worker, tests) control determinism.
func SimulateSalesDay(ticketsSold, venueCapacity int, dailySaleRate float64, daysUntilGig int, rng *mathrand.Rand) int {
	venueCapacity = clampCapacity(venueCapacity)
	if ticketsSold < 0 {
		ticketsSold = 0
	}
	remaining := venueCapacity - ticketsSold
	if remaining <= 0 {
		return 0
	}

	sold := math.Round(float64(venueCapacity) * clampNonNegative(dailySaleRate))

	switch {
	case daysUntilGig <= 3:
		sold *= 1.5
	case daysUntilGig <= 7:
		sold *= 1.2
	}

	// Uniform jitter in [0.8, 1.2].
	sold *= 0.8 + rng.Float64()*0.4

	out := int(math.Round(sold))
	if out < 0 {
		out = 0
	}
	if out > remaining {
		out = remaining
	}
	return out
}
