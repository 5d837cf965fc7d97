// README: Pure fare calculator; turns a base fare, cabin class and departure date into a PriceBreakdown.
package pricing

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

const day = 24 * time.Hour

var maxTotal = decimal.NewFromInt(math.MaxInt64)

// Calculate prices a fare with DefaultPolicy. It never reads the clock: now is supplied by the caller.
func Calculate(basePrice float64, class CabinClass, departure, now time.Time) (PriceBreakdown, error) {
	return DefaultPolicy.Calculate(basePrice, class, departure, now)
}

// Calculate applies the policy. The seasonal month is taken from departure in its own location.
func (p Policy) Calculate(basePrice float64, class CabinClass, departure, now time.Time) (PriceBreakdown, error) {
	if err := p.Validate(); err != nil {
		return PriceBreakdown{}, err
	}
	if err := checkBasePrice(basePrice); err != nil {
		return PriceBreakdown{}, err
	}
	multiplier, err := class.Multiplier()
	if err != nil {
		return PriceBreakdown{}, err
	}

	days := DaysUntil(departure, now)
	withClass := decimal.NewFromFloat(basePrice).Mul(multiplier)

	earlyBird := decimal.Zero
	if days >= p.EarlyBirdDays {
		earlyBird = withClass.Mul(p.EarlyBirdRate)
	}
	lastMinute := decimal.Zero
	if days <= p.LastMinuteDays {
		lastMinute = withClass.Mul(p.LastMinuteRate)
	}
	seasonal := decimal.Zero
	if p.inSeason(departure.Month()) {
		seasonal = withClass.Mul(p.SeasonalRate)
	}

	// Round is half away from zero on the exact decimal sum.
	total := withClass.Sub(earlyBird).Add(lastMinute).Add(seasonal).Round(0)
	if total.GreaterThan(maxTotal) {
		return PriceBreakdown{}, &InvalidFareError{BasePrice: basePrice, Reason: "out of range"}
	}

	return PriceBreakdown{
		BasePrice:          withClass.InexactFloat64(),
		ClassMultiplier:    multiplier.InexactFloat64(),
		EarlyBirdDiscount:  earlyBird.InexactFloat64(),
		LastMinuteFee:      lastMinute.InexactFloat64(),
		SeasonalFee:        seasonal.InexactFloat64(),
		DaysUntilDeparture: days,
		CabinClass:         class,
		Total:              total.IntPart(),
	}, nil
}

// DaysUntil returns ceil((departure-now)/24h). Past departures give zero or negative values.
func DaysUntil(departure, now time.Time) int {
	d := departure.Sub(now)
	days := d / day
	if d%day > 0 {
		days++
	}
	return int(days)
}

func checkBasePrice(v float64) error {
	switch {
	case math.IsNaN(v):
		return &InvalidFareError{BasePrice: v, Reason: "not a number"}
	case math.IsInf(v, 0):
		return &InvalidFareError{BasePrice: v, Reason: "infinite"}
	case v < 0:
		return &InvalidFareError{BasePrice: v, Reason: "negative"}
	}
	return nil
}
