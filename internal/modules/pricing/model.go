// README: Cabin classes, fare rule policy, and the price breakdown value object.
package pricing

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CabinClass is a closed set; every class must appear in classNames and classMultipliers.
type CabinClass uint8

const (
	Economy CabinClass = iota
	Business
	First

	numCabinClasses
)

var classNames = [...]string{
	Economy:  "ECONOMY",
	Business: "BUSINESS",
	First:    "FIRST",
}

var classMultipliers = [...]decimal.Decimal{
	Economy:  decimal.NewFromInt(1),
	Business: decimal.RequireFromString("2.5"),
	First:    decimal.NewFromInt(4),
}

// Both tables must cover exactly numCabinClasses entries; a mismatch overflows uint and fails the build.
const (
	_ = uint(len(classNames) - int(numCabinClasses))
	_ = uint(int(numCabinClasses) - len(classNames))
	_ = uint(len(classMultipliers) - int(numCabinClasses))
	_ = uint(int(numCabinClasses) - len(classMultipliers))
)

var (
	ErrUnknownCabinClass  = errors.New("unknown cabin class")
	ErrInvalidFare        = errors.New("invalid fare")
	ErrClassNotOffered    = errors.New("cabin class not offered on this flight")
	ErrOverlappingWindows = errors.New("early-bird and last-minute windows overlap")
	ErrInvalidPolicy      = errors.New("invalid pricing policy")
)

// CabinClasses lists every class in declaration order.
func CabinClasses() []CabinClass {
	out := make([]CabinClass, 0, numCabinClasses)
	for c := Economy; c < numCabinClasses; c++ {
		out = append(out, c)
	}
	return out
}

func (c CabinClass) Valid() bool {
	return c < numCabinClasses
}

func (c CabinClass) String() string {
	if !c.Valid() {
		return fmt.Sprintf("CabinClass(%d)", uint8(c))
	}
	return classNames[c]
}

// Multiplier returns the fixed fare multiplier for the class.
func (c CabinClass) Multiplier() (decimal.Decimal, error) {
	if !c.Valid() {
		return decimal.Zero, ErrUnknownCabinClass
	}
	return classMultipliers[c], nil
}

func ParseCabinClass(s string) (CabinClass, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	for c := Economy; c < numCabinClasses; c++ {
		if classNames[c] == v {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCabinClass, s)
}

func (c CabinClass) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, ErrUnknownCabinClass
	}
	return []byte(classNames[c]), nil
}

func (c *CabinClass) UnmarshalText(b []byte) error {
	parsed, err := ParseCabinClass(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// InvalidFareError reports a base price the calculator refuses to price.
type InvalidFareError struct {
	BasePrice float64
	Reason    string
}

func (e *InvalidFareError) Error() string {
	return fmt.Sprintf("invalid fare %v: %s", e.BasePrice, e.Reason)
}

func (e *InvalidFareError) Is(target error) bool {
	return target == ErrInvalidFare
}

// PriceBreakdown is the itemised fare shown to the customer.
// Total == round(BasePrice - EarlyBirdDiscount + LastMinuteFee + SeasonalFee).
type PriceBreakdown struct {
	BasePrice          float64    `json:"basePrice"`
	ClassMultiplier    float64    `json:"classMultiplier"`
	EarlyBirdDiscount  float64    `json:"earlyBirdDiscount"`
	LastMinuteFee      float64    `json:"lastMinuteFee"`
	SeasonalFee        float64    `json:"seasonalFee"`
	DaysUntilDeparture int        `json:"daysUntilDeparture"`
	CabinClass         CabinClass `json:"cabinClass"`
	Total              int64      `json:"total"`
}

// Policy holds the time- and season-based fare rules.
type Policy struct {
	EarlyBirdDays  int
	EarlyBirdRate  decimal.Decimal
	LastMinuteDays int
	LastMinuteRate decimal.Decimal
	SeasonalMonths []time.Month
	SeasonalRate   decimal.Decimal
}

const (
	defaultEarlyBirdDays  = 30
	defaultLastMinuteDays = 7
)

// The early-bird window (days >= 30) and last-minute window (days <= 7) must stay disjoint.
const _ = uint(defaultEarlyBirdDays - defaultLastMinuteDays - 1)

var DefaultPolicy = mustPolicy(Policy{
	EarlyBirdDays:  defaultEarlyBirdDays,
	EarlyBirdRate:  decimal.RequireFromString("0.15"),
	LastMinuteDays: defaultLastMinuteDays,
	LastMinuteRate: decimal.RequireFromString("0.25"),
	SeasonalMonths: []time.Month{time.June, time.July, time.August},
	SeasonalRate:   decimal.RequireFromString("0.20"),
})

func mustPolicy(p Policy) Policy {
	if err := p.Validate(); err != nil {
		panic(err)
	}
	return p
}

// Validate rejects policies whose discount and fee windows could both apply.
func (p Policy) Validate() error {
	if p.LastMinuteDays >= p.EarlyBirdDays {
		return fmt.Errorf("%w: last-minute <= %d days, early-bird >= %d days",
			ErrOverlappingWindows, p.LastMinuteDays, p.EarlyBirdDays)
	}
	rates := []struct {
		name string
		rate decimal.Decimal
	}{
		{"early-bird", p.EarlyBirdRate},
		{"last-minute", p.LastMinuteRate},
		{"seasonal", p.SeasonalRate},
	}
	for _, r := range rates {
		if r.rate.IsNegative() || r.rate.GreaterThan(decimal.NewFromInt(1)) {
			return fmt.Errorf("%w: %s rate %s outside [0,1]", ErrInvalidPolicy, r.name, r.rate)
		}
	}
	for _, m := range p.SeasonalMonths {
		if m < time.January || m > time.December {
			return fmt.Errorf("%w: month %d", ErrInvalidPolicy, m)
		}
	}
	return nil
}

func (p Policy) inSeason(m time.Month) bool {
	for _, s := range p.SeasonalMonths {
		if s == m {
			return true
		}
	}
	return false
}

// Fares maps cabin class to the raw base fare. A missing or zero entry means not offered.
type Fares map[CabinClass]int64

func (f Fares) Offers(c CabinClass) bool {
	return c.Valid() && f[c] > 0
}

// Offered lists offered classes in class order.
func (f Fares) Offered() []CabinClass {
	out := make([]CabinClass, 0, len(f))
	for _, c := range CabinClasses() {
		if f.Offers(c) {
			out = append(out, c)
		}
	}
	return out
}

// Lowest returns the cheapest offered raw fare and false if nothing is offered.
func (f Fares) Lowest() (int64, bool) {
	var lowest int64
	found := false
	for _, c := range f.Offered() {
		if !found || f[c] < lowest {
			lowest = f[c]
			found = true
		}
	}
	return lowest, found
}
