// README: Fare calculator tests (worked scenarios, rule boundaries, guards).
package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

var budapestWinter = time.FixedZone("CET", 1*60*60)

func at(year int, month time.Month, d, hour int, loc *time.Location) time.Time {
	return time.Date(year, month, d, hour, 0, 0, 0, loc)
}

func TestCalculate_Scenarios(t *testing.T) {
	cases := []struct {
		name       string
		base       float64
		class      CabinClass
		departure  time.Time
		now        time.Time
		wantDays   int
		wantBase   float64
		wantEarly  float64
		wantLast   float64
		wantSeason float64
		wantTotal  int64
	}{
		{
			name:      "economy 35 days ahead in March",
			base:      25900,
			class:     Economy,
			departure: at(2026, time.March, 8, 10, budapestWinter),
			now:       at(2026, time.February, 1, 10, budapestWinter),
			wantDays:  35,
			wantBase:  25900,
			wantEarly: 3885,
			wantTotal: 22015,
		},
		{
			name:      "business 3 days ahead in March",
			base:      89900,
			class:     Business,
			departure: at(2026, time.March, 13, 10, budapestWinter),
			now:       at(2026, time.March, 10, 10, budapestWinter),
			wantDays:  3,
			wantBase:  224750,
			wantLast:  56187.5,
			wantTotal: 280938,
		},
		{
			name:       "first 50 days ahead in July",
			base:       25900,
			class:      First,
			departure:  at(2026, time.July, 20, 10, time.UTC),
			now:        at(2026, time.May, 31, 10, time.UTC),
			wantDays:   50,
			wantBase:   103600,
			wantEarly:  15540,
			wantSeason: 20720,
			wantTotal:  108780,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Calculate(tc.base, tc.class, tc.departure, tc.now)
			if err != nil {
				t.Fatalf("Calculate() error = %v", err)
			}
			if got.DaysUntilDeparture != tc.wantDays {
				t.Errorf("days = %d, want %d", got.DaysUntilDeparture, tc.wantDays)
			}
			if got.BasePrice != tc.wantBase {
				t.Errorf("basePrice = %v, want %v", got.BasePrice, tc.wantBase)
			}
			if got.EarlyBirdDiscount != tc.wantEarly {
				t.Errorf("earlyBird = %v, want %v", got.EarlyBirdDiscount, tc.wantEarly)
			}
			if got.LastMinuteFee != tc.wantLast {
				t.Errorf("lastMinute = %v, want %v", got.LastMinuteFee, tc.wantLast)
			}
			if got.SeasonalFee != tc.wantSeason {
				t.Errorf("seasonal = %v, want %v", got.SeasonalFee, tc.wantSeason)
			}
			if got.Total != tc.wantTotal {
				t.Errorf("total = %d, want %d", got.Total, tc.wantTotal)
			}
		})
	}
}

func TestCalculate_Multipliers(t *testing.T) {
	now := at(2026, time.March, 1, 0, time.UTC)
	departure := now.Add(15 * day) // no time rule, no season
	want := map[CabinClass]float64{Economy: 1.0, Business: 2.5, First: 4.0}

	for _, c := range CabinClasses() {
		got, err := Calculate(10000, c, departure, now)
		if err != nil {
			t.Fatalf("%s: %v", c, err)
		}
		if got.ClassMultiplier != want[c] {
			t.Errorf("%s multiplier = %v, want %v", c, got.ClassMultiplier, want[c])
		}
		if got.BasePrice != 10000*want[c] {
			t.Errorf("%s basePrice = %v, want %v", c, got.BasePrice, 10000*want[c])
		}
	}
	if len(want) != len(CabinClasses()) {
		t.Fatalf("class table has %d entries, want %d", len(CabinClasses()), len(want))
	}
}

func TestCalculate_Boundaries(t *testing.T) {
	now := at(2026, time.March, 1, 0, time.UTC)

	cases := []struct {
		name      string
		departure time.Time
		wantDays  int
		wantEarly float64
		wantLast  float64
	}{
		{"exactly 30 days", now.Add(30 * day), 30, 1500, 0},
		{"29 days and an hour rounds up to 30", now.Add(29*day + time.Hour), 30, 1500, 0},
		{"exactly 29 days", now.Add(29 * day), 29, 0, 0},
		{"exactly 8 days", now.Add(8 * day), 8, 0, 0},
		{"exactly 7 days", now.Add(7 * day), 7, 0, 2500},
		{"7 days and a minute rounds up to 8", now.Add(7*day + time.Minute), 8, 0, 0},
		{"same instant", now, 0, 0, 2500},
		{"already departed", now.Add(-36 * time.Hour), -1, 0, 2500},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Calculate(10000, Economy, tc.departure, now)
			if err != nil {
				t.Fatalf("Calculate() error = %v", err)
			}
			if got.DaysUntilDeparture != tc.wantDays {
				t.Errorf("days = %d, want %d", got.DaysUntilDeparture, tc.wantDays)
			}
			if got.EarlyBirdDiscount != tc.wantEarly {
				t.Errorf("earlyBird = %v, want %v", got.EarlyBirdDiscount, tc.wantEarly)
			}
			if got.LastMinuteFee != tc.wantLast {
				t.Errorf("lastMinute = %v, want %v", got.LastMinuteFee, tc.wantLast)
			}
			if got.EarlyBirdDiscount != 0 && got.LastMinuteFee != 0 {
				t.Errorf("both early-bird and last-minute applied at %d days", got.DaysUntilDeparture)
			}
		})
	}
}

func TestCalculate_SeasonalMonths(t *testing.T) {
	for m := time.January; m <= time.December; m++ {
		departure := time.Date(2027, m, 15, 12, 0, 0, 0, time.UTC)
		now := departure.Add(-15 * day)
		got, err := Calculate(10000, Economy, departure, now)
		if err != nil {
			t.Fatalf("%s: %v", m, err)
		}
		want := 0.0
		if m == time.June || m == time.July || m == time.August {
			want = 2000
		}
		if got.SeasonalFee != want {
			t.Errorf("%s seasonal = %v, want %v", m, got.SeasonalFee, want)
		}
	}
}

func TestCalculate_SeasonUsesDepartureLocation(t *testing.T) {
	summer := time.FixedZone("CEST", 2*60*60)
	// 00:30 on 1 June locally is still 31 May in UTC.
	local := time.Date(2026, time.June, 1, 0, 30, 0, 0, summer)
	now := local.Add(-15 * day)

	got, err := Calculate(10000, Economy, local, now)
	if err != nil {
		t.Fatal(err)
	}
	if got.SeasonalFee != 2000 {
		t.Errorf("local June departure: seasonal = %v, want 2000", got.SeasonalFee)
	}

	got, err = Calculate(10000, Economy, local.UTC(), now)
	if err != nil {
		t.Fatal(err)
	}
	if got.SeasonalFee != 0 {
		t.Errorf("UTC May departure: seasonal = %v, want 0", got.SeasonalFee)
	}
}

func TestCalculate_TotalInvariant(t *testing.T) {
	now := at(2026, time.January, 10, 9, time.UTC)
	bases := []float64{0, 1, 333, 15000, 25900, 89900, 123457, 250000}
	offsets := []int{-2, 0, 3, 7, 8, 20, 29, 30, 45, 160, 200}

	for _, base := range bases {
		for _, c := range CabinClasses() {
			for _, off := range offsets {
				departure := now.Add(time.Duration(off) * day)
				got, err := Calculate(base, c, departure, now)
				if err != nil {
					t.Fatalf("Calculate(%v, %s, +%dd): %v", base, c, off, err)
				}
				sum := decimal.NewFromFloat(got.BasePrice).
					Sub(decimal.NewFromFloat(got.EarlyBirdDiscount)).
					Add(decimal.NewFromFloat(got.LastMinuteFee)).
					Add(decimal.NewFromFloat(got.SeasonalFee))
				if want := sum.Round(0).IntPart(); got.Total != want {
					t.Errorf("Calculate(%v, %s, +%dd) total = %d, want %d", base, c, off, got.Total, want)
				}
				if got.EarlyBirdDiscount < 0 || got.LastMinuteFee < 0 || got.SeasonalFee < 0 {
					t.Errorf("negative component in %+v", got)
				}
			}
		}
	}
}

func TestCalculate_Idempotent(t *testing.T) {
	now := at(2026, time.April, 2, 8, time.UTC)
	departure := at(2026, time.August, 1, 6, time.UTC)
	first, err := Calculate(47300, Business, departure, now)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, err := Calculate(47300, Business, departure, now)
		if err != nil {
			t.Fatal(err)
		}
		if again != first {
			t.Fatalf("run %d = %+v, want %+v", i, again, first)
		}
	}
}

func TestCalculate_Guards(t *testing.T) {
	now := at(2026, time.March, 1, 0, time.UTC)
	departure := now.Add(10 * day)

	for _, base := range []float64{-1, math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := Calculate(base, Economy, departure, now)
		if !errors.Is(err, ErrInvalidFare) {
			t.Errorf("Calculate(%v) error = %v, want ErrInvalidFare", base, err)
		}
		var fareErr *InvalidFareError
		if !errors.As(err, &fareErr) {
			t.Errorf("Calculate(%v) error type = %T, want *InvalidFareError", base, err)
		}
	}

	// 1e19 * 4.0 does not fit the int64 total.
	if _, err := Calculate(1e19, First, now.Add(15*day), now); !errors.Is(err, ErrInvalidFare) {
		t.Errorf("Calculate(1e19, FIRST) error = %v, want ErrInvalidFare", err)
	}
	if got, err := Calculate(1e15, First, now.Add(15*day), now); err != nil || got.Total != 4e15 {
		t.Errorf("Calculate(1e15, FIRST) = %d, %v; want 4000000000000000", got.Total, err)
	}

	got, err := Calculate(0, First, departure, now)
	if err != nil {
		t.Fatalf("zero base price: %v", err)
	}
	if got.Total != 0 {
		t.Errorf("zero base price total = %d, want 0", got.Total)
	}

	if _, err := Calculate(1000, CabinClass(9), departure, now); !errors.Is(err, ErrUnknownCabinClass) {
		t.Errorf("unknown class error = %v, want ErrUnknownCabinClass", err)
	}
}

func TestPolicy_Validate(t *testing.T) {
	if err := DefaultPolicy.Validate(); err != nil {
		t.Fatalf("DefaultPolicy.Validate() = %v", err)
	}

	overlapping := DefaultPolicy
	overlapping.LastMinuteDays = overlapping.EarlyBirdDays
	if err := overlapping.Validate(); !errors.Is(err, ErrOverlappingWindows) {
		t.Errorf("equal thresholds: %v, want ErrOverlappingWindows", err)
	}
	now := at(2026, time.March, 1, 0, time.UTC)
	if _, err := overlapping.Calculate(1000, Economy, now.Add(30*day), now); !errors.Is(err, ErrOverlappingWindows) {
		t.Errorf("Calculate with overlapping policy: %v, want ErrOverlappingWindows", err)
	}

	negative := DefaultPolicy
	negative.SeasonalRate = decimal.RequireFromString("-0.2")
	if err := negative.Validate(); !errors.Is(err, ErrInvalidPolicy) {
		t.Errorf("negative rate: %v, want ErrInvalidPolicy", err)
	}
}

func TestParseCabinClass(t *testing.T) {
	cases := []struct {
		in      string
		want    CabinClass
		wantErr bool
	}{
		{"ECONOMY", Economy, false},
		{"business", Business, false},
		{" First ", First, false},
		{"PREMIUM_ECONOMY", 0, true},
		{"", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseCabinClass(tc.in)
		if tc.wantErr {
			if !errors.Is(err, ErrUnknownCabinClass) {
				t.Errorf("ParseCabinClass(%q) error = %v, want ErrUnknownCabinClass", tc.in, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("ParseCabinClass(%q) = %v, %v; want %v", tc.in, got, err, tc.want)
		}
	}
}

func TestFares(t *testing.T) {
	fares := Fares{Economy: 25900, Business: 0, First: 120000}
	offered := fares.Offered()
	if len(offered) != 2 || offered[0] != Economy || offered[1] != First {
		t.Fatalf("Offered() = %v", offered)
	}
	if low, ok := fares.Lowest(); !ok || low != 25900 {
		t.Errorf("Lowest() = %d, %v", low, ok)
	}
	if _, ok := (Fares{}).Lowest(); ok {
		t.Errorf("empty fares reported a lowest fare")
	}

	b, err := json.Marshal(Fares{Economy: 100, First: 400})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"ECONOMY":100,"FIRST":400}` {
		t.Errorf("json = %s", b)
	}
}

func TestService_Quote(t *testing.T) {
	summer := time.FixedZone("CEST", 2*60*60)
	clock := func() time.Time { return time.Date(2026, time.May, 17, 22, 30, 0, 0, time.UTC) }
	svc := NewService(summer, clock)
	ctx := context.Background()

	fares := Fares{Economy: 25900, Business: 64750}
	// Stored as UTC; the service reads the month in the display location (1 June).
	departure := time.Date(2026, time.May, 31, 22, 30, 0, 0, time.UTC)

	got, err := svc.Quote(ctx, QuoteRequest{Fares: fares, Class: Economy, Departure: departure})
	if err != nil {
		t.Fatalf("Quote() error = %v", err)
	}
	if got.DaysUntilDeparture != 14 {
		t.Errorf("days = %d, want 14", got.DaysUntilDeparture)
	}
	if got.SeasonalFee != 5180 {
		t.Errorf("seasonal = %v, want 5180", got.SeasonalFee)
	}
	if got.Total != 31080 {
		t.Errorf("total = %d, want 31080", got.Total)
	}

	if _, err := svc.Quote(ctx, QuoteRequest{Fares: fares, Class: First, Departure: departure}); !errors.Is(err, ErrClassNotOffered) {
		t.Errorf("First not offered: %v, want ErrClassNotOffered", err)
	}

	cheapest, err := svc.Estimate(ctx, fares, departure)
	if err != nil {
		t.Fatal(err)
	}
	if cheapest.CabinClass != Economy || cheapest.Total != 31080 {
		t.Errorf("Estimate() = %s %d, want ECONOMY 31080", cheapest.CabinClass, cheapest.Total)
	}
	if _, err := svc.Estimate(ctx, Fares{}, departure); !errors.Is(err, ErrClassNotOffered) {
		t.Errorf("Estimate(no fares) = %v, want ErrClassNotOffered", err)
	}
}

func TestService_WithPolicy(t *testing.T) {
	svc := NewService(time.UTC, nil)
	bad := DefaultPolicy
	bad.LastMinuteDays = 45
	if _, err := svc.WithPolicy(bad); !errors.Is(err, ErrOverlappingWindows) {
		t.Errorf("WithPolicy(overlap) = %v, want ErrOverlappingWindows", err)
	}
}
