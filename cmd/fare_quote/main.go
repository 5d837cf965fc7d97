// README: Command-line fare quote and fare-matrix export for checking pricing rules by hand.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"
	_ "time/tzdata"

	"skybook/internal/modules/pricing"
	"skybook/internal/types"
)

func main() {
	var (
		base      = flag.Float64("base", 25900, "base fare in HUF")
		class     = flag.String("class", "ECONOMY", "cabin class: ECONOMY, BUSINESS or FIRST")
		departure = flag.String("departure", "", "departure date (YYYY-MM-DD) or RFC3339 time")
		nowFlag   = flag.String("now", "", "pricing instant as RFC3339 (default: current time)")
		tz        = flag.String("tz", "Europe/Budapest", "calendar used for dates and the seasonal rule")
		matrix    = flag.String("matrix", "", "write an xlsx fare matrix to this path instead of a single quote")
		days      = flag.Int("days", 90, "number of departure days in the fare matrix")
	)
	flag.Parse()

	loc, err := time.LoadLocation(*tz)
	if err != nil {
		fatal("load time zone", err)
	}
	now := time.Now().In(loc)
	if *nowFlag != "" {
		if now, err = time.Parse(time.RFC3339, *nowFlag); err != nil {
			fatal("parse -now", err)
		}
	}

	if *matrix != "" {
		from := now
		if *departure != "" {
			if from, err = parseDeparture(*departure, loc); err != nil {
				fatal("parse -departure", err)
			}
		}
		rows, err := BuildMatrix(pricing.DefaultPolicy, *base, from, *days, now)
		if err != nil {
			fatal("build fare matrix", err)
		}
		if err := WriteMatrix(*matrix, *base, now, rows); err != nil {
			fatal("write fare matrix", err)
		}
		slog.Info("fare matrix written", "path", *matrix, "rows", len(rows))
		return
	}

	if *departure == "" {
		fatal("missing flag", fmt.Errorf("-departure is required"))
	}
	dep, err := parseDeparture(*departure, loc)
	if err != nil {
		fatal("parse -departure", err)
	}
	c, err := pricing.ParseCabinClass(*class)
	if err != nil {
		fatal("parse -class", err)
	}
	b, err := pricing.Calculate(*base, c, dep, now)
	if err != nil {
		fatal("calculate", err)
	}

	fmt.Printf("cabin class          %s (x%g)\n", b.CabinClass, b.ClassMultiplier)
	fmt.Printf("days until departure %d\n", b.DaysUntilDeparture)
	fmt.Printf("base price           %.2f\n", b.BasePrice)
	fmt.Printf("early-bird discount  -%.2f\n", b.EarlyBirdDiscount)
	fmt.Printf("last-minute fee      +%.2f\n", b.LastMinuteFee)
	fmt.Printf("seasonal fee         +%.2f\n", b.SeasonalFee)
	fmt.Printf("total                %s\n", types.HUF(b.Total).Format())
}

// parseDeparture accepts a calendar date (midnight in loc) or a full RFC3339 timestamp.
func parseDeparture(v string, loc *time.Location) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02", v, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, err
	}
	return t.In(loc), nil
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
