// README: Common value objects (identifiers, money) used across modules.
package types

import (
	"strconv"
	"strings"
)

type ID string

type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func HUF(amount int64) Money {
	return Money{Amount: amount, Currency: "HUF"}
}

// Format renders whole currency units with space-grouped thousands, e.g. "25 900 Ft".
func (m Money) Format() string {
	grouped := groupThousands(m.Amount)
	switch strings.ToUpper(m.Currency) {
	case "HUF", "":
		return grouped + " Ft"
	default:
		return grouped + " " + strings.ToUpper(m.Currency)
	}
}

func groupThousands(value int64) string {
	sign := ""
	magnitude := uint64(value)
	if value < 0 {
		sign = "-"
		// Unsigned negation is exact for math.MinInt64.
		magnitude = -magnitude
	}
	raw := strconv.FormatUint(magnitude, 10)
	if len(raw) <= 3 {
		return sign + raw
	}

	var b strings.Builder
	b.Grow(len(raw) + len(raw)/3)
	lead := len(raw) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(raw[:lead])
	for i := lead; i < len(raw); i += 3 {
		b.WriteByte(' ')
		b.WriteString(raw[i : i+3])
	}
	return sign + b.String()
}
