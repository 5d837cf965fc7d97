package types

import (
	"math"
	"testing"
)

func TestMoneyFormat(t *testing.T) {
	cases := []struct {
		in   Money
		want string
	}{
		{HUF(0), "0 Ft"},
		{HUF(999), "999 Ft"},
		{HUF(25900), "25 900 Ft"},
		{HUF(280938), "280 938 Ft"},
		{HUF(1234567), "1 234 567 Ft"},
		{HUF(-3885), "-3 885 Ft"},
		{HUF(math.MaxInt64), "9 223 372 036 854 775 807 Ft"},
		{HUF(math.MinInt64), "-9 223 372 036 854 775 808 Ft"},
		{Money{Amount: 1500, Currency: "eur"}, "1 500 EUR"},
	}
	for _, tc := range cases {
		if got := tc.in.Format(); got != tc.want {
			t.Errorf("Format(%+v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
