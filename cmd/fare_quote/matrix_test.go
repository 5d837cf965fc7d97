package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"skybook/internal/modules/pricing"
)

func TestBuildMatrixWindows(t *testing.T) {
	now := time.Date(2026, time.February, 10, 10, 0, 0, 0, time.UTC)
	rows, err := BuildMatrix(pricing.DefaultPolicy, 10000, now.AddDate(0, 0, 5), 30, now)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(rows) != 30 {
		t.Fatalf("rows = %d, want 30", len(rows))
	}
	cases := []struct {
		days    int
		economy int64
	}{
		{5, 12500},  // last-minute
		{7, 12500},  // last-minute edge
		{8, 10000},  // neutral
		{29, 10000}, // neutral
		{30, 8500},  // early-bird
	}
	for _, tc := range cases {
		r := rows[tc.days-5]
		if r.Days != tc.days || r.Totals[0] != tc.economy {
			t.Errorf("day %d: got days=%d economy=%d, want %d", tc.days, r.Days, r.Totals[0], tc.economy)
		}
	}
	if got := rows[0].Totals[2]; got != 50000 {
		t.Errorf("first class last-minute = %d, want 50000", got)
	}

	if _, err := BuildMatrix(pricing.DefaultPolicy, 10000, now, 0, now); err == nil {
		t.Fatal("expected error for zero days")
	}
}

func TestWriteMatrix(t *testing.T) {
	now := time.Date(2026, time.May, 1, 12, 0, 0, 0, time.UTC)
	rows, err := BuildMatrix(pricing.DefaultPolicy, 25900, now.AddDate(0, 0, 40), 3, now)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	path := filepath.Join(t.TempDir(), "fares.xlsx")
	if err := WriteMatrix(path, 25900, now, rows); err != nil {
		t.Fatalf("write: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	got, err := f.GetRows(matrixSheet)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("sheet rows = %d, want 5", len(got))
	}
	if got[1][2] != "ECONOMY" || got[1][4] != "FIRST" {
		t.Fatalf("header = %v", got[1])
	}
	// 10 June, 40 days out: 25900 - 15% + 20% summer
	if got[2][0] != "2026-06-10" || got[2][2] != "27195" {
		t.Fatalf("first data row = %v", got[2])
	}
}
