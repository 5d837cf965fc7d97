// README: Fare matrix: totals per cabin class over a range of departure days, exported as xlsx.
package main

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"skybook/internal/modules/pricing"
)

const matrixSheet = "Fares"

type MatrixRow struct {
	Departure time.Time
	Days      int
	Totals    []int64
}

// BuildMatrix quotes every cabin class for each departure day starting at from.
func BuildMatrix(p pricing.Policy, base float64, from time.Time, days int, now time.Time) ([]MatrixRow, error) {
	if days <= 0 {
		return nil, fmt.Errorf("days must be positive, got %d", days)
	}
	classes := pricing.CabinClasses()
	rows := make([]MatrixRow, 0, days)
	for i := 0; i < days; i++ {
		dep := from.AddDate(0, 0, i)
		row := MatrixRow{Departure: dep, Totals: make([]int64, len(classes))}
		for j, c := range classes {
			b, err := p.Calculate(base, c, dep, now)
			if err != nil {
				return nil, err
			}
			row.Days = b.DaysUntilDeparture
			row.Totals[j] = b.Total
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func WriteMatrix(path string, base float64, now time.Time, rows []MatrixRow) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(matrixSheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	_ = f.SetCellValue(matrixSheet, "A1", fmt.Sprintf("Base fare %.0f HUF, priced at %s", base, now.Format(time.RFC3339)))
	headers := []string{"Departure", "Days until departure"}
	for _, c := range pricing.CabinClasses() {
		headers = append(headers, c.String())
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(matrixSheet, cell, h)
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 2)
	if err := f.SetCellStyle(matrixSheet, "A2", last, headerStyle); err != nil {
		return err
	}

	for i, r := range rows {
		line := i + 3
		_ = f.SetCellValue(matrixSheet, fmt.Sprintf("A%d", line), r.Departure.Format("2006-01-02"))
		_ = f.SetCellValue(matrixSheet, fmt.Sprintf("B%d", line), r.Days)
		for j, total := range r.Totals {
			cell, _ := excelize.CoordinatesToCellName(j+3, line)
			_ = f.SetCellValue(matrixSheet, cell, total)
		}
	}
	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	if err := f.SetColWidth(matrixSheet, "A", lastCol, 20); err != nil {
		return err
	}
	return f.SaveAs(path)
}
