// README: Bulk catalogue import into PostgreSQL (airports, flights, fares and the generated seat map).
package flight

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

type ImportStats struct {
	Airports int
	Flights  int
	Seats    int64
}

// Import upserts the catalogue in one transaction. Fares and seats of every imported
// flight are replaced; flights not in the input are left alone.
func (s *Store) Import(ctx context.Context, airports []Airport, flights []Flight) (ImportStats, error) {
	var stats ImportStats
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, a := range airports {
			batch.Queue(`
				INSERT INTO airports (code, name, city, country)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (code) DO UPDATE
				SET name = EXCLUDED.name, city = EXCLUDED.city, country = EXCLUDED.country`,
				a.Code, a.Name, a.City, a.Country,
			)
		}
		for _, f := range flights {
			status := f.Status
			if status == "" {
				status = StatusScheduled
			}
			batch.Queue(`
				INSERT INTO flights (id, flight_number, airline, departure_airport, arrival_airport,
					departure_time, arrival_time, aircraft_type, status)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
				ON CONFLICT (id) DO UPDATE
				SET flight_number = EXCLUDED.flight_number,
				    airline = EXCLUDED.airline,
				    departure_airport = EXCLUDED.departure_airport,
				    arrival_airport = EXCLUDED.arrival_airport,
				    departure_time = EXCLUDED.departure_time,
				    arrival_time = EXCLUDED.arrival_time,
				    aircraft_type = EXCLUDED.aircraft_type,
				    status = EXCLUDED.status`,
				string(f.ID), f.FlightNumber, f.Airline, f.Departure.Code, f.Arrival.Code,
				f.DepartureTime, f.ArrivalTime, f.AircraftType, string(status),
			)
			batch.Queue(`DELETE FROM flight_fares WHERE flight_id = $1`, string(f.ID))
			batch.Queue(`DELETE FROM seats WHERE flight_id = $1`, string(f.ID))
			for _, c := range f.Fares.Offered() {
				batch.Queue(`INSERT INTO flight_fares (flight_id, cabin_class, base_price) VALUES ($1, $2, $3)`,
					string(f.ID), c.String(), f.Fares[c])
			}
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("upsert catalogue: %w", err)
		}

		rows := make([][]any, 0)
		for _, f := range flights {
			for _, seat := range seatMap(f.Capacity, f.AvailableSeats) {
				rows = append(rows, []any{string(f.ID), seat.Number, seatRow(seat.Number), seat.Class.String(), seat.Available})
			}
		}
		n, err := tx.CopyFrom(ctx,
			pgx.Identifier{"seats"},
			[]string{"flight_id", "seat_number", "row_number", "cabin_class", "available"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("copy seats: %w", err)
		}
		stats = ImportStats{Airports: len(airports), Flights: len(flights), Seats: n}
		return nil
	})
	return stats, err
}

// seatRow parses the row out of a seat number like "12C".
func seatRow(number string) int {
	row := 0
	for _, r := range number {
		if r < '0' || r > '9' {
			break
		}
		row = row*10 + int(r-'0')
	}
	return row
}
