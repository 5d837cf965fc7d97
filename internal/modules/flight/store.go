// README: Flight catalogue store backed by PostgreSQL.
package flight

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"skybook/internal/modules/pricing"
	"skybook/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const flightColumns = `
	f.id, f.flight_number, f.airline,
	da.code, da.name, da.city, da.country,
	aa.code, aa.name, aa.city, aa.country,
	f.departure_time, f.arrival_time, f.aircraft_type, f.status`

const flightJoins = `
	FROM flights f
	JOIN airports da ON da.code = f.departure_airport
	JOIN airports aa ON aa.code = f.arrival_airport`

func (s *Store) ListByRoute(ctx context.Context, origin, destination string, from, to time.Time) ([]Flight, error) {
	rows, err := s.db.Query(ctx, `SELECT `+flightColumns+flightJoins+`
		WHERE f.departure_airport = $1
		  AND f.arrival_airport = $2
		  AND f.departure_time >= $3
		  AND f.departure_time < $4
		ORDER BY f.departure_time`,
		origin, destination, from, to,
	)
	if err != nil {
		return nil, err
	}
	flights, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Flight, error) {
		return scanFlight(row)
	})
	if err != nil {
		return nil, err
	}
	if err := s.attachInventory(ctx, flights); err != nil {
		return nil, err
	}
	return flights, nil
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Flight, error) {
	row := s.db.QueryRow(ctx, `SELECT `+flightColumns+flightJoins+` WHERE f.id = $1`, string(id))
	f, err := scanFlight(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	flights := []Flight{f}
	if err := s.attachInventory(ctx, flights); err != nil {
		return nil, err
	}
	return &flights[0], nil
}

func (s *Store) Seats(ctx context.Context, id types.ID) ([]Seat, error) {
	var exists bool
	if err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM flights WHERE id = $1)`, string(id)).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}

	rows, err := s.db.Query(ctx, `
		SELECT seat_number, cabin_class, available
		FROM seats
		WHERE flight_id = $1
		ORDER BY row_number, seat_number`, string(id),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seats := make([]Seat, 0)
	for rows.Next() {
		var seat Seat
		var class string
		if err := rows.Scan(&seat.Number, &class, &seat.Available); err != nil {
			return nil, err
		}
		if seat.Class, err = pricing.ParseCabinClass(class); err != nil {
			return nil, fmt.Errorf("seat %s: %w", seat.Number, err)
		}
		seats = append(seats, seat)
	}
	return seats, rows.Err()
}

func (s *Store) Airports(ctx context.Context) ([]Airport, error) {
	rows, err := s.db.Query(ctx, `SELECT code, name, city, country FROM airports ORDER BY code`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Airport, error) {
		var a Airport
		err := row.Scan(&a.Code, &a.Name, &a.City, &a.Country)
		return a, err
	})
}

// attachInventory loads fares and seat counts for the given flights in two round trips.
func (s *Store) attachInventory(ctx context.Context, flights []Flight) error {
	if len(flights) == 0 {
		return nil
	}
	ids := make([]string, len(flights))
	index := make(map[string]int, len(flights))
	for i := range flights {
		ids[i] = string(flights[i].ID)
		index[ids[i]] = i
		flights[i].Fares = pricing.Fares{}
		flights[i].Capacity = map[pricing.CabinClass]int{}
		flights[i].AvailableSeats = map[pricing.CabinClass]int{}
	}

	rows, err := s.db.Query(ctx, `
		SELECT flight_id, cabin_class, base_price
		FROM flight_fares
		WHERE flight_id = ANY($1)`, ids,
	)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id, class string
		var price int64
		if err := rows.Scan(&id, &class, &price); err != nil {
			return err
		}
		c, err := pricing.ParseCabinClass(class)
		if err != nil {
			return fmt.Errorf("flight %s fare: %w", id, err)
		}
		flights[index[id]].Fares[c] = price
	}
	if err := rows.Err(); err != nil {
		return err
	}

	seatRows, err := s.db.Query(ctx, `
		SELECT flight_id, cabin_class, COUNT(*), COUNT(*) FILTER (WHERE available)
		FROM seats
		WHERE flight_id = ANY($1)
		GROUP BY flight_id, cabin_class`, ids,
	)
	if err != nil {
		return err
	}
	defer seatRows.Close()
	for seatRows.Next() {
		var id, class string
		var capacity, available int
		if err := seatRows.Scan(&id, &class, &capacity, &available); err != nil {
			return err
		}
		c, err := pricing.ParseCabinClass(class)
		if err != nil {
			return fmt.Errorf("flight %s seats: %w", id, err)
		}
		flights[index[id]].Capacity[c] = capacity
		flights[index[id]].AvailableSeats[c] = available
	}
	return seatRows.Err()
}

func scanFlight(row pgx.Row) (Flight, error) {
	var f Flight
	var status string
	err := row.Scan(
		&f.ID, &f.FlightNumber, &f.Airline,
		&f.Departure.Code, &f.Departure.Name, &f.Departure.City, &f.Departure.Country,
		&f.Arrival.Code, &f.Arrival.Name, &f.Arrival.City, &f.Arrival.Country,
		&f.DepartureTime, &f.ArrivalTime, &f.AircraftType, &status,
	)
	f.Status = Status(status)
	return f, err
}
