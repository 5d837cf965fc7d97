// README: Booking store backed by PostgreSQL.
package booking

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"skybook/internal/types"
)

const uniqueViolation = "23505"

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, b *Booking) error {
	bd := b.Breakdown
	_, err := s.db.Exec(ctx, `
		INSERT INTO bookings (
			id, reference, flight_id,
			first_name, last_name, email, phone, passport_number, birth_date,
			cabin_class, seat_number, status, status_version,
			total_price, currency,
			base_price, class_multiplier, early_bird_discount, last_minute_fee, seasonal_fee, days_until_departure,
			created_at
		) VALUES (
			$1, $2, $3,
			$4, $5, $6, $7, $8, $9,
			$10, $11, $12, $13,
			$14, $15,
			$16, $17, $18, $19, $20, $21,
			$22
		)`,
		string(b.ID), b.Reference, string(b.FlightID),
		b.Passenger.FirstName, b.Passenger.LastName, b.Passenger.Email, b.Passenger.Phone,
		b.Passenger.PassportNumber, b.Passenger.BirthDate,
		b.CabinClass.String(), b.SeatNumber, string(b.Status), b.StatusVersion,
		b.TotalPrice.Amount, b.TotalPrice.Currency,
		bd.BasePrice, bd.ClassMultiplier, bd.EarlyBirdDiscount, bd.LastMinuteFee, bd.SeasonalFee, bd.DaysUntilDeparture,
		b.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == "bookings_reference_key" {
		return ErrReferenceTaken
	}
	return err
}

func (s *Store) GetByReference(ctx context.Context, reference string) (*Booking, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id::text, reference, flight_id,
		       first_name, last_name, email, phone, passport_number, birth_date,
		       cabin_class, seat_number, status, status_version,
		       total_price, currency,
		       base_price, class_multiplier, early_bird_discount, last_minute_fee, seasonal_fee, days_until_departure,
		       created_at, confirmed_at, cancelled_at, cancellation_reason
		FROM bookings
		WHERE reference = $1`, reference,
	)

	var b Booking
	var class string
	bd := &b.Breakdown
	err := row.Scan(
		&b.ID, &b.Reference, &b.FlightID,
		&b.Passenger.FirstName, &b.Passenger.LastName, &b.Passenger.Email, &b.Passenger.Phone,
		&b.Passenger.PassportNumber, &b.Passenger.BirthDate,
		&class, &b.SeatNumber, &b.Status, &b.StatusVersion,
		&b.TotalPrice.Amount, &b.TotalPrice.Currency,
		&bd.BasePrice, &bd.ClassMultiplier, &bd.EarlyBirdDiscount, &bd.LastMinuteFee, &bd.SeasonalFee, &bd.DaysUntilDeparture,
		&b.CreatedAt, &b.ConfirmedAt, &b.CancelledAt, &b.CancelReason,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := b.CabinClass.UnmarshalText([]byte(class)); err != nil {
		return nil, err
	}
	bd.CabinClass = b.CabinClass
	bd.Total = b.TotalPrice.Amount
	return &b, nil
}

func (s *Store) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, at time.Time, reason *string) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE bookings
		SET status = $1,
		    status_version = status_version + 1,
		    confirmed_at = CASE WHEN $1 = 'CONFIRMED' THEN $6::timestamptz ELSE confirmed_at END,
		    cancelled_at = CASE WHEN $1 = 'CANCELLED' THEN $6::timestamptz ELSE cancelled_at END,
		    cancellation_reason = COALESCE($2, cancellation_reason)
		WHERE id = $3 AND status = $4 AND status_version = $5`,
		string(to),
		reason,
		string(id),
		string(from),
		version,
		at,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) AppendEvent(ctx context.Context, e *Event) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO booking_events (
			booking_id, from_status, to_status, reason, created_at
		) VALUES ($1, $2, $3, $4, $5)`,
		string(e.BookingID),
		string(e.FromStatus),
		string(e.ToStatus),
		e.Reason,
		e.CreatedAt,
	)
	return err
}

func (s *Store) Events(ctx context.Context, id types.ID) ([]Event, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, booking_id::text, from_status, to_status, reason, created_at
		FROM booking_events
		WHERE booking_id = $1
		ORDER BY id`, string(id),
	)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Event, error) {
		var e Event
		err := row.Scan(&e.ID, &e.BookingID, &e.FromStatus, &e.ToStatus, &e.Reason, &e.CreatedAt)
		return e, err
	})
}
