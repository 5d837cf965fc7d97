// README: Booking service implements creation, pricing at booking time and status transitions.
package booking

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"skybook/internal/modules/flight"
	"skybook/internal/modules/pricing"
	"skybook/internal/types"
)

type Flights interface {
	Get(ctx context.Context, id types.ID) (*flight.Flight, error)
	FindSeat(ctx context.Context, id types.ID, number string) (flight.Seat, error)
}

type Pricing interface {
	Quote(ctx context.Context, req pricing.QuoteRequest) (pricing.PriceBreakdown, error)
	Now() time.Time
}

var (
	ErrInvalidState       = errors.New("invalid state transition")
	ErrNotFound           = errors.New("booking not found")
	ErrConflict           = errors.New("booking state conflict")
	ErrBadRequest         = errors.New("bad request")
	ErrReferenceTaken     = errors.New("booking reference already taken")
	ErrReferenceExhausted = errors.New("could not allocate a booking reference")
	ErrSoldOut            = errors.New("no seats left in cabin class")
	ErrFlightNotBookable  = errors.New("flight is not open for booking")
	ErrSeatUnavailable    = errors.New("seat is not available")
)

const (
	referenceLength   = 6
	referenceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	referenceAttempts = 5
)

var referencePattern = regexp.MustCompile(`^[A-Z0-9]{6}$`)

type Service struct {
	repo     Repository
	flights  Flights
	pricing  Pricing
	currency string
}

func NewService(repo Repository, flights Flights, pricing Pricing, currency string) *Service {
	if currency == "" {
		currency = "HUF"
	}
	return &Service{repo: repo, flights: flights, pricing: pricing, currency: currency}
}

type CreateCommand struct {
	FlightID   types.ID
	Passenger  Passenger
	// Class may be nil when SeatNumber is set; the seat's cabin is used then.
	Class      *pricing.CabinClass
	SeatNumber string
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Booking, error) {
	if cmd.FlightID == "" {
		return nil, fmt.Errorf("%w: flightId is required", ErrBadRequest)
	}
	seatNumber := strings.ToUpper(strings.TrimSpace(cmd.SeatNumber))
	if cmd.Class == nil && seatNumber == "" {
		return nil, fmt.Errorf("%w: seatClass or seatNumber is required", ErrBadRequest)
	}
	if cmd.Class != nil && !cmd.Class.Valid() {
		return nil, fmt.Errorf("%w: %w", ErrBadRequest, pricing.ErrUnknownCabinClass)
	}
	now := s.pricing.Now()
	p := trimPassenger(cmd.Passenger)
	if err := ValidatePassenger(p, now); err != nil {
		return nil, err
	}

	f, err := s.flights.Get(ctx, cmd.FlightID)
	if err != nil {
		return nil, err
	}
	if !f.Status.Bookable() {
		return nil, fmt.Errorf("%w: status %s", ErrFlightNotBookable, f.Status)
	}

	var seat *string
	var class pricing.CabinClass
	if cmd.Class != nil {
		class = *cmd.Class
	}
	if seatNumber != "" {
		st, err := s.flights.FindSeat(ctx, f.ID, seatNumber)
		if err != nil {
			return nil, err
		}
		if cmd.Class == nil {
			class = st.Class
		} else if st.Class != class {
			return nil, fmt.Errorf("%w: seat %s is in %s", ErrBadRequest, seatNumber, st.Class)
		}
		if !st.Available {
			return nil, fmt.Errorf("%w: %s", ErrSeatUnavailable, seatNumber)
		}
		seat = &seatNumber
	}
	if !f.Fares.Offers(class) {
		return nil, fmt.Errorf("%w: %s", pricing.ErrClassNotOffered, class)
	}
	if f.SeatsLeft(class) < 1 {
		return nil, fmt.Errorf("%w: %s", ErrSoldOut, class)
	}

	quote, err := s.pricing.Quote(ctx, pricing.QuoteRequest{Fares: f.Fares, Class: class, Departure: f.DepartureTime})
	if err != nil {
		return nil, err
	}

	b := &Booking{
		ID:            types.ID(uuid.NewString()),
		FlightID:      f.ID,
		Passenger:     p,
		CabinClass:    class,
		SeatNumber:    seat,
		Status:        StatusPending,
		StatusVersion: 0,
		TotalPrice:    types.Money{Amount: quote.Total, Currency: s.currency},
		Breakdown:     quote,
		CreatedAt:     now,
	}
	if err := s.insertWithReference(ctx, b); err != nil {
		return nil, err
	}
	if err := s.repo.AppendEvent(ctx, &Event{
		BookingID:  b.ID,
		FromStatus: StatusNone,
		ToStatus:   StatusPending,
		CreatedAt:  now,
	}); err != nil {
		slog.WarnContext(ctx, "append booking event failed", "booking_id", b.ID, "error", err)
	}
	slog.InfoContext(ctx, "booking created",
		"reference", b.Reference,
		"flight_id", b.FlightID,
		"cabin_class", b.CabinClass.String(),
		"total", b.TotalPrice.Amount,
	)
	return b, nil
}

func (s *Service) insertWithReference(ctx context.Context, b *Booking) error {
	for i := 0; i < referenceAttempts; i++ {
		ref, err := newReference()
		if err != nil {
			return err
		}
		b.Reference = ref
		err = s.repo.Create(ctx, b)
		if errors.Is(err, ErrReferenceTaken) {
			slog.DebugContext(ctx, "booking reference collision", "reference", ref, "attempt", i+1)
			continue
		}
		return err
	}
	b.Reference = ""
	return ErrReferenceExhausted
}

func (s *Service) Get(ctx context.Context, reference string) (*Booking, error) {
	ref, err := normalizeReference(reference)
	if err != nil {
		return nil, err
	}
	return s.repo.GetByReference(ctx, ref)
}

// Events returns the status history of the booking, oldest first.
func (s *Service) Events(ctx context.Context, reference string) ([]Event, error) {
	b, err := s.Get(ctx, reference)
	if err != nil {
		return nil, err
	}
	return s.repo.Events(ctx, b.ID)
}

func (s *Service) Confirm(ctx context.Context, reference string) (*Booking, error) {
	return s.transition(ctx, reference, StatusConfirmed, nil)
}

func (s *Service) Cancel(ctx context.Context, reference, reason string) (*Booking, error) {
	var r *string
	if reason = strings.TrimSpace(reason); reason != "" {
		r = &reason
	}
	return s.transition(ctx, reference, StatusCancelled, r)
}

func (s *Service) transition(ctx context.Context, reference string, to Status, reason *string) (*Booking, error) {
	b, err := s.Get(ctx, reference)
	if err != nil {
		return nil, err
	}
	if !CanTransition(b.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidState, b.Status, to)
	}
	now := s.pricing.Now()
	ok, err := s.repo.UpdateStatus(ctx, b.ID, b.Status, to, b.StatusVersion, now, reason)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}
	if err := s.repo.AppendEvent(ctx, &Event{
		BookingID:  b.ID,
		FromStatus: b.Status,
		ToStatus:   to,
		Reason:     reason,
		CreatedAt:  now,
	}); err != nil {
		slog.WarnContext(ctx, "append booking event failed", "booking_id", b.ID, "error", err)
	}
	slog.InfoContext(ctx, "booking status changed", "reference", b.Reference, "from", b.Status, "to", to)
	return s.repo.GetByReference(ctx, b.Reference)
}

func normalizeReference(reference string) (string, error) {
	ref := strings.ToUpper(strings.TrimSpace(reference))
	if !referencePattern.MatchString(ref) {
		return "", fmt.Errorf("%w: malformed booking reference %q", ErrBadRequest, reference)
	}
	return ref, nil
}

func newReference() (string, error) {
	size := big.NewInt(int64(len(referenceAlphabet)))
	b := make([]byte, referenceLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", err
		}
		b[i] = referenceAlphabet[n.Int64()]
	}
	return string(b), nil
}

func trimPassenger(p Passenger) Passenger {
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	p.Email = strings.TrimSpace(p.Email)
	p.Phone = strings.TrimSpace(p.Phone)
	p.PassportNumber = strings.ToUpper(strings.TrimSpace(p.PassportNumber))
	return p
}
