// README: Booking aggregate, passenger details and status definitions.
package booking

import (
	"time"

	"skybook/internal/modules/pricing"
	"skybook/internal/types"
)

type Status string

const (
	StatusNone      Status = "NONE"
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
)

type Passenger struct {
	FirstName      string    `json:"firstName" validate:"required,min=2,personname"`
	LastName       string    `json:"lastName" validate:"required,min=2,personname"`
	Email          string    `json:"email" validate:"required,email"`
	Phone          string    `json:"phoneNumber" validate:"required,phone"`
	PassportNumber string    `json:"passportNumber" validate:"required,min=6,max=9"`
	BirthDate      time.Time `json:"dateOfBirth" validate:"required"`
}

type Booking struct {
	ID            types.ID
	Reference     string
	FlightID      types.ID
	Passenger     Passenger
	CabinClass    pricing.CabinClass
	SeatNumber    *string
	Status        Status
	StatusVersion int
	TotalPrice    types.Money
	// Breakdown is the quote captured at creation; it is shown as stored and never recomputed.
	Breakdown    pricing.PriceBreakdown
	CreatedAt    time.Time
	ConfirmedAt  *time.Time
	CancelledAt  *time.Time
	CancelReason *string
}

type Event struct {
	ID         int64
	BookingID  types.ID
	FromStatus Status
	ToStatus   Status
	Reason     *string
	CreatedAt  time.Time
}

// AllowedTransitions represents the booking state flow as code. CANCELLED is terminal.
var AllowedTransitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCancelled},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}
