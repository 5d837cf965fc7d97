// README: Flight catalogue entities (airports, flights, seats) and their derived views.
package flight

import (
	"errors"
	"time"

	"skybook/internal/modules/pricing"
	"skybook/internal/types"
)

type Status string

const (
	StatusScheduled Status = "SCHEDULED"
	StatusDelayed   Status = "DELAYED"
	StatusBoarding  Status = "BOARDING"
	StatusDeparted  Status = "DEPARTED"
	StatusArrived   Status = "ARRIVED"
	StatusCancelled Status = "CANCELLED"
)

// Bookable reports whether new bookings may still be taken.
func (s Status) Bookable() bool {
	return s == StatusScheduled || s == StatusDelayed
}

var (
	ErrNotFound     = errors.New("flight not found")
	ErrSeatNotFound = errors.New("seat not found")
	ErrBadRequest   = errors.New("bad request")
)

type Airport struct {
	Code    string `json:"iataCode"`
	Name    string `json:"name"`
	City    string `json:"city"`
	Country string `json:"country"`
}

type Flight struct {
	ID             types.ID                   `json:"id"`
	FlightNumber   string                     `json:"flightNumber"`
	Airline        string                     `json:"airline"`
	Departure      Airport                    `json:"departureAirport"`
	Arrival        Airport                    `json:"arrivalAirport"`
	DepartureTime  time.Time                  `json:"departureTime"`
	ArrivalTime    time.Time                  `json:"arrivalTime"`
	AircraftType   string                     `json:"aircraftType"`
	Status         Status                     `json:"status"`
	Fares          pricing.Fares              `json:"prices"`
	Capacity       map[pricing.CabinClass]int `json:"capacity"`
	AvailableSeats map[pricing.CabinClass]int `json:"availableSeats"`
}

func (f *Flight) DurationMinutes() int {
	if !f.ArrivalTime.After(f.DepartureTime) {
		return 0
	}
	return int(f.ArrivalTime.Sub(f.DepartureTime).Minutes())
}

func (f *Flight) TotalSeats() int {
	total := 0
	for _, n := range f.AvailableSeats {
		total += n
	}
	return total
}

func (f *Flight) SeatsLeft(c pricing.CabinClass) int {
	return f.AvailableSeats[c]
}

type TimeOfDay string

const (
	Morning   TimeOfDay = "morning"
	Afternoon TimeOfDay = "afternoon"
	Evening   TimeOfDay = "evening"
)

// TimeOfDay buckets the local departure hour: 05-12 morning, 12-18 afternoon, otherwise evening.
func (f *Flight) TimeOfDay(loc *time.Location) TimeOfDay {
	h := f.DepartureTime.In(loc).Hour()
	switch {
	case h >= 5 && h < 12:
		return Morning
	case h >= 12 && h < 18:
		return Afternoon
	default:
		return Evening
	}
}

type SeatLevel string

const (
	SeatsHigh   SeatLevel = "high"
	SeatsMedium SeatLevel = "medium"
	SeatsLow    SeatLevel = "low"
)

func SeatStatus(available int) SeatLevel {
	switch {
	case available > 30:
		return SeatsHigh
	case available > 10:
		return SeatsMedium
	default:
		return SeatsLow
	}
}

type Seat struct {
	Number    string             `json:"seatNumber"`
	Class     pricing.CabinClass `json:"seatClass"`
	Available bool               `json:"available"`
}
