// README: Catalogue repository contract and the in-memory implementation seeded from a JSON mock file.
package flight

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"skybook/internal/modules/pricing"
	"skybook/internal/types"
)

type Repository interface {
	ListByRoute(ctx context.Context, origin, destination string, from, to time.Time) ([]Flight, error)
	Get(ctx context.Context, id types.ID) (*Flight, error)
	Seats(ctx context.Context, id types.ID) ([]Seat, error)
	Airports(ctx context.Context) ([]Airport, error)
}

type MemoryRepository struct {
	mu       sync.RWMutex
	airports map[string]Airport
	flights  map[types.ID]Flight
}

func NewMemoryRepository(airports []Airport, flights []Flight) *MemoryRepository {
	r := &MemoryRepository{
		airports: make(map[string]Airport, len(airports)),
		flights:  make(map[types.ID]Flight, len(flights)),
	}
	for _, a := range airports {
		r.airports[a.Code] = a
	}
	for _, f := range flights {
		r.flights[f.ID] = f
	}
	return r
}

type mockCatalog struct {
	Airports []Airport    `json:"airports"`
	Flights  []mockFlight `json:"flights"`
}

type mockFlight struct {
	ID             types.ID                   `json:"id"`
	FlightNumber   string                     `json:"flightNumber"`
	Airline        string                     `json:"airline"`
	Departure      string                     `json:"departure"`
	Arrival        string                     `json:"arrival"`
	DepartureTime  time.Time                  `json:"departureTime"`
	ArrivalTime    time.Time                  `json:"arrivalTime"`
	AircraftType   string                     `json:"aircraftType"`
	Status         Status                     `json:"status"`
	Prices         pricing.Fares              `json:"prices"`
	Capacity       map[pricing.CabinClass]int `json:"capacity"`
	AvailableSeats map[pricing.CabinClass]int `json:"availableSeats"`
}

// LoadMockFile reads a catalogue file shaped like mocks/flights.json.
func LoadMockFile(path string) (*MemoryRepository, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mock catalogue: %w", err)
	}
	var catalog mockCatalog
	if err := json.Unmarshal(raw, &catalog); err != nil {
		return nil, fmt.Errorf("decode mock catalogue: %w", err)
	}

	byCode := make(map[string]Airport, len(catalog.Airports))
	for _, a := range catalog.Airports {
		byCode[a.Code] = a
	}
	flights := make([]Flight, 0, len(catalog.Flights))
	for _, m := range catalog.Flights {
		dep, ok := byCode[m.Departure]
		if !ok {
			return nil, fmt.Errorf("flight %s: unknown airport %q", m.ID, m.Departure)
		}
		arr, ok := byCode[m.Arrival]
		if !ok {
			return nil, fmt.Errorf("flight %s: unknown airport %q", m.ID, m.Arrival)
		}
		status := m.Status
		if status == "" {
			status = StatusScheduled
		}
		flights = append(flights, Flight{
			ID:             m.ID,
			FlightNumber:   m.FlightNumber,
			Airline:        m.Airline,
			Departure:      dep,
			Arrival:        arr,
			DepartureTime:  m.DepartureTime,
			ArrivalTime:    m.ArrivalTime,
			AircraftType:   m.AircraftType,
			Status:         status,
			Fares:          m.Prices,
			Capacity:       m.Capacity,
			AvailableSeats: m.AvailableSeats,
		})
	}
	return NewMemoryRepository(catalog.Airports, flights), nil
}

func (r *MemoryRepository) ListByRoute(_ context.Context, origin, destination string, from, to time.Time) ([]Flight, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Flight, 0)
	for _, f := range r.flights {
		if !strings.EqualFold(f.Departure.Code, origin) || !strings.EqualFold(f.Arrival.Code, destination) {
			continue
		}
		if f.DepartureTime.Before(from) || !f.DepartureTime.Before(to) {
			continue
		}
		out = append(out, cloneFlight(f))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DepartureTime.Before(out[j].DepartureTime) })
	return out, nil
}

func (r *MemoryRepository) Get(_ context.Context, id types.ID) (*Flight, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.flights[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := cloneFlight(f)
	return &c, nil
}

func (r *MemoryRepository) Seats(_ context.Context, id types.ID) ([]Seat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.flights[id]
	if !ok {
		return nil, ErrNotFound
	}
	return seatMap(f.Capacity, f.AvailableSeats), nil
}

func (r *MemoryRepository) Airports(_ context.Context) ([]Airport, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Airport, 0, len(r.airports))
	for _, a := range r.airports {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// Flights returns the whole catalogue ordered by departure, for bulk export.
func (r *MemoryRepository) Flights(_ context.Context) ([]Flight, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Flight, 0, len(r.flights))
	for _, f := range r.flights {
		out = append(out, cloneFlight(f))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DepartureTime.Equal(out[j].DepartureTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].DepartureTime.Before(out[j].DepartureTime)
	})
	return out, nil
}

func cloneFlight(f Flight) Flight {
	c := f
	c.Fares = make(pricing.Fares, len(f.Fares))
	for k, v := range f.Fares {
		c.Fares[k] = v
	}
	c.Capacity = cloneCounts(f.Capacity)
	c.AvailableSeats = cloneCounts(f.AvailableSeats)
	return c
}

func cloneCounts(in map[pricing.CabinClass]int) map[pricing.CabinClass]int {
	out := make(map[pricing.CabinClass]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

const seatsPerRow = 6

// seatMap lays classes out front to back (FIRST, BUSINESS, ECONOMY), six seats a row.
// The leading capacity-available seats of each class are reported taken.
func seatMap(capacity, available map[pricing.CabinClass]int) []Seat {
	order := []pricing.CabinClass{pricing.First, pricing.Business, pricing.Economy}
	seats := make([]Seat, 0)
	row := 1
	for _, c := range order {
		total := capacity[c]
		if total < available[c] {
			total = available[c]
		}
		taken := total - available[c]
		for i := 0; i < total; i++ {
			seats = append(seats, Seat{
				Number:    fmt.Sprintf("%d%c", row+i/seatsPerRow, 'A'+i%seatsPerRow),
				Class:     c,
				Available: i >= taken,
			})
		}
		row += (total + seatsPerRow - 1) / seatsPerRow
	}
	return seats
}
