// README: Search criteria, listing filters and sort helpers for the flight list view.
package flight

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"skybook/internal/modules/pricing"
)

type SearchQuery struct {
	Origin      string
	Destination string
	Date        time.Time
	Passengers  int
	Class       *pricing.CabinClass
	Filters     Filters
	Sort        SortOption
}

type Filters struct {
	TimeOfDay []TimeOfDay
	MinPrice  *int64
	MaxPrice  *int64
	Airlines  []string
	MinSeats  int
}

type SortOption struct {
	Field string
	Order string
}

// Listing is one row of the flight list: the flight, its cheapest raw fare and a live quote
// for the requested class (or the cheapest class).
type Listing struct {
	Flight     Flight                 `json:"flight"`
	LowestFare int64                  `json:"lowestFare"`
	Quote      pricing.PriceBreakdown `json:"quote"`
	SeatStatus SeatLevel              `json:"seatStatus"`
	TimeOfDay  TimeOfDay              `json:"timeOfDay"`
}

type SearchMetadata struct {
	TotalResults int   `json:"totalResults"`
	Candidates   int   `json:"candidates"`
	CacheHit     bool  `json:"cacheHit"`
	SearchTimeMs int64 `json:"searchTimeMs"`
}

type SearchResult struct {
	Listings []Listing      `json:"flights"`
	Metadata SearchMetadata `json:"metadata"`
}

var iataCode = regexp.MustCompile(`^[A-Z]{3}$`)

func (q *SearchQuery) normalize() error {
	q.Origin = strings.ToUpper(strings.TrimSpace(q.Origin))
	q.Destination = strings.ToUpper(strings.TrimSpace(q.Destination))
	if !iataCode.MatchString(q.Origin) || !iataCode.MatchString(q.Destination) {
		return fmt.Errorf("%w: airport codes must be 3 letters", ErrBadRequest)
	}
	if q.Origin == q.Destination {
		return fmt.Errorf("%w: origin and destination must differ", ErrBadRequest)
	}
	if q.Date.IsZero() {
		return fmt.Errorf("%w: departure date is required", ErrBadRequest)
	}
	if q.Passengers == 0 {
		q.Passengers = 1
	}
	if q.Passengers < 0 {
		return fmt.Errorf("%w: passengers must be positive", ErrBadRequest)
	}
	if q.Class != nil && !q.Class.Valid() {
		return fmt.Errorf("%w: %v", ErrBadRequest, pricing.ErrUnknownCabinClass)
	}
	if q.Filters.MinPrice != nil && q.Filters.MaxPrice != nil && *q.Filters.MinPrice > *q.Filters.MaxPrice {
		return fmt.Errorf("%w: minPrice above maxPrice", ErrBadRequest)
	}
	switch strings.ToLower(q.Sort.Field) {
	case "", "price", "departure", "duration":
	default:
		return fmt.Errorf("%w: unknown sort field %q", ErrBadRequest, q.Sort.Field)
	}
	return nil
}

func routeCacheKey(origin, destination string, date time.Time) string {
	return fmt.Sprintf("flights:route:%s:%s:%s", origin, destination, date.Format("2006-01-02"))
}

// bookable drops flights that cannot take this party in the requested class.
func bookable(f Flight, q SearchQuery) bool {
	if !f.Status.Bookable() {
		return false
	}
	if len(f.Fares.Offered()) == 0 {
		return false
	}
	if q.Class != nil {
		if !f.Fares.Offers(*q.Class) || f.SeatsLeft(*q.Class) < q.Passengers {
			return false
		}
		return true
	}
	for _, c := range f.Fares.Offered() {
		if f.SeatsLeft(c) >= q.Passengers {
			return true
		}
	}
	return false
}

func matchFilter(f Flight, q SearchQuery, airlineFilter map[string]struct{}, loc *time.Location) bool {
	filters := q.Filters
	if !matchTimeOfDay(f, filters.TimeOfDay, loc) {
		return false
	}
	if !matchPriceFilter(f, filters, q.Class) {
		return false
	}
	if !matchAirlineFilter(f, airlineFilter) {
		return false
	}
	return filters.MinSeats <= 0 || f.TotalSeats() >= filters.MinSeats
}

func matchTimeOfDay(f Flight, wanted []TimeOfDay, loc *time.Location) bool {
	if len(wanted) == 0 {
		return true
	}
	got := f.TimeOfDay(loc)
	for _, w := range wanted {
		if strings.EqualFold(string(w), string(got)) {
			return true
		}
	}
	return false
}

// listingFare is the raw fare a listing is priced from: the requested class's fare,
// or the cheapest offered one when no class was asked for.
func listingFare(f Flight, class *pricing.CabinClass) (int64, bool) {
	if class != nil {
		return f.Fares[*class], f.Fares.Offers(*class)
	}
	return f.Fares.Lowest()
}

func matchPriceFilter(f Flight, filters Filters, class *pricing.CabinClass) bool {
	fare, ok := listingFare(f, class)
	if !ok {
		return false
	}
	if filters.MinPrice != nil && fare < *filters.MinPrice {
		return false
	}
	if filters.MaxPrice != nil && fare > *filters.MaxPrice {
		return false
	}
	return true
}

func matchAirlineFilter(f Flight, airlineFilter map[string]struct{}) bool {
	if len(airlineFilter) == 0 {
		return true
	}
	_, ok := airlineFilter[strings.ToLower(f.Airline)]
	return ok
}

func sortListings(listings []Listing, opt SortOption) {
	field := strings.ToLower(opt.Field)
	if field == "" {
		field = "price"
	}
	desc := strings.EqualFold(opt.Order, "desc")

	less := func(i, j int) bool {
		a, b := listings[i], listings[j]
		switch field {
		case "departure":
			return a.Flight.DepartureTime.Before(b.Flight.DepartureTime)
		case "duration":
			return a.Flight.DurationMinutes() < b.Flight.DurationMinutes()
		default:
			if a.Quote.Total != b.Quote.Total {
				return a.Quote.Total < b.Quote.Total
			}
			return a.LowestFare < b.LowestFare
		}
	}

	if desc {
		sort.SliceStable(listings, func(i, j int) bool { return less(j, i) })
		return
	}
	sort.SliceStable(listings, less)
}

func normalizeSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		value := strings.ToLower(strings.TrimSpace(v))
		if value == "" {
			continue
		}
		set[value] = struct{}{}
	}
	return set
}
