// README: Flight service; route search with filters, sorting and live quotes, plus flight lookup.
package flight

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"skybook/internal/modules/pricing"
	"skybook/internal/types"
)

type Service struct {
	repo     Repository
	cache    Cache
	pricing  *pricing.Service
	cacheTTL time.Duration
}

func NewService(repo Repository, cache Cache, pricingSvc *pricing.Service, cacheTTL time.Duration) *Service {
	if cache == nil {
		cache = NopCache{}
	}
	return &Service{repo: repo, cache: cache, pricing: pricingSvc, cacheTTL: cacheTTL}
}

func (s *Service) Search(ctx context.Context, q SearchQuery) (*SearchResult, error) {
	start := time.Now()
	if err := q.normalize(); err != nil {
		return nil, err
	}

	candidates, cacheHit, err := s.routeFlights(ctx, q.Origin, q.Destination, q.Date)
	if err != nil {
		return nil, err
	}

	loc := s.pricing.Location()
	airlineFilter := normalizeSet(q.Filters.Airlines)
	listings := make([]Listing, 0, len(candidates))
	for _, f := range candidates {
		if !bookable(f, q) || !matchFilter(f, q, airlineFilter, loc) {
			continue
		}
		quote, err := s.quoteFor(ctx, f, q.Class)
		if err != nil {
			slog.WarnContext(ctx, "skip unpriceable flight", "flight_id", f.ID, "error", err)
			continue
		}
		lowest, _ := f.Fares.Lowest()
		listings = append(listings, Listing{
			Flight:     f,
			LowestFare: lowest,
			Quote:      quote,
			SeatStatus: SeatStatus(f.TotalSeats()),
			TimeOfDay:  f.TimeOfDay(loc),
		})
	}
	sortListings(listings, q.Sort)

	return &SearchResult{
		Listings: listings,
		Metadata: SearchMetadata{
			TotalResults: len(listings),
			Candidates:   len(candidates),
			CacheHit:     cacheHit,
			SearchTimeMs: time.Since(start).Milliseconds(),
		},
	}, nil
}

// routeFlights returns every flight on the route that departs on q's calendar day in the display location.
func (s *Service) routeFlights(ctx context.Context, origin, destination string, date time.Time) ([]Flight, bool, error) {
	loc := s.pricing.Location()
	y, m, d := date.In(loc).Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, loc)
	to := from.AddDate(0, 0, 1)
	key := routeCacheKey(origin, destination, from)

	if cached, ok, err := s.cache.GetRoute(ctx, key); err != nil {
		slog.WarnContext(ctx, "route cache read failed", "key", key, "error", err)
	} else if ok {
		return cached, true, nil
	}

	flights, err := s.repo.ListByRoute(ctx, origin, destination, from, to)
	if err != nil {
		return nil, false, fmt.Errorf("list flights: %w", err)
	}
	if err := s.cache.SetRoute(ctx, key, flights, s.cacheTTL); err != nil {
		slog.WarnContext(ctx, "route cache write failed", "key", key, "error", err)
	}
	return flights, false, nil
}

func (s *Service) quoteFor(ctx context.Context, f Flight, class *pricing.CabinClass) (pricing.PriceBreakdown, error) {
	if class != nil {
		return s.pricing.Quote(ctx, pricing.QuoteRequest{Fares: f.Fares, Class: *class, Departure: f.DepartureTime})
	}
	return s.pricing.Estimate(ctx, f.Fares, f.DepartureTime)
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Flight, error) {
	if id == "" {
		return nil, ErrBadRequest
	}
	return s.repo.Get(ctx, id)
}

// Quote prices one class of a stored flight as of now.
func (s *Service) Quote(ctx context.Context, id types.ID, class pricing.CabinClass) (*Flight, pricing.PriceBreakdown, error) {
	f, err := s.Get(ctx, id)
	if err != nil {
		return nil, pricing.PriceBreakdown{}, err
	}
	quote, err := s.pricing.Quote(ctx, pricing.QuoteRequest{Fares: f.Fares, Class: class, Departure: f.DepartureTime})
	if err != nil {
		return nil, pricing.PriceBreakdown{}, err
	}
	return f, quote, nil
}

type PricedSeat struct {
	Seat
	Price int64 `json:"price"`
}

// Seats lists the seat map, optionally for one class, each priced at the class's current total.
func (s *Service) Seats(ctx context.Context, id types.ID, class *pricing.CabinClass) ([]PricedSeat, error) {
	f, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	seats, err := s.repo.Seats(ctx, id)
	if err != nil {
		return nil, err
	}

	totals := make(map[pricing.CabinClass]int64, len(f.Fares))
	for _, c := range f.Fares.Offered() {
		q, err := s.pricing.Quote(ctx, pricing.QuoteRequest{Fares: f.Fares, Class: c, Departure: f.DepartureTime})
		if err != nil {
			return nil, err
		}
		totals[c] = q.Total
	}

	out := make([]PricedSeat, 0, len(seats))
	for _, seat := range seats {
		if class != nil && seat.Class != *class {
			continue
		}
		if _, offered := totals[seat.Class]; !offered {
			continue
		}
		out = append(out, PricedSeat{Seat: seat, Price: totals[seat.Class]})
	}
	return out, nil
}

// FindSeat returns the named seat, or ErrSeatNotFound.
func (s *Service) FindSeat(ctx context.Context, id types.ID, number string) (Seat, error) {
	seats, err := s.repo.Seats(ctx, id)
	if err != nil {
		return Seat{}, err
	}
	for _, seat := range seats {
		if seat.Number == number {
			return seat, nil
		}
	}
	return Seat{}, ErrSeatNotFound
}

func (s *Service) Airports(ctx context.Context) ([]Airport, error) {
	return s.repo.Airports(ctx)
}
