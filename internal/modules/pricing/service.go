// README: Pricing service; the single place that reads the clock before calling the pure calculator.
package pricing

import (
	"context"
	"fmt"
	"time"
)

type Clock func() time.Time

type Service struct {
	policy Policy
	loc    *time.Location
	now    Clock
}

// NewService builds a pricing service. loc is the storefront's display location used for the
// seasonal month; nil means UTC. A nil clock falls back to time.Now.
func NewService(loc *time.Location, now Clock) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Service{policy: DefaultPolicy, loc: loc, now: now}
}

// WithPolicy returns a copy of the service using p. p must pass Validate.
func (s *Service) WithPolicy(p Policy) (*Service, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	clone := *s
	clone.policy = p
	return &clone, nil
}

func (s *Service) Location() *time.Location {
	return s.loc
}

func (s *Service) Now() time.Time {
	return s.now().In(s.loc)
}

type QuoteRequest struct {
	Fares     Fares
	Class     CabinClass
	Departure time.Time
}

// Quote prices one cabin class of a flight as of now.
func (s *Service) Quote(ctx context.Context, req QuoteRequest) (PriceBreakdown, error) {
	if err := ctx.Err(); err != nil {
		return PriceBreakdown{}, err
	}
	if !req.Class.Valid() {
		return PriceBreakdown{}, ErrUnknownCabinClass
	}
	if !req.Fares.Offers(req.Class) {
		return PriceBreakdown{}, fmt.Errorf("%w: %s", ErrClassNotOffered, req.Class)
	}
	return s.policy.Calculate(float64(req.Fares[req.Class]), req.Class, req.Departure.In(s.loc), s.now())
}

// Estimate returns the cheapest quote across every offered class.
func (s *Service) Estimate(ctx context.Context, fares Fares, departure time.Time) (PriceBreakdown, error) {
	if err := ctx.Err(); err != nil {
		return PriceBreakdown{}, err
	}
	return s.policy.CheapestQuote(fares, departure.In(s.loc), s.now())
}

// CheapestQuote prices every offered class and keeps the lowest total; ties keep the lower class.
func (p Policy) CheapestQuote(fares Fares, departure, now time.Time) (PriceBreakdown, error) {
	var best PriceBreakdown
	found := false
	for _, c := range fares.Offered() {
		q, err := p.Calculate(float64(fares[c]), c, departure, now)
		if err != nil {
			return PriceBreakdown{}, err
		}
		if !found || q.Total < best.Total {
			best = q
			found = true
		}
	}
	if !found {
		return PriceBreakdown{}, ErrClassNotOffered
	}
	return best, nil
}
