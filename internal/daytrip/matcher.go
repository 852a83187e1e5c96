package daytrip

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/jcooper22-22/extreme-day-trip-finder/internal/provider"
	"github.com/jcooper22-22/extreme-day-trip-finder/pkg/date"
)

// Matcher builds same-day round trips for one (origin, destination, date)
// triple by pairing the two independent one-way offer lists.
type Matcher struct {
	fetcher  provider.Fetcher
	minDwell time.Duration
	log      *zap.SugaredLogger
}

func NewMatcher(fetcher provider.Fetcher, minDwell time.Duration, log *zap.SugaredLogger) *Matcher {
	return &Matcher{fetcher: fetcher, minDwell: minDwell, log: log}
}

// Match fetches outbound and return offers for the date and pairs every
// combination that holds the round-trip invariants. A route without
// service in either direction yields an empty set, not an error.
func (m *Matcher) Match(ctx context.Context, origin, destination string, day time.Time) ([]RoundTripCandidate, error) {
	if origin == destination {
		return nil, nil
	}

	outbound, err := m.fetchLeg(ctx, origin, destination, day)
	if err != nil {
		return nil, err
	}
	if len(outbound) == 0 {
		return nil, nil
	}

	inbound, err := m.fetchLeg(ctx, destination, origin, day)
	if err != nil {
		return nil, err
	}

	m.log.Debugw("pairing offers",
		"origin", origin, "destination", destination, "date", date.Format(day),
		"outbound", len(outbound), "inbound", len(inbound))

	var candidates []RoundTripCandidate
	for _, out := range outbound {
		if !m.validLeg(out, origin, destination, day) {
			continue
		}
		for _, ret := range inbound {
			if !m.validReturn(ret, destination, origin, day) {
				continue
			}
			dwell := ret.DepartAt.Sub(out.ArriveAt)
			if dwell <= 0 || dwell < m.minDwell {
				continue
			}
			candidates = append(candidates, RoundTripCandidate{
				Outbound:   out,
				Return:     ret,
				TotalPrice: round2(out.Price + ret.Price),
				Date:       date.Format(day),
			})
		}
	}
	return candidates, nil
}

func (m *Matcher) fetchLeg(ctx context.Context, from, to string, day time.Time) ([]provider.FlightOffer, error) {
	offers, err := m.fetcher.FetchOneWayOffers(ctx, from, to, day)
	if errors.Is(err, provider.ErrNoService) {
		return nil, nil
	}
	return offers, err
}

// validLeg checks the outbound: right route, departs and lands on the
// trip date, still bookable.
func (m *Matcher) validLeg(o provider.FlightOffer, from, to string, day time.Time) bool {
	if o.SoldOut || o.Origin != from || o.Destination != to {
		return false
	}
	return date.SameDay(o.DepartAt, day) && date.SameDay(o.ArriveAt, day)
}

// validReturn checks the return leg. Its departure must be on the trip
// date; the arrival may roll past midnight on a late flight, matching
// how the operator publishes red-eye returns.
func (m *Matcher) validReturn(o provider.FlightOffer, from, to string, day time.Time) bool {
	if o.SoldOut || o.Origin != from || o.Destination != to {
		return false
	}
	return date.SameDay(o.DepartAt, day)
}
