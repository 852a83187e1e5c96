package daytrip

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/jcooper22-22/extreme-day-trip-finder/internal/provider"
	"github.com/jcooper22-22/extreme-day-trip-finder/pkg/date"
)

// fetcherMock serves canned offers keyed by origin|destination|date.
// Missing keys behave like the real client: no service on that route.
// It deliberately does NOT implement provider.DestinationLister; use
// listingFetcherMock for searches over all destinations.
type fetcherMock struct {
	name         string
	offers       map[string][]provider.FlightOffer
	errs         map[string]error
	destinations map[string][]string
	listErr      error
	delay        time.Duration
	callCount    *int32
}

func mockKey(origin, destination string, day time.Time) string {
	return origin + "|" + destination + "|" + date.Format(day)
}

func (f *fetcherMock) Name() string { return f.name }

func (f *fetcherMock) FetchOneWayOffers(ctx context.Context, origin, destination string, day time.Time) ([]provider.FlightOffer, error) {
	if f.callCount != nil {
		atomic.AddInt32(f.callCount, 1)
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	key := mockKey(origin, destination, day)
	if err, ok := f.errs[key]; ok {
		return nil, err
	}
	offers, ok := f.offers[key]
	if !ok || len(offers) == 0 {
		return nil, provider.ErrNoService
	}
	return offers, nil
}

type listingFetcherMock struct {
	*fetcherMock
}

func (f *listingFetcherMock) ListDestinations(ctx context.Context, origin string, day time.Time) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.destinations[origin+"|"+date.Format(day)], nil
}

// offer is a test shorthand for building a one-way leg.
func offer(origin, destination string, price float64, depart, arrive time.Time) provider.FlightOffer {
	return provider.FlightOffer{
		Airline:     "FR",
		Origin:      origin,
		Destination: destination,
		DepartAt:    depart,
		ArriveAt:    arrive,
		Price:       price,
		Currency:    "EUR",
	}
}

func at(day string, hour, min int) time.Time {
	d, err := date.Parse(day)
	if err != nil {
		panic(err)
	}
	return d.Add(time.Duration(hour)*time.Hour + time.Duration(min)*time.Minute)
}
