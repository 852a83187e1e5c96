package provider

import (
	"context"
	"errors"
	"time"
)

// FlightOffer is a single one-way fare as returned by the operator.
// Offers are never mutated after fetching.
type FlightOffer struct {
	Airline         string    `json:"airline"`
	FlightNumber    string    `json:"flight_number,omitempty"`
	Origin          string    `json:"origin"`
	OriginName      string    `json:"origin_name,omitempty"`
	Destination     string    `json:"destination"`
	DestinationName string    `json:"destination_name,omitempty"`
	DepartAt        time.Time `json:"depart_at"`
	ArriveAt        time.Time `json:"arrive_at"`
	Price           float64   `json:"price"`
	Currency        string    `json:"currency"`
	FareClass       string    `json:"fare_class,omitempty"`
	SoldOut         bool      `json:"sold_out,omitempty"`
}

// Fetcher is the data source for one-way offers on a route/date.
type Fetcher interface {
	Name() string
	FetchOneWayOffers(ctx context.Context, origin, destination string, day time.Time) ([]FlightOffer, error)
}

// DestinationLister is implemented by fetchers that can enumerate
// every airport served from an origin on a given date. Callers that
// need an "all destinations" search must assert this capability.
type DestinationLister interface {
	ListDestinations(ctx context.Context, origin string, day time.Time) ([]string, error)
}

// Fetch error taxonomy. Callers discriminate with errors.Is.
var (
	// ErrNoService means the route/date is simply not flown. Expected
	// and common; never surfaced as a failure.
	ErrNoService = errors.New("no service on route/date")

	// ErrUnavailable is a transient provider failure worth retrying.
	ErrUnavailable = errors.New("provider unavailable")

	// ErrInvalidAirport means the caller passed a code the provider
	// does not recognize.
	ErrInvalidAirport = errors.New("invalid airport code")
)
