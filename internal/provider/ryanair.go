package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/jcooper22-22/extreme-day-trip-finder/internal/config"
	"github.com/jcooper22-22/extreme-day-trip-finder/pkg/date"
)

const ryanairCarrierCode = "FR"

// Ryanair queries the public fare-finder API for the cheapest one-way
// fares out of an airport. It is the only operator the finder talks to.
type Ryanair struct {
	baseURL  string
	market   string
	currency string
	retries  uint64
	client   *http.Client
	log      *zap.SugaredLogger
	headers  map[string]string
}

func NewRyanair(cfg *config.Config, log *zap.SugaredLogger) *Ryanair {
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return &Ryanair{
		baseURL:  cfg.RyanairURL,
		market:   cfg.Market,
		currency: cfg.Currency,
		retries:  uint64(retries),
		client:   &http.Client{Timeout: 15 * time.Second},
		log:      log,
		headers: map[string]string{
			"User-Agent": "Mozilla/5.0 (X11; Linux x86_64; rv:90.0) Gecko/20100101 Firefox/90.0",
			"Accept":     "application/json",
		},
	}
}

func (r *Ryanair) Name() string { return "ryanair" }

type fareAirport struct {
	IataCode string `json:"iataCode"`
	Name     string `json:"name"`
}

type farePrice struct {
	Value        float64 `json:"value"`
	CurrencyCode string  `json:"currencyCode"`
}

type fareLeg struct {
	DepartureAirport fareAirport `json:"departureAirport"`
	ArrivalAirport   fareAirport `json:"arrivalAirport"`
	DepartureDate    string      `json:"departureDate"`
	ArrivalDate      string      `json:"arrivalDate"`
	FlightNumber     string      `json:"flightNumber"`
	Price            *farePrice  `json:"price"`
	FareClass        string      `json:"fareClass"`
}

type faresResponse struct {
	Fares []struct {
		Outbound fareLeg `json:"outbound"`
		Summary  struct {
			Price   *farePrice `json:"price"`
			SoldOut bool       `json:"soldOut"`
		} `json:"summary"`
	} `json:"fares"`
}

// FetchOneWayOffers returns the one-way fares origin->destination on the
// given calendar date. A route the operator does not fly that day comes
// back as ErrNoService.
func (r *Ryanair) FetchOneWayOffers(ctx context.Context, origin, destination string, day time.Time) ([]FlightOffer, error) {
	if destination == "" {
		return nil, fmt.Errorf("%w: empty destination", ErrInvalidAirport)
	}
	payload, err := r.fetchFares(ctx, origin, destination, day)
	if err != nil {
		return nil, err
	}
	offers := r.decodeOffers(payload)
	if len(offers) == 0 {
		return nil, fmt.Errorf("%s->%s on %s: %w", origin, destination, date.Format(day), ErrNoService)
	}
	return offers, nil
}

// ListDestinations enumerates the airports reachable from origin on the
// given date by asking for fares with no arrival filter.
func (r *Ryanair) ListDestinations(ctx context.Context, origin string, day time.Time) ([]string, error) {
	payload, err := r.fetchFares(ctx, origin, "", day)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var codes []string
	for _, f := range payload.Fares {
		code := f.Outbound.ArrivalAirport.IataCode
		if code == "" || code == origin || seen[code] {
			continue
		}
		seen[code] = true
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes, nil
}

func (r *Ryanair) fetchFares(ctx context.Context, origin, destination string, day time.Time) (*faresResponse, error) {
	parameters := url.Values{}
	parameters.Set("departureAirportIataCode", origin)
	if destination != "" {
		parameters.Set("arrivalAirportIataCode", destination)
	}
	parameters.Set("outboundDepartureDateFrom", date.Format(day))
	parameters.Set("outboundDepartureDateTo", date.Format(day))
	parameters.Set("market", r.market)
	parameters.Set("currency", r.currency)

	u := r.baseURL + "/oneWayFares?" + parameters.Encode()

	var payload faresResponse
	operation := func() error {
		return r.getJSON(ctx, u, &payload)
	}
	boff := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), r.retries), ctx)
	if err := backoff.Retry(operation, boff); err != nil {
		return nil, err
	}
	return &payload, nil
}

// getJSON performs one GET. Transient failures come back retryable,
// everything else is wrapped in backoff.Permanent so the retry loop
// gives up immediately.
func (r *Ryanair) getJSON(ctx context.Context, u string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("could not create request: %w", err))
	}
	for k, h := range r.headers {
		req.Header.Set(k, h)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		r.log.Warnw("ryanair request failed", "url", u, "err", err)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusBadRequest:
		return backoff.Permanent(fmt.Errorf("%w: %s", ErrInvalidAirport, resp.Status))
	case resp.StatusCode == http.StatusNotFound:
		return backoff.Permanent(fmt.Errorf("%w: %s", ErrNoService, resp.Status))
	case resp.StatusCode >= 500:
		r.log.Warnw("ryanair server error", "url", u, "status", resp.Status)
		return fmt.Errorf("%w: %s", ErrUnavailable, resp.Status)
	default:
		return backoff.Permanent(fmt.Errorf("request failed: GET %s - %s", u, resp.Status))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return backoff.Permanent(fmt.Errorf("could not decode response: %w", err))
	}
	return nil
}

func (r *Ryanair) decodeOffers(payload *faresResponse) []FlightOffer {
	var out []FlightOffer
	for _, f := range payload.Fares {
		leg := f.Outbound
		price := leg.Price
		if price == nil {
			price = f.Summary.Price
		}
		if price == nil {
			continue
		}
		depart, err := parseFareTime(leg.DepartureDate)
		if err != nil {
			r.log.Warnw("skipping fare with bad departure date", "value", leg.DepartureDate)
			continue
		}
		arrive, err := parseFareTime(leg.ArrivalDate)
		if err != nil {
			r.log.Warnw("skipping fare with bad arrival date", "value", leg.ArrivalDate)
			continue
		}
		out = append(out, FlightOffer{
			Airline:         ryanairCarrierCode,
			FlightNumber:    leg.FlightNumber,
			Origin:          leg.DepartureAirport.IataCode,
			OriginName:      leg.DepartureAirport.Name,
			Destination:     leg.ArrivalAirport.IataCode,
			DestinationName: leg.ArrivalAirport.Name,
			DepartAt:        depart,
			ArriveAt:        arrive,
			Price:           price.Value,
			Currency:        price.CurrencyCode,
			FareClass:       leg.FareClass,
			SoldOut:         f.Summary.SoldOut,
		})
	}
	return out
}

// The fare finder returns airport-local times without an offset,
// e.g. 2024-06-01T08:45:00. They are kept as naive times in UTC so
// calendar-date comparisons behave like the traveler's wall clock.
func parseFareTime(s string) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", s, time.UTC); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unsupported time format: %q", s)
}
