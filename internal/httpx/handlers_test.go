package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcooper22-22/extreme-day-trip-finder/internal/airports"
	"github.com/jcooper22-22/extreme-day-trip-finder/internal/config"
	"github.com/jcooper22-22/extreme-day-trip-finder/internal/daytrip"
	"github.com/jcooper22-22/extreme-day-trip-finder/internal/provider"
	"github.com/jcooper22-22/extreme-day-trip-finder/pkg/logger"
	"github.com/jcooper22-22/extreme-day-trip-finder/pkg/metrics"
)

// stubFetcher serves one fixed round trip STN<->BGY on 2024-06-01.
type stubFetcher struct{}

func (stubFetcher) Name() string { return "stub" }

func (stubFetcher) FetchOneWayOffers(ctx context.Context, origin, destination string, day time.Time) ([]provider.FlightOffer, error) {
	base := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	if !day.Equal(base) {
		return nil, provider.ErrNoService
	}
	switch origin + "-" + destination {
	case "STN-BGY":
		return []provider.FlightOffer{{
			Airline: "FR", Origin: "STN", Destination: "BGY", DestinationName: "Milan Bergamo Airport",
			DepartAt: base.Add(8 * time.Hour), ArriveAt: base.Add(11 * time.Hour),
			Price: 19.99, Currency: "EUR",
		}}, nil
	case "BGY-STN":
		return []provider.FlightOffer{{
			Airline: "FR", Origin: "BGY", Destination: "STN",
			DepartAt: base.Add(20 * time.Hour), ArriveAt: base.Add(23 * time.Hour),
			Price: 15.01, Currency: "EUR",
		}}, nil
	}
	return nil, provider.ErrNoService
}

func newTestHandler(t *testing.T) http.HandlerFunc {
	t.Helper()
	cfg := &config.Config{SearchTimeout: 5 * time.Second, Concurrency: 2}
	svc := daytrip.NewService(stubFetcher{}, cfg, logger.NewNop(), metrics.New("test"))
	catalog, err := airports.Load(strings.NewReader(
		"iata_code,name,municipality,iso_country\nSTN,London Stansted Airport,London,GB\nBGY,Milan Bergamo Airport,Bergamo,IT\n"))
	require.NoError(t, err)
	return SearchHandler(svc, catalog, logger.NewNop())
}

func TestSearchHandler(t *testing.T) {
	handler := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet,
		"/trips/search?origin=STN&destinations=BGY&start=2024-06-01&end=2024-06-01&budget=50", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp searchResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Trips, 1)
	assert.Equal(t, "BGY", resp.Trips[0].Destination)
	assert.Equal(t, 35.0, resp.Trips[0].TotalPrice)
	assert.Equal(t, "EUR 35.00", resp.Trips[0].DisplayPrice)
	assert.Equal(t, "01 June 2024, 08:00", resp.Trips[0].Outbound.Departure)
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 1, resp.TotalPages)
	assert.False(t, resp.Partial)
}

func TestSearchHandlerResolvesOriginName(t *testing.T) {
	handler := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet,
		"/trips/search?origin_name=London+Stansted+Airport&destinations=BGY&start=2024-06-01&end=2024-06-01&budget=50", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp searchResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "STN", resp.Origin)
}

func TestSearchHandlerBadRequest(t *testing.T) {
	handler := newTestHandler(t)

	cases := []string{
		"/trips/search?destinations=BGY&start=2024-06-01&end=2024-06-01&budget=50", // no origin
		"/trips/search?origin=STN&destinations=BGY&start=junk&end=2024-06-01&budget=50",
		"/trips/search?origin=STN&destinations=BGY&start=2024-06-01&end=2024-06-01&budget=none",
		"/trips/search?origin=STN&destinations=BGY&start=2024-06-01&end=2024-06-01&budget=0",
	}
	for _, target := range cases {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()
		handler(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestPaginate(t *testing.T) {
	trips := make([]tripView, 25)
	page, total := paginate(trips, 3, 10)
	assert.Len(t, page, 5)
	assert.Equal(t, 3, total)

	page, total = paginate(trips, 9, 10)
	assert.Empty(t, page)
	assert.Equal(t, 3, total)

	// no trips is still one (empty) page
	page, total = paginate(nil, 1, 10)
	assert.Empty(t, page)
	assert.Equal(t, 1, total)
}

func newTestCatalogAndService(t *testing.T) (*daytrip.Service, *airports.Catalog) {
	t.Helper()
	cfg := &config.Config{SearchTimeout: 5 * time.Second, Concurrency: 2}
	svc := daytrip.NewService(stubFetcher{}, cfg, logger.NewNop(), metrics.New("test"))
	catalog, err := airports.Load(strings.NewReader(
		"iata_code,name,municipality,iso_country\nSTN,London Stansted Airport,London,GB\nBGY,Milan Bergamo Airport,Bergamo,IT\n"))
	require.NoError(t, err)
	return svc, catalog
}

func TestSubscribeWSPushesResults(t *testing.T) {
	svc, catalog := newTestCatalogAndService(t)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws/", SubscribeWSHandler(svc, catalog, logger.NewNop()))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	// origin lives in the path, everything else in the query
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") +
		"/ws/STN?destinations=BGY&start=2024-06-01&end=2024-06-01&budget=50"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	defer resp.Body.Close()

	var res daytrip.SearchResult
	require.NoError(t, conn.ReadJSON(&res))
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, "BGY", res.Candidates[0].Outbound.Destination)
	assert.Equal(t, 35.0, res.Candidates[0].TotalPrice)
}

func TestSubscribeWSRejectsMissingOrigin(t *testing.T) {
	svc, catalog := newTestCatalogAndService(t)

	req := httptest.NewRequest(http.MethodGet,
		"/ws/?destinations=BGY&start=2024-06-01&end=2024-06-01&budget=50", nil)
	rec := httptest.NewRecorder()
	SubscribeWSHandler(svc, catalog, logger.NewNop())(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
