package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/jcooper22-22/extreme-day-trip-finder/internal/airports"
	"github.com/jcooper22-22/extreme-day-trip-finder/internal/daytrip"
	"github.com/jcooper22-22/extreme-day-trip-finder/pkg/date"
)

const (
	displayTimeLayout = "02 January 2006, 15:04"
	defaultPerPage    = 10
)

type legView struct {
	FlightNumber string `json:"flight_number,omitempty"`
	Origin       string `json:"origin"`
	Destination  string `json:"destination"`
	Departure    string `json:"departure"`
	Arrival      string `json:"arrival"`
	Price        string `json:"price"`
}

type tripView struct {
	Destination     string  `json:"destination"`
	DestinationName string  `json:"destination_name,omitempty"`
	Date            string  `json:"date"`
	Outbound        legView `json:"outbound"`
	Return          legView `json:"return"`
	TotalPrice      float64 `json:"total_price"`
	DisplayPrice    string  `json:"display_price"`
}

type searchResponse struct {
	Origin     string               `json:"origin"`
	Start      string               `json:"start"`
	End        string               `json:"end"`
	Budget     float64              `json:"budget"`
	Trips      []tripView           `json:"trips"`
	Skipped    []daytrip.Diagnostic `json:"skipped,omitempty"`
	Partial    bool                 `json:"partial"`
	Page       int                  `json:"page"`
	TotalPages int                  `json:"total_pages"`
}

// SearchHandler runs a day-trip search from query parameters:
// origin (IATA) or origin_name (resolved via the catalog),
// destinations=all or a comma-separated code list, start, end, budget,
// and optional page/per_page.
func SearchHandler(svc *daytrip.Service, catalog *airports.Catalog, log *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := parseSearchRequest(r, catalog)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		res, err := svc.Search(r.Context(), req)
		if errors.Is(err, daytrip.ErrInvalidRequest) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err != nil {
			log.Errorw("search failed", "err", err)
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}

		page, perPage := pagination(r)
		trips, totalPages := paginate(viewsOf(res.Candidates), page, perPage)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(searchResponse{
			Origin:     req.Origin,
			Start:      date.Format(req.Start),
			End:        date.Format(req.End),
			Budget:     req.Budget,
			Trips:      trips,
			Skipped:    res.Skipped,
			Partial:    res.Partial,
			Page:       page,
			TotalPages: totalPages,
		})
	}
}

// AirportsHandler serves the airport picker: every airport the operator
// flies from, with display names.
func AirportsHandler(served []airports.Airport) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(served)
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // in prod, restrict origin
	},
}

// SubscribeWSHandler pushes a fresh search result over a websocket on a
// fixed interval so a page can watch prices without polling.
// Route shape: /ws/{origin}?destinations=...&start=...&end=...&budget=...
func SubscribeWSHandler(svc *daytrip.Service, catalog *airports.Catalog, log *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := strings.ToUpper(strings.TrimPrefix(r.URL.Path, "/ws/"))
		if origin == "" {
			http.Error(w, "use /ws/{origin}?start=YYYY-MM-DD&end=YYYY-MM-DD&budget=N", http.StatusBadRequest)
			return
		}
		// the origin rides in the path on this route; feed it to the
		// shared query parser
		q := r.URL.Query()
		q.Set("origin", origin)
		r.URL.RawQuery = q.Encode()

		req, err := parseSearchRequest(r, catalog)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warnw("websocket upgrade error", "err", err)
			return
		}
		defer conn.Close()

		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		ctx := r.Context()
		for {
			res, err := svc.Search(ctx, req)
			if err != nil {
				_ = conn.WriteJSON(map[string]string{"error": err.Error()})
				return
			}
			if err := conn.WriteJSON(res); err != nil {
				log.Warnw("websocket write error", "err", err)
				return
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				continue
			}
		}
	}
}

func parseSearchRequest(r *http.Request, catalog *airports.Catalog) (daytrip.SearchRequest, error) {
	q := r.URL.Query()

	origin := strings.ToUpper(q.Get("origin"))
	if origin == "" && q.Get("origin_name") != "" {
		code, err := catalog.IATAForName(q.Get("origin_name"))
		if err != nil {
			return daytrip.SearchRequest{}, err
		}
		origin = code
	}
	if origin == "" {
		return daytrip.SearchRequest{}, errors.New("origin or origin_name is required")
	}

	start, err := date.Parse(q.Get("start"))
	if err != nil {
		return daytrip.SearchRequest{}, fmt.Errorf("bad start: %w", err)
	}
	end, err := date.Parse(q.Get("end"))
	if err != nil {
		return daytrip.SearchRequest{}, fmt.Errorf("bad end: %w", err)
	}
	budget, err := strconv.ParseFloat(q.Get("budget"), 64)
	if err != nil {
		return daytrip.SearchRequest{}, fmt.Errorf("bad budget: %w", err)
	}

	destinations := daytrip.AllDestinations()
	if raw := q.Get("destinations"); raw != "" && !strings.EqualFold(raw, "all") {
		var codes []string
		for _, code := range strings.Split(raw, ",") {
			codes = append(codes, strings.ToUpper(strings.TrimSpace(code)))
		}
		destinations = daytrip.ExplicitSet(codes...)
	}

	return daytrip.SearchRequest{
		Origin:       origin,
		Destinations: destinations,
		Start:        start,
		End:          end,
		Budget:       budget,
	}, nil
}

func viewsOf(cands []daytrip.RoundTripCandidate) []tripView {
	views := make([]tripView, 0, len(cands))
	for _, c := range cands {
		views = append(views, tripView{
			Destination:     c.Outbound.Destination,
			DestinationName: c.Outbound.DestinationName,
			Date:            c.Date,
			Outbound:        legViewOf(c.Outbound.FlightNumber, c.Outbound.Origin, c.Outbound.Destination, c.Outbound.DepartAt, c.Outbound.ArriveAt, c.Outbound.Price, c.Outbound.Currency),
			Return:          legViewOf(c.Return.FlightNumber, c.Return.Origin, c.Return.Destination, c.Return.DepartAt, c.Return.ArriveAt, c.Return.Price, c.Return.Currency),
			TotalPrice:      c.TotalPrice,
			DisplayPrice:    formatMoney(c.TotalPrice, c.Outbound.Currency),
		})
	}
	return views
}

func legViewOf(number, origin, destination string, depart, arrive time.Time, price float64, currency string) legView {
	return legView{
		FlightNumber: number,
		Origin:       origin,
		Destination:  destination,
		Departure:    depart.Format(displayTimeLayout),
		Arrival:      arrive.Format(displayTimeLayout),
		Price:        formatMoney(price, currency),
	}
}

func formatMoney(n float64, currency string) string {
	return currency + " " + humanize.FormatFloat("#,###.##", n)
}

func pagination(r *http.Request) (page, perPage int) {
	q := r.URL.Query()
	page, _ = strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ = strconv.Atoi(q.Get("per_page"))
	if perPage < 1 {
		perPage = defaultPerPage
	}
	return page, perPage
}

func paginate(trips []tripView, page, perPage int) ([]tripView, int) {
	totalPages := (len(trips) + perPage - 1) / perPage
	if totalPages < 1 {
		totalPages = 1
	}
	lo := (page - 1) * perPage
	if lo >= len(trips) {
		return []tripView{}, totalPages
	}
	hi := lo + perPage
	if hi > len(trips) {
		hi = len(trips)
	}
	return trips[lo:hi], totalPages
}
