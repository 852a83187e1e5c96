package daytrip

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jcooper22-22/extreme-day-trip-finder/internal/config"
	"github.com/jcooper22-22/extreme-day-trip-finder/internal/provider"
	"github.com/jcooper22-22/extreme-day-trip-finder/pkg/date"
	"github.com/jcooper22-22/extreme-day-trip-finder/pkg/metrics"
)

var iataPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// Service runs a whole search: it fans out over every (destination, date)
// pair, matches, filters and ranks. Provider trouble on one pair never
// fails the search; the pair is skipped and reported.
type Service struct {
	fetcher     provider.Fetcher
	matcher     *Matcher
	timeout     time.Duration
	horizonDays int
	concurrency int
	log         *zap.SugaredLogger
	met         *metrics.Metrics

	now func() time.Time
}

func NewService(fetcher provider.Fetcher, cfg *config.Config, log *zap.SugaredLogger, met *metrics.Metrics) *Service {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Service{
		fetcher:     fetcher,
		matcher:     NewMatcher(fetcher, cfg.MinDwell, log),
		timeout:     cfg.SearchTimeout,
		horizonDays: cfg.HorizonDays,
		concurrency: concurrency,
		log:         log,
		met:         met,
		now:         time.Now,
	}
}

// Search validates the request, walks every (date, destination) pair and
// returns the aggregate, cheapest first. Only a malformed request yields
// an error; anything else degrades to a partial result.
func (s *Service) Search(ctx context.Context, req SearchRequest) (SearchResult, error) {
	started := time.Now()

	if err := s.validate(req); err != nil {
		s.met.RejectedRequests.Inc()
		return SearchResult{}, err
	}

	log := s.log.With("search_id", uuid.NewString(), "origin", req.Origin)
	s.met.SearchesTotal.Inc()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var (
		mu      sync.Mutex
		all     []RoundTripCandidate
		skipped []Diagnostic
	)
	skip := func(destination string, day time.Time, err error) {
		mu.Lock()
		skipped = append(skipped, Diagnostic{
			Origin:      req.Origin,
			Destination: destination,
			Date:        date.Format(day),
			Reason:      err.Error(),
		})
		mu.Unlock()
		s.met.PairsSkipped.Inc()
		s.met.FetchErrors.WithLabelValues(errorKind(err)).Inc()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, day := range date.Range(req.Start, req.End) {
		destinations, err := s.destinationsFor(gctx, req, day)
		if err != nil {
			log.Warnw("destination listing failed", "date", date.Format(day), "err", err)
			skip("", day, err)
			continue
		}

		for _, destination := range destinations {
			day, destination := day, destination
			g.Go(func() error {
				cands, err := s.matcher.Match(gctx, req.Origin, destination, day)
				if err != nil {
					log.Warnw("pair skipped", "destination", destination, "date", date.Format(day), "err", err)
					skip(destination, day, err)
					return nil
				}
				if len(cands) == 0 {
					return nil
				}
				mu.Lock()
				all = append(all, cands...)
				mu.Unlock()
				return nil
			})
		}
	}

	// workers never return errors, so this only drains the group
	_ = g.Wait()

	kept := Filter(all, req.Budget, req.Start, req.End)
	sortCandidates(kept)

	sort.Slice(skipped, func(i, j int) bool {
		if skipped[i].Date != skipped[j].Date {
			return skipped[i].Date < skipped[j].Date
		}
		return skipped[i].Destination < skipped[j].Destination
	})

	res := SearchResult{Candidates: kept, Skipped: skipped, Partial: len(skipped) > 0}

	s.met.CandidatesFound.Observe(float64(len(kept)))
	s.met.SearchDuration.Observe(time.Since(started).Seconds())
	if res.Partial {
		s.met.PartialSearches.Inc()
	}
	log.Infow("search finished",
		"candidates", len(kept),
		"skipped", len(skipped),
		"elapsed", time.Since(started))

	return res, nil
}

// destinationsFor resolves the request's destination filter for one date.
// Explicit sets pass through; "all" needs the fetcher's listing capability.
func (s *Service) destinationsFor(ctx context.Context, req SearchRequest, day time.Time) ([]string, error) {
	if !req.Destinations.All() {
		return req.Destinations.Codes(), nil
	}
	lister := s.fetcher.(provider.DestinationLister) // checked during validation
	codes, err := lister.ListDestinations(ctx, req.Origin, day)
	if errors.Is(err, provider.ErrNoService) {
		return nil, nil
	}
	return codes, err
}

func (s *Service) validate(req SearchRequest) error {
	if !iataPattern.MatchString(req.Origin) {
		return fmt.Errorf("%w: origin %q is not an IATA code", ErrInvalidRequest, req.Origin)
	}
	if req.Destinations.All() {
		if _, ok := s.fetcher.(provider.DestinationLister); !ok {
			return fmt.Errorf("%w: provider %s cannot enumerate destinations; pass an explicit set",
				ErrInvalidRequest, s.fetcher.Name())
		}
	} else {
		if len(req.Destinations.Codes()) == 0 {
			return fmt.Errorf("%w: no destinations requested", ErrInvalidRequest)
		}
		for _, code := range req.Destinations.Codes() {
			if !iataPattern.MatchString(code) {
				return fmt.Errorf("%w: destination %q is not an IATA code", ErrInvalidRequest, code)
			}
			if code == req.Origin {
				return fmt.Errorf("%w: destination equals origin", ErrInvalidRequest)
			}
		}
	}
	if req.Start.IsZero() || req.End.IsZero() {
		return fmt.Errorf("%w: missing date range", ErrInvalidRequest)
	}
	if req.End.Before(req.Start) {
		return fmt.Errorf("%w: inverted date range", ErrInvalidRequest)
	}
	if req.Budget <= 0 {
		return fmt.Errorf("%w: budget must be positive", ErrInvalidRequest)
	}
	if s.horizonDays > 0 {
		today := midnight(s.now())
		if req.Start.Before(today) {
			return fmt.Errorf("%w: start date is in the past", ErrInvalidRequest)
		}
		if limit := today.AddDate(0, 0, s.horizonDays); req.End.After(limit) {
			return fmt.Errorf("%w: end date beyond the %d-day schedule window", ErrInvalidRequest, s.horizonDays)
		}
	}
	return nil
}

// sortCandidates orders ascending by total price, ties broken by earliest
// outbound departure, then by destination code so results are stable.
func sortCandidates(cands []RoundTripCandidate) {
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].TotalPrice != cands[j].TotalPrice {
			return cands[i].TotalPrice < cands[j].TotalPrice
		}
		if !cands[i].Outbound.DepartAt.Equal(cands[j].Outbound.DepartAt) {
			return cands[i].Outbound.DepartAt.Before(cands[j].Outbound.DepartAt)
		}
		return cands[i].Outbound.Destination < cands[j].Outbound.Destination
	})
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, provider.ErrUnavailable):
		return "unavailable"
	case errors.Is(err, provider.ErrInvalidAirport):
		return "invalid_airport"
	case errors.Is(err, context.DeadlineExceeded):
		return "deadline"
	default:
		return "other"
	}
}
