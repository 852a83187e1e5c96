package daytrip

import (
	"errors"
	"time"

	"github.com/jcooper22-22/extreme-day-trip-finder/internal/provider"
)

// RoundTripCandidate pairs an outbound and a return leg that fly on the
// same calendar date with a positive dwell at the destination.
type RoundTripCandidate struct {
	Outbound   provider.FlightOffer `json:"outbound"`
	Return     provider.FlightOffer `json:"return"`
	TotalPrice float64              `json:"total_price"`
	Date       string               `json:"date"` // YYYY-MM-DD, shared by both legs
}

// DestinationFilter says which destinations a search covers: every
// airport the operator serves from the origin, or an explicit set.
// There is deliberately no sentinel code for "all".
type DestinationFilter struct {
	all   bool
	codes []string
}

func AllDestinations() DestinationFilter { return DestinationFilter{all: true} }

func ExplicitSet(codes ...string) DestinationFilter {
	return DestinationFilter{codes: codes}
}

func (f DestinationFilter) All() bool { return f.all }

func (f DestinationFilter) Codes() []string { return f.codes }

// SearchRequest describes one user query. Read-only during matching.
type SearchRequest struct {
	Origin       string
	Destinations DestinationFilter
	Start        time.Time // inclusive
	End          time.Time // inclusive
	Budget       float64
}

// Diagnostic records a (destination, date) pair that was skipped.
type Diagnostic struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination,omitempty"`
	Date        string `json:"date"`
	Reason      string `json:"reason"`
}

// SearchResult carries the surviving candidates, cheapest first, plus
// whatever pairs had to be skipped along the way.
type SearchResult struct {
	Candidates []RoundTripCandidate `json:"candidates"`
	Skipped    []Diagnostic         `json:"skipped,omitempty"`
	Partial    bool                 `json:"partial"`
}

// ErrInvalidRequest marks a malformed SearchRequest. It is the only
// error Search returns; everything else degrades to a partial result.
var ErrInvalidRequest = errors.New("invalid search request")

func round2(v float64) float64 { return float64(int(v*100+0.5)) / 100 }
