package daytrip

import (
	"time"

	"github.com/jcooper22-22/extreme-day-trip-finder/pkg/date"
)

// Filter keeps candidates whose total price is within budget (inclusive)
// and whose trip date falls inside [start, end] inclusive. Pure and
// deterministic; a zero or negative budget keeps nothing.
func Filter(candidates []RoundTripCandidate, budget float64, start, end time.Time) []RoundTripCandidate {
	if budget <= 0 {
		return nil
	}

	var kept []RoundTripCandidate
	for _, c := range candidates {
		if c.TotalPrice > budget {
			continue
		}
		day, err := date.Parse(c.Date)
		if err != nil {
			continue
		}
		if day.Before(start) || day.After(end) {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}
