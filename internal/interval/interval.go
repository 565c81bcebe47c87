package interval

import (
	"math"
	"time"

	"github.com/conorfennell/imagedeck/internal/domain"
)

// Day is the length of one interval step.
const Day = 24 * time.Hour

// MillisPerDay is Day expressed in milliseconds, the unit timestamps are stored in.
const MillisPerDay = int64(Day / time.Millisecond)

// NextInterval returns the interval to use after a review.
// Forgetting resets spacing to the minimum; remembering doubles it, capped at a year.
func NextInterval(currentIntervalDays int, remembered bool) int {
	if !remembered {
		return domain.MinIntervalDays
	}
	next := int(math.Round(float64(currentIntervalDays) * 2))
	return clamp(next, domain.MinIntervalDays, domain.MaxIntervalDays)
}

// ComputeDueAt returns the moment a card reviewed at now becomes due again.
func ComputeDueAt(now time.Time, intervalDays int) time.Time {
	return time.UnixMilli(now.UnixMilli() + int64(intervalDays)*MillisPerDay)
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
