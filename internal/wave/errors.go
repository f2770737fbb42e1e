package wave

import (
	"fmt"
	"time"
)

// InsufficientDataError indicates a series too short to difference.
type InsufficientDataError struct {
	Points int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: need at least 2 points, got %d", e.Points)
}

// NoValidExtremumError indicates that no non-negative smoothed value exists
// in the searched range.
type NoValidExtremumError struct {
	Mode     Mode
	From, To time.Time
}

func (e *NoValidExtremumError) Error() string {
	return fmt.Sprintf("no valid %s: no non-negative daily value in %s", e.Mode, formatRange(e.From, e.To))
}

// NoTroughFoundError indicates a trough was requested without a located peak,
// or that the tail after the peak holds no non-negative minimum.
type NoTroughFoundError struct {
	Reason   string
	From, To time.Time
}

func (e *NoTroughFoundError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("no trough found in %s", formatRange(e.From, e.To))
	}
	return fmt.Sprintf("no trough found in %s: %s", formatRange(e.From, e.To), e.Reason)
}

func formatRange(from, to time.Time) string {
	if from.IsZero() && to.IsZero() {
		return "empty series"
	}
	return from.Format(time.DateOnly) + ".." + to.Format(time.DateOnly)
}
