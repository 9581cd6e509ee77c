package progress

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInsufficientData is returned when a value cannot be computed from the
	// given series. Callers render it as "N/A" or a null point, never as zero.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrDivisionGuarded means the reference quantity was zero.
	ErrDivisionGuarded = fmt.Errorf("%w: zero reference quantity", ErrInsufficientData)
)

// WeeklyRecord is one weekly measurement of a single quantity (weight, waist, ...).
// A nil Quantity means the week was skipped or not measured.
// RecordedAt is informational only, ordering is always by WeekNumber.
type WeeklyRecord struct {
	WeekNumber int       `json:"weekNumber"`
	Quantity   *float64  `json:"quantity"`
	RecordedAt time.Time `json:"recordedAt"`
}

// Delta is the percentage change of a week against the nearest earlier
// measured week. Positive means the quantity went down.
type Delta struct {
	WeekNumber    int     `json:"weekNumber"`
	PercentChange float64 `json:"percentChange"`
}

// Q returns a pointer to v, handy for building series literals.
func Q(v float64) *float64 {
	return &v
}
