package records

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/2beens/progressboard/internal/progress"
)

var (
	ErrRecordNotFound = errors.New("weekly record not found")
	ErrInvalidRecord  = errors.New("invalid weekly record")
	ErrUnknownPatient = errors.New("unknown patient")
)

// Measurement selects which tracked quantity of a record feeds the engine.
type Measurement string

const (
	MeasurementWeight Measurement = "weight"
	MeasurementWaist  Measurement = "waist"
)

// ParseMeasurement defaults to weight when s is empty.
func ParseMeasurement(s string) (Measurement, error) {
	switch Measurement(strings.ToLower(strings.TrimSpace(s))) {
	case "", MeasurementWeight:
		return MeasurementWeight, nil
	case MeasurementWaist:
		return MeasurementWaist, nil
	default:
		return "", fmt.Errorf("unknown measurement [%s]", s)
	}
}

// Record is a patient's weekly check-in. Week 0 is the program start.
// Either quantity may be nil when it was not measured that week.
type Record struct {
	ID         int       `json:"id"`
	PatientID  int       `json:"patientId"`
	WeekNumber int       `json:"weekNumber"`
	Weight     *float64  `json:"weight"`
	Waist      *float64  `json:"waist"`
	Notes      string    `json:"notes"`
	RecordedAt time.Time `json:"recordedAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (r Record) Quantity(m Measurement) *float64 {
	if m == MeasurementWaist {
		return r.Waist
	}
	return r.Weight
}

func (r Record) Validate() error {
	if r.PatientID <= 0 {
		return fmt.Errorf("%w: patient id missing", ErrInvalidRecord)
	}
	if r.WeekNumber < 0 {
		return fmt.Errorf("%w: negative week number %d", ErrInvalidRecord, r.WeekNumber)
	}
	for name, q := range map[string]*float64{"weight": r.Weight, "waist": r.Waist} {
		if q == nil {
			continue
		}
		if math.IsNaN(*q) || math.IsInf(*q, 0) || *q < 0 {
			return fmt.Errorf("%w: invalid %s %v", ErrInvalidRecord, name, *q)
		}
	}
	return nil
}

// ToSeries maps stored records onto the engine series for one measurement.
func ToSeries(records []Record, m Measurement) []progress.WeeklyRecord {
	series := make([]progress.WeeklyRecord, 0, len(records))
	for _, r := range records {
		series = append(series, progress.WeeklyRecord{
			WeekNumber: r.WeekNumber,
			Quantity:   r.Quantity(m),
			RecordedAt: r.RecordedAt,
		})
	}
	return series
}
