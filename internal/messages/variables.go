package messages

import (
	"fmt"

	"github.com/2beens/progressboard/internal/patients"
	"github.com/2beens/progressboard/internal/progress"
	"github.com/2beens/progressboard/internal/records"
)

// NotAvailable replaces every value that could not be computed. A missing
// value is never shown as 0.
const NotAvailable = "N/A"

const (
	kgToLb   = 2.20462262185
	cmToInch = 0.3937007874
)

// Variables are the values a coaching note template can use. WeeksUsed is how
// many weekly changes the momentum rate averages.
type Variables struct {
	PatientName     string `json:"patientName"`
	Week            int    `json:"week"`
	Measurement     string `json:"measurement"`
	MomentumRate    string `json:"momentumRate"`
	OverallRate     string `json:"overallRate"`
	Trend           string `json:"trend"`
	TrendWord       string `json:"trendWord"`
	WeeksUsed       string `json:"weeksUsed"`
	Current         string `json:"current"`
	Baseline        string `json:"baseline"`
	BaselineWeek    string `json:"baselineWeek"`
	TotalChange     string `json:"totalChange"`
	WeeklyChange    string `json:"weeklyChange"`
	OutlierFlagged  bool   `json:"outlierFlagged"`
	DivisionGuarded bool   `json:"divisionGuarded"`
}

// BuildVariables computes the note variables for week from the patient's
// full series, through the same engine the charts use.
func BuildVariables(
	patient patients.Patient,
	measurement records.Measurement,
	series []progress.WeeklyRecord,
	week int,
) Variables {
	wm := progress.Summarize(series, week)

	vars := Variables{
		PatientName:     patient.FullName,
		Week:            week,
		Measurement:     string(measurement),
		MomentumRate:    formatRate(wm.MomentumRate),
		OverallRate:     formatRate(wm.OverallRate),
		Trend:           string(wm.Trend),
		TrendWord:       trendWord(wm.Trend),
		WeeksUsed:       NotAvailable,
		Current:         FormatQuantity(wm.Quantity, measurement, patient.Unit),
		Baseline:        NotAvailable,
		BaselineWeek:    NotAvailable,
		TotalChange:     NotAvailable,
		WeeklyChange:    formatRate(wm.Delta),
		OutlierFlagged:  wm.OutlierClamped,
		DivisionGuarded: wm.DivisionGuarded,
	}

	if wm.MomentumRate != nil {
		vars.WeeksUsed = fmt.Sprintf("%d", wm.MomentumWindow)
	}

	if b, ok := progress.ResolveBaseline(series); ok {
		vars.Baseline = FormatQuantity(b.Quantity, measurement, patient.Unit)
		vars.BaselineWeek = fmt.Sprintf("%d", b.WeekNumber)
		if wm.Quantity != nil {
			change := *b.Quantity - *wm.Quantity
			vars.TotalChange = FormatQuantity(&change, measurement, patient.Unit)
		}
	}

	return vars
}

// FormatQuantity renders a stored quantity (kg for weight, cm for waist) in
// the patient's unit system with one decimal.
func FormatQuantity(v *float64, measurement records.Measurement, unit patients.Unit) string {
	if v == nil {
		return NotAvailable
	}

	q := *v
	suffix := "kg"
	if measurement == records.MeasurementWaist {
		suffix = "cm"
	}
	if unit == patients.UnitLb {
		if measurement == records.MeasurementWaist {
			q, suffix = q*cmToInch, "in"
		} else {
			q, suffix = q*kgToLb, "lb"
		}
	}

	return fmt.Sprintf("%.1f %s", q, suffix)
}

func formatRate(v *float64) string {
	if v == nil {
		return NotAvailable
	}
	return fmt.Sprintf("%.2f%%", *v)
}

func trendWord(t progress.Trend) string {
	switch t {
	case progress.TrendAccelerating:
		return "speeding up"
	case progress.TrendDecelerating:
		return "slowing down"
	default:
		return "holding steady"
	}
}
