// Package charts shapes progress timelines into dashboard chart payloads.
package charts

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/2beens/progressboard/internal/progress"
)

type Point struct {
	Week           int            `json:"week"`
	Measured       bool           `json:"measured"`
	Quantity       *float64       `json:"quantity"`
	Delta          *float64       `json:"delta"`
	MomentumRate   *float64       `json:"momentumRate"`
	OverallRate    *float64       `json:"overallRate"`
	Trend          progress.Trend `json:"trend"`
	OutlierClamped bool           `json:"outlierClamped"`
}

type Baseline struct {
	Week     int     `json:"week"`
	Quantity float64 `json:"quantity"`
}

type Chart struct {
	PatientID   int       `json:"patientId"`
	Measurement string    `json:"measurement"`
	Baseline    *Baseline `json:"baseline"`
	Points      []Point   `json:"points"`
}

// Build returns one point per week between the first and last measured week.
// Values that cannot be computed stay null so the chart leaves a gap.
func Build(patientID int, measurement string, series []progress.WeeklyRecord) Chart {
	chart := Chart{
		PatientID:   patientID,
		Measurement: measurement,
		Points:      []Point{},
	}

	if b, ok := progress.ResolveBaseline(series); ok {
		chart.Baseline = &Baseline{
			Week:     b.WeekNumber,
			Quantity: *b.Quantity,
		}
	}

	for _, wm := range progress.Timeline(series) {
		chart.Points = append(chart.Points, Point{
			Week:           wm.Week,
			Measured:       wm.Quantity != nil,
			Quantity:       wm.Quantity,
			Delta:          wm.Delta,
			MomentumRate:   wm.MomentumRate,
			OverallRate:    wm.OverallRate,
			Trend:          wm.Trend,
			OutlierClamped: wm.OutlierClamped,
		})
	}

	return chart
}

// WriteCSV exports the chart points, empty cells for missing values.
func WriteCSV(w io.Writer, chart Chart) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"week", "quantity", "delta", "momentum_rate", "overall_rate", "trend",
	}); err != nil {
		return err
	}

	for _, p := range chart.Points {
		if err := cw.Write([]string{
			strconv.Itoa(p.Week),
			formatValue(p.Quantity),
			formatValue(p.Delta),
			formatValue(p.MomentumRate),
			formatValue(p.OverallRate),
			string(p.Trend),
		}); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatValue(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
