// Package progress computes weekly progress metrics (deltas, momentum, overall
// rate and trend) from a sparse series of weekly measurements.
//
// Everything here is pure: no I/O, no clock, no caching. Every call recomputes
// from the full series it gets, so chart data and coaching messages built from
// the same series always agree.
package progress

import "errors"

// WeekMetrics bundles every metric for one target week. Nil fields could not
// be computed and must be shown as "N/A" or a null chart point.
type WeekMetrics struct {
	Week            int      `json:"week"`
	Quantity        *float64 `json:"quantity"`
	Delta           *float64 `json:"delta"`
	MomentumRate    *float64 `json:"momentumRate"`
	MomentumWindow  int      `json:"momentumWindow"`
	OverallRate     *float64 `json:"overallRate"`
	Trend           Trend    `json:"trend"`
	OutlierClamped  bool     `json:"outlierClamped"`
	DivisionGuarded bool     `json:"divisionGuarded"`
}

type analysis struct {
	normalized []WeeklyRecord
	deltas     []Delta
}

func analyze(records []WeeklyRecord) analysis {
	normalized := Normalize(records)
	return analysis{
		normalized: normalized,
		deltas:     deltas(normalized),
	}
}

func (a analysis) deltaIndex(week int) int {
	for i, d := range a.deltas {
		if d.WeekNumber == week {
			return i
		}
	}
	return -1
}

func (a analysis) record(week int) (WeeklyRecord, bool) {
	for _, r := range a.normalized {
		if r.WeekNumber == week {
			return r, true
		}
	}
	return WeeklyRecord{}, false
}

func (a analysis) summarize(week int) WeekMetrics {
	m := WeekMetrics{Week: week}

	if r, ok := a.record(week); ok {
		q := *r.Quantity
		m.Quantity = &q
	}

	if rate, window, err := a.momentum(week); err == nil {
		m.MomentumRate = &rate
		m.MomentumWindow = window
	}

	overall, err := a.overall(week)
	switch {
	case err == nil:
		m.OverallRate = &overall
	case errors.Is(err, ErrDivisionGuarded):
		m.DivisionGuarded = true
	}

	t := a.trend(week)
	m.Delta = t.CurrentDelta
	m.Trend = t.Direction
	m.OutlierClamped = t.OutlierClamped

	return m
}

// Summarize computes all metrics of targetWeek from the given series.
func Summarize(records []WeeklyRecord, targetWeek int) WeekMetrics {
	return analyze(records).summarize(targetWeek)
}

// Timeline returns metrics for every week from the first to the last measured
// week, including unmeasured weeks in between. Empty for an empty series.
func Timeline(records []WeeklyRecord) []WeekMetrics {
	a := analyze(records)
	if len(a.normalized) == 0 {
		return nil
	}

	first := a.normalized[0].WeekNumber
	last := a.normalized[len(a.normalized)-1].WeekNumber
	timeline := make([]WeekMetrics, 0, last-first+1)
	for week := first; week <= last; week++ {
		timeline = append(timeline, a.summarize(week))
	}
	return timeline
}
