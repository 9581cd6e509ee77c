package progress

import "math"

// Trend is the direction of the weekly change at a target week.
type Trend string

const (
	TrendAccelerating Trend = "accelerating"
	TrendDecelerating Trend = "decelerating"
	TrendStable       Trend = "stable"
)

const (
	accelerationFactor = 1.2
	decelerationFactor = 0.8
	// weekly changes above this many percent are treated as data errors
	outlierThreshold = 5.0
	minTrendWeek     = 3
)

// TrendResult is the trend at one week, as served to chart and message clients.
type TrendResult struct {
	Direction Trend `json:"direction"`
	// CurrentDelta is the delta at the target week, nil when the week has none.
	CurrentDelta *float64 `json:"currentDelta"`
	// OutlierClamped is set when an implausible weekly change forced the
	// result to stable.
	OutlierClamped bool `json:"outlierClamped"`
}

// ComputeTrend compares the delta at targetWeek with the two deltas before it.
// Those are the two most recent earlier deltas, not necessarily the two
// preceding calendar weeks. Without enough history the trend is stable.
func ComputeTrend(records []WeeklyRecord, targetWeek int) TrendResult {
	return analyze(records).trend(targetWeek)
}

func (a analysis) trend(targetWeek int) TrendResult {
	res := TrendResult{Direction: TrendStable}

	idx := a.deltaIndex(targetWeek)
	if idx < 0 {
		return res
	}
	current := a.deltas[idx].PercentChange
	res.CurrentDelta = &current

	if targetWeek < minTrendWeek || idx < 2 {
		return res
	}

	recent := a.deltas[idx-1].PercentChange
	prior := a.deltas[idx-2].PercentChange
	if math.Abs(current) > outlierThreshold ||
		math.Abs(recent) > outlierThreshold ||
		math.Abs(prior) > outlierThreshold {
		res.OutlierClamped = true
		return res
	}

	switch {
	case current > recent*accelerationFactor:
		res.Direction = TrendAccelerating
	case current < recent*decelerationFactor:
		res.Direction = TrendDecelerating
	}

	return res
}
