package progress

import (
	"math"
	"sort"
)

// Normalize drops records without a usable quantity and orders the rest by
// week number. Negative weeks and negative or non-finite quantities count as
// not measured. For duplicated weeks the last record in input order wins.
func Normalize(records []WeeklyRecord) []WeeklyRecord {
	normalized := make([]WeeklyRecord, 0, len(records))
	week2idx := make(map[int]int, len(records))
	for _, r := range records {
		if !measured(r) {
			continue
		}
		if i, ok := week2idx[r.WeekNumber]; ok {
			normalized[i] = r
			continue
		}
		week2idx[r.WeekNumber] = len(normalized)
		normalized = append(normalized, r)
	}

	sort.Slice(normalized, func(i, j int) bool {
		return normalized[i].WeekNumber < normalized[j].WeekNumber
	})

	return normalized
}

// Deltas returns one delta per measured week after the first, each computed
// against the nearest earlier measured week, so gaps are bridged.
// A pair with a zero prior quantity produces no delta.
func Deltas(records []WeeklyRecord) []Delta {
	return deltas(Normalize(records))
}

func deltas(normalized []WeeklyRecord) []Delta {
	var res []Delta
	for i := 1; i < len(normalized); i++ {
		prior := *normalized[i-1].Quantity
		if prior == 0 {
			continue
		}

		change := (prior - *normalized[i].Quantity) / prior * 100
		if !finite(change) {
			continue
		}

		res = append(res, Delta{
			WeekNumber:    normalized[i].WeekNumber,
			PercentChange: change,
		})
	}
	return res
}

func measured(r WeeklyRecord) bool {
	if r.Quantity == nil || r.WeekNumber < 0 {
		return false
	}
	q := *r.Quantity
	return finite(q) && q >= 0
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// round2 rounds to two decimals, halves away from zero.
func round2(v float64) float64 {
	r := math.Round(v*100) / 100
	if r == 0 {
		// avoid "-0" in rendered output
		return 0
	}
	return r
}
