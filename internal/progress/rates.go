package progress

const (
	// up to this week the momentum is the mean of all weeks since the start
	cumulativeWeeks = 4
	// from then on, the mean of the last rollingWindow deltas
	rollingWindow = 4
)

// MomentumRate returns the smoothed weekly percentage change at targetWeek,
// rounded to two decimals.
//
// Weeks 1 to 4 use the mean over weeks 1..targetWeek where an unmeasured week
// counts as zero. From week 5 the last four deltas up to targetWeek are
// averaged. ErrInsufficientData is returned when targetWeek itself has no delta.
func MomentumRate(records []WeeklyRecord, targetWeek int) (float64, error) {
	rate, _, err := analyze(records).momentum(targetWeek)
	return rate, err
}

// MomentumWindow returns how many weeks the momentum rate at targetWeek averages.
func MomentumWindow(records []WeeklyRecord, targetWeek int) (int, error) {
	_, window, err := analyze(records).momentum(targetWeek)
	return window, err
}

// OverallRate returns the average weekly percentage change between the
// baseline and targetWeek: ((baseline - current) / baseline * 100) / targetWeek.
// It is a simple average, not compounded. Fewer than two measured weeks give
// ErrInsufficientData.
func OverallRate(records []WeeklyRecord, targetWeek int) (float64, error) {
	return analyze(records).overall(targetWeek)
}

func (a analysis) momentum(targetWeek int) (rate float64, window int, err error) {
	idx := a.deltaIndex(targetWeek)
	if targetWeek < 1 || idx < 0 {
		return 0, 0, ErrInsufficientData
	}

	var sum float64
	if targetWeek <= cumulativeWeeks {
		for _, d := range a.deltas[:idx+1] {
			sum += d.PercentChange
		}
		return round2(sum / float64(targetWeek)), targetWeek, nil
	}

	from := idx + 1 - rollingWindow
	if from < 0 {
		from = 0
	}
	used := a.deltas[from : idx+1]
	for _, d := range used {
		sum += d.PercentChange
	}
	return round2(sum / float64(len(used))), len(used), nil
}

func (a analysis) overall(targetWeek int) (float64, error) {
	// a lone measurement would be its own baseline and read as a 0% change
	if targetWeek <= 0 || len(a.normalized) < 2 {
		return 0, ErrInsufficientData
	}

	base, ok := baseline(a.normalized)
	if !ok {
		return 0, ErrInsufficientData
	}
	current, ok := a.record(targetWeek)
	if !ok {
		return 0, ErrInsufficientData
	}

	b := *base.Quantity
	if b == 0 {
		return 0, ErrDivisionGuarded
	}

	rate := ((b - *current.Quantity) / b * 100) / float64(targetWeek)
	if !finite(rate) {
		return 0, ErrDivisionGuarded
	}
	return rate, nil
}
