package progress

// ResolveBaseline returns the week 0 record when it is measured, otherwise the
// earliest measured week. The second value is false when nothing was measured.
// The baseline is resolved again on every call, so a late week 0 entry
// replaces a previously used fallback.
func ResolveBaseline(records []WeeklyRecord) (WeeklyRecord, bool) {
	return baseline(Normalize(records))
}

func baseline(normalized []WeeklyRecord) (WeeklyRecord, bool) {
	if len(normalized) == 0 {
		return WeeklyRecord{}, false
	}
	// week 0 sorts first whenever it is present
	return normalized[0], true
}
