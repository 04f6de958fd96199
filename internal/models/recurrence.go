package models

import "time"

// Recurrence frequencies
const (
	FrequencyDaily     = "daily"
	FrequencyWeekly    = "weekly"
	FrequencyBiweekly  = "biweekly"
	FrequencyMonthly   = "monthly"
	FrequencyQuarterly = "quarterly"
	FrequencyYearly    = "yearly"
)

// ValidFrequency reports whether f is a supported recurrence frequency
func ValidFrequency(f string) bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyBiweekly,
		FrequencyMonthly, FrequencyQuarterly, FrequencyYearly:
		return true
	}
	return false
}

// NextDueDate returns the first occurrence after from for the given frequency.
// Month based steps clamp to the last day of the target month.
func NextDueDate(from time.Time, frequency string) (time.Time, bool) {
	switch frequency {
	case FrequencyDaily:
		return from.AddDate(0, 0, 1), true
	case FrequencyWeekly:
		return from.AddDate(0, 0, 7), true
	case FrequencyBiweekly:
		return from.AddDate(0, 0, 14), true
	case FrequencyMonthly:
		return addMonths(from, 1), true
	case FrequencyQuarterly:
		return addMonths(from, 3), true
	case FrequencyYearly:
		return addMonths(from, 12), true
	}
	return time.Time{}, false
}

func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
