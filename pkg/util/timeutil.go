package util

import "time"

// NowUTC exposes time.Now for deterministic testing.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last representable millisecond of t's day.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Millisecond)
}

// WeekBounds returns Sunday 00:00 through Saturday 23:59:59.999 of the week containing t.
func WeekBounds(t time.Time) (time.Time, time.Time) {
	start := StartOfDay(t).AddDate(0, 0, -int(t.Weekday()))
	return start, EndOfDay(start.AddDate(0, 0, 6))
}

// MonthBounds returns the first and last day of t's calendar month.
func MonthBounds(t time.Time) (time.Time, time.Time) {
	y, m, _ := t.Date()
	start := time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
	return start, EndOfDay(start.AddDate(0, 1, -1))
}
