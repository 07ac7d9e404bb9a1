package leave

import "time"

// CountWorkingDays counts the days from..to inclusive that are not Saturday
// or Sunday. Only the calendar date of each argument is used. The caller
// ensures from is not after to.
func CountWorkingDays(from, to time.Time) int {
	end := calendarDate(to)
	count := 0
	for day := calendarDate(from); !day.After(end); day = day.AddDate(0, 0, 1) {
		switch day.Weekday() {
		case time.Saturday, time.Sunday:
		default:
			count++
		}
	}
	return count
}

// calendarDate drops the clock part of t, keeping its year, month and day in UTC.
func calendarDate(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
