package ledger

import "time"

// DateLayout is how due dates are printed on Uruguayan documents.
const DateLayout = "02/01/2006"

// Date builds a calendar date at UTC midnight.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf drops the time-of-day component, keeping the calendar date.
func DateOf(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), t.Day())
}

// DaysBetween returns whole calendar days from "from" to "to" (negative if to is earlier).
func DaysBetween(from, to time.Time) int {
	return int(DateOf(to).Sub(DateOf(from)).Hours() / 24)
}

// AddMonths moves t by n calendar months. Day overflow normalizes forward
// (Jan 31 + 1 month = Mar 3 in non-leap years).
func AddMonths(t time.Time, n int) time.Time {
	return t.AddDate(0, n, 0)
}

// FormatDate renders t as DD/MM/YYYY.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// AsOfOrToday returns the calendar date of asOf, or today's when asOf is zero.
func AsOfOrToday(asOf time.Time) time.Time {
	if asOf.IsZero() {
		return DateOf(time.Now())
	}
	return DateOf(asOf)
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return Date(year, month+1, 0).Day()
}
