package enrich

import "time"

// FiscalYear returns the fiscal year a date belongs to. Calendar months
// before the fiscal-year start month belong to the previous fiscal year:
// with a February start, January 2024 is fiscal year 2023.
func FiscalYear(d time.Time, startMonth time.Month) int {
	if d.Month() < startMonth {
		return d.Year() - 1
	}
	return d.Year()
}

// FiscalQuarter returns the 1-based quarter within the fiscal year.
func FiscalQuarter(d time.Time, startMonth time.Month) int {
	monthsIn := int(d.Month()) - int(startMonth)
	if monthsIn < 0 {
		monthsIn += 12
	}
	return monthsIn/3 + 1
}

// CalendarQuarter returns the 1-based calendar quarter.
func CalendarQuarter(d time.Time) int {
	return (int(d.Month())-1)/3 + 1
}

// DayOfWeek returns the 1-based day number under the given week start
// convention. With a Monday start, Monday is 1 and Sunday is 7.
func DayOfWeek(d time.Time, weekStart time.Weekday) int {
	offset := int(d.Weekday()) - int(weekStart)
	if offset < 0 {
		offset += 7
	}
	return offset + 1
}

// IsWeekend reports whether the date falls on Saturday or Sunday. The
// weekend is fixed to the Western convention independent of the week start.
func IsWeekend(d time.Time) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// ISOWeek returns the ISO 8601 week number.
func ISOWeek(d time.Time) int {
	_, week := d.ISOWeek()
	return week
}

// IsMonthEnd reports whether the date is the last day of its month.
func IsMonthEnd(d time.Time) bool {
	return d.AddDate(0, 0, 1).Month() != d.Month()
}

// IsQuarterEnd reports whether the date is the last day of a calendar
// quarter.
func IsQuarterEnd(d time.Time) bool {
	if !IsMonthEnd(d) {
		return false
	}
	switch d.Month() {
	case time.March, time.June, time.September, time.December:
		return true
	}
	return false
}
