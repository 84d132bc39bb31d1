package core

import (
	"math"
	"time"
)

const dateLayout = "2006-01-02"

// NewDate creates a Date from year, month (1-12) and day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a strict YYYY-MM-DD string. Empty or malformed input
// returns ErrInvalidDate.
func ParseDate(s string) (Date, error) {
	if s == "" {
		return Date{}, ErrInvalidDate
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// Day returns the day of the month.
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month as 1-12.
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year.
func (d Date) Year() int {
	return d.Time.Year()
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(dateLayout)
}

// DayOfWeek returns the weekday as 0-6 with 0 = Sunday.
func DayOfWeek(d Date) int {
	return int(d.Weekday())
}

// DaysInMonth returns the number of days in the given month (1-12).
func DaysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AddDays returns the date n days after d (n may be negative).
func AddDays(d Date, n int) Date {
	return Date{Time: d.AddDate(0, 0, n)}
}

// DaysBetween returns the signed whole-day difference b - a, rounded to
// the nearest day.
func DaysBetween(a, b Date) int {
	return int(math.Round(b.Sub(a.Time).Hours() / 24))
}

// WeekendAdjust shifts a date that lands on a weekend back to the
// preceding Friday: Saturday moves one day back, Sunday two. Pay dates
// are moved earlier, never later.
func WeekendAdjust(d Date) Date {
	switch d.Weekday() {
	case time.Saturday:
		return AddDays(d, -1)
	case time.Sunday:
		return AddDays(d, -2)
	}
	return d
}
