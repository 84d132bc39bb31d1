// This file implements the recurrence engine. Each recurrence kind has
// its own checker that encapsulates the rule for deciding whether a
// paycheck lands on a given calendar day. Checkers are pure: the same
// inputs always produce the same answer.

package core

import (
	"fmt"
	"slices"
)

// OccurrenceChecker is the strategy interface for a single recurrence rule.
type OccurrenceChecker interface {
	// OccursOn reports whether the paycheck occurs on the given
	// year/month/day. Month is 1-12.
	OccursOn(p Paycheck, year, month, day int) bool
}

// NoneChecker matches only the anchor date itself.
type NoneChecker struct{}

func (NoneChecker) OccursOn(p Paycheck, year, month, day int) bool {
	return p.Anchor.Year() == year && p.Anchor.Month() == month && p.Anchor.Day() == day
}

// WeeklyChecker matches every day in the queried month that shares the
// anchor's day of week.
type WeeklyChecker struct{}

func (WeeklyChecker) OccursOn(p Paycheck, year, month, day int) bool {
	return DayOfWeek(p.Anchor) == DayOfWeek(NewDate(year, month, day))
}

// BiweeklyChecker matches days on the anchor's weekday whose whole-day
// distance from the anchor is a multiple of 14. The distance is signed,
// so dates before the anchor match too when the arithmetic lines up.
type BiweeklyChecker struct{}

func (BiweeklyChecker) OccursOn(p Paycheck, year, month, day int) bool {
	target := NewDate(year, month, day)
	if DayOfWeek(p.Anchor) != DayOfWeek(target) {
		return false
	}
	return DaysBetween(p.Anchor, target)%14 == 0
}

// MonthlyChecker matches the anchor's day of month. An anchor on day 31
// simply never occurs in a shorter month; there is no clamping to
// month-end.
type MonthlyChecker struct{}

func (MonthlyChecker) OccursOn(p Paycheck, year, month, day int) bool {
	return day == p.Anchor.Day()
}

// CustomChecker matches any day of month listed in the paycheck's
// CustomDays.
type CustomChecker struct{}

func (CustomChecker) OccursOn(p Paycheck, year, month, day int) bool {
	return slices.Contains(p.CustomDays, day)
}

// occurrenceStrategies maps recurrence kinds to their checkers.
var occurrenceStrategies = map[RecurrenceKind]OccurrenceChecker{
	RecurrenceNone:     NoneChecker{},
	RecurrenceWeekly:   WeeklyChecker{},
	RecurrenceBiweekly: BiweeklyChecker{},
	RecurrenceMonthly:  MonthlyChecker{},
	RecurrenceCustom:   CustomChecker{},
}

// GetOccurrenceChecker returns the checker for a recurrence kind.
func GetOccurrenceChecker(kind RecurrenceKind) (OccurrenceChecker, error) {
	checker, ok := occurrenceStrategies[kind]
	if !ok {
		return nil, fmt.Errorf("unknown recurrence kind: %s", kind)
	}
	return checker, nil
}

// OccursOn reports whether the paycheck occurs on the given date.
// Unknown recurrence kinds never occur.
func (p Paycheck) OccursOn(year, month, day int) bool {
	checker, err := GetOccurrenceChecker(p.Recurrence)
	if err != nil {
		return false
	}
	return checker.OccursOn(p, year, month, day)
}

// OccurrencesInMonth returns the ordered day numbers on which the
// paycheck occurs within the given month (1-12). The result is finite,
// ascending, and free of side effects.
func OccurrencesInMonth(p Paycheck, year, month int) []int {
	var days []int
	last := DaysInMonth(year, month)
	for day := 1; day <= last; day++ {
		if p.OccursOn(year, month, day) {
			days = append(days, day)
		}
	}
	return days
}
