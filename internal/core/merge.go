package core

import "sort"

const (
	EntryObligation EntryKind = "obligation"
	EntryIncome     EntryKind = "income"
)

type (
	EntryKind string

	// ScheduleEntry is one dated event on the month calendar.
	// SourceIndex points back into the caller's obligation or paycheck
	// slice. RunningNet is the cumulative income minus due up to and
	// including this entry, in calendar order.
	ScheduleEntry struct {
		Kind        EntryKind
		Name        string
		Amount      Money
		Year        int
		Month       int
		Day         int
		SourceIndex int
		RunningNet  int64
	}

	// MonthTotals aggregates a month's schedule.
	MonthTotals struct {
		TotalDue    Money
		TotalIncome Money
		TotalPaid   Money
	}
)

// MergeForMonth combines obligations due in the month with paycheck
// occurrences into one list ordered by day. The sort is stable: for a
// given day, obligations keep their insertion order ahead of incomes.
// Empty inputs yield an empty list, never an error. Month is 1-12.
func MergeForMonth(year, month int, obligations []Obligation, paychecks []Paycheck) []ScheduleEntry {
	var entries []ScheduleEntry

	for i, o := range obligations {
		d := o.DueDate
		if d.IsZero() || d.Year() != year || d.Month() != month {
			continue
		}
		entries = append(entries, ScheduleEntry{
			Kind:        EntryObligation,
			Name:        o.Name,
			Amount:      o.MonthlyDue(),
			Year:        year,
			Month:       month,
			Day:         d.Day(),
			SourceIndex: i,
		})
	}

	for i, p := range paychecks {
		for _, day := range OccurrencesInMonth(p, year, month) {
			entries = append(entries, ScheduleEntry{
				Kind:        EntryIncome,
				Name:        "Paycheck",
				Amount:      p.Amount,
				Year:        year,
				Month:       month,
				Day:         day,
				SourceIndex: i,
			})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Day < entries[j].Day
	})

	var net int64
	for i := range entries {
		if entries[i].Kind == EntryIncome {
			net += entries[i].Amount.Cents
		} else {
			net -= entries[i].Amount.Cents
		}
		entries[i].RunningNet = net
	}

	return entries
}

// Totals aggregates due, income and paid amounts for the month. Paid is
// taken from the payment ledger of every obligation, not only those due
// this month.
func Totals(year, month int, obligations []Obligation, entries []ScheduleEntry) MonthTotals {
	var t MonthTotals
	for _, e := range entries {
		switch e.Kind {
		case EntryObligation:
			t.TotalDue = t.TotalDue.Add(e.Amount)
		case EntryIncome:
			t.TotalIncome = t.TotalIncome.Add(e.Amount)
		}
	}
	for _, o := range obligations {
		t.TotalPaid = t.TotalPaid.Add(o.PaidInMonth(year, month))
	}
	return t
}
