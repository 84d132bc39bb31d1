package core

import (
	"reflect"
	"testing"
)

func TestNoneOccursOnlyOnAnchor(t *testing.T) {
	p := Paycheck{Anchor: NewDate(2025, 3, 15), Amount: Money{Cents: 200000}, Recurrence: RecurrenceNone}

	if !p.OccursOn(2025, 3, 15) {
		t.Error("expected occurrence on the anchor date")
	}
	if p.OccursOn(2025, 3, 16) {
		t.Error("unexpected occurrence the day after the anchor")
	}

	if got := OccurrencesInMonth(p, 2025, 3); !reflect.DeepEqual(got, []int{15}) {
		t.Errorf("anchor month = %v, want [15]", got)
	}
	if got := OccurrencesInMonth(p, 2025, 4); got != nil {
		t.Errorf("other month = %v, want none", got)
	}
}

func TestWeeklyOccursOnAnchorWeekday(t *testing.T) {
	// 2025-01-06 is a Monday; January 2025 Mondays are 6, 13, 20, 27.
	p := Paycheck{Anchor: NewDate(2025, 1, 6), Amount: Money{Cents: 100000}, Recurrence: RecurrenceWeekly}

	want := []int{6, 13, 20, 27}
	if got := OccurrencesInMonth(p, 2025, 1); !reflect.DeepEqual(got, want) {
		t.Errorf("OccurrencesInMonth = %v, want %v", got, want)
	}
}

func TestBiweeklyRule(t *testing.T) {
	// 2025-02-07 is a Friday.
	p := Paycheck{Anchor: NewDate(2025, 2, 7), Amount: Money{Cents: 150000}, Recurrence: RecurrenceBiweekly}

	tests := []struct {
		name             string
		year, month, day int
		want             bool
	}{
		{name: "anchor itself", year: 2025, month: 2, day: 7, want: true},
		{name: "14 days later", year: 2025, month: 2, day: 21, want: true},
		{name: "7 days later same weekday", year: 2025, month: 2, day: 14, want: false},
		{name: "14 days earlier", year: 2025, month: 1, day: 24, want: true},
		{name: "different weekday", year: 2025, month: 2, day: 20, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.OccursOn(tt.year, tt.month, tt.day); got != tt.want {
				t.Errorf("OccursOn(%d-%d-%d) = %v, want %v", tt.year, tt.month, tt.day, got, tt.want)
			}
		})
	}
}

func TestMonthlyDay31SkipsShortMonths(t *testing.T) {
	p := Paycheck{Anchor: NewDate(2025, 1, 31), Amount: Money{Cents: 300000}, Recurrence: RecurrenceMonthly}

	if got := OccurrencesInMonth(p, 2025, 4); got != nil {
		t.Errorf("April (30 days) = %v, want none", got)
	}
	if got := OccurrencesInMonth(p, 2025, 3); !reflect.DeepEqual(got, []int{31}) {
		t.Errorf("March = %v, want [31]", got)
	}
}

func TestCustomDays(t *testing.T) {
	p := Paycheck{
		Anchor:     NewDate(2025, 1, 7),
		Amount:     Money{Cents: 120000},
		Recurrence: RecurrenceCustom,
		CustomDays: []int{7, 22},
	}

	want := []int{7, 22}
	if got := OccurrencesInMonth(p, 2025, 6); !reflect.DeepEqual(got, want) {
		t.Errorf("OccurrencesInMonth = %v, want %v", got, want)
	}

	empty := Paycheck{Anchor: NewDate(2025, 1, 7), Amount: Money{Cents: 1}, Recurrence: RecurrenceCustom}
	if got := OccurrencesInMonth(empty, 2025, 6); got != nil {
		t.Errorf("no custom days should never occur, got %v", got)
	}
}

func TestOccurrencesAreIdempotent(t *testing.T) {
	p := Paycheck{Anchor: NewDate(2025, 2, 7), Amount: Money{Cents: 150000}, Recurrence: RecurrenceBiweekly}

	first := OccurrencesInMonth(p, 2025, 2)
	second := OccurrencesInMonth(p, 2025, 2)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated calls differ: %v vs %v", first, second)
	}
}

func TestGetOccurrenceCheckerUnknownKind(t *testing.T) {
	if _, err := GetOccurrenceChecker(RecurrenceKind("fortnightly")); err == nil {
		t.Error("expected error for unknown recurrence kind")
	}
}
