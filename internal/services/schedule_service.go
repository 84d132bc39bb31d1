package services

import (
	"context"
	"fmt"

	"billfold/internal/core"
	"billfold/internal/storage"
)

// ScheduleStore is the slice of the repository the schedule and
// reminder services need.
type ScheduleStore interface {
	ListObligations(ctx context.Context) ([]storage.StoredObligation, error)
	ListPaychecks(ctx context.Context) ([]storage.StoredPaycheck, error)
}

// MonthSchedule is one month's merged calendar view.
type MonthSchedule struct {
	Year    int
	Month   int
	Entries []core.ScheduleEntry
	Totals  core.MonthTotals
}

// ScheduleService builds month views from the stored ledger.
type ScheduleService struct {
	store ScheduleStore
}

func NewScheduleService(store ScheduleStore) *ScheduleService {
	return &ScheduleService{store: store}
}

// MonthSchedule merges all obligations and paychecks for one month.
// Month is 1-12. An empty ledger yields an empty schedule, not an
// error.
func (s *ScheduleService) MonthSchedule(ctx context.Context, year, month int) (MonthSchedule, error) {
	if month < 1 || month > 12 {
		return MonthSchedule{}, core.ErrInvalidDate
	}

	stored, err := s.store.ListObligations(ctx)
	if err != nil {
		return MonthSchedule{}, fmt.Errorf("list obligations: %w", err)
	}
	storedChecks, err := s.store.ListPaychecks(ctx)
	if err != nil {
		return MonthSchedule{}, fmt.Errorf("list paychecks: %w", err)
	}

	obligations := make([]core.Obligation, len(stored))
	for i, o := range stored {
		obligations[i] = o.Obligation
	}
	paychecks := make([]core.Paycheck, len(storedChecks))
	for i, p := range storedChecks {
		paychecks[i] = p.Paycheck
	}

	entries := core.MergeForMonth(year, month, obligations, paychecks)
	return MonthSchedule{
		Year:    year,
		Month:   month,
		Entries: entries,
		Totals:  core.Totals(year, month, obligations, entries),
	}, nil
}
