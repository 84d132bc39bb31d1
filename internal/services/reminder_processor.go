package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"billfold/internal/core"
	applog "billfold/internal/log"
)

// ReminderProcessor scans the ledger for events landing on the next
// calendar day: unpaid obligations coming due and paychecks expected to
// arrive. Paycheck dates are weekend-adjusted the way payroll moves
// them, so a Saturday paycheck is announced for Friday.
type ReminderProcessor struct {
	store ScheduleStore
}

func NewReminderProcessor(store ScheduleStore) *ReminderProcessor {
	return &ReminderProcessor{store: store}
}

// ProcessUpcoming logs a reminder for every event due tomorrow relative
// to now, and returns how many were found.
func (p *ReminderProcessor) ProcessUpcoming(ctx context.Context, now time.Time) (int, error) {
	tomorrow := core.AddDays(core.NewDate(now.Year(), int(now.Month()), now.Day()), 1)
	year, month, day := tomorrow.Year(), tomorrow.Month(), tomorrow.Day()

	stored, err := p.store.ListObligations(ctx)
	if err != nil {
		return 0, fmt.Errorf("list obligations: %w", err)
	}
	paychecks, err := p.store.ListPaychecks(ctx)
	if err != nil {
		return 0, fmt.Errorf("list paychecks: %w", err)
	}

	count := 0
	for _, o := range stored {
		d := o.DueDate
		if d.Year() != year || d.Month() != month || d.Day() != day {
			continue
		}
		if o.IsPaid(year, month) {
			continue
		}
		slog.InfoContext(ctx, "Bill due tomorrow",
			applog.FieldComponent, applog.ComponentReminder,
			applog.FieldObligationID, o.ID,
			applog.FieldObligation, o.Name,
			applog.FieldCategory, o.Category,
			applog.FieldAmountCents, o.MonthlyDue().Cents,
			"due_date", d.String())
		count++
	}

	for _, pc := range paychecks {
		for _, occDay := range core.OccurrencesInMonth(pc.Paycheck, year, month) {
			adjusted := core.WeekendAdjust(core.NewDate(year, month, occDay))
			if adjusted.Year() != year || adjusted.Month() != month || adjusted.Day() != day {
				continue
			}
			slog.InfoContext(ctx, "Paycheck expected tomorrow",
				applog.FieldComponent, applog.ComponentReminder,
				"paycheck_id", pc.ID,
				applog.FieldAmountCents, pc.Amount.Cents,
				applog.FieldDay, occDay,
				"pay_date", adjusted.String())
			count++
		}
	}

	slog.InfoContext(ctx, "Reminder scan complete",
		applog.FieldComponent, applog.ComponentReminder,
		"date", tomorrow.String(),
		"reminders", count)

	return count, nil
}
