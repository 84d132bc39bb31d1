package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"billfold/internal/amqp"
	"billfold/internal/core"
	"billfold/internal/storage"
)

// fakeStore implements LedgerStore, ScheduleStore and ForecastStore
// against in-memory fixtures. GetObligation rebuilds the value on every
// call like the real repository does, so callers never alias fixtures.
type fakeStore struct {
	obligations []storage.StoredObligation
	paychecks   []storage.StoredPaycheck

	addedPayments []core.PaymentRecord
	savedBalance  *core.Money
	savedForecast *core.PayoffForecast
}

func (f *fakeStore) GetObligation(_ context.Context, id int64) (storage.StoredObligation, error) {
	for _, o := range f.obligations {
		if o.ID == id {
			copied := o
			if o.Revolving != nil {
				terms := *o.Revolving
				copied.Revolving = &terms
			}
			if o.Flat != nil {
				terms := *o.Flat
				copied.Flat = &terms
			}
			copied.Payments = append([]core.PaymentRecord(nil), o.Payments...)
			return copied, nil
		}
	}
	return storage.StoredObligation{}, errors.New("not found")
}

func (f *fakeStore) AddPayment(_ context.Context, _ int64, rec core.PaymentRecord, newBalance *core.Money) error {
	f.addedPayments = append(f.addedPayments, rec)
	f.savedBalance = newBalance
	return nil
}

func (f *fakeStore) ListObligations(_ context.Context) ([]storage.StoredObligation, error) {
	return f.obligations, nil
}

func (f *fakeStore) ListPaychecks(_ context.Context) ([]storage.StoredPaycheck, error) {
	return f.paychecks, nil
}

func (f *fakeStore) SaveForecast(_ context.Context, _ core.Money, fc core.PayoffForecast) error {
	f.savedForecast = &fc
	return nil
}

type fakePublisher struct {
	published []*amqp.PaymentAppliedMessage
}

func (p *fakePublisher) PublishPaymentApplied(_ context.Context, msg *amqp.PaymentAppliedMessage) error {
	p.published = append(p.published, msg)
	return nil
}

func storedCreditCard(id int64, balance, minPayment int64) storage.StoredObligation {
	return storage.StoredObligation{
		ID: id,
		Obligation: core.Obligation{
			Name:     "Visa",
			Category: core.CategoryCreditCard,
			DueDate:  core.NewDate(2025, 5, 20),
			Revolving: &core.RevolvingTerms{
				Balance:    core.Money{Cents: balance},
				MinPayment: core.Money{Cents: minPayment},
				APR:        19.99,
			},
		},
	}
}

func storedUtility(id int64, amount int64, due core.Date) storage.StoredObligation {
	return storage.StoredObligation{
		ID: id,
		Obligation: core.Obligation{
			Name:     "Electric",
			Category: core.CategoryUtility,
			DueDate:  due,
			Flat:     &core.FlatTerms{Amount: core.Money{Cents: amount}},
		},
	}
}

func TestLedgerServiceApplyPayment(t *testing.T) {
	store := &fakeStore{obligations: []storage.StoredObligation{storedCreditCard(1, 100000, 2500)}}
	pub := &fakePublisher{}
	svc := NewLedgerService(store, pub)

	updated, err := svc.ApplyPayment(context.Background(), 1, core.Money{Cents: 40000}, 2025, 5)
	if err != nil {
		t.Fatalf("ApplyPayment: %v", err)
	}
	if updated.Revolving.Balance.Cents != 60000 {
		t.Errorf("balance = %d, want 60000", updated.Revolving.Balance.Cents)
	}
	if len(store.addedPayments) != 1 || store.addedPayments[0].Amount.Cents != 40000 {
		t.Errorf("stored payments = %+v", store.addedPayments)
	}
	if store.savedBalance == nil || store.savedBalance.Cents != 60000 {
		t.Errorf("persisted balance = %+v, want 60000", store.savedBalance)
	}
	if len(pub.published) != 1 || pub.published[0].ObligationID != 1 {
		t.Errorf("published = %+v", pub.published)
	}
}

func TestLedgerServiceRejectsInvalidAmount(t *testing.T) {
	store := &fakeStore{obligations: []storage.StoredObligation{storedCreditCard(1, 100000, 2500)}}
	svc := NewLedgerService(store, nil)

	_, err := svc.ApplyPayment(context.Background(), 1, core.Money{Cents: 0}, 2025, 5)
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("err = %v, want ErrInvalidAmount", err)
	}
	if len(store.addedPayments) != 0 {
		t.Error("rejected payment must not reach storage")
	}
}

func TestLedgerServiceUtilityKeepsBalanceNil(t *testing.T) {
	store := &fakeStore{obligations: []storage.StoredObligation{storedUtility(2, 10000, core.NewDate(2025, 5, 15))}}
	svc := NewLedgerService(store, nil)

	if _, err := svc.ApplyPayment(context.Background(), 2, core.Money{Cents: 10000}, 2025, 5); err != nil {
		t.Fatalf("ApplyPayment: %v", err)
	}
	if store.savedBalance != nil {
		t.Errorf("utility payment should not update a balance, got %+v", store.savedBalance)
	}
}

func TestScheduleServiceMonthSchedule(t *testing.T) {
	store := &fakeStore{
		obligations: []storage.StoredObligation{storedUtility(1, 10000, core.NewDate(2025, 5, 15))},
		paychecks: []storage.StoredPaycheck{{
			ID: 1,
			Paycheck: core.Paycheck{
				Anchor:     core.NewDate(2025, 5, 1),
				Amount:     core.Money{Cents: 200000},
				Recurrence: core.RecurrenceNone,
			},
		}},
	}
	svc := NewScheduleService(store)

	sched, err := svc.MonthSchedule(context.Background(), 2025, 5)
	if err != nil {
		t.Fatalf("MonthSchedule: %v", err)
	}
	if len(sched.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(sched.Entries))
	}
	if sched.Entries[0].Day != 1 || sched.Entries[1].Day != 15 {
		t.Errorf("entry order = %d, %d", sched.Entries[0].Day, sched.Entries[1].Day)
	}
	if sched.Totals.TotalDue.Cents != 10000 || sched.Totals.TotalIncome.Cents != 200000 {
		t.Errorf("totals = %+v", sched.Totals)
	}
}

func TestScheduleServiceRejectsBadMonth(t *testing.T) {
	svc := NewScheduleService(&fakeStore{})
	if _, err := svc.MonthSchedule(context.Background(), 2025, 13); !errors.Is(err, core.ErrInvalidDate) {
		t.Fatalf("err = %v, want ErrInvalidDate", err)
	}
}

func TestForecastServiceRunAndSave(t *testing.T) {
	store := &fakeStore{obligations: []storage.StoredObligation{
		storedCreditCard(1, 10000, 5000),
		storedUtility(2, 10000, core.NewDate(2025, 5, 15)), // not revolving, ignored
	}}
	svc := NewForecastService(store)

	forecast, err := svc.Run(context.Background(), core.Money{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !forecast.PayoffAchieved {
		t.Error("expected payoff achieved")
	}
	if store.savedForecast == nil || store.savedForecast.MonthsToPayoff != forecast.MonthsToPayoff {
		t.Errorf("snapshot = %+v, want %+v", store.savedForecast, forecast)
	}
}

func TestForecastServiceRejectsNegativeBudget(t *testing.T) {
	svc := NewForecastService(&fakeStore{})
	if _, err := svc.Run(context.Background(), core.Money{Cents: -1}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("err = %v, want ErrInvalidAmount", err)
	}
}

func TestReminderProcessorFindsTomorrowsEvents(t *testing.T) {
	// 2025-05-17 is a Saturday, so the monthly paycheck anchored on the
	// 17th is expected on Friday the 16th.
	store := &fakeStore{
		obligations: []storage.StoredObligation{storedUtility(1, 10000, core.NewDate(2025, 5, 16))},
		paychecks: []storage.StoredPaycheck{{
			ID: 1,
			Paycheck: core.Paycheck{
				Anchor:     core.NewDate(2025, 1, 17),
				Amount:     core.Money{Cents: 200000},
				Recurrence: core.RecurrenceMonthly,
			},
		}},
	}
	proc := NewReminderProcessor(store)

	now := time.Date(2025, 5, 15, 9, 0, 0, 0, time.UTC)
	count, err := proc.ProcessUpcoming(context.Background(), now)
	if err != nil {
		t.Fatalf("ProcessUpcoming: %v", err)
	}
	if count != 2 {
		t.Errorf("reminders = %d, want 2 (bill due + weekend-adjusted paycheck)", count)
	}
}

func TestReminderProcessorSkipsPaidBills(t *testing.T) {
	paid := storedUtility(1, 10000, core.NewDate(2025, 5, 16))
	paid.Payments = []core.PaymentRecord{{Year: 2025, Month: 5, Amount: core.Money{Cents: 10000}}}
	store := &fakeStore{obligations: []storage.StoredObligation{paid}}
	proc := NewReminderProcessor(store)

	now := time.Date(2025, 5, 15, 9, 0, 0, 0, time.UTC)
	count, err := proc.ProcessUpcoming(context.Background(), now)
	if err != nil {
		t.Fatalf("ProcessUpcoming: %v", err)
	}
	if count != 0 {
		t.Errorf("reminders = %d, want 0 for a settled bill", count)
	}
}
