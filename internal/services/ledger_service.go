// Package services orchestrates the billfold domain across storage,
// messaging, and export. Domain rules live in internal/core; this layer
// loads records, applies them, and persists the outcome.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"billfold/internal/amqp"
	"billfold/internal/core"
	applog "billfold/internal/log"
	"billfold/internal/storage"
)

// LedgerStore is the slice of the repository the ledger needs.
type LedgerStore interface {
	GetObligation(ctx context.Context, id int64) (storage.StoredObligation, error)
	AddPayment(ctx context.Context, obligationID int64, rec core.PaymentRecord, newBalance *core.Money) error
}

// PaymentPublisher announces recorded payments to interested workers.
type PaymentPublisher interface {
	PublishPaymentApplied(ctx context.Context, msg *amqp.PaymentAppliedMessage) error
}

// LedgerService applies payments to obligations. The publisher is
// optional; without one the service is synchronous-only.
type LedgerService struct {
	store     LedgerStore
	publisher PaymentPublisher
}

func NewLedgerService(store LedgerStore, publisher PaymentPublisher) *LedgerService {
	return &LedgerService{store: store, publisher: publisher}
}

// ApplyPayment validates and records a payment, reducing the balance of
// revolving obligations, and publishes a payment event. Validation
// failures leave both the obligation and the database untouched.
func (s *LedgerService) ApplyPayment(ctx context.Context, obligationID int64, amount core.Money, year, month int) (storage.StoredObligation, error) {
	stored, err := s.store.GetObligation(ctx, obligationID)
	if err != nil {
		return storage.StoredObligation{}, fmt.Errorf("load obligation: %w", err)
	}

	if err := stored.Obligation.ApplyPayment(amount, year, month); err != nil {
		return storage.StoredObligation{}, err
	}

	var newBalance *core.Money
	if stored.Category.IsRevolving() && stored.Revolving != nil {
		b := stored.Revolving.Balance
		newBalance = &b
	}

	rec := core.PaymentRecord{Year: year, Month: month, Amount: amount}
	if err := s.store.AddPayment(ctx, obligationID, rec, newBalance); err != nil {
		return storage.StoredObligation{}, fmt.Errorf("record payment: %w", err)
	}

	// The payment is durable at this point; a publish failure only
	// delays the forecast refresh.
	if s.publisher != nil {
		msg := amqp.NewPaymentAppliedMessage(obligationID, amount.Cents, year, month)
		if err := s.publisher.PublishPaymentApplied(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "Failed to publish payment event",
				applog.FieldComponent, applog.ComponentLedger,
				applog.FieldObligationID, obligationID,
				applog.FieldError, err)
		}
	}

	slog.InfoContext(ctx, "Payment applied",
		applog.FieldComponent, applog.ComponentLedger,
		applog.FieldObligationID, obligationID,
		applog.FieldObligation, stored.Name,
		applog.FieldAmountCents, amount.Cents,
		applog.FieldYear, year,
		applog.FieldMonth, month)

	return stored, nil
}
