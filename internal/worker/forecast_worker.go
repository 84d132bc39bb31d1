package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"billfold/internal/amqp"
	"billfold/internal/core"
	applog "billfold/internal/log"
	"billfold/internal/services"
)

// ForecastWorker keeps the stored payoff forecast in step with the
// ledger. It reacts to payment events from AMQP and also refreshes on a
// fixed interval as a backup in case messages are lost.
type ForecastWorker struct {
	forecasts   *services.ForecastService
	extraBudget core.Money
}

func NewForecastWorker(forecasts *services.ForecastService, extraBudget core.Money) *ForecastWorker {
	return &ForecastWorker{
		forecasts:   forecasts,
		extraBudget: extraBudget,
	}
}

// HandlePaymentApplied recomputes the forecast after a payment changed
// a balance.
func (w *ForecastWorker) HandlePaymentApplied(ctx context.Context, msg *amqp.PaymentAppliedMessage) error {
	slog.InfoContext(ctx, "Processing payment event",
		applog.FieldComponent, applog.ComponentWorker,
		applog.FieldObligationID, msg.ObligationID,
		applog.FieldAmountCents, msg.AmountCents,
		applog.FieldYear, msg.Year,
		applog.FieldMonth, msg.Month)

	if _, err := w.forecasts.Run(ctx, w.extraBudget); err != nil {
		return fmt.Errorf("refresh forecast after payment: %w", err)
	}
	return nil
}

// StartupRefresh computes a fresh forecast at worker startup so the
// snapshot never reflects a ledger the worker missed while down.
func (w *ForecastWorker) StartupRefresh(ctx context.Context) error {
	if _, err := w.forecasts.Run(ctx, w.extraBudget); err != nil {
		return fmt.Errorf("startup forecast refresh: %w", err)
	}
	slog.InfoContext(ctx, "Startup forecast refresh completed",
		applog.FieldComponent, applog.ComponentWorker)
	return nil
}

// RunPeriodicRefresh recomputes the forecast on every tick until the
// context is cancelled. Failures are logged and the loop keeps going.
func (w *ForecastWorker) RunPeriodicRefresh(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "Starting periodic forecast refresh",
		applog.FieldComponent, applog.ComponentWorker,
		"interval", interval.String())

	for {
		select {
		case <-ticker.C:
			if _, err := w.forecasts.Run(ctx, w.extraBudget); err != nil {
				slog.ErrorContext(ctx, "Periodic forecast refresh failed",
					applog.FieldComponent, applog.ComponentWorker,
					applog.FieldError, err)
			}
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping periodic forecast refresh",
				applog.FieldComponent, applog.ComponentWorker)
			return ctx.Err()
		}
	}
}
