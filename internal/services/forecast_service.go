package services

import (
	"context"
	"fmt"
	"log/slog"

	"billfold/internal/core"
	applog "billfold/internal/log"
	"billfold/internal/storage"
)

// ForecastStore is the slice of the repository the forecast service
// needs.
type ForecastStore interface {
	ListObligations(ctx context.Context) ([]storage.StoredObligation, error)
	SaveForecast(ctx context.Context, extraBudget core.Money, f core.PayoffForecast) error
}

// ForecastService projects revolving accounts from the ledger and runs
// the snowball simulation against them.
type ForecastService struct {
	store ForecastStore
}

func NewForecastService(store ForecastStore) *ForecastService {
	return &ForecastService{store: store}
}

// Run simulates payoff of the current revolving balances under the
// given extra monthly budget and stores the resulting snapshot. The
// simulation works on a projection; the ledger itself is never touched.
func (s *ForecastService) Run(ctx context.Context, extraBudget core.Money) (core.PayoffForecast, error) {
	if extraBudget.Cents < 0 {
		return core.PayoffForecast{}, core.ErrInvalidAmount
	}

	stored, err := s.store.ListObligations(ctx)
	if err != nil {
		return core.PayoffForecast{}, fmt.Errorf("list obligations: %w", err)
	}

	obligations := make([]core.Obligation, len(stored))
	for i, o := range stored {
		obligations[i] = o.Obligation
	}

	accounts := core.ProjectRevolvingAccounts(obligations)
	forecast := core.RunSnowball(accounts, extraBudget)

	// The forecast is already computed; a failed snapshot write is
	// logged, not surfaced.
	if err := s.store.SaveForecast(ctx, extraBudget, forecast); err != nil {
		slog.ErrorContext(ctx, "Failed to save forecast snapshot",
			applog.FieldComponent, applog.ComponentForecast,
			applog.FieldError, err)
	}

	slog.InfoContext(ctx, "Payoff forecast computed",
		applog.FieldComponent, applog.ComponentForecast,
		"accounts", len(accounts),
		"extra_budget_cents", extraBudget.Cents,
		applog.FieldMonths, forecast.MonthsToPayoff,
		"total_interest_cents", forecast.TotalInterestPaid.Cents,
		applog.FieldAchieved, forecast.PayoffAchieved)

	return forecast, nil
}
