package core

import (
	"math"
	"sort"
)

// PayoffMonthCap bounds the simulation at 50 years so an insufficient
// budget terminates instead of looping forever.
const PayoffMonthCap = 600

// Balances at or below one cent count as paid off. The tolerance keeps
// rounding residue from holding an account open.
const payoffEpsilonCents = 1

// PayoffForecast is the outcome of a snowball run. PayoffAchieved false
// means the budget could not clear every balance within the month cap;
// that is a valid forecast, not an error.
type PayoffForecast struct {
	MonthsToPayoff    int
	TotalInterestPaid Money
	PayoffAchieved    bool
}

// RunSnowball simulates month-by-month amortization of the given
// revolving accounts under a fixed extra monthly budget, directing the
// whole extra budget at the smallest starting balance first. The input
// slice is copied; repeated what-if runs never touch the caller's
// accounts.
//
// Each month every open account accrues interest at APR/12, then pays
// its minimum; the first still-open account in sort order also receives
// the entire extra budget. Payments are clamped to the post-interest
// balance. The extra budget does not spill over to the next account
// within the same month.
func RunSnowball(accounts []RevolvingAccount, extraBudget Money) PayoffForecast {
	accts := make([]RevolvingAccount, len(accounts))
	copy(accts, accounts)

	sort.SliceStable(accts, func(i, j int) bool {
		return accts[i].Balance.Cents < accts[j].Balance.Cents
	})

	// Nothing owed (or no accounts at all): payoff is immediate.
	if allPaidOff(accts) {
		return PayoffForecast{PayoffAchieved: true}
	}

	var totalInterest int64
	for month := 1; month <= PayoffMonthCap; month++ {
		for i := range accts {
			if accts[i].Balance.Cents <= payoffEpsilonCents {
				continue
			}
			interest := monthlyInterestCents(accts[i].Balance.Cents, accts[i].APR)
			accts[i].Balance.Cents += interest
			totalInterest += interest
		}

		extraIdx := -1
		for i := range accts {
			if accts[i].Balance.Cents > payoffEpsilonCents {
				extraIdx = i
				break
			}
		}

		for i := range accts {
			if accts[i].Balance.Cents <= payoffEpsilonCents {
				continue
			}
			payment := accts[i].MinPayment.Cents
			if i == extraIdx {
				payment += extraBudget.Cents
			}
			if payment > accts[i].Balance.Cents {
				payment = accts[i].Balance.Cents
			}
			accts[i].Balance.Cents -= payment
		}

		if allPaidOff(accts) {
			return PayoffForecast{
				MonthsToPayoff:    month,
				TotalInterestPaid: Money{Cents: totalInterest},
				PayoffAchieved:    true,
			}
		}
	}

	return PayoffForecast{
		MonthsToPayoff:    PayoffMonthCap,
		TotalInterestPaid: Money{Cents: totalInterest},
		PayoffAchieved:    false,
	}
}

// ProjectRevolvingAccounts derives the simulator's view from the
// revolving obligations in the ledger. Paid-off accounts are skipped.
func ProjectRevolvingAccounts(obligations []Obligation) []RevolvingAccount {
	var accounts []RevolvingAccount
	for _, o := range obligations {
		if !o.Category.IsRevolving() || o.Revolving == nil {
			continue
		}
		if o.Revolving.Balance.Cents <= payoffEpsilonCents {
			continue
		}
		accounts = append(accounts, RevolvingAccount{
			Name:       o.Name,
			Balance:    o.Revolving.Balance,
			APR:        o.Revolving.APR,
			MinPayment: o.Revolving.MinPayment,
		})
	}
	return accounts
}

func monthlyInterestCents(balanceCents int64, apr float64) int64 {
	return int64(math.Round(float64(balanceCents) * apr / 100 / 12))
}

func allPaidOff(accts []RevolvingAccount) bool {
	for _, a := range accts {
		if a.Balance.Cents > payoffEpsilonCents {
			return false
		}
	}
	return true
}
