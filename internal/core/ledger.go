package core

// MonthlyDue returns the amount owed each month: the minimum payment for
// revolving categories, the flat amount for utilities, zero otherwise.
func (o Obligation) MonthlyDue() Money {
	if o.Category.IsRevolving() {
		if o.Revolving == nil {
			return Money{}
		}
		return o.Revolving.MinPayment
	}
	if o.Category == CategoryUtility && o.Flat != nil {
		return o.Flat.Amount
	}
	return Money{}
}

// PaidInMonth sums the payments recorded for the exact year and month
// (1-12).
func (o Obligation) PaidInMonth(year, month int) Money {
	var total Money
	for _, r := range o.Payments {
		if r.Year == year && r.Month == month {
			total = total.Add(r.Amount)
		}
	}
	return total
}

// ApplyPayment appends a payment record for the given month and, for
// revolving obligations, reduces the balance with a floor at zero. This
// is the only mutation path for the balance. A non-positive amount
// returns ErrInvalidAmount and leaves the obligation untouched.
func (o *Obligation) ApplyPayment(amount Money, year, month int) error {
	if amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if month < 1 || month > 12 {
		return ErrInvalidDate
	}
	o.Payments = append(o.Payments, PaymentRecord{Year: year, Month: month, Amount: amount})
	if o.Category.IsRevolving() && o.Revolving != nil {
		o.Revolving.Balance = o.Revolving.Balance.Sub(amount)
	}
	return nil
}

// RemainingThisMonth is the unpaid part of the monthly due, floored at
// zero.
func (o Obligation) RemainingThisMonth(year, month int) Money {
	return o.MonthlyDue().Sub(o.PaidInMonth(year, month))
}

// IsPaid reports whether the month's due has been covered. An obligation
// with no monthly due is never "paid": having nothing owed is not the
// same as having settled.
func (o Obligation) IsPaid(year, month int) bool {
	due := o.MonthlyDue()
	return due.Cents > 0 && o.PaidInMonth(year, month).Cents >= due.Cents
}
