package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	CategoryLoan       Category = "loan"
	CategoryCreditCard Category = "credit_card"
	CategoryUtility    Category = "utility"
	CategoryOther      Category = "other"
)

const (
	RecurrenceNone     RecurrenceKind = "none"
	RecurrenceWeekly   RecurrenceKind = "weekly"
	RecurrenceBiweekly RecurrenceKind = "biweekly"
	RecurrenceMonthly  RecurrenceKind = "monthly"
	RecurrenceCustom   RecurrenceKind = "custom"
)

type (
	Category string

	RecurrenceKind string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// PaymentRecord is one payment against an obligation. Records are
	// append-only: once written they are never edited or removed except
	// by deleting the whole obligation. Month is 1-12.
	PaymentRecord struct {
		Year   int
		Month  int
		Amount Money
	}

	// FlatTerms carries the fields of a fixed-amount obligation
	// (utilities and the like).
	FlatTerms struct {
		Amount Money
	}

	// RevolvingTerms carries the fields of an interest-bearing obligation
	// (loans, credit cards). Balance never goes negative; ApplyPayment is
	// the only mutation path.
	RevolvingTerms struct {
		Balance     Money
		MinPayment  Money
		CreditLimit Money
		APR         float64
	}

	// Obligation is a bill. Exactly one of Flat/Revolving is set,
	// matching the category: Flat for utility/other, Revolving for
	// loan/credit_card.
	Obligation struct {
		Name      string
		Category  Category
		DueDate   Date
		Flat      *FlatTerms
		Revolving *RevolvingTerms
		Payments  []PaymentRecord
	}

	// Paycheck is an income event anchored on a calendar date.
	// RecurrenceNone means it occurs only on the anchor date.
	// CustomDays is meaningful only for RecurrenceCustom.
	Paycheck struct {
		Anchor     Date
		Amount     Money
		Recurrence RecurrenceKind
		CustomDays []int
	}

	// RevolvingAccount is the simulator's projection of a revolving
	// obligation. It is recomputed per run and never persisted.
	RevolvingAccount struct {
		Name       string
		Balance    Money
		APR        float64
		MinPayment Money
	}
)

var (
	ErrInvalidDate       = errors.New("invalid date")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidObligation = errors.New("invalid obligation")
	ErrEmptyName         = errors.New("empty name")
)

// IsRevolving reports whether the category carries an interest-bearing balance.
func (c Category) IsRevolving() bool {
	return c == CategoryLoan || c == CategoryCreditCard
}

func (c Category) Valid() bool {
	switch c {
	case CategoryLoan, CategoryCreditCard, CategoryUtility, CategoryOther:
		return true
	}
	return false
}

func (k RecurrenceKind) Valid() bool {
	switch k {
	case RecurrenceNone, RecurrenceWeekly, RecurrenceBiweekly, RecurrenceMonthly, RecurrenceCustom:
		return true
	}
	return false
}

func (o Obligation) Validate() error {
	if len(strings.TrimSpace(o.Name)) == 0 {
		return ErrEmptyName
	}
	if len(o.Name) > 200 {
		return fmt.Errorf("%w: name too long (max 200 characters)", ErrInvalidObligation)
	}
	if !o.Category.Valid() {
		return ErrInvalidObligation
	}
	if err := o.DueDate.Validate(); err != nil {
		return err
	}
	if o.Category.IsRevolving() {
		if o.Revolving == nil || o.Flat != nil {
			return ErrInvalidObligation
		}
		if o.Revolving.Balance.Cents < 0 || o.Revolving.MinPayment.Cents < 0 {
			return ErrInvalidObligation
		}
		if o.Revolving.APR < 0 {
			return ErrInvalidObligation
		}
		return nil
	}
	if o.Revolving != nil {
		return ErrInvalidObligation
	}
	if o.Category == CategoryUtility {
		if o.Flat == nil || o.Flat.Amount.Cents < 0 {
			return ErrInvalidObligation
		}
	}
	return nil
}

func (p Paycheck) Validate() error {
	if err := p.Anchor.Validate(); err != nil {
		return err
	}
	if p.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if !p.Recurrence.Valid() {
		return fmt.Errorf("%w: unknown recurrence kind %q", ErrInvalidDate, p.Recurrence)
	}
	for _, d := range p.CustomDays {
		if d < 1 || d > 31 {
			return fmt.Errorf("%w: custom day %d out of range", ErrInvalidDate, d)
		}
	}
	return nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}
