package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"billfold/internal/core"
	applog "billfold/internal/log"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

// StoredObligation pairs a domain obligation with its database identity.
type StoredObligation struct {
	ID int64
	core.Obligation
}

// StoredPaycheck pairs a domain paycheck with its database identity.
type StoredPaycheck struct {
	ID int64
	core.Paycheck
}

// StoredForecast is a persisted payoff forecast snapshot.
type StoredForecast struct {
	ID          int64
	ExtraBudget core.Money
	Forecast    core.PayoffForecast
	CreatedAt   time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Payments cascade-delete with their obligation.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateObligation inserts an obligation and returns its ID. The payment
// history of the value is ignored; new obligations start with none.
func (r *SQLiteRepository) CreateObligation(ctx context.Context, o core.Obligation) (int64, error) {
	var amount, balance, minPayment, creditLimit sql.NullInt64
	var apr sql.NullFloat64
	if o.Flat != nil {
		amount = sql.NullInt64{Int64: o.Flat.Amount.Cents, Valid: true}
	}
	if o.Revolving != nil {
		balance = sql.NullInt64{Int64: o.Revolving.Balance.Cents, Valid: true}
		minPayment = sql.NullInt64{Int64: o.Revolving.MinPayment.Cents, Valid: true}
		creditLimit = sql.NullInt64{Int64: o.Revolving.CreditLimit.Cents, Valid: true}
		apr = sql.NullFloat64{Float64: o.Revolving.APR, Valid: true}
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO obligations (name, category, due_date, amount_cents, balance_cents, min_payment_cents, credit_limit_cents, apr)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		o.Name, string(o.Category), o.DueDate.String(), amount, balance, minPayment, creditLimit, apr)
	if err != nil {
		return 0, fmt.Errorf("insert obligation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("obligation id: %w", err)
	}

	slog.InfoContext(ctx, "Obligation saved",
		applog.FieldComponent, applog.ComponentStorage,
		"id", id,
		"name", o.Name,
		"category", o.Category,
		"due_date", o.DueDate.String())

	return id, nil
}

// GetObligation loads one obligation together with its payment history.
func (r *SQLiteRepository) GetObligation(ctx context.Context, id int64) (StoredObligation, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, category, due_date, amount_cents, balance_cents, min_payment_cents, credit_limit_cents, apr
		FROM obligations WHERE id = ?`, id)

	stored, err := scanObligation(row)
	if err != nil {
		return StoredObligation{}, fmt.Errorf("get obligation %d: %w", id, err)
	}

	payments, err := r.paymentsFor(ctx, id)
	if err != nil {
		return StoredObligation{}, err
	}
	stored.Payments = payments
	return stored, nil
}

// ListObligations returns every obligation with its payment history.
func (r *SQLiteRepository) ListObligations(ctx context.Context) ([]StoredObligation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, category, due_date, amount_cents, balance_cents, min_payment_cents, credit_limit_cents, apr
		FROM obligations ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list obligations: %w", err)
	}
	defer rows.Close()

	var result []StoredObligation
	for rows.Next() {
		stored, err := scanObligation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan obligation: %w", err)
		}
		result = append(result, stored)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate obligations: %w", err)
	}

	for i := range result {
		payments, err := r.paymentsFor(ctx, result[i].ID)
		if err != nil {
			return nil, err
		}
		result[i].Payments = payments
	}
	return result, nil
}

// DeleteObligation removes an obligation; its payments cascade.
func (r *SQLiteRepository) DeleteObligation(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM obligations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete obligation %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete obligation %d: %w", id, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	slog.InfoContext(ctx, "Obligation deleted",
		applog.FieldComponent, applog.ComponentStorage,
		"id", id)
	return nil
}

// AddPayment records a payment and, for revolving obligations, stores
// the already-reduced balance in the same transaction. A failed insert
// leaves the balance untouched.
func (r *SQLiteRepository) AddPayment(ctx context.Context, obligationID int64, rec core.PaymentRecord, newBalance *core.Money) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin payment tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO payments (obligation_id, year, month, amount_cents)
		VALUES (?, ?, ?, ?)`,
		obligationID, rec.Year, rec.Month, rec.Amount.Cents)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}

	if newBalance != nil {
		_, err = tx.ExecContext(ctx, `
			UPDATE obligations SET balance_cents = ? WHERE id = ?`,
			newBalance.Cents, obligationID)
		if err != nil {
			return fmt.Errorf("update balance: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit payment tx: %w", err)
	}

	slog.InfoContext(ctx, "Payment recorded",
		applog.FieldComponent, applog.ComponentStorage,
		applog.FieldObligationID, obligationID,
		applog.FieldYear, rec.Year,
		applog.FieldMonth, rec.Month,
		applog.FieldAmountCents, rec.Amount.Cents)

	return nil
}

// CreatePaycheck inserts a paycheck and returns its ID.
func (r *SQLiteRepository) CreatePaycheck(ctx context.Context, p core.Paycheck) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO paychecks (anchor_date, amount_cents, recurrence, custom_days)
		VALUES (?, ?, ?, ?)`,
		p.Anchor.String(), p.Amount.Cents, string(p.Recurrence), joinDays(p.CustomDays))
	if err != nil {
		return 0, fmt.Errorf("insert paycheck: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("paycheck id: %w", err)
	}

	slog.InfoContext(ctx, "Paycheck saved",
		applog.FieldComponent, applog.ComponentStorage,
		"id", id,
		"anchor", p.Anchor.String(),
		"amount_cents", p.Amount.Cents,
		"recurrence", p.Recurrence)

	return id, nil
}

// ListPaychecks returns every paycheck definition.
func (r *SQLiteRepository) ListPaychecks(ctx context.Context) ([]StoredPaycheck, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, anchor_date, amount_cents, recurrence, custom_days
		FROM paychecks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list paychecks: %w", err)
	}
	defer rows.Close()

	var result []StoredPaycheck
	for rows.Next() {
		var (
			id         int64
			anchor     string
			cents      int64
			recurrence string
			customDays string
		)
		if err := rows.Scan(&id, &anchor, &cents, &recurrence, &customDays); err != nil {
			return nil, fmt.Errorf("scan paycheck: %w", err)
		}
		date, err := core.ParseDate(anchor)
		if err != nil {
			return nil, fmt.Errorf("paycheck %d anchor %q: %w", id, anchor, err)
		}
		result = append(result, StoredPaycheck{
			ID: id,
			Paycheck: core.Paycheck{
				Anchor:     date,
				Amount:     core.Money{Cents: cents},
				Recurrence: core.RecurrenceKind(recurrence),
				CustomDays: splitDays(customDays),
			},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate paychecks: %w", err)
	}
	return result, nil
}

// DeletePaycheck removes a paycheck definition.
func (r *SQLiteRepository) DeletePaycheck(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM paychecks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete paycheck %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete paycheck %d: %w", id, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	slog.InfoContext(ctx, "Paycheck deleted",
		applog.FieldComponent, applog.ComponentStorage,
		"id", id)
	return nil
}

// SaveForecast stores a payoff forecast snapshot.
func (r *SQLiteRepository) SaveForecast(ctx context.Context, extraBudget core.Money, f core.PayoffForecast) error {
	achieved := 0
	if f.PayoffAchieved {
		achieved = 1
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO forecasts (extra_budget_cents, months_to_payoff, total_interest_cents, payoff_achieved)
		VALUES (?, ?, ?, ?)`,
		extraBudget.Cents, f.MonthsToPayoff, f.TotalInterestPaid.Cents, achieved)
	if err != nil {
		return fmt.Errorf("insert forecast: %w", err)
	}

	slog.InfoContext(ctx, "Forecast saved",
		applog.FieldComponent, applog.ComponentStorage,
		applog.FieldMonths, f.MonthsToPayoff,
		"total_interest_cents", f.TotalInterestPaid.Cents,
		applog.FieldAchieved, f.PayoffAchieved)

	return nil
}

// LatestForecast returns the newest stored forecast, or sql.ErrNoRows
// when none exists yet.
func (r *SQLiteRepository) LatestForecast(ctx context.Context) (StoredForecast, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, extra_budget_cents, months_to_payoff, total_interest_cents, payoff_achieved, created_at
		FROM forecasts ORDER BY id DESC LIMIT 1`)

	var (
		f        StoredForecast
		achieved int
	)
	err := row.Scan(&f.ID, &f.ExtraBudget.Cents, &f.Forecast.MonthsToPayoff, &f.Forecast.TotalInterestPaid.Cents, &achieved, &f.CreatedAt)
	if err != nil {
		return StoredForecast{}, fmt.Errorf("latest forecast: %w", err)
	}
	f.Forecast.PayoffAchieved = achieved != 0
	return f, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanObligation(row rowScanner) (StoredObligation, error) {
	var (
		stored                               StoredObligation
		category, dueDate                    string
		amount, balance, minPay, creditLimit sql.NullInt64
		apr                                  sql.NullFloat64
	)
	err := row.Scan(&stored.ID, &stored.Name, &category, &dueDate, &amount, &balance, &minPay, &creditLimit, &apr)
	if err != nil {
		return StoredObligation{}, err
	}

	stored.Category = core.Category(category)
	date, err := core.ParseDate(dueDate)
	if err != nil {
		return StoredObligation{}, fmt.Errorf("due date %q: %w", dueDate, err)
	}
	stored.DueDate = date

	if stored.Category.IsRevolving() {
		stored.Revolving = &core.RevolvingTerms{
			Balance:     core.Money{Cents: balance.Int64},
			MinPayment:  core.Money{Cents: minPay.Int64},
			CreditLimit: core.Money{Cents: creditLimit.Int64},
			APR:         apr.Float64,
		}
	} else if amount.Valid {
		stored.Flat = &core.FlatTerms{Amount: core.Money{Cents: amount.Int64}}
	}
	return stored, nil
}

func (r *SQLiteRepository) paymentsFor(ctx context.Context, obligationID int64) ([]core.PaymentRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT year, month, amount_cents FROM payments
		WHERE obligation_id = ? ORDER BY id`, obligationID)
	if err != nil {
		return nil, fmt.Errorf("list payments for %d: %w", obligationID, err)
	}
	defer rows.Close()

	var records []core.PaymentRecord
	for rows.Next() {
		var rec core.PaymentRecord
		if err := rows.Scan(&rec.Year, &rec.Month, &rec.Amount.Cents); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payments: %w", err)
	}
	return records, nil
}

func joinDays(days []int) string {
	if len(days) == 0 {
		return ""
	}
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ",")
}

func splitDays(s string) []int {
	if s == "" {
		return nil
	}
	var days []int
	for _, part := range strings.Split(s, ",") {
		if d, err := strconv.Atoi(strings.TrimSpace(part)); err == nil {
			days = append(days, d)
		}
	}
	return days
}
