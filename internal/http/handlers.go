package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"billfold/internal/core"
	"billfold/internal/services"
	"billfold/internal/storage"
)

type obligationRequest struct {
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	DueDate     string  `json:"due_date"`
	Amount      string  `json:"amount,omitempty"`
	Balance     string  `json:"balance,omitempty"`
	MinPayment  string  `json:"min_payment,omitempty"`
	CreditLimit string  `json:"credit_limit,omitempty"`
	APR         float64 `json:"apr,omitempty"`
}

type paymentJSON struct {
	Year        int   `json:"year"`
	Month       int   `json:"month"`
	AmountCents int64 `json:"amount_cents"`
}

type obligationResponse struct {
	ID               int64         `json:"id"`
	Name             string        `json:"name"`
	Category         string        `json:"category"`
	DueDate          string        `json:"due_date"`
	AmountCents      *int64        `json:"amount_cents,omitempty"`
	BalanceCents     *int64        `json:"balance_cents,omitempty"`
	MinPaymentCents  *int64        `json:"min_payment_cents,omitempty"`
	CreditLimitCents *int64        `json:"credit_limit_cents,omitempty"`
	APR              *float64      `json:"apr,omitempty"`
	MonthlyDueCents  int64         `json:"monthly_due_cents"`
	PaidThisMonth    bool          `json:"paid_this_month"`
	Payments         []paymentJSON `json:"payments"`
}

func toObligationResponse(stored storage.StoredObligation) obligationResponse {
	now := time.Now()
	resp := obligationResponse{
		ID:              stored.ID,
		Name:            stored.Name,
		Category:        string(stored.Category),
		DueDate:         stored.DueDate.String(),
		MonthlyDueCents: stored.MonthlyDue().Cents,
		PaidThisMonth:   stored.IsPaid(now.Year(), int(now.Month())),
		Payments:        make([]paymentJSON, 0, len(stored.Payments)),
	}
	if stored.Flat != nil {
		resp.AmountCents = &stored.Flat.Amount.Cents
	}
	if stored.Revolving != nil {
		resp.BalanceCents = &stored.Revolving.Balance.Cents
		resp.MinPaymentCents = &stored.Revolving.MinPayment.Cents
		resp.CreditLimitCents = &stored.Revolving.CreditLimit.Cents
		resp.APR = &stored.Revolving.APR
	}
	for _, rec := range stored.Payments {
		resp.Payments = append(resp.Payments, paymentJSON{
			Year:        rec.Year,
			Month:       rec.Month,
			AmountCents: rec.Amount.Cents,
		})
	}
	return resp
}

func (s *Server) handleCreateObligation(w http.ResponseWriter, r *http.Request) {
	var req obligationRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	dueDate, err := core.ParseDate(strings.TrimSpace(req.DueDate))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	o := core.Obligation{
		Name:     strings.TrimSpace(req.Name),
		Category: core.Category(strings.TrimSpace(req.Category)),
		DueDate:  dueDate,
	}

	if o.Category.IsRevolving() {
		balance, err := parseAmount(req.Balance)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		minPayment, err := parseAmount(req.MinPayment)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		terms := core.RevolvingTerms{
			Balance:    balance,
			MinPayment: minPayment,
			APR:        req.APR,
		}
		if req.CreditLimit != "" {
			limit, err := parseAmount(req.CreditLimit)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			terms.CreditLimit = limit
		}
		o.Revolving = &terms
	} else if req.Amount != "" {
		amount, err := parseAmount(req.Amount)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		o.Flat = &core.FlatTerms{Amount: amount}
	}

	if err := o.Validate(); err != nil {
		writeDomainError(w, err)
		return
	}

	id, err := s.store.CreateObligation(r.Context(), o)
	if err != nil {
		slog.ErrorContext(r.Context(), "Create obligation failed", "error", err)
		writeDomainError(w, err)
		return
	}

	s.invalidateCaches()
	writeJSON(w, http.StatusCreated, toObligationResponse(storage.StoredObligation{ID: id, Obligation: o}))
}

func (s *Server) handleListObligations(w http.ResponseWriter, r *http.Request) {
	stored, err := s.store.ListObligations(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List obligations failed", "error", err)
		writeDomainError(w, err)
		return
	}

	resp := make([]obligationResponse, 0, len(stored))
	for _, o := range stored {
		resp = append(resp, toObligationResponse(o))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetObligation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	stored, err := s.store.GetObligation(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toObligationResponse(stored))
}

func (s *Server) handleDeleteObligation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.DeleteObligation(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}

	s.invalidateCaches()
	w.WriteHeader(http.StatusNoContent)
}

type paymentRequest struct {
	ObligationID int64  `json:"obligation_id"`
	Amount       string `json:"amount"`
	Year         int    `json:"year"`
	Month        int    `json:"month"`
}

func (s *Server) handleApplyPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ObligationID <= 0 {
		writeError(w, http.StatusBadRequest, "obligation_id is required")
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	year, month := req.Year, req.Month
	if year == 0 && month == 0 {
		now := time.Now()
		year, month = now.Year(), int(now.Month())
	}

	stored, err := s.ledger.ApplyPayment(r.Context(), req.ObligationID, amount, year, month)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.invalidateCaches()
	writeJSON(w, http.StatusOK, toObligationResponse(stored))
}

type paycheckRequest struct {
	AnchorDate string `json:"anchor_date"`
	Amount     string `json:"amount"`
	Recurrence string `json:"recurrence"`
	CustomDays []int  `json:"custom_days,omitempty"`
}

type paycheckResponse struct {
	ID          int64  `json:"id"`
	AnchorDate  string `json:"anchor_date"`
	AmountCents int64  `json:"amount_cents"`
	Recurrence  string `json:"recurrence"`
	CustomDays  []int  `json:"custom_days,omitempty"`
}

func toPaycheckResponse(stored storage.StoredPaycheck) paycheckResponse {
	return paycheckResponse{
		ID:          stored.ID,
		AnchorDate:  stored.Anchor.String(),
		AmountCents: stored.Amount.Cents,
		Recurrence:  string(stored.Recurrence),
		CustomDays:  stored.CustomDays,
	}
}

func (s *Server) handleCreatePaycheck(w http.ResponseWriter, r *http.Request) {
	var req paycheckRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	anchor, err := core.ParseDate(strings.TrimSpace(req.AnchorDate))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	p := core.Paycheck{
		Anchor:     anchor,
		Amount:     amount,
		Recurrence: core.RecurrenceKind(strings.TrimSpace(req.Recurrence)),
		CustomDays: req.CustomDays,
	}
	if err := p.Validate(); err != nil {
		writeDomainError(w, err)
		return
	}

	id, err := s.store.CreatePaycheck(r.Context(), p)
	if err != nil {
		slog.ErrorContext(r.Context(), "Create paycheck failed", "error", err)
		writeDomainError(w, err)
		return
	}

	s.invalidateCaches()
	writeJSON(w, http.StatusCreated, toPaycheckResponse(storage.StoredPaycheck{ID: id, Paycheck: p}))
}

func (s *Server) handleListPaychecks(w http.ResponseWriter, r *http.Request) {
	stored, err := s.store.ListPaychecks(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List paychecks failed", "error", err)
		writeDomainError(w, err)
		return
	}

	resp := make([]paycheckResponse, 0, len(stored))
	for _, p := range stored {
		resp = append(resp, toPaycheckResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeletePaycheck(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.DeletePaycheck(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}

	s.invalidateCaches()
	w.WriteHeader(http.StatusNoContent)
}

type scheduleEntryJSON struct {
	Kind            string `json:"kind"`
	Name            string `json:"name"`
	Day             int    `json:"day"`
	AmountCents     int64  `json:"amount_cents"`
	RunningNetCents int64  `json:"running_net_cents"`
}

type scheduleResponse struct {
	Year             int                 `json:"year"`
	Month            int                 `json:"month"`
	Entries          []scheduleEntryJSON `json:"entries"`
	TotalDueCents    int64               `json:"total_due_cents"`
	TotalIncomeCents int64               `json:"total_income_cents"`
	TotalPaidCents   int64               `json:"total_paid_cents"`
}

func toScheduleResponse(sched services.MonthSchedule) scheduleResponse {
	resp := scheduleResponse{
		Year:             sched.Year,
		Month:            sched.Month,
		Entries:          make([]scheduleEntryJSON, 0, len(sched.Entries)),
		TotalDueCents:    sched.Totals.TotalDue.Cents,
		TotalIncomeCents: sched.Totals.TotalIncome.Cents,
		TotalPaidCents:   sched.Totals.TotalPaid.Cents,
	}
	for _, e := range sched.Entries {
		kind := "obligation"
		if e.Kind == core.EntryIncome {
			kind = "income"
		}
		resp.Entries = append(resp.Entries, scheduleEntryJSON{
			Kind:            kind,
			Name:            e.Name,
			Day:             e.Day,
			AmountCents:     e.Amount.Cents,
			RunningNetCents: e.RunningNet,
		})
	}
	return resp
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r)
	key := strconv.Itoa(year) + "-" + strconv.Itoa(month)

	if sched, found := s.scheduleCache.Get(key); found {
		slog.DebugContext(r.Context(), "Schedule cache hit", "year", year, "month", month)
		writeJSON(w, http.StatusOK, toScheduleResponse(sched))
		return
	}

	sched, err := s.scheduler.MonthSchedule(r.Context(), year, month)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.scheduleCache.Set(key, sched)
	writeJSON(w, http.StatusOK, toScheduleResponse(sched))
}

type forecastResponse struct {
	ExtraBudgetCents   int64 `json:"extra_budget_cents"`
	MonthsToPayoff     int   `json:"months_to_payoff"`
	TotalInterestCents int64 `json:"total_interest_cents"`
	PayoffAchieved     bool  `json:"payoff_achieved"`
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	extra := core.Money{}
	if v := strings.TrimSpace(r.URL.Query().Get("extra")); v != "" {
		parsed, err := parseAmount(v)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		extra = parsed
	}

	key := strconv.FormatInt(extra.Cents, 10)
	if forecast, found := s.forecastCache.Get(key); found {
		slog.DebugContext(r.Context(), "Forecast cache hit", "extra_budget_cents", extra.Cents)
		writeForecast(w, extra, forecast)
		return
	}

	forecast, err := s.forecasts.Run(r.Context(), extra)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.forecastCache.Set(key, forecast)
	writeForecast(w, extra, forecast)
}

func writeForecast(w http.ResponseWriter, extra core.Money, f core.PayoffForecast) {
	writeJSON(w, http.StatusOK, forecastResponse{
		ExtraBudgetCents:   extra.Cents,
		MonthsToPayoff:     f.MonthsToPayoff,
		TotalInterestCents: f.TotalInterestPaid.Cents,
		PayoffAchieved:     f.PayoffAchieved,
	})
}

type exportRequest struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if s.exporter == nil {
		writeError(w, http.StatusServiceUnavailable, "export is not configured")
		return
	}

	var req exportRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sched, err := s.scheduler.MonthSchedule(r.Context(), req.Year, req.Month)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if err := s.exporter.ExportMonth(r.Context(), req.Year, req.Month, sched.Entries, sched.Totals); err != nil {
		slog.ErrorContext(r.Context(), "Export failed",
			"year", req.Year,
			"month", req.Month,
			"error", err)
		writeError(w, http.StatusBadGateway, "export failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"year":    req.Year,
		"month":   req.Month,
		"entries": len(sched.Entries),
	})
}

// parseAmount converts a decimal amount string into Money.
func parseAmount(s string) (core.Money, error) {
	cents, err := core.ParseDecimalToCents(strings.TrimSpace(s))
	if err != nil {
		return core.Money{}, err
	}
	return core.Money{Cents: cents}, nil
}
