package http

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"billfold/internal/core"
	"billfold/internal/services"
	"billfold/internal/storage"
)

type fakeStore struct {
	obligations map[int64]storage.StoredObligation
	paychecks   map[int64]storage.StoredPaycheck
	nextID      int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		obligations: make(map[int64]storage.StoredObligation),
		paychecks:   make(map[int64]storage.StoredPaycheck),
		nextID:      1,
	}
}

func (f *fakeStore) CreateObligation(_ context.Context, o core.Obligation) (int64, error) {
	id := f.nextID
	f.nextID++
	f.obligations[id] = storage.StoredObligation{ID: id, Obligation: o}
	return id, nil
}

func (f *fakeStore) GetObligation(_ context.Context, id int64) (storage.StoredObligation, error) {
	o, ok := f.obligations[id]
	if !ok {
		return storage.StoredObligation{}, sql.ErrNoRows
	}
	return o, nil
}

func (f *fakeStore) ListObligations(_ context.Context) ([]storage.StoredObligation, error) {
	var result []storage.StoredObligation
	for _, o := range f.obligations {
		result = append(result, o)
	}
	return result, nil
}

func (f *fakeStore) DeleteObligation(_ context.Context, id int64) error {
	if _, ok := f.obligations[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.obligations, id)
	return nil
}

func (f *fakeStore) CreatePaycheck(_ context.Context, p core.Paycheck) (int64, error) {
	id := f.nextID
	f.nextID++
	f.paychecks[id] = storage.StoredPaycheck{ID: id, Paycheck: p}
	return id, nil
}

func (f *fakeStore) ListPaychecks(_ context.Context) ([]storage.StoredPaycheck, error) {
	var result []storage.StoredPaycheck
	for _, p := range f.paychecks {
		result = append(result, p)
	}
	return result, nil
}

func (f *fakeStore) DeletePaycheck(_ context.Context, id int64) error {
	if _, ok := f.paychecks[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.paychecks, id)
	return nil
}

type fakeLedger struct {
	store *fakeStore
}

func (l *fakeLedger) ApplyPayment(ctx context.Context, id int64, amount core.Money, year, month int) (storage.StoredObligation, error) {
	stored, err := l.store.GetObligation(ctx, id)
	if err != nil {
		return storage.StoredObligation{}, err
	}
	if err := stored.Obligation.ApplyPayment(amount, year, month); err != nil {
		return storage.StoredObligation{}, err
	}
	l.store.obligations[id] = stored
	return stored, nil
}

type fakeScheduler struct {
	store *fakeStore
	calls int
}

func (s *fakeScheduler) MonthSchedule(_ context.Context, year, month int) (services.MonthSchedule, error) {
	s.calls++
	if month < 1 || month > 12 {
		return services.MonthSchedule{}, core.ErrInvalidDate
	}
	var obligations []core.Obligation
	for _, o := range s.store.obligations {
		obligations = append(obligations, o.Obligation)
	}
	var paychecks []core.Paycheck
	for _, p := range s.store.paychecks {
		paychecks = append(paychecks, p.Paycheck)
	}
	entries := core.MergeForMonth(year, month, obligations, paychecks)
	return services.MonthSchedule{
		Year:    year,
		Month:   month,
		Entries: entries,
		Totals:  core.Totals(year, month, obligations, entries),
	}, nil
}

type fakeForecaster struct {
	calls    int
	forecast core.PayoffForecast
}

func (f *fakeForecaster) Run(_ context.Context, extra core.Money) (core.PayoffForecast, error) {
	if extra.Cents < 0 {
		return core.PayoffForecast{}, core.ErrInvalidAmount
	}
	f.calls++
	return f.forecast, nil
}

func newTestServer(t *testing.T) (*Server, *fakeStore, *fakeForecaster) {
	t.Helper()
	store := newFakeStore()
	forecaster := &fakeForecaster{forecast: core.PayoffForecast{
		MonthsToPayoff:    10,
		TotalInterestPaid: core.Money{Cents: 1234},
		PayoffAchieved:    true,
	}}
	s := NewServer(":0", store, &fakeLedger{store: store}, &fakeScheduler{store: store}, forecaster, nil)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s, store, forecaster
}

func doRequest(s *Server, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	s, _, _ := newTestServer(t)

	if rec := doRequest(s, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d", rec.Code)
	}
	if rec := doRequest(s, http.MethodGet, "/readyz", ""); rec.Code != http.StatusOK {
		t.Errorf("readyz status = %d", rec.Code)
	}
}

func TestCreateObligation(t *testing.T) {
	s, store, _ := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/api/obligations",
		`{"name":"Electric","category":"utility","due_date":"2025-05-15","amount":"100.00"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp obligationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.AmountCents == nil || *resp.AmountCents != 10000 {
		t.Errorf("amount_cents = %v, want 10000", resp.AmountCents)
	}
	if len(store.obligations) != 1 {
		t.Errorf("stored obligations = %d, want 1", len(store.obligations))
	}
}

func TestCreateObligationRejectsBadInput(t *testing.T) {
	s, _, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed json", `{`, http.StatusBadRequest},
		{"unknown category", `{"name":"X","category":"mystery","due_date":"2025-05-15","amount":"10.00"}`, http.StatusUnprocessableEntity},
		{"bad date", `{"name":"X","category":"utility","due_date":"2025-02-30","amount":"10.00"}`, http.StatusUnprocessableEntity},
		{"empty name", `{"name":"","category":"utility","due_date":"2025-05-15","amount":"10.00"}`, http.StatusUnprocessableEntity},
		{"revolving without terms", `{"name":"Visa","category":"credit_card","due_date":"2025-05-20"}`, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(s, http.MethodPost, "/api/obligations", tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d, body = %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestGetObligationNotFound(t *testing.T) {
	s, _, _ := newTestServer(t)

	if rec := doRequest(s, http.MethodGet, "/api/obligations/99", ""); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestApplyPaymentReducesBalance(t *testing.T) {
	s, store, _ := newTestServer(t)
	store.obligations[1] = storage.StoredObligation{
		ID: 1,
		Obligation: core.Obligation{
			Name:     "Visa",
			Category: core.CategoryCreditCard,
			DueDate:  core.NewDate(2025, 5, 20),
			Revolving: &core.RevolvingTerms{
				Balance:    core.Money{Cents: 100000},
				MinPayment: core.Money{Cents: 2500},
				APR:        19.99,
			},
		},
	}

	rec := doRequest(s, http.MethodPost, "/api/payments",
		`{"obligation_id":1,"amount":"400.00","year":2025,"month":5}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp obligationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.BalanceCents == nil || *resp.BalanceCents != 60000 {
		t.Errorf("balance_cents = %v, want 60000", resp.BalanceCents)
	}
}

func TestApplyPaymentRejectsBadAmount(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/api/payments",
		`{"obligation_id":1,"amount":"-5.00","year":2025,"month":5}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
}

func TestScheduleEndpoint(t *testing.T) {
	s, store, _ := newTestServer(t)
	store.obligations[1] = storage.StoredObligation{
		ID: 1,
		Obligation: core.Obligation{
			Name:     "Electric",
			Category: core.CategoryUtility,
			DueDate:  core.NewDate(2025, 5, 15),
			Flat:     &core.FlatTerms{Amount: core.Money{Cents: 10000}},
		},
	}
	store.paychecks[2] = storage.StoredPaycheck{
		ID: 2,
		Paycheck: core.Paycheck{
			Anchor:     core.NewDate(2025, 5, 1),
			Amount:     core.Money{Cents: 200000},
			Recurrence: core.RecurrenceNone,
		},
	}

	rec := doRequest(s, http.MethodGet, "/api/schedule?year=2025&month=5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp scheduleResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(resp.Entries))
	}
	if resp.Entries[0].Kind != "income" || resp.Entries[0].Day != 1 {
		t.Errorf("first entry = %+v, want income on day 1", resp.Entries[0])
	}
	if resp.TotalDueCents != 10000 || resp.TotalIncomeCents != 200000 {
		t.Errorf("totals = %d due, %d income", resp.TotalDueCents, resp.TotalIncomeCents)
	}
}

func TestScheduleRejectsBadMonth(t *testing.T) {
	s, _, _ := newTestServer(t)

	if rec := doRequest(s, http.MethodGet, "/api/schedule?year=2025&month=13", ""); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
}

func TestForecastEndpointCaches(t *testing.T) {
	s, _, forecaster := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/api/forecast?extra=100.00", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp forecastResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.MonthsToPayoff != 10 || !resp.PayoffAchieved {
		t.Errorf("forecast = %+v", resp)
	}
	if resp.ExtraBudgetCents != 10000 {
		t.Errorf("extra_budget_cents = %d, want 10000", resp.ExtraBudgetCents)
	}

	doRequest(s, http.MethodGet, "/api/forecast?extra=100.00", "")
	if forecaster.calls != 1 {
		t.Errorf("forecaster calls = %d, want 1 (second hit served from cache)", forecaster.calls)
	}
}

func TestForecastRejectsBadExtra(t *testing.T) {
	s, _, _ := newTestServer(t)

	if rec := doRequest(s, http.MethodGet, "/api/forecast?extra=abc", ""); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
}

func TestExportUnavailableWithoutExporter(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/api/export", `{"year":2025,"month":5}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestPaycheckLifecycle(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/api/paychecks",
		`{"anchor_date":"2025-05-02","amount":"2000.00","recurrence":"biweekly"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var created paycheckResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.AmountCents != 200000 || created.Recurrence != "biweekly" {
		t.Errorf("created = %+v", created)
	}

	if rec := doRequest(s, http.MethodDelete, "/api/paychecks/1", ""); rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", rec.Code)
	}
	if rec := doRequest(s, http.MethodDelete, "/api/paychecks/1", ""); rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestWriteInvalidatesScheduleCache(t *testing.T) {
	s, store, _ := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/api/schedule?year=2025&month=5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	rec = doRequest(s, http.MethodPost, "/api/obligations",
		`{"name":"Electric","category":"utility","due_date":"2025-05-15","amount":"100.00"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}

	rec = doRequest(s, http.MethodGet, "/api/schedule?year=2025&month=5", "")
	var resp scheduleResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Entries) != 1 {
		t.Errorf("entries after create = %d, want 1 (stale cache served?)", len(resp.Entries))
	}
	_ = store
}
