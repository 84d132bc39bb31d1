// Package http exposes the billfold JSON API.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"billfold/internal/cache"
	"billfold/internal/core"
	applog "billfold/internal/log"
	"billfold/internal/services"
	"billfold/internal/storage"
)

// Store is the repository surface the API needs for plain CRUD. Payment
// writes go through the ledger service instead.
type Store interface {
	CreateObligation(ctx context.Context, o core.Obligation) (int64, error)
	GetObligation(ctx context.Context, id int64) (storage.StoredObligation, error)
	ListObligations(ctx context.Context) ([]storage.StoredObligation, error)
	DeleteObligation(ctx context.Context, id int64) error
	CreatePaycheck(ctx context.Context, p core.Paycheck) (int64, error)
	ListPaychecks(ctx context.Context) ([]storage.StoredPaycheck, error)
	DeletePaycheck(ctx context.Context, id int64) error
}

// Ledger applies payments against stored obligations.
type Ledger interface {
	ApplyPayment(ctx context.Context, obligationID int64, amount core.Money, year, month int) (storage.StoredObligation, error)
}

// Scheduler builds merged month views.
type Scheduler interface {
	MonthSchedule(ctx context.Context, year, month int) (services.MonthSchedule, error)
}

// Forecaster runs payoff simulations.
type Forecaster interface {
	Run(ctx context.Context, extraBudget core.Money) (core.PayoffForecast, error)
}

// Exporter writes a month schedule to an external spreadsheet. Optional.
type Exporter interface {
	ExportMonth(ctx context.Context, year, month int, entries []core.ScheduleEntry, totals core.MonthTotals) error
}

type Server struct {
	http.Server

	store     Store
	ledger    Ledger
	scheduler Scheduler
	forecasts Forecaster
	exporter  Exporter

	rateLimiter *rateLimiter

	// Month schedules and forecasts are cheap to rebuild but hit on
	// every page load, so both sit behind short-TTL caches.
	scheduleCache *cache.LRUCache[services.MonthSchedule]
	forecastCache *cache.LRUCache[core.PayoffForecast]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// NewServer wires routes and middleware and returns a ready-to-run
// server. The exporter may be nil; POST /api/export then answers 503.
func NewServer(addr string, store Store, ledger Ledger, scheduler Scheduler, forecasts Forecaster, exporter Exporter) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		store:            store,
		ledger:           ledger,
		scheduler:        scheduler,
		forecasts:        forecasts,
		exporter:         exporter,
		rateLimiter:      newRateLimiter(60, time.Minute),
		scheduleCache:    cache.NewLRUCache[services.MonthSchedule](100, 5*time.Minute),
		forecastCache:    cache.NewLRUCache[core.PayoffForecast](50, 5*time.Minute),
		stopCacheCleanup: make(chan struct{}),
	}

	go s.startCacheCleanup()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/schedule", s.withMiddleware(s.handleSchedule))

	mux.HandleFunc("POST /api/obligations", s.withMiddleware(s.handleCreateObligation))
	mux.HandleFunc("GET /api/obligations", s.withMiddleware(s.handleListObligations))
	mux.HandleFunc("GET /api/obligations/{id}", s.withMiddleware(s.handleGetObligation))
	mux.HandleFunc("DELETE /api/obligations/{id}", s.withMiddleware(s.handleDeleteObligation))

	mux.HandleFunc("POST /api/payments", s.withMiddleware(s.handleApplyPayment))

	mux.HandleFunc("POST /api/paychecks", s.withMiddleware(s.handleCreatePaycheck))
	mux.HandleFunc("GET /api/paychecks", s.withMiddleware(s.handleListPaychecks))
	mux.HandleFunc("DELETE /api/paychecks/{id}", s.withMiddleware(s.handleDeletePaycheck))

	mux.HandleFunc("GET /api/forecast", s.withMiddleware(s.handleForecast))
	mux.HandleFunc("POST /api/export", s.withMiddleware(s.handleExport))

	return s
}

// startCacheCleanup evicts expired cache entries periodically.
func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			scheduleCleaned := s.scheduleCache.CleanExpired()
			forecastCleaned := s.forecastCache.CleanExpired()
			if scheduleCleaned > 0 || forecastCleaned > 0 {
				slog.Debug("Cache cleanup completed",
					applog.FieldComponent, applog.ComponentCache,
					"schedule_entries_removed", scheduleCleaned,
					"forecast_entries_removed", forecastCleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown stops the cleanup goroutines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.stopCacheCleanup != nil {
			close(s.stopCacheCleanup)
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withMiddleware adds request IDs, security headers, rate limiting on
// writes, and request logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			applog.FieldComponent, applog.ComponentHTTP,
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldClientIP, clientIP)

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				applog.FieldComponent, applog.ComponentHTTP,
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			applog.FieldComponent, applog.ComponentHTTP,
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, rw.statusCode,
			applog.FieldDuration, time.Since(start).Milliseconds())
	}
}

type requestIDKey struct{}

// responseWriter captures the status code for request logging.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) invalidateCaches() {
	// Write paths can move money across any month, so both caches are
	// dropped wholesale rather than per key.
	s.scheduleCache.Purge()
	s.forecastCache.Purge()
}
