// Package http exposes the JSON API: authentication, expenses, budgets,
// notifications and reports, all user-scoped behind bearer tokens.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"smartspend/internal/auth"
	"smartspend/internal/log"
	"smartspend/internal/services"
	"smartspend/internal/token"
)

// Pinger is the readiness probe into the storage backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	http.Server

	auth          *auth.Service
	tokens        *token.Service
	expenses      *services.ExpenseService
	budgets       *services.BudgetService
	notifications *services.NotificationService
	reports       *services.ReportService

	store       Pinger
	rateLimiter *rateLimiter
	trustProxy  bool
	logger      *log.Logger
	started     time.Time

	shutdownOnce sync.Once
}

type Config struct {
	Addr       string
	TrustProxy bool
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(
	cfg Config,
	authSvc *auth.Service,
	tokens *token.Service,
	expenses *services.ExpenseService,
	budgets *services.BudgetService,
	notifications *services.NotificationService,
	reports *services.ReportService,
	store Pinger,
	logger *log.Logger,
) *Server {
	mux := http.NewServeMux()

	s := &Server{
		auth:          authSvc,
		tokens:        tokens,
		expenses:      expenses,
		budgets:       budgets,
		notifications: notifications,
		reports:       reports,
		store:         store,
		rateLimiter:   newRateLimiter(30, time.Minute),
		trustProxy:    cfg.TrustProxy,
		logger:        logger.WithComponent(log.ComponentHTTP),
		started:       time.Now(),
	}
	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	// Authentication endpoints are rate limited per client IP.
	mux.HandleFunc("POST /api/auth/signup", s.withMiddleware(s.handleSignup, true))
	mux.HandleFunc("POST /api/auth/verify-otp", s.withMiddleware(s.handleVerifyOTP, true))
	mux.HandleFunc("POST /api/auth/resend-otp", s.withMiddleware(s.handleResendOTP, true))
	mux.HandleFunc("POST /api/auth/login", s.withMiddleware(s.handleLogin, true))
	mux.HandleFunc("POST /api/auth/forgot-password", s.withMiddleware(s.handleForgotPassword, true))
	mux.HandleFunc("POST /api/auth/reset-password", s.withMiddleware(s.handleResetPassword, true))

	mux.HandleFunc("GET /api/expenses", s.protected(s.handleListExpenses))
	mux.HandleFunc("POST /api/expenses", s.protected(s.handleCreateExpense))
	mux.HandleFunc("GET /api/expenses/recent", s.protected(s.handleRecentExpenses))
	mux.HandleFunc("GET /api/expenses/filter", s.protected(s.handleFilterExpenses))
	mux.HandleFunc("GET /api/expenses/{id}", s.protected(s.handleGetExpense))
	mux.HandleFunc("PUT /api/expenses/{id}", s.protected(s.handleUpdateExpense))
	mux.HandleFunc("DELETE /api/expenses/{id}", s.protected(s.handleDeleteExpense))

	mux.HandleFunc("GET /api/budgets", s.protected(s.handleListBudgets))
	mux.HandleFunc("POST /api/budgets", s.protected(s.handleCreateBudget))
	mux.HandleFunc("GET /api/budgets/{id}", s.protected(s.handleGetBudget))
	mux.HandleFunc("PUT /api/budgets/{id}", s.protected(s.handleUpdateBudget))
	mux.HandleFunc("DELETE /api/budgets/{id}", s.protected(s.handleDeleteBudget))

	mux.HandleFunc("GET /api/notifications", s.protected(s.handleListNotifications))
	mux.HandleFunc("POST /api/notifications/{id}/read", s.protected(s.handleMarkNotificationRead))

	mux.HandleFunc("GET /api/reports/dashboard", s.protected(s.handleReportDashboard))
	mux.HandleFunc("GET /api/reports/monthly", s.protected(s.handleReportMonthly))
	mux.HandleFunc("GET /api/reports/categories", s.protected(s.handleReportCategories))
	mux.HandleFunc("GET /api/reports/income-expense", s.protected(s.handleReportIncomeExpense))
	mux.HandleFunc("GET /api/reports/trend", s.protected(s.handleReportTrend))

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withMiddleware adds security headers, request logging and optional
// rate limiting to a handler.
func (s *Server) withMiddleware(next http.HandlerFunc, rateLimited bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ip := clientIP(r, s.trustProxy)
		requestID := generateRequestID()

		logger := s.logger.With(
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldClientIP, ip,
		)
		ctx := context.WithValue(r.Context(), log.LoggerContextKey, logger)
		r = r.WithContext(ctx)

		if rateLimited && !s.rateLimiter.allow(ip) {
			logger.WarnContext(ctx, "rate limit exceeded")
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "too many requests"})
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cache-Control", "no-store")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		logger.Log(ctx, log.LevelForStatus(rw.statusCode), "request completed",
			log.FieldStatusCode, rw.statusCode,
			log.FieldDuration, time.Since(start).Milliseconds())
	}
}

// protected wraps a handler with the standard middleware plus bearer
// token authentication.
func (s *Server) protected(next http.HandlerFunc) http.HandlerFunc {
	return s.withMiddleware(s.requireAuth(next), false)
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
