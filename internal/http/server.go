// Package http serves the JSON API and the live dashboard stream.
package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"spendwise/internal/cache"
	applog "spendwise/internal/log"
	"spendwise/internal/middleware/ratelimit"
	"spendwise/internal/middleware/security"
	"spendwise/internal/middleware/trace"
	"spendwise/internal/services"
	"spendwise/internal/snapshot"
)

// HeaderUserID names the authenticated user. An upstream identity proxy sets it.
const HeaderUserID = "X-User-ID"

// ReportExporter writes a month's dashboard somewhere outside the service.
type ReportExporter interface {
	ExportMonth(ctx context.Context, d services.Dashboard) (string, error)
}

// Services bundles the application layer the handlers call. Reports may be nil.
type Services struct {
	Expenses   *services.ExpenseService
	Categories *services.CategoryService
	Goals      *services.GoalService
	Dashboard  *services.DashboardService
	Hub        *snapshot.Hub
	Reports    ReportExporter
}

type Options struct {
	Addr               string
	CurrencySymbol     string
	RateLimitPerMinute int
	KeepAlive          time.Duration // SSE comment interval
	Logger             *applog.Logger
}

type Server struct {
	http.Server
	svc       Services
	currency  string
	keepAlive time.Duration
	errLog    *applog.StructuredLogger
	limiter   *ratelimit.Limiter
	caches    *cache.Manager
	now       func() time.Time

	// streams is cancelled when shutdown starts; http.Server.Shutdown does not
	// cancel the contexts of requests that are still running.
	streams     context.Context
	stopStreams context.CancelFunc

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(opts Options, svc Services) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	if opts.KeepAlive <= 0 {
		opts.KeepAlive = 25 * time.Second
	}
	if opts.CurrencySymbol == "" {
		opts.CurrencySymbol = "$"
	}

	clientIP, err := security.NewClientIP()
	if err != nil {
		return nil, err
	}

	logger := opts.Logger.WithComponent(applog.ComponentHTTP)
	s := &Server{
		svc:       svc,
		currency:  opts.CurrencySymbol,
		keepAlive: opts.KeepAlive,
		errLog:    applog.NewStructuredLogger(logger),
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		caches:    cache.NewManager(),
		now:       time.Now,
	}
	s.streams, s.stopStreams = context.WithCancel(context.Background())
	s.caches.Register(s.limiter.Cache())
	s.caches.StartCleanup(5 * time.Minute)

	limited := s.limiter.Middleware(clientIP.Extract, func(w http.ResponseWriter, r *http.Request) {
		applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).
			WarnContext(r.Context(), "Rate limit exceeded", applog.FieldClientIP, clientIP.Extract(r))
		writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "rate limit exceeded"})
	})

	mux := http.NewServeMux()
	api := func(pattern string, h userHandler) {
		mux.Handle(pattern, limited(s.withUser(h)))
	}

	mux.HandleFunc("GET /healthz", handleHealth)

	api("POST /api/expenses", s.handleCreateExpense)
	api("GET /api/expenses", s.handleListExpenses)
	api("DELETE /api/expenses/{id}", s.handleDeleteExpense)

	api("GET /api/categories", s.handleListCategories)
	api("POST /api/categories", s.handleCreateCategory)
	api("DELETE /api/categories/{id}", s.handleDeleteCategory)

	api("PUT /api/goals/{month}", s.handleUpsertGoal)
	api("GET /api/goals/{month}", s.handleGetGoal)

	api("GET /api/dashboard", s.handleDashboard)
	api("POST /api/reports/{month}/export", s.handleExportReport)
	// long-lived; counted once per connection like any other request
	api("GET /api/dashboard/stream", s.handleDashboardStream)

	tracer := trace.NewMiddleware(clientIP.Extract, opts.Logger)
	var handler http.Handler = mux
	handler = applog.RequestIDMiddleware(trace.FromRequest)(handler)
	handler = applog.Middleware(logger)(handler)
	handler = tracer.Middleware(handler)
	handler = security.Headers(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
		// no WriteTimeout: the dashboard stream stays open
	}
	s.Server.RegisterOnShutdown(s.stopStreams)
	return s, nil
}

// Shutdown stops background sweeping, ends open dashboard streams and drains
// the remaining requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.stopStreams()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// ListenAndServe runs until Shutdown; a clean shutdown is not an error.
func (s *Server) ListenAndServe() error {
	if err := s.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
