package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"spendsmart/internal/log"
	"spendsmart/internal/middleware/ratelimit"
	"spendsmart/internal/middleware/security"
	"spendsmart/internal/report"
	"spendsmart/internal/services"
)

// maxBodyBytes caps request bodies; a single expense is tiny.
const maxBodyBytes = 64 << 10

// Server exposes the expense service as a JSON API.
type Server struct {
	http.Server
	svc     *services.ExpenseService
	logger  *log.Logger
	ready   func(context.Context) error
	limiter *ratelimit.Limiter
	headers security.HeadersConfig
	report  report.Options
	today   func() string
}

// Option configures a Server.
type Option func(*Server)

func WithLogger(logger *log.Logger) Option {
	return func(s *Server) { s.logger = logger.WithComponent(log.ComponentHTTP) }
}

// WithReadiness makes /readyz report check's result.
func WithReadiness(check func(context.Context) error) Option {
	return func(s *Server) { s.ready = check }
}

// WithRateLimiter throttles mutating requests through l.
func WithRateLimiter(l *ratelimit.Limiter) Option {
	return func(s *Server) { s.limiter = l }
}

// WithReportOptions sets the currency used in exports.
func WithReportOptions(opts report.Options) Option {
	return func(s *Server) { s.report = opts }
}

// WithSecurityHeaders overrides the default response headers.
func WithSecurityHeaders(cfg security.HeadersConfig) Option {
	return func(s *Server) { s.headers = cfg }
}

// NewServer configures routes, returning a ready-to-run http.Server.
func NewServer(addr string, svc *services.ExpenseService, opts ...Option) *Server {
	s := &Server{
		Server: http.Server{
			Addr:           addr,
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   10 * time.Second,
			IdleTimeout:    60 * time.Second,
			MaxHeaderBytes: 1 << 16,
		},
		svc:     svc,
		logger:  log.Discard().WithComponent(log.ComponentHTTP),
		ready:   func(context.Context) error { return nil },
		headers: security.DefaultHeadersConfig(),
		today:   func() string { return time.Now().Format("2006-01-02") },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(log.Middleware(s.logger))
	r.Use(log.RequestIDMiddleware)
	r.Use(log.AccessLog)
	r.Use(middleware.Recoverer)
	r.Use(security.Headers(s.headers))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Get("/expenses", s.handleListExpenses)
		r.Get("/expenses/{id}", s.handleGetExpense)
		r.Get("/summary", s.handleSummary)
		r.Get("/export.xlsx", s.handleExportXLSX)

		r.Group(func(r chi.Router) {
			if s.limiter != nil {
				r.Use(s.limiter.Middleware(ratelimit.ClientIP, func(w http.ResponseWriter, r *http.Request) {
					writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
				}))
			}
			r.Use(middleware.RequestSize(maxBodyBytes))
			r.Post("/expenses", s.handleCreateExpense)
			r.Delete("/expenses/{id}", s.handleDeleteExpense)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

// Run serves until ctx is cancelled, then shuts down within timeout.
func (s *Server) Run(ctx context.Context, timeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", "addr", s.Addr, log.FieldOperation, log.OpStartup)
		if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("Server shutdown error", log.FieldError, err)
		return err
	}
	s.logger.Info("HTTP server stopped", log.FieldOperation, log.OpShutdown)
	return nil
}
