// Package httpserver serves the signup form endpoint, the landing page it
// redirects to, health and metrics.
package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophsignup/internal/dbx"
	"github.com/dmitrijs2005/gophsignup/internal/logging"
	"github.com/dmitrijs2005/gophsignup/internal/server/models"
	"github.com/dmitrijs2005/gophsignup/internal/server/services"
	"github.com/dmitrijs2005/gophsignup/internal/server/validation"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 5 * time.Second

// UserService is the signup side of services.UserService.
type UserService interface {
	Signup(ctx context.Context, creds *validation.Credentials) (*services.SignupResult, error)
}

// SessionIssuer is the cookie-checking side of auth.Issuer.
type SessionIssuer interface {
	CookieName() string
	CreateBlankSessionCookie() *http.Cookie
	ValidateSessionCookie(ctx context.Context, db dbx.DBTX, value string) (*models.Session, *models.User, error)
}

// Store is the database handle used outside of the service layer.
// *sql.DB satisfies it.
type Store interface {
	dbx.DBTX
	PingContext(ctx context.Context) error
}

// Options are the server's listener settings.
type Options struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type HTTPServer struct {
	opts      Options
	logger    logging.Logger
	users     UserService
	issuer    SessionIssuer
	store     Store
	validator *validation.Validator
	metrics   *Metrics
	gatherer  prometheus.Gatherer
}

// NewHTTPServer wires the handlers. Metrics are registered with reg and
// exposed from gatherer on /metrics.
func NewHTTPServer(opts Options, l logging.Logger, us UserService, issuer SessionIssuer, store Store,
	reg prometheus.Registerer, gatherer prometheus.Gatherer) *HTTPServer {
	return &HTTPServer{
		opts:      opts,
		logger:    l.With("module", "http_server"),
		users:     us,
		issuer:    issuer,
		store:     store,
		validator: validation.New(),
		metrics:   NewMetrics(reg),
		gatherer:  gatherer,
	}
}

// Router builds the chi router with all routes and middleware.
func (s *HTTPServer) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.metrics.Middleware)

	r.Post("/signup", s.Signup)
	r.With(s.sessionLoader).Get("/", s.Home)
	r.Get("/healthz", s.Healthz)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:         s.opts.Address,
		Handler:      s.Router(),
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	stopped := make(chan struct{})

	go func() {
		defer close(stopped)
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.opts.Address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	// wait for in-flight requests
	<-stopped

	return nil
}
