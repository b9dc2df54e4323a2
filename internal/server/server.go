// Package server exposes the resolver, map and dashboard over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/opportunity-analyzer/internal/analysis"
	"github.com/sells-group/opportunity-analyzer/internal/mapview"
	"github.com/sells-group/opportunity-analyzer/pkg/geocode"
)

// Resolver resolves ZIP codes and reports its counters.
type Resolver interface {
	Resolve(ctx context.Context, zip geocode.ZipCode) geocode.Result
	Stats() geocode.Stats
}

// MapView exposes the current map marker.
type MapView interface {
	Current() mapview.Marker
	Stale() int64
}

// Analyzer runs analyses and reports the dashboard status.
type Analyzer interface {
	Analyze(ctx context.Context, zip string) (*analysis.Report, error)
	Status() analysis.Status
}

// Option configures a Server.
type Option func(*Server)

// WithCORSOrigins sets the allowed CORS origins. Defaults to "*".
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.corsOrigins = origins
		}
	}
}

// WithShutdownTimeout bounds graceful shutdown.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

// Server serves the JSON API.
type Server struct {
	resolver Resolver
	view     MapView
	analyzer Analyzer

	corsOrigins     []string
	shutdownTimeout time.Duration
	router          chi.Router
}

// New creates a Server and registers its routes.
func New(resolver Resolver, view MapView, analyzer Analyzer, opts ...Option) *Server {
	s := &Server{
		resolver:        resolver,
		view:            view,
		analyzer:        analyzer,
		corsOrigins:     []string{"*"},
		shutdownTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth())
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/geocode/{zip}", s.handleGeocode())
		r.Post("/analyses", s.handleAnalyze())
		r.Get("/dashboard", s.handleDashboard())
		r.Get("/map", s.handleMap())
		r.Get("/stats", s.handleStats())
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, errNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, errMethodNotAllowed)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	startCh := make(chan error, 1)
	go func() {
		zap.L().Info("starting server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			startCh <- err
		}
		close(startCh)
	}()

	select {
	case err := <-startCh:
		if err != nil {
			return eris.Wrap(err, "server: listen")
		}
		return nil
	case <-ctx.Done():
	}

	zap.L().Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "server: shutdown")
	}
	return nil
}
