// Package server exposes dependency resolution and level classification
// over HTTP.
//
// Routes:
//
//	GET  /healthz                          liveness and build info
//	GET  /v1/packages/{name}/dependencies  direct dependencies of one package
//	POST /v1/graphs                        resolve roots and build a view
//	GET  /metrics                          Prometheus metrics
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/reqgraph/internal/config"
	"github.com/matzehuels/reqgraph/pkg/deps"
	"github.com/matzehuels/reqgraph/pkg/pipeline"
)

// ShutdownTimeout bounds graceful shutdown after the context is cancelled.
const ShutdownTimeout = 10 * time.Second

// Server is the reqgraph HTTP API.
type Server struct {
	cfg      *config.Config
	runner   *pipeline.Runner
	fetcher  deps.Fetcher
	logger   *log.Logger
	metrics  *Metrics
	validate *validator.Validate
	router   chi.Router
}

// New wires the API. The runner resolves and classifies graphs; the fetcher
// answers single-package lookups. A nil metrics value creates a private
// registry.
func New(cfg *config.Config, runner *pipeline.Runner, fetcher deps.Fetcher, logger *log.Logger, metrics *Metrics) *Server {
	if logger == nil {
		logger = log.Default()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	s := &Server{
		cfg:      cfg,
		runner:   runner,
		fetcher:  fetcher,
		logger:   logger,
		metrics:  metrics,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/packages/{name}/dependencies", s.handleDependencies)
		r.Post("/graphs", s.handleGraph)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: apiError{Code: "NOT_FOUND", Message: "no route for " + r.URL.Path}})
	})
	return r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Serve.Addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Serve.ReadTimeout,
		WriteTimeout: s.cfg.Serve.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// observe logs each request and records it in the API metrics under its
// route pattern.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		s.metrics.observeAPI(route, r.Method, status, elapsed)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration", elapsed.Round(time.Millisecond),
			"request_id", chimiddleware.GetReqID(r.Context()))
	})
}
