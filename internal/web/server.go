// Package web serves the ingestion engine over HTTP.
//
// Routes:
//
//	GET  /health                    liveness plus limiter and store status
//	GET  /metrics                   Prometheus exposition (when enabled)
//	POST /api/ingest                body -> typed table as JSON
//	POST /api/ingest/parquet        body -> Parquet file
//	POST /api/ingest/store/{table}  body -> rows loaded into the configured store
//
// Ingest routes take the raw file as the request body. Content-Encoding gzip
// or zstd is decoded. Query parameters: header=1|0, pad=true|false,
// delimiter=<byte>|tab.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/csvmatrix/internal/config"
	"github.com/JonMunkholm/csvmatrix/internal/core"
	"github.com/JonMunkholm/csvmatrix/internal/metrics"
	"github.com/JonMunkholm/csvmatrix/internal/store"
	"github.com/JonMunkholm/csvmatrix/internal/web/middleware"
)

// Deps are the collaborators a Server runs with. Nil Store disables the
// store route; nil Metrics disables instrumentation; nil Gatherer hides
// /metrics.
type Deps struct {
	Store    store.Store
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Limiter  *core.IngestLimiter
}

// Server is the HTTP front end for table ingestion.
type Server struct {
	cfg     *config.Config
	store   store.Store
	metrics *metrics.Metrics
	gather  prometheus.Gatherer
	limiter *core.IngestLimiter
	router  *chi.Mux
	server  *http.Server

	stopBackground context.CancelFunc
}

// NewServer wires routes and middleware. A nil Deps.Limiter is built from
// cfg.Ingest.
func NewServer(cfg *config.Config, deps Deps) *Server {
	limiter := deps.Limiter
	if limiter == nil {
		limiter = core.NewIngestLimiter(cfg.Ingest.MaxConcurrent, cfg.Ingest.MaxWaitTime)
	}

	bg, stop := context.WithCancel(context.Background())
	s := &Server{
		cfg:            cfg,
		store:          deps.Store,
		metrics:        deps.Metrics,
		gather:         deps.Gatherer,
		limiter:        limiter,
		router:         chi.NewRouter(),
		stopBackground: stop,
	}
	s.setupMiddleware(bg)
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware(bg context.Context) {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(securityHeaders)

	if s.cfg.Rate.Enabled {
		limiter := middleware.NewRateLimiter(bg, s.cfg.Rate.RequestsPerMinute, time.Minute)
		s.router.Use(limiter.Middleware)
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	if s.cfg.Metrics.Enabled && s.gather != nil {
		s.router.Handle(s.cfg.Metrics.Path, promhttp.HandlerFor(s.gather, promhttp.HandlerOpts{}))
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(s.cfg.Security.RequireAPIKey, s.cfg.Security.APIKeys))

		r.Post("/ingest", s.handleIngest)
		r.Post("/ingest/parquet", s.handleIngestParquet)
		r.Post("/ingest/store/{table}", s.handleIngestStore)
	})
}

// Start listens on addr until Shutdown.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", addr)
	return s.server.ListenAndServe()
}

// Shutdown stops accepting requests, then waits for in-flight ingests to
// release their slots.
func (s *Server) Shutdown(ctx context.Context) error {
	defer s.stopBackground()

	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			return err
		}
	}
	return s.limiter.Drain(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
