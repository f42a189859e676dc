// Package server exposes the dashboard HTTP API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"QuantDeck/internal/lockstore"
	"QuantDeck/internal/marketdata"
	"QuantDeck/internal/scan"
)

// Config holds the server wiring.
type Config struct {
	Port   int
	Runner *scan.Runner
	Cache  *marketdata.Cache
	Locks  *lockstore.Store
	Log    zerolog.Logger
}

// Server is the HTTP front of the dashboard. All state lives in the scan
// runner and its stores; handlers only translate HTTP to calls.
type Server struct {
	router *chi.Mux
	server *http.Server
	runner *scan.Runner
	cache  *marketdata.Cache
	locks  *lockstore.Store
	log    zerolog.Logger
}

// New builds the router and middleware stack.
func New(cfg Config) *Server {
	s := &Server{
		router: chi.NewRouter(),
		runner: cfg.Runner,
		cache:  cfg.Cache,
		locks:  cfg.Locks,
		log:    cfg.Log.With().Str("component", "server").Logger(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: s.router,
	}
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Post("/portfolio", s.handlePortfolioUpload)
		r.Get("/portfolio", s.handlePortfolioGet)

		r.Post("/refresh", s.handleRefresh)
		r.Get("/signals", s.handleSignals)
		r.Get("/diagnosis", s.handleDiagnosis)
		r.Get("/market", s.handleMarket)

		r.Get("/locks", s.handleLocksList)
		r.Get("/locks/{symbol}", s.handleLockGet)
		r.Put("/locks/{symbol}", s.handleLockPut)
		r.Delete("/locks/{symbol}", s.handleLockDelete)

		r.Post("/scan", s.handleScan)
	})
}

// Handler exposes the router, used by tests.
func (s *Server) Handler() http.Handler { return s.router }

// Start blocks serving HTTP until the listener fails or is shut down.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
