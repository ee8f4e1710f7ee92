// Package server provides the read-only HTTP API for tradeadvisor.
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

	"github.com/aristath/tradeadvisor/internal/database"
	"github.com/aristath/tradeadvisor/internal/modules/advisor"
	"github.com/aristath/tradeadvisor/internal/modules/journal"
)

// Config holds server configuration.
// Journal and JournalDB are optional; journal routes answer 404 without them.
type Config struct {
	Log       zerolog.Logger
	Advisor   *advisor.Service
	Journal   *journal.Repository
	JournalDB *database.DB
	Port      int
	DevMode   bool
}

// Server represents the HTTP server
type Server struct {
	router    *chi.Mux
	server    *http.Server
	log       zerolog.Logger
	advisor   *advisor.Service
	journal   *journal.Repository
	journalDB *database.DB
	system    *SystemHandlers
	startedAt time.Time
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		advisor:   cfg.Advisor,
		journal:   cfg.Journal,
		journalDB: cfg.JournalDB,
		startedAt: time.Now(),
	}
	s.system = NewSystemHandlers(s.log, cfg.JournalDB, s.startedAt)

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)

	// Live scans fetch history for every holding
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/signals", func(r chi.Router) {
			r.Get("/", s.handleScan)
			r.Get("/{ticker}", s.handleSignal)
		})

		r.Route("/journal", func(r chi.Router) {
			r.Use(s.requireJournal)
			r.Get("/runs", s.handleListRuns)
			r.Get("/runs/{id}/orders", s.handleListOrders)
			r.Get("/runs/{id}/notices", s.handleListNotices)
			r.Get("/signals", s.handleListSignals)
		})

		r.Get("/system/stats", s.system.HandleStats)
	})
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}

func (s *Server) requireJournal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.journal == nil {
			s.writeError(w, http.StatusNotFound, "journal is disabled")
			return
		}
		next.ServeHTTP(w, r)
	})
}
