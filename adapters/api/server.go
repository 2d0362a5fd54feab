package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"govigil/internal"
	"govigil/ports"
)

// Config holds results API server configuration
type Config struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server exposes completed evaluation runs over HTTP. It is a read-only
// surface: runs are created by the evaluation engine, never through the API.
type Server struct {
	config Config
	router *chi.Mux
	repo   ports.RunRepository
	logger *internal.Logger
}

// NewServer creates a results API server backed by a run repository
func NewServer(config Config, repo ports.RunRepository) *Server {
	s := &Server{
		config: config,
		router: chi.NewRouter(),
		repo:   repo,
		logger: internal.DefaultLogger.Component("API"),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures HTTP middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Get("/api/runs", s.handleListRuns)
	s.router.Get("/api/runs/{id}", s.handleGetRun)
	s.router.Get("/api/runs/{id}/results", s.handleGetResults)
}

// Handler returns the underlying router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until it exits
func (s *Server) Start() error {
	addr := ":" + s.config.Port
	s.logger.Info("Starting results API server on %s", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
	return server.ListenAndServe()
}
