// Package web provides the HTTP server and handlers for the ingestion API.
package web

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/hiredata/ingestd/internal/backup"
	"github.com/hiredata/ingestd/internal/blob"
	"github.com/hiredata/ingestd/internal/config"
	"github.com/hiredata/ingestd/internal/database"
	"github.com/hiredata/ingestd/internal/ingest"
	"github.com/hiredata/ingestd/internal/report"
	"github.com/hiredata/ingestd/internal/web/middleware"
)

// Server is the HTTP server for the ingestion service.
type Server struct {
	ingest  *ingest.Service
	reports *report.Service
	backups *backup.Service
	db      *database.Postgres
	store   blob.Store
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server
}

// NewServer creates a new Server instance.
func NewServer(
	ingestSvc *ingest.Service,
	reportSvc *report.Service,
	backupSvc *backup.Service,
	db *database.Postgres,
	store blob.Store,
	cfg *config.Config,
) *Server {
	s := &Server{
		ingest:  ingestSvc,
		reports: reportSvc,
		backups: backupSvc,
		db:      db,
		store:   store,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(chimw.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/db/ping", s.handleDBPing)
	s.router.Get("/s3/ping", s.handleS3Ping)

	// File-based ingestion
	s.router.Post("/ingest/departments", s.handleIngestDepartments)
	s.router.Post("/ingest/jobs", s.handleIngestJobs)
	s.router.Post("/ingest/employees", s.handleIngestEmployees)

	// Online ingestion
	s.router.Post("/online/ingest", s.handleOnlineIngest)

	// Metrics
	s.router.Get("/metrics/hires-by-quarter", s.handleHiresByQuarter)
	s.router.Get("/metrics/top-departments", s.handleTopDepartments)

	// Backups
	s.router.Post("/backup/{table}", s.handleBackup)
	s.router.Post("/restore/{table}", s.handleRestore)
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}
