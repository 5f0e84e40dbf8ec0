// Package server provides the HTTP API for bunrui.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/bunrui/internal/analysis"
	"github.com/hyperjump/bunrui/internal/config"
	"github.com/hyperjump/bunrui/internal/storage"
	"github.com/hyperjump/bunrui/pkg/utils"
)

const (
	requestTimeout = 60 * time.Second
	maxBodyBytes   = 32 << 20
)

// Server is the HTTP server for the bunrui API.
type Server struct {
	analyzer *analysis.Analyzer
	storage  storage.Storage
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server with the given dependencies. store may be nil,
// in which case the run history endpoints answer 501.
func NewServer(
	analyzer *analysis.Analyzer,
	store storage.Storage,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		analyzer: analyzer,
		storage:  store,
		config:   cfg,
		logger:   utils.OrNop(logger),
	}
}

// Router returns the HTTP handler with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/cluster", s.handleCluster)
	r.Get("/api/v1/runs", s.handleListRuns)
	r.Get("/api/v1/runs/{id}", s.handleGetRun)
	r.Delete("/api/v1/runs/{id}", s.handleDeleteRun)
	r.Post("/api/v1/runs/{id}/predict", s.handlePredict)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
