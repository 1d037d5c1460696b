// Package server provides the HTTP API for Book Whisperer.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/bookwhisperer/bookwhisperer/internal/catalog"
	"github.com/bookwhisperer/bookwhisperer/internal/config"
	"github.com/bookwhisperer/bookwhisperer/internal/models"
	"github.com/bookwhisperer/bookwhisperer/internal/recommend"
	"github.com/bookwhisperer/bookwhisperer/internal/storage"
)

// CatalogSyncer yields the current book corpus, refreshing from
// upstream when it changed.
type CatalogSyncer interface {
	Sync(ctx context.Context) (*catalog.SyncResult, error)
}

// Recommender ranks a corpus for a request.
type Recommender interface {
	Recommend(books []*models.Book, past map[string]struct{}, req *models.RecommendRequest) (*recommend.Result, error)
}

// Server is the HTTP server for the Book Whisperer API.
type Server struct {
	syncer  CatalogSyncer
	engine  Recommender
	storage storage.Storage
	config  *config.ServerConfig
	logger  *zap.Logger
	server  *http.Server

	// databasePath, when set, adds disk usage to the status endpoint.
	databasePath string
}

// SetDatabasePath enables disk usage reporting on the status endpoint.
func (s *Server) SetDatabasePath(path string) {
	s.databasePath = path
}

// NewServer creates a server with the given dependencies.
func NewServer(
	syncer CatalogSyncer,
	engine Recommender,
	storage storage.Storage,
	cfg *config.ServerConfig,
	logger *zap.Logger,
) *Server {
	return &Server{
		syncer:  syncer,
		engine:  engine,
		storage: storage,
		config:  cfg,
		logger:  logger,
	}
}

// Router builds the chi router with all routes attached.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Post("/api/v1/recommend", s.handleRecommend)
	r.Get("/api/v1/books", s.handleListBooks)
	r.Get("/api/v1/history", s.handleHistory)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
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
