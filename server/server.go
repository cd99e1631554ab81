package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"

	"github.com/umputun/enggist/pkg/domain"
	"github.com/umputun/enggist/pkg/feed"
)

//go:generate moq -out mocks/database.go -pkg mocks -skip-ensure -fmt goimports . Database
//go:generate moq -out mocks/ingester.go -pkg mocks -skip-ensure -fmt goimports . Ingester
//go:generate moq -out mocks/batcher.go -pkg mocks -skip-ensure -fmt goimports . Batcher

// Server represents HTTP server instance
type Server struct {
	cfg       Config
	db        Database
	ingester  Ingester
	batcher   Batcher
	generator *feed.Generator
	startedAt time.Time

	lock       sync.Mutex
	httpServer *http.Server
	router     *routegroup.Bundle
}

// Config holds server settings
type Config struct {
	Listen           string
	Timeout          time.Duration
	BaseURL          string
	PageSize         int
	IngestSecret     string // bearer secret of protected endpoints, empty rejects all protected calls
	SummarizeTimeout time.Duration
	Version          string
	Debug            bool
}

// Database interface for read side of the server
type Database interface {
	ListSources(ctx context.Context, enabledOnly bool) ([]domain.Source, error)
	GetSource(ctx context.Context, id int64) (*domain.Source, error)
	GetPost(ctx context.Context, id int64) (*domain.PostView, error)
	ListPosts(ctx context.Context, filter domain.PostFilter) (domain.PostPage, error)
	Search(ctx context.Context, query string, limit int) ([]domain.PostView, error)
	Health(ctx context.Context, now time.Time) (domain.HealthReport, error)
}

// Ingester runs one ingestion pass
type Ingester interface {
	Run(ctx context.Context) (domain.IngestResult, error)
}

// Batcher runs one summarization batch
type Batcher interface {
	Run(ctx context.Context) (domain.SummarizeResult, error)
}

// New initializes a new server instance
func New(cfg Config, db Database, ingester Ingester, batcher Batcher) *Server {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 30
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.SummarizeTimeout == 0 {
		cfg.SummarizeTimeout = 10 * time.Minute
	}
	s := &Server{
		cfg:       cfg,
		db:        db,
		ingester:  ingester,
		batcher:   batcher,
		generator: feed.NewGenerator(cfg.BaseURL),
		startedAt: time.Now(),
		router:    routegroup.New(http.NewServeMux()),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Run starts the HTTP server and handles graceful shutdown
func (s *Server) Run(ctx context.Context) error {
	log.Printf("[INFO] starting server on %s", s.cfg.Listen)

	s.lock.Lock()
	s.httpServer = &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.router,
		ReadHeaderTimeout: s.cfg.Timeout,
		ReadTimeout:       s.cfg.Timeout,
		// job endpoints may run up to the summarize timeout
		WriteTimeout: max(s.cfg.Timeout, s.cfg.SummarizeTimeout+time.Minute),
	}
	s.lock.Unlock()

	go func() {
		<-ctx.Done()
		log.Printf("[INFO] shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		s.lock.Lock()
		defer s.lock.Unlock()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] server shutdown error: %v", err)
		}
	}()

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}

	return nil
}

// Handler returns the root http handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures standard middleware for the server
func (s *Server) setupMiddleware() {
	s.router.Use(rest.AppInfo("enggist", "umputun", s.cfg.Version))
	s.router.Use(rest.Ping)

	if s.cfg.Debug {
		s.router.Use(logger.New(logger.Log(lgr.Default()), logger.Prefix("[DEBUG]")).Handler)
	}

	s.router.Use(rest.Recoverer(lgr.Default()))
	s.router.Use(rest.Throttle(100))
	s.router.Use(rest.SizeLimit(1024 * 1024)) // 1MB
}

// setupRoutes configures application routes
func (s *Server) setupRoutes() {
	// protected job and admin routes
	s.router.Mount("/api").Route(func(r *routegroup.Bundle) {
		r.Use(s.authMiddleware)
		r.HandleFunc("POST /ingest/run", s.ingestRunHandler)
		r.HandleFunc("POST /summarize/run", s.summarizeRunHandler)
		r.HandleFunc("GET /admin/health", s.healthHandler)
	})

	s.router.HandleFunc("GET /api/search", s.searchHandler)

	s.router.Mount("/api/v1").Route(func(r *routegroup.Bundle) {
		r.HandleFunc("GET /status", s.statusHandler)
		r.HandleFunc("GET /posts", s.listPostsHandler)
		r.HandleFunc("GET /posts/{id}", s.getPostHandler)
		r.HandleFunc("GET /sources", s.listSourcesHandler)
		r.HandleFunc("GET /sources/{id}/posts", s.sourcePostsHandler)
		r.HandleFunc("GET /tags", s.listTagsHandler)
		r.HandleFunc("GET /tags/{tag}/posts", s.tagPostsHandler)
	})

	// RSS routes
	s.router.HandleFunc("GET /rss", s.rssHandler)
	s.router.HandleFunc("GET /rss/tag/{tag}", s.rssHandler)
	s.router.HandleFunc("GET /opml", s.opmlHandler)
}

// renderJSON sends JSON response
func renderJSON(w http.ResponseWriter, _ *http.Request, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("[ERROR] can't encode response to JSON: %v", err)
		}
	}
}

// renderError sends error response as JSON
func renderError(w http.ResponseWriter, r *http.Request, err error, code int) {
	errMsg := "unknown error"
	if err != nil {
		errMsg = err.Error()
	}
	renderJSON(w, r, code, map[string]string{"error": errMsg})
}
