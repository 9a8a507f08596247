package web

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/justestif/go-spotify-playlist-sorter/internal/attributes"
	"github.com/justestif/go-spotify-playlist-sorter/internal/auth"
	"github.com/justestif/go-spotify-playlist-sorter/internal/config"
	"github.com/justestif/go-spotify-playlist-sorter/internal/db"
	"github.com/justestif/go-spotify-playlist-sorter/internal/songdata"
	"github.com/justestif/go-spotify-playlist-sorter/internal/sorter"
)

// ServerConfig holds server dependencies. Database may be nil, in which
// case sessions, attribute caches and sort runs live in memory only.
type ServerConfig struct {
	Config      *config.Config
	Database    *db.DB
	TemplatesFS fs.FS
	StaticFS    fs.FS
	Logger      *log.Logger
}

// sessionSweepInterval is how often expired database sessions are purged.
const sessionSweepInterval = time.Hour

// Server is the HTTP server for the web application.
type Server struct {
	router   chi.Router
	server   *http.Server
	handlers *Handlers
	database *db.DB
	logger   *log.Logger
}

// NewServer creates a new web server.
func NewServer(cfg ServerConfig) (*Server, error) {
	templates, err := NewTemplates(cfg.TemplatesFS)
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}

	scraper := songdata.NewClient(cfg.Logger)

	var (
		sessions  SessionManager
		attrStore attributes.Store
		runs      sorter.RunStore
	)
	if cfg.Database != nil {
		sessions = NewDBSessionStore(cfg.Database)
		attrStore = attributes.NewDBStore(cfg.Database)
		runs = sorter.NewDBRunStore(cfg.Database)
	} else {
		sessions = NewSessionStore()
		attrStore = attributes.NewMemoryStore()
		runs = sorter.NewMemoryRunStore()
	}

	attrs := attributes.NewService(scraper, attrStore, cfg.Logger)
	handlers := NewHandlers(
		auth.NewSpotifyAuth(cfg.Config),
		sessions,
		templates,
		attrs,
		runs,
		cfg.Database,
		cfg.Config.Sequence,
		cfg.Logger,
	)

	router := chi.NewRouter()
	s := &Server{
		router:   router,
		handlers: handlers,
		database: cfg.Database,
		logger:   cfg.Logger,
	}

	s.setupMiddleware()
	s.setupRoutes(cfg.StaticFS)

	s.server = &http.Server{
		Addr:         cfg.Config.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// setupMiddleware configures middleware for the router.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

// setupRoutes configures routes for the application.
func (s *Server) setupRoutes(staticFS fs.FS) {
	fileServer := http.FileServer(http.FS(staticFS))
	s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	s.router.Get("/", s.handlers.Home)

	s.router.Get("/auth/login", s.handlers.Login)
	s.router.Get("/callback", s.handlers.Callback)
	s.router.Post("/auth/logout", s.handlers.Logout)

	s.router.Get("/playlists", s.handlers.Playlists)
	s.router.Get("/playlists/{id}", s.handlers.Playlist)
	s.router.Post("/playlists/{id}/sort", s.handlers.Sort)
	s.router.Get("/runs/{id}", s.handlers.Run)
	s.router.Post("/runs/{id}/apply", s.handlers.Apply)
	s.router.Get("/history", s.handlers.History)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting server", "url", "http://"+s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// sweepSessions periodically purges expired database sessions.
func (s *Server) sweepSessions(ctx context.Context) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.database.Sessions().DeleteExpired(ctx)
			if err != nil {
				s.logger.Warn("purging expired sessions failed", "err", err)
			} else if n > 0 {
				s.logger.Info("purged expired sessions", "count", n)
			}
		}
	}
}

// Run starts the server and handles graceful shutdown on interrupt signals.
func (s *Server) Run() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	if s.database != nil {
		sweepCtx, cancelSweep := context.WithCancel(context.Background())
		defer cancelSweep()
		go s.sweepSessions(sweepCtx)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-stop:
		s.logger.Info("shutting down server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}
