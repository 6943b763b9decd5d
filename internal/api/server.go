package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mattjoyce/quickpanel/internal/audit"
	"github.com/mattjoyce/quickpanel/internal/auth"
	"github.com/mattjoyce/quickpanel/internal/dialog"
	"github.com/mattjoyce/quickpanel/internal/events"
	"github.com/mattjoyce/quickpanel/internal/router"
)

// DialogRouter is the part of the router the API drives.
type DialogRouter interface {
	Show(name string, opts dialog.Options) error
	Hide(name string) error
	Close(name string) error
	Dismissed(name string) error
	List() []router.Info
	Describe(name string) (router.Info, bool)
	Suggest(name string) (string, bool)
}

// SessionController reads and changes the keyed-in token.
type SessionController interface {
	Token() (string, bool)
	SetToken(token string)
	KeyOut() bool
}

// LogReader serves GET /log.
type LogReader interface {
	Recent(ctx context.Context, f audit.Filter) ([]audit.Entry, error)
}

// EventSource feeds GET /events.
type EventSource interface {
	Subscribe(prefixes ...string) (<-chan events.Event, func())
	SnapshotSince(lastID int64) []events.Event
}

// Config holds API server configuration
type Config struct {
	Listen string
	// APIKey is a single bearer token with full access.
	APIKey string
	// Tokens is an optional list of scoped bearer tokens.
	Tokens []auth.TokenConfig
	// KeepAlive is the SSE comment interval. Zero means 15s.
	KeepAlive time.Duration
}

// Server represents the HTTP API server
type Server struct {
	config    Config
	dialogs   DialogRouter
	session   SessionController
	log       LogReader
	events    EventSource
	logger    *slog.Logger
	server    *http.Server
	startedAt time.Time
}

// New creates a new API server instance. log may be nil when no audit
// database is configured.
func New(config Config, dialogs DialogRouter, session SessionController, log LogReader, hub EventSource, logger *slog.Logger) *Server {
	if config.KeepAlive <= 0 {
		config.KeepAlive = 15 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		config:    config,
		dialogs:   dialogs,
		session:   session,
		log:       log,
		events:    hub,
		logger:    logger.With("component", "api"),
		startedAt: time.Now(),
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

// Start starts the HTTP server and blocks until ctx ends or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:        s.config.Listen,
		Handler:     s.setupRoutes(),
		ReadTimeout: 10 * time.Second,
		// No WriteTimeout: /events streams for as long as the client stays.
		IdleTimeout: 60 * time.Second,
	}

	s.logger.Info("API server starting", "listen", s.config.Listen)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("API server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
}

func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/openapi.json", s.handleOpenAPI)

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.With(s.requireScopes(auth.ScopeDialogsRO)).Get("/dialogs", s.handleListDialogs)
		r.With(s.requireScopes(auth.ScopeDialogsRO)).Get("/dialogs/{name}", s.handleGetDialog)
		r.Group(func(r chi.Router) {
			r.Use(s.requireScopes(auth.ScopeDialogsRW))
			r.Post("/dialogs/{name}/show", s.handleShow)
			r.Post("/dialogs/{name}/hide", s.handleHide)
			r.Post("/dialogs/{name}/close", s.handleClose)
			r.Post("/dialogs/{name}/closed", s.handleClosed)
		})

		r.With(s.requireScopes(auth.ScopeSessionRO)).Get("/session", s.handleGetSession)
		r.With(s.requireScopes(auth.ScopeSessionRW)).Put("/session", s.handlePutSession)
		r.With(s.requireScopes(auth.ScopeSessionRW)).Post("/session/keyout", s.handleKeyOut)

		r.With(s.requireScopes(auth.ScopeEventsRO)).Get("/events", s.handleEvents)
		r.With(s.requireScopes(auth.ScopeLogRO, auth.ScopeDialogsRO)).Get("/log", s.handleLog)
	})

	return r
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
