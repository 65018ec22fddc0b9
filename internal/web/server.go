// Package web exposes the HTTP API for the song quiz: the Spotify OAuth flow
// and the authenticated session, attempt and profile endpoints.
package web

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr string

	// FrontendURL is where the browser app lives; it is the allowed CORS
	// origin, and the OAuth callback redirects there with the issued API
	// token.
	FrontendURL string
}

// Server is the HTTP server for the quiz API.
type Server struct {
	router      chi.Router
	server      *http.Server
	handlers    *Handlers
	logger      *zap.Logger
	frontendURL string
}

// NewServer creates a new API server around the given handlers.
func NewServer(cfg ServerConfig, handlers *Handlers, logger *zap.Logger) *Server {
	router := chi.NewRouter()

	s := &Server{
		router:      router,
		handlers:    handlers,
		logger:      logger,
		frontendURL: cfg.FrontendURL,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware for the router.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	// The frontend is served from a different origin and authenticates with
	// a bearer header, so preflights must be answered here.
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{s.frontendURL},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

// setupRoutes configures routes for the application.
func (s *Server) setupRoutes() {
	// OAuth flow
	s.router.Get("/auth/login", s.handlers.Login)
	s.router.Get("/auth/callback", s.handlers.Callback)

	// Authenticated API
	s.router.Route("/api", func(r chi.Router) {
		r.Use(s.handlers.RequireUser)

		r.Post("/session", s.handlers.CreateSession)
		r.Get("/session/{id}", s.handlers.GetSession)
		r.Post("/session/{id}/join", s.handlers.JoinSession)
		r.Get("/attempt/{id}", s.handlers.GetAttempt)
		r.Post("/attempt/{id}/results", s.handlers.SubmitResults)

		r.Get("/me/playlists", s.handlers.MePlaylists)
		r.Get("/me/token", s.handlers.MeToken)
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting server", zap.String("addr", s.server.Addr))
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Run starts the server and handles graceful shutdown on interrupt signals.
func (s *Server) Run() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

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
