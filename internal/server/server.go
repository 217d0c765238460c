// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the "wiring" layer — the composition root where handlers,
// middleware, and routes are connected. main.go creates a Config and a
// logger; everything else (database, services, handlers, limiters) is
// assembled here. Each layer only receives what it needs: services get
// repository interfaces, handlers get services, and nothing below this
// package knows about routing.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sakif/askbox/internal/auth"
	"github.com/sakif/askbox/internal/handler"
	"github.com/sakif/askbox/internal/logring"
	"github.com/sakif/askbox/internal/middleware"
	sqliteRepo "github.com/sakif/askbox/internal/repository/sqlite"
	"github.com/sakif/askbox/internal/service"
	"github.com/sakif/askbox/internal/validate"
)

// Rate-limit policy. The global limit is generous enough for a busy human;
// the submit limit throttles one asker hammering one inbox.
const (
	globalLimitEvents = 300
	globalLimitWindow = 15 * time.Minute
	submitLimitEvents = 5
	submitLimitWindow = time.Minute
)

// Config holds everything the server needs from the environment.
type Config struct {
	Port      int
	DBPath    string
	JWTSecret string

	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string

	AllowedOrigins []string

	// Debug mounts /debug/logs when a log ring is attached.
	Debug bool
}

// Server owns the router, the database connection, and the optional log
// ring. The database is closed during graceful shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	ring   *logring.Ring
	db     *sqliteRepo.DB
}

// New assembles the full dependency chain: database → services → handlers →
// routes. The ring may be nil; /debug/logs is only mounted when both Debug
// is set and a ring exists.
func New(cfg Config, logger *slog.Logger, ring *logring.Ring) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		ring:   ring,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// MIDDLEWARE ORDER MATTERS:
//  1. RequestID — unique ID per request, for tracing
//  2. RealIP — real client IP from proxy headers (the rate limiter and the
//     submit handler both key on it, so it must run first)
//  3. Recoverer — panics become 500s instead of crashes
//  4. CORS — browser clients live on other origins
//  5. Logger — request logging
//  6. Global rate limit — per client IP, everything below
func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	secrets := auth.NewSecretService()
	github := auth.NewGitHubProvider(
		s.config.GitHubClientID,
		s.config.GitHubClientSecret,
		s.config.GitHubCallbackURL,
	)

	userService := service.NewUserService(s.db, s.db, tokens, secrets, s.logger)
	questionService := service.NewQuestionService(s.db, s.db,
		validate.NewMessagePicker(time.Now().UnixNano()), s.logger)
	answerService := service.NewAnswerService(s.db, s.db, s.logger)
	statsService := service.NewStatsService(s.db, s.db, s.logger)

	userHandler := handler.NewUserHandler(userService, s.logger)
	authHandler := handler.NewAuthHandler(github, userService, s.logger)
	questionHandler := handler.NewQuestionHandler(questionService, s.logger)
	answerHandler := handler.NewAnswerHandler(answerService, s.logger)
	statsHandler := handler.NewStatsHandler(statsService, s.logger)

	requireAuth := auth.RequireAuth(tokens, s.db)
	globalLimit := middleware.RateLimit(
		middleware.NewKeyedLimiter(globalLimitEvents, globalLimitWindow))
	submitLimit := middleware.SubmitRateLimit(
		middleware.NewKeyedLimiter(submitLimitEvents, submitLimitWindow))

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(globalLimit)

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// OAuth dance — browser-facing, outside /api
	s.router.Get("/auth/github/login", authHandler.HandleGitHubLogin)
	s.router.Get("/auth/github/callback", authHandler.HandleGitHubCallback)

	s.router.Route("/api", func(r chi.Router) {
		// Public
		r.Post("/users", userHandler.HandleRegister)
		r.Post("/auth/login", userHandler.HandleLogin)
		r.Get("/users/{handle}", userHandler.HandlePublicProfile)
		r.With(submitLimit).Post("/questions/{handle}", questionHandler.HandleSubmit)
		r.Get("/answers/{handle}", answerHandler.HandleList)
		r.Get("/activity", statsHandler.HandleActivity)

		// Owner-only, behind the bearer middleware
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/me", userHandler.HandleMe)
			r.Put("/users/profile", userHandler.HandleUpdateProfile)
			r.Get("/questions/{handle}/unanswered", questionHandler.HandlePending)
			r.Post("/questions/{id}/answer", questionHandler.HandleAnswer)
			r.Delete("/questions/{id}", questionHandler.HandleDiscard)
			r.Put("/answers/{id}", answerHandler.HandleEdit)
			r.Delete("/answers/{id}", answerHandler.HandleDelete)
			r.Get("/stats/{handle}", statsHandler.HandleStats)
		})
	})

	if s.config.Debug && s.ring != nil {
		s.router.Get("/debug/logs", s.handleDebugLogs)
	}

	return nil
}

// handleDebugLogs dumps the recent-log ring. Mounted only when DEBUG=1.
func (s *Server) handleDebugLogs(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{"entries": s.ring.Recent()}); err != nil {
		s.logger.Error("failed to encode debug logs", slog.String("error", err.Error()))
	}
}

// Handler exposes the assembled router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests (30s),
// close the database (flushes the WAL, releases the file lock).
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
