// Package server wires the application together: database, services,
// handlers, middleware, routes, and graceful shutdown. It is the
// composition root — every dependency is constructed and injected here, so
// no package below it holds global state.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/bookline/internal/auth"
	"github.com/sakif/bookline/internal/config"
	"github.com/sakif/bookline/internal/handler"
	"github.com/sakif/bookline/internal/metrics"
	"github.com/sakif/bookline/internal/middleware"
	sqliteRepo "github.com/sakif/bookline/internal/repository/sqlite"
	"github.com/sakif/bookline/internal/service"
)

// Server owns the HTTP router and the resources that must be released on
// shutdown: the database connection and the rate limiter's cleanup
// goroutine.
type Server struct {
	router  *chi.Mux
	config  *config.Config
	logger  *slog.Logger
	db      *sqliteRepo.DB
	limiter *middleware.RateLimiter
}

// New builds the full dependency graph from configuration. Construction
// fails fast: a bad database path or an unusable JWT secret stops the
// process before it ever binds a port.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		logger:  logger,
		db:      db,
		limiter: middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig(cfg.RateLimit, cfg.RateWindow)),
	}

	s.setupRoutes(tokens)
	return s, nil
}

func (s *Server) setupRoutes(tokens *auth.TokenService) {
	collector := metrics.NewCollector()
	passwords := auth.NewPasswordService(s.config.BcryptCost)
	gate := auth.NewGate(tokens, s.db, s.logger)

	authSvc := service.NewAuthService(s.db, tokens, passwords, s.logger)
	socialSvc := service.NewSocialService(s.db, s.db, s.db, collector, s.logger)
	reviewSvc := service.NewReviewService(s.db, s.logger)

	authHandler := handler.NewAuthHandler(authSvc, s.logger)
	socialHandler := handler.NewSocialHandler(socialSvc, s.logger)
	reviewHandler := handler.NewReviewHandler(reviewSvc, s.logger)

	// Global middleware, in order: request ID, real client IP (must precede
	// the per-IP limiter), panic recovery, metrics, logging, rate limit.
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(collector.Middleware())
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(s.limiter.Middleware())

	s.router.Get("/health", s.handleHealth)
	s.router.Method(http.MethodGet, "/metrics", collector.Handler())

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)
		r.With(gate.Require()).Get("/me", authHandler.HandleMe)
	})

	s.router.Route("/users", func(r chi.Router) {
		r.With(gate.Optional()).Get("/{username}", socialHandler.HandleProfile)
		r.With(gate.Optional()).Get("/{username}/followers", socialHandler.HandleFollowers)
		r.With(gate.Optional()).Get("/{username}/following", socialHandler.HandleFollowing)
		r.With(gate.Require()).Post("/{username}/follow", socialHandler.HandleFollowToggle)
	})

	s.router.Route("/reviews", func(r chi.Router) {
		r.With(gate.Require()).Post("/", reviewHandler.HandleCreate)
		r.With(gate.Optional()).Get("/{id}", reviewHandler.HandleGet)
		r.With(gate.Require()).Put("/{id}", reviewHandler.HandleUpdate)
		r.With(gate.Require()).Delete("/{id}", reviewHandler.HandleDelete)
		r.With(gate.Require()).Post("/{id}/like", socialHandler.HandleLikeToggle)
		r.With(gate.Require()).Post("/{id}/comments", socialHandler.HandleAddComment)
		r.With(gate.Optional()).Get("/{id}/comments", socialHandler.HandleListComments)
	})
}

// handleHealth reports whether the store is reachable: 200 when healthy,
// 503 when not. Load balancers key on the status, humans on the body.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := s.db.Ping(); err != nil {
		s.logger.Error("health check failed", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintf(w, `{"status":"unhealthy","timestamp":%q}`, time.Now().Format(time.RFC3339))
		return
	}
	fmt.Fprintf(w, `{"status":"healthy","timestamp":%q}`, time.Now().Format(time.RFC3339))
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests (30s
// budget), stop the limiter, close the database.
func (s *Server) Start() error {
	defer s.db.Close()
	defer s.limiter.Stop()

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
