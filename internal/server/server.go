// Package server sets up the HTTP server, router, and all route definitions.
//
// This is the composition root: the database, services, handlers, and
// middleware are all wired together here, so main.go stays minimal and
// tests can assemble the same router without running main.
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
	"github.com/redis/go-redis/v9"

	"github.com/sakif/blog-api/internal/auth"
	"github.com/sakif/blog-api/internal/config"
	"github.com/sakif/blog-api/internal/handler"
	"github.com/sakif/blog-api/internal/middleware"
	sqliteRepo "github.com/sakif/blog-api/internal/repository/sqlite"
	"github.com/sakif/blog-api/internal/service"
)

// Login attempts per client IP within one window. The limiter only runs
// when Redis is configured.
const (
	loginRateLimit  = 10
	loginRateWindow = time.Minute
)

// Server owns the router and the resources behind it. The database and
// the optional Redis connection are closed during graceful shutdown.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
	rdb    *redis.Client
}

// New assembles the full dependency chain: database, token and password
// services, the service layer, handlers, and routes. Each layer only
// receives what it needs; handlers never touch the database directly.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
		rdb:    config.NewRedisClient(cfg),
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures middleware and routes.
//
// Route structure:
//
//	POST   /token                 → password login (rate limited when Redis is up)
//	GET    /auth/github/login     → GitHub OAuth redirect (when configured)
//	GET    /auth/github/callback  → GitHub OAuth completion
//	POST   /users/                → register
//	GET    /users/                → list users
//	GET    /users/{id}            → get user
//	GET    /users/me              → current user            [auth]
//	PUT    /users/                → update own account      [auth]
//	DELETE /users/                → delete own account      [auth]
//	PUT    /users/{id}            → update account (owner)  [auth]
//	DELETE /users/{id}            → delete account (owner)  [auth]
//	GET    /posts/                → list posts
//	GET    /posts/{id}            → get post
//	POST   /posts/                → create post             [auth]
//	PUT    /posts/{id}            → update post (owner)     [auth]
//	DELETE /posts/{id}            → delete post (owner)     [auth]
//
// Middleware order matters: RequestID and RealIP run first so the logger
// and rate limiter see their values, Recoverer turns panics into 500s.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(chimiddleware.StripSlashes)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.JWTSecret, s.config.AccessTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService(s.config.BcryptCost)

	users := s.db.Users()
	posts := s.db.Posts()

	authService := service.NewAuthService(users, tokens, passwords, s.logger)
	userService := service.NewUserService(users, passwords, s.logger)
	postService := service.NewPostService(posts, s.logger)

	var github *auth.GitHubProvider
	if s.config.GitHubEnabled() {
		github = auth.NewGitHubProvider(s.config.GitHubClientID, s.config.GitHubClientSecret, s.config.GitHubCallbackURL)
	}

	authHandler := handler.NewAuthHandler(authService, github, s.logger)
	userHandler := handler.NewUserHandler(userService, authService, s.logger)
	postHandler := handler.NewPostHandler(postService, s.logger)

	requireAuth := auth.RequireAuth(tokens, users, s.logger)
	loginLimiter := middleware.NewRateLimiter(s.rdb, loginRateLimit, loginRateWindow, s.logger)

	s.router.With(loginLimiter.Limit).Post("/token", authHandler.HandleToken)

	if github != nil {
		s.router.Get("/auth/github/login", authHandler.HandleGitHubLogin)
		s.router.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
	}

	s.router.Route("/users", func(r chi.Router) {
		r.Post("/", userHandler.HandleCreate)
		r.Get("/", userHandler.HandleList)
		r.Get("/{id}", userHandler.HandleGet)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/me", authHandler.HandleMe)
			r.Put("/", userHandler.HandleUpdateSelf)
			r.Delete("/", userHandler.HandleDeleteSelf)
			r.Put("/{id}", userHandler.HandleUpdate)
			r.Delete("/{id}", userHandler.HandleDelete)
		})
	})

	s.router.Route("/posts", func(r chi.Router) {
		r.Get("/", postHandler.HandleList)
		r.Get("/{id}", postHandler.HandleGet)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", postHandler.HandleCreate)
			r.Put("/{id}", postHandler.HandleUpdate)
			r.Delete("/{id}", postHandler.HandleDelete)
		})
	})

	return nil
}

// Router exposes the assembled handler, mainly for httptest servers.
func (s *Server) Router() http.Handler {
	return s.router
}

// Close releases the server's resources without going through Start's
// shutdown path. Tests use this; Start handles it itself.
func (s *Server) Close() error {
	if s.rdb != nil {
		_ = s.rdb.Close()
	}
	return s.db.Close()
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, give in-flight requests 30
// seconds, close the database so the WAL is flushed.
func (s *Server) Start() error {
	defer s.Close()

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
