// Package server is the composition root: it wires the repositories,
// services, and handlers together and owns the HTTP lifecycle.
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

	"github.com/sakif/snippet-hub/internal/auth"
	"github.com/sakif/snippet-hub/internal/handler"
	"github.com/sakif/snippet-hub/internal/middleware"
	sqliteRepo "github.com/sakif/snippet-hub/internal/repository/sqlite"
	"github.com/sakif/snippet-hub/internal/service"
)

// Config holds server configuration, loaded from the environment in
// cmd/server.
type Config struct {
	Port   int
	DBPath string

	// JWTSecret signs session tokens. Required.
	JWTSecret string

	// GitHub OAuth credentials. When the client ID is empty the OAuth
	// routes respond 503 but the rest of the API works.
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string

	// MaxCodeSize bounds a single script body in bytes; <= 0 uses the
	// service default.
	MaxCodeSize int
}

// Server owns the router and the database connection; the connection is
// closed during graceful shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the full dependency chain: database, services, handlers,
// routes. Each layer only receives the interfaces it programs against.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes wires middleware, services, and handlers to URL patterns.
//
// Route map:
//
//	POST   /api/auth/signup              signup
//	POST   /api/auth/login               login
//	POST   /api/auth/logout              logout
//	GET    /auth/github/login            OAuth redirect
//	GET    /auth/github/callback         OAuth callback
//	GET    /api/me                       current user          [auth]
//	GET    /api/snippets                 list snippets
//	GET    /api/snippets/{id}            get snippet
//	POST   /api/snippets                 create snippet        [auth]
//	PUT    /api/snippets/{id}            update snippet        [auth]
//	DELETE /api/snippets/{id}            delete snippet        [auth]
//	POST   /api/snippets/{id}/like       like                  [auth]
//	DELETE /api/snippets/{id}/like       unlike                [auth]
//	GET    /api/snippets/{id}/comments   list comments
//	POST   /api/snippets/{id}/comments   comment               [auth]
//	POST   /api/users/points             apply point action    [auth]
//	GET    /api/users/{id}               public profile
//	POST   /api/users/{id}/follow        follow                [auth]
//	DELETE /api/users/{id}/follow        unfollow              [auth]
//	GET    /api/leaderboard              ranked users
//	GET    /api/search                   faceted search
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	var github *auth.GitHubProvider
	if s.config.GitHubClientID != "" {
		github = auth.NewGitHubProvider(
			s.config.GitHubClientID,
			s.config.GitHubClientSecret,
			s.config.GitHubCallbackURL,
		)
	} else {
		s.logger.Warn("GitHub OAuth not configured; /auth/github routes will return 503")
	}

	// Services. The sqlite DB satisfies every repository interface.
	engagementSvc := service.NewEngagementService(s.db, s.db, s.db, s.logger)
	snippetSvc := service.NewSnippetService(s.db, engagementSvc, s.config.MaxCodeSize, s.logger)
	searchSvc := service.NewSearchService(s.db, s.logger)
	leaderboardSvc := service.NewLeaderboardService(s.db, s.logger)
	authSvc := service.NewAuthService(s.db, auth.NewPasswordService(), tokens, s.logger)
	userSvc := service.NewUserService(s.db, s.logger)

	authHandler := handler.NewAuthHandler(authSvc, github, s.logger)
	snippetHandler := handler.NewSnippetHandler(snippetSvc, s.logger)
	engagementHandler := handler.NewEngagementHandler(engagementSvc, s.logger)
	leaderboardHandler := handler.NewLeaderboardHandler(leaderboardSvc, s.logger)
	searchHandler := handler.NewSearchHandler(searchSvc, s.logger)
	userHandler := handler.NewUserHandler(userSvc, s.logger)

	requireAuth := auth.RequireAuth(tokens)

	s.router.Get("/auth/github/login", authHandler.HandleGitHubLogin)
	s.router.Get("/auth/github/callback", authHandler.HandleGitHubCallback)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/auth/signup", authHandler.HandleSignup)
		r.Post("/auth/login", authHandler.HandleLogin)
		r.Post("/auth/logout", authHandler.HandleLogout)

		// Public reads.
		r.Get("/snippets", snippetHandler.HandleList)
		r.Get("/snippets/{id}", snippetHandler.HandleGetByID)
		r.Get("/snippets/{id}/comments", engagementHandler.HandleListComments)
		r.Get("/users/{id}", userHandler.HandleProfile)
		r.Get("/leaderboard", leaderboardHandler.HandleRank)
		r.Get("/search", searchHandler.HandleSearch)

		// Authenticated writes.
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Get("/me", authHandler.HandleMe)
			r.Post("/snippets", snippetHandler.HandleCreate)
			r.Put("/snippets/{id}", snippetHandler.HandleUpdate)
			r.Delete("/snippets/{id}", snippetHandler.HandleDelete)
			r.Post("/snippets/{id}/like", engagementHandler.HandleLike)
			r.Delete("/snippets/{id}/like", engagementHandler.HandleUnlike)
			r.Post("/snippets/{id}/comments", engagementHandler.HandleComment)
			r.Post("/users/points", engagementHandler.HandlePoints)
			r.Post("/users/{id}/follow", userHandler.HandleFollow)
			r.Delete("/users/{id}/follow", userHandler.HandleUnfollow)
		})
	})

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests, close
// the database so the WAL is flushed.
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
