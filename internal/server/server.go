package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/techstackph/techstack/internal/config"
	"github.com/techstackph/techstack/internal/handlers"
	"github.com/techstackph/techstack/internal/logger"
	"github.com/techstackph/techstack/internal/routes"
	"github.com/techstackph/techstack/internal/schemas"
	"github.com/techstackph/techstack/internal/site"
	"github.com/techstackph/techstack/internal/store"
)

type Server struct {
	cfg         *config.Config
	corsConfigs *config.CORSConfigs
	store       *store.Store
	validator   *schemas.Validator
	logger      *slog.Logger
	router      *chi.Mux
}

// NewServer creates the http server and registers the routes for the configured service mode:
// "all" serves the content API and the site, "api" the content API only and "site" the site only.
// The site only needs the store and validator when the API is served too (they can be nil in site mode).
func NewServer(cfg *config.Config, corsConfigs *config.CORSConfigs, s *store.Store, validator *schemas.Validator, logger *slog.Logger) *Server {
	srv := &Server{
		cfg:         cfg,
		corsConfigs: corsConfigs,
		store:       s,
		validator:   validator,
		logger:      logger,
		router:      chi.NewRouter(),
	}

	srv.setupMiddleware()
	srv.registerCommonRoutes()

	switch cfg.ServiceMode {
	case "api":
		srv.registerAPIRoutes()
	case "site":
		srv.registerSiteRoutes()
	default:
		srv.registerAPIRoutes()
		srv.registerSiteRoutes()
	}
	return srv
}

// Router returns the http handler, used by tests
func (s *Server) Router() http.Handler {
	return s.router
}

// setupMiddleware sets up the middleware that applies to all server requests.
// Security headers, CORS and request size limits are set per route group.
func (s *Server) setupMiddleware() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(logger.RequestLogging(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(chimiddleware.Timeout(config.RouterTimeout))
}

func (s *Server) registerCommonRoutes() {
	admin := handlers.NewAdminHandler(s.store, s.validator)

	s.router.Get("/health/live", admin.LivenessHandler)
	s.router.Get("/version", admin.VersionHandler)
	s.router.Handle("/metrics", promhttp.Handler())

	if s.cfg.ServiceMode != "site" {
		s.router.Get("/health/ready", admin.ReadinessHandler)
	}
}

func (s *Server) registerAPIRoutes() {
	routes.RegisterRoutes(s.router, s.cfg, s.corsConfigs, s.store, s.validator)
}

func (s *Server) registerSiteRoutes() {
	site.New(s.cfg, s.logger).RegisterRoutes(s.router)
}

// Start runs the server until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	server := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		s.logger.Info("server listening",
			slog.String("address", addr),
			slog.String("environment", s.cfg.Environment),
			slog.String("mode", s.cfg.ServiceMode),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed to start: %w", err)
	case <-ctx.Done():
		s.logger.Info("service shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Server forced to shutdown", slog.String("error", err.Error()))
			return err
		}
	}

	return nil
}
