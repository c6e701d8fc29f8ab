// Package site serves the public website: the page shell and the htmx fragments for the feeds, forms and loading indicator.
//
// Feed and form data comes from the content API through a client.Client, so the site can run in the same
// process as the API or against a separate API deployment (API_BASE_URL).
package site

import (
	"embed"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/techstackph/techstack/internal/client"
	"github.com/techstackph/techstack/internal/config"
	"github.com/techstackph/techstack/internal/content"
	"github.com/techstackph/techstack/internal/forms"
	"github.com/techstackph/techstack/internal/middleware"
)

//go:embed static
var staticFiles embed.FS

type Site struct {
	Title       string
	Environment string
	Client      *client.Client
	Indicator   *client.LoadingIndicator
	Feeds       []content.Feed
	Forms       []forms.Definition
	FormHandler *forms.Handler
	Logger      *slog.Logger
}

// New creates the site with the default feeds and forms.
// All requests to the content API share one loading indicator, which the page polls through /ui-api/loader.
func New(cfg *config.Config, logger *slog.Logger) *Site {
	indicator := client.NewLoadingIndicator(func(visible bool) {
		logger.Debug("loading indicator changed", slog.Bool("visible", visible))
	})

	opts := []client.Option{
		client.WithIndicator(indicator),
		client.WithLogger(logger),
		client.WithTimeout(cfg.ClientTimeout),
		client.WithRetryLimit(cfg.ClientRetryLimit),
	}
	if cfg.SiteAPIToken != "" {
		opts = append(opts, client.WithHeader(middleware.SiteTokenHeader, cfg.SiteAPIToken))
	}
	apiClient := client.NewClient(cfg.APIBaseURL, opts...)

	return &Site{
		Title:       cfg.SiteTitle,
		Environment: cfg.Environment,
		Client:      apiClient,
		Indicator:   indicator,
		Feeds:       content.DefaultFeeds(),
		Forms:       forms.DefaultForms(),
		FormHandler: forms.NewHandler(apiClient, logger),
		Logger:      logger,
	}
}

// RegisterRoutes registers the site routes on the supplied router
func (s *Site) RegisterRoutes(router chi.Router) {
	static, err := fs.Sub(staticFiles, "static")
	if err != nil {
		// the embedded directory is fixed at build time
		panic(err)
	}

	router.Group(func(r chi.Router) {
		r.Use(middleware.SecurityHeaders(s.Environment, middleware.SiteContentSecurityPolicy))

		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

		r.Get("/", s.HandleHome)

		// fragments requested by htmx
		r.Route("/ui-api", func(r chi.Router) {
			r.Get("/feeds/{feed}", s.HandleFeed)
			r.Post("/forms/{form}", s.HandleFormPost)
			r.Get("/loader", s.HandleLoader)
		})
	})
}
