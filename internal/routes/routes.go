package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/techstackph/techstack/internal/config"
	"github.com/techstackph/techstack/internal/handlers"
	"github.com/techstackph/techstack/internal/middleware"
	"github.com/techstackph/techstack/internal/schemas"
	"github.com/techstackph/techstack/internal/store"
)

// RegisterRoutes registers the content API: the feeds read by the site and the form endpoints it posts to
func RegisterRoutes(r chi.Router, cfg *config.Config, corsConfigs *config.CORSConfigs, s *store.Store, validator *schemas.Validator) {
	contentHandler := handlers.NewContentHandler(s)
	formsHandler := handlers.NewFormsHandler(validator)

	r.Group(func(r chi.Router) {
		r.Use(middleware.SecurityHeaders(cfg.Environment, middleware.APIContentSecurityPolicy))
		r.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, cfg.SiteAPIToken))

		// feeds
		r.Group(func(r chi.Router) {
			r.Use(middleware.CORS(corsConfigs.Public))

			for _, feed := range []string{store.FeedEvents, store.FeedBlog, store.FeedPrograms} {
				r.Get("/api/"+feed+"/", contentHandler.ListHandler(feed))
				r.Get("/api/"+feed+"/{slug}", contentHandler.GetHandler(feed))
			}
		})

		// forms - every method is routed to the handler so the API can answer with its own error message
		r.Group(func(r chi.Router) {
			r.Use(middleware.CORS(corsConfigs.Protected))
			r.Use(middleware.RequestSizeLimit(cfg.MaxAPIRequestSize))

			for _, form := range handlers.FormRoutes {
				r.HandleFunc("/api/"+form.Name+"/", formsHandler.SubmitHandler(form.Name, form.SuccessMessage))
			}
		})
	})
}
