package site

import (
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"github.com/techstackph/techstack/internal/content"
	"github.com/techstackph/techstack/internal/forms"
	"github.com/techstackph/techstack/internal/logger"
	"github.com/techstackph/techstack/internal/templates"
	"github.com/techstackph/techstack/internal/types"
)

// HandleHome renders the page shell. Each feed container starts with skeleton cards and loads its fragment on page load.
func (s *Site) HandleHome(w http.ResponseWriter, r *http.Request) {
	feeds := make([]templates.FeedSection, 0, len(s.Feeds))
	for _, feed := range s.Feeds {
		feeds = append(feeds, templates.FeedSection{
			ID:            feed.ID(),
			Title:         feed.Title,
			FragmentURL:   "/ui-api/feeds/" + feed.Key,
			SkeletonCount: content.SkeletonCount,
		})
	}

	sections := make([]templates.FormSection, 0, len(s.Forms))
	for _, def := range s.Forms {
		sections = append(sections, formSection(def))
	}

	s.render(w, r, templates.HomePage(s.Title, feeds, sections), "home page")
}

// HandleFeed fetches a feed from the content API and returns the rendered container contents:
// the item cards, or the empty or error notice.
//
// Every request gets its own page and loader so concurrent visitors never cancel each other's requests.
func (s *Site) HandleFeed(w http.ResponseWriter, r *http.Request) {
	reqLogger := logger.ContextRequestLogger(r.Context())

	feed, ok := content.FindFeed(s.Feeds, chi.URLParam(r, "feed"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	page := content.NewPage()
	region := page.Mount(feed.Selector)

	loader := content.NewLoader(s.Client, page, s.Feeds, reqLogger)
	state := loader.FetchAndRender(r.Context(), feed)

	logger.ContextWithLogAttrs(r.Context(),
		slog.String("feed", feed.Key),
		slog.String("feed_state", string(state)),
	)

	s.render(w, r, region, "feed")
}

// HandleFormPost validates and submits a site form, then re-renders the form with the outcome.
// Fields that failed validation are flagged and the submitted values are kept, a successful submission resets the form.
func (s *Site) HandleFormPost(w http.ResponseWriter, r *http.Request) {
	reqLogger := logger.ContextRequestLogger(r.Context())

	def, ok := forms.Find(s.Forms, chi.URLParam(r, "form"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	if err := r.ParseForm(); err != nil {
		reqLogger.Warn("could not parse form", slog.String("form", def.Name), slog.String("error", err.Error()))
		s.render(w, r, templates.Form(formSection(def), templates.FormState{
			Alert: templates.Alert(types.AlertDanger, forms.MsgFailure),
		}), "form")
		return
	}

	result := s.FormHandler.Submit(r.Context(), def, forms.Values(r.PostForm))

	logger.ContextWithLogAttrs(r.Context(),
		slog.String("form", def.Name),
		slog.Bool("submitted", result.Success),
	)

	s.render(w, r, templates.Form(formSection(def), templates.FormState{
		Values:  result.Values,
		Invalid: result.Invalid,
		Alert:   templates.Alert(result.AlertType, result.Message),
	}), "form")
}

// HandleLoader returns the loading indicator, visible while any request to the content API is in flight
func (s *Site) HandleLoader(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, templates.Loader(s.Indicator.Visible()), "loader")
}

func (s *Site) render(w http.ResponseWriter, r *http.Request, component templ.Component, name string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := component.Render(r.Context(), w); err != nil {
		reqLogger := logger.ContextRequestLogger(r.Context())
		reqLogger.Error("Failed to render "+name, slog.String("error", err.Error()))
	}
}

func formSection(def forms.Definition) templates.FormSection {
	return templates.FormSection{
		Name:    def.Name,
		Title:   def.Title,
		PostURL: "/ui-api/forms/" + def.Name,
		Fields:  def.Fields,
	}
}
