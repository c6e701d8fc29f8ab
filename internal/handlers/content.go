package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/techstackph/techstack/internal/apperrors"
	"github.com/techstackph/techstack/internal/logger"
	"github.com/techstackph/techstack/internal/response"
	"github.com/techstackph/techstack/internal/store"
)

type ContentHandler struct {
	store *store.Store
}

func NewContentHandler(s *store.Store) *ContentHandler {
	return &ContentHandler{store: s}
}

// ListHandler returns the handler for one feed
//
//	@Summary		List content
//	@Description	Returns every item of the feed in publication order. Items always have a title and a slug,
//	@Description	the other fields depend on the feed (events: date, location; blog: author, date; programs: description).
//	@Tags			Content
//
//	@Success		200	{array}		types.ContentItem
//	@Failure		405	{object}	response.ErrorResponse
//
//	@Router			/api/events/ [get]
//	@Router			/api/blog/ [get]
//	@Router			/api/programs/ [get]
func (c *ContentHandler) ListHandler(feed string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, ok := c.store.List(feed)
		if !ok {
			response.RespondWithError(w, r, http.StatusNotFound, apperrors.ErrCodeResourceNotFound, fmt.Sprintf("no %s feed", feed))
			return
		}

		logger.ContextWithLogAttrs(r.Context(),
			slog.String("feed", feed),
			slog.Int("items", len(items)),
		)

		response.RespondWithJSON(w, http.StatusOK, items)
	}
}

// GetHandler godoc
//
//	@Summary	Get a content item
//	@Tags		Content
//
//	@Param		slug	path		string	true	"item slug"	example(annual-tech-summit-2024)
//
//	@Success	200		{object}	types.ContentItem
//	@Failure	404		{object}	response.ErrorResponse
//
//	@Router		/api/events/{slug} [get]
//	@Router		/api/blog/{slug} [get]
//	@Router		/api/programs/{slug} [get]
func (c *ContentHandler) GetHandler(feed string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")

		item, ok := c.store.Get(feed, slug)
		if !ok {
			response.RespondWithError(w, r, http.StatusNotFound, apperrors.ErrCodeResourceNotFound, fmt.Sprintf("%s not found: %s", feed, slug))
			return
		}
		response.RespondWithJSON(w, http.StatusOK, item)
	}
}
