package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/techstackph/techstack/internal/response"
	"github.com/techstackph/techstack/internal/schemas"
	"github.com/techstackph/techstack/internal/store"
	"github.com/techstackph/techstack/internal/version"
)

type AdminHandler struct {
	store     *store.Store
	validator *schemas.Validator
}

func NewAdminHandler(s *store.Store, validator *schemas.Validator) *AdminHandler {
	return &AdminHandler{store: s, validator: validator}
}

// ready reports why the content API cannot serve every route yet, or nil
func (a *AdminHandler) ready() error {
	if a.store == nil {
		return errors.New("no content loaded")
	}
	if a.validator == nil {
		return errors.New("form schemas not compiled")
	}
	for _, form := range FormRoutes {
		if !a.validator.Has(form.Name) {
			return fmt.Errorf("no schema for the %s form", form.Name)
		}
	}
	return nil
}

// ReadinessHandler godoc
//
//	@Summary		Readiness Check
//	@Description	Check if the content API has content loaded and a compiled schema for every form endpoint.
//	@Tags			Health
//	@Produce		plain
//
//	@Success		200	{string}	string	"OK - Service is ready"
//	@Failure		503	{string}	string	"Service Unavailable - the reason is in the body"
//
//	@Router			/health/ready [get]
func (a *AdminHandler) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	if err := a.ready(); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("Service Unavailable: " + err.Error()))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// LivenessHandler godoc
//
//	@Summary		Liveness Check
//	@Description	Check if the http service is alive and responding.
//	@Tags			Health
//	@Produce		plain
//
//	@Success		200	{string}	string	"OK - Service is alive"
//
//	@Router			/health/live [get]
func (a *AdminHandler) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// VersionHandler godoc
//
//	@Summary		Get API version
//	@Description	Returns the current version details
//	@Tags			Site Admin
//
//	@Success		200	{object}	version.Info
//
//	@Router			/version [get]
func (a *AdminHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	response.RespondWithJSON(w, http.StatusOK, version.Get())
}
