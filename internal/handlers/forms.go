package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/techstackph/techstack/internal/apperrors"
	"github.com/techstackph/techstack/internal/logger"
	"github.com/techstackph/techstack/internal/response"
	"github.com/techstackph/techstack/internal/schemas"
	"github.com/techstackph/techstack/internal/types"
)

// Messages returned to the site, they are shown to the visitor as is
const (
	MsgContactReceived    = "Thank you for your message. We will get back to you shortly."
	MsgSubscribed         = "Thank you for subscribing!"
	MsgVolunteerReceived  = "Thank you for your application! We will review it and get in touch."
	MsgInvalidJSON        = "Invalid JSON."
	MsgInvalidMethod      = "Invalid request method."
	MsgInvalidSubmission  = "Please fill out all required fields correctly."
	MsgSubmissionTooLarge = "Your submission is too large."
)

// FormRoute is a form endpoint of the content API: /api/<Name>/
type FormRoute struct {
	Name           string
	SuccessMessage string
}

// FormRoutes are the forms the content API accepts
var FormRoutes = []FormRoute{
	{Name: "contact", SuccessMessage: MsgContactReceived},
	{Name: "subscribe", SuccessMessage: MsgSubscribed},
	{Name: "volunteer", SuccessMessage: MsgVolunteerReceived},
}

type FormsHandler struct {
	validator *schemas.Validator
}

func NewFormsHandler(validator *schemas.Validator) *FormsHandler {
	return &FormsHandler{validator: validator}
}

// SubmitHandler returns the handler for one form. Submissions are validated against the form's JSON schema.
//
//	@Summary		Submit a form
//	@Description	Accepts a JSON object with the form fields.
//	@Description	contact: name, email, message. subscribe: email. volunteer: name, email, interest, message (optional).
//	@Tags			Forms
//
//	@Param			request	body		object	true	"form fields"
//
//	@Success		200		{object}	types.FormResponse
//	@Failure		400		{object}	response.ErrorResponse	"Invalid JSON or missing fields"
//	@Failure		405		{object}	response.ErrorResponse
//	@Failure		413		{object}	response.ErrorResponse
//
//	@Router			/api/contact/ [post]
//	@Router			/api/subscribe/ [post]
//	@Router			/api/volunteer/ [post]
func (f *FormsHandler) SubmitHandler(form string, successMessage string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			response.RespondWithError(w, r, http.StatusMethodNotAllowed, apperrors.ErrCodeMethodNotAllowed, MsgInvalidMethod)
			return
		}

		defer r.Body.Close()

		body, err := io.ReadAll(r.Body)
		if err != nil {
			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) {
				response.RespondWithError(w, r, http.StatusRequestEntityTooLarge, apperrors.ErrCodeRequestTooLarge, MsgSubmissionTooLarge)
				return
			}
			response.RespondWithError(w, r, http.StatusBadRequest, apperrors.ErrCodeMalformedBody, MsgInvalidJSON)
			return
		}

		submission, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
		if err != nil {
			logger.ContextRequestLogger(r.Context()).Warn("could not decode form submission",
				slog.String("form", form),
				slog.String("error", err.Error()),
			)
			response.RespondWithError(w, r, http.StatusBadRequest, apperrors.ErrCodeMalformedBody, MsgInvalidJSON)
			return
		}

		if err := f.validator.Validate(form, submission); err != nil {
			logger.ContextRequestLogger(r.Context()).Warn("form submission failed validation",
				slog.String("form", form),
				slog.String("error", err.Error()),
			)
			response.RespondWithError(w, r, http.StatusBadRequest, apperrors.ErrCodeInvalidRequest, MsgInvalidSubmission)
			return
		}

		id := uuid.New()

		// field values are personal data and are not logged
		fields := make([]string, 0)
		if obj, ok := submission.(map[string]any); ok {
			for name := range obj {
				fields = append(fields, name)
			}
			slices.Sort(fields)
		}
		logger.ContextRequestLogger(r.Context()).Info(fmt.Sprintf("%s form submitted", form),
			slog.String("submission_id", id.String()),
			slog.Any("fields", fields),
		)
		logger.ContextWithLogAttrs(r.Context(),
			slog.String("form", form),
			slog.String("submission_id", id.String()),
		)

		response.RespondWithJSON(w, http.StatusOK, types.FormResponse{
			Message:      successMessage,
			SubmissionID: id.String(),
		})
	}
}
