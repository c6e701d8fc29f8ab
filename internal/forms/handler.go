package forms

import (
	"context"
	"errors"
	"log/slog"

	"github.com/techstackph/techstack/internal/client"
	"github.com/techstackph/techstack/internal/logger"
	"github.com/techstackph/techstack/internal/types"
)

// Submitter is the part of client.Client used to send form data
type Submitter interface {
	Request(ctx context.Context, method, path string, body any) (*client.Response, error)
}

// Result is the outcome of a submission, used to re-render the form
type Result struct {
	Success   bool
	AlertType types.AlertType
	Message   string
	Invalid   map[string]bool   // fields that failed validation
	Values    map[string]string // values to refill the form with (empty after a successful submission)
}

type Handler struct {
	submitter Submitter
	logger    *slog.Logger
}

func NewHandler(submitter Submitter, l *slog.Logger) *Handler {
	if l == nil {
		l = logger.Discard()
	}
	return &Handler{submitter: submitter, logger: l}
}

// Submit validates the values and, when they are valid, sends them to the form's API endpoint as JSON.
//
// Invalid forms are not sent. A successful submission returns the message from the response
// or MsgSuccess when the API did not send one. A failed submission returns the API's message
// when there is one, otherwise MsgFailure.
func (h *Handler) Submit(ctx context.Context, def Definition, values map[string]string) Result {
	if invalid := def.Validate(values); len(invalid) > 0 {
		return Result{
			AlertType: types.AlertDanger,
			Message:   MsgInvalid,
			Invalid:   invalid,
			Values:    values,
		}
	}

	res, err := h.submitter.Request(ctx, def.method(), def.Action, def.Serialize(values))
	if err != nil {
		message := MsgFailure
		var ce *client.ClientError
		if errors.As(err, &ce) && ce.ServerMessage != "" {
			message = ce.ServerMessage
		}

		h.logger.Error("form submission failed",
			slog.String("form", def.Name),
			slog.String("action", def.Action),
			slog.String("error", err.Error()),
		)

		return Result{
			AlertType: types.AlertDanger,
			Message:   message,
			Values:    values,
		}
	}

	var reply types.FormResponse
	if err := res.Decode(&reply); err != nil {
		// the submission went through, only the message is missing
		h.logger.Warn("could not decode form response", slog.String("form", def.Name), slog.String("error", err.Error()))
	}

	message := reply.Message
	if message == "" {
		message = MsgSuccess
	}

	return Result{
		Success:   true,
		AlertType: types.AlertSuccess,
		Message:   message,
	}
}
