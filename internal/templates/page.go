package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
	"github.com/techstackph/techstack/internal/types"
)

// Third party assets loaded by the page shell, the site CSP allows these hosts
const (
	BulmaURL = "https://cdn.jsdelivr.net/npm/bulma@1.0.2/css/bulma.min.css"
	HtmxURL  = "https://unpkg.com/htmx.org@2.0.3/dist/htmx.min.js"
)

// FeedSection is a feed container on the home page. The container starts with skeleton cards
// and htmx replaces them with the fragment served at FragmentURL.
type FeedSection struct {
	ID            string // element id, e.g. events-list
	Title         string
	FragmentURL   string
	SkeletonCount int
}

// FormSection is a form submitted through the ui-api. Forms carry the data-ajax-form marker attribute.
type FormSection struct {
	Name    string
	Title   string
	PostURL string
	Fields  []types.FormField
}

// Alert renders a form message
func Alert(alertType types.AlertType, message string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return write(w,
			`<div class="form-messages"><div class="notification is-`, string(alertType), `">`,
			templ.EscapeString(message),
			`</div></div>`,
		)
	})
}

// Loader renders the global loading indicator, polled by the page while feeds load
func Loader(visible bool) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		class := "loader-overlay is-hidden"
		if visible {
			class = "loader-overlay"
		}
		return write(w,
			`<div id="global-loader" class="`, class, `" hx-get="/ui-api/loader" hx-trigger="every 1s" hx-swap="outerHTML">`,
			`<span class="loader"></span></div>`,
		)
	})
}

// FormState is the state a form is re-rendered with after a submission
type FormState struct {
	Values  map[string]string // submitted values, kept when the submission failed
	Invalid map[string]bool   // fields flagged with is-invalid
	Alert   templ.Component   // success or error message shown above the fields
}

// Form renders an htmx form. The server replies to a submission with the re-rendered form.
func Form(form FormSection, state FormState) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := write(w,
			`<form class="ajax-form" data-ajax-form="`, templ.EscapeString(form.Name), `" method="POST" `,
			`hx-post="`, attr(form.PostURL), `" hx-target="this" hx-swap="outerHTML">`,
		); err != nil {
			return err
		}

		if state.Alert != nil {
			if err := state.Alert.Render(ctx, w); err != nil {
				return err
			}
		}

		for _, field := range form.Fields {
			class := "input"
			if field.Type == "textarea" {
				class = "textarea"
			}
			if state.Invalid[field.Name] {
				class += " is-invalid"
			}
			required := ""
			if field.Required {
				required = " required"
			}

			name := templ.EscapeString(field.Name)
			value := templ.EscapeString(state.Values[field.Name])
			if err := write(w, `<div class="field"><label class="label" for="`, name, `">`, templ.EscapeString(field.Label), `</label><div class="control">`); err != nil {
				return err
			}

			var err error
			if field.Type == "textarea" {
				err = write(w, `<textarea class="`, class, `" id="`, name, `" name="`, name, `"`, required, `>`, value, `</textarea>`)
			} else {
				err = write(w, `<input class="`, class, `" type="`, templ.EscapeString(field.Type), `" id="`, name, `" name="`, name, `" value="`, value, `"`, required, `>`)
			}
			if err != nil {
				return err
			}
			if err := write(w, `</div></div>`); err != nil {
				return err
			}
		}

		return write(w, `<div class="field"><div class="control"><button type="submit" class="button is-primary">Submit</button></div></div></form>`)
	})
}

// HomePage renders the page shell: loader, feed containers with skeletons, and the site forms
func HomePage(title string, feeds []FeedSection, forms []FormSection) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := write(w,
			`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`,
			`<meta name="viewport" content="width=device-width, initial-scale=1">`,
			`<title>`, templ.EscapeString(title), `</title>`,
			`<link rel="stylesheet" href="`, BulmaURL, `">`,
			`<link rel="stylesheet" href="/static/css/site.css">`,
			`<script src="`, HtmxURL, `" defer></script>`,
			`</head><body>`,
		); err != nil {
			return err
		}

		if err := Loader(false).Render(ctx, w); err != nil {
			return err
		}

		for _, feed := range feeds {
			if err := write(w,
				`<section class="section"><div class="container"><h2 class="title">`, templ.EscapeString(feed.Title), `</h2>`,
				`<div id="`, templ.EscapeString(feed.ID), `" class="columns is-multiline" `,
				`hx-get="`, attr(feed.FragmentURL), `" hx-trigger="load" hx-swap="innerHTML">`,
			); err != nil {
				return err
			}
			if err := Skeletons(feed.SkeletonCount).Render(ctx, w); err != nil {
				return err
			}
			if err := write(w, `</div></div></section>`); err != nil {
				return err
			}
		}

		for _, form := range forms {
			if err := write(w, `<section class="section"><div class="container"><h2 class="title">`, templ.EscapeString(form.Title), `</h2>`); err != nil {
				return err
			}
			if err := Form(form, FormState{}).Render(ctx, w); err != nil {
				return err
			}
			if err := write(w, `</div></section>`); err != nil {
				return err
			}
		}

		return write(w, `</body></html>`)
	})
}
