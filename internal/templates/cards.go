// Package templates holds the HTML components rendered by the site.
//
// Components are templ.Components so they can be rendered directly to a response or appended to a content region.
// All item text is escaped - content comes from the API and is not trusted.
package templates

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/a-h/templ"
	"github.com/techstackph/techstack/internal/types"
)

const skeletonCardHTML = `<div class="column is-one-third"><div class="card skeleton-loader" aria-hidden="true">` +
	`<div class="card-image"><figure class="image is-4by3 placeholder"></figure></div>` +
	`<div class="card-content"><div class="media"><div class="media-content">` +
	`<p class="title is-4 placeholder"></p><p class="subtitle is-6 placeholder"></p>` +
	`</div></div></div></div></div>`

// SkeletonCard is the placeholder shown while a feed is loading
func SkeletonCard() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, skeletonCardHTML)
		return err
	})
}

// Skeletons renders count skeleton cards
func Skeletons(count int) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, strings.Repeat(skeletonCardHTML, count))
		return err
	})
}

// card is the markup shared by all feed cards
type card struct {
	imageURL string
	title    string
	body     string // already escaped
	link     string
	linkText string
}

func (c card) render(w io.Writer) error {
	return write(w,
		`<div class="column is-one-third"><div class="card">`,
		`<div class="card-image"><figure class="image is-4by3"><img src="`, attr(c.imageURL), `" alt="`, templ.EscapeString(c.title), `"></figure></div>`,
		`<div class="card-content"><p class="title is-5">`, templ.EscapeString(c.title), `</p>`, c.body, `</div>`,
		`<footer class="card-footer"><a href="`, attr(c.link), `" class="card-footer-item">`, c.linkText, `</a></footer>`,
		`</div></div>`,
	)
}

// EventCard renders an event with its date and location
func EventCard(item types.ContentItem) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return card{
			imageURL: item.Image(),
			title:    item.Title,
			body:     fmt.Sprintf(`<p class="subtitle is-6">%s at %s</p>`, templ.EscapeString(item.Date), templ.EscapeString(item.Location)),
			link:     "/events/" + url.PathEscape(item.Slug),
			linkText: "Learn More",
		}.render(w)
	})
}

// BlogCard renders a blog post with its author and date
func BlogCard(item types.ContentItem) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return card{
			imageURL: item.Image(),
			title:    item.Title,
			body:     fmt.Sprintf(`<p class="subtitle is-6">By %s on %s</p>`, templ.EscapeString(item.Author), templ.EscapeString(item.Date)),
			link:     "/news/" + url.PathEscape(item.Slug),
			linkText: "Read More",
		}.render(w)
	})
}

// ProgramCard renders a program with its description
func ProgramCard(item types.ContentItem) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return card{
			imageURL: item.Image(),
			title:    item.Title,
			body:     "<p>" + templ.EscapeString(item.Description) + "</p>",
			link:     "/programs/" + url.PathEscape(item.Slug),
			linkText: "Details",
		}.render(w)
	})
}

// EmptyNotice is shown when a feed returned no items
func EmptyNotice(feedName string) templ.Component {
	return notice("is-light", fmt.Sprintf("No %s found.", feedName))
}

// ErrorNotice is shown when a feed could not be loaded
func ErrorNotice(feedName string) templ.Component {
	return notice("is-danger", fmt.Sprintf("Error loading %s. Please try again later.", feedName))
}

func notice(class, message string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return write(w,
			`<div class="column is-full"><div class="notification `, class, ` has-text-centered">`,
			templ.EscapeString(message),
			`</div></div>`,
		)
	})
}

// attr sanitizes a URL and escapes it for use in an attribute
func attr(rawURL string) string {
	return templ.EscapeString(string(templ.URL(rawURL)))
}

func write(w io.Writer, parts ...string) error {
	for _, p := range parts {
		if _, err := io.WriteString(w, p); err != nil {
			return err
		}
	}
	return nil
}
