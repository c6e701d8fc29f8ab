package content

import (
	"github.com/a-h/templ"
	"github.com/techstackph/techstack/internal/templates"
	"github.com/techstackph/techstack/internal/types"
)

// Feed describes one content type: where it is fetched from, where it is rendered and how an item is rendered
type Feed struct {
	Key      string // used in urls, e.g. events
	Name     string // used in notices, e.g. "blog posts"
	Title    string // section heading
	Endpoint string
	Selector string
	Render   func(types.ContentItem) templ.Component
}

// ID returns the element id of the feed container
func (f Feed) ID() string {
	if len(f.Selector) > 0 && f.Selector[0] == '#' {
		return f.Selector[1:]
	}
	return f.Selector
}

// DefaultFeeds are the feeds shown on the home page
func DefaultFeeds() []Feed {
	return []Feed{
		{
			Key:      "events",
			Name:     "events",
			Title:    "Upcoming Events",
			Endpoint: "/api/events/",
			Selector: "#events-list",
			Render:   templates.EventCard,
		},
		{
			Key:      "blog",
			Name:     "blog posts",
			Title:    "Latest News",
			Endpoint: "/api/blog/",
			Selector: "#blog-list",
			Render:   templates.BlogCard,
		},
		{
			Key:      "programs",
			Name:     "programs",
			Title:    "Featured Programs",
			Endpoint: "/api/programs/",
			Selector: "#programs-list",
			Render:   templates.ProgramCard,
		},
	}
}

// FindFeed returns the feed with the given key
func FindFeed(feeds []Feed, key string) (Feed, bool) {
	for _, f := range feeds {
		if f.Key == key {
			return f, true
		}
	}
	return Feed{}, false
}
