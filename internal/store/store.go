// Package store holds the site content served by the content API.
//
// Content is read once at startup from a TOML file (the built-in content.toml unless CONTENT_FILE is set)
// and is read only afterwards.
package store

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/techstackph/techstack/internal/helpers"
	"github.com/techstackph/techstack/internal/types"
)

//go:embed content.toml
var defaultContent []byte

// Feed names used as keys in the content file and by the API routes
const (
	FeedEvents   = "events"
	FeedBlog     = "blog"
	FeedPrograms = "programs"
)

// TomlContent is the layout of a content file
type TomlContent struct {
	Events   []types.ContentItem `toml:"events"`
	Blog     []types.ContentItem `toml:"blog"`
	Programs []types.ContentItem `toml:"programs"`
}

type Store struct {
	feeds map[string][]types.ContentItem
}

// Default returns the store built from the built-in content
func Default() (*Store, error) {
	return Parse(defaultContent)
}

// Load reads a content file. An empty path loads the built-in content.
func Load(path string) (*Store, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading content file: %w", err)
	}
	return Parse(data)
}

// Parse builds a store from TOML content. Every item needs a title, missing slugs are generated from it.
func Parse(data []byte) (*Store, error) {
	var content TomlContent
	if err := toml.Unmarshal(data, &content); err != nil {
		return nil, fmt.Errorf("error parsing content file: %w", err)
	}

	s := &Store{feeds: make(map[string][]types.ContentItem, 3)}
	for name, items := range map[string][]types.ContentItem{
		FeedEvents:   content.Events,
		FeedBlog:     content.Blog,
		FeedPrograms: content.Programs,
	} {
		prepared, err := prepare(name, items)
		if err != nil {
			return nil, err
		}
		s.feeds[name] = prepared
	}
	return s, nil
}

func prepare(feed string, items []types.ContentItem) ([]types.ContentItem, error) {
	prepared := make([]types.ContentItem, 0, len(items))
	seen := make(map[string]bool, len(items))

	for i, item := range items {
		if item.Title == "" {
			return nil, fmt.Errorf("%s item %d has no title", feed, i+1)
		}
		if item.Slug == "" {
			slug, err := helpers.GenerateSlug(item.Title)
			if err != nil {
				return nil, fmt.Errorf("%s item %d: %w", feed, i+1, err)
			}
			item.Slug = slug
		}
		if seen[item.Slug] {
			return nil, fmt.Errorf("%s item %d: duplicate slug %q", feed, i+1, item.Slug)
		}
		seen[item.Slug] = true
		prepared = append(prepared, item)
	}
	return prepared, nil
}

// List returns the items of a feed in file order. The returned slice is a copy.
func (s *Store) List(feed string) ([]types.ContentItem, bool) {
	items, ok := s.feeds[feed]
	if !ok {
		return nil, false
	}
	return append([]types.ContentItem{}, items...), true
}

// Get returns a single item of a feed by slug
func (s *Store) Get(feed, slug string) (types.ContentItem, bool) {
	for _, item := range s.feeds[feed] {
		if item.Slug == slug {
			return item, true
		}
	}
	return types.ContentItem{}, false
}
