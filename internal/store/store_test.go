package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultContent(t *testing.T) {
	s, err := Default()
	require.NoError(t, err)

	tests := []struct {
		feed      string
		wantFirst string
	}{
		{FeedEvents, "annual-tech-summit-2024"},
		{FeedBlog, "techstackph-partners-with-tech-giant"},
		{FeedPrograms, "coding-bootcamp"},
	}

	for _, tt := range tests {
		t.Run(tt.feed, func(t *testing.T) {
			items, ok := s.List(tt.feed)
			require.True(t, ok)
			require.Len(t, items, 3)
			assert.Equal(t, tt.wantFirst, items[0].Slug)
			for _, item := range items {
				assert.NotEmpty(t, item.Title)
				assert.NotEmpty(t, item.ImageURL)
			}
		})
	}

	_, ok := s.List("podcasts")
	assert.False(t, ok)
}

func TestParseGeneratesMissingSlugs(t *testing.T) {
	s, err := Parse([]byte(`
[[events]]
title = "Café Meetup"
date = "January 1, 2025"
`))
	require.NoError(t, err)

	items, ok := s.List(FeedEvents)
	require.True(t, ok)
	require.Len(t, items, 1)
	assert.Equal(t, "cafe-meetup", items[0].Slug)

	item, ok := s.Get(FeedEvents, "cafe-meetup")
	require.True(t, ok)
	assert.Equal(t, "January 1, 2025", item.Date)

	blog, ok := s.List(FeedBlog)
	assert.True(t, ok, "feeds missing from the file are empty, not unknown")
	assert.Empty(t, blog)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "invalid toml", content: `[[events]`, wantErr: "error parsing content file"},
		{name: "missing title", content: "[[blog]]\nslug = \"x\"\n", wantErr: "has no title"},
		{name: "duplicate slug", content: "[[programs]]\ntitle = \"A\"\nslug = \"a\"\n[[programs]]\ntitle = \"B\"\nslug = \"a\"\n", wantErr: "duplicate slug"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestListReturnsCopy(t *testing.T) {
	s, err := Default()
	require.NoError(t, err)

	items, _ := s.List(FeedEvents)
	items[0].Title = "changed"

	again, _ := s.List(FeedEvents)
	assert.NotEqual(t, "changed", again[0].Title)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "content.toml")
	require.NoError(t, os.WriteFile(path, []byte("[[programs]]\ntitle = \"Robotics Club\"\n"), 0o600))

	s, err := Load(path)
	require.NoError(t, err)
	items, _ := s.List(FeedPrograms)
	require.Len(t, items, 1)
	assert.Equal(t, "robotics-club", items[0].Slug)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
