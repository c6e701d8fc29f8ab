package helpers

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	slugInvalidChars = regexp.MustCompile(`[^a-z0-9\- ]+`) // spaces are kept here and replaced below
	slugSpaces       = regexp.MustCompile(`[ ]+`)
	slugHyphens      = regexp.MustCompile(`-{2,}`)
)

// GenerateSlug generates a URL-friendly slug from a given string.
// Content items are linked by slug (/events/{slug}), items loaded without one get a slug made from their title.
func GenerateSlug(input string) (string, error) {
	if input == "" {
		return "", fmt.Errorf("no input string supplied to GenerateSlug")
	}

	normalized := norm.NFD.String(input)

	withoutDiacritics, _, err := transform.String(runes.Remove(runes.In(unicode.Mn)), normalized)
	if err != nil {
		return "", fmt.Errorf("error creating slug: %w", err)
	}

	lowerCase := strings.ToLower(withoutDiacritics)

	hyphenated := slugInvalidChars.ReplaceAllString(lowerCase, "-")
	hyphenated = slugSpaces.ReplaceAllString(hyphenated, "-")
	hyphenated = slugHyphens.ReplaceAllString(hyphenated, "-")

	slug := strings.Trim(hyphenated, "-")
	if slug == "" {
		return "", fmt.Errorf("cannot create a slug from %q", input)
	}
	return slug, nil
}
