// ABOUTME: Slug derivation for project directory names
// ABOUTME: Maps arbitrary book titles onto safe filesystem identifiers
package util

import (
	"strings"
	"unicode"
)

// Slugify converts a title into a lowercase directory-safe identifier.
// Runs of non-alphanumeric characters collapse into single underscores.
func Slugify(title string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastUnderscore = false
		case !lastUnderscore:
			b.WriteRune('_')
			lastUnderscore = true
		}
	}
	slug := strings.Trim(b.String(), "_")
	if slug == "" {
		slug = "untitled"
	}
	return slug
}
