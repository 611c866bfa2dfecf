// Package normalize derives join keys from free-text names and tags.
//
// The catalog dump and the canonical artist dataset have disjoint
// identifier spaces, so a normalized display name is the only available
// join key between them. Normalization is deliberately lossy: two distinct
// names that collapse to the same key are treated as the same artist.
package normalize

import (
	"strings"
	"unicode"
)

// NameKey normalizes an artist display name into a join key: lower-cased,
// trimmed, one leading definite article removed, punctuation stripped, and
// internal whitespace collapsed.
//
// "The Ramones", "ramones" and "Ramones!" all map to "ramones".
func NameKey(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.TrimPrefix(s, "the ")

	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			space = true
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		default:
			// punctuation dropped
		}
	}
	return b.String()
}

// TagKey normalizes a free-text genre/style tag: case-folded with runs of
// separators (whitespace, '-', '_', '/') collapsed to single spaces.
func TagKey(tag string) string {
	s := strings.ToLower(strings.TrimSpace(tag))

	var b strings.Builder
	b.Grow(len(s))
	sep := false
	for _, r := range s {
		if unicode.IsSpace(r) || r == '-' || r == '_' || r == '/' {
			sep = true
			continue
		}
		if sep && b.Len() > 0 {
			b.WriteByte(' ')
		}
		sep = false
		b.WriteRune(r)
	}
	return b.String()
}
