package utils

import (
	"strings"
	"unicode"
)

// NormalizeSpace collapses repeated whitespace into a single space.
func NormalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeDriverName is the join and cache key for driver names coming from
// different upstream tables: lower case, punctuation dropped, single spaces.
// "O'Neil,  Pat " and "oneil pat" map to the same key.
func NormalizeDriverName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == ',':
			b.WriteRune(' ')
		}
	}
	return NormalizeSpace(b.String())
}
