// Package slug turns human-readable titles into URL-safe identifiers.
package slug

import (
	"strings"
	"unicode"
)

const maxLen = 80

// Make lowercases the input, keeps letters and digits, collapses every run
// of other characters into a single dash and caps the result at 80 runes.
// Feeding a slug back in returns it unchanged.
func Make(input string) string {
	var b strings.Builder
	lastDash := false
	for _, r := range strings.ToLower(input) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastDash = false
			continue
		}
		if !lastDash && b.Len() > 0 {
			b.WriteRune('-')
			lastDash = true
		}
	}
	s := strings.Trim(b.String(), "-")

	runes := []rune(s)
	if len(runes) > maxLen {
		s = strings.TrimRight(string(runes[:maxLen]), "-")
	}
	return s
}
