// Package sanitize cleans text that crosses a trust boundary.
package sanitize

import (
	"html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// Text removes every HTML tag and attribute and drops unprintable runes.
// Entities produced by the policy are decoded again so plain text round-trips.
func Text(s string) string {
	cleaned := html.UnescapeString(strictPolicy.Sanitize(s))
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == '\t' || r == '\n' {
			return r
		}
		return -1
	}, cleaned))
}

// Cell guards a spreadsheet cell against formula injection by prefixing a
// single quote to values starting with a formula trigger.
func Cell(s string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return s
	}
	switch trimmed[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}
