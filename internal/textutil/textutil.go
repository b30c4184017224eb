// Package textutil holds small string helpers shared by the extractor and the coordinator.
package textutil

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"
)

var tagRe = regexp.MustCompile(`<[^>]*>`)

// Truncate returns at most limit runes of s.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}

// StripTags removes markup, unescapes entities and collapses whitespace.
func StripTags(s string) string {
	s = tagRe.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	return strings.Join(strings.Fields(s), " ")
}
