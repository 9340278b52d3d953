package utils

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"
)

var tagPattern = regexp.MustCompile(`(?s)<[^>]*>`)

// StringHelper provides string utility functions.
type StringHelper struct{}

// NewStringHelper creates a new string helper.
func NewStringHelper() *StringHelper {
	return &StringHelper{}
}

// TrimWhitespace removes leading and trailing whitespace.
func (s *StringHelper) TrimWhitespace(str string) string {
	return strings.TrimSpace(str)
}

// NormalizeWhitespace replaces runs of whitespace with a single space.
func (s *StringHelper) NormalizeWhitespace(str string) string {
	return strings.Join(strings.Fields(str), " ")
}

// TruncateString truncates str to at most maxRunes runes, appending "..." when cut.
func (s *StringHelper) TruncateString(str string, maxRunes int) string {
	if maxRunes <= 0 || utf8.RuneCountInString(str) <= maxRunes {
		return str
	}

	runes := []rune(str)

	return string(runes[:maxRunes]) + "..."
}

// StripTags removes HTML markup and unescapes entities.
func (s *StringHelper) StripTags(str string) string {
	return html.UnescapeString(tagPattern.ReplaceAllString(str, " "))
}
