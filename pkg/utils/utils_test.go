package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringHelper(t *testing.T) {
	s := NewStringHelper()

	assert.Equal(t, "a b c", s.NormalizeWhitespace("  a \n\tb   c "))
	assert.Equal(t, "x", s.TrimWhitespace("  x\n"))
	assert.Equal(t, "héll...", s.TruncateString("héllo world", 4))
	assert.Equal(t, "short", s.TruncateString("short", 10))
	assert.Equal(t, "short", s.TruncateString("short", 0))
	assert.Equal(t, " Fish & Chips ", s.StripTags(`<a href="x">Fish &amp; Chips</a>`))
}

func TestHTTPHelper(t *testing.T) {
	h := NewHTTPHelper("")

	assert.True(t, h.IsValidURL("https://example.com/a"))
	assert.False(t, h.IsValidURL("example.com"))
	assert.False(t, h.IsValidURL("ftp://example.com"))

	headers := h.BuildHeaders(map[string]string{"Accept": "application/json"})
	assert.Equal(t, DefaultUserAgent, headers.Get("User-Agent"))
	assert.Equal(t, "application/json", headers.Get("Accept"))
}
