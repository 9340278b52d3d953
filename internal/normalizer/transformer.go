package normalizer

import (
	"strings"

	"newsgraph/internal/models"
	"newsgraph/pkg/utils"
)

// DefaultMaxContentRunes bounds the body text kept per document.
const DefaultMaxContentRunes = 4000

// Transformer cleans document text into the shape the graph builder expects.
type Transformer struct {
	strings         *utils.StringHelper
	http            *utils.HTTPHelper
	maxContentRunes int
}

// NewTransformer creates a new transformer instance.
func NewTransformer(maxContentRunes int) *Transformer {
	if maxContentRunes <= 0 {
		maxContentRunes = DefaultMaxContentRunes
	}

	return &Transformer{
		strings:         utils.NewStringHelper(),
		http:            utils.NewHTTPHelper(""),
		maxContentRunes: maxContentRunes,
	}
}

// Transform returns a cleaned copy of doc: markup stripped, whitespace collapsed,
// content truncated and the source name lowercased. A missing title falls back to
// the start of the content, and a URL that is not absolute http(s) is dropped.
func (t *Transformer) Transform(doc models.Document) models.Document {
	out := doc

	out.Source = strings.ToLower(strings.TrimSpace(doc.Source))
	out.Title = t.strings.NormalizeWhitespace(t.strings.StripTags(doc.Title))
	out.Content = t.strings.NormalizeWhitespace(t.strings.StripTags(doc.Content))
	out.Content = t.strings.TruncateString(out.Content, t.maxContentRunes)
	out.URL = strings.TrimSpace(doc.URL)

	if out.URL != "" && !t.http.IsValidURL(out.URL) {
		out.URL = ""
	}

	if out.Title == "" && out.Content != "" {
		out.Title = t.strings.TruncateString(out.Content, 80)
	}

	if doc.Timestamp != nil {
		ts := doc.Timestamp.UTC()
		out.Timestamp = &ts
	}

	return out
}
