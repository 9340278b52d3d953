// Package keywords extracts ranked keyword phrases from free text.
package keywords

import (
	"errors"
	"iter"
	"strings"
)

// Phrase length bounds, in words, applied to extractor output.
const (
	MinPhraseWords = 2
	MaxPhraseWords = 6

	// DefaultLimit is the number of phrases kept per document when the caller does not say.
	DefaultLimit = 10
)

// ErrEmptyText is returned when there is nothing to extract from.
var ErrEmptyText = errors.New("text is empty")

// Extractor ranks phrases in a text, most relevant first.
// The returned sequence is evaluated lazily.
type Extractor interface {
	Extract(text string) (iter.Seq[string], error)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(text string) (iter.Seq[string], error)

// Extract implements Extractor.
func (f ExtractorFunc) Extract(text string) (iter.Seq[string], error) {
	return f(text)
}

// Filter bounds the phrases taken from an extractor.
type Filter struct {
	MinWords int
	MaxWords int
	Limit    int
}

// NewFilter returns the standard 2–6 word filter keeping at most limit phrases.
// A non-positive limit falls back to DefaultLimit.
func NewFilter(limit int) Filter {
	if limit <= 0 {
		limit = DefaultLimit
	}

	return Filter{MinWords: MinPhraseWords, MaxWords: MaxPhraseWords, Limit: limit}
}

// Apply takes the first Limit in-bounds phrases and collapses duplicates among them,
// so a repeated phrase uses up its slots.
func (f Filter) Apply(phrases iter.Seq[string]) []string {
	if phrases == nil || f.Limit <= 0 {
		return nil
	}

	kept := make([]string, 0, min(f.Limit, DefaultLimit))
	seen := make(map[string]struct{}, min(f.Limit, DefaultLimit))
	taken := 0

	for phrase := range phrases {
		phrase = strings.Join(strings.Fields(phrase), " ")

		n := WordCount(phrase)
		if n < f.MinWords || n > f.MaxWords {
			continue
		}

		taken++

		if _, dup := seen[phrase]; !dup {
			seen[phrase] = struct{}{}
			kept = append(kept, phrase)
		}

		if taken == f.Limit {
			break
		}
	}

	return kept
}

// Take runs the extractor over text and applies the standard filter.
func Take(ex Extractor, text string, limit int) ([]string, error) {
	phrases, err := ex.Extract(text)
	if err != nil {
		return nil, err
	}

	return NewFilter(limit).Apply(phrases), nil
}

// WordCount counts whitespace-separated words.
func WordCount(phrase string) int {
	return len(strings.Fields(phrase))
}
