// Package models defines data structures shared by the fetchers, the normalizer and the graph builder.
package models

import "time"

// Source names.
const (
	SourceHackerNews  = "hackernews"
	SourceWikipedia   = "wikipedia"
	SourceArxiv       = "arxiv"
	SourceGoogleNews  = "googlenews"
	SourceHuggingFace = "huggingface"
)

// Document is one fetched unit of text. Timestamp and URL are optional.
type Document struct {
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Source    string     `json:"source" validate:"required"`
	Title     string     `json:"title" validate:"required"`
	Content   string     `json:"content"`
	URL       string     `json:"url,omitempty" validate:"omitempty,url"`
}

// Text returns the string handed to keyword extraction.
func (d Document) Text() string {
	return d.Title + ". " + d.Content
}

// HasURL reports whether the document links back to its origin.
func (d Document) HasURL() bool {
	return d.URL != ""
}
