package models

import (
	"errors"
	"fmt"
)

// NoticeKind classifies a non-fatal problem surfaced to the user.
type NoticeKind string

// Notice kinds.
const (
	NoticeFetchFailure      NoticeKind = "fetch_failure"
	NoticeExtractionFailure NoticeKind = "extraction_failure"
	NoticeRenderFailure     NoticeKind = "render_failure"
	NoticeEmpty             NoticeKind = "empty"
)

// ErrNoDocuments is the reason recorded when a source answered but had nothing.
var ErrNoDocuments = errors.New("source returned no documents")

// FetchResult is the outcome of asking one source for documents.
// Err is nil on success; on failure Documents is empty and Err is the reason.
type FetchResult struct {
	Err       error      `json:"-"`
	Source    string     `json:"source"`
	Query     string     `json:"query,omitempty"`
	Documents []Document `json:"documents"`
	Limit     int        `json:"limit"`
	Cached    bool       `json:"cached"`
}

// Succeeded builds a successful result.
func Succeeded(source, query string, limit int, docs []Document) FetchResult {
	return FetchResult{Source: source, Query: query, Limit: limit, Documents: docs}
}

// Failed builds an empty result carrying the failure reason.
func Failed(source, query string, limit int, err error) FetchResult {
	return FetchResult{Source: source, Query: query, Limit: limit, Err: err}
}

// OK reports whether the fetch succeeded.
func (r FetchResult) OK() bool {
	return r.Err == nil
}

// Reason returns a printable failure reason, or "" on success.
func (r FetchResult) Reason() string {
	if r.Err == nil {
		return ""
	}

	return r.Err.Error()
}

// Notice is a non-fatal message attached to a run.
type Notice struct {
	Source  string     `json:"source,omitempty"`
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
}

// String implements fmt.Stringer.
func (n Notice) String() string {
	if n.Source == "" {
		return fmt.Sprintf("[%s] %s", n.Kind, n.Message)
	}

	return fmt.Sprintf("[%s] %s: %s", n.Kind, n.Source, n.Message)
}
