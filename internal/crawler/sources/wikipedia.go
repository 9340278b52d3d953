package sources

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"newsgraph/internal/crawler"
	"newsgraph/internal/models"
)

type wikiSummary struct {
	Title       string `json:"title"`
	Extract     string `json:"extract"`
	Type        string `json:"type"`
	Timestamp   string `json:"timestamp"`
	ContentURLs struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

// Wikipedia returns the summary of the page named by the query.
type Wikipedia struct {
	endpoint
}

// NewWikipedia creates the Wikipedia source.
func NewWikipedia(scraper *crawler.Scraper, baseURL, defaultQuery string) *Wikipedia {
	return &Wikipedia{endpoint: newEndpoint(scraper, baseURL, defaultQuery)}
}

// Name implements crawler.Source.
func (w *Wikipedia) Name() string {
	return models.SourceWikipedia
}

// Fetch implements crawler.Source. A summary is a single document whatever the limit.
func (w *Wikipedia) Fetch(ctx context.Context, query string, _ int) ([]models.Document, error) {
	q := w.query(query)
	if q == "" {
		return nil, ErrQueryRequired
	}

	target := w.baseURL + "/api/rest_v1/page/summary/" + url.PathEscape(strings.ReplaceAll(q, " ", "_"))

	var summary wikiSummary
	if err := w.scraper.FetchJSON(ctx, target, &summary); err != nil {
		var statusErr *crawler.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, q)
		}

		return nil, fmt.Errorf("fetch summary: %w", err)
	}

	if summary.Title == "" && summary.Extract == "" {
		return nil, nil
	}

	doc := models.Document{
		Source:  models.SourceWikipedia,
		Title:   summary.Title,
		Content: summary.Extract,
		URL:     summary.ContentURLs.Desktop.Page,
	}

	if ts, err := time.Parse(time.RFC3339, summary.Timestamp); err == nil {
		doc.Timestamp = &ts
	}

	return []models.Document{doc}, nil
}
