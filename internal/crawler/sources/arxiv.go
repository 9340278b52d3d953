package sources

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"newsgraph/internal/crawler"
	"newsgraph/internal/models"
)

type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID        string     `xml:"id"`
	Title     string     `xml:"title"`
	Summary   string     `xml:"summary"`
	Published string     `xml:"published"`
	Links     []atomLink `xml:"link"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

// Arxiv searches arXiv paper abstracts.
type Arxiv struct {
	endpoint
}

// NewArxiv creates the arXiv source.
func NewArxiv(scraper *crawler.Scraper, baseURL, defaultQuery string) *Arxiv {
	return &Arxiv{endpoint: newEndpoint(scraper, baseURL, defaultQuery)}
}

// Name implements crawler.Source.
func (a *Arxiv) Name() string {
	return models.SourceArxiv
}

// Fetch implements crawler.Source.
func (a *Arxiv) Fetch(ctx context.Context, query string, limit int) ([]models.Document, error) {
	q := a.query(query)
	if q == "" {
		return nil, ErrQueryRequired
	}

	params := url.Values{}
	params.Set("search_query", "all:"+q)
	params.Set("start", "0")
	params.Set("max_results", strconv.Itoa(limit))
	params.Set("sortBy", "submittedDate")

	body, err := a.scraper.Fetch(ctx, a.baseURL+"/api/query?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}

	var feed atomFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}

	docs := make([]models.Document, 0, len(feed.Entries))

	for _, entry := range feed.Entries {
		doc := models.Document{
			Source:  models.SourceArxiv,
			Title:   entry.Title,
			Content: entry.Summary,
			URL:     entry.link(),
		}

		if ts, err := time.Parse(time.RFC3339, entry.Published); err == nil {
			doc.Timestamp = &ts
		}

		docs = append(docs, doc)
	}

	return docs, nil
}

// link prefers the abstract page over the PDF.
func (e atomEntry) link() string {
	for _, l := range e.Links {
		if l.Rel == "alternate" {
			return l.Href
		}
	}

	if len(e.Links) > 0 {
		return e.Links[0].Href
	}

	return e.ID
}
