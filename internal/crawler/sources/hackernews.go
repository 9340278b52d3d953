package sources

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"

	"newsgraph/internal/crawler"
	"newsgraph/internal/models"
)

// ErrNoStories is returned when none of the top stories could be loaded.
var ErrNoStories = errors.New("no stories could be loaded")

// hnItem is the subset of a Hacker News item we read.
type hnItem struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Text    string `json:"text"`
	Type    string `json:"type"`
	ID      int64  `json:"id"`
	Time    int64  `json:"time"`
	Deleted bool   `json:"deleted"`
	Dead    bool   `json:"dead"`
}

// ArticleReader extracts the readable text of a linked page.
type ArticleReader struct {
	scraper *crawler.Scraper
}

// NewArticleReader creates a reader that downloads pages through scraper.
func NewArticleReader(scraper *crawler.Scraper) *ArticleReader {
	return &ArticleReader{scraper: scraper}
}

// Read returns the main text content of the page at rawURL.
func (r *ArticleReader) Read(ctx context.Context, rawURL string) (string, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return "", fmt.Errorf("invalid URL: %s", rawURL)
	}

	body, err := r.scraper.Fetch(ctx, rawURL)
	if err != nil {
		return "", err
	}

	article, err := readability.FromReader(bytes.NewReader(body), parsedURL)
	if err != nil {
		return "", fmt.Errorf("parse content: %w", err)
	}

	return strings.TrimSpace(article.TextContent), nil
}

// HackerNews reads the current top stories. The query is ignored.
type HackerNews struct {
	articles *ArticleReader
	endpoint
}

// NewHackerNews creates the Hacker News source.
func NewHackerNews(scraper *crawler.Scraper, baseURL string) *HackerNews {
	return &HackerNews{endpoint: newEndpoint(scraper, baseURL, "")}
}

// WithArticleText makes the source fill empty story bodies from the linked page.
func (h *HackerNews) WithArticleText(reader *ArticleReader) *HackerNews {
	h.articles = reader

	return h
}

// Name implements crawler.Source.
func (h *HackerNews) Name() string {
	return models.SourceHackerNews
}

// Fetch implements crawler.Source.
func (h *HackerNews) Fetch(ctx context.Context, _ string, limit int) ([]models.Document, error) {
	var ids []int64
	if err := h.scraper.FetchJSON(ctx, h.baseURL+"/v0/topstories.json", &ids); err != nil {
		return nil, fmt.Errorf("fetch top stories: %w", err)
	}

	if len(ids) == 0 {
		return nil, nil
	}

	docs := make([]models.Document, 0, limit)

	var lastErr error

	// Dead and deleted items are skipped, so look a little past limit.
	for _, id := range ids[:min(len(ids), limit*2)] {
		if len(docs) == limit {
			break
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var item hnItem
		if err := h.scraper.FetchJSON(ctx, fmt.Sprintf("%s/v0/item/%d.json", h.baseURL, id), &item); err != nil {
			lastErr = err

			continue
		}

		if item.Deleted || item.Dead || item.Title == "" {
			continue
		}

		docs = append(docs, h.document(ctx, item))
	}

	if len(docs) == 0 && lastErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoStories, lastErr)
	}

	return docs, nil
}

func (h *HackerNews) document(ctx context.Context, item hnItem) models.Document {
	doc := models.Document{
		Source:  models.SourceHackerNews,
		Title:   item.Title,
		Content: item.Text,
		URL:     item.URL,
	}

	if doc.URL == "" {
		doc.URL = fmt.Sprintf("https://news.ycombinator.com/item?id=%d", item.ID)
	}

	if item.Time > 0 {
		ts := time.Unix(item.Time, 0).UTC()
		doc.Timestamp = &ts
	}

	if doc.Content == "" && h.articles != nil && item.URL != "" {
		// A page that cannot be read leaves the story with its title only.
		if text, err := h.articles.Read(ctx, item.URL); err == nil {
			doc.Content = text
		}
	}

	return doc
}
