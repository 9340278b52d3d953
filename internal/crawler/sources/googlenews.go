package sources

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"time"

	"newsgraph/internal/crawler"
	"newsgraph/internal/models"
)

type rssFeed struct {
	XMLName xml.Name `xml:"rss"`
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
}

// GoogleNews reads the Google News RSS search feed. An empty query reads the top stories feed.
type GoogleNews struct {
	endpoint
}

// NewGoogleNews creates the Google News source.
func NewGoogleNews(scraper *crawler.Scraper, baseURL, defaultQuery string) *GoogleNews {
	return &GoogleNews{endpoint: newEndpoint(scraper, baseURL, defaultQuery)}
}

// Name implements crawler.Source.
func (g *GoogleNews) Name() string {
	return models.SourceGoogleNews
}

// Fetch implements crawler.Source.
func (g *GoogleNews) Fetch(ctx context.Context, query string, limit int) ([]models.Document, error) {
	params := url.Values{}
	params.Set("hl", "en-US")
	params.Set("gl", "US")
	params.Set("ceid", "US:en")

	target := g.baseURL + "/rss"
	if q := g.query(query); q != "" {
		params.Set("q", q)
		target += "/search"
	}

	body, err := g.scraper.Fetch(ctx, target+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}

	var feed rssFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}

	items := feed.Channel.Items
	if len(items) > limit {
		items = items[:limit]
	}

	docs := make([]models.Document, 0, len(items))

	for _, item := range items {
		// The normalizer strips the HTML in the description.
		doc := models.Document{
			Source:  models.SourceGoogleNews,
			Title:   item.Title,
			Content: item.Description,
			URL:     item.Link,
		}

		if ts, err := parsePubDate(item.PubDate); err == nil {
			doc.Timestamp = &ts
		}

		docs = append(docs, doc)
	}

	return docs, nil
}

func parsePubDate(s string) (time.Time, error) {
	ts, err := time.Parse(time.RFC1123Z, s)
	if err != nil {
		return time.Parse(time.RFC1123, s)
	}

	return ts, nil
}
