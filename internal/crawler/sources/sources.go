// Package sources implements the upstream document sources: Hacker News,
// Wikipedia, arXiv, Google News and the Hugging Face model hub.
package sources

import (
	"cmp"
	"fmt"
	"strings"

	"newsgraph/internal/config"
	"newsgraph/internal/crawler"
	"newsgraph/internal/models"
)

// Source errors. They do not count against a source's circuit breaker.
var (
	ErrQueryRequired = crawler.ErrQueryRequired
	ErrNotFound      = crawler.ErrNotFound
)

// endpoint is the state every source shares.
type endpoint struct {
	scraper      *crawler.Scraper
	baseURL      string
	defaultQuery string
}

func newEndpoint(scraper *crawler.Scraper, baseURL, defaultQuery string) endpoint {
	return endpoint{
		scraper:      scraper,
		baseURL:      strings.TrimRight(baseURL, "/"),
		defaultQuery: defaultQuery,
	}
}

func (e endpoint) query(q string) string {
	return strings.TrimSpace(cmp.Or(strings.TrimSpace(q), e.defaultQuery))
}

// New builds the source for one config entry.
func New(sc config.SourceConfig, scraper *crawler.Scraper) (crawler.Source, error) {
	switch sc.Name {
	case models.SourceHackerNews:
		hn := NewHackerNews(scraper, sc.BaseURL)
		if sc.FetchArticleText {
			hn = hn.WithArticleText(NewArticleReader(scraper))
		}

		return hn, nil
	case models.SourceWikipedia:
		return NewWikipedia(scraper, sc.BaseURL, sc.Query), nil
	case models.SourceArxiv:
		return NewArxiv(scraper, sc.BaseURL, sc.Query), nil
	case models.SourceGoogleNews:
		return NewGoogleNews(scraper, sc.BaseURL, sc.Query), nil
	case models.SourceHuggingFace:
		return NewHuggingFace(scraper, sc.BaseURL, sc.Query), nil
	default:
		return nil, fmt.Errorf("%w: %s", crawler.ErrUnknownSource, sc.Name)
	}
}

// FromConfig builds the enabled sources in config order.
func FromConfig(cfg *config.Config, scraper *crawler.Scraper) ([]crawler.Source, error) {
	out := make([]crawler.Source, 0, len(cfg.Sources))

	for _, sc := range cfg.Sources {
		if !sc.Enabled {
			continue
		}

		src, err := New(sc, scraper)
		if err != nil {
			return nil, err
		}

		out = append(out, src)
	}

	return out, nil
}
