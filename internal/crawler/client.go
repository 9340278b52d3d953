// Package crawler fetches documents from the configured news sources.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"newsgraph/internal/config"
	"newsgraph/internal/logger"
	"newsgraph/internal/metrics"
	"newsgraph/internal/models"
	"newsgraph/internal/normalizer"
)

// Client errors.
var (
	ErrUnknownSource = errors.New("unknown source")
	ErrInvalidLimit  = errors.New("limit must be at least 1")
	ErrFetchFailed   = errors.New("fetch failed")
	ErrQueryRequired = errors.New("query is required")
	ErrNotFound      = errors.New("no matching page")
)

// Source is one upstream that can be asked for documents.
type Source interface {
	Name() string
	Fetch(ctx context.Context, query string, limit int) ([]models.Document, error)
}

// Client manages fetching, caching and cleaning of documents from sources.
type Client struct {
	sources   map[string]Source
	cache     *Cache
	breakers  *Breakers
	processor *normalizer.Processor
	metrics   *metrics.Collector
	log       *logger.Logger
	names     []string
	timeout   time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithCache sets the fetch cache.
func WithCache(cache *Cache) Option {
	return func(c *Client) { c.cache = cache }
}

// WithBreakers sets the per-source circuit breakers.
func WithBreakers(breakers *Breakers) Option {
	return func(c *Client) { c.breakers = breakers }
}

// WithProcessor sets the document processor.
func WithProcessor(p *normalizer.Processor) Option {
	return func(c *Client) { c.processor = p }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger sets the logger. A nil logger keeps the default.
func WithLogger(log *logger.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithTimeout bounds each source fetch. Zero means no extra bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// NewClient creates a client over the given sources.
func NewClient(sources []Source, opts ...Option) *Client {
	c := &Client{
		sources:   make(map[string]Source, len(sources)),
		processor: normalizer.NewProcessor(),
		log:       logger.Nop(),
	}

	for _, src := range sources {
		c.sources[src.Name()] = src
		c.names = append(c.names, src.Name())
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// NewClientWithConfig wires cache, breakers and timeout from the fetch config.
func NewClientWithConfig(cfg *config.FetchConfig, sources []Source, log *logger.Logger, m *metrics.Collector) *Client {
	return NewClient(sources,
		WithCache(NewCache(cfg.GetCacheTTL())),
		WithBreakers(NewBreakers(cfg.Breaker, log, m)),
		WithTimeout(cfg.GetTimeout()),
		WithLogger(log),
		WithMetrics(m),
	)
}

// Sources returns the registered source names in registration order.
func (c *Client) Sources() []string {
	return slices.Clone(c.names)
}

// Has reports whether a source is registered.
func (c *Client) Has(name string) bool {
	_, ok := c.sources[name]

	return ok
}

// Fetch asks one source for up to limit documents. It never returns an error:
// failures are carried in the result so callers can report them and move on.
func (c *Client) Fetch(ctx context.Context, source, query string, limit int) models.FetchResult {
	src, ok := c.sources[source]
	if !ok {
		return models.Failed(source, query, limit, fmt.Errorf("%w: %s", ErrUnknownSource, source))
	}

	if limit < 1 {
		return models.Failed(source, query, limit, ErrInvalidLimit)
	}

	if docs, hit := c.cache.Get(source, query, limit); hit {
		c.metrics.RecordCache(true)
		c.metrics.RecordFetch(source, metrics.FetchCached, 0)
		c.log.Debug("cache hit", "source", source, "query", query, "limit", limit)

		result := models.Succeeded(source, query, limit, docs)
		result.Cached = true

		return result
	}

	if c.cache != nil {
		c.metrics.RecordCache(false)
	}

	fetchCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc

		fetchCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	startTime := time.Now()

	raw, err := c.breakers.Execute(ctx, source, func() ([]models.Document, error) {
		return src.Fetch(fetchCtx, query, limit)
	})
	duration := time.Since(startTime)

	if err != nil {
		c.metrics.RecordFetch(source, metrics.FetchError, duration)
		c.log.Warn("fetch failed", "source", source, "query", query, "error", err, "duration", duration)

		return models.Failed(source, query, limit, fmt.Errorf("%w: %w", ErrFetchFailed, err))
	}

	docs, rejected := c.processor.ProcessAll(raw)
	for _, rerr := range rejected {
		c.log.Debug("dropped document", "source", source, "error", rerr)
	}

	if len(docs) > limit {
		docs = docs[:limit]
	}

	c.metrics.RecordDocuments(source, len(docs), len(rejected))

	status := metrics.FetchOK
	if len(docs) == 0 {
		status = metrics.FetchEmpty
	}

	c.metrics.RecordFetch(source, status, duration)
	c.log.Info("fetched documents",
		"source", source,
		"query", query,
		"documents", len(docs),
		"rejected", len(rejected),
		"duration", duration,
	)

	c.cache.Put(source, query, limit, docs)

	return models.Succeeded(source, query, limit, docs)
}

// RunCacheJanitor purges expired cache entries every interval until ctx is done.
// It returns at once when there is no cache or interval is not positive.
func (c *Client) RunCacheJanitor(ctx context.Context, interval time.Duration) {
	if c.cache == nil || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			remaining := c.cache.Purge()
			c.log.Debug("cache purged", "remaining", remaining)
		}
	}
}
