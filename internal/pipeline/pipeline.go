// Package pipeline runs one end-to-end graph build: fetch every selected source,
// extract keywords and fold the documents into a graph.
package pipeline

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"newsgraph/internal/config"
	"newsgraph/internal/graph"
	"newsgraph/internal/keywords"
	"newsgraph/internal/logger"
	"newsgraph/internal/metrics"
	"newsgraph/internal/models"
)

// Request bounds.
const (
	MinItemsPerSource     = 1
	MaxItemsPerSource     = 20
	DefaultItemsPerSource = 5
)

// Request errors.
var (
	ErrNoSources         = errors.New("no sources selected")
	ErrInvalidItems      = fmt.Errorf("items per source must be between %d and %d", MinItemsPerSource, MaxItemsPerSource)
	ErrInvalidMaxPhrases = fmt.Errorf("max phrases must be between 1 and %d", keywords.DefaultLimit)
	ErrSourceDisabled    = errors.New("source is not enabled")
)

// Fetcher returns the documents of one source. Failures are carried in the result.
type Fetcher interface {
	Fetch(ctx context.Context, source, query string, limit int) models.FetchResult
}

// Request describes one run. Zero values fall back to the runner defaults;
// a nil IncludeArticles takes the default while false turns articles off.
type Request struct {
	Query           string   `json:"query" validate:"max=200"`
	Sources         []string `json:"sources" validate:"omitempty,dive,oneof=hackernews wikipedia arxiv googlenews huggingface"`
	ItemsPerSource  int      `json:"items_per_source" validate:"omitempty,min=1,max=20"`
	MaxPhrases      int      `json:"max_phrases" validate:"omitempty,min=1,max=10"`
	IncludeArticles *bool    `json:"include_articles,omitempty"`
}

// Articles reports whether the run adds article nodes.
func (r Request) Articles() bool {
	return r.IncludeArticles != nil && *r.IncludeArticles
}

// Stats summarizes a run.
type Stats struct {
	Sources       int   `json:"sources"`
	FailedSources int   `json:"failed_sources"`
	CachedSources int   `json:"cached_sources"`
	Documents     int   `json:"documents"`
	Contributing  int   `json:"contributing_documents"`
	Skipped       int   `json:"skipped_documents"`
	Keywords      int   `json:"keywords"`
	Articles      int   `json:"articles"`
	Edges         int   `json:"edges"`
	DurationMs    int64 `json:"duration_ms"`
}

// Result is the outcome of one run.
type Result struct {
	StartedAt time.Time         `json:"started_at"`
	Graph     *graph.Graph      `json:"graph"`
	RunID     string            `json:"run_id"`
	Request   Request           `json:"request"`
	Documents []models.Document `json:"documents"`
	Notices   []models.Notice   `json:"notices"`
	Stats     Stats             `json:"stats"`
}

// Defaults fill in request fields left empty.
type Defaults struct {
	Sources         []string
	ItemsPerSource  int
	MaxPhrases      int
	IncludeArticles bool
}

// DefaultsFromConfig takes the enabled sources and graph settings from the config.
func DefaultsFromConfig(cfg *config.Config) Defaults {
	d := Defaults{
		ItemsPerSource:  DefaultItemsPerSource,
		MaxPhrases:      cfg.Graph.MaxPhrasesPerDoc,
		IncludeArticles: cfg.Graph.IncludeArticles,
	}

	for _, src := range cfg.GetEnabledSources() {
		d.Sources = append(d.Sources, src.Name)
	}

	return d
}

// Runner executes graph runs.
type Runner struct {
	fetcher   Fetcher
	extractor keywords.Extractor
	metrics   *metrics.Collector
	log       *logger.Logger
	now       func() time.Time
	newID     func() string
	available func(string) bool
	limits    map[string]int
	defaults  Defaults
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(r *Runner) { r.log = log }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithSourceLimits caps items per source below the request value, e.g. Wikipedia's single summary.
func WithSourceLimits(limits map[string]int) Option {
	return func(r *Runner) { r.limits = limits }
}

// WithSourceCheck rejects requested sources for which available returns false,
// typically crawler.Client.Has over the enabled sources.
func WithSourceCheck(available func(string) bool) Option {
	return func(r *Runner) { r.available = available }
}

// NewRunner creates a runner.
func NewRunner(fetcher Fetcher, extractor keywords.Extractor, defaults Defaults, opts ...Option) *Runner {
	r := &Runner{
		fetcher:   fetcher,
		extractor: extractor,
		log:       logger.Nop(),
		now:       time.Now,
		newID:     func() string { return uuid.NewString() },
		defaults:  defaults,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Resolve applies the runner defaults to req and checks its bounds.
func (r *Runner) Resolve(req Request) (Request, error) {
	if len(req.Sources) == 0 {
		req.Sources = r.defaults.Sources
	}

	req.Sources = dedupe(req.Sources)
	if len(req.Sources) == 0 {
		return req, ErrNoSources
	}

	if r.available != nil {
		for _, source := range req.Sources {
			if !r.available(source) {
				return req, fmt.Errorf("%w: %s", ErrSourceDisabled, source)
			}
		}
	}

	if req.ItemsPerSource == 0 {
		req.ItemsPerSource = cmp.Or(r.defaults.ItemsPerSource, DefaultItemsPerSource)
	}

	if req.ItemsPerSource < MinItemsPerSource || req.ItemsPerSource > MaxItemsPerSource {
		return req, ErrInvalidItems
	}

	if req.MaxPhrases == 0 {
		req.MaxPhrases = cmp.Or(r.defaults.MaxPhrases, keywords.DefaultLimit)
	}

	if req.MaxPhrases < 1 || req.MaxPhrases > keywords.DefaultLimit {
		return req, ErrInvalidMaxPhrases
	}

	if req.IncludeArticles == nil {
		include := r.defaults.IncludeArticles
		req.IncludeArticles = &include
	}

	return req, nil
}

// Run fetches, extracts and builds. It only fails for an invalid request or a cancelled context;
// source and extraction problems become notices on the result.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	req, err := r.Resolve(req)
	if err != nil {
		return nil, err
	}

	started := r.now()
	result := &Result{
		RunID:     r.newID(),
		StartedAt: started.UTC(),
		Request:   req,
		Documents: []models.Document{},
		Notices:   []models.Notice{},
	}

	log := r.log.With("run_id", result.RunID)
	log.Info("run started", "sources", req.Sources, "items", req.ItemsPerSource, "query", req.Query)

	// Phase 1: fetch
	for _, source := range req.Sources {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run cancelled: %w", err)
		}

		limit := req.ItemsPerSource
		if capped, ok := r.limits[source]; ok && capped > 0 {
			limit = min(limit, capped)
		}

		fetched := r.fetcher.Fetch(ctx, source, req.Query, limit)
		result.Stats.Sources++

		switch {
		case !fetched.OK():
			result.Stats.FailedSources++
			result.Notices = append(result.Notices, models.Notice{
				Source:  source,
				Kind:    models.NoticeFetchFailure,
				Message: fetched.Reason(),
			})
		case len(fetched.Documents) == 0:
			result.Notices = append(result.Notices, models.Notice{
				Source:  source,
				Kind:    models.NoticeEmpty,
				Message: models.ErrNoDocuments.Error(),
			})
		}

		if fetched.Cached {
			result.Stats.CachedSources++
		}

		result.Documents = append(result.Documents, fetched.Documents...)
	}

	// Phase 2: build
	g, report := graph.Build(result.Documents, r.extractor, graph.Options{
		MaxPhrasesPerDoc: req.MaxPhrases,
		IncludeArticles:  req.Articles(),
	})

	for _, skipped := range report.Skipped {
		log.Debug("document skipped", "source", skipped.Source, "title", skipped.Title, "error", skipped.Err)

		result.Notices = append(result.Notices, models.Notice{
			Source:  skipped.Source,
			Kind:    models.NoticeExtractionFailure,
			Message: fmt.Sprintf("%q: %v", skipped.Title, skipped.Err),
		})
	}

	result.Graph = g
	result.Stats.Documents = report.Documents
	result.Stats.Contributing = report.Contributing
	result.Stats.Skipped = len(report.Skipped)
	result.Stats.Edges = len(g.Edges)

	for _, n := range g.Nodes {
		if n.Type == graph.NodeArticle {
			result.Stats.Articles++
		} else {
			result.Stats.Keywords++
		}
	}

	result.Stats.DurationMs = r.now().Sub(started).Milliseconds()

	r.metrics.RecordRun(len(g.Nodes), len(g.Edges), len(report.Skipped))
	log.Info("run finished",
		"documents", result.Stats.Documents,
		"keywords", result.Stats.Keywords,
		"edges", result.Stats.Edges,
		"notices", len(result.Notices),
		"duration_ms", result.Stats.DurationMs,
	)

	return result, nil
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))

	for _, s := range in {
		if s != "" && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}

	return out
}
