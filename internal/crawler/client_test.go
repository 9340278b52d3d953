package crawler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsgraph/internal/config"
	"newsgraph/internal/logger"
	"newsgraph/internal/metrics"
	"newsgraph/internal/models"
)

type stubSource struct {
	err   error
	name  string
	docs  []models.Document
	calls int
	delay time.Duration
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Fetch(ctx context.Context, _ string, _ int) ([]models.Document, error) {
	s.calls++

	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.delay):
		}
	}

	return s.docs, s.err
}

func TestClient_Fetch(t *testing.T) {
	src := &stubSource{
		name: "arxiv",
		docs: []models.Document{
			{Source: "arxiv", Title: " Paper   one "},
			{Source: "arxiv", Title: ""},
			{Source: "arxiv", Title: "Paper two"},
			{Source: "arxiv", Title: "Paper three"},
		},
	}

	m := metrics.NewCollector("test")
	c := NewClient([]Source{src}, WithMetrics(m), WithLogger(logger.Nop()))

	result := c.Fetch(context.Background(), "arxiv", "llm", 2)
	require.True(t, result.OK())
	assert.Equal(t, "arxiv", result.Source)
	assert.Equal(t, "llm", result.Query)
	require.Len(t, result.Documents, 2)
	assert.Equal(t, "Paper one", result.Documents[0].Title)
	assert.Equal(t, "Paper two", result.Documents[1].Title)

	assert.InDelta(t, 1, testutil.ToFloat64(m.DocumentsRejected.WithLabelValues("arxiv")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.FetchRequests.WithLabelValues("arxiv", metrics.FetchOK)), 0)
}

func TestClient_Fetch_UnknownSource(t *testing.T) {
	c := NewClient(nil)

	result := c.Fetch(context.Background(), "reddit", "", 5)
	assert.False(t, result.OK())
	require.ErrorIs(t, result.Err, ErrUnknownSource)
	assert.Empty(t, result.Documents)
}

func TestClient_Fetch_InvalidLimit(t *testing.T) {
	c := NewClient([]Source{&stubSource{name: "arxiv"}})

	result := c.Fetch(context.Background(), "arxiv", "", 0)
	require.ErrorIs(t, result.Err, ErrInvalidLimit)
}

func TestClient_Fetch_Failure(t *testing.T) {
	src := &stubSource{name: "wikipedia", err: errors.New("boom")}
	c := NewClient([]Source{src}, WithCache(NewCache(time.Minute)))

	result := c.Fetch(context.Background(), "wikipedia", "AI", 1)
	assert.False(t, result.OK())
	require.ErrorIs(t, result.Err, ErrFetchFailed)
	assert.Contains(t, result.Reason(), "boom")

	// Failures are not cached.
	c.Fetch(context.Background(), "wikipedia", "AI", 1)
	assert.Equal(t, 2, src.calls)
}

func TestClient_Fetch_Cached(t *testing.T) {
	src := &stubSource{name: "hackernews", docs: []models.Document{{Source: "hackernews", Title: "Story"}}}
	c := NewClient([]Source{src}, WithCache(NewCache(time.Minute)))

	first := c.Fetch(context.Background(), "hackernews", "", 3)
	second := c.Fetch(context.Background(), "hackernews", "", 3)

	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Documents, second.Documents)
	assert.Equal(t, 1, src.calls)

	c.Fetch(context.Background(), "hackernews", "", 4)
	assert.Equal(t, 2, src.calls)
}

func TestClient_Fetch_Timeout(t *testing.T) {
	src := &stubSource{name: "googlenews", delay: time.Second}
	c := NewClient([]Source{src}, WithTimeout(20*time.Millisecond))

	result := c.Fetch(context.Background(), "googlenews", "ai", 5)
	require.ErrorIs(t, result.Err, context.DeadlineExceeded)
}

func TestClient_Fetch_BreakerOpen(t *testing.T) {
	src := &stubSource{name: "huggingface", err: errors.New("503")}

	cfg := config.DefaultConfig().Fetch
	cfg.Breaker.MinRequests = 1
	cfg.Breaker.FailureRatio = 0.1

	c := NewClientWithConfig(&cfg, []Source{src}, logger.Nop(), nil)

	c.Fetch(context.Background(), "huggingface", "", 5)
	result := c.Fetch(context.Background(), "huggingface", "", 5)

	require.ErrorIs(t, result.Err, ErrSourceUnavailable)
	assert.Equal(t, 1, src.calls)
}

func TestClient_Fetch_SlowSourceTripsBreaker(t *testing.T) {
	src := &stubSource{name: "arxiv", delay: time.Second}

	breakers := NewBreakers(config.BreakerConfig{
		FailureRatio: 0.1,
		MinRequests:  1,
		MaxRequests:  1,
		IntervalSec:  60,
		OpenSec:      60,
	}, nil, nil)
	c := NewClient([]Source{src}, WithBreakers(breakers), WithTimeout(20*time.Millisecond))

	first := c.Fetch(context.Background(), "arxiv", "llm", 5)
	require.ErrorIs(t, first.Err, context.DeadlineExceeded)

	second := c.Fetch(context.Background(), "arxiv", "llm", 5)
	require.ErrorIs(t, second.Err, ErrSourceUnavailable)
	assert.Equal(t, 1, src.calls)
}

func TestClient_Sources(t *testing.T) {
	c := NewClient([]Source{&stubSource{name: "b"}, &stubSource{name: "a"}})

	assert.Equal(t, []string{"b", "a"}, c.Sources())
	assert.True(t, c.Has("a"))
	assert.False(t, c.Has("c"))
}
