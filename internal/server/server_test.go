package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsgraph/internal/config"
	"newsgraph/internal/crawler"
	"newsgraph/internal/keywords"
	"newsgraph/internal/logger"
	"newsgraph/internal/metrics"
	"newsgraph/internal/models"
	"newsgraph/internal/pipeline"
)

type stubSource struct {
	err  error
	name string
	docs []models.Document
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Fetch(context.Context, string, int) ([]models.Document, error) {
	return s.docs, s.err
}

type failingRunner struct{ err error }

func (f failingRunner) Run(context.Context, pipeline.Request) (*pipeline.Result, error) {
	return nil, f.err
}

func newTestServer(t *testing.T) (*Server, *metrics.Collector) {
	t.Helper()

	cfg := config.DefaultConfig()
	m := metrics.NewCollector("test")

	client := crawler.NewClient([]crawler.Source{
		&stubSource{name: "arxiv", docs: []models.Document{
			{Source: "arxiv", Title: "Machine learning", Content: "Neural networks", URL: "https://arxiv.org/abs/1"},
		}},
		&stubSource{name: "googlenews", docs: []models.Document{
			{Source: "googlenews", Title: "Neural networks", Content: "Machine learning"},
		}},
		&stubSource{name: "wikipedia", err: errors.New("upstream down")},
	}, crawler.WithMetrics(m))

	runner := pipeline.NewRunner(client, keywords.NewRake(), pipeline.Defaults{
		Sources:        []string{"arxiv", "googlenews"},
		ItemsPerSource: 5,
		MaxPhrases:     10,
	}, pipeline.WithMetrics(m), pipeline.WithSourceCheck(client.Has))

	return New(cfg, runner, m, logger.Nop()), m
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestListSources(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/sources", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Sources []SourceInfo `json:"sources"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))

	require.Len(t, body.Sources, len(config.KnownSources))
	assert.Equal(t, "hackernews", body.Sources[0].Name)
	assert.Equal(t, "Artificial Intelligence", body.Sources[1].Query)
	assert.True(t, body.Sources[1].Enabled)
}

func TestGetSource(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Routes()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/sources/arxiv", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var src SourceInfo
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&src))
	assert.Equal(t, SourceInfo{Name: "arxiv", Query: "artificial intelligence", Limit: 20, Enabled: true}, src)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/sources/reddit", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, `unknown source "reddit"`, body.Message)
}

func TestBuildGraph(t *testing.T) {
	srv, m := newTestServer(t)
	h := srv.Routes()

	rec := post(t, h, "/api/v1/graph", `{}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var res pipeline.Result
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, []string{"arxiv", "googlenews"}, res.Request.Sources)
	assert.Equal(t, 2, res.Stats.Documents)
	assert.Equal(t, 2, res.Stats.Keywords)
	require.Len(t, res.Graph.Edges, 1)
	assert.Equal(t, "machine learning", res.Graph.Edges[0].A)
	assert.Equal(t, "neural networks", res.Graph.Edges[0].B)
	assert.Equal(t, 2, res.Graph.Edges[0].Weight)
	assert.Empty(t, res.Notices)

	assert.InDelta(t, 1, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("POST", "/api/v1/graph", "200")), 0)
}

func TestBuildGraph_FailedSourceBecomesNotice(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := post(t, srv.Routes(), "/api/v1/graph", `{"sources":["arxiv","wikipedia"],"include_articles":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res pipeline.Result
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))

	assert.Equal(t, 1, res.Stats.FailedSources)
	assert.Equal(t, 1, res.Stats.Articles)
	require.Len(t, res.Notices, 1)
	assert.Equal(t, "wikipedia", res.Notices[0].Source)
	assert.Equal(t, models.NoticeFetchFailure, res.Notices[0].Kind)
}

func TestBuildGraph_ArticlesOptOut(t *testing.T) {
	cfg := config.DefaultConfig()
	client := crawler.NewClient([]crawler.Source{
		&stubSource{name: "arxiv", docs: []models.Document{
			{Source: "arxiv", Title: "Machine learning", Content: "Neural networks"},
		}},
	})
	runner := pipeline.NewRunner(client, keywords.NewRake(), pipeline.Defaults{
		Sources:         []string{"arxiv"},
		IncludeArticles: true,
	})
	h := New(cfg, runner, nil, nil).Routes()

	for body, articles := range map[string]int{`{}`: 1, `{"include_articles":false}`: 0} {
		rec := post(t, h, "/api/v1/graph", body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var res pipeline.Result
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))

		assert.Equal(t, articles, res.Stats.Articles, body)
		assert.Equal(t, articles == 1, res.Request.Articles(), body)
	}
}

func TestBuildGraph_BadRequests(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
		detail  string
	}{
		{
			name:    "malformed json",
			body:    `{"sources":`,
			message: "invalid request body",
		},
		{
			name:    "unknown field",
			body:    `{"limit":3}`,
			message: "invalid request body",
		},
		{
			name:    "too many items",
			body:    `{"items_per_source":21}`,
			message: "validation failed",
			detail:  "items_per_source must be at most 20",
		},
		{
			name:    "unknown source",
			body:    `{"sources":["reddit"]}`,
			message: "validation failed",
			detail:  "sources[0] must be one of",
		},
		{
			name:    "too many phrases",
			body:    `{"max_phrases":11}`,
			message: "validation failed",
			detail:  "max_phrases must be at most 10",
		},
		{
			name:    "disabled source",
			body:    `{"sources":["arxiv","hackernews"]}`,
			message: "source is not enabled: hackernews",
		},
	}

	srv, _ := newTestServer(t)
	h := srv.Routes()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, h, "/api/v1/graph", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var body ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))

			assert.True(t, body.Error)
			assert.Equal(t, http.StatusBadRequest, body.Code)
			assert.Contains(t, body.Message, tt.message)

			if tt.detail != "" {
				require.Len(t, body.Details, 1)
				assert.Contains(t, body.Details[0], tt.detail)
			}
		})
	}
}

func TestBuildGraph_RunnerErrors(t *testing.T) {
	tests := []struct {
		err    error
		name   string
		status int
	}{
		{name: "no sources", err: pipeline.ErrNoSources, status: http.StatusBadRequest},
		{name: "disabled source", err: pipeline.ErrSourceDisabled, status: http.StatusBadRequest},
		{name: "cancelled", err: context.Canceled, status: http.StatusServiceUnavailable},
		{name: "unexpected", err: errors.New("boom"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := New(config.DefaultConfig(), failingRunner{err: tt.err}, nil, nil)

			rec := post(t, srv.Routes(), "/api/v1/graph", `{}`)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestBuildGraphHTML(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := post(t, srv.Routes(), "/api/v1/graph/html", `{"sources":["arxiv"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "vis-network")
	assert.Contains(t, rec.Body.String(), `"id":"machine learning"`)
}

func TestBuildReport(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Routes()

	rec := post(t, h, "/api/v1/graph/report", `{}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<h1>Keyword graph report</h1>")

	rec = post(t, h, "/api/v1/graph/report?format=md", `{}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/markdown; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("# Keyword graph report\n")))
	assert.Contains(t, rec.Body.String(), "<!-- METADATA_START")
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Routes()

	post(t, h, "/api/v1/graph", `{}`)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "test_runs_total 1")
	assert.Contains(t, rec.Body.String(), `test_fetch_requests_total{source="arxiv",status="ok"} 1`)
}

func TestListenAndServe_Shutdown(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.Addr = "127.0.0.1:0"

	srv := New(cfg, failingRunner{}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, srv.ListenAndServe(ctx))
}
