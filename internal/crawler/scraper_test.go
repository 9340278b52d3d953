package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsgraph/internal/config"
)

func testFetchConfig() *config.FetchConfig {
	return &config.FetchConfig{
		UserAgent: "newsgraph-test",
		Retry: config.RetryPolicy{
			MaxAttempts:       3,
			InitialDelayMs:    1,
			MaxDelayMs:        5,
			BackoffMultiplier: 2.0,
		},
		TimeoutSec:   5,
		BufferSizeKb: 64,
	}
}

func TestNewScraper(t *testing.T) {
	s := NewScraper()
	require.NotNil(t, s)
	assert.Equal(t, 15*time.Second, s.client.Timeout)
	assert.Equal(t, 2, s.retryPolicy.MaxAttempts)
}

func TestScraper_FetchWithMetrics(t *testing.T) {
	var userAgent string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("hello"))
	}))
	defer server.Close()

	s := NewScraperWithConfig(testFetchConfig())

	body, status, duration, err := s.FetchWithMetrics(context.Background(), server.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))
	assert.Equal(t, http.StatusOK, status)
	assert.Positive(t, duration)
	assert.Equal(t, "newsgraph-test", userAgent)
}

func TestScraper_RetriesRetryableStatus(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)

			return
		}

		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	s := NewScraperWithConfig(testFetchConfig())

	body, err := s.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(3), calls.Load())
}

func TestScraper_NoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	s := NewScraperWithConfig(testFetchConfig())

	_, status, _, err := s.FetchWithMetrics(context.Background(), server.URL, nil)
	require.ErrorIs(t, err, ErrUnexpectedStatusCode)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, int32(1), calls.Load())

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}

func TestScraper_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	s := NewScraperWithConfig(testFetchConfig())

	_, err := s.Fetch(context.Background(), server.URL)
	require.ErrorIs(t, err, ErrUnexpectedStatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestScraper_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cfg := testFetchConfig()
	cfg.Retry.InitialDelayMs = 1000
	cfg.Retry.MaxDelayMs = 1000

	s := NewScraperWithConfig(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := s.Fetch(ctx, server.URL)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestScraper_BufferLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 4096)))
	}))
	defer server.Close()

	cfg := testFetchConfig()
	cfg.BufferSizeKb = 1

	body, err := NewScraperWithConfig(cfg).Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Len(t, body, 1024)
}

func TestScraper_FetchJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`{"ids":[1,2,3]}`))
	}))
	defer server.Close()

	var out struct {
		IDs []int `json:"ids"`
	}

	s := NewScraperWithConfig(testFetchConfig())
	require.NoError(t, s.FetchJSON(context.Background(), server.URL, &out))
	assert.Equal(t, []int{1, 2, 3}, out.IDs)

	var bad []string
	require.Error(t, s.FetchJSON(context.Background(), server.URL, &bad))
}

func TestIsRetryableStatus(t *testing.T) {
	assert.True(t, isRetryableStatus(http.StatusServiceUnavailable))
	assert.True(t, isRetryableStatus(http.StatusGatewayTimeout))
	assert.True(t, isRetryableStatus(http.StatusTooManyRequests))
	assert.True(t, isRetryableStatus(http.StatusRequestTimeout))
	assert.False(t, isRetryableStatus(http.StatusNotFound))
	assert.False(t, isRetryableStatus(http.StatusInternalServerError))
}
