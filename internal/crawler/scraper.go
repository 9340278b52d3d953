package crawler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"newsgraph/internal/config"
	"newsgraph/pkg/utils"
)

// ErrUnexpectedStatusCode indicates an HTTP response with unexpected status.
var ErrUnexpectedStatusCode = errors.New("unexpected status code")

// StatusError carries the status code of a non-200 response.
// It matches ErrUnexpectedStatusCode with errors.Is.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d", ErrUnexpectedStatusCode, e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	return ErrUnexpectedStatusCode
}

// Scraper performs GET requests with config-driven retry logic.
type Scraper struct {
	client       *http.Client
	headers      *utils.HTTPHelper
	retryPolicy  config.RetryPolicy
	bufferSizeKb int
}

// NewScraper creates a new scraper instance with default config.
func NewScraper() *Scraper {
	fetch := config.DefaultConfig().Fetch

	return NewScraperWithConfig(&fetch)
}

// NewScraperWithConfig creates a scraper from the fetch section of the config.
func NewScraperWithConfig(fetch *config.FetchConfig) *Scraper {
	return &Scraper{
		client: &http.Client{
			Timeout: fetch.GetTimeout(),
		},
		headers:      utils.NewHTTPHelper(fetch.UserAgent),
		retryPolicy:  fetch.Retry,
		bufferSizeKb: fetch.BufferSizeKb,
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (s *Scraper) WithHTTPClient(client *http.Client) *Scraper {
	s.client = client

	return s
}

// FetchWithMetrics returns (body, statusCode, duration, error).
func (s *Scraper) FetchWithMetrics(ctx context.Context, url string, headers map[string]string) ([]byte, int, time.Duration, error) {
	var lastErr error

	var lastStatusCode int

	totalDuration := time.Duration(0)
	maxAttempts := max(s.retryPolicy.MaxAttempts, 1)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, s.retryPolicy.GetRetryDelay(attempt-1)); err != nil {
				return nil, lastStatusCode, totalDuration, errors.Join(lastErr, err)
			}
		}

		startTime := time.Now()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
		if err != nil {
			return nil, 0, totalDuration, fmt.Errorf("failed to create request: %w", err)
		}

		req.Header = s.headers.BuildHeaders(headers)

		resp, err := s.client.Do(req)
		totalDuration += time.Since(startTime)

		if err != nil {
			lastErr = fmt.Errorf("request failed (attempt %d/%d): %w", attempt, maxAttempts, err)

			if ctx.Err() != nil {
				break
			}

			continue
		}

		lastStatusCode = resp.StatusCode

		if resp.StatusCode != http.StatusOK {
			drainAndClose(resp.Body)

			lastErr = &StatusError{StatusCode: resp.StatusCode}

			// Only retry on specific status codes
			if !isRetryableStatus(resp.StatusCode) {
				break
			}

			continue
		}

		// bufferSizeKb is in KB, convert to bytes
		limit := int64(s.bufferSizeKb) * 1024
		body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
		drainAndClose(resp.Body)

		if err != nil {
			lastErr = fmt.Errorf("failed to read response body: %w", err)

			continue
		}

		return body, resp.StatusCode, totalDuration, nil
	}

	return nil, lastStatusCode, totalDuration, lastErr
}

// Fetch returns the body of url.
func (s *Scraper) Fetch(ctx context.Context, url string) ([]byte, error) {
	body, _, _, err := s.FetchWithMetrics(ctx, url, nil)

	return body, err
}

// FetchJSON decodes the JSON body of url into v.
func (s *Scraper) FetchJSON(ctx context.Context, url string, v any) error {
	body, _, _, err := s.FetchWithMetrics(ctx, url, map[string]string{"Accept": "application/json"})
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode JSON from %s: %w", url, err)
	}

	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 64*1024))
	_ = body.Close()
}

// isRetryableStatus determines if we should retry based on HTTP status code.
func isRetryableStatus(statusCode int) bool {
	// Retry on temporary failures
	switch statusCode {
	case http.StatusServiceUnavailable: // 503
		return true
	case http.StatusGatewayTimeout: // 504
		return true
	case http.StatusTooManyRequests: // 429
		return true
	case http.StatusRequestTimeout: // 408
		return true
	}

	return false
}
