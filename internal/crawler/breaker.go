package crawler

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"newsgraph/internal/config"
	"newsgraph/internal/logger"
	"newsgraph/internal/metrics"
	"newsgraph/internal/models"
)

// ErrSourceUnavailable is returned while a source's breaker is open.
var ErrSourceUnavailable = errors.New("source temporarily unavailable")

// Breakers keeps one circuit breaker per source so a failing upstream is skipped quickly.
type Breakers struct {
	breakers map[string]*gobreaker.CircuitBreaker
	log      *logger.Logger
	metrics  *metrics.Collector
	settings config.BreakerConfig
	mu       sync.Mutex
}

// NewBreakers creates an empty breaker set.
func NewBreakers(settings config.BreakerConfig, log *logger.Logger, m *metrics.Collector) *Breakers {
	if log == nil {
		log = logger.Nop()
	}

	return &Breakers{
		breakers: make(map[string]*gobreaker.CircuitBreaker),
		log:      log,
		metrics:  m,
		settings: settings,
	}
}

// callerGoneError marks a failure caused by the caller's context ending.
type callerGoneError struct {
	err error
}

func (e *callerGoneError) Error() string { return e.err.Error() }

func (e *callerGoneError) Unwrap() error { return e.err }

// Execute runs fn through the breaker for source. ctx is the caller's context:
// once it is done, the failure is the caller's and does not count against the source.
func (b *Breakers) Execute(ctx context.Context, source string, fn func() ([]models.Document, error)) ([]models.Document, error) {
	if b == nil {
		return fn()
	}

	result, err := b.get(source).Execute(func() (interface{}, error) {
		docs, err := fn()
		if err != nil && ctx.Err() != nil {
			return nil, &callerGoneError{err: err}
		}

		return docs, err
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, errors.Join(ErrSourceUnavailable, err)
	}

	if err != nil {
		return nil, err
	}

	docs, _ := result.([]models.Document)

	return docs, nil
}

// State returns the current breaker state for source.
func (b *Breakers) State(source string) gobreaker.State {
	if b == nil {
		return gobreaker.StateClosed
	}

	return b.get(source).State()
}

func (b *Breakers) get(source string) *gobreaker.CircuitBreaker {
	b.mu.Lock()
	defer b.mu.Unlock()

	if cb, ok := b.breakers[source]; ok {
		return cb
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        source,
		MaxRequests: b.settings.MaxRequests,
		Interval:    time.Duration(b.settings.IntervalSec) * time.Second,
		Timeout:     time.Duration(b.settings.OpenSec) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < b.settings.MinRequests {
				return false
			}

			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)

			return failureRatio >= b.settings.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			b.log.Warn("circuit breaker state changed",
				"source", name,
				"from", from.String(),
				"to", to.String(),
			)
			b.metrics.RecordBreakerState(name, int(to))
		},
		IsSuccessful: isHealthy,
	})

	b.breakers[source] = cb

	return cb
}

// isHealthy reports whether err leaves the upstream's health in doubt. Missing pages,
// bad queries, client errors and callers that gave up say nothing about the upstream.
func isHealthy(err error) bool {
	if err == nil {
		return true
	}

	var gone *callerGoneError
	if errors.As(err, &gone) || errors.Is(err, context.Canceled) {
		return true
	}

	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrQueryRequired) {
		return true
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		code := statusErr.StatusCode

		return code >= http.StatusBadRequest && code < http.StatusInternalServerError && !isRetryableStatus(code)
	}

	return false
}
