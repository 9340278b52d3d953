package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsgraph/internal/config"
	"newsgraph/internal/models"
)

var errUpstream = errors.New("upstream down")

func TestBreakers_OpenAfterFailures(t *testing.T) {
	b := NewBreakers(config.BreakerConfig{
		FailureRatio: 0.5,
		MinRequests:  2,
		MaxRequests:  1,
		IntervalSec:  60,
		OpenSec:      60,
	}, nil, nil)

	calls := 0
	failing := func() ([]models.Document, error) {
		calls++

		return nil, errUpstream
	}

	for range 2 {
		_, err := b.Execute(context.Background(), "arxiv", failing)
		require.ErrorIs(t, err, errUpstream)
	}

	assert.Equal(t, gobreaker.StateOpen, b.State("arxiv"))

	_, err := b.Execute(context.Background(), "arxiv", failing)
	require.ErrorIs(t, err, ErrSourceUnavailable)
	assert.Equal(t, 2, calls)

	// Other sources have their own breaker.
	docs, err := b.Execute(context.Background(), "wikipedia", func() ([]models.Document, error) {
		return []models.Document{{Title: "AI"}}, nil
	})
	require.NoError(t, err)
	assert.Len(t, docs, 1)
	assert.Equal(t, gobreaker.StateClosed, b.State("wikipedia"))
}

func TestBreakers_Nil(t *testing.T) {
	var b *Breakers

	docs, err := b.Execute(context.Background(), "x", func() ([]models.Document, error) {
		return []models.Document{{Title: "t"}}, nil
	})
	require.NoError(t, err)
	assert.Len(t, docs, 1)
	assert.Equal(t, gobreaker.StateClosed, b.State("x"))
}

func TestBreakers_IgnoresCallerErrors(t *testing.T) {
	tests := []struct {
		err  error
		name string
	}{
		{name: "not found", err: fmt.Errorf("%w: Nonexistent page", ErrNotFound)},
		{name: "query required", err: ErrQueryRequired},
		{name: "client status", err: &StatusError{StatusCode: http.StatusNotFound}},
		{name: "cancelled", err: context.Canceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBreakers(config.BreakerConfig{
				FailureRatio: 0.5,
				MinRequests:  2,
				MaxRequests:  1,
				IntervalSec:  60,
				OpenSec:      60,
			}, nil, nil)

			for range 5 {
				_, err := b.Execute(context.Background(), "wikipedia", func() ([]models.Document, error) {
					return nil, tt.err
				})
				require.ErrorIs(t, err, tt.err)
			}

			assert.Equal(t, gobreaker.StateClosed, b.State("wikipedia"))
		})
	}
}

func TestBreakers_CountsUpstreamStatus(t *testing.T) {
	b := NewBreakers(config.BreakerConfig{
		FailureRatio: 0.5,
		MinRequests:  2,
		MaxRequests:  1,
		IntervalSec:  60,
		OpenSec:      60,
	}, nil, nil)

	for _, code := range []int{http.StatusInternalServerError, http.StatusTooManyRequests} {
		_, err := b.Execute(context.Background(), "arxiv", func() ([]models.Document, error) {
			return nil, &StatusError{StatusCode: code}
		})
		require.ErrorIs(t, err, ErrUnexpectedStatusCode)
	}

	assert.Equal(t, gobreaker.StateOpen, b.State("arxiv"))
}

func TestBreakers_CallerGone(t *testing.T) {
	b := NewBreakers(config.BreakerConfig{
		FailureRatio: 0.5,
		MinRequests:  2,
		MaxRequests:  1,
		IntervalSec:  60,
		OpenSec:      60,
	}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for range 3 {
		_, err := b.Execute(ctx, "hackernews", func() ([]models.Document, error) {
			return nil, context.DeadlineExceeded
		})
		require.ErrorIs(t, err, context.DeadlineExceeded)
	}

	assert.Equal(t, gobreaker.StateClosed, b.State("hackernews"))
}
