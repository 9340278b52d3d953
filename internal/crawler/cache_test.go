package crawler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsgraph/internal/models"
)

func TestCache_GetPut(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	c := NewCache(5 * time.Minute)
	c.now = func() time.Time { return now }

	docs := []models.Document{{Source: "arxiv", Title: "Paper"}}
	c.Put("arxiv", "llm", 5, docs)

	got, ok := c.Get("arxiv", "llm", 5)
	require.True(t, ok)
	assert.Equal(t, docs, got)

	// Returned slices are copies.
	got[0].Title = "changed"
	again, _ := c.Get("arxiv", "llm", 5)
	assert.Equal(t, "Paper", again[0].Title)
}

func TestCache_KeySeparation(t *testing.T) {
	c := NewCache(time.Minute)
	c.Put("arxiv", "llm", 5, []models.Document{{Source: "arxiv", Title: "A"}})

	_, ok := c.Get("arxiv", "llm", 6)
	assert.False(t, ok)

	_, ok = c.Get("arxiv", "robots", 5)
	assert.False(t, ok)

	_, ok = c.Get("googlenews", "llm", 5)
	assert.False(t, ok)
}

func TestCache_Expiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	c := NewCache(300 * time.Second)
	c.now = func() time.Time { return now }

	c.Put("hackernews", "", 3, []models.Document{{Source: "hackernews", Title: "Story"}})

	now = now.Add(299 * time.Second)
	_, ok := c.Get("hackernews", "", 3)
	assert.True(t, ok)

	now = now.Add(time.Second)
	_, ok = c.Get("hackernews", "", 3)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestCache_Purge(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	c := NewCache(time.Minute)
	c.now = func() time.Time { return now }

	c.Put("a", "", 1, nil)
	now = now.Add(30 * time.Second)
	c.Put("b", "", 1, nil)
	now = now.Add(45 * time.Second)

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, 1, c.Purge())
}

func TestCache_Disabled(t *testing.T) {
	c := NewCache(0)
	c.Put("a", "", 1, []models.Document{{Title: "x"}})

	_, ok := c.Get("a", "", 1)
	assert.False(t, ok)

	var nilCache *Cache
	_, ok = nilCache.Get("a", "", 1)
	assert.False(t, ok)
	assert.NotPanics(t, func() { nilCache.Put("a", "", 1, nil) })
}

func TestClient_RunCacheJanitor(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	cache := NewCache(time.Minute)
	cache.now = func() time.Time { return now }
	cache.Put("a", "", 1, nil)

	// Every entry is already expired for the janitor's clock.
	cache.now = func() time.Time { return now.Add(time.Hour) }

	c := NewClient(nil, WithCache(cache))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		c.RunCacheJanitor(ctx, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return cache.Len() == 0 }, time.Second, 5*time.Millisecond)

	cancel()
	<-done

	assert.NotPanics(t, func() { NewClient(nil).RunCacheJanitor(context.Background(), time.Second) })
}
