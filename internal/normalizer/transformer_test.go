package normalizer

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsgraph/internal/models"
)

func TestNewTransformer(t *testing.T) {
	tr := NewTransformer(0)
	require.NotNil(t, tr)
	assert.Equal(t, DefaultMaxContentRunes, tr.maxContentRunes)
}

func TestTransformer_Transform(t *testing.T) {
	tr := NewTransformer(20)

	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))

	in := models.Document{
		Source:    " GoogleNews ",
		Title:     "  Chips   &amp; <b>AI</b>\n",
		Content:   "<p>Semiconductor   makers race to build accelerators.</p>",
		URL:       " https://example.com/a ",
		Timestamp: &ts,
	}

	out := tr.Transform(in)

	assert.Equal(t, "googlenews", out.Source)
	assert.Equal(t, "Chips & AI", out.Title)
	assert.Equal(t, "Semiconductor makers...", out.Content)
	assert.Equal(t, "https://example.com/a", out.URL)
	require.NotNil(t, out.Timestamp)
	assert.Equal(t, time.UTC, out.Timestamp.Location())
	assert.True(t, out.Timestamp.Equal(ts))

	// The input is not modified.
	assert.Equal(t, " GoogleNews ", in.Source)
}

func TestTransformer_Transform_DropsBadURL(t *testing.T) {
	tr := NewTransformer(0)

	for _, raw := range []string{"::not-a-url", "example.com/a", "ftp://example.com/a", "not a url"} {
		out := tr.Transform(models.Document{Source: "arxiv", Title: "Title", Content: "Body", URL: raw})

		assert.Empty(t, out.URL, raw)
		assert.Equal(t, "Title", out.Title, raw)
		assert.Equal(t, "Body", out.Content, raw)
	}

	out := tr.Transform(models.Document{Source: "arxiv", Title: "Title", URL: "http://arxiv.org/abs/1"})
	assert.Equal(t, "http://arxiv.org/abs/1", out.URL)
}

func TestTransformer_Transform_TitleFallback(t *testing.T) {
	tr := NewTransformer(0)

	out := tr.Transform(models.Document{Source: "hackernews", Content: strings.Repeat("word ", 40)})

	assert.NotEmpty(t, out.Title)
	assert.True(t, strings.HasSuffix(out.Title, "..."))
}
