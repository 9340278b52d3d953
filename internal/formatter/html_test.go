package formatter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsgraph/internal/graph"
	"newsgraph/internal/pipeline"
)

func TestReportHTML(t *testing.T) {
	page, err := ReportHTML(MarkdownReport(sampleResult(), DefaultReportOptions()))
	require.NoError(t, err)

	html := string(page)

	assert.Contains(t, html, "<h1>Keyword graph report</h1>")
	assert.Contains(t, html, "<table>")
	assert.Contains(t, html, "cloud computing</td>")
	assert.Contains(t, html, `<a href="https://arxiv.org/abs/1">`)
	assert.Contains(t, html, "<footer>Run run-42 signed")
	assert.NotContains(t, html, "METADATA_START")
}

func TestReportHTML_EscapesRawHTML(t *testing.T) {
	page, err := ReportHTML("# Title\n\n<script>alert(1)</script>\n")
	require.NoError(t, err)

	assert.NotContains(t, string(page), "<script>alert(1)</script>")
	assert.NotContains(t, string(page), "<footer>")
}

func TestGraphHTML(t *testing.T) {
	res := sampleResult()
	res.Graph.Nodes = append(res.Graph.Nodes, graph.Node{
		ID: graph.ArticleID("A & B"), Label: "A & B", Type: graph.NodeArticle, Frequency: 1,
	})

	page, err := GraphHTML(res)
	require.NoError(t, err)

	html := string(page)

	assert.Contains(t, html, "vis-network")
	assert.Contains(t, html, `"id":"cloud computing"`)
	assert.Contains(t, html, `"group":"article"`)
	assert.Contains(t, html, `"value":2`)
	assert.Contains(t, html, "3 keywords, 3 links from 2 documents (arxiv, googlenews)")
	assert.NotContains(t, html, `"A & B"`)
}

func TestGraphHTML_NoGraph(t *testing.T) {
	_, err := GraphHTML(&pipeline.Result{})
	require.ErrorIs(t, err, ErrRender)

	_, err = GraphHTML(nil)
	require.ErrorIs(t, err, ErrRender)
}
