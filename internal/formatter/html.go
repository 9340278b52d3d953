package formatter

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"newsgraph/internal/graph"
	"newsgraph/internal/pipeline"
	"newsgraph/pkg/metadata"
)

// ErrRender is returned when a page cannot be produced.
var ErrRender = errors.New("render failed")

// markdown converts reports; tables need the GFM extension.
var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Keyword graph report</title>
<style>
body { max-width: 960px; margin: 2rem auto; padding: 0 1rem; font-family: sans-serif; color: #222222; }
table { border-collapse: collapse; margin: 1rem 0; }
th, td { border: 1px solid #cccccc; padding: 4px 10px; }
footer { margin-top: 2rem; color: #777777; font-size: 0.8rem; }
</style>
</head>
<body>
<main>
{{.Body}}
</main>
{{with .Meta}}<footer>Run {{.RunID}} signed {{.LastModify.Format "2006-01-02T15:04:05Z07:00"}} sha256 {{.Hash}}</footer>{{end}}
</body>
</html>
`))

var graphTemplate = template.Must(template.New("graph").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<script src="https://unpkg.com/vis-network@9.1.9/standalone/umd/vis-network.min.js"></script>
<style>
body { margin: 0; background: #222222; color: #ffffff; font-family: sans-serif; }
header { padding: 8px 16px; }
#graph { width: 100%; height: 500px; }
</style>
</head>
<body>
<header><strong>{{.Title}}</strong> {{.Summary}}</header>
<div id="graph"></div>
<script>
const data = {{.Data}};
new vis.Network(document.getElementById("graph"), {
  nodes: new vis.DataSet(data.nodes),
  edges: new vis.DataSet(data.edges)
}, {
  nodes: { shape: "dot", font: { color: "#ffffff" }, scaling: { min: 8, max: 40 } },
  edges: { color: { color: "#888888" }, scaling: { min: 1, max: 8 } },
  groups: { article: { shape: "box", color: "#f0a30a", font: { color: "#222222" } } },
  physics: { stabilization: { iterations: 200 } }
});
</script>
</body>
</html>
`))

type visNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Group string `json:"group"`
	Title string `json:"title"`
	Value int    `json:"value"`
}

type visEdge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Title string `json:"title"`
	Value int    `json:"value"`
	Dash  bool   `json:"dashes"`
}

type visData struct {
	Nodes []visNode `json:"nodes"`
	Edges []visEdge `json:"edges"`
}

// ReportHTML converts a markdown report to a standalone HTML page.
// The metadata block is moved into the page footer.
func ReportHTML(report string) ([]byte, error) {
	meta, clean := metadata.Extract(report)

	var body bytes.Buffer
	if err := markdown.Convert([]byte(clean), &body); err != nil {
		return nil, fmt.Errorf("%w: convert markdown: %w", ErrRender, err)
	}

	var page bytes.Buffer

	err := reportTemplate.Execute(&page, struct {
		Meta *metadata.Metadata
		Body template.HTML
	}{
		Meta: meta,
		// goldmark escapes raw HTML unless configured otherwise.
		Body: template.HTML(body.String()),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}

	return page.Bytes(), nil
}

// GraphHTML renders the graph of a run as an interactive vis-network page.
func GraphHTML(res *pipeline.Result) ([]byte, error) {
	if res == nil || res.Graph == nil {
		return nil, fmt.Errorf("%w: no graph", ErrRender)
	}

	summary := fmt.Sprintf("%d keywords, %d links from %d documents (%s)",
		res.Stats.Keywords, res.Stats.Edges, res.Stats.Documents, strings.Join(res.Request.Sources, ", "))

	var page bytes.Buffer

	err := graphTemplate.Execute(&page, struct {
		Title   string
		Summary string
		Data    visData
	}{
		Title:   "Keyword graph",
		Summary: summary,
		Data:    toVis(res.Graph),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}

	return page.Bytes(), nil
}

func toVis(g *graph.Graph) visData {
	data := visData{
		Nodes: make([]visNode, 0, len(g.Nodes)),
		Edges: make([]visEdge, 0, len(g.Edges)),
	}

	for _, n := range g.Nodes {
		data.Nodes = append(data.Nodes, visNode{
			ID:    n.ID,
			Label: n.Label,
			Group: string(n.Type),
			Title: fmt.Sprintf("%s (%d)", n.Label, n.Frequency),
			Value: n.Frequency,
		})
	}

	for _, e := range g.Edges {
		data.Edges = append(data.Edges, visEdge{
			From:  e.A,
			To:    e.B,
			Title: fmt.Sprintf("%s: %d", e.Kind, e.Weight),
			Value: e.Weight,
			Dash:  e.Kind == graph.EdgeMention,
		})
	}

	return data
}
