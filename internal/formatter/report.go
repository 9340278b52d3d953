package formatter

import (
	"fmt"
	"strings"
	"time"

	"newsgraph/internal/pipeline"
	"newsgraph/pkg/metadata"
)

// ReportVersion is written into the metadata block of every report.
const ReportVersion = "1"

var (
	linkText   = strings.NewReplacer("[", `\[`, "]", `\]`)
	linkTarget = strings.NewReplacer("|", "%7C", "(", "%28", ")", "%29", " ", "%20")
)

// ReportOptions controls how much of a run goes into a report.
type ReportOptions struct {
	TopKeywords int
	TopEdges    int
	Documents   bool
}

// DefaultReportOptions returns the options used by the CLI and the HTTP API.
func DefaultReportOptions() ReportOptions {
	return ReportOptions{TopKeywords: 20, TopEdges: 15, Documents: true}
}

// MarkdownReport renders a run as a signed markdown report.
// The report is marked valid when every source answered.
func MarkdownReport(res *pipeline.Result, opts ReportOptions) string {
	var sb strings.Builder

	sb.WriteString("# Keyword graph report\n\n")

	writeSummary(&sb, res)
	writeKeywords(&sb, res, opts.TopKeywords)
	writeEdges(&sb, res, opts.TopEdges)

	if opts.Documents {
		writeDocuments(&sb, res)
	}

	writeNotices(&sb, res)

	return metadata.Sign(AlignTables(sb.String()), &metadata.Metadata{
		Version:    ReportVersion,
		RunID:      res.RunID,
		Validation: res.Stats.FailedSources == 0,
	})
}

func writeSummary(sb *strings.Builder, res *pipeline.Result) {
	query := res.Request.Query
	if query == "" {
		query = "(source defaults)"
	}

	fmt.Fprintf(sb, "- Run: `%s`\n", res.RunID)
	fmt.Fprintf(sb, "- Started: %s\n", res.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(sb, "- Query: %s\n", query)
	fmt.Fprintf(sb, "- Sources: %s\n", strings.Join(res.Request.Sources, ", "))
	fmt.Fprintf(sb, "- Documents: %d (%d contributed keywords)\n", res.Stats.Documents, res.Stats.Contributing)
	fmt.Fprintf(sb, "- Keywords: %d, links: %d", res.Stats.Keywords, res.Stats.Edges)

	if res.Stats.Articles > 0 {
		fmt.Fprintf(sb, ", articles: %d", res.Stats.Articles)
	}

	sb.WriteString("\n\n")
}

func writeKeywords(sb *strings.Builder, res *pipeline.Result, limit int) {
	sb.WriteString("## Top keywords\n\n")

	keywords := res.Graph.Keywords()
	if len(keywords) == 0 {
		sb.WriteString("_No keywords were extracted._\n\n")

		return
	}

	if limit > 0 && len(keywords) > limit {
		keywords = keywords[:limit]
	}

	degree := res.Graph.Degree()

	sb.WriteString("| Rank | Keyword | Frequency | Links |\n")
	sb.WriteString("| ---: | :--- | ---: | ---: |\n")

	for i, n := range keywords {
		fmt.Fprintf(sb, "| %d | %s | %d | %d |\n", i+1, EscapeCell(n.Label), n.Frequency, degree[n.ID])
	}

	sb.WriteString("\n")
}

func writeEdges(sb *strings.Builder, res *pipeline.Result, limit int) {
	sb.WriteString("## Strongest links\n\n")

	edges := res.Graph.StrongestEdges(limit)
	if len(edges) == 0 {
		sb.WriteString("_No keywords appeared together._\n\n")

		return
	}

	sb.WriteString("| Keyword | Keyword | Documents |\n")
	sb.WriteString("| :--- | :--- | ---: |\n")

	for _, e := range edges {
		fmt.Fprintf(sb, "| %s | %s | %d |\n", EscapeCell(e.A), EscapeCell(e.B), e.Weight)
	}

	sb.WriteString("\n")
}

func writeDocuments(sb *strings.Builder, res *pipeline.Result) {
	sb.WriteString("## Documents\n\n")

	if len(res.Documents) == 0 {
		sb.WriteString("_No documents were fetched._\n\n")

		return
	}

	sb.WriteString("| # | Source | Title |\n")
	sb.WriteString("| ---: | :--- | :--- |\n")

	for i, doc := range res.Documents {
		title := EscapeCell(doc.Title)
		if doc.HasURL() {
			title = "[" + linkText.Replace(title) + "](" + linkTarget.Replace(doc.URL) + ")"
		}

		fmt.Fprintf(sb, "| %d | %s | %s |\n", i+1, doc.Source, title)
	}

	sb.WriteString("\n")
}

func writeNotices(sb *strings.Builder, res *pipeline.Result) {
	if len(res.Notices) == 0 {
		return
	}

	sb.WriteString("## Notices\n\n")

	for _, n := range res.Notices {
		fmt.Fprintf(sb, "- %s\n", n.String())
	}

	sb.WriteString("\n")
}
