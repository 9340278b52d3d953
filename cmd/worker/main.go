// Package main provides the worker command that fetches sources, builds the keyword graph and writes its artifacts.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"newsgraph/internal/config"
	"newsgraph/internal/crawler"
	"newsgraph/internal/crawler/sources"
	"newsgraph/internal/formatter"
	"newsgraph/internal/keywords"
	"newsgraph/internal/logger"
	"newsgraph/internal/metrics"
	"newsgraph/internal/models"
	"newsgraph/internal/pipeline"
)

func main() {
	// 1. Define Command-Line Flags
	// ---------------------------
	configFile := flag.String("config", "", "Path to YAML configuration file")
	sourceList := flag.String("sources", "", "Comma-separated sources (default: enabled sources from config)")
	items := flag.Int("items", pipeline.DefaultItemsPerSource, "Items per source (1-20)")
	query := flag.String("query", "", "Search query (default: per-source query from config)")
	maxPhrases := flag.Int("max-phrases", 0, "Keywords kept per document (1-10, default from config)")
	articles := flag.Bool("articles", false, "Add article nodes linked to their keywords (default from config)")
	output := flag.String("output", "", "Output directory (default: output.base_path from config)")
	debug := flag.Bool("debug", false, "Log at debug level regardless of config")
	saveConfig := flag.String("save-config", "", "Write the effective configuration to this path and exit")

	flag.Parse()

	cfg, err := loadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}

	if *saveConfig != "" {
		if err := cfg.SaveConfig(*saveConfig); err != nil {
			fmt.Fprintf(os.Stderr, "❌ %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("✅ Configuration written to %s\n", *saveConfig)

		return
	}

	// Initialize Logger
	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer func() { _ = log.Sync() }()

	if *debug {
		log.SetLevel("debug")
	}

	outDir := *output
	if outDir == "" {
		outDir = cfg.Output.BasePath
	}

	req := pipeline.Request{
		Query:          strings.TrimSpace(*query),
		ItemsPerSource: *items,
		MaxPhrases:     *maxPhrases,
	}

	// Only an explicit -articles overrides graph.include_articles.
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "articles" {
			req.IncludeArticles = articles
		}
	})

	if *sourceList != "" {
		for name := range strings.SplitSeq(*sourceList, ",") {
			req.Sources = append(req.Sources, strings.TrimSpace(name))
		}
	}

	log.Info("🚀 Starting news graph worker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startTime := time.Now()

	// 2. Wiring
	// ---------
	collector := metrics.NewCollector("newsgraph")
	scraper := crawler.NewScraperWithConfig(&cfg.Fetch)

	srcs, err := sources.FromConfig(cfg, scraper)
	if err != nil {
		log.Error(fmt.Sprintf("❌ Source setup failed: %v", err))
		os.Exit(1)
	}

	client := crawler.NewClientWithConfig(&cfg.Fetch, srcs, log, collector)
	runner := pipeline.NewRunner(client, keywords.NewRake(cfg.Graph.ExtraStopWords...), pipeline.DefaultsFromConfig(cfg),
		pipeline.WithLogger(log),
		pipeline.WithMetrics(collector),
		pipeline.WithSourceLimits(sourceLimits(cfg)),
		pipeline.WithSourceCheck(client.Has),
	)

	// 3. Fetch & Build
	// ----------------
	log.Info("Phase 1: Fetching sources and building graph...")

	res, err := runner.Run(ctx, req)
	if err != nil {
		log.Error(fmt.Sprintf("❌ Run failed: %v", err))
		os.Exit(1)
	}

	log.Info(fmt.Sprintf("✅ Built graph from %d documents in %v", res.Stats.Documents, time.Since(startTime)))

	// 4. Render
	// ---------
	log.Info("Phase 2: Writing artifacts...")

	written, err := writeArtifacts(outDir, res)
	if err != nil {
		log.Error(fmt.Sprintf("❌ Writing artifacts failed: %v", err))
		os.Exit(1)
	}

	// 5. Final Report
	// ---------------
	log.Info("✨ Pipeline Complete!")
	fmt.Println("\n------------------------------------------------")
	fmt.Printf("📊 Summary Report\n")
	fmt.Println("------------------------------------------------")
	fmt.Printf("Run ID: %s\n", res.RunID)
	fmt.Printf("Sources: %s (%d failed, %d cached)\n",
		strings.Join(res.Request.Sources, ", "), res.Stats.FailedSources, res.Stats.CachedSources)
	fmt.Printf("Documents: %d (%d contributed)\n", res.Stats.Documents, res.Stats.Contributing)
	fmt.Printf("Keywords: %d\n", res.Stats.Keywords)
	fmt.Printf("Links: %d\n", res.Stats.Edges)

	if res.Stats.Articles > 0 {
		fmt.Printf("Articles: %d\n", res.Stats.Articles)
	}

	fmt.Printf("Total Duration: %v\n", time.Since(startTime))

	for _, path := range written {
		fmt.Printf("📄 %s\n", path)
	}

	if len(res.Notices) > 0 {
		fmt.Printf("⚠️  Notices: %d\n", len(res.Notices))

		for _, n := range res.Notices {
			fmt.Printf("  - %s\n", n)
		}
	}

	fmt.Println("------------------------------------------------")
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		// Try default location
		if _, err := os.Stat("configs/newsgraph.yaml"); err == nil {
			path = "configs/newsgraph.yaml"
		}
	}

	if path == "" {
		return config.DefaultConfig(), nil
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}

	return cfg, nil
}

// sourceLimits caps each source at its configured limit.
func sourceLimits(cfg *config.Config) map[string]int {
	limits := make(map[string]int, len(cfg.Sources))
	for _, src := range cfg.Sources {
		limits[src.Name] = src.Limit
	}

	return limits
}

// Page renderers; tests replace them to force failures.
var (
	renderGraphPage  = formatter.GraphHTML
	renderReportPage = formatter.ReportHTML
)

type artifact struct {
	name string
	data []byte
}

// renderArtifacts renders the HTML pages first so that a page that cannot be
// produced becomes a notice carried by graph.json and report.md.
func renderArtifacts(res *pipeline.Result) ([]artifact, error) {
	opts := formatter.DefaultReportOptions()

	graphPage, graphErr := renderGraphPage(res)
	if graphErr != nil {
		addRenderNotice(res, "graph.html", graphErr)
	}

	reportPage, reportErr := renderReportPage(formatter.MarkdownReport(res, opts))
	if reportErr != nil {
		addRenderNotice(res, "report.html", reportErr)
	}

	graphJSON, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode graph: %w", err)
	}

	artifacts := []artifact{
		{name: "graph.json", data: graphJSON},
		{name: "report.md", data: []byte(formatter.MarkdownReport(res, opts))},
	}

	if reportErr == nil {
		artifacts = append(artifacts, artifact{name: "report.html", data: reportPage})
	}

	if graphErr == nil {
		artifacts = append(artifacts, artifact{name: "graph.html", data: graphPage})
	}

	return artifacts, nil
}

func addRenderNotice(res *pipeline.Result, name string, err error) {
	res.Notices = append(res.Notices, models.Notice{
		Kind:    models.NoticeRenderFailure,
		Message: fmt.Sprintf("%s: %v", name, err),
	})
}

// writeArtifacts writes the run's artifacts into a directory named after the run.
func writeArtifacts(base string, res *pipeline.Result) ([]string, error) {
	dir := filepath.Join(base, res.StartedAt.Format("20060102-150405")+"-"+res.RunID[:min(8, len(res.RunID))])
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	artifacts, err := renderArtifacts(res)
	if err != nil {
		return nil, err
	}

	written := make([]string, 0, len(artifacts))

	for _, a := range artifacts {
		path := filepath.Join(dir, a.name)
		if err := os.WriteFile(path, a.data, 0o644); err != nil {
			return written, fmt.Errorf("write %s: %w", path, err)
		}

		written = append(written, path)
	}

	return written, nil
}
