// Package main provides the HTTP server that builds keyword graphs on request.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"newsgraph/internal/config"
	"newsgraph/internal/crawler"
	"newsgraph/internal/crawler/sources"
	"newsgraph/internal/keywords"
	"newsgraph/internal/logger"
	"newsgraph/internal/metrics"
	"newsgraph/internal/pipeline"
	"newsgraph/internal/server"
)

func main() {
	configFile := flag.String("config", "", "Path to YAML configuration file")
	addr := flag.String("addr", "", "Listen address (default: server.addr from config)")

	flag.Parse()

	cfg := config.DefaultConfig()

	configPath := *configFile
	if configPath == "" {
		// Try default location
		if _, err := os.Stat("configs/newsgraph.yaml"); err == nil {
			configPath = "configs/newsgraph.yaml"
		}
	}

	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "❌ Failed to load config %s: %v\n", configPath, err)
			os.Exit(1)
		}

		cfg = loaded
	}

	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer func() { _ = log.Sync() }()

	collector := metrics.NewCollector("newsgraph")
	scraper := crawler.NewScraperWithConfig(&cfg.Fetch)

	srcs, err := sources.FromConfig(cfg, scraper)
	if err != nil {
		log.Error("source setup failed", "error", err)
		os.Exit(1)
	}

	limits := make(map[string]int, len(cfg.Sources))
	for _, src := range cfg.Sources {
		limits[src.Name] = src.Limit
	}

	client := crawler.NewClientWithConfig(&cfg.Fetch, srcs, log, collector)
	runner := pipeline.NewRunner(client, keywords.NewRake(cfg.Graph.ExtraStopWords...), pipeline.DefaultsFromConfig(cfg),
		pipeline.WithLogger(log),
		pipeline.WithMetrics(collector),
		pipeline.WithSourceLimits(limits),
		pipeline.WithSourceCheck(client.Has),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go client.RunCacheJanitor(ctx, cfg.Fetch.GetCacheTTL())

	if err := server.New(cfg, runner, collector, log).ListenAndServe(ctx); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
