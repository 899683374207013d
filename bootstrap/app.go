// Package bootstrap wires the acquisition pipeline, remote adapter, and
// tool server from a loaded config.Config. Shared by both transport
// binaries so neither duplicates the other's construction order.
package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/use-agent/fetchmcp/cache"
	"github.com/use-agent/fetchmcp/cleaner"
	"github.com/use-agent/fetchmcp/config"
	"github.com/use-agent/fetchmcp/extractor"
	"github.com/use-agent/fetchmcp/mcpserver"
	"github.com/use-agent/fetchmcp/monitoring"
	"github.com/use-agent/fetchmcp/pipeline"
	"github.com/use-agent/fetchmcp/remote"
	"github.com/use-agent/fetchmcp/strategy"
)

// App holds every long-lived collaborator the transport binaries need
// after wiring: the tool server to register, and the metrics collector
// the HTTP binary additionally exposes on /metrics.
type App struct {
	Server  *mcpserver.Server
	Metrics *monitoring.Collector
}

// Build constructs the full dependency graph: strategies -> selector ->
// cache -> cleaner -> extractor -> remote adapter -> pipelines -> tool
// server. Mirrors the teacher's numbered bootstrap order in cmd/purify,
// generalized from a single scraper+dispatcher to the strategy engine.
func Build(cfg *config.Config) (*App, error) {
	metrics := monitoring.New()

	backend, err := buildCacheBackend(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: cache backend: %w", err)
	}
	retention := cache.RetentionPolicy{
		TTL:      cfg.Storage.TTL,
		MaxSize:  cfg.Storage.MaxBytes,
		MaxItems: cfg.Storage.MaxItems,
	}
	c := cache.New(backend, retention, metrics)

	remoteClient := remote.NewClient(cfg.Remote.BaseURL, cfg.Remote.APIKey)

	strategies, err := buildStrategies(remoteClient)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: strategies: %w", err)
	}

	learned := strategy.NewLearnedStore(cfg.Strategy.StorePath)
	optimizeFor := strategy.OptimizeCost
	if cfg.Strategy.OptimizeFor == "speed" {
		optimizeFor = strategy.OptimizeSpeed
	}
	selector := strategy.NewSelector(strategies, learned, optimizeFor, metrics)

	cl := cleaner.NewCleaner()
	extractorImpl := extractor.New(extractor.Config{
		Provider: cfg.Extractor.Provider,
		APIKey:   cfg.Extractor.APIKey,
		BaseURL:  cfg.Extractor.BaseURL,
		Model:    cfg.Extractor.Model,
	})

	scrapeP := pipeline.New(c, selector, cl, extractorImpl)
	mapP := pipeline.NewMapPipeline(remoteClient)
	crawlP := pipeline.NewCrawlPipeline(remoteClient)
	searchP := pipeline.NewSearchPipeline(remoteClient)

	limiter := mcpserver.NewToolLimiter(cfg.RateLimit)
	extractAdvertised := extractorImpl != nil
	server := mcpserver.New(scrapeP, mapP, crawlP, searchP, metrics, limiter, extractAdvertised)

	slog.Info("fetchmcp bootstrap complete",
		"strategies", len(strategies),
		"storageBackend", cfg.Storage.Backend,
		"extractorProvider", cfg.Extractor.Provider,
		"extractAdvertised", extractAdvertised,
	)

	return &App{Server: server, Metrics: metrics}, nil
}

func buildCacheBackend(cfg config.StorageConfig) (cache.Backend, error) {
	switch cfg.Backend {
	case "filesystem":
		return cache.NewFilesystemBackend(cfg.Root)
	default:
		return cache.NewMemoryBackend(), nil
	}
}

// buildStrategies assembles the scrape engine's strategy set: the free
// native HTTP fetcher, the free native browser fetcher, and the remote
// service as a paid last resort. The browser strategy is launched with
// sensible headless defaults; SPEC_FULL.md's env var list carries no
// browser-specific knobs, so there is nothing to bind from config here.
func buildStrategies(remoteClient *remote.Client) ([]strategy.Strategy, error) {
	strategies := []strategy.Strategy{strategy.NewHTTPStrategy()}

	browser, err := strategy.NewBrowserStrategy(strategy.BrowserConfig{
		Headless:   true,
		NoSandbox:  true,
		MaxTimeout: 0,
	})
	if err != nil {
		slog.Warn("browser strategy unavailable, continuing without it", "error", err)
	} else {
		strategies = append(strategies, browser)
	}

	strategies = append(strategies, remote.NewScrapeStrategy(remoteClient))
	return strategies, nil
}
