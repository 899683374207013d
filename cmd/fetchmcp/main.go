// Command fetchmcp runs the stdio-transport MCP tool server: scrape,
// map, crawl, and search over stdin/stdout, for editors and agents that
// spawn the server as a child process rather than dialing it over HTTP.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/use-agent/fetchmcp/bootstrap"
	"github.com/use-agent/fetchmcp/config"
)

var rootCmd = &cobra.Command{
	Use:   "fetchmcp",
	Short: "MCP tool server for web scraping, mapping, crawling, and search",
	Long: `fetchmcp exposes four tools over the Model Context Protocol:

  scrape  fetch a single URL and return cleaned content
  map     discover URLs reachable from a page
  crawl   scrape a whole site asynchronously, with progress and webhooks
  search  run a web search and return the matching hits

This binary speaks the stdio transport; see fetchmcp-http for the
streamable-HTTP transport used by remote clients.`,
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().Bool("debug-tools", false, "advertise the _debug_metrics introspection tool")
	_ = viper.BindPFlag("debug_tools", rootCmd.PersistentFlags().Lookup("debug-tools"))

	cobra.OnInitialize(func() {
		viper.SetEnvPrefix("FETCHMCP")
		viper.AutomaticEnv()
	})
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if viper.IsSet("debug_tools") {
		cfg.DebugTools = viper.GetBool("debug_tools")
	}

	initLogger(cfg.Log)
	slog.Info("fetchmcp (stdio) starting",
		"storageBackend", cfg.Storage.Backend,
		"extractorProvider", cfg.Extractor.Provider,
		"debugTools", cfg.DebugTools,
	)

	app, err := bootstrap.Build(cfg)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}

	s := server.NewMCPServer(
		"fetchmcp",
		"0.1.0",
		server.WithToolCapabilities(false),
	)
	app.Server.Register(s)

	if cfg.DebugTools {
		// Stdio has no HTTP surface to hang a /metrics endpoint on, so
		// debug metrics are exposed as a callable tool instead.
		registerDebugMetricsTool(s, app.Metrics)
	}

	return server.ServeStdio(s)
}

func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "fetchmcp:", err)
		os.Exit(1)
	}
}
