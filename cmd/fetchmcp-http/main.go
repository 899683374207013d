// Command fetchmcp-http runs the streamable-HTTP transport MCP tool
// server alongside a small operational surface (/healthz, /metrics,
// /metrics.json) for remote clients and monitoring probes.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	mcpserverlib "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/use-agent/fetchmcp/bootstrap"
	"github.com/use-agent/fetchmcp/config"
	"github.com/use-agent/fetchmcp/monitoring"
)

var rootCmd = &cobra.Command{
	Use:   "fetchmcp-http",
	Short: "MCP tool server (streamable-HTTP transport) for web scraping, mapping, crawling, and search",
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().Int("port", 0, "HTTP port (overrides FETCHMCP_HTTP_PORT)")
	_ = viper.BindPFlag("http_port_flag", rootCmd.PersistentFlags().Lookup("port"))

	cobra.OnInitialize(func() {
		viper.SetEnvPrefix("FETCHMCP")
		viper.AutomaticEnv()
	})
}

func runServe(cmd *cobra.Command, args []string) error {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()
	if port := viper.GetInt("http_port_flag"); port != 0 {
		cfg.HTTP.Port = port
	}

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("fetchmcp-http starting",
		"port", cfg.HTTP.Port,
		"production", cfg.HTTP.Production,
		"storageBackend", cfg.Storage.Backend,
	)

	// ── 3. Wire the acquisition pipeline and tool server ────────────
	app, err := bootstrap.Build(cfg)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}

	mcpSrv := mcpserverlib.NewMCPServer(
		"fetchmcp",
		"0.1.0",
		mcpserverlib.WithToolCapabilities(false),
	)
	app.Server.Register(mcpSrv)

	httpMCP := mcpserverlib.NewStreamableHTTPServer(mcpSrv,
		mcpserverlib.WithStateLess(!cfg.HTTP.SessionResumable),
	)

	// ── 4. Setup router ──────────────────────────────────────────────
	mode := gin.ReleaseMode
	if !cfg.HTTP.Production {
		mode = gin.DebugMode
	}
	gin.SetMode(mode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	monitoring.RegisterRoutes(router, app.Metrics)
	router.Any("/mcp", gin.WrapH(httpMCP))
	router.Any("/mcp/*path", gin.WrapH(httpMCP))

	// ── 5. Start HTTP server ─────────────────────────────────────────
	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 6. Graceful shutdown ──────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	slog.Info("fetchmcp-http stopped")
	return nil
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
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "fetchmcp-http:", err)
		os.Exit(1)
	}
}
