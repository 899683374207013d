package main

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/use-agent/fetchmcp/monitoring"
)

// registerDebugMetricsTool advertises _debug_metrics, a stdio-only stand-in
// for the HTTP binary's /metrics.json endpoint. Only wired when DebugTools
// is set; production stdio deployments have no reason to expose it.
func registerDebugMetricsTool(s *server.MCPServer, collector *monitoring.Collector) {
	tool := mcp.NewTool("_debug_metrics",
		mcp.WithDescription("Return a snapshot of request, cache, and strategy metrics as JSON. Debug-only; disabled unless explicitly enabled."),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		body, err := monitoring.RenderJSON(collector.Read())
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(body)), nil
	})
}
