// Package mcpserver registers the four web-acquisition tools against a
// mark3labs/mcp-go server, shared by both the stdio and streamable-HTTP
// transport binaries. Handlers are thin: decode arguments, validate,
// delegate to pipeline/, translate the result into content items.
package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/use-agent/fetchmcp/monitoring"
	"github.com/use-agent/fetchmcp/pipeline"
	"github.com/use-agent/fetchmcp/toolschema"
	"github.com/use-agent/fetchmcp/validate"
)

// Server holds the orchestrators and cross-cutting collaborators every
// tool handler needs.
type Server struct {
	scrape *pipeline.Pipeline
	m      *pipeline.MapPipeline
	crawl  *pipeline.CrawlPipeline
	search *pipeline.SearchPipeline

	validator *validate.Validator
	metrics   *monitoring.Collector
	limiter   *ToolLimiter

	// extractAdvertised gates the scrape tool's extractPrompt schema
	// property; false when no extraction provider is configured.
	extractAdvertised bool
}

// New builds a Server. Any pipeline may be nil when its tool is not
// wired up (e.g. a deployment with no remote adapter); the corresponding
// tool is simply not registered.
func New(
	scrape *pipeline.Pipeline,
	m *pipeline.MapPipeline,
	crawl *pipeline.CrawlPipeline,
	search *pipeline.SearchPipeline,
	metrics *monitoring.Collector,
	limiter *ToolLimiter,
	extractAdvertised bool,
) *Server {
	return &Server{
		scrape:            scrape,
		m:                 m,
		crawl:             crawl,
		search:            search,
		validator:         validate.New(),
		metrics:           metrics,
		limiter:           limiter,
		extractAdvertised: extractAdvertised,
	}
}

// Register advertises every configured tool on s.
func (srv *Server) Register(s *server.MCPServer) {
	if srv.scrape != nil {
		s.AddTool(mcp.NewToolWithRawSchema(
			"scrape",
			"Fetch a URL through the multi-strategy acquisition pipeline, optionally cleaning to Markdown and running an LLM extraction prompt over the result.",
			toolschema.ScrapeSchema(srv.extractAdvertised),
		), srv.wrap("scrape", srv.handleScrape))
	}
	if srv.m != nil {
		s.AddTool(mcp.NewToolWithRawSchema(
			"map",
			"Discover the URLs that make up a site without fetching their content, falling back to sitemap/robots/homepage-link discovery if the remote mapping service is unavailable.",
			toolschema.MapSchema(),
		), srv.wrap("map", srv.handleMap))
	}
	if srv.crawl != nil {
		s.AddTool(mcp.NewToolWithRawSchema(
			"crawl",
			"Start, check, or cancel an asynchronous multi-page crawl job. Provide url to start a job, or jobId to check status or cancel.",
			toolschema.CrawlSchema(),
		), srv.wrap("crawl", srv.handleCrawl))
	}
	if srv.search != nil {
		s.AddTool(mcp.NewToolWithRawSchema(
			"search",
			"Run a web search and return ranked hits with an embedded structured result.",
			toolschema.SearchSchema(),
		), srv.wrap("search", srv.handleSearch))
	}
}

// wrap applies rate limiting and request/error metrics around a handler,
// keeping that bookkeeping out of each tool's own logic.
func (srv *Server) wrap(tool string, h server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if srv.limiter != nil && !srv.limiter.Allow(tool) {
			if srv.metrics != nil {
				srv.metrics.RecordError("rate_limit")
			}
			return mcp.NewToolResultError("rate limit exceeded, please slow down"), nil
		}
		if srv.metrics != nil {
			srv.metrics.RecordRequest(tool)
		}
		result, err := h(ctx, req)
		if srv.metrics != nil && result != nil && result.IsError {
			srv.metrics.RecordError(tool)
		}
		return result, err
	}
}

// decodeArgs remarshals the call's raw argument map into dst, the
// simplest faithful path for request shapes with nested arrays/objects
// (actions, headers, formats) that per-field GetString/GetBool calls
// can't express.
func decodeArgs(req mcp.CallToolRequest, dst any) error {
	raw, err := json.Marshal(req.GetArguments())
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}
