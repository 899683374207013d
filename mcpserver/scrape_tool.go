package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/use-agent/fetchmcp/models"
)

func (srv *Server) handleScrape(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var sreq models.ScrapeRequest
	if err := decodeArgs(req, &sreq); err != nil {
		return mcp.NewToolResultError("invalid arguments: " + err.Error()), nil
	}
	sreq.Normalize()
	sreq.Defaults()

	if verr := srv.validator.Scrape(&sreq); verr != nil {
		return errorResult(verr), nil
	}

	result, err := srv.scrape.Scrape(ctx, &sreq)
	if err != nil {
		return errorResult(models.AsAcquireError(err)), nil
	}

	switch sreq.ResultHandling {
	case models.SaveOnly:
		if result.Resource == nil {
			return mcp.NewToolResultError("saveOnly result handling produced no resource"), nil
		}
		return &mcp.CallToolResult{Content: []mcp.Content{resourceLinkContent(result.Resource)}}, nil
	case models.SaveAndReturn:
		if result.Resource == nil {
			return mcp.NewToolResultError("saveAndReturn result handling produced no resource"), nil
		}
		return &mcp.CallToolResult{Content: []mcp.Content{resourceContent(result.Resource)}}, nil
	default:
		return mcp.NewToolResultText(result.Content), nil
	}
}
