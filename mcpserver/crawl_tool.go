package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/use-agent/fetchmcp/models"
	"github.com/use-agent/fetchmcp/resource"
)

func (srv *Server) handleCrawl(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var creq models.CrawlRequest
	if err := decodeArgs(req, &creq); err != nil {
		return mcp.NewToolResultError("invalid arguments: " + err.Error()), nil
	}
	creq.Defaults()

	if verr := srv.validator.Crawl(&creq); verr != nil {
		return errorResult(verr), nil
	}

	switch {
	case creq.Cancel:
		if err := srv.crawl.Cancel(ctx, creq.JobID); err != nil {
			return errorResult(models.AsAcquireError(err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("job %s cancelled", creq.JobID)), nil

	case creq.IsStart():
		status, err := srv.crawl.Start(ctx, &creq)
		if err != nil {
			return errorResult(models.AsAcquireError(err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("job %s started (state: %s)", status.JobID, status.State)), nil

	default:
		status, err := srv.crawl.Status(ctx, creq.JobID)
		if err != nil {
			return errorResult(models.AsAcquireError(err)), nil
		}
		return crawlStatusResult(status)
	}
}

func crawlStatusResult(status *models.CrawlStatus) (*mcp.CallToolResult, error) {
	body, err := json.Marshal(status)
	if err != nil {
		return mcp.NewToolResultError("failed to encode crawl status: " + err.Error()), nil
	}
	r := &models.Resource{
		URI:         resource.CrawlResultsURI(time.Now()),
		Name:        status.JobID,
		MimeType:    "application/json",
		Description: fmt.Sprintf("crawl job %s: %s (%d/%d pages)", status.JobID, status.State, status.Progress.Completed, status.Progress.Total),
		Text:        string(body),
	}
	return &mcp.CallToolResult{Content: []mcp.Content{resourceContent(r)}}, nil
}
