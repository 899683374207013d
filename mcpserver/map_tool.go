package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/use-agent/fetchmcp/models"
)

func (srv *Server) handleMap(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var mreq models.MapRequest
	if err := decodeArgs(req, &mreq); err != nil {
		return mcp.NewToolResultError("invalid arguments: " + err.Error()), nil
	}
	mreq.Normalize()
	mreq.Defaults()

	if verr := srv.validator.Map(&mreq); verr != nil {
		return errorResult(verr), nil
	}

	resp, err := srv.m.Map(ctx, &mreq)
	if err != nil {
		return errorResult(models.AsAcquireError(err)), nil
	}

	if mreq.ResultHandling == models.ReturnOnly {
		body, err := json.Marshal(resp)
		if err != nil {
			return mcp.NewToolResultError("failed to encode map result: " + err.Error()), nil
		}
		return mcp.NewToolResultText(string(body)), nil
	}

	body, err := json.Marshal(resp)
	if err != nil {
		return mcp.NewToolResultError("failed to encode map result: " + err.Error()), nil
	}
	r := &models.Resource{
		URI:         resp.URI,
		Name:        mreq.URL,
		MimeType:    "application/json",
		Description: fmt.Sprintf("%d discovered URLs", resp.Total),
		Text:        string(body),
	}
	if mreq.ResultHandling == models.SaveOnly {
		return &mcp.CallToolResult{Content: []mcp.Content{resourceLinkContent(r)}}, nil
	}
	return &mcp.CallToolResult{Content: []mcp.Content{resourceContent(r)}}, nil
}
