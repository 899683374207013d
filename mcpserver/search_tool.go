package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/use-agent/fetchmcp/models"
)

func (srv *Server) handleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var sreq models.SearchRequest
	if err := decodeArgs(req, &sreq); err != nil {
		return mcp.NewToolResultError("invalid arguments: " + err.Error()), nil
	}
	sreq.Defaults()

	if verr := srv.validator.Search(&sreq); verr != nil {
		return errorResult(verr), nil
	}

	result, err := srv.search.Search(ctx, &sreq)
	if err != nil {
		return errorResult(models.AsAcquireError(err)), nil
	}

	body, err := json.Marshal(result)
	if err != nil {
		return mcp.NewToolResultError("failed to encode search result: " + err.Error()), nil
	}

	summary := searchSummary(sreq.Query, result)
	r := &models.Resource{
		URI:         fmt.Sprintf("fetchmcp-search://%d", time.Now().UnixMilli()),
		Name:        sreq.Query,
		MimeType:    "application/json",
		Description: fmt.Sprintf("%d hits for %q", len(result.Hits), sreq.Query),
		Text:        string(body),
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(summary),
			resourceContent(r),
		},
	}, nil
}

func searchSummary(query string, result *models.SearchResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d result(s) for %q\n", len(result.Hits), query)
	for i, hit := range result.Hits {
		fmt.Fprintf(&b, "%d. %s — %s\n", i+1, hit.Title, hit.URL)
	}
	return b.String()
}
