package pipeline

import (
	"context"

	"github.com/use-agent/fetchmcp/models"
)

// SearchClient is the subset of remote.Client the search operation needs.
// The remote service is the sole backend for search (§4.6); there is no
// local fallback.
type SearchClient interface {
	Search(ctx context.Context, req *models.SearchRequest) (*models.SearchResult, error)
}

// SearchPipeline runs the search tool.
type SearchPipeline struct {
	client SearchClient
}

func NewSearchPipeline(client SearchClient) *SearchPipeline {
	return &SearchPipeline{client: client}
}

// Search passes the request through to the remote service.
func (p *SearchPipeline) Search(ctx context.Context, req *models.SearchRequest) (*models.SearchResult, error) {
	return p.client.Search(ctx, req)
}
