package remote

import (
	"context"

	"github.com/use-agent/fetchmcp/models"
)

type searchRequestBody struct {
	Query           string   `json:"query"`
	Limit           int      `json:"limit"`
	Sources         []string `json:"sources,omitempty"`
	TimeBasedSearch string   `json:"timeBasedSearch,omitempty"`
	Country         string   `json:"country,omitempty"`
	Languages       []string `json:"languages,omitempty"`
}

type searchResponseBody struct {
	Hits []models.SearchHit `json:"hits"`
}

// Search passes the validated query, source-kind grouping, and
// time-based-search token through unchanged to the remote search operation
// (§4.6, SPEC_FULL.md §4.6), mapping its hit list into models.SearchResult.
func (c *Client) Search(ctx context.Context, req *models.SearchRequest) (*models.SearchResult, error) {
	body := searchRequestBody{
		Query:           req.Query,
		Limit:           req.Limit,
		Sources:         req.Sources,
		TimeBasedSearch: req.TimeBasedSearch,
		Country:         req.Country,
		Languages:       req.Languages,
	}
	var resp searchResponseBody
	if err := c.do(ctx, "POST", "/v1/search", body, &resp); err != nil {
		return nil, err
	}
	return &models.SearchResult{Hits: resp.Hits}, nil
}
