package remote

import (
	"context"

	"github.com/use-agent/fetchmcp/models"
)

type mapRequestBody struct {
	URL    string `json:"url"`
	Search string `json:"search,omitempty"`
}

type mapResponseBody struct {
	Entries []models.MapEntry `json:"entries"`
}

// Map calls the remote service's map operation. The pipeline falls back to
// discovery/ when this call itself fails (§4.6, SPEC_FULL.md §4.6).
func (c *Client) Map(ctx context.Context, req *models.MapRequest) (*models.MapResult, error) {
	var resp mapResponseBody
	if err := c.do(ctx, "POST", "/v1/map", mapRequestBody{URL: req.URL, Search: req.Search}, &resp); err != nil {
		return nil, err
	}
	return &models.MapResult{Entries: resp.Entries}, nil
}
