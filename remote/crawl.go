package remote

import (
	"context"

	"github.com/use-agent/fetchmcp/models"
)

// crawl execution is delegated entirely to the remote service (spec.md §1
// Non-goals); this client is a thin job-handle wrapper: start, poll status,
// cancel. No BFS, no local job store beyond what pipeline/crawl.go keeps to
// drive webhook delivery.

type startCrawlRequest struct {
	URL             string   `json:"url"`
	MaxDepth        int      `json:"maxDepth"`
	MaxPages        int      `json:"maxPages"`
	Scope           string   `json:"scope"`
	ExcludePatterns []string `json:"excludePatterns,omitempty"`
}

type startCrawlResponse struct {
	JobID string `json:"jobId"`
}

// StartCrawl begins a crawl job on the remote service and returns its id.
func (c *Client) StartCrawl(ctx context.Context, req *models.CrawlRequest) (string, error) {
	body := startCrawlRequest{
		URL:             req.URL,
		MaxDepth:        req.MaxDepth,
		MaxPages:        req.MaxPages,
		Scope:           req.Scope,
		ExcludePatterns: req.ExcludePatterns,
	}
	var resp startCrawlResponse
	if err := c.do(ctx, "POST", "/v1/crawl", body, &resp); err != nil {
		return "", err
	}
	return resp.JobID, nil
}

// GetCrawlStatus fetches a job's current progress and aggregated page
// results from the remote service.
func (c *Client) GetCrawlStatus(ctx context.Context, jobID string) (*models.CrawlStatus, error) {
	var status models.CrawlStatus
	if err := c.do(ctx, "GET", "/v1/crawl/"+jobID, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// CancelCrawl requests cancellation of a running job.
func (c *Client) CancelCrawl(ctx context.Context, jobID string) error {
	return c.do(ctx, "POST", "/v1/crawl/"+jobID+"/cancel", nil, nil)
}
