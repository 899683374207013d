package mcpserver

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"

	"github.com/use-agent/fetchmcp/cache"
	"github.com/use-agent/fetchmcp/cleaner"
	"github.com/use-agent/fetchmcp/config"
	"github.com/use-agent/fetchmcp/models"
	"github.com/use-agent/fetchmcp/pipeline"
	"github.com/use-agent/fetchmcp/strategy"
)

const sampleHTML = `<html><head><title>Sample</title></head>
<body><article><h1>Sample</h1><p>Hello world, enough body text for the readability heuristics to treat this as the main article content during cleaning.</p></article></body></html>`

type fakeStrategy struct {
	name string
	html string
	err  error
	info models.StrategyInfo
}

func (f *fakeStrategy) Info() models.StrategyInfo { return f.info }

func (f *fakeStrategy) Fetch(ctx context.Context, req *strategy.FetchRequest) (*strategy.FetchResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &strategy.FetchResult{HTML: f.html, Title: "Sample", StatusCode: 200, StrategyName: f.name}, nil
}

func httpInfo(name string) models.StrategyInfo {
	return models.StrategyInfo{
		Name:         name,
		Capabilities: map[models.Capability]bool{models.CapRawHTML: true},
		CostClass:    models.CostFree,
		LatencyClass: models.LatencyFast,
	}
}

type fakeMapClient struct {
	result *models.MapResult
	err    error
}

func (f *fakeMapClient) Map(ctx context.Context, req *models.MapRequest) (*models.MapResult, error) {
	return f.result, f.err
}

type fakeCrawlClient struct {
	jobID  string
	status *models.CrawlStatus
}

func (f *fakeCrawlClient) StartCrawl(ctx context.Context, req *models.CrawlRequest) (string, error) {
	return f.jobID, nil
}
func (f *fakeCrawlClient) GetCrawlStatus(ctx context.Context, jobID string) (*models.CrawlStatus, error) {
	return f.status, nil
}
func (f *fakeCrawlClient) CancelCrawl(ctx context.Context, jobID string) error { return nil }

type fakeSearchClient struct {
	result *models.SearchResult
	err    error
}

func (f *fakeSearchClient) Search(ctx context.Context, req *models.SearchRequest) (*models.SearchResult, error) {
	return f.result, f.err
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	strat := &fakeStrategy{name: "http", html: sampleHTML, info: httpInfo("http")}
	c := cache.New(cache.NewMemoryBackend(), cache.RetentionPolicy{}, nil)
	sel := strategy.NewSelector([]strategy.Strategy{strat}, strategy.NewLearnedStore(""), strategy.OptimizeCost, nil)
	scrapeP := pipeline.New(c, sel, cleaner.NewCleaner(), nil)

	mapP := pipeline.NewMapPipeline(&fakeMapClient{result: &models.MapResult{
		Entries: []models.MapEntry{{URL: "https://example.com/a"}, {URL: "https://example.com/b"}},
	}})

	crawlP := pipeline.NewCrawlPipeline(&fakeCrawlClient{
		jobID: "job-1",
		status: &models.CrawlStatus{
			JobID: "job-1", State: models.CrawlScraping,
			Progress: models.CrawlProgress{Completed: 1, Total: 5},
		},
	})

	searchP := pipeline.NewSearchPipeline(&fakeSearchClient{result: &models.SearchResult{
		Hits: []models.SearchHit{{URL: "https://example.com", Title: "Example"}},
	}})

	limiter := NewToolLimiter(config.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000})
	return New(scrapeP, mapP, crawlP, searchP, nil, limiter, false)
}

func callReq(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func TestServerRegistersAllFourTools(t *testing.T) {
	srv := newTestServer(t)
	s := server.NewMCPServer("fetchmcp-test", "0.0.0", server.WithToolCapabilities(false))
	srv.Register(s)
}

func TestToolLimiterBlocksAfterBurstExhausted(t *testing.T) {
	limiter := NewToolLimiter(config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1})
	assert.True(t, limiter.Allow("scrape"))
	assert.False(t, limiter.Allow("scrape"))
}
