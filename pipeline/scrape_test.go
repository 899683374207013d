package pipeline_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/fetchmcp/cache"
	"github.com/use-agent/fetchmcp/cleaner"
	"github.com/use-agent/fetchmcp/models"
	"github.com/use-agent/fetchmcp/pipeline"
	"github.com/use-agent/fetchmcp/strategy"
)

const sampleHTML = `<html><head><title>Sample Page</title></head>
<body><article><h1>Sample Page</h1><p>Hello world, this is a sample article body with enough text to survive extraction heuristics applied by the readability library during the cleaning stage of the pipeline under test.</p>
<a href="/related">related</a></article></body></html>`

// fakeStrategy is a canned strategy.Strategy for pipeline tests.
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
	return &strategy.FetchResult{HTML: f.html, Title: "Sample Page", StatusCode: 200, StrategyName: f.name}, nil
}

func newTestPipeline(t *testing.T, strat strategy.Strategy) (*pipeline.Pipeline, *cache.Cache) {
	t.Helper()
	c := cache.New(cache.NewMemoryBackend(), cache.RetentionPolicy{}, nil)
	sel := strategy.NewSelector([]strategy.Strategy{strat}, strategy.NewLearnedStore(""), strategy.OptimizeCost, nil)
	cl := cleaner.NewCleaner()
	return pipeline.New(c, sel, cl, nil), c
}

func newHTTPInfo(name string) models.StrategyInfo {
	return models.StrategyInfo{
		Name: name,
		Capabilities: map[models.Capability]bool{
			models.CapRawHTML: true,
		},
		CostClass:    models.CostFree,
		LatencyClass: models.LatencyFast,
	}
}

func TestScrapeRawTierSkipsCleaning(t *testing.T) {
	strat := &fakeStrategy{name: "http", html: sampleHTML, info: newHTTPInfo("http")}
	p, _ := newTestPipeline(t, strat)

	req := &models.ScrapeRequest{URL: "example.com"}
	req.Normalize()
	req.Defaults()

	result, err := p.Scrape(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, models.TierRaw, result.ResultTier)
	assert.Contains(t, result.Content, "<html>")
	assert.Equal(t, "http", result.StrategyUsed)
	assert.False(t, result.CacheHit)
}

func TestScrapeSavesAndServesFromCache(t *testing.T) {
	strat := &fakeStrategy{name: "http", html: sampleHTML, info: newHTTPInfo("http")}
	p, _ := newTestPipeline(t, strat)

	req := &models.ScrapeRequest{URL: "https://example.com/article", ResultHandling: models.SaveAndReturn}
	req.Normalize()
	req.Defaults()

	first, err := p.Scrape(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, first.Resource)
	assert.False(t, first.CacheHit)

	second, err := p.Scrape(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, first.Content, second.Content)
}

func TestScrapeAllStrategiesFailReturnsAggregateDiagnostics(t *testing.T) {
	strat := &fakeStrategy{name: "http", err: models.NewError(models.ErrNetwork, "connection refused", nil), info: newHTTPInfo("http")}
	p, _ := newTestPipeline(t, strat)

	req := &models.ScrapeRequest{URL: "https://unreachable.example"}
	req.Normalize()
	req.Defaults()

	_, err := p.Scrape(context.Background(), req)
	require.Error(t, err)
	acq := models.AsAcquireError(err)
	require.NotNil(t, acq)
	require.Len(t, acq.Attempts, 1)
	assert.Equal(t, models.AttemptFailed, acq.Attempts[0].State)
}

// failingExtractor always errors, exercising the non-fatal
// fall-back-to-lower-tier path.
type failingExtractor struct{}

func (failingExtractor) Extract(ctx context.Context, content, prompt string) (string, error) {
	return "", models.NewError(models.ErrContent, "provider unavailable", nil)
}

func TestScrapeExtractionFailureFallsBackWithWarning(t *testing.T) {
	strat := &fakeStrategy{name: "http", html: sampleHTML, info: newHTTPInfo("http")}
	c := cache.New(cache.NewMemoryBackend(), cache.RetentionPolicy{}, nil)
	sel := strategy.NewSelector([]strategy.Strategy{strat}, strategy.NewLearnedStore(""), strategy.OptimizeCost, nil)
	p := pipeline.New(c, sel, cleaner.NewCleaner(), failingExtractor{})

	req := &models.ScrapeRequest{URL: "https://example.com/article", ExtractPrompt: "summarize this page"}
	req.Normalize()
	req.Defaults()

	result, err := p.Scrape(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, models.TierCleaned, result.ResultTier)
	assert.NotEmpty(t, result.Warning)
}

// gatedStrategy blocks every Fetch call on proceed and counts how many
// times Fetch actually ran, so a test can prove two concurrent callers
// shared one fetch instead of each triggering their own.
type gatedStrategy struct {
	info    models.StrategyInfo
	proceed chan struct{}
	calls   int32
}

func (g *gatedStrategy) Info() models.StrategyInfo { return g.info }

func (g *gatedStrategy) Fetch(ctx context.Context, req *strategy.FetchRequest) (*strategy.FetchResult, error) {
	atomic.AddInt32(&g.calls, 1)
	<-g.proceed
	return &strategy.FetchResult{HTML: sampleHTML, Title: "Sample Page", StatusCode: 200, StrategyName: "http"}, nil
}

// TestScrapeDifferentExtractPromptsShareOneRawFetch is the regression test
// for spec.md §8 Scenario S2: two overlapping scrape calls to the same URL
// that differ only in extractPrompt must fetch the raw tier at most once.
func TestScrapeDifferentExtractPromptsShareOneRawFetch(t *testing.T) {
	strat := &gatedStrategy{info: newHTTPInfo("http"), proceed: make(chan struct{})}
	c := cache.New(cache.NewMemoryBackend(), cache.RetentionPolicy{}, nil)
	sel := strategy.NewSelector([]strategy.Strategy{strat}, strategy.NewLearnedStore(""), strategy.OptimizeCost, nil)
	p := pipeline.New(c, sel, cleaner.NewCleaner(), nil)

	reqA := &models.ScrapeRequest{URL: "https://example.com/article", ExtractPrompt: "author name"}
	reqA.Normalize()
	reqA.Defaults()
	reqB := &models.ScrapeRequest{URL: "https://example.com/article", ExtractPrompt: "publication date"}
	reqB.Normalize()
	reqB.Defaults()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); _, _ = p.Scrape(context.Background(), reqA) }()
	go func() { defer wg.Done(); _, _ = p.Scrape(context.Background(), reqB) }()

	time.Sleep(50 * time.Millisecond)
	close(strat.proceed)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&strat.calls))
}

func TestPaginateRespectsStartIndexAndMaxChars(t *testing.T) {
	strat := &fakeStrategy{name: "http", html: sampleHTML, info: newHTTPInfo("http")}
	p, _ := newTestPipeline(t, strat)

	req := &models.ScrapeRequest{URL: "https://example.com/article", MaxChars: 10}
	req.Normalize()
	req.Defaults()

	result, err := p.Scrape(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, result.Content, "continue with startIndex=")
}
