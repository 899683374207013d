package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/use-agent/fetchmcp/models"
	"github.com/use-agent/fetchmcp/validate"
)

func TestScrapeRejectsInvalidURL(t *testing.T) {
	val := validate.New()
	req := &models.ScrapeRequest{URL: "not-a-url"}
	err := val.Scrape(req)
	assert.NotNil(t, err)
	assert.Equal(t, models.ErrValidation, err.Kind)
}

func TestScrapeAcceptsValidRequest(t *testing.T) {
	val := validate.New()
	req := &models.ScrapeRequest{URL: "https://example.com", ResultHandling: models.ReturnOnly}
	assert.Nil(t, val.Scrape(req))
}

func TestScrapeRejectsActionMissingRequiredField(t *testing.T) {
	val := validate.New()
	req := &models.ScrapeRequest{
		URL:     "https://example.com",
		Actions: []models.Action{{Type: models.ActionClick}},
	}
	err := val.Scrape(req)
	assert.NotNil(t, err)
	assert.Contains(t, err.Message, "selector")
}

func TestScrapeAcceptsCompleteAction(t *testing.T) {
	val := validate.New()
	req := &models.ScrapeRequest{
		URL:     "https://example.com",
		Actions: []models.Action{{Type: models.ActionClick, Selector: "#submit"}},
	}
	assert.Nil(t, val.Scrape(req))
}

func TestCrawlRejectsBothURLAndJobID(t *testing.T) {
	val := validate.New()
	req := &models.CrawlRequest{URL: "https://example.com", JobID: "job-1"}
	err := val.Crawl(req)
	assert.NotNil(t, err)
	assert.Contains(t, err.Message, "either")
}

func TestCrawlRejectsNeitherURLNorJobID(t *testing.T) {
	val := validate.New()
	err := val.Crawl(&models.CrawlRequest{})
	assert.NotNil(t, err)
}

func TestCrawlRejectsCancelWithoutJobID(t *testing.T) {
	val := validate.New()
	req := &models.CrawlRequest{URL: "https://example.com", Cancel: true}
	err := val.Crawl(req)
	assert.NotNil(t, err)
	assert.Contains(t, err.Message, "cancel")
}

func TestCrawlAcceptsStartRequest(t *testing.T) {
	val := validate.New()
	req := &models.CrawlRequest{URL: "https://example.com", MaxDepth: 2, MaxPages: 10, Scope: "subdomain"}
	assert.Nil(t, val.Crawl(req))
}

func TestCrawlRejectsInvalidScope(t *testing.T) {
	val := validate.New()
	req := &models.CrawlRequest{URL: "https://example.com", Scope: "universe"}
	assert.NotNil(t, val.Crawl(req))
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	val := validate.New()
	assert.NotNil(t, val.Search(&models.SearchRequest{}))
}

func TestSearchAcceptsTimeBasedPreset(t *testing.T) {
	val := validate.New()
	req := &models.SearchRequest{Query: "golang", TimeBasedSearch: "qdr:w"}
	assert.Nil(t, val.Search(req))
}

func TestSearchRejectsMalformedTimeBasedToken(t *testing.T) {
	val := validate.New()
	req := &models.SearchRequest{Query: "golang", TimeBasedSearch: "last-week"}
	assert.NotNil(t, val.Search(req))
}

func TestMapRejectsInvalidURL(t *testing.T) {
	val := validate.New()
	assert.NotNil(t, val.Map(&models.MapRequest{URL: "nope"}))
}
