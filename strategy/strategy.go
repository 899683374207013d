// Package strategy implements the concrete fetch strategies (http, browser,
// remote) and the ordered, learning-aware selector that dispatches between
// them.
package strategy

import (
	"context"
	"net/http"
	"time"

	"github.com/use-agent/fetchmcp/models"
)

// FetchRequest contains everything a strategy needs to fetch one page.
type FetchRequest struct {
	URL       string
	Headers   map[string]string
	Cookies   []http.Cookie
	Timeout   time.Duration
	ProxyMode models.ProxyMode
	Actions   []models.Action
	// WantScreenshot and WantPDF request capability-specific outputs in
	// addition to the HTML body; strategies that lack the capability
	// simply leave the corresponding result field empty.
	WantScreenshot bool
	WantPDF        bool
}

// FetchResult is the output of a successful strategy fetch.
type FetchResult struct {
	HTML          string
	Title         string
	StatusCode    int
	FinalURL      string
	StrategyName  string
	ScreenshotPNG []byte
	PDFText       string
}

// Strategy is a named fetcher with a static capability/cost/latency profile.
type Strategy interface {
	Info() models.StrategyInfo
	Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error)
}
