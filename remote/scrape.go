package remote

import (
	"context"
	"encoding/base64"

	"github.com/use-agent/fetchmcp/models"
	"github.com/use-agent/fetchmcp/strategy"
)

// ScrapeStrategy delegates a fetch to the remote scraping service. It is the
// only strategy able to honor proxy=stealth once the native stealth browser
// itself gets blocked, so it stays in the fallback chain even when
// OPTIMIZE_FOR=cost demotes it to last (§4.3's capability-driven strategy
// described in SPEC_FULL.md §4.3).
type ScrapeStrategy struct {
	client *Client
}

// NewScrapeStrategy builds the remote-backed Strategy.
func NewScrapeStrategy(client *Client) *ScrapeStrategy {
	return &ScrapeStrategy{client: client}
}

func (s *ScrapeStrategy) Info() models.StrategyInfo {
	return models.StrategyInfo{
		Name: "remote",
		Capabilities: map[models.Capability]bool{
			models.CapJSRender:       true,
			models.CapAntiBotBypass:  true,
			models.CapPDFParse:       true,
			models.CapScreenshot:     true,
			models.CapRawHTML:        true,
			models.CapBrowserActions: true,
		},
		CostClass:    models.CostPaid,
		LatencyClass: models.LatencyMedium,
	}
}

type remoteScrapeRequest struct {
	URL            string            `json:"url"`
	Headers        map[string]string `json:"headers,omitempty"`
	ProxyMode      string            `json:"proxyMode,omitempty"`
	Actions        []models.Action   `json:"actions,omitempty"`
	WantScreenshot bool              `json:"wantScreenshot,omitempty"`
	WantPDF        bool              `json:"wantPdf,omitempty"`
}

type remoteScrapeResponse struct {
	HTML          string `json:"html"`
	Title         string `json:"title"`
	StatusCode    int    `json:"statusCode"`
	FinalURL      string `json:"finalUrl"`
	ScreenshotB64 string `json:"screenshotBase64,omitempty"`
	PDFText       string `json:"pdfText,omitempty"`
}

func (s *ScrapeStrategy) Fetch(ctx context.Context, req *strategy.FetchRequest) (*strategy.FetchResult, error) {
	body := remoteScrapeRequest{
		URL:            req.URL,
		Headers:        req.Headers,
		ProxyMode:      string(req.ProxyMode),
		Actions:        req.Actions,
		WantScreenshot: req.WantScreenshot,
		WantPDF:        req.WantPDF,
	}

	var resp remoteScrapeResponse
	if err := s.client.do(ctx, "POST", "/v1/scrape", body, &resp); err != nil {
		return nil, err
	}

	var screenshot []byte
	if resp.ScreenshotB64 != "" {
		screenshot, _ = base64.StdEncoding.DecodeString(resp.ScreenshotB64)
	}

	return &strategy.FetchResult{
		HTML:          resp.HTML,
		Title:         resp.Title,
		StatusCode:    resp.StatusCode,
		FinalURL:      resp.FinalURL,
		StrategyName:  "remote",
		ScreenshotPNG: screenshot,
		PDFText:       resp.PDFText,
	}, nil
}
