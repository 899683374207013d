package strategy

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/use-agent/fetchmcp/models"
)

// BrowserConfig configures the native, free, medium-latency browser
// strategy: a headless Chrome instance plus an adaptively-sized page pool.
type BrowserConfig struct {
	Headless             bool
	NoSandbox             bool
	BrowserBin            string
	DefaultProxy          string
	BlockedResourceTypes  []string
	RemoveOverlays        bool
	Pool                  AdaptivePoolConfig
	MaxTimeout            time.Duration
}

// BrowserStrategy is the native browser strategy: go-rod/rod page-pool
// fetch. Capabilities: javascript-render, browser-actions, screenshot,
// pdf-parse; proxy=stealth additionally engages go-rod/stealth scripts,
// adding anti-bot-bypass.
type BrowserStrategy struct {
	browser *rod.Browser
	cfg     BrowserConfig
	pool    *AdaptivePool

	mu    sync.Mutex
	pages map[int64]*rod.Page
}

// NewBrowserStrategy launches a headless browser with anti-automation
// flags disabled and initializes the adaptive page pool.
func NewBrowserStrategy(cfg BrowserConfig) (*BrowserStrategy, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}
	if cfg.DefaultProxy != "" {
		l = l.Proxy(cfg.DefaultProxy)
	}

	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-ipc-flooding-protection"))
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-prompt-on-repost"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewError(models.ErrServer, "launch browser", err)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewError(models.ErrServer, "connect to browser", err)
	}

	bs := &BrowserStrategy{
		browser: browser,
		cfg:     cfg,
		pages:   make(map[int64]*rod.Page),
	}

	pool, err := NewAdaptivePool(cfg.Pool, bs.createPage, bs.destroyPage)
	if err != nil {
		return nil, models.NewError(models.ErrServer, "initialize page pool", err)
	}
	bs.pool = pool

	return bs, nil
}

var pageIDSeq int64

func (bs *BrowserStrategy) createPage() (int64, error) {
	page, err := bs.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return 0, err
	}
	pageIDSeq++
	id := pageIDSeq

	bs.mu.Lock()
	bs.pages[id] = page
	bs.mu.Unlock()
	return id, nil
}

func (bs *BrowserStrategy) destroyPage(id int64) {
	bs.mu.Lock()
	page := bs.pages[id]
	delete(bs.pages, id)
	bs.mu.Unlock()
	if page != nil {
		_ = page.Close()
	}
}

// Close drains the page pool and kills the browser process.
func (bs *BrowserStrategy) Close() {
	bs.pool.Stop()
	bs.browser.MustClose()
}

func (bs *BrowserStrategy) Info() models.StrategyInfo {
	return models.StrategyInfo{
		Name: "browser",
		Capabilities: map[models.Capability]bool{
			models.CapJSRender:       true,
			models.CapBrowserActions: true,
			models.CapScreenshot:     true,
			models.CapPDFParse:       true,
			models.CapAntiBotBypass:  true,
		},
		CostClass:    models.CostFree,
		LatencyClass: models.LatencyMedium,
	}
}

// Fetch navigates a pooled page to req.URL, optionally runs a browser-action
// sequence, and extracts the rendered HTML. proxy=stealth injects
// go-rod/stealth's anti-automation-detection script before navigation.
func (bs *BrowserStrategy) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	timeout := req.Timeout
	if bs.cfg.MaxTimeout > 0 && timeout > bs.cfg.MaxTimeout {
		timeout = bs.cfg.MaxTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	handle, err := bs.pool.Get()
	if err != nil {
		return nil, models.NewError(models.ErrServer, "acquire page from pool", err)
	}

	bs.mu.Lock()
	page := bs.pages[handle.ID]
	bs.mu.Unlock()
	if page == nil {
		bs.pool.Put(handle, false)
		return nil, models.NewError(models.ErrServer, "pool returned unknown page handle", nil)
	}

	succeeded := false
	defer func() {
		if navErr := page.Navigate("about:blank"); navErr != nil {
			slog.Warn("browser_strategy: cleanup navigate failed", "error", navErr)
		}
		bs.pool.Put(handle, succeeded)
	}()

	if req.ProxyMode == models.ProxyStealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("browser_strategy: stealth injection failed", "error", evalErr)
		}
	}

	extraHeaders := make(map[string]string, len(req.Headers)+1)
	if _, hasReferer := req.Headers["Referer"]; !hasReferer {
		if u, parseErr := url.Parse(req.URL); parseErr == nil {
			extraHeaders["Referer"] = "https://www.google.com/search?q=" + url.QueryEscape(u.Hostname())
		}
	}
	for k, v := range req.Headers {
		extraHeaders[k] = v
	}
	if len(extraHeaders) > 0 {
		_ = proto.NetworkSetExtraHTTPHeaders{Headers: toHeadersMap(extraHeaders)}.Call(page)
	}

	for i := range req.Cookies {
		c := req.Cookies[i]
		domain := c.Domain
		if domain == "" {
			if u, parseErr := url.Parse(req.URL); parseErr == nil {
				domain = u.Host
			}
		}
		path := c.Path
		if path == "" {
			path = "/"
		}
		_, _ = proto.NetworkSetCookie{Name: c.Name, Value: c.Value, Domain: domain, Path: path}.Call(page)
	}

	router := setupHijack(page, bs.cfg.BlockedResourceTypes)
	if router != nil {
		defer func() { _ = router.Stop() }()
	}

	p := page.Context(ctx)

	var statusCode int
	if navErr := p.Navigate(req.URL); navErr != nil {
		return nil, categorizeNavError(navErr, "navigation to target URL failed")
	}

	if stableErr := p.WaitDOMStable(300*time.Millisecond, 0.1); stableErr != nil {
		slog.Debug("browser_strategy: WaitDOMStable did not converge", "error", stableErr)
	}

	if res, err := p.Eval(`() => {
		try {
			const entries = performance.getEntriesByType("navigation");
			if (entries.length > 0) return entries[0].responseStatus || 0;
		} catch(e) {}
		return 0;
	}`); err == nil {
		statusCode = res.Value.Int()
	}

	if bs.cfg.RemoveOverlays {
		removeOverlays(p)
	}

	if len(req.Actions) > 0 {
		if err := executeActions(ctx, page, req.Actions); err != nil {
			return nil, err
		}
	}

	result := &FetchResult{StrategyName: bs.Info().Name, StatusCode: statusCode}

	if req.WantScreenshot {
		png, err := p.Screenshot(true, nil)
		if err != nil {
			slog.Warn("browser_strategy: screenshot failed", "error", err)
		} else {
			result.ScreenshotPNG = png
		}
	}

	if req.WantPDF {
		if text, err := renderPDFText(p); err != nil {
			slog.Warn("browser_strategy: pdf render failed", "error", err)
		} else {
			result.PDFText = text
		}
	}

	rawHTML, htmlErr := p.HTML()
	if htmlErr != nil {
		return nil, categorizeNavError(htmlErr, "failed to extract page HTML")
	}
	result.HTML = rawHTML
	result.Title = evalStringOrEmpty(p, `() => document.title`)
	result.FinalURL = evalStringOrEmpty(p, `() => window.location.href`)
	if result.FinalURL == "" {
		result.FinalURL = req.URL
	}

	succeeded = true
	return result, nil
}

func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

func categorizeNavError(err error, msg string) *models.AcquireError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewError(models.ErrTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewError(models.ErrTimeout, "request canceled", err)
	default:
		return models.NewError(models.ErrNetwork, msg, err)
	}
}
