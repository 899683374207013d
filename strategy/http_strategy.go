package strategy

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	tls "github.com/refraction-networking/utls"
	"golang.org/x/net/html"

	"github.com/use-agent/fetchmcp/models"
)

// HTTPStrategy is the native, free, fast strategy: a Chrome-fingerprinted
// net/http client with no JavaScript rendering. Capabilities: raw-html only.
type HTTPStrategy struct {
	client *http.Client
}

// chromeH1Spec is a Chrome-like TLS ClientHello with ALPN forced to http/1.1
// only, computed once and reused for every connection.
var chromeH1Spec tls.ClientHelloSpec

func init() {
	spec, err := tls.UTLSIdToSpec(tls.HelloChrome_Auto)
	if err != nil {
		return
	}
	for i, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			spec.Extensions[i] = alpn
			break
		}
	}
	chromeH1Spec = spec
}

// NewHTTPStrategy builds an HTTPStrategy with a Chrome-like TLS fingerprint.
// ALPN is locked to http/1.1 to avoid the HTTP/2 framing mismatch that
// occurs when utls negotiates h2 but Go's http.Transport only speaks h1.
func NewHTTPStrategy() *HTTPStrategy {
	transport := &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			dialer := &net.Dialer{Timeout: 10 * time.Second}
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			host, _, _ := net.SplitHostPort(addr)
			tlsConn := tls.UClient(conn, &tls.Config{ServerName: host}, tls.HelloCustom)
			if err := tlsConn.ApplyPreset(&chromeH1Spec); err != nil {
				conn.Close()
				return nil, fmt.Errorf("http_strategy: apply tls spec: %w", err)
			}
			if err := tlsConn.HandshakeContext(ctx); err != nil {
				conn.Close()
				return nil, err
			}
			return tlsConn, nil
		},
		ForceAttemptHTTP2: false,
	}
	return &HTTPStrategy{
		client: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
	}
}

func (s *HTTPStrategy) Info() models.StrategyInfo {
	return models.StrategyInfo{
		Name:         "http",
		Capabilities: map[models.Capability]bool{models.CapRawHTML: true},
		CostClass:    models.CostFree,
		LatencyClass: models.LatencyFast,
	}
}

func (s *HTTPStrategy) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	if len(req.Actions) > 0 || req.WantScreenshot || req.WantPDF {
		return nil, models.NewError(models.ErrProtocol, "http strategy cannot honor browser actions, screenshot, or pdf capabilities", nil)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, models.NewError(models.ErrValidation, "build request", err)
	}

	httpReq.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36")
	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	httpReq.Header.Set("Accept-Language", "en-US,en;q=0.9")
	httpReq.Header.Set("Accept-Encoding", "identity")

	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	for i := range req.Cookies {
		httpReq.AddCookie(&req.Cookies[i])
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, models.NewError(models.ErrNetwork, "do request", err)
	}
	defer resp.Body.Close()

	const maxBody = 10 << 20
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, models.NewError(models.ErrNetwork, "read body", err)
	}
	bodyStr := string(body)

	if resp.StatusCode >= 500 {
		return nil, models.NewError(models.ErrServer, fmt.Sprintf("status %d", resp.StatusCode), nil)
	}
	if resp.StatusCode == 401 || resp.StatusCode == 403 {
		return nil, models.NewError(models.ErrAuth, fmt.Sprintf("status %d", resp.StatusCode), nil)
	}
	if resp.StatusCode == 402 {
		return nil, models.NewError(models.ErrPayment, fmt.Sprintf("status %d", resp.StatusCode), nil)
	}
	if resp.StatusCode == 429 {
		return nil, models.NewRateLimitError("rate limited", parseRetryAfterMs(resp), nil)
	}
	if resp.StatusCode >= 400 {
		return nil, models.NewError(models.ErrContent, fmt.Sprintf("status %d", resp.StatusCode), nil)
	}

	title := extractTitle(bodyStr)
	finalURL := req.URL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &FetchResult{
		HTML:         bodyStr,
		Title:        title,
		StatusCode:   resp.StatusCode,
		FinalURL:     finalURL,
		StrategyName: s.Info().Name,
	}, nil
}

func parseRetryAfterMs(resp *http.Response) int64 {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	var secs int64
	if _, err := fmt.Sscanf(v, "%d", &secs); err != nil {
		return 0
	}
	return secs * 1000
}

// isHTMLContentType reports whether ct looks like HTML.
func isHTMLContentType(ct string) bool {
	ct = strings.ToLower(ct)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml+xml")
}

// extractTitle uses the Go HTML tokenizer to find the first <title> element.
func extractTitle(htmlStr string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(htmlStr))
	inTitle := false
	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			tn, _ := tokenizer.TagName()
			if string(tn) == "title" {
				inTitle = true
			}
		case html.TextToken:
			if inTitle {
				return strings.TrimSpace(string(tokenizer.Text()))
			}
		case html.EndTagToken:
			if inTitle {
				return ""
			}
		}
	}
}
