// Package remote adapts the one external scraping/search collaborator:
// scrape (one strategy among several), and the sole backend for map, crawl,
// and search. Every adapter shares one HTTP client and one error-classification
// rule (§4.6).
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/use-agent/fetchmcp/models"
)

// Client is the shared HTTP transport for every remote adapter.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient builds a Client against baseURL, authenticating with apiKey.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

// errorBody is the remote service's documented error envelope.
type errorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// do issues method/path with body marshaled as JSON (nil for GET/DELETE
// without a body) and unmarshals a 2xx response into out. A non-2xx response
// is classified into the taxonomy (§7) via classify. Cancellation of ctx
// propagates to the in-flight HTTP request (§5).
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return models.NewError(models.ErrValidation, "remote: marshal request", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return models.NewError(models.ErrValidation, "remote: build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.NewError(models.ErrNetwork, "remote: request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.NewError(models.ErrNetwork, "remote: read response", err)
	}

	if resp.StatusCode >= 300 {
		return classify(resp.StatusCode, resp.Header.Get("Retry-After"), respBody)
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return models.NewError(models.ErrContent, "remote: decode response", err)
		}
	}
	return nil
}

// classify maps an HTTP status to the error taxonomy (§7/§4.6): 401/403 ->
// auth, 402 -> payment, 429 -> rate_limit (+retryAfterMs if present),
// 400 -> validation, 5xx -> server.
func classify(status int, retryAfter string, body []byte) *models.AcquireError {
	msg := fmt.Sprintf("remote service returned %d", status)
	var eb errorBody
	if json.Unmarshal(body, &eb) == nil && eb.Error.Message != "" {
		msg = eb.Error.Message
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return models.NewError(models.ErrAuth, msg, nil)
	case status == http.StatusPaymentRequired:
		return models.NewError(models.ErrPayment, msg, nil)
	case status == http.StatusTooManyRequests:
		return models.NewRateLimitError(msg, parseRetryAfterMs(retryAfter), nil)
	case status == http.StatusBadRequest:
		return models.NewError(models.ErrValidation, msg, nil)
	case status >= 500:
		return models.NewError(models.ErrServer, msg, nil)
	default:
		return models.NewError(models.ErrServer, msg, nil)
	}
}

// parseRetryAfterMs parses a Retry-After header (seconds, per RFC 7231) into
// milliseconds; 0 when absent or unparseable.
func parseRetryAfterMs(h string) int64 {
	if h == "" {
		return 0
	}
	secs, err := strconv.ParseInt(h, 10, 64)
	if err != nil {
		return 0
	}
	return secs * 1000
}
