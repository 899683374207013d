package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/use-agent/fetchmcp/models"
)

// compatibleExtractor talks to any OpenAI-chat-completions-shaped endpoint
// via plain net/http, for self-hosted or third-party-compatible providers
// that don't warrant a dedicated SDK (adapted from the teacher's bespoke
// OpenAI-compatible client).
type compatibleExtractor struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	model      string
}

// NewCompatible builds an Extractor against an OpenAI-compatible
// /chat/completions endpoint at baseURL.
func NewCompatible(apiKey, baseURL, model string) Extractor {
	return &compatibleExtractor{
		httpClient: &http.Client{},
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
	}
}

type compatChatRequest struct {
	Model       string              `json:"model"`
	Messages    []compatChatMessage `json:"messages"`
	Temperature float64             `json:"temperature"`
}

type compatChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type compatChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type compatChatErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (e *compatibleExtractor) Extract(ctx context.Context, content, prompt string) (string, error) {
	reqBody := compatChatRequest{
		Model: e.model,
		Messages: []compatChatMessage{
			{Role: "system", Content: "Answer the user's question using only the provided page content. " +
				"If the content doesn't contain an answer, say so plainly."},
			{Role: "user", Content: fmt.Sprintf("Content:\n%s\n\nQuestion: %s", content, prompt)},
		},
		Temperature: 0,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("compatible extract: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("compatible extract: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", models.NewError(models.ErrNetwork, "compatible extractor request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", models.NewError(models.ErrNetwork, "compatible extractor: failed to read response", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp compatChatErrorResponse
		msg := "extractor API error"
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Message != "" {
			msg = errResp.Error.Message
		}
		kind := models.ErrServer
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			kind = models.ErrAuth
		} else if resp.StatusCode == http.StatusTooManyRequests {
			kind = models.ErrRateLimit
		}
		return "", models.NewError(kind, fmt.Sprintf("compatible extractor returned %d: %s", resp.StatusCode, msg), nil)
	}

	var chatResp compatChatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", models.NewError(models.ErrContent, "compatible extractor: invalid response JSON", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", models.NewError(models.ErrContent, "compatible extractor returned no choices", nil)
	}
	return chatResp.Choices[0].Message.Content, nil
}
