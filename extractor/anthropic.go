package extractor

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// anthropicExtractor answers extractPrompt queries with a Claude chat model.
type anthropicExtractor struct {
	client anthropic.Client
	model  string
}

// NewAnthropic builds an Extractor backed by the Anthropic Messages API.
func NewAnthropic(apiKey, model string) Extractor {
	if model == "" {
		model = string(anthropic.ModelClaudeSonnet4_20250514)
	}
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &anthropicExtractor{client: client, model: model}
}

func (e *anthropicExtractor) Extract(ctx context.Context, content, prompt string) (string, error) {
	system := "Answer the user's question using only the provided page content. " +
		"If the content doesn't contain an answer, say so plainly."

	resp, err := e.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(e.model),
		MaxTokens: 1024,
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(
				fmt.Sprintf("Content:\n%s\n\nQuestion: %s", content, prompt),
			)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic extract: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if b, ok := block.AsAny().(anthropic.TextBlock); ok {
			text += b.Text
		}
	}
	return text, nil
}
