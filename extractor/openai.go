package extractor

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// openAIExtractor answers extractPrompt queries with an OpenAI chat model.
type openAIExtractor struct {
	client openai.Client
	model  string
}

// NewOpenAI builds an Extractor backed by the official OpenAI API.
func NewOpenAI(apiKey, model string) Extractor {
	if model == "" {
		model = string(openai.ChatModelGPT4o)
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &openAIExtractor{client: client, model: model}
}

func (e *openAIExtractor) Extract(ctx context.Context, content, prompt string) (string, error) {
	resp, err := e.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(e.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("Answer the user's question using only the provided page content. " +
				"If the content doesn't contain an answer, say so plainly."),
			openai.UserMessage(fmt.Sprintf("Content:\n%s\n\nQuestion: %s", content, prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai extract: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai extract: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}
