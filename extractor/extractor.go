// Package extractor implements the narrow LLM field-extraction interface
// of the content-processing pipeline (§4.4): given cleaned content and a
// natural-language prompt, produce a textual answer.
package extractor

import "context"

// Extractor is implemented by every configured provider. A nil Extractor
// means no provider is configured, and the server must not advertise the
// extractPrompt field in its tool schema.
type Extractor interface {
	// Extract answers prompt against content. Implementations MUST NOT
	// retry internally beyond what the underlying client already does;
	// the pipeline treats any error as a non-fatal, fall-back-to-lower-tier
	// condition (§4.4 failure semantics).
	Extract(ctx context.Context, content, prompt string) (string, error)
}

// Config selects and parameterizes one provider (§6).
type Config struct {
	Provider string // anthropic|openai|openai-compatible|none
	APIKey   string
	BaseURL  string
	Model    string
}

// New builds the configured Extractor, or nil if Provider is "none" or
// empty — the zero-config default.
func New(cfg Config) Extractor {
	switch cfg.Provider {
	case "anthropic":
		return NewAnthropic(cfg.APIKey, cfg.Model)
	case "openai":
		return NewOpenAI(cfg.APIKey, cfg.Model)
	case "openai-compatible":
		return NewCompatible(cfg.APIKey, cfg.BaseURL, cfg.Model)
	default:
		return nil
	}
}
