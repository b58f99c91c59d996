package llm

import (
	"context"
	"fmt"
	"strings"
)

type Options struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
}

func NewClient(ctx context.Context, opts Options) (Client, error) {
	provider := strings.ToLower(strings.TrimSpace(opts.Provider))
	if provider == "" {
		provider = "openai"
	}

	switch provider {
	case "openai":
		return NewOpenAIClient(opts.APIKey, opts.Model, opts.BaseURL), nil
	case "gemini":
		return NewGeminiClient(ctx, opts.APIKey, opts.Model)
	default:
		return nil, fmt.Errorf("unsupported model provider: %s", opts.Provider)
	}
}
