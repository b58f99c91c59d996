package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const (
	geminiRoleUser  = "user"
	geminiRoleModel = "model"
)

// GeminiClient implements Client using Gemini text generation.
type GeminiClient struct {
	client *genai.Client
	model  string
}

func NewGeminiClient(ctx context.Context, apiKey string, modelName string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiClient{
		client: client,
		model:  modelName,
	}, nil
}

func (c *GeminiClient) Complete(ctx context.Context, messages []Message) (string, error) {
	contents, config := toGeminiContents(messages)
	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return "", wrapProviderError(err)
	}
	return resp.Text(), nil
}

func (c *GeminiClient) Stream(ctx context.Context, messages []Message, onChunk func(chunk string) error) error {
	contents, config := toGeminiContents(messages)
	for resp, err := range c.client.Models.GenerateContentStream(ctx, c.model, contents, config) {
		if err != nil {
			return wrapProviderError(err)
		}
		text := resp.Text()
		if text == "" {
			continue
		}
		if err := onChunk(text); err != nil {
			return err
		}
	}
	return nil
}

// toGeminiContents maps chat messages onto Gemini contents. System messages
// become the system instruction; assistant turns use the "model" role.
func toGeminiContents(messages []Message) ([]*genai.Content, *genai.GenerateContentConfig) {
	var contents []*genai.Content
	var config *genai.GenerateContentConfig
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			config = &genai.GenerateContentConfig{
				SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: m.Content}}},
			}
		case RoleAssistant:
			contents = append(contents, &genai.Content{Role: geminiRoleModel, Parts: []*genai.Part{{Text: m.Content}}})
		default:
			contents = append(contents, &genai.Content{Role: geminiRoleUser, Parts: []*genai.Part{{Text: m.Content}}})
		}
	}
	return contents, config
}

func wrapProviderError(err error) error {
	if isQuotaMessage(err.Error()) {
		return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
	}
	return err
}
