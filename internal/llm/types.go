package llm

import (
	"context"
)

// Roles understood by every provider.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client defines the interface to a chat model provider.
type Client interface {
	// Complete returns the whole reply at once.
	Complete(ctx context.Context, messages []Message) (string, error)
	// Stream calls onChunk for every piece of the reply as it arrives.
	// Returning an error from onChunk stops the stream and Stream returns it.
	Stream(ctx context.Context, messages []Message, onChunk func(chunk string) error) error
}

// ModelInfo describes a selectable model.
type ModelInfo struct {
	Value    string
	Label    string
	Provider string
	IsNew    bool
	Thinker  bool
}

// Models is the catalogue offered to users. The first entry is used for
// follow-up edits since reasoning models tend to ignore the block format.
var Models = []ModelInfo{
	{Value: "deepseek-v3.2-exp", Label: "Deepseek-V3.2-exp", Provider: "openai", IsNew: true},
	{Value: "qwen3-coder-plus", Label: "Qwen3-Coder", Provider: "openai"},
	{Value: "deepseek-v3", Label: "DeepSeek V3", Provider: "openai"},
	{Value: "qwen-plus", Label: "Qwen-plus", Provider: "openai"},
	{Value: "deepseek-r1-0528", Label: "DeepSeek R1 0528", Provider: "openai", Thinker: true},
}

// DefaultFollowUpModel is the model used for SEARCH/REPLACE edits.
func DefaultFollowUpModel() string {
	return Models[0].Value
}

// LookupModel returns the catalogue entry for value.
func LookupModel(value string) (ModelInfo, bool) {
	for _, m := range Models {
		if m.Value == value {
			return m, true
		}
	}
	return ModelInfo{}, false
}
