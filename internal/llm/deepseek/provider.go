package deepseek

import (
	"github.com/sqlscribe/sqlscribe/internal/llm"
	"github.com/sqlscribe/sqlscribe/internal/llm/chatwire"
)

// NewProvider creates the DeepSeek adapter.
func NewProvider(defaultModel string) llm.Provider {
	if defaultModel == "" {
		defaultModel = "deepseek-chat"
	}
	return chatwire.New(chatwire.Config{
		Name:         "deepseek",
		BaseURL:      "https://api.deepseek.com/v1",
		DefaultModel: defaultModel,
		Models: []string{
			"deepseek-chat",
			"deepseek-coder",
		},
	})
}
