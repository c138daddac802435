package openai

import (
	"github.com/sqlscribe/sqlscribe/internal/llm"
	"github.com/sqlscribe/sqlscribe/internal/llm/chatwire"
)

// NewProvider creates the OpenAI adapter.
func NewProvider(defaultModel string) llm.Provider {
	if defaultModel == "" {
		defaultModel = "gpt-4o-mini"
	}
	return chatwire.New(chatwire.Config{
		Name:         "openai",
		BaseURL:      "https://api.openai.com/v1",
		DefaultModel: defaultModel,
		Models: []string{
			"gpt-4o",
			"gpt-4o-mini",
			"gpt-4-turbo",
			"gpt-4",
			"gpt-3.5-turbo",
		},
	})
}
