package kimi

import (
	"github.com/sqlscribe/sqlscribe/internal/llm"
	"github.com/sqlscribe/sqlscribe/internal/llm/chatwire"
)

// NewProvider creates the Kimi (Moonshot) adapter.
func NewProvider(defaultModel string) llm.Provider {
	if defaultModel == "" {
		defaultModel = "moonshot-v1-8k"
	}
	return chatwire.New(chatwire.Config{
		Name:         "kimi",
		BaseURL:      "https://api.moonshot.cn/v1",
		DefaultModel: defaultModel,
		Models: []string{
			"moonshot-v1-8k",
			"moonshot-v1-32k",
			"moonshot-v1-128k",
		},
	})
}
