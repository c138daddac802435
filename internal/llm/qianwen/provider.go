package qianwen

import (
	"github.com/sqlscribe/sqlscribe/internal/llm"
	"github.com/sqlscribe/sqlscribe/internal/llm/chatwire"
)

// NewProvider creates the Qianwen (DashScope compatible mode) adapter.
func NewProvider(defaultModel string) llm.Provider {
	if defaultModel == "" {
		defaultModel = "qwen-plus"
	}
	return chatwire.New(chatwire.Config{
		Name:         "qianwen",
		BaseURL:      "https://dashscope.aliyuncs.com/compatible-mode/v1",
		DefaultModel: defaultModel,
		Models: []string{
			"qwen-plus",
			"qwen-turbo",
			"qwen-max",
		},
	})
}
