package zhipu

import (
	"github.com/sqlscribe/sqlscribe/internal/llm"
	"github.com/sqlscribe/sqlscribe/internal/llm/chatwire"
)

// NewProvider creates the Zhipu (BigModel) adapter.
func NewProvider(defaultModel string) llm.Provider {
	if defaultModel == "" {
		defaultModel = "glm-4"
	}
	return chatwire.New(chatwire.Config{
		Name:         "zhipu",
		BaseURL:      "https://open.bigmodel.cn/api/paas/v4",
		DefaultModel: defaultModel,
		Models: []string{
			"glm-4",
			"glm-4-flash",
			"glm-3-turbo",
		},
	})
}
