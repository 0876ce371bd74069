// Package factory builds model providers from configuration.
package factory

import (
	"strings"

	"github.com/ilkoid/aiops-assistant/pkg/config"
	"github.com/ilkoid/aiops-assistant/pkg/llm"
	"github.com/ilkoid/aiops-assistant/pkg/llm/openai"
)

// NewProvider creates the provider named by cfg.Provider.
//
// "openai" and OpenAI-compatible backends (reached through base_url) share
// the go-openai client.
func NewProvider(cfg config.ModelConfig) (llm.Provider, error) {
	cfg = cfg.GetDefaults()

	switch strings.ToLower(cfg.Provider) {
	case "openai", "deepseek", "zai", "ollama":
		return openai.NewClient(cfg), nil

	default:
		return nil, config.Errorf("openai.provider", "unknown provider type: %s", cfg.Provider)
	}
}
