package llm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/verbalab/lingbench/internal/config"
)

// NewRegistryFromConfig builds providers for every configured entry.
// An ollama provider is always present so locally hosted models work
// without explicit configuration.
func NewRegistryFromConfig(cfg *config.Config) (*Registry, error) {
	if cfg == nil {
		return nil, errors.New("llm: nil config")
	}

	r := NewRegistry()
	for name, pcfg := range cfg.LLM.Providers {
		key := strings.ToLower(strings.TrimSpace(name))
		switch key {
		case "":
			continue
		case "claude", "anthropic":
			r.Register("claude", NewClaudeProvider(pcfg.APIKey, pcfg.BaseURL, pcfg.Model))
		case "openai":
			r.Register("openai", NewOpenAIProvider(pcfg.APIKey, pcfg.BaseURL, pcfg.Model))
		case "ollama":
			r.Register("ollama", NewOllamaProvider(pcfg.BaseURL))
		default:
			return nil, fmt.Errorf("llm: unknown provider %q", name)
		}
	}
	if _, ok := r.Get("ollama"); !ok {
		r.Register("ollama", NewOllamaProvider(""))
	}

	return r, nil
}

// NewClientFromConfig builds the routing client the rest of the system
// talks to.
func NewClientFromConfig(cfg *config.Config) (Client, error) {
	reg, err := NewRegistryFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return NewRouter(reg), nil
}
