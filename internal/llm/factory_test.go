package llm

import (
	"strings"
	"testing"

	"github.com/verbalab/lingbench/internal/config"
)

func TestNewRegistryFromConfig(t *testing.T) {
	t.Parallel()

	t.Run("OllamaAlwaysPresent", func(t *testing.T) {
		t.Parallel()

		reg, err := NewRegistryFromConfig(&config.Config{})
		if err != nil {
			t.Fatalf("NewRegistryFromConfig: %v", err)
		}
		if _, ok := reg.Get("ollama"); !ok {
			t.Fatalf("ollama fallback missing, have %v", reg.Names())
		}
	})

	t.Run("ConfiguredProviders", func(t *testing.T) {
		t.Parallel()

		cfg := &config.Config{}
		cfg.LLM.Providers = map[string]config.ProviderConfig{
			"openai":    {APIKey: "sk-test"},
			"anthropic": {APIKey: "sk-ant-test", Model: "claude-3-5-haiku-latest"},
			"ollama":    {BaseURL: "http://models.internal:11434"},
		}

		reg, err := NewRegistryFromConfig(cfg)
		if err != nil {
			t.Fatalf("NewRegistryFromConfig: %v", err)
		}

		// The anthropic alias registers under the claude name.
		want := []string{"claude", "ollama", "openai"}
		got := reg.Names()
		if len(got) != len(want) {
			t.Fatalf("names: got %v want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("names: got %v want %v", got, want)
			}
		}
	})

	t.Run("UnknownProvider", func(t *testing.T) {
		t.Parallel()

		cfg := &config.Config{}
		cfg.LLM.Providers = map[string]config.ProviderConfig{
			"bedrock": {APIKey: "x"},
		}
		_, err := NewRegistryFromConfig(cfg)
		if err == nil {
			t.Fatalf("expected error")
		}
		if !strings.Contains(err.Error(), "bedrock") {
			t.Fatalf("error should name the provider: %v", err)
		}
	})

	t.Run("NilConfig", func(t *testing.T) {
		t.Parallel()

		if _, err := NewRegistryFromConfig(nil); err == nil {
			t.Fatalf("expected error")
		}
	})
}

func TestNewClientFromConfig(t *testing.T) {
	t.Parallel()

	c, err := NewClientFromConfig(&config.Config{})
	if err != nil {
		t.Fatalf("NewClientFromConfig: %v", err)
	}
	if c == nil {
		t.Fatalf("nil client")
	}
	if _, ok := c.(*Router); !ok {
		t.Fatalf("client should be a router, got %T", c)
	}
}
