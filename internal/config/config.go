package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const DefaultPath = "configs/config.yaml"

type Config struct {
	LLM        LLMConfig        `yaml:"llm"`
	Run        RunConfig        `yaml:"run"`
	Generation GenerationConfig `yaml:"generation"`
	Storage    StorageConfig    `yaml:"storage"`
	Data       DataConfig       `yaml:"data"`
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type LLMConfig struct {
	Providers map[string]ProviderConfig `yaml:"providers,omitempty"`
}

type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url,omitempty"`
	Model   string `yaml:"model,omitempty"`
}

type RunConfig struct {
	Workers    int `yaml:"workers,omitempty"`
	SampleSize int `yaml:"sample_size,omitempty"`
}

// GenerationConfig selects the model used to synthesize new questions
// for benchmarks with an LLM generation strategy.
type GenerationConfig struct {
	Model string `yaml:"model,omitempty"`
}

type StorageConfig struct {
	Path string `yaml:"path,omitempty"` // SQLite file path
}

type DataConfig struct {
	Dir string `yaml:"dir,omitempty"` // benchmark data files root
}

type ServerConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"` // "text" or "json"
}

// Load reads configuration from path, falling back to the
// LINGBENCH_CONFIG environment variable and then DefaultPath. API keys
// and the Ollama address can be supplied through the environment
// instead of the file.
func Load(path string) (*Config, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = strings.TrimSpace(os.Getenv("LINGBENCH_CONFIG"))
	}
	if path == "" {
		path = DefaultPath
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}

	applyDefaults(&cfg)
	applyEnv(&cfg)
	return &cfg, nil
}

// Default returns the configuration used when no file exists: local
// sqlite storage, local data directory, environment-supplied keys.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	applyEnv(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.LLM.Providers == nil {
		cfg.LLM.Providers = make(map[string]ProviderConfig)
	}
	if cfg.Run.Workers <= 0 {
		cfg.Run.Workers = 4
	}
	if cfg.Run.SampleSize <= 0 {
		cfg.Run.SampleSize = 5
	}
	if strings.TrimSpace(cfg.Generation.Model) == "" {
		cfg.Generation.Model = "llama3.2"
	}
	if strings.TrimSpace(cfg.Storage.Path) == "" {
		cfg.Storage.Path = "lingbench.db"
	}
	if strings.TrimSpace(cfg.Data.Dir) == "" {
		cfg.Data.Dir = "data"
	}
	if strings.TrimSpace(cfg.Server.Addr) == "" {
		cfg.Server.Addr = ":8080"
	}
	if strings.TrimSpace(cfg.Logging.Level) == "" {
		cfg.Logging.Level = "info"
	}
	if strings.TrimSpace(cfg.Logging.Format) == "" {
		cfg.Logging.Format = "text"
	}
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")); v != "" {
		p := cfg.LLM.Providers["claude"]
		p.APIKey = v
		cfg.LLM.Providers["claude"] = p
	} else if v := strings.TrimSpace(os.Getenv("ANTHROPIC_AUTH_TOKEN")); v != "" {
		p := cfg.LLM.Providers["claude"]
		p.APIKey = v
		cfg.LLM.Providers["claude"] = p
	}

	if v := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); v != "" {
		p := cfg.LLM.Providers["openai"]
		p.APIKey = v
		cfg.LLM.Providers["openai"] = p
	}

	if v := strings.TrimSpace(os.Getenv("OLLAMA_BASE_URL")); v != "" {
		p := cfg.LLM.Providers["ollama"]
		p.BaseURL = v
		cfg.LLM.Providers["ollama"] = p
	}
}
