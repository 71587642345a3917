// Package config holds all glowchat configuration: YAML on disk,
// defaults in code, environment overrides on top.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"glowchat/internal/conversation"
)

// Config holds all glowchat configuration.
type Config struct {
	Gateway GatewayConfig `yaml:"gateway"`
	Chat    ChatConfig    `yaml:"chat"`
	Proxy   ProxyConfig   `yaml:"proxy"`
	Catalog CatalogConfig `yaml:"catalog"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
}

// GatewayConfig configures the client side of the gateway round trip.
type GatewayConfig struct {
	URL     string `yaml:"url"`
	Timeout string `yaml:"timeout"`
	// IncludeContext sends the derived user context alongside the
	// transcript. Enriched-variant behavior, off by default.
	IncludeContext bool `yaml:"include_context"`
}

// ChatConfig configures the conversational front end.
type ChatConfig struct {
	SystemPrompt string `yaml:"system_prompt"`
	// Greeting, when set, is shown client-side on an empty transcript.
	// Historical variants disagreed on greeting injection; it is a knob.
	Greeting     string `yaml:"greeting"`
	HistoryLimit int    `yaml:"history_limit"`
}

// ProxyConfig configures the stateless proxy server (glowchat serve).
type ProxyConfig struct {
	Listen      string `yaml:"listen"`
	UpstreamURL string `yaml:"upstream_url"`
	APIKey      string `yaml:"api_key"`
	Model       string `yaml:"model"`
	MaxTokens   int    `yaml:"max_tokens"`
	// TokenLimitField names the upstream token-limit field
	// ("max_tokens" or "max_completion_tokens"); upstream APIs have
	// disagreed over time, so it is configuration rather than code.
	TokenLimitField string `yaml:"token_limit_field"`
	Timeout         string `yaml:"timeout"`
}

// CatalogConfig points at the product catalog file. Empty means the
// compiled-in sample catalog.
type CatalogConfig struct {
	Path string `yaml:"path"`
}

// StorageConfig points at the bbolt state database.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	JSON  bool   `yaml:"json"`
}

// DefaultSystemPrompt steers the model toward embedding a
// recommendations payload in its replies.
const DefaultSystemPrompt = "You are a friendly beauty-product advisor. " +
	"When you recommend products, embed a JSON object of the form " +
	`{"recommendations":[{"id":"...","reason":"..."}]} inside your reply.`

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Gateway: GatewayConfig{
			URL:     "http://localhost:8787",
			Timeout: "60s",
		},
		Chat: ChatConfig{
			SystemPrompt: DefaultSystemPrompt,
			Greeting:     "Hi! How can I help you today?",
			HistoryLimit: conversation.DefaultLimit,
		},
		Proxy: ProxyConfig{
			Listen:          ":8787",
			UpstreamURL:     "https://api.openai.com/v1/chat/completions",
			Model:           "gpt-4o",
			MaxTokens:       300,
			TokenLimitField: "max_completion_tokens",
			Timeout:         "120s",
		},
		Storage: StorageConfig{
			Path: defaultStoragePath(),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

func defaultStoragePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".glowchat", "state.db")
	}
	return filepath.Join(home, ".glowchat", "state.db")
}

// Load reads config from path, applying defaults for anything unset and
// environment overrides on top. A missing file is not an error: the
// defaults stand.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to path as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// applyEnvOverrides lets the environment win over file values.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("GLOWCHAT_GATEWAY_URL"); v != "" {
		c.Gateway.URL = v
	}
	if v := os.Getenv("GLOWCHAT_LISTEN"); v != "" {
		c.Proxy.Listen = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.Proxy.APIKey = v
	}
}

// Validate checks the knobs that would otherwise fail obscurely later.
func (c *Config) Validate() error {
	if c.Gateway.URL == "" {
		return fmt.Errorf("gateway.url must be set")
	}
	if c.Chat.HistoryLimit <= 0 {
		return fmt.Errorf("chat.history_limit must be positive, got %d", c.Chat.HistoryLimit)
	}
	switch c.Proxy.TokenLimitField {
	case "", "max_tokens", "max_completion_tokens":
	default:
		return fmt.Errorf("proxy.token_limit_field must be max_tokens or max_completion_tokens, got %q", c.Proxy.TokenLimitField)
	}
	if _, err := c.GatewayTimeout(); err != nil {
		return fmt.Errorf("gateway.timeout: %w", err)
	}
	if _, err := c.ProxyTimeout(); err != nil {
		return fmt.Errorf("proxy.timeout: %w", err)
	}
	return nil
}

// GatewayTimeout parses the gateway timeout string.
func (c *Config) GatewayTimeout() (time.Duration, error) {
	return parseTimeout(c.Gateway.Timeout, 60*time.Second)
}

// ProxyTimeout parses the proxy upstream timeout string.
func (c *Config) ProxyTimeout() (time.Duration, error) {
	return parseTimeout(c.Proxy.Timeout, 120*time.Second)
}

func parseTimeout(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", d)
	}
	return d, nil
}
