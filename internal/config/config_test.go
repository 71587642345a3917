package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "http://localhost:8787", cfg.Gateway.URL)
	assert.Equal(t, ":8787", cfg.Proxy.Listen)
	assert.Equal(t, "gpt-4o", cfg.Proxy.Model)
	assert.Equal(t, 300, cfg.Proxy.MaxTokens)
	assert.Equal(t, "max_completion_tokens", cfg.Proxy.TokenLimitField)
	assert.Equal(t, 20, cfg.Chat.HistoryLimit)
	assert.NotEmpty(t, cfg.Chat.SystemPrompt)
	assert.NotEmpty(t, cfg.Chat.Greeting)
	assert.NotEmpty(t, cfg.Storage.Path)
	assert.Equal(t, "info", cfg.Logging.Level)

	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Gateway.URL, cfg.Gateway.URL)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deep", "config.yaml")

	cfg := DefaultConfig()
	cfg.Gateway.URL = "http://gw.internal:9000"
	cfg.Chat.HistoryLimit = 12
	cfg.Proxy.TokenLimitField = "max_tokens"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://gw.internal:9000", loaded.Gateway.URL)
	assert.Equal(t, 12, loaded.Chat.HistoryLimit)
	assert.Equal(t, "max_tokens", loaded.Proxy.TokenLimitField)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("gateway:\n  url: http://other:1234\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://other:1234", cfg.Gateway.URL)
	// Unset sections fall back to defaults.
	assert.Equal(t, 20, cfg.Chat.HistoryLimit)
	assert.Equal(t, "gpt-4o", cfg.Proxy.Model)
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("gateway: [unclosed\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GLOWCHAT_GATEWAY_URL", "http://env-gw:8080")
	t.Setenv("GLOWCHAT_LISTEN", ":9999")
	t.Setenv("OPENAI_API_KEY", "sk-from-env")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "http://env-gw:8080", cfg.Gateway.URL)
	assert.Equal(t, ":9999", cfg.Proxy.Listen)
	assert.Equal(t, "sk-from-env", cfg.Proxy.APIKey)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing_gateway_url",
			mutate:  func(c *Config) { c.Gateway.URL = "" },
			wantErr: "gateway.url",
		},
		{
			name:    "zero_history_limit",
			mutate:  func(c *Config) { c.Chat.HistoryLimit = 0 },
			wantErr: "history_limit",
		},
		{
			name:    "unknown_token_limit_field",
			mutate:  func(c *Config) { c.Proxy.TokenLimitField = "tokens_max" },
			wantErr: "token_limit_field",
		},
		{
			name:    "bad_gateway_timeout",
			mutate:  func(c *Config) { c.Gateway.Timeout = "soon" },
			wantErr: "gateway.timeout",
		},
		{
			name:    "negative_proxy_timeout",
			mutate:  func(c *Config) { c.Proxy.Timeout = "-5s" },
			wantErr: "proxy.timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTimeouts(t *testing.T) {
	cfg := DefaultConfig()

	d, err := cfg.GatewayTimeout()
	require.NoError(t, err)
	assert.Equal(t, 60*time.Second, d)

	cfg.Gateway.Timeout = ""
	d, err = cfg.GatewayTimeout()
	require.NoError(t, err)
	assert.Equal(t, 60*time.Second, d, "empty timeout means the default")

	cfg.Proxy.Timeout = "30s"
	d, err = cfg.ProxyTimeout()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, d)
}
