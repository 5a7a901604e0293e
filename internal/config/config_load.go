package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/titanous/json5"
)

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Watch: WatchConfig{
			NotifyChannel:   "telegram",
			DedupWindow:     50,
			AlertsPerMinute: 10,
		},
		Providers: ProvidersConfig{
			Provider: "openai",
			Model:    "gpt-4o-mini",
		},
		Store: StoreConfig{
			Path: "~/.pingpal/pingpal.db",
		},
	}
}

// Load reads config from a JSON5 file, then overlays env vars.
// A missing file is not an error: env-only operation is supported.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json5.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides overlays env vars onto the config.
// Env vars take precedence over file values.
func (c *Config) applyEnvOverrides() {
	envStr := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	envStr("PINGPAL_TELEGRAM_TOKEN", &c.Channels.Telegram.Token)
	envStr("PINGPAL_DISCORD_TOKEN", &c.Channels.Discord.Token)
	envStr("PINGPAL_OPENAI_API_KEY", &c.Providers.OpenAI.APIKey)
	envStr("PINGPAL_ANTHROPIC_API_KEY", &c.Providers.Anthropic.APIKey)
	envStr("PINGPAL_OPENROUTER_API_KEY", &c.Providers.OpenRouter.APIKey)
	envStr("PINGPAL_POSTGRES_DSN", &c.Database.PostgresDSN)
	envStr("PINGPAL_TARGET_HANDLE", &c.Watch.TargetHandle)
	envStr("PINGPAL_NOTIFY_CHAT_ID", &c.Watch.NotifyChatID)
	envStr("PINGPAL_NOTIFY_CHANNEL", &c.Watch.NotifyChannel)

	if v := os.Getenv("PINGPAL_DEDUP_WINDOW"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Watch.DedupWindow = n
		}
	}

	// Auto-enable channels if credentials are provided via env.
	if c.Channels.Telegram.Token != "" {
		c.Channels.Telegram.Enabled = true
	}
	if c.Channels.Discord.Token != "" {
		c.Channels.Discord.Enabled = true
	}
}

// StorePath returns the SQLite store path with "~" expanded.
func (c *Config) StorePath() string {
	return expandHome(c.Store.Path)
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
