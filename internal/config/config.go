package config

// Config is the root configuration for the PingPal watcher.
type Config struct {
	Watch     WatchConfig     `json:"watch"`
	Channels  ChannelsConfig  `json:"channels"`
	Providers ProvidersConfig `json:"providers"`
	Store     StoreConfig     `json:"store"`
	Database  DatabaseConfig  `json:"database,omitempty"`
}

// WatchConfig holds the mention-watching behavior settings.
// TargetHandle and NotifyChatID are the two values the pipeline cannot run
// without: an empty handle disables detection, an empty recipient disables
// notification. Both degrade to a no-op rather than erroring.
type WatchConfig struct {
	TargetHandle    string `json:"target_handle"`               // handle watched for "@handle" mentions
	NotifyChannel   string `json:"notify_channel,omitempty"`    // delivery channel name (default "telegram")
	NotifyChatID    string `json:"notify_chat_id"`              // private chat that receives alerts
	DedupWindow     int    `json:"dedup_window,omitempty"`      // recent records scanned per duplicate check
	AlertsPerMinute int    `json:"alerts_per_minute,omitempty"` // notifier rate cap (0 = default)
}

// ChannelsConfig contains per-platform channel settings.
type ChannelsConfig struct {
	Telegram TelegramConfig `json:"telegram,omitempty"`
	Discord  DiscordConfig  `json:"discord,omitempty"`
}

// TelegramConfig configures the Telegram channel.
// Token is env-only (PINGPAL_TELEGRAM_TOKEN), never persisted.
type TelegramConfig struct {
	Enabled bool   `json:"enabled"`
	Token   string `json:"-"`
	Proxy   string `json:"proxy,omitempty"`
}

// DiscordConfig configures the Discord channel.
// Token is env-only (PINGPAL_DISCORD_TOKEN), never persisted.
type DiscordConfig struct {
	Enabled bool   `json:"enabled"`
	Token   string `json:"-"`
}

// ProvidersConfig selects and configures the LLM used for importance
// classification.
type ProvidersConfig struct {
	Provider   string         `json:"provider"` // "openai", "anthropic", "openrouter"
	Model      string         `json:"model,omitempty"`
	OpenAI     ProviderConfig `json:"openai,omitempty"`
	Anthropic  ProviderConfig `json:"anthropic,omitempty"`
	OpenRouter ProviderConfig `json:"openrouter,omitempty"`
}

// ProviderConfig holds per-provider credentials and endpoint overrides.
// APIKey is env-only, never persisted.
type ProviderConfig struct {
	APIKey  string `json:"-"`
	APIBase string `json:"api_base,omitempty"`
}

// StoreConfig configures the standalone SQLite mention store.
type StoreConfig struct {
	Path string `json:"path,omitempty"` // default: ~/.pingpal/pingpal.db
}

// DatabaseConfig configures Postgres for managed mode.
// PostgresDSN is NEVER read from config.json (secret) — only from env
// PINGPAL_POSTGRES_DSN. When set, the Postgres store replaces SQLite.
type DatabaseConfig struct {
	PostgresDSN string `json:"-"`
}

// UsesPostgres returns true when the mention store should run on Postgres.
func (c *Config) UsesPostgres() bool {
	return c.Database.PostgresDSN != ""
}
