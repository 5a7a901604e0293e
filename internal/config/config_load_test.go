package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Watch.DedupWindow != 50 {
		t.Errorf("DedupWindow = %d, want 50", cfg.Watch.DedupWindow)
	}
	if cfg.Watch.NotifyChannel != "telegram" {
		t.Errorf("NotifyChannel = %q, want telegram", cfg.Watch.NotifyChannel)
	}
	if cfg.Providers.Provider != "openai" {
		t.Errorf("Provider = %q, want openai", cfg.Providers.Provider)
	}
}

func TestLoad_FileAndEnvOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{
		// comments are allowed
		watch: {
			target_handle: "alice",
			notify_chat_id: "12345",
			dedup_window: 25,
		},
		providers: { provider: "anthropic" },
	}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("PINGPAL_TELEGRAM_TOKEN", "tok-123")
	t.Setenv("PINGPAL_TARGET_HANDLE", "bob")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	// Env wins over the file value.
	if cfg.Watch.TargetHandle != "bob" {
		t.Errorf("TargetHandle = %q, want bob", cfg.Watch.TargetHandle)
	}
	if cfg.Watch.NotifyChatID != "12345" {
		t.Errorf("NotifyChatID = %q, want 12345", cfg.Watch.NotifyChatID)
	}
	if cfg.Watch.DedupWindow != 25 {
		t.Errorf("DedupWindow = %d, want 25", cfg.Watch.DedupWindow)
	}
	if cfg.Providers.Provider != "anthropic" {
		t.Errorf("Provider = %q, want anthropic", cfg.Providers.Provider)
	}

	// A token from env auto-enables its channel.
	if !cfg.Channels.Telegram.Enabled || cfg.Channels.Telegram.Token != "tok-123" {
		t.Errorf("telegram channel not enabled from env: %+v", cfg.Channels.Telegram)
	}
}

func TestUsesPostgres(t *testing.T) {
	cfg := Default()
	if cfg.UsesPostgres() {
		t.Error("UsesPostgres() = true without a DSN")
	}
	cfg.Database.PostgresDSN = "postgres://localhost/pingpal"
	if !cfg.UsesPostgres() {
		t.Error("UsesPostgres() = false with a DSN")
	}
}

func TestStorePathExpandsHome(t *testing.T) {
	cfg := Default()
	got := cfg.StorePath()
	if len(got) == 0 || got[0] == '~' {
		t.Errorf("StorePath() = %q, want home-expanded path", got)
	}
}
