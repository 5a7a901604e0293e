package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nextlevelbuilder/pingpal/internal/bus"
	"github.com/nextlevelbuilder/pingpal/internal/channels"
	"github.com/nextlevelbuilder/pingpal/internal/channels/discord"
	"github.com/nextlevelbuilder/pingpal/internal/channels/telegram"
	"github.com/nextlevelbuilder/pingpal/internal/classifier"
	"github.com/nextlevelbuilder/pingpal/internal/config"
	"github.com/nextlevelbuilder/pingpal/internal/notify"
	"github.com/nextlevelbuilder/pingpal/internal/pipeline"
	"github.com/nextlevelbuilder/pingpal/internal/providers"
	"github.com/nextlevelbuilder/pingpal/internal/store"
	"github.com/nextlevelbuilder/pingpal/internal/store/pg"
	"github.com/nextlevelbuilder/pingpal/internal/store/sqlite"
)

// agentID scopes mention records so several watchers can share one database.
const agentID = "pingpal"

func runWatcher() {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))

	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if cfg.Watch.TargetHandle == "" {
		slog.Warn("no target handle configured, nothing will be watched",
			"hint", "set watch.target_handle or PINGPAL_TARGET_HANDLE")
	}
	if cfg.Watch.NotifyChatID == "" {
		slog.Warn("no notify chat configured, alerts will be dropped",
			"hint", "set watch.notify_chat_id or PINGPAL_NOTIFY_CHAT_ID")
	}

	provider, err := buildProvider(cfg)
	if err != nil {
		slog.Error("failed to configure LLM provider", "error", err)
		os.Exit(1)
	}
	slog.Info("provider ready", "name", provider.Name(), "model", resolveModel(cfg, provider))

	mentionStore, err := openStore(cfg)
	if err != nil {
		slog.Error("failed to open mention store", "error", err)
		os.Exit(1)
	}
	defer mentionStore.Close()

	msgBus := bus.NewMessageBus()

	chans, err := buildChannels(cfg, msgBus)
	if err != nil {
		slog.Error("failed to create channels", "error", err)
		os.Exit(1)
	}
	if len(chans) == 0 {
		slog.Error("no channels enabled",
			"hint", "set PINGPAL_TELEGRAM_TOKEN or PINGPAL_DISCORD_TOKEN")
		os.Exit(1)
	}

	notifyChannel := chans[cfg.Watch.NotifyChannel]
	if notifyChannel == nil {
		slog.Warn("notify channel not enabled, alerts will be dropped",
			"notify_channel", cfg.Watch.NotifyChannel)
	}
	notifier := notify.New(notifyChannel, cfg.Watch.NotifyChatID, cfg.Watch.AlertsPerMinute)

	cls := classifier.New(provider, resolveModel(cfg, provider), cfg.Watch.TargetHandle)
	pipe := pipeline.New(agentID, cfg.Watch.TargetHandle, cfg.Watch.DedupWindow, mentionStore, cls, notifier)
	msgBus.OnInbound(pipe.Handler())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for name, ch := range chans {
		if err := ch.Start(ctx); err != nil {
			slog.Error("failed to start channel", "channel", name, "error", err)
			os.Exit(1)
		}
		slog.Info("channel started", "channel", name)
	}

	go msgBus.Run(ctx)

	slog.Info("pingpal watching",
		"target_handle", cfg.Watch.TargetHandle,
		"notify_channel", cfg.Watch.NotifyChannel,
		"dedup_window", cfg.Watch.DedupWindow,
	)

	<-ctx.Done()
	slog.Info("shutting down")

	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for name, ch := range chans {
		if err := ch.Stop(stopCtx); err != nil {
			slog.Warn("channel stop failed", "channel", name, "error", err)
		}
	}
}

// buildProvider constructs the configured LLM provider. Exactly one provider
// is active at a time, selected by providers.provider.
func buildProvider(cfg *config.Config) (providers.Provider, error) {
	switch cfg.Providers.Provider {
	case "openai", "":
		if cfg.Providers.OpenAI.APIKey == "" {
			return nil, fmt.Errorf("PINGPAL_OPENAI_API_KEY is not set")
		}
		return providers.NewOpenAIProvider("openai", cfg.Providers.OpenAI.APIKey, cfg.Providers.OpenAI.APIBase, "gpt-4o-mini"), nil
	case "anthropic":
		if cfg.Providers.Anthropic.APIKey == "" {
			return nil, fmt.Errorf("PINGPAL_ANTHROPIC_API_KEY is not set")
		}
		opts := []providers.AnthropicOption{}
		if cfg.Providers.Anthropic.APIBase != "" {
			opts = append(opts, providers.WithAnthropicBaseURL(cfg.Providers.Anthropic.APIBase))
		}
		return providers.NewAnthropicProvider(cfg.Providers.Anthropic.APIKey, opts...), nil
	case "openrouter":
		if cfg.Providers.OpenRouter.APIKey == "" {
			return nil, fmt.Errorf("PINGPAL_OPENROUTER_API_KEY is not set")
		}
		return providers.NewOpenAIProvider("openrouter", cfg.Providers.OpenRouter.APIKey, "https://openrouter.ai/api/v1", "anthropic/claude-sonnet-4-5-20250929"), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Providers.Provider)
	}
}

func resolveModel(cfg *config.Config, provider providers.Provider) string {
	if cfg.Providers.Model != "" {
		return cfg.Providers.Model
	}
	return provider.DefaultModel()
}

// openStore picks Postgres when a DSN is present, SQLite otherwise.
func openStore(cfg *config.Config) (store.MentionStore, error) {
	if cfg.UsesPostgres() {
		db, err := pg.OpenDB(cfg.Database.PostgresDSN)
		if err != nil {
			return nil, err
		}
		slog.Info("mention store ready", "backend", "postgres")
		return pg.New(db), nil
	}
	st, err := sqlite.New(cfg.StorePath())
	if err != nil {
		return nil, err
	}
	slog.Info("mention store ready", "backend", "sqlite", "path", cfg.StorePath())
	return st, nil
}

func buildChannels(cfg *config.Config, msgBus *bus.MessageBus) (map[string]channels.Channel, error) {
	chans := make(map[string]channels.Channel)

	if cfg.Channels.Telegram.Enabled {
		tg, err := telegram.New(cfg.Channels.Telegram, msgBus)
		if err != nil {
			return nil, fmt.Errorf("create telegram channel: %w", err)
		}
		chans["telegram"] = tg
	}

	if cfg.Channels.Discord.Enabled {
		dc, err := discord.New(cfg.Channels.Discord, msgBus)
		if err != nil {
			return nil, fmt.Errorf("create discord channel: %w", err)
		}
		chans["discord"] = dc
	}

	return chans, nil
}
