package main

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/chris/sprout/config"
	"github.com/chris/sprout/internal/advisor"
	"github.com/chris/sprout/internal/agent"
	"github.com/chris/sprout/internal/db"
	"github.com/chris/sprout/internal/guidelines"
	"github.com/chris/sprout/internal/llm"
	"github.com/chris/sprout/internal/notify"
	"github.com/chris/sprout/internal/sheets"
	"github.com/chris/sprout/internal/store"
	"github.com/chris/sprout/internal/weather"
)

type app struct {
	backend store.Backend
	advisor *advisor.Advisor
}

// openApp validates cfg and wires every collaborator. Configuration errors
// surface here, before any work is done.
func openApp(ctx context.Context, cfg *config.Config) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration:\n%w", err)
	}

	backend, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}

	notifier, err := newNotifier(cfg)
	if err != nil {
		closeBackend(backend)
		return nil, err
	}

	client, err := llm.NewClient(ctx, llm.ProviderConfig{
		Provider:  cfg.LLMProvider,
		APIKey:    llmKey(cfg),
		AuthToken: cfg.AnthropicToken,
		Model:     cfg.LLMModel,
		BaseURL:   cfg.OllamaBaseURL,
	})
	if err != nil {
		closeBackend(backend)
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	cache, err := guidelines.OpenCache(cfg.GuidelineCache)
	if err != nil {
		log.Printf("guidelines: running without cache: %v", err)
		cache = nil
	}
	guides := guidelines.NewClient(cfg.PerenualKey, cache)

	ag := agent.New(client, guides, cfg.MaxPromptTokens)
	forecasts := weather.NewClient(cfg.Latitude, cfg.Longitude)

	adv := advisor.New(backend, notifier, forecasts, ag)
	if _, ok := backend.(store.Cursor); !ok {
		adv.Cursor = store.NewFileCursor(cfg.SyncState)
	}
	return &app{backend: backend, advisor: adv}, nil
}

func (a *app) Close() {
	closeBackend(a.backend)
}

// openBackend opens only the store; commands that just read the inventory
// do not need chat or model credentials.
func openBackend(ctx context.Context, cfg *config.Config) (store.Backend, error) {
	switch cfg.StoreBackend {
	case "sqlite":
		database, err := db.Open(cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		return database, nil
	case "sheets":
		creds, err := cfg.SheetCredentialsJSON()
		if err != nil {
			return nil, err
		}
		backend, err := sheets.Open(ctx, sheets.Config{
			CredentialsJSON: creds,
			SpreadsheetID:   cfg.SheetID,
			PlantSheet:      cfg.PlantWorksheet,
			HistorySheet:    cfg.HistoryWorksheet,
		})
		if err != nil {
			return nil, err
		}
		return backend, nil
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
}

func closeBackend(b store.Backend) {
	if c, ok := b.(io.Closer); ok {
		if err := c.Close(); err != nil {
			log.Printf("closing store: %v", err)
		}
	}
}

func newNotifier(cfg *config.Config) (notify.Notifier, error) {
	switch cfg.Notifier {
	case "telegram":
		return notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID), nil
	case "discord":
		d, err := notify.NewDiscord(cfg.DiscordToken, cfg.DiscordUserID)
		if err != nil {
			return nil, err
		}
		return d, nil
	case "webhook":
		return notify.NewWebhook(cfg.DiscordWebhook), nil
	default:
		return nil, fmt.Errorf("unknown NOTIFIER %q", cfg.Notifier)
	}
}

func llmKey(cfg *config.Config) string {
	switch cfg.LLMProvider {
	case "anthropic":
		return cfg.AnthropicKey
	case "openai":
		return cfg.OpenAIKey
	default:
		return cfg.GeminiKey
	}
}
