package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	StoreBackend     string // sqlite, sheets
	DatabasePath     string
	SheetCredentials string // service account JSON, inline or a file path
	SheetID          string
	PlantWorksheet   string
	HistoryWorksheet string

	LLMProvider     string // gemini, anthropic, openai, ollama
	LLMModel        string
	GeminiKey       string
	AnthropicKey    string // API key (X-Api-Key header)
	AnthropicToken  string // OAuth token (Authorization: Bearer header)
	OpenAIKey       string
	OllamaBaseURL   string
	MaxPromptTokens int

	Notifier       string // telegram, discord, webhook
	TelegramToken  string
	TelegramChatID string
	DiscordToken   string
	DiscordUserID  string
	DiscordWebhook string

	Latitude       float64
	Longitude      float64
	PerenualKey    string
	GuidelineCache string
	SyncState      string // last reply sync, for backends that cannot store it

	CareCron string
	SyncCron string
}

// ConfigDir is where the installed service keeps its config and data.
func ConfigDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".sprout")
}

func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config")
}

// Load reads .env from the working directory, then ~/.sprout/config. Values
// already in the environment win.
func Load() *Config {
	_ = godotenv.Load()             // ignore error if no .env
	_ = godotenv.Load(ConfigFile()) // or no installed config

	return &Config{
		StoreBackend:     envOr("STORE_BACKEND", "sqlite"),
		DatabasePath:     envOr("DATABASE_PATH", "./sprout.db"),
		SheetCredentials: os.Getenv("G_SHEET_CREDENTIALS"),
		SheetID:          os.Getenv("SHEET_ID"),
		PlantWorksheet:   envOr("WORKSHEET_NAME", "Plants"),
		HistoryWorksheet: envOr("HISTORY_WORKSHEET", "CareHistory"),

		LLMProvider:     envOr("LLM_PROVIDER", "gemini"),
		LLMModel:        os.Getenv("LLM_MODEL"),
		GeminiKey:       os.Getenv("GEMINI_API_KEY"),
		AnthropicKey:    os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicToken:  os.Getenv("ANTHROPIC_AUTH_TOKEN"),
		OpenAIKey:       os.Getenv("OPENAI_API_KEY"),
		OllamaBaseURL:   envOr("OLLAMA_BASE_URL", "http://localhost:11434/v1"),
		MaxPromptTokens: envInt("MAX_PROMPT_TOKENS", 24000),

		Notifier:       envOr("NOTIFIER", "telegram"),
		TelegramToken:  os.Getenv("TELEGRAM_TOKEN"),
		TelegramChatID: os.Getenv("TELEGRAM_CHAT_ID"),
		DiscordToken:   os.Getenv("DISCORD_BOT_TOKEN"),
		DiscordUserID:  os.Getenv("DISCORD_USER_ID"),
		DiscordWebhook: os.Getenv("DISCORD_WEBHOOK_URL"),

		Latitude:       envFloat("LATITUDE", 34.05),
		Longitude:      envFloat("LONGITUDE", -118.25),
		PerenualKey:    os.Getenv("PERENUAL_API_KEY"),
		GuidelineCache: envOr("GUIDELINE_CACHE", filepath.Join("data", "plant_cache.json")),
		SyncState:      envOr("SYNC_STATE", filepath.Join("data", "sync_state.json")),

		CareCron: envOr("CARE_CRON", "0 8 * * *"),
		SyncCron: os.Getenv("SYNC_CRON"),
	}
}

// Validate reports every missing setting the chosen backends need.
func (c *Config) Validate() error {
	var errs []error
	missing := func(key, value string) {
		if value == "" {
			errs = append(errs, fmt.Errorf("%s is not set", key))
		}
	}

	switch c.StoreBackend {
	case "sqlite":
		missing("DATABASE_PATH", c.DatabasePath)
	case "sheets":
		missing("G_SHEET_CREDENTIALS", c.SheetCredentials)
		missing("SHEET_ID", c.SheetID)
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend))
	}

	switch c.LLMProvider {
	case "gemini":
		missing("GEMINI_API_KEY", c.GeminiKey)
	case "anthropic":
		if c.AnthropicKey == "" && c.AnthropicToken == "" {
			errs = append(errs, errors.New("ANTHROPIC_API_KEY or ANTHROPIC_AUTH_TOKEN is not set"))
		}
	case "openai":
		missing("OPENAI_API_KEY", c.OpenAIKey)
	case "ollama":
	default:
		errs = append(errs, fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider))
	}

	switch c.Notifier {
	case "telegram":
		missing("TELEGRAM_TOKEN", c.TelegramToken)
		missing("TELEGRAM_CHAT_ID", c.TelegramChatID)
	case "discord":
		missing("DISCORD_BOT_TOKEN", c.DiscordToken)
		missing("DISCORD_USER_ID", c.DiscordUserID)
	case "webhook":
		missing("DISCORD_WEBHOOK_URL", c.DiscordWebhook)
	default:
		errs = append(errs, fmt.Errorf("unknown NOTIFIER %q", c.Notifier))
	}

	return errors.Join(errs...)
}

// SheetCredentialsJSON returns the service account key, reading it from disk
// when G_SHEET_CREDENTIALS is a path rather than inline JSON.
func (c *Config) SheetCredentialsJSON() ([]byte, error) {
	v := strings.TrimSpace(c.SheetCredentials)
	if strings.HasPrefix(v, "{") {
		return []byte(v), nil
	}
	data, err := os.ReadFile(v)
	if err != nil {
		return nil, fmt.Errorf("reading sheet credentials: %w", err)
	}
	return data, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	f, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return fallback
	}
	return f
}
