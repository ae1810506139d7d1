// Package config loads the bot configuration from a JSON file, a .env file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/bytedance/sonic"
	"github.com/joho/godotenv"
)

type Duration time.Duration

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := sonic.Unmarshal(b, &s); err != nil {
		var n int64
		if nErr := sonic.Unmarshal(b, &n); nErr != nil {
			return fmt.Errorf("duration must be a string like \"30s\" or seconds: %w", err)
		}
		*d = Duration(time.Duration(n) * time.Second)
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return sonic.Marshal(time.Duration(d).String())
}

type LLMConfig struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
	// Backend selects the plan generator: "eino" or "completions".
	Backend string `json:"backend"`
}

type ExtractConfig struct {
	// Mode is "local" or "llm". The llm mode falls back to local rules on errors.
	Mode          string `json:"mode"`
	DurationUnits string `json:"duration_units"`
	IntentMode    string `json:"intent_mode"`
}

type DialogueConfig struct {
	ConfirmTimeout Duration `json:"confirm_timeout"`
	TrendHint      int      `json:"trend_hint"`
}

type StorageConfig struct {
	// Records is "memory", "sqlite" or "postgres".
	Records     string   `json:"records"`
	SQLitePath  string   `json:"sqlite_path"`
	DatabaseURL string   `json:"database_url"`
	RedisURL    string   `json:"redis_url"`
	SessionTTL  Duration `json:"session_ttl"`
}

type BotConfig struct {
	// Transport is "console", "telegram" or "whatsapp".
	Transport     string   `json:"transport"`
	TelegramToken string   `json:"telegram_token"`
	WhatsAppStore string   `json:"whatsapp_store"`
	HandleTimeout Duration `json:"handle_timeout"`
}

type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
	File   string `json:"file"`
}

type Config struct {
	LLM      LLMConfig      `json:"llm"`
	Extract  ExtractConfig  `json:"extract"`
	Dialogue DialogueConfig `json:"dialogue"`
	Storage  StorageConfig  `json:"storage"`
	Bot      BotConfig      `json:"bot"`
	Log      LogConfig      `json:"log"`
}

func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Model:   "gpt-4o-mini",
			Backend: "eino",
		},
		Extract: ExtractConfig{
			Mode:          "local",
			DurationUnits: "minutes",
			IntentMode:    "local",
		},
		Dialogue: DialogueConfig{
			ConfirmTimeout: Duration(30 * time.Second),
			TrendHint:      2,
		},
		Storage: StorageConfig{
			Records:    "sqlite",
			SQLitePath: "coachbot.db",
		},
		Bot: BotConfig{
			Transport:     "console",
			WhatsAppStore: "whatsapp.db",
			HandleTimeout: Duration(60 * time.Second),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path on top of the defaults. An empty path or a missing file leaves the
// defaults in place. Secrets missing from the file are taken from the environment, after
// loading envFile when it exists.
func Load(path, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	conf := Default()
	if path != "" {
		file, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := sonic.Unmarshal(file, conf); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}
	conf.applyEnv()
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func (c *Config) applyEnv() {
	setFromEnv(&c.LLM.APIKey, "OPENAI_API_KEY")
	setFromEnv(&c.LLM.BaseURL, "OPENAI_BASE_URL")
	setFromEnv(&c.LLM.Model, "OPENAI_MODEL")
	setFromEnv(&c.Bot.TelegramToken, "TELEGRAM_BOT_TOKEN")
	setFromEnv(&c.Storage.DatabaseURL, "DATABASE_URL")
	setFromEnv(&c.Storage.RedisURL, "REDIS_URL")
}

func setFromEnv(dst *string, key string) {
	if *dst != "" {
		return
	}
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (c *Config) Validate() error {
	var errs []error
	if !oneOf(c.Extract.Mode, "local", "llm") {
		errs = append(errs, fmt.Errorf("extract.mode must be local or llm, got %q", c.Extract.Mode))
	}
	if !oneOf(c.Extract.IntentMode, "local", "llm") {
		errs = append(errs, fmt.Errorf("extract.intent_mode must be local or llm, got %q", c.Extract.IntentMode))
	}
	if !oneOf(c.Extract.DurationUnits, "minutes", "verbatim") {
		errs = append(errs, fmt.Errorf("extract.duration_units must be minutes or verbatim, got %q", c.Extract.DurationUnits))
	}
	if !oneOf(c.LLM.Backend, "eino", "completions") {
		errs = append(errs, fmt.Errorf("llm.backend must be eino or completions, got %q", c.LLM.Backend))
	}
	if c.LLM.APIKey == "" {
		errs = append(errs, errors.New("llm.api_key is required (or set OPENAI_API_KEY)"))
	}
	if c.Dialogue.ConfirmTimeout < 0 {
		errs = append(errs, errors.New("dialogue.confirm_timeout must not be negative"))
	}
	switch c.Storage.Records {
	case "memory":
	case "sqlite":
		if c.Storage.SQLitePath == "" {
			errs = append(errs, errors.New("storage.sqlite_path is required for sqlite records"))
		}
	case "postgres":
		if c.Storage.DatabaseURL == "" {
			errs = append(errs, errors.New("storage.database_url is required for postgres records (or set DATABASE_URL)"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.records must be memory, sqlite or postgres, got %q", c.Storage.Records))
	}
	switch c.Bot.Transport {
	case "console":
	case "telegram":
		if c.Bot.TelegramToken == "" {
			errs = append(errs, errors.New("bot.telegram_token is required (or set TELEGRAM_BOT_TOKEN)"))
		}
	case "whatsapp":
		if c.Bot.WhatsAppStore == "" {
			errs = append(errs, errors.New("bot.whatsapp_store is required for whatsapp"))
		}
	default:
		errs = append(errs, fmt.Errorf("bot.transport must be console, telegram or whatsapp, got %q", c.Bot.Transport))
	}
	if !oneOf(c.Log.Format, "text", "json") {
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
