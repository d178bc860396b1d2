package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"StoreScraper/internal/export"
)

const (
	configPathEnv = "STORE_SCRAPER_CONFIG"
	botTokenEnv   = "TELEGRAM_BOT_TOKEN"
	channelEnv    = "STORE_CHANNEL"
	databaseEnv   = "DATABASE_DSN"
)

// Config holds high-level settings required across the application.
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Scrape   ScrapeConfig   `yaml:"scrape"`
	Export   ExportConfig   `yaml:"export"`
	Storage  StorageConfig  `yaml:"storage"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// TelegramConfig wires the Bot API session.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	Channel  string `yaml:"channel"`
	APIBase  string `yaml:"apiBase"`
}

// ScrapeConfig controls the channel scan and its pacing.
type ScrapeConfig struct {
	Source             string `yaml:"source"` // "bot" or "preview"
	Limit              int    `yaml:"limit"`
	RetryBaseDelaySecs int    `yaml:"retryBaseDelaySecs"`
	ProductPauseMillis int    `yaml:"productPauseMillis"`
}

// RetryBaseDelay resolves the backoff unit between download attempts.
func (s ScrapeConfig) RetryBaseDelay() time.Duration {
	return time.Duration(s.RetryBaseDelaySecs) * time.Second
}

// ProductPause resolves the pause between assembled products.
func (s ScrapeConfig) ProductPause() time.Duration {
	return time.Duration(s.ProductPauseMillis) * time.Millisecond
}

// ExportConfig controls the tabular artifact.
type ExportConfig struct {
	Format          string `yaml:"format"`
	ImageBaseURL    string `yaml:"imageBaseUrl"`
	CurrencyDivisor int    `yaml:"currencyDivisor"`
}

// StorageConfig locates the product folder root.
type StorageConfig struct {
	Root string `yaml:"root"`
}

// DatabaseConfig describes the optional Postgres catalog archive.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// LoggingConfig controls console log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads .env and YAML configuration (if present) and applies
// environment overrides.
func Load() Config {
	_ = godotenv.Load()

	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

// Validate fails fast, before any network activity, with actionable messages.
func (c Config) Validate() error {
	if c.Scrape.Source == "bot" && c.Telegram.BotToken == "" {
		return fmt.Errorf("%s is not set; create a bot via @BotFather and put the token in .env", botTokenEnv)
	}
	if c.Telegram.Channel == "" {
		return fmt.Errorf("channel is not set; pass -channel or set %s in .env", channelEnv)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(botTokenEnv); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv(channelEnv); v != "" {
		c.Telegram.Channel = v
	}
	if v := os.Getenv(databaseEnv); v != "" {
		c.Database.DSN = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Telegram.BotToken != "" {
		base.Telegram.BotToken = override.Telegram.BotToken
	}
	if override.Telegram.Channel != "" {
		base.Telegram.Channel = override.Telegram.Channel
	}
	if override.Telegram.APIBase != "" {
		base.Telegram.APIBase = override.Telegram.APIBase
	}

	if override.Scrape.Source != "" {
		base.Scrape.Source = override.Scrape.Source
	}
	if override.Scrape.Limit > 0 {
		base.Scrape.Limit = override.Scrape.Limit
	}
	if override.Scrape.RetryBaseDelaySecs > 0 {
		base.Scrape.RetryBaseDelaySecs = override.Scrape.RetryBaseDelaySecs
	}
	if override.Scrape.ProductPauseMillis > 0 {
		base.Scrape.ProductPauseMillis = override.Scrape.ProductPauseMillis
	}

	if override.Export.Format != "" {
		base.Export.Format = override.Export.Format
	}
	if override.Export.ImageBaseURL != "" {
		base.Export.ImageBaseURL = override.Export.ImageBaseURL
	}
	if override.Export.CurrencyDivisor > 0 {
		base.Export.CurrencyDivisor = override.Export.CurrencyDivisor
	}

	if override.Storage.Root != "" {
		base.Storage.Root = override.Storage.Root
	}
	if override.Database.DSN != "" {
		base.Database.DSN = override.Database.DSN
	}
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Telegram: TelegramConfig{},
		Scrape: ScrapeConfig{
			Source:             "bot",
			Limit:              100,
			RetryBaseDelaySecs: 3,
			ProductPauseMillis: 1000,
		},
		Export: ExportConfig{
			Format:          "csv",
			CurrencyDivisor: export.DefaultCurrencyDivisor,
		},
		Storage: StorageConfig{Root: "Downloads"},
		Logging: LoggingConfig{Level: "info"},
	}
}
