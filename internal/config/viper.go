// Package config provides Viper-based hierarchical configuration management
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Mirror backends accepted by mirror.backend.
const (
	MirrorNone   = "none"
	MirrorSheets = "sheets"
	MirrorAMQP   = "amqp"
)

// Config represents the complete application configuration
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Telegram struct {
		Token       string `mapstructure:"token" yaml:"-"` // Never serialize the bot token
		Debug       bool   `mapstructure:"debug" yaml:"debug"`
		PollTimeout int    `mapstructure:"poll_timeout" yaml:"poll_timeout"`
	} `mapstructure:"telegram" yaml:"telegram"`

	Data struct {
		Directory string `mapstructure:"directory" yaml:"directory"`
	} `mapstructure:"data" yaml:"data"`

	Ledger struct {
		File      string `mapstructure:"file" yaml:"file"`
		Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
	} `mapstructure:"ledger" yaml:"ledger"`

	Categories struct {
		File       string `mapstructure:"file" yaml:"file"`
		CustomFile string `mapstructure:"custom_file" yaml:"custom_file"`
	} `mapstructure:"categories" yaml:"categories"`

	Morph struct {
		DictionaryFile string `mapstructure:"dictionary_file" yaml:"dictionary_file"`
	} `mapstructure:"morph" yaml:"morph"`

	Session struct {
		PendingTTL time.Duration `mapstructure:"pending_ttl" yaml:"pending_ttl"`
	} `mapstructure:"session" yaml:"session"`

	Mirror struct {
		Backend        string `mapstructure:"backend" yaml:"backend"`
		QueueSize      int    `mapstructure:"queue_size" yaml:"queue_size"`
		TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	} `mapstructure:"mirror" yaml:"mirror"`

	Sheets struct {
		SpreadsheetID   string `mapstructure:"spreadsheet_id" yaml:"spreadsheet_id"`
		SheetName       string `mapstructure:"sheet_name" yaml:"sheet_name"`
		CredentialsFile string `mapstructure:"credentials_file" yaml:"credentials_file"`
		CredentialsJSON string `mapstructure:"credentials_json" yaml:"-"`
	} `mapstructure:"sheets" yaml:"sheets"`

	AMQP struct {
		URL      string `mapstructure:"url" yaml:"-"`
		Exchange string `mapstructure:"exchange" yaml:"exchange"`
		Queue    string `mapstructure:"queue" yaml:"queue"`
	} `mapstructure:"amqp" yaml:"amqp"`

	AI struct {
		Enabled        bool   `mapstructure:"enabled" yaml:"enabled"`
		Model          string `mapstructure:"model" yaml:"model"`
		TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
		APIKey         string `mapstructure:"api_key" yaml:"-"` // Never serialize API key
	} `mapstructure:"ai" yaml:"ai"`
}

// InitializeConfig initializes Viper configuration with hierarchical loading
func InitializeConfig() (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.expense-bot")
	v.AddConfigPath(".expense-bot")
	v.AddConfigPath(".")

	// 3. Environment variables
	v.SetEnvPrefix("EXPENSE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 4. Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file %s: %w", v.ConfigFileUsed(), err)
		}
	}

	// 5. Secrets are read from their conventional, unprefixed variables
	if err := v.BindEnv("telegram.token", "EXPENSE_TELEGRAM_TOKEN", "BOT_TOKEN"); err != nil {
		return nil, fmt.Errorf("failed to bind BOT_TOKEN: %w", err)
	}
	if err := v.BindEnv("ai.api_key", "GEMINI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind GEMINI_API_KEY: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 6. Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// Telegram defaults
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.debug", false)
	v.SetDefault("telegram.poll_timeout", 60)

	// Storage defaults
	v.SetDefault("data.directory", ".")
	v.SetDefault("ledger.file", "expenses.csv")
	v.SetDefault("ledger.delimiter", ",")
	v.SetDefault("categories.file", "")
	v.SetDefault("categories.custom_file", "config/category_dict.yaml")
	v.SetDefault("morph.dictionary_file", "")

	// Session defaults
	v.SetDefault("session.pending_ttl", "0s")

	// Mirror defaults
	v.SetDefault("mirror.backend", MirrorNone)
	v.SetDefault("mirror.queue_size", 100)
	v.SetDefault("mirror.timeout_seconds", 10)
	v.SetDefault("sheets.spreadsheet_id", "")
	v.SetDefault("sheets.sheet_name", "")
	v.SetDefault("sheets.credentials_file", "")
	v.SetDefault("sheets.credentials_json", "")
	v.SetDefault("amqp.url", "")
	v.SetDefault("amqp.exchange", "expenses")
	v.SetDefault("amqp.queue", "expense.mirror")

	// AI defaults
	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.model", "gemini-2.0-flash")
	v.SetDefault("ai.timeout_seconds", 5)
	v.SetDefault("ai.api_key", "")
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	// Validate log level
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	// Validate log format
	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	if utf8.RuneCountInString(config.Ledger.Delimiter) != 1 {
		return fmt.Errorf("ledger delimiter must be a single character, got: %s", config.Ledger.Delimiter)
	}

	if config.Session.PendingTTL < 0 {
		return fmt.Errorf("session.pending_ttl must not be negative, got: %s", config.Session.PendingTTL)
	}

	switch config.Mirror.Backend {
	case MirrorNone:
	case MirrorSheets:
		if config.Sheets.SpreadsheetID == "" {
			return fmt.Errorf("sheets.spreadsheet_id required when mirror backend is sheets")
		}
		if config.Sheets.CredentialsFile == "" && config.Sheets.CredentialsJSON == "" {
			return fmt.Errorf("sheets credentials required when mirror backend is sheets")
		}
	case MirrorAMQP:
		if config.AMQP.URL == "" {
			return fmt.Errorf("amqp.url required when mirror backend is amqp")
		}
		if config.AMQP.Queue == "" {
			return fmt.Errorf("amqp.queue required when mirror backend is amqp")
		}
	default:
		return fmt.Errorf("invalid mirror backend: %s (must be 'none', 'sheets' or 'amqp')", config.Mirror.Backend)
	}

	if config.Mirror.Backend != MirrorNone {
		if config.Mirror.QueueSize < 1 || config.Mirror.QueueSize > 10000 {
			return fmt.Errorf("mirror.queue_size must be between 1 and 10000, got: %d", config.Mirror.QueueSize)
		}
		if config.Mirror.TimeoutSeconds < 1 || config.Mirror.TimeoutSeconds > 300 {
			return fmt.Errorf("mirror.timeout_seconds must be between 1 and 300, got: %d", config.Mirror.TimeoutSeconds)
		}
	}

	// Validate AI configuration
	if config.AI.Enabled {
		if config.AI.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY required when AI is enabled")
		}

		if config.AI.TimeoutSeconds < 1 || config.AI.TimeoutSeconds > 300 {
			return fmt.Errorf("ai.timeout_seconds must be between 1 and 300, got: %d", config.AI.TimeoutSeconds)
		}
	}

	return nil
}

// DelimiterRune returns the ledger delimiter as a rune.
func (c *Config) DelimiterRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Ledger.Delimiter)
	return r
}

// MirrorTimeout returns the per-call mirror timeout.
func (c *Config) MirrorTimeout() time.Duration {
	return time.Duration(c.Mirror.TimeoutSeconds) * time.Second
}

// AITimeout returns the suggestion timeout.
func (c *Config) AITimeout() time.Duration {
	return time.Duration(c.AI.TimeoutSeconds) * time.Second
}
