package config

import (
	"os"
	"strings"
	"time"

	"TokenSentinel/internal/calculator"
	"TokenSentinel/internal/model"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Off disables an optional cron job, store or listener. An empty value does
// the same.
const Off = "off"

// Config holds all application configuration. Every field can be overridden
// from the environment, e.g. SCHEDULE_WICK_DURATION or TELEGRAM_BOT_TOKEN.
// Leaf fields use split_words: a field with an explicit envconfig tag is also
// looked up by the bare tag, so a tag like PATH would read $PATH.
type Config struct {
	Network string `yaml:"network" envconfig:"NETWORK"`

	Schedule struct {
		WickDuration time.Duration `yaml:"wick_duration" split_words:"true"`
		RequestDelay time.Duration `yaml:"request_delay" split_words:"true"`
		StartupDelay time.Duration `yaml:"startup_delay" split_words:"true"`
		RefreshCron  string        `yaml:"refresh_cron" split_words:"true"`
	} `yaml:"schedule" envconfig:"SCHEDULE"`

	DataSource struct {
		BaseURL      string        `yaml:"base_url" split_words:"true"`
		APIKey       string        `yaml:"api_key" split_words:"true"`
		APIKeyHeader string        `yaml:"api_key_header" split_words:"true"`
		VsCurrency   string        `yaml:"vs_currency" split_words:"true"`
		MaxTokens    int           `yaml:"max_tokens" split_words:"true"`
		Timeout      time.Duration `yaml:"timeout" split_words:"true"`
		RetryCount   int           `yaml:"retry_count" split_words:"true"`
	} `yaml:"data_source" envconfig:"COINGECKO"`

	Indicator struct {
		Fast   int `yaml:"fast" split_words:"true"`
		Slow   int `yaml:"slow" split_words:"true"`
		Signal int `yaml:"signal" split_words:"true"`
	} `yaml:"indicator" envconfig:"MACD"`

	Telegram struct {
		BotToken string `yaml:"bot_token" split_words:"true"`
		ChatID   string `yaml:"chat_id" split_words:"true"`
	} `yaml:"telegram" envconfig:"TELEGRAM"`

	Database struct {
		SQLitePath string `yaml:"sqlite_path" envconfig:"SQLITE_PATH"`
	} `yaml:"database" envconfig:"DATABASE"`

	Server struct {
		Addr string `yaml:"addr" split_words:"true"`
	} `yaml:"server" envconfig:"SERVER"`

	Log struct {
		Level      string `yaml:"level" split_words:"true"`
		File       string `yaml:"file" split_words:"true"`
		MaxSize    int    `yaml:"max_size" split_words:"true"`
		MaxBackups int    `yaml:"max_backups" split_words:"true"`
		MaxAge     int    `yaml:"max_age" split_words:"true"`
		Compress   bool   `yaml:"compress" split_words:"true"`
	} `yaml:"log" envconfig:"LOG"`

	Proxy string `yaml:"proxy" envconfig:"HTTPS_PROXY"`
}

// Default returns the built-in configuration. Load decodes on top of it, so
// any value set in the file or environment, zero included, wins.
func Default() *Config {
	c := &Config{Network: string(model.NetworkTON)}

	c.Schedule.WickDuration = 60 * time.Second
	c.Schedule.RequestDelay = time.Second
	c.Schedule.StartupDelay = time.Second
	c.Schedule.RefreshCron = "0 0 * * * *"

	c.DataSource.BaseURL = "https://api.coingecko.com/api/v3"
	c.DataSource.APIKeyHeader = "x-cg-demo-api-key"
	c.DataSource.VsCurrency = "usd"
	c.DataSource.Timeout = 30 * time.Second
	c.DataSource.RetryCount = 2

	c.Indicator.Fast = calculator.DefaultMACDParams.Fast
	c.Indicator.Slow = calculator.DefaultMACDParams.Slow
	c.Indicator.Signal = calculator.DefaultMACDParams.Signal

	c.Database.SQLitePath = "data/token_sentinel.db"
	c.Server.Addr = ":9102"

	c.Log.Level = "info"
	c.Log.File = "logs/scanner.log"
	c.Log.MaxSize = 50
	c.Log.MaxBackups = 3
	c.Log.MaxAge = 7
	return c
}

// Load reads config from a YAML file over the defaults, then applies
// environment variable overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "read config")
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(err, "parse config")
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, errors.Wrap(err, "environment overrides")
	}
	return cfg, nil
}

// Validate checks that the configuration can start a scanner. An unknown
// network fails with model.ErrNetworkUnsupported.
func (c *Config) Validate() error {
	if _, err := model.ParseNetwork(c.Network); err != nil {
		return errors.Wrap(err, "network")
	}
	if c.Schedule.WickDuration < time.Second {
		return errors.Errorf("schedule.wick_duration must be at least 1s, got %s", c.Schedule.WickDuration)
	}
	if c.Schedule.RequestDelay < 0 {
		return errors.New("schedule.request_delay must not be negative")
	}
	if !Disabled(c.Schedule.RefreshCron) {
		parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
		if _, err := parser.Parse(c.Schedule.RefreshCron); err != nil {
			return errors.Wrap(err, "schedule.refresh_cron")
		}
	}
	if c.DataSource.BaseURL == "" {
		return errors.New("data_source.base_url is required")
	}
	if c.DataSource.MaxTokens < 0 {
		return errors.New("data_source.max_tokens must not be negative")
	}
	if c.DataSource.RetryCount < 0 {
		return errors.New("data_source.retry_count must not be negative")
	}
	if err := c.MACDParams().Validate(); err != nil {
		return errors.Wrap(err, "indicator")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return errors.New("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// NetworkID returns the parsed network.
func (c *Config) NetworkID() (model.Network, error) {
	return model.ParseNetwork(c.Network)
}

// MACDParams returns the configured indicator periods.
func (c *Config) MACDParams() calculator.MACDParams {
	return calculator.MACDParams{Fast: c.Indicator.Fast, Slow: c.Indicator.Slow, Signal: c.Indicator.Signal}
}

// TelegramEnabled reports whether Telegram alerts are configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// Disabled reports whether an optional setting was switched off.
func Disabled(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, Off)
}
