// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Sources  SourcesConfig  `mapstructure:"sources"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Sync     SyncConfig     `mapstructure:"sync"`
	DB       DBConfig       `mapstructure:"db"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig controls the ops HTTP server.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// SourcesConfig holds the base URLs of the scraped sites.
type SourcesConfig struct {
	DeviceList string `mapstructure:"device_list"`
	Regions    string `mapstructure:"regions"`
	Firmware   string `mapstructure:"firmware"`
	Kernel     string `mapstructure:"kernel"`
	Download   string `mapstructure:"download"`
}

// FetchConfig configures the shared HTTP fetch client.
type FetchConfig struct {
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	MaxRetries     int    `mapstructure:"max_retries"`
	BackoffBaseMs  int    `mapstructure:"backoff_base_ms"`
	BackoffMaxMs   int    `mapstructure:"backoff_max_ms"`
	PaceSeconds    int    `mapstructure:"pace_seconds"`
}

// SyncConfig bounds synchronization pass concurrency.
type SyncConfig struct {
	Workers          int `mapstructure:"workers"`
	QueueDepth       int `mapstructure:"queue_depth"`
	DrainWaitSeconds int `mapstructure:"drain_wait_seconds"`
	PageFanOut       int `mapstructure:"page_fan_out"`
	RegionFanOut     int `mapstructure:"region_fan_out"`
}

// DBConfig controls access to the relational database.
type DBConfig struct {
	DSN      string `mapstructure:"dsn"`
	MaxConns int    `mapstructure:"max_conns"`
	MinConns int    `mapstructure:"min_conns"`
}

// TelegramConfig identifies the bot and its two channels.
type TelegramConfig struct {
	Token       string `mapstructure:"token"`
	UpdatesChat int64  `mapstructure:"updates_chat"`
	LogsChat    int64  `mapstructure:"logs_chat"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FIRMTRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("sources.device_list", "https://www.gsmarena.com")
	v.SetDefault("sources.regions", "https://www.samfw.com")
	v.SetDefault("sources.firmware", "https://doc.samsungmobile.com")
	v.SetDefault("sources.kernel", "https://opensource.samsung.com")
	v.SetDefault("sources.download", "https://samfw.com")
	v.SetDefault("fetch.user_agent", "firmtrack/0.1")
	v.SetDefault("fetch.timeout_seconds", 60)
	v.SetDefault("fetch.max_retries", 2)
	v.SetDefault("fetch.backoff_base_ms", 250)
	v.SetDefault("fetch.backoff_max_ms", 5000)
	v.SetDefault("fetch.pace_seconds", 3)
	v.SetDefault("sync.workers", 5)
	v.SetDefault("sync.queue_depth", 256)
	v.SetDefault("sync.drain_wait_seconds", 60)
	v.SetDefault("sync.page_fan_out", 4)
	v.SetDefault("sync.region_fan_out", 4)
	v.SetDefault("db.max_conns", 8)
	v.SetDefault("db.min_conns", 1)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetch.timeout_seconds must be > 0")
	}
	if c.Sync.Workers <= 0 {
		return fmt.Errorf("sync.workers must be > 0")
	}
	if c.Sync.QueueDepth <= 0 {
		return fmt.Errorf("sync.queue_depth must be > 0")
	}
	for name, base := range map[string]string{
		"sources.device_list": c.Sources.DeviceList,
		"sources.regions":     c.Sources.Regions,
		"sources.firmware":    c.Sources.Firmware,
		"sources.kernel":      c.Sources.Kernel,
	} {
		if base == "" {
			return fmt.Errorf("%s must be set", name)
		}
	}
	if c.Telegram.Token != "" && c.Telegram.UpdatesChat == 0 {
		return fmt.Errorf("telegram.updates_chat must be set when telegram.token is set")
	}
	return nil
}

// FetchTimeout converts the fetch timeout into a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// PaceInterval converts the politeness delay into a duration.
func (c Config) PaceInterval() time.Duration {
	return time.Duration(c.Fetch.PaceSeconds) * time.Second
}

// DrainWait converts the worker idle bound into a duration.
func (c Config) DrainWait() time.Duration {
	return time.Duration(c.Sync.DrainWaitSeconds) * time.Second
}
