package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	configPathEnv     = "SLANG_HARVESTER_CONFIG"
	databasePathEnv   = "WORD_DATABASE"
	logLevelEnv       = "LOG_LEVEL"
	metricsAddrEnv    = "METRICS_ADDR"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"

	defaultInterval = 7 * 24 * time.Hour
	defaultTimeout  = 10 * time.Second
)

// Config holds high-level settings required across the application.
type Config struct {
	Database      DatabaseConfig     `yaml:"database"`
	Site          SiteConfig         `yaml:"site"`
	Fetcher       FetcherConfig      `yaml:"fetcher"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Logging       LoggingConfig      `yaml:"logging"`
	Notifications NotificationConfig `yaml:"notifications"`
	Metrics       MetricsConfig      `yaml:"metrics"`
}

// DatabaseConfig points at the SQLite file holding definitions.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// SiteConfig describes the remote directory: where tabs live and how word links look.
type SiteConfig struct {
	RootURL        string   `yaml:"rootUrl"`
	BrowseRootURL  string   `yaml:"browseRootUrl"`
	WordPathPrefix string   `yaml:"wordPathPrefix"`
	Tabs           []string `yaml:"tabs"`
}

// FetcherConfig bounds each HTTP request and the number in flight.
type FetcherConfig struct {
	Timeout     time.Duration `yaml:"timeout"`
	UserAgent   string        `yaml:"userAgent"`
	Concurrency int           `yaml:"concurrency"`
}

// SchedulerConfig defines how often a harvest cycle runs.
type SchedulerConfig struct {
	Interval   time.Duration `yaml:"interval"`
	RunOnStart *bool         `yaml:"runOnStart"`
}

// ShouldRunOnStart reports whether the first cycle starts immediately.
func (s SchedulerConfig) ShouldRunOnStart() bool {
	return s.RunOnStart == nil || *s.RunOnStart
}

// LoggingConfig selects level and handler format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// NotificationConfig encapsulates outbound operator channels.
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// Enabled reports whether both credentials are present.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// MetricsConfig controls the Prometheus listener; an empty Addr disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Load reads .env and YAML configuration (if present) and applies environment overrides.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: cannot load .env: %v", err)
	}

	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else if fileCfg, err := Parse(raw); err != nil {
			log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
		} else {
			cfg = mergeConfig(cfg, fileCfg)
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

// Parse decodes a YAML document without applying defaults.
func Parse(raw []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databasePathEnv); v != "" {
		c.Database.Path = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(metricsAddrEnv); v != "" {
		c.Metrics.Addr = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Database.Path != "" {
		base.Database = override.Database
	}

	if override.Site.RootURL != "" {
		base.Site.RootURL = strings.TrimSuffix(override.Site.RootURL, "/")
	}
	if override.Site.BrowseRootURL != "" {
		base.Site.BrowseRootURL = override.Site.BrowseRootURL
	}
	if override.Site.WordPathPrefix != "" {
		base.Site.WordPathPrefix = override.Site.WordPathPrefix
	}
	if len(override.Site.Tabs) > 0 {
		base.Site.Tabs = override.Site.Tabs
	}

	if override.Fetcher.Timeout > 0 {
		base.Fetcher.Timeout = override.Fetcher.Timeout
	}
	if override.Fetcher.UserAgent != "" {
		base.Fetcher.UserAgent = override.Fetcher.UserAgent
	}
	if override.Fetcher.Concurrency > 0 {
		base.Fetcher.Concurrency = override.Fetcher.Concurrency
	}

	if override.Scheduler.Interval > 0 {
		base.Scheduler.Interval = override.Scheduler.Interval
	}
	if override.Scheduler.RunOnStart != nil {
		base.Scheduler.RunOnStart = override.Scheduler.RunOnStart
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	if override.Metrics.Addr != "" {
		base.Metrics.Addr = override.Metrics.Addr
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Database: DatabaseConfig{Path: "words.db"},
		Site: SiteConfig{
			RootURL:        "https://urbaanisanakirja.com",
			BrowseRootURL:  "https://urbaanisanakirja.com/browse/",
			WordPathPrefix: "/word/",
			Tabs:           defaultTabs(),
		},
		Fetcher: FetcherConfig{
			Timeout:     defaultTimeout,
			UserAgent:   "SlangHarvester/1.0",
			Concurrency: 4,
		},
		Scheduler: SchedulerConfig{Interval: defaultInterval},
		Logging:   LoggingConfig{Level: "info", Format: "text"},
	}
}

func defaultTabs() []string {
	tabs := make([]string, 0, 29)
	for r := 'a'; r <= 'z'; r++ {
		tabs = append(tabs, string(r))
	}
	return append(tabs, "å", "ä", "ö")
}
