package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Port     int    `yaml:"port"`
		LogLevel string `yaml:"log_level"`
	} `yaml:"server"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Market struct {
		Lookback    string   `yaml:"lookback"`  // yfinance period: "1y" or "2y"
		Interval    string   `yaml:"interval"`  // bar interval, "1d"
		MinBars     int      `yaml:"min_bars"`  // series shorter than this are discarded
		CacheTTLMin int      `yaml:"cache_ttl"` // minutes before the cache is stale
		MacroIndex  string   `yaml:"macro_index"`
		MacroVIX    string   `yaml:"macro_vix"`
		MacroYield  string   `yaml:"macro_yield"`
		Extra       []string `yaml:"extra_symbols"` // watchlist fetched alongside the portfolio
	} `yaml:"market"`
	Strategy struct {
		ADXThreshold  float64 `yaml:"adx_threshold"` // trend-strength gate for crossovers
		DefaultPreset string  `yaml:"default_preset"`
	} `yaml:"strategy"`
	Portfolio struct {
		CSVPath string `yaml:"csv_path"` // optional autoload on startup
	} `yaml:"portfolio"`
	Locks struct {
		Path string `yaml:"path"`
	} `yaml:"locks"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Schedule struct {
		ScanCron string `yaml:"scan_cron"`
	} `yaml:"schedule"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Server.LogLevel = v
	}
	if v := os.Getenv("MARKET_LOOKBACK"); v != "" {
		cfg.Market.Lookback = v
	}
	if v := os.Getenv("ADX_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Strategy.ADXThreshold = f
		}
	}
	if v := os.Getenv("PORTFOLIO_CSV"); v != "" {
		cfg.Portfolio.CSVPath = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("SCAN_CRON"); v != "" {
		cfg.Schedule.ScanCron = v
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Market.Lookback == "" {
		c.Market.Lookback = "1y"
	}
	if c.Market.Interval == "" {
		c.Market.Interval = "1d"
	}
	if c.Market.MinBars == 0 {
		c.Market.MinBars = 30
	}
	if c.Market.CacheTTLMin == 0 {
		c.Market.CacheTTLMin = 60
	}
	if c.Market.MacroIndex == "" {
		c.Market.MacroIndex = "^GSPC"
	}
	if c.Market.MacroVIX == "" {
		c.Market.MacroVIX = "^VIX"
	}
	if c.Market.MacroYield == "" {
		c.Market.MacroYield = "^TNX"
	}
	if c.Strategy.ADXThreshold == 0 {
		c.Strategy.ADXThreshold = 25
	}
	if c.Strategy.DefaultPreset == "" {
		c.Strategy.DefaultPreset = "SMA Cross"
	}
	if c.Locks.Path == "" {
		c.Locks.Path = "data/strategy_locks.json"
	}
	if c.Schedule.ScanCron == "" {
		c.Schedule.ScanCron = "0 30 16 * * 1-5"
	}
}

// Validate checks that the configuration is internally consistent. Telegram
// credentials are optional: without them the notifier is disabled, never
// replaced by a built-in fallback.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port)
	}
	switch c.Market.Lookback {
	case "1y", "2y":
	default:
		return fmt.Errorf("market.lookback must be 1y or 2y, got %q", c.Market.Lookback)
	}
	if c.Market.MinBars < 2 {
		return fmt.Errorf("market.min_bars must be at least 2, got %d", c.Market.MinBars)
	}
	if c.Strategy.ADXThreshold < 0 || c.Strategy.ADXThreshold > 100 {
		return fmt.Errorf("strategy.adx_threshold must be in 0..100, got %g", c.Strategy.ADXThreshold)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}
