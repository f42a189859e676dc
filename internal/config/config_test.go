package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "1y", cfg.Market.Lookback)
	assert.Equal(t, "1d", cfg.Market.Interval)
	assert.Equal(t, 30, cfg.Market.MinBars)
	assert.Equal(t, 60, cfg.Market.CacheTTLMin)
	assert.Equal(t, "^GSPC", cfg.Market.MacroIndex)
	assert.Equal(t, "^VIX", cfg.Market.MacroVIX)
	assert.Equal(t, 25.0, cfg.Strategy.ADXThreshold)
	assert.Equal(t, "SMA Cross", cfg.Strategy.DefaultPreset)
	assert.Equal(t, "data/strategy_locks.json", cfg.Locks.Path)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_YAMLValues(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  log_level: debug
market:
  lookback: 2y
  min_bars: 50
strategy:
  adx_threshold: 20
  default_preset: Bollinger
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, "2y", cfg.Market.Lookback)
	assert.Equal(t, 50, cfg.Market.MinBars)
	assert.Equal(t, 20.0, cfg.Strategy.ADXThreshold)
	assert.Equal(t, "Bollinger", cfg.Strategy.DefaultPreset)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
market:
  lookback: 2y
`)
	t.Setenv("PORT", "7000")
	t.Setenv("MARKET_LOOKBACK", "1y")
	t.Setenv("TELEGRAM_BOT_TOKEN", "tok")
	t.Setenv("TELEGRAM_CHAT_ID", "42")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "1y", cfg.Market.Lookback)
	assert.Equal(t, "tok", cfg.Telegram.BotToken)
	assert.Equal(t, "42", cfg.Telegram.ChatID)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := &Config{}
		cfg.applyDefaults()
		return cfg
	}

	t.Run("bad port", func(t *testing.T) {
		cfg := base()
		cfg.Server.Port = 70000
		assert.ErrorContains(t, cfg.Validate(), "server.port")
	})

	t.Run("bad lookback", func(t *testing.T) {
		cfg := base()
		cfg.Market.Lookback = "6mo"
		assert.ErrorContains(t, cfg.Validate(), "market.lookback")
	})

	t.Run("bad min bars", func(t *testing.T) {
		cfg := base()
		cfg.Market.MinBars = 1
		assert.ErrorContains(t, cfg.Validate(), "min_bars")
	})

	t.Run("bad adx threshold", func(t *testing.T) {
		cfg := base()
		cfg.Strategy.ADXThreshold = 120
		assert.ErrorContains(t, cfg.Validate(), "adx_threshold")
	})

	t.Run("half-configured telegram", func(t *testing.T) {
		cfg := base()
		cfg.Telegram.BotToken = "tok"
		assert.ErrorContains(t, cfg.Validate(), "telegram")
	})
}

func TestLoad_BadYAML(t *testing.T) {
	path := writeConfig(t, "server: [not a map")
	_, err := Load(path)
	require.Error(t, err)
}
