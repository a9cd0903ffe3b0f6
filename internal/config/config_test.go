package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/newthinker/coinalert/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_FromFile(t *testing.T) {
	t.Setenv("COINALERT_TEST_TOKEN", "secret-token")

	path := writeConfig(t, `
watchlist:
  - symbol: BTC
    entry_price: 42000
  - symbol: PEPE
    coin_id: pepe

indicators:
  rsi_period: 10

thresholds:
  partial_sell_pct: 8

collector:
  providers: [binance]
  lookback_days: 60

notifiers:
  telegram:
    enabled: true
    params:
      bot_token: "${COINALERT_TEST_TOKEN}"
      chat_id: "12345"
  webhook:
    enabled: false
    params:
      url: http://localhost/hook

dispatch:
  retries: 4
  retry_delay: 500ms
  cooldown: 6h

entries:
  store: localfs
  path: /tmp/coinalert
  key: book.yaml

schedule:
  cron: "0 */4 * * *"

metrics:
  enabled: true
  addr: ":9100"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, []string{"BTC", "PEPE"}, cfg.Symbols())
	assert.Equal(t, map[string]float64{"BTC": 42000}, cfg.StaticEntries())
	assert.Equal(t, map[string]string{"PEPE": "pepe"}, cfg.CoinIDs())

	// explicit values
	assert.Equal(t, 10, cfg.Indicators.RSIPeriod)
	assert.Equal(t, 8.0, cfg.Thresholds.PartialSellPct)
	assert.Equal(t, []string{"binance"}, cfg.Collector.Providers)
	assert.Equal(t, 60, cfg.Collector.LookbackDays)
	assert.Equal(t, 4, cfg.Dispatch.Retries)
	assert.Equal(t, 500*time.Millisecond, cfg.Dispatch.RetryDelay)
	assert.Equal(t, 6*time.Hour, cfg.Dispatch.Cooldown)
	assert.Equal(t, "localfs", cfg.Entries.Store)
	assert.Equal(t, "/tmp/coinalert", cfg.Entries.Path)
	assert.Equal(t, "book.yaml", cfg.Entries.Key)
	assert.Equal(t, "0 */4 * * *", cfg.Schedule.Cron)
	assert.Equal(t, ":9100", cfg.Metrics.Addr)

	// defaults survive
	assert.Equal(t, 20, cfg.Indicators.MAPeriod)
	assert.Equal(t, 30.0, cfg.Thresholds.Oversold)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, 4, cfg.Concurrency)

	// env expansion
	require.Contains(t, cfg.Notifiers, "telegram")
	assert.True(t, cfg.Notifiers["telegram"].Enabled)
	assert.Equal(t, "secret-token", cfg.Notifiers["telegram"].Params["bot_token"])
	assert.Equal(t, []string{"telegram"}, cfg.EnabledNotifiers())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, core.ErrConfigMissing)
}

func TestLoad_ExampleConfig(t *testing.T) {
	t.Setenv("PUSHOVER_TOKEN", "tok")
	t.Setenv("PUSHOVER_USER", "usr")

	cfg, err := Load(filepath.Join("..", "..", "configs", "coinalert.example.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, []string{"BTC", "ETH", "SOL", "PEPE"}, cfg.Symbols())
	assert.Equal(t, []string{"pushover"}, cfg.EnabledNotifiers())
	assert.Equal(t, "tok", cfg.Notifiers["pushover"].Params["token"])
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	assert.Equal(t, 14, cfg.Indicators.RSIPeriod)
	assert.Equal(t, 70.0, cfg.Thresholds.Overbought)
	assert.Equal(t, []string{"coingecko", "binance"}, cfg.Collector.Providers)
	assert.Equal(t, "memory", cfg.Entries.Store)
	assert.Equal(t, time.Hour, cfg.Schedule.Interval)
	assert.False(t, cfg.Metrics.Enabled)
}

func valid() *Config {
	cfg := Defaults()
	cfg.Watchlist = []WatchlistItem{{Symbol: "BTC"}, {Symbol: "ETH"}}
	return cfg
}

func TestConfig_Validate(t *testing.T) {
	price := func(v float64) *float64 { return &v }

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"valid", func(c *Config) {}, nil},
		{"empty watchlist", func(c *Config) { c.Watchlist = nil }, core.ErrConfigMissing},
		{"blank symbol", func(c *Config) { c.Watchlist[0].Symbol = " " }, core.ErrConfigMissing},
		{"duplicate symbol", func(c *Config) { c.Watchlist[1].Symbol = "btc" }, core.ErrConfigInvalid},
		{"bad entry price", func(c *Config) { c.Watchlist[0].EntryPrice = price(0) }, core.ErrConfigInvalid},
		{"bad indicator", func(c *Config) { c.Indicators.MACDFast = 30 }, core.ErrConfigInvalid},
		{"bad thresholds", func(c *Config) { c.Thresholds.StopLossPct = 1 }, core.ErrConfigInvalid},
		{"nan threshold", func(c *Config) { c.Thresholds.FullSellPct = math.NaN() }, core.ErrConfigInvalid},
		{"no providers", func(c *Config) { c.Collector.Providers = nil }, core.ErrConfigMissing},
		{"unknown provider", func(c *Config) { c.Collector.Providers = []string{"okx"} }, core.ErrConfigInvalid},
		{"lookback too short", func(c *Config) { c.Collector.LookbackDays = 10 }, core.ErrConfigInvalid},
		{"negative retries", func(c *Config) { c.Dispatch.Retries = -1 }, core.ErrConfigInvalid},
		{"localfs without path", func(c *Config) { c.Entries.Store = "localfs" }, core.ErrConfigMissing},
		{"s3 without bucket", func(c *Config) { c.Entries.Store = "s3" }, core.ErrConfigMissing},
		{"unknown store", func(c *Config) { c.Entries.Store = "redis" }, core.ErrConfigInvalid},
		{"bad cron", func(c *Config) { c.Schedule.Cron = "every tuesday" }, core.ErrConfigInvalid},
		{"zero interval", func(c *Config) { c.Schedule.Interval = 0 }, core.ErrConfigInvalid},
		{"cron without interval", func(c *Config) { c.Schedule.Interval = 0; c.Schedule.Cron = "@hourly" }, nil},
		{"metrics without addr", func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Addr = "" }, core.ErrConfigInvalid},
		{"zero concurrency", func(c *Config) { c.Concurrency = 0 }, core.ErrConfigInvalid},
		{"unknown log level", func(c *Config) { c.Log.Level = "loud" }, core.ErrConfigInvalid},
		{"warn log level", func(c *Config) { c.Log.Level = "warn" }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
