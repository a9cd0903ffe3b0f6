package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/newthinker/coinalert/internal/alert"
	"github.com/newthinker/coinalert/internal/collector"
	"github.com/newthinker/coinalert/internal/core"
	"github.com/newthinker/coinalert/internal/dispatch"
	"github.com/newthinker/coinalert/internal/indicator"
	"github.com/newthinker/coinalert/internal/storage/archive"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Watchlist   []WatchlistItem           `mapstructure:"watchlist"`
	Indicators  indicator.Params          `mapstructure:"indicators"`
	Thresholds  alert.Thresholds          `mapstructure:"thresholds"`
	Collector   collector.Config          `mapstructure:"collector"`
	Notifiers   map[string]NotifierConfig `mapstructure:"notifiers"`
	Dispatch    dispatch.Config           `mapstructure:"dispatch"`
	Entries     EntriesConfig             `mapstructure:"entries"`
	Schedule    ScheduleConfig            `mapstructure:"schedule"`
	Metrics     MetricsConfig             `mapstructure:"metrics"`
	Log         LogConfig                 `mapstructure:"log"`
	Concurrency int                       `mapstructure:"concurrency"`
}

// WatchlistItem is one tracked symbol. CoinID overrides the CoinGecko id and
// EntryPrice pins the reference price for the entry bands.
type WatchlistItem struct {
	Symbol     string   `mapstructure:"symbol"`
	CoinID     string   `mapstructure:"coin_id"`
	EntryPrice *float64 `mapstructure:"entry_price"`
}

// NotifierConfig enables a notifier by name and carries its parameters.
type NotifierConfig struct {
	Enabled bool           `mapstructure:"enabled"`
	Params  map[string]any `mapstructure:"params"`
}

// EntriesConfig selects where first-sight entry prices are kept.
type EntriesConfig struct {
	archive.Config `mapstructure:",squash"`
	Key            string `mapstructure:"key"`
}

// ScheduleConfig drives the watch command. Cron wins over Interval.
type ScheduleConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Cron     string        `mapstructure:"cron"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
	Path    string `mapstructure:"path"`
}

// LogConfig holds logging configuration. An empty level keeps the default
// of the selected mode.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from file on top of Defaults
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, core.WrapError(core.ErrConfigMissing, fmt.Errorf("reading config: %w", err))
	}

	// Expand ${VAR} references in string values
	for _, key := range v.AllKeys() {
		val, ok := v.Get(key).(string)
		if ok && strings.Contains(val, "${") {
			v.Set(key, os.ExpandEnv(val))
		}
	}

	cfg := Defaults()
	// a configured provider list replaces the default one instead of
	// overwriting it element by element
	cfg.Collector.Providers = nil
	if err := v.Unmarshal(cfg); err != nil {
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unmarshaling config: %w", err))
	}
	if len(cfg.Collector.Providers) == 0 {
		cfg.Collector.Providers = collector.DefaultConfig().Providers
	}

	return cfg, nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Indicators: indicator.DefaultParams(),
		Thresholds: alert.DefaultThresholds(),
		Collector:  collector.DefaultConfig(),
		Notifiers:  map[string]NotifierConfig{},
		Dispatch:   dispatch.DefaultConfig(),
		Entries: EntriesConfig{
			Config: archive.Config{Store: "memory"},
		},
		Schedule: ScheduleConfig{
			Interval: time.Hour,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9090",
			Path:    "/metrics",
		},
		Concurrency: 4,
	}
}

// Symbols returns the watchlist symbols in configured order.
func (c *Config) Symbols() []string {
	out := make([]string, len(c.Watchlist))
	for i, w := range c.Watchlist {
		out[i] = w.Symbol
	}
	return out
}

// StaticEntries returns the configured entry prices by symbol.
func (c *Config) StaticEntries() map[string]float64 {
	out := make(map[string]float64)
	for _, w := range c.Watchlist {
		if w.EntryPrice != nil {
			out[w.Symbol] = *w.EntryPrice
		}
	}
	return out
}

// CoinIDs returns the CoinGecko id overrides by symbol.
func (c *Config) CoinIDs() map[string]string {
	out := make(map[string]string)
	for _, w := range c.Watchlist {
		if w.CoinID != "" {
			out[w.Symbol] = w.CoinID
		}
	}
	return out
}

// EnabledNotifiers returns the names of enabled notifiers, sorted.
func (c *Config) EnabledNotifiers() []string {
	var out []string
	for name, n := range c.Notifiers {
		if n.Enabled {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func invalid(format string, args ...any) error {
	return core.WrapError(core.ErrConfigInvalid, fmt.Errorf(format, args...))
}

func missing(format string, args ...any) error {
	return core.WrapError(core.ErrConfigMissing, fmt.Errorf(format, args...))
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	// Watchlist validation
	if len(c.Watchlist) == 0 {
		return missing("watchlist must contain at least one symbol")
	}
	seen := make(map[string]bool, len(c.Watchlist))
	for i, w := range c.Watchlist {
		sym := strings.ToUpper(strings.TrimSpace(w.Symbol))
		if sym == "" {
			return missing("watchlist[%d]: symbol is required", i)
		}
		if seen[sym] {
			return invalid("watchlist: duplicate symbol %s", sym)
		}
		seen[sym] = true
		if w.EntryPrice != nil && !core.ValidPrice(*w.EntryPrice) {
			return invalid("watchlist %s: entry_price must be positive, got %v", sym, *w.EntryPrice)
		}
	}

	if err := c.Indicators.Validate(); err != nil {
		return invalid("indicators: %w", err)
	}
	if err := c.Thresholds.Validate(); err != nil {
		return invalid("thresholds: %w", err)
	}

	// Collector validation
	if len(c.Collector.Providers) == 0 {
		return missing("collector.providers must list at least one provider")
	}
	for _, p := range c.Collector.Providers {
		if p != "coingecko" && p != "binance" {
			return invalid("collector: unknown provider %q", p)
		}
	}
	if c.Collector.LookbackDays < 1 {
		return invalid("collector.lookback_days must be positive, got %d", c.Collector.LookbackDays)
	}
	if c.Collector.Interval == "1d" && c.Collector.LookbackDays < c.Indicators.Lookback() {
		return invalid("collector.lookback_days %d is shorter than the %d daily closes the indicators need",
			c.Collector.LookbackDays, c.Indicators.Lookback())
	}

	if c.Dispatch.Retries < 0 {
		return invalid("dispatch.retries cannot be negative, got %d", c.Dispatch.Retries)
	}
	if c.Dispatch.RetryDelay < 0 || c.Dispatch.Cooldown < 0 {
		return invalid("dispatch durations cannot be negative")
	}

	switch c.Entries.Store {
	case "", "memory":
	case "localfs":
		if c.Entries.Path == "" {
			return missing("entries.path required when store is localfs")
		}
	case "s3":
		if c.Entries.S3.Bucket == "" {
			return missing("entries.s3.bucket required when store is s3")
		}
	default:
		return invalid("entries.store must be memory, localfs or s3, got %q", c.Entries.Store)
	}

	if c.Schedule.Cron != "" {
		if _, err := cron.ParseStandard(c.Schedule.Cron); err != nil {
			return invalid("schedule.cron: %w", err)
		}
	} else if c.Schedule.Interval <= 0 {
		return invalid("schedule.interval must be positive, got %s", c.Schedule.Interval)
	}

	if c.Metrics.Enabled && (c.Metrics.Addr == "" || !strings.HasPrefix(c.Metrics.Path, "/")) {
		return invalid("metrics requires addr and an absolute path")
	}

	if c.Log.Level != "" {
		if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
			return invalid("log.level: %w", err)
		}
	}

	if c.Concurrency < 1 {
		return invalid("concurrency must be at least 1, got %d", c.Concurrency)
	}

	return nil
}
