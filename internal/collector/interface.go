package collector

import (
	"context"
	"time"

	"github.com/newthinker/coinalert/internal/core"
)

// Config holds collector configuration
type Config struct {
	// Providers is the fallback order, e.g. ["coingecko", "binance"].
	Providers       []string      `mapstructure:"providers"`
	CoinGeckoAPIKey string        `mapstructure:"coingecko_api_key"`
	VsCurrency      string        `mapstructure:"vs_currency"`
	LookbackDays    int           `mapstructure:"lookback_days"`
	Interval        string        `mapstructure:"interval"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// DefaultConfig returns CoinGecko then Binance, 30 days of daily closes in USD.
func DefaultConfig() Config {
	return Config{
		Providers:    []string{"coingecko", "binance"},
		VsCurrency:   "usd",
		LookbackDays: 30,
		Interval:     "1d",
		Timeout:      10 * time.Second,
	}
}

// Collector defines the interface for price history sources
type Collector interface {
	Name() string

	// FetchHistory returns bars for symbol within [start, end]. An empty
	// result with a nil error means the source had nothing for the window.
	FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]core.OHLCV, error)
}
