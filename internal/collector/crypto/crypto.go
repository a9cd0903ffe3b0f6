// Package crypto fetches price history for crypto pairs from an ordered list
// of providers, falling back to the next one on error or empty data.
package crypto

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/newthinker/coinalert/internal/collector"
	"github.com/newthinker/coinalert/internal/collector/crypto/binance"
	"github.com/newthinker/coinalert/internal/collector/crypto/coingecko"
	"github.com/newthinker/coinalert/internal/collector/crypto/pair"
	"github.com/newthinker/coinalert/internal/core"
	"github.com/newthinker/coinalert/internal/metrics"
	"go.uber.org/zap"
)

// Collector implements collector.Collector for cryptocurrency markets
type Collector struct {
	providers    []Provider
	defaultQuote string
	logger       *zap.Logger
	metrics      *metrics.Registry
}

// New creates a Collector with CoinGecko first, then Binance
func New() *Collector {
	return &Collector{
		providers: []Provider{
			coingecko.New(""),
			binance.New(),
		},
		defaultQuote: "USDT",
		logger:       zap.NewNop(),
	}
}

// NewFromConfig builds the provider chain from cfg. coinIDs maps watchlist
// symbols to explicit CoinGecko ids.
func NewFromConfig(cfg collector.Config, coinIDs map[string]string, logger *zap.Logger) (*Collector, error) {
	c := New()
	if logger != nil {
		c.logger = logger
	}

	if len(cfg.Providers) == 0 {
		return c, nil
	}

	providers := make([]Provider, 0, len(cfg.Providers))
	for _, name := range cfg.Providers {
		switch name {
		case "coingecko":
			cg := coingecko.New(cfg.CoinGeckoAPIKey)
			cg.SetIDs(coinIDs)
			cg.SetVsCurrency(cfg.VsCurrency)
			cg.SetTimeout(cfg.Timeout)
			providers = append(providers, cg)
		case "binance":
			b := binance.New()
			b.SetTimeout(cfg.Timeout)
			providers = append(providers, b)
		default:
			return nil, fmt.Errorf("unknown price provider %q", name)
		}
	}
	c.providers = providers
	return c, nil
}

// NewWithProviders creates a Collector with custom providers
func NewWithProviders(providers []Provider, defaultQuote string) *Collector {
	if defaultQuote == "" {
		defaultQuote = "USDT"
	}
	return &Collector{
		providers:    providers,
		defaultQuote: defaultQuote,
		logger:       zap.NewNop(),
	}
}

func (c *Collector) Name() string {
	return "crypto"
}

// SetMetrics attaches a metrics registry for per-provider fetch counts
func (c *Collector) SetMetrics(m *metrics.Registry) {
	c.metrics = m
}

// SetLogger sets the logger
func (c *Collector) SetLogger(logger *zap.Logger) {
	if logger != nil {
		c.logger = logger
	}
}

// Providers returns the provider names in fallback order
func (c *Collector) Providers() []string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return names
}

// FetchHistory fetches historical bars with automatic fallback. When every
// provider answered but none had bars the error is core.ErrNoData; when at
// least one failed it is core.ErrCollectorFailed.
func (c *Collector) FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]core.OHLCV, error) {
	if err := pair.Validate(symbol); err != nil {
		return nil, core.WrapError(core.ErrCollectorFailed, err)
	}
	normalized := pair.Normalize(symbol, c.defaultQuote)

	var errs []error
	for _, p := range c.providers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := p.FetchHistory(ctx, normalized, start, end, interval)
		switch {
		case err != nil:
			c.record(p.Name(), "error")
			c.logger.Warn("provider failed",
				zap.String("provider", p.Name()),
				zap.String("pair", pair.Display(normalized)),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
		case len(data) == 0:
			c.record(p.Name(), "empty")
			c.logger.Debug("provider returned no data",
				zap.String("provider", p.Name()),
				zap.String("pair", pair.Display(normalized)),
			)
		default:
			c.record(p.Name(), "ok")
			for i := range data {
				data[i].Symbol = symbol
			}
			return data, nil
		}
	}

	if len(errs) > 0 {
		return nil, core.WrapError(core.ErrCollectorFailed,
			fmt.Errorf("all providers failed for %s: %w", pair.Display(normalized), errors.Join(errs...)))
	}
	return nil, core.WrapError(core.ErrNoData, fmt.Errorf("no history for %s", pair.Display(normalized)))
}

func (c *Collector) record(provider, status string) {
	if c.metrics != nil {
		c.metrics.RecordFetch(provider, status)
	}
}
