package crypto

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/newthinker/coinalert/internal/collector"
	"github.com/newthinker/coinalert/internal/core"
	"github.com/newthinker/coinalert/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_ImplementsCollector(t *testing.T) {
	var _ collector.Collector = (*Collector)(nil)
}

func TestCollector_Name(t *testing.T) {
	assert.Equal(t, "crypto", New().Name())
}

// Mock provider for testing
type mockProvider struct {
	name       string
	history    []core.OHLCV
	historyErr error
	lastSymbol string
	calls      int
}

func (m *mockProvider) Name() string { return m.name }

func (m *mockProvider) FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]core.OHLCV, error) {
	m.calls++
	m.lastSymbol = symbol
	if m.historyErr != nil {
		return nil, m.historyErr
	}
	return m.history, nil
}

func bars(closes ...float64) []core.OHLCV {
	out := make([]core.OHLCV, len(closes))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		out[i] = core.OHLCV{Close: c, Time: base.AddDate(0, 0, i)}
	}
	return out
}

func TestCollector_FetchHistory_Fallback(t *testing.T) {
	failing := &mockProvider{name: "fail", historyErr: fmt.Errorf("provider error")}
	empty := &mockProvider{name: "empty"}
	working := &mockProvider{name: "ok", history: bars(1, 2, 3)}

	c := NewWithProviders([]Provider{failing, empty, working}, "")
	m := metrics.NewRegistry()
	c.SetMetrics(m)

	data, err := c.FetchHistory(context.Background(), "btc", time.Now().AddDate(0, 0, -30), time.Now(), "1d")
	require.NoError(t, err)

	assert.Len(t, data, 3)
	assert.Equal(t, "btc", data[0].Symbol)
	assert.Equal(t, "BTCUSDT", working.lastSymbol)
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, empty.calls)
}

func TestCollector_FetchHistory_StopsAtFirstSuccess(t *testing.T) {
	first := &mockProvider{name: "first", history: bars(5)}
	second := &mockProvider{name: "second", history: bars(6)}

	c := NewWithProviders([]Provider{first, second}, "USDT")
	data, err := c.FetchHistory(context.Background(), "ETH/USDT", time.Now(), time.Now(), "1d")
	require.NoError(t, err)

	assert.Equal(t, 5.0, data[0].Close)
	assert.Equal(t, 0, second.calls)
}

func TestCollector_FetchHistory_AllEmptyIsNoData(t *testing.T) {
	c := NewWithProviders([]Provider{&mockProvider{name: "a"}, &mockProvider{name: "b"}}, "")

	_, err := c.FetchHistory(context.Background(), "BTC", time.Now(), time.Now(), "1d")
	assert.ErrorIs(t, err, core.ErrNoData)
	assert.ErrorContains(t, err, "BTC/USDT")
}

func TestCollector_FetchHistory_AllFail(t *testing.T) {
	c := NewWithProviders([]Provider{
		&mockProvider{name: "a", historyErr: fmt.Errorf("timeout")},
		&mockProvider{name: "b"},
	}, "")

	_, err := c.FetchHistory(context.Background(), "BTC", time.Now(), time.Now(), "1d")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrCollectorFailed)
	assert.Contains(t, err.Error(), "timeout")
	assert.Contains(t, err.Error(), "all providers failed for BTC/USDT")
}

func TestCollector_FetchHistory_InvalidSymbol(t *testing.T) {
	p := &mockProvider{name: "a", history: bars(1)}
	c := NewWithProviders([]Provider{p}, "")

	_, err := c.FetchHistory(context.Background(), "../admin", time.Now(), time.Now(), "1d")
	assert.ErrorIs(t, err, core.ErrCollectorFailed)
	assert.Equal(t, 0, p.calls)
}

func TestCollector_FetchHistory_Cancelled(t *testing.T) {
	p := &mockProvider{name: "a", history: bars(1)}
	c := NewWithProviders([]Provider{p}, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.FetchHistory(ctx, "BTC", time.Now(), time.Now(), "1d")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewFromConfig(t *testing.T) {
	cfg := collector.DefaultConfig()
	cfg.Providers = []string{"binance", "coingecko"}

	c, err := NewFromConfig(cfg, map[string]string{"PEPE": "pepe"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"binance", "coingecko"}, c.Providers())

	cfg.Providers = []string{"okx"}
	_, err = NewFromConfig(cfg, nil, nil)
	assert.Error(t, err)

	cfg.Providers = nil
	c, err = NewFromConfig(cfg, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"coingecko", "binance"}, c.Providers())
}
