package main

import (
	"context"
	"testing"

	"github.com/newthinker/coinalert/internal/config"
	"github.com/newthinker/coinalert/internal/notifier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func names(reg *notifier.Registry) []string {
	var out []string
	for _, n := range reg.GetAll() {
		out = append(out, n.Name())
	}
	return out
}

func TestBuildNotifiers(t *testing.T) {
	cfg := config.Defaults()
	cfg.Notifiers = map[string]config.NotifierConfig{
		"webhook":  {Enabled: true, Params: map[string]any{"url": "http://localhost/hook"}},
		"pushover": {Enabled: true, Params: map[string]any{"token": "t", "user": "u"}},
		"telegram": {Enabled: false},
	}

	reg, err := buildNotifiers(cfg, false, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []string{"pushover", "webhook"}, names(reg))
}

func TestBuildNotifiers_DryRun(t *testing.T) {
	cfg := config.Defaults()
	cfg.Notifiers = map[string]config.NotifierConfig{
		"webhook": {Enabled: true, Params: map[string]any{"url": "http://localhost/hook"}},
	}

	reg, err := buildNotifiers(cfg, true, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []string{"console"}, names(reg))
}

func TestBuildNotifiers_NoneEnabled(t *testing.T) {
	reg, err := buildNotifiers(config.Defaults(), false, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []string{"console"}, names(reg))
}

func TestBuildNotifiers_Errors(t *testing.T) {
	cfg := config.Defaults()
	cfg.Notifiers = map[string]config.NotifierConfig{"carrier_pigeon": {Enabled: true}}
	_, err := buildNotifiers(cfg, false, zap.NewNop())
	assert.ErrorContains(t, err, "unknown notifier")

	cfg.Notifiers = map[string]config.NotifierConfig{"telegram": {Enabled: true}}
	_, err = buildNotifiers(cfg, false, zap.NewNop())
	assert.ErrorContains(t, err, "bot_token")
}

func TestBuildApp(t *testing.T) {
	entry := 42000.0
	cfg := config.Defaults()
	cfg.Watchlist = []config.WatchlistItem{{Symbol: "BTC", EntryPrice: &entry}, {Symbol: "ETH"}}
	require.NoError(t, cfg.Validate())

	reg, err := buildNotifiers(cfg, true, zap.NewNop())
	require.NoError(t, err)

	a, err := buildApp(context.Background(), cfg, reg, nil, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []string{"BTC", "ETH"}, a.Watchlist())
	assert.False(t, a.Running())
}

func TestBuildApp_BadStore(t *testing.T) {
	cfg := config.Defaults()
	cfg.Entries.Store = "tape"

	_, err := buildApp(context.Background(), cfg, notifier.NewRegistry(), nil, zap.NewNop())
	assert.ErrorContains(t, err, "entry store")
}
