package main

import (
	"context"
	"fmt"

	"github.com/newthinker/coinalert/internal/app"
	"github.com/newthinker/coinalert/internal/collector/crypto"
	"github.com/newthinker/coinalert/internal/config"
	"github.com/newthinker/coinalert/internal/dispatch"
	"github.com/newthinker/coinalert/internal/entry"
	"github.com/newthinker/coinalert/internal/logger"
	"github.com/newthinker/coinalert/internal/metrics"
	"github.com/newthinker/coinalert/internal/notifier"
	"github.com/newthinker/coinalert/internal/notifier/console"
	"github.com/newthinker/coinalert/internal/notifier/pushover"
	"github.com/newthinker/coinalert/internal/notifier/telegram"
	"github.com/newthinker/coinalert/internal/notifier/webhook"
	"github.com/newthinker/coinalert/internal/storage/archive"
	"go.uber.org/zap"
)

// notifierFactories creates an unconfigured notifier per config key. Init
// fills in the parameters.
var notifierFactories = map[string]func() notifier.Notifier{
	"telegram": func() notifier.Notifier { return telegram.New("", "") },
	"webhook":  func() notifier.Notifier { return webhook.New("", nil) },
	"pushover": func() notifier.Notifier { return pushover.New("", "") },
	"console":  func() notifier.Notifier { return console.New(nil) },
}

// loadConfig reads and validates the config file given with --config.
func loadConfig() (*config.Config, error) {
	if cfgFile == "" {
		return nil, fmt.Errorf("a config file is required (--config)")
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level := ""
	if cfg != nil {
		level = cfg.Log.Level
	}
	return logger.New(debug, level)
}

// buildNotifiers registers every enabled notifier. In dry-run mode only the
// console notifier is used so nothing leaves the machine.
func buildNotifiers(cfg *config.Config, dryRun bool, log *zap.Logger) (*notifier.Registry, error) {
	reg := notifier.NewRegistry()

	if dryRun {
		log.Info("dry run: printing alerts to stdout only")
		return reg, reg.Register(console.New(nil))
	}

	for _, name := range cfg.EnabledNotifiers() {
		factory, ok := notifierFactories[name]
		if !ok {
			return nil, fmt.Errorf("unknown notifier %q", name)
		}
		n := factory()
		if err := n.Init(notifier.Config{Type: name, Params: cfg.Notifiers[name].Params}); err != nil {
			return nil, fmt.Errorf("initializing notifier %s: %w", name, err)
		}
		if err := reg.Register(n); err != nil {
			return nil, err
		}
		log.Info("notifier enabled", zap.String("notifier", name))
	}

	if reg.Len() == 0 {
		log.Warn("no notifiers enabled, printing alerts to stdout")
		if err := reg.Register(console.New(nil)); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// buildApp wires collector, entry book, router and app from cfg. m may be
// nil when metrics are disabled.
func buildApp(ctx context.Context, cfg *config.Config, reg *notifier.Registry, m *metrics.Registry, log *zap.Logger) (*app.App, error) {
	col, err := crypto.NewFromConfig(cfg.Collector, cfg.CoinIDs(), log)
	if err != nil {
		return nil, fmt.Errorf("creating collector: %w", err)
	}
	col.SetMetrics(m)

	router := dispatch.New(cfg.Dispatch, reg, log)
	router.SetMetrics(m)

	store, err := archive.Open(cfg.Entries.Config)
	if err != nil {
		return nil, fmt.Errorf("opening entry store: %w", err)
	}
	book := entry.NewBook(cfg.StaticEntries(), store, cfg.Entries.Key, log)
	if err := book.Load(ctx); err != nil {
		return nil, fmt.Errorf("loading entry book: %w", err)
	}
	log.Info("entry book loaded", zap.Strings("symbols", book.Symbols()))

	a := app.New(app.Options{
		Params:       cfg.Indicators,
		Thresholds:   cfg.Thresholds,
		LookbackDays: cfg.Collector.LookbackDays,
		Interval:     cfg.Collector.Interval,
		Concurrency:  cfg.Concurrency,
	}, router, log)
	a.RegisterCollector(col)
	a.SetEntryBook(book)
	a.SetMetrics(m)
	a.SetWatchlist(cfg.Symbols())
	a.SetInterval(cfg.Schedule.Interval)

	log.Info("app configured",
		zap.Strings("watchlist", cfg.Symbols()),
		zap.Strings("providers", col.Providers()),
		zap.String("entry_store", cfg.Entries.Store),
		zap.Int("concurrency", cfg.Concurrency),
	)
	return a, nil
}
