// Package app runs alert cycles: fetch, evaluate, render and dispatch for
// every watchlist symbol.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/newthinker/coinalert/internal/alert"
	"github.com/newthinker/coinalert/internal/collector"
	"github.com/newthinker/coinalert/internal/core"
	"github.com/newthinker/coinalert/internal/dispatch"
	"github.com/newthinker/coinalert/internal/entry"
	"github.com/newthinker/coinalert/internal/indicator"
	"github.com/newthinker/coinalert/internal/metrics"
	"github.com/newthinker/coinalert/internal/render"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Skip causes recorded in Report.Skipped.
const (
	SkipNoData           = "no_data"
	SkipFetchFailed      = "fetch_failed"
	SkipInvalidPrice     = "invalid_price"
	SkipInsufficientData = "insufficient_data"
	SkipEvaluationFailed = "evaluation_failed"
)

// Options configures an App.
type Options struct {
	Params       indicator.Params
	Thresholds   alert.Thresholds
	LookbackDays int
	Interval     string
	Concurrency  int
}

// Outcome is the evaluation of one symbol.
type Outcome struct {
	Symbol      string
	Snapshot    indicator.Snapshot
	Result      alert.Result
	EntryPrice  *float64
	EntrySeeded bool
	Message     string
}

// Report summarises one cycle.
type Report struct {
	CycleID      string
	Evaluated    []Outcome
	Skipped      map[string]string
	FallbackSent bool
	Duration     time.Duration
}

// App is the main application orchestrator
type App struct {
	opts       Options
	logger     *zap.Logger
	collectors *collector.Registry
	evaluator  *alert.Evaluator
	router     *dispatch.Router
	entries    *entry.Book
	metrics    *metrics.Registry
	now        func() time.Time

	watchlist []string
	interval  time.Duration

	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
}

// New creates a new App instance
func New(opts Options, router *dispatch.Router, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.LookbackDays < 1 {
		opts.LookbackDays = 30
	}
	if opts.Interval == "" {
		opts.Interval = "1d"
	}

	return &App{
		opts:       opts,
		logger:     logger,
		collectors: collector.NewRegistry(),
		evaluator:  alert.NewEvaluator(opts.Thresholds),
		router:     router,
		now:        time.Now,
		interval:   time.Hour,
	}
}

// RegisterCollector adds a collector to the app. Collectors are tried in
// name order until one returns data.
func (a *App) RegisterCollector(c collector.Collector) {
	a.collectors.Register(c)
}

// SetEntryBook sets the entry price source. Without one the entry bands
// never fire. The book is saved after every cycle; loading it is up to the
// caller.
func (a *App) SetEntryBook(b *entry.Book) {
	a.entries = b
}

// SetMetrics attaches a metrics registry
func (a *App) SetMetrics(m *metrics.Registry) {
	a.metrics = m
}

// SetWatchlist sets the symbols to evaluate, in dispatch order
func (a *App) SetWatchlist(symbols []string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.watchlist = append([]string(nil), symbols...)
	if a.metrics != nil {
		a.metrics.SetWatchlistSize(len(symbols))
	}
}

// SetInterval sets the cycle interval used by Start
func (a *App) SetInterval(d time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.interval = d
}

// Start runs a cycle immediately and then every interval until ctx is
// cancelled or Stop is called.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return fmt.Errorf("app already running")
	}
	a.running = true
	interval := a.interval

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.running = false
		a.mu.Unlock()
	}()

	a.logger.Info("coinalert starting",
		zap.Int("watchlist_count", len(a.Watchlist())),
		zap.Duration("interval", interval),
	)

	a.runLogged(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("coinalert shutting down")
			return ctx.Err()
		case <-ticker.C:
			a.runLogged(ctx)
		}
	}
}

// Stop stops the loop started by Start
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		a.cancel()
	}
}

// Running reports whether Start is looping.
func (a *App) Running() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.running
}

// Watchlist returns the current watchlist symbols.
func (a *App) Watchlist() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]string(nil), a.watchlist...)
}

func (a *App) runLogged(ctx context.Context) {
	if _, err := a.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Error("cycle failed", zap.Error(err))
	}
}

// RunOnce performs a single cycle. Per-symbol problems are reported in
// Report.Skipped, not returned. Messages are dispatched in watchlist order;
// when no symbol could be evaluated exactly one fallback message is sent.
func (a *App) RunOnce(ctx context.Context) (Report, error) {
	started := a.now()
	report := Report{
		CycleID: uuid.NewString(),
		Skipped: map[string]string{},
	}
	log := a.logger.With(zap.String("cycle_id", report.CycleID))

	if len(a.collectors.GetAll()) == 0 {
		return report, fmt.Errorf("no collectors registered")
	}

	symbols := a.Watchlist()
	log.Debug("starting cycle", zap.Int("symbols", len(symbols)))

	outcomes := make([]*Outcome, len(symbols))
	skips := make([]string, len(symbols))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.Concurrency)
	for i, symbol := range symbols {
		i, symbol := i, symbol
		g.Go(func() error {
			out, cause := a.evaluateSymbol(gctx, log, symbol)
			outcomes[i], skips[i] = out, cause
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return report, err
	}

	for i, symbol := range symbols {
		if skips[i] != "" {
			report.Skipped[symbol] = skips[i]
			if a.metrics != nil {
				a.metrics.RecordSkip(skips[i])
			}
			continue
		}
		out := outcomes[i]
		report.Evaluated = append(report.Evaluated, *out)
		if a.metrics != nil {
			a.metrics.RecordEvaluation(out.Symbol, string(out.Result.Recommendation), reasonStrings(out.Result.Reasons))
		}
		if a.router != nil {
			a.router.Route(ctx, out.Symbol, out.Result.Recommendation, out.Message)
		}
	}

	if len(report.Evaluated) == 0 {
		log.Warn("no symbol produced an evaluation, sending fallback",
			zap.Int("skipped", len(report.Skipped)),
		)
		if a.router != nil {
			a.router.RouteFallback(ctx, render.Fallback())
		}
		report.FallbackSent = true
		if a.metrics != nil {
			a.metrics.RecordFallback()
		}
	}

	if a.router != nil {
		if n := a.router.CleanupExpiredCooldowns(); n > 0 {
			log.Debug("expired cooldowns removed", zap.Int("count", n))
		}
	}

	if a.entries != nil {
		if err := a.entries.Save(ctx); err != nil {
			log.Warn("failed to save entry book", zap.Error(err))
		}
	}

	finished := a.now()
	report.Duration = finished.Sub(started)
	if a.metrics != nil {
		a.metrics.RecordCycle(report.Duration.Seconds(), finished.Unix())
	}

	log.Info("cycle complete",
		zap.Int("evaluated", len(report.Evaluated)),
		zap.Int("skipped", len(report.Skipped)),
		zap.Bool("fallback", report.FallbackSent),
		zap.Duration("duration", report.Duration),
	)
	return report, nil
}

// evaluateSymbol returns the outcome or a skip cause.
func (a *App) evaluateSymbol(ctx context.Context, log *zap.Logger, symbol string) (*Outcome, string) {
	log = log.With(zap.String("symbol", symbol))

	bars, err := a.fetch(ctx, symbol)
	switch {
	case errors.Is(err, core.ErrNoData), err == nil && len(bars) == 0:
		log.Info("no data, skipping")
		return nil, SkipNoData
	case err != nil:
		log.Warn("fetch failed, skipping", zap.Error(err))
		return nil, SkipFetchFailed
	}

	series := core.SeriesFromOHLCV(bars)
	out, err := analyze(symbol, series, a.opts.Params, a.evaluator, func(last float64) (*float64, bool) {
		if a.entries == nil {
			return nil, false
		}
		p, seeded := a.entries.Resolve(symbol, last)
		if !core.ValidPrice(p) {
			return nil, false
		}
		return &p, seeded
	})
	switch {
	case errors.Is(err, core.ErrInvalidPrice):
		log.Warn("invalid last price, skipping", zap.Float64("last", series.Last()))
		return nil, SkipInvalidPrice
	case errors.Is(err, core.ErrInsufficientData):
		log.Info("insufficient data, skipping", zap.Int("points", series.Len()))
		return nil, SkipInsufficientData
	case err != nil:
		log.Error("evaluation failed, skipping", zap.Error(err))
		return nil, SkipEvaluationFailed
	}

	log.Debug("symbol evaluated",
		zap.String("recommendation", string(out.Result.Recommendation)),
		zap.Int("reasons", len(out.Result.Reasons)),
		zap.Bool("entry_seeded", out.EntrySeeded),
	)
	return &out, ""
}

func (a *App) fetch(ctx context.Context, symbol string) ([]core.OHLCV, error) {
	end := a.now()
	start := end.AddDate(0, 0, -a.opts.LookbackDays)

	var lastErr error
	for _, c := range a.collectors.GetAll() {
		bars, err := c.FetchHistory(ctx, symbol, start, end, a.opts.Interval)
		if err == nil && len(bars) > 0 {
			return bars, nil
		}
		if err != nil {
			lastErr = err
		}
	}
	return nil, lastErr
}

// Analyze evaluates a ready series without any I/O. entryPrice may be nil.
func Analyze(symbol string, series core.PriceSeries, entryPrice *float64, params indicator.Params, ev *alert.Evaluator) (Outcome, error) {
	return analyze(symbol, series, params, ev, func(float64) (*float64, bool) {
		return entryPrice, false
	})
}

func analyze(symbol string, series core.PriceSeries, params indicator.Params, ev *alert.Evaluator,
	resolveEntry func(last float64) (*float64, bool)) (Outcome, error) {
	if series.IsEmpty() {
		return Outcome{}, core.ErrNoData
	}
	if last := series.Last(); !core.ValidPrice(last) {
		return Outcome{}, core.WrapError(core.ErrInvalidPrice, fmt.Errorf("last price %v", last))
	}

	snap, err := indicator.Compute(series, params)
	if err != nil {
		return Outcome{}, err
	}

	entryPrice, seeded := resolveEntry(snap.LastPrice)
	res := ev.Evaluate(alert.Input{Snapshot: snap, EntryPrice: entryPrice})

	out := Outcome{
		Symbol:      symbol,
		Snapshot:    snap,
		Result:      res,
		EntryPrice:  entryPrice,
		EntrySeeded: seeded,
	}
	out.Message = render.Render(render.Alert{
		Symbol:     symbol,
		Snapshot:   snap,
		Params:     params,
		Thresholds: ev.Thresholds(),
		Result:     res,
		EntryPrice: entryPrice,
	})
	return out, nil
}

func reasonStrings(reasons []alert.Reason) []string {
	out := make([]string, len(reasons))
	for i, r := range reasons {
		out[i] = string(r)
	}
	return out
}
