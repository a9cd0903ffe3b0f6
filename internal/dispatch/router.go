// Package dispatch delivers rendered alerts to every registered notifier.
package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/newthinker/coinalert/internal/alert"
	"github.com/newthinker/coinalert/internal/core"
	"github.com/newthinker/coinalert/internal/metrics"
	"github.com/newthinker/coinalert/internal/notifier"
	"go.uber.org/zap"
)

// Config holds router configuration
type Config struct {
	Retries    int           `mapstructure:"retries"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
	// Cooldown suppresses repeating the same recommendation for a symbol
	// within the window. Zero disables it.
	Cooldown time.Duration `mapstructure:"cooldown"`
}

// DefaultConfig returns default router configuration
func DefaultConfig() Config {
	return Config{
		Retries:    2,
		RetryDelay: 2 * time.Second,
	}
}

type cooldownEntry struct {
	rec  alert.Recommendation
	sent time.Time
}

// Router sends messages to notifiers with retries and an optional cooldown.
// Delivery failures are logged and counted, never returned.
type Router struct {
	cfg       Config
	registry  *notifier.Registry
	logger    *zap.Logger
	metrics   *metrics.Registry
	cooldowns map[string]cooldownEntry
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error
	mu        sync.Mutex
}

// New creates a new router
func New(cfg Config, registry *notifier.Registry, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	return &Router{
		cfg:       cfg,
		registry:  registry,
		logger:    logger,
		cooldowns: make(map[string]cooldownEntry),
		now:       time.Now,
		sleep:     sleepCtx,
	}
}

// SetMetrics attaches a metrics registry
func (r *Router) SetMetrics(m *metrics.Registry) {
	r.metrics = m
}

// Delivery is the outcome of one Route call.
type Delivery struct {
	Suppressed bool
	Sent       int
	Failed     map[string]error
}

// Route delivers the message for symbol unless the cooldown suppresses it.
func (r *Router) Route(ctx context.Context, symbol string, rec alert.Recommendation, text string) Delivery {
	if r.suppressed(symbol, rec) {
		r.logger.Debug("alert suppressed by cooldown",
			zap.String("symbol", symbol),
			zap.String("recommendation", string(rec)),
		)
		return Delivery{Suppressed: true}
	}

	d := r.deliver(ctx, text)

	if d.Sent > 0 {
		r.mu.Lock()
		r.cooldowns[symbol] = cooldownEntry{rec: rec, sent: r.now()}
		r.mu.Unlock()
	}

	r.logger.Info("alert routed",
		zap.String("symbol", symbol),
		zap.String("recommendation", string(rec)),
		zap.Int("sent", d.Sent),
		zap.Int("errors", len(d.Failed)),
	)
	return d
}

// RouteFallback delivers the no-data message. It bypasses the cooldown.
func (r *Router) RouteFallback(ctx context.Context, text string) Delivery {
	d := r.deliver(ctx, text)
	r.logger.Info("fallback routed",
		zap.Int("sent", d.Sent),
		zap.Int("errors", len(d.Failed)),
	)
	return d
}

func (r *Router) deliver(ctx context.Context, text string) Delivery {
	d := Delivery{Failed: map[string]error{}}
	// nil registry is allowed
	if r.registry == nil {
		return d
	}

	failed := r.registry.NotifyAll(ctx, text, func(ctx context.Context, n notifier.Notifier, text string) error {
		if err := r.sendWithRetry(ctx, n, text); err != nil {
			r.record(n.Name(), "failed")
			r.logger.Error("notifier failed",
				zap.String("notifier", n.Name()),
				zap.Error(err),
			)
			return core.WrapError(core.ErrNotifierFailed, fmt.Errorf("%s: %w", n.Name(), err))
		}
		r.record(n.Name(), "sent")
		return nil
	})

	d.Failed = failed
	d.Sent = r.registry.Len() - len(failed)
	return d
}

func (r *Router) sendWithRetry(ctx context.Context, n notifier.Notifier, text string) error {
	var err error
	for attempt := 0; attempt <= r.cfg.Retries; attempt++ {
		if attempt > 0 {
			r.record(n.Name(), "retry")
			if serr := r.sleep(ctx, r.cfg.RetryDelay); serr != nil {
				return serr
			}
		}
		if err = n.Send(ctx, text); err == nil {
			return nil
		}
		r.logger.Warn("notifier attempt failed",
			zap.String("notifier", n.Name()),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}
	return err
}

func (r *Router) suppressed(symbol string, rec alert.Recommendation) bool {
	if r.cfg.Cooldown <= 0 {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	last, ok := r.cooldowns[symbol]
	return ok && last.rec == rec && r.now().Sub(last.sent) < r.cfg.Cooldown
}

func (r *Router) record(name, status string) {
	if r.metrics != nil {
		r.metrics.RecordDelivery(name, status)
	}
}

// CleanupExpiredCooldowns removes cooldown entries older than the cooldown window.
func (r *Router) CleanupExpiredCooldowns() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	removed := 0
	for symbol, last := range r.cooldowns {
		if now.Sub(last.sent) >= r.cfg.Cooldown {
			delete(r.cooldowns, symbol)
			removed++
		}
	}
	return removed
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
