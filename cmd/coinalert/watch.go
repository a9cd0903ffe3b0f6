package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newthinker/coinalert/internal/app"
	"github.com/newthinker/coinalert/internal/metrics"
	"github.com/newthinker/coinalert/internal/scheduler"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var watchDryRun bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run alert cycles on a schedule until interrupted",
	Long: `watch runs a cycle on the cron expression in schedule.cron, or every
schedule.interval when no cron is set. With metrics enabled the Prometheus
endpoint is served for the lifetime of the process.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchDryRun, "dry-run", false, "print alerts to stdout instead of notifying")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var m *metrics.Registry
	if cfg.Metrics.Enabled {
		m = metrics.NewRegistry()
		go func() {
			if err := metrics.Serve(ctx, m, cfg.Metrics.Addr, cfg.Metrics.Path, log); err != nil {
				log.Error("metrics server error", zap.Error(err))
			}
		}()
	}

	reg, err := buildNotifiers(cfg, watchDryRun, log)
	if err != nil {
		return err
	}

	a, err := buildApp(ctx, cfg, reg, m, log)
	if err != nil {
		return err
	}

	if cfg.Schedule.Cron == "" {
		if err := a.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}

	return watchCron(ctx, a, cfg.Schedule.Cron, log)
}

func watchCron(ctx context.Context, a *app.App, spec string, log *zap.Logger) error {
	sched, err := scheduler.New(spec, func(ctx context.Context) {
		if _, err := a.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("cycle failed", zap.Error(err))
		}
	}, log)
	if err != nil {
		return err
	}
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}

	<-ctx.Done()
	log.Info("coinalert shutting down")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return sched.Stop(shutdownCtx)
}
