package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runDryRun bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one alert cycle and exit",
	RunE:  runOnce,
}

func init() {
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "print alerts to stdout instead of notifying")
	rootCmd.AddCommand(runCmd)
}

func runOnce(cmd *cobra.Command, args []string) error {
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

	reg, err := buildNotifiers(cfg, runDryRun, log)
	if err != nil {
		return err
	}

	a, err := buildApp(ctx, cfg, reg, nil, log)
	if err != nil {
		return err
	}

	report, err := a.RunOnce(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return context.Cause(ctx)
		}
		return fmt.Errorf("running cycle: %w", err)
	}

	log.Info("run complete",
		zap.String("cycle_id", report.CycleID),
		zap.Int("evaluated", len(report.Evaluated)),
		zap.Any("skipped", report.Skipped),
		zap.Bool("fallback", report.FallbackSent),
	)
	return nil
}
