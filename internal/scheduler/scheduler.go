// Package scheduler runs a job on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is one scheduled run. ctx is cancelled when the scheduler stops.
type Job func(ctx context.Context)

// Scheduler wraps a cron with a single job. Overlapping runs are skipped and
// panics in the job are recovered and logged.
type Scheduler struct {
	cron   *cron.Cron
	spec   string
	job    Job
	logger *zap.Logger
	id     cron.EntryID
	cancel context.CancelFunc
}

// New parses spec (standard 5-field cron or a descriptor such as "@hourly")
// and registers job.
func New(spec string, job Job, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if job == nil {
		return nil, fmt.Errorf("scheduler: job is required")
	}

	cl := cronLogger{logger.Sugar()}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			// Recover sits inside SkipIfStillRunning so a panicking run
			// still releases the running slot.
			cron.WithChain(cron.SkipIfStillRunning(cl), cron.Recover(cl)),
		),
		spec:   spec,
		job:    job,
		logger: logger,
	}
	return s, nil
}

// Start begins running the job on schedule until Stop or ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)

	id, err := s.cron.AddFunc(s.spec, func() { s.job(runCtx) })
	if err != nil {
		cancel()
		return fmt.Errorf("scheduler: invalid spec %q: %w", s.spec, err)
	}
	s.id = id
	s.cancel = cancel

	s.cron.Start()
	s.logger.Info("scheduler started",
		zap.String("spec", s.spec),
		zap.Time("next", s.Next()),
	)
	return nil
}

// Next returns the next scheduled run, or the zero time before Start.
func (s *Scheduler) Next() time.Time {
	if s.id == 0 {
		return time.Time{}
	}
	return s.cron.Entry(s.id).Next
}

// Stop stops scheduling, cancels the context of a running job and waits for
// it to return until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	if s.cancel != nil {
		s.cancel()
	}

	select {
	case <-done.Done():
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler: waiting for running job: %w", ctx.Err())
	}
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
