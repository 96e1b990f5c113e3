package refresh

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	appLog "dragcal/internal/log"
)

// Runner is what the scheduler triggers; *Pipeline implements it.
type Runner interface {
	Run(ctx context.Context) (Result, error)
}

// Scheduler runs a Runner on a cron spec. Runs never overlap: a tick that
// fires while a refresh is still going is skipped.
type Scheduler struct {
	cron   *cron.Cron
	runner Runner

	running sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewScheduler parses spec as a standard 5-field cron expression evaluated
// in loc.
func NewScheduler(spec string, loc *time.Location, runner Runner) (*Scheduler, error) {
	if loc == nil {
		loc = time.Local
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cronLogger{}),
			cron.WithChain(cron.Recover(cronLogger{})),
		),
		runner: runner,
		ctx:    ctx,
		cancel: cancel,
	}
	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		cancel()
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) tick() {
	if _, err := s.RunNow(s.ctx); err != nil {
		appLog.Error("scheduled refresh failed", err)
	}
}

// RunNow runs the refresh immediately. It reports false without running
// when another refresh is in progress.
func (s *Scheduler) RunNow(ctx context.Context) (bool, error) {
	if !s.running.TryLock() {
		appLog.Warn("refresh still running, skipping")
		return false, nil
	}
	defer s.running.Unlock()

	_, err := s.runner.Run(ctx)
	return true, err
}

// Start begins evaluating the schedule in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	appLog.Info("refresh scheduler started", "next", s.Next())
}

// Next is the next scheduled run, zero before Start.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Stop stops the schedule, cancels an in-flight refresh and waits for it
// until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	s.cancel()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger routes cron's own logging to the app logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, kv ...interface{}) {
	appLog.Debug("cron: "+msg, kv...)
}

func (cronLogger) Error(err error, msg string, kv ...interface{}) {
	appLog.Error("cron: "+msg, err, kv...)
}
