package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is a unit of scheduled work. ctx is cancelled after the run timeout.
type Job func(ctx context.Context)

// Scheduler runs registered jobs on cron schedules.
type Scheduler struct {
	cron    *cron.Cron
	log     *zap.Logger
	timeout time.Duration
	base    context.Context
	cancel  context.CancelFunc
}

// New returns a scheduler whose job runs are each bounded by timeout.
// Schedules are evaluated in UTC.
func New(log *zap.Logger, timeout time.Duration) *Scheduler {
	base, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		log:     log,
		timeout: timeout,
		base:    base,
		cancel:  cancel,
	}
}

// RegisterJob adds job under a standard 5-field cron spec or a descriptor
// such as "@every 1m".
func (s *Scheduler) RegisterJob(spec, name string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() { s.run(name, job) })
	if err != nil {
		return fmt.Errorf("register job %q (%s): %w", name, spec, err)
	}
	s.log.Info("scheduled job", zap.String("job", name), zap.String("spec", spec))
	return nil
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop stops scheduling, cancels running jobs and waits for them to return
// or for ctx to end.
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

func (s *Scheduler) run(name string, job Job) {
	ctx := s.base
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("job panicked", zap.String("job", name), zap.Any("panic", r))
		}
	}()
	job(ctx)
	s.log.Debug("job finished", zap.String("job", name), zap.Duration("took", time.Since(start)))
}
