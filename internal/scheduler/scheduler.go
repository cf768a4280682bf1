// Package scheduler runs the expiry sweep and the deferred-send poll on cron schedules.
//
// A single process is expected to run the scheduler. Sweeps never overlap within that process:
// a manual trigger during a run fails with ErrSweepInProgress and cron ticks during a run are skipped.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"docexpiry/internal/service"
)

// ErrSweepInProgress is returned by TriggerSweep while another sweep is running.
var ErrSweepInProgress = errors.New("sweep already in progress")

// Poller delivers deferred notifications that are due at now.
type Poller interface {
	Run(ctx context.Context, now time.Time) (int, error)
}

// Config holds cron specs and the zone they are evaluated in.
type Config struct {
	SweepSchedule string
	PollSchedule  string
	Location      *time.Location
	RunOnStart    bool
}

// Scheduler owns the cron loop.
type Scheduler struct {
	cfg    Config
	sweep  service.SweepRunner
	poller Poller
	log    zerolog.Logger
	now    func() time.Time

	sweepMu sync.Mutex
	pollMu  sync.Mutex

	mu      sync.Mutex
	c       *cron.Cron
	runCtx  context.Context
	cancel  context.CancelFunc
	running sync.WaitGroup
}

// New creates a scheduler. poller may be nil to disable deferred sends.
func New(cfg Config, sweep service.SweepRunner, poller Poller, log zerolog.Logger) *Scheduler {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Scheduler{cfg: cfg, sweep: sweep, poller: poller, log: log, now: time.Now}
}

var _ service.SweepTrigger = (*Scheduler)(nil)

// Start registers the jobs and starts the cron loop. Jobs run under a context derived from ctx.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil {
		return nil
	}

	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	c := cron.New(cron.WithParser(parser), cron.WithLocation(s.cfg.Location))

	if _, err := c.AddFunc(s.cfg.SweepSchedule, s.sweepTick); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.cfg.SweepSchedule, err)
	}
	if s.poller != nil && s.cfg.PollSchedule != "" {
		if _, err := c.AddFunc(s.cfg.PollSchedule, s.pollTick); err != nil {
			return fmt.Errorf("invalid poll schedule %q: %w", s.cfg.PollSchedule, err)
		}
	}

	s.runCtx, s.cancel = context.WithCancel(ctx)
	s.c = c
	c.Start()
	s.log.Info().
		Str("event", "scheduler_started").
		Str("sweep_schedule", s.cfg.SweepSchedule).
		Str("poll_schedule", s.cfg.PollSchedule).
		Str("tz", s.cfg.Location.String()).
		Msg("scheduler started")

	if s.cfg.RunOnStart {
		s.running.Add(1)
		go func() {
			defer s.running.Done()
			s.sweepTick()
		}()
	}
	return nil
}

// Stop halts the cron loop and waits for running jobs, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	c, cancel := s.c, s.cancel
	s.c, s.cancel = nil, nil
	s.mu.Unlock()
	if c == nil {
		return nil
	}

	done := make(chan struct{})
	go func() {
		<-c.Stop().Done()
		s.running.Wait()
		close(done)
	}()

	select {
	case <-done:
		cancel()
		s.log.Info().Str("event", "scheduler_stopped").Msg("scheduler stopped")
		return nil
	case <-ctx.Done():
		cancel()
		return ctx.Err()
	}
}

// TriggerSweep runs a sweep now and waits for its summary.
func (s *Scheduler) TriggerSweep(ctx context.Context) (*service.SweepSummary, error) {
	if !s.sweepMu.TryLock() {
		return nil, ErrSweepInProgress
	}
	defer s.sweepMu.Unlock()
	return s.runSweep(ctx, "manual")
}

func (s *Scheduler) jobContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runCtx != nil {
		return s.runCtx
	}
	return context.Background()
}

func (s *Scheduler) sweepTick() {
	if !s.sweepMu.TryLock() {
		s.log.Info().Str("event", "sweep_skipped").Msg("previous sweep still running, tick skipped")
		return
	}
	defer s.sweepMu.Unlock()
	_, _ = s.runSweep(s.jobContext(), "cron")
}

// runSweep must be called with sweepMu held. Panics are recovered and reported as errors.
func (s *Scheduler) runSweep(ctx context.Context, trigger string) (sum *service.SweepSummary, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().
				Str("event", "sweep_panic").
				Str("trigger", trigger).
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("sweep panicked")
			sum, err = nil, fmt.Errorf("sweep panicked: %v", r)
		}
	}()

	s.log.Info().Str("event", "sweep_started").Str("trigger", trigger).Msg("sweep started")
	sum, err = s.sweep.Run(ctx)
	if err != nil {
		s.log.Error().Str("event", "sweep_failed").Str("trigger", trigger).Err(err).Msg("sweep failed")
	}
	return sum, err
}

func (s *Scheduler) pollTick() {
	if !s.pollMu.TryLock() {
		return
	}
	defer s.pollMu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Str("event", "poll_panic").Interface("panic", r).Str("stack", string(debug.Stack())).Msg("deferred poll panicked")
		}
	}()

	n, err := s.poller.Run(s.jobContext(), s.now())
	if err != nil {
		s.log.Error().Str("event", "poll_failed").Err(err).Msg("deferred poll failed")
		return
	}
	if n > 0 {
		s.log.Info().Str("event", "poll_completed").Int("sent", n).Msg("deferred notifications sent")
	}
}
